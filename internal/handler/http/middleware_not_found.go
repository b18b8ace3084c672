// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/MKhiriev/go-social-sync/internal/utils"
)

// notFound is registered both as the router's NotFound and MethodNotAllowed
// handler. An unsupported method on a known path answers 404 like an
// unknown path, so callers cannot probe which routes exist.
func notFound(w http.ResponseWriter, r *http.Request) {
	utils.WriteError(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}
