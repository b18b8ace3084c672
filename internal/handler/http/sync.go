package http

import (
	"net/http"

	"github.com/MKhiriev/go-social-sync/internal/utils"
	"github.com/MKhiriev/go-social-sync/models"
)

// sync creates the pending posts of an offline client. Replaying the same
// batch from the same installation returns the same server ids.
func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.SyncRequest
	if !decode(w, r, "*Handler.sync", &req) {
		return
	}

	resp, err := h.services.SyncService.Sync(r.Context(), userID, r.Header.Get(clientIDHeader), req)
	if err != nil {
		h.fail(w, r, "*Handler.sync", err, "")
		return
	}
	utils.WriteJSON(w, resp, http.StatusOK)
}
