package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MKhiriev/go-social-sync/internal/app"
	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/service"
	"github.com/MKhiriev/go-social-sync/internal/utils"
)

// Handler serves the REST surface of the development server.
type Handler struct {
	services *service.Services

	// hasher verifies the HashSHA256 header; nil disables the check.
	hasher         *utils.Hasher
	requestTimeout time.Duration

	logger *logger.Logger
}

func NewHandler(services *service.Services, cfg config.ServerConfig, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services:       services,
		hasher:         utils.NewHasher(cfg.HashKey),
		requestTimeout: cfg.RequestTimeout,
		logger:         logger,
	}
}

// fail writes the JSON error for err and logs it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, fn string, err error, notFoundMsg string) {
	resp := responseFromError(err, notFoundMsg)

	log := logger.FromRequest(r)
	event := log.Warn()
	if resp.status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("func", fn).Int("status", resp.status).Send()

	utils.WriteError(w, resp.message, resp.status)
}

// decode reads the JSON body into dst. On failure it answers 400 and
// returns false.
func decode(w http.ResponseWriter, r *http.Request, fn string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.FromRequest(r).Err(err).Str("func", fn).Msg("Invalid JSON was passed")
		utils.WriteError(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
		return false
	}
	return true
}

// currentUser returns the user id stored by the auth middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		logger.FromRequest(r).Error().Msg("no user ID in context")
		utils.WriteError(w, app.MsgNoUserIDProvided, http.StatusUnauthorized)
	}
	return userID, ok
}
