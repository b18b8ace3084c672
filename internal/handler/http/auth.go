package http

import (
	"net/http"

	"github.com/MKhiriev/go-social-sync/internal/app"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/utils"
	"github.com/MKhiriev/go-social-sync/models"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, "*Handler.register", &req) {
		return
	}

	user, err := h.services.AuthService.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, "*Handler.register", err, app.MsgRegistrationFailed)
		return
	}

	h.issueToken(w, r, user, http.StatusCreated)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, "*Handler.login", &req) {
		return
	}

	user, err := h.services.AuthService.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, "*Handler.login", err, app.MsgInvalidLoginPassword)
		return
	}

	logger.FromRequest(r).Debug().Str("user_id", user.ID).Msg("user successfully logged in")
	h.issueToken(w, r, user, http.StatusOK)
}

// issueToken answers with {token, user}. The token is also set in the
// Authorization header.
func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request, user models.User, status int) {
	token, err := h.services.AuthService.CreateToken(r.Context(), user)
	if err != nil {
		h.fail(w, r, "*Handler.issueToken", err, "")
		return
	}

	w.Header().Set("Authorization", "Bearer "+token.SignedString)
	utils.WriteJSON(w, models.AuthResponse{Token: token.SignedString, User: user}, status)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.services.AuthService.Me(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "*Handler.me", err, app.MsgUserNotFound)
		return
	}
	utils.WriteJSON(w, user, http.StatusOK)
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var upd models.ProfileUpdate
	if !decode(w, r, "*Handler.updateMe", &upd) {
		return
	}

	user, err := h.services.AuthService.UpdateProfile(r.Context(), userID, upd)
	if err != nil {
		h.fail(w, r, "*Handler.updateMe", err, app.MsgUserNotFound)
		return
	}
	utils.WriteJSON(w, user, http.StatusOK)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if !decode(w, r, "*Handler.changePassword", &req) {
		return
	}

	if err := h.services.AuthService.ChangePassword(r.Context(), userID, req); err != nil {
		h.fail(w, r, "*Handler.changePassword", err, app.MsgUserNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
