package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-social-sync/internal/app"
	"github.com/MKhiriev/go-social-sync/internal/utils"
	"github.com/MKhiriev/go-social-sync/models"
)

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in models.CommentInput
	if !decode(w, r, "*Handler.addComment", &in) {
		return
	}

	c, err := h.services.FeedService.AddComment(r.Context(), userID, chi.URLParam(r, "postID"), in)
	if err != nil {
		h.fail(w, r, "*Handler.addComment", err, app.MsgPostNotFound)
		return
	}
	utils.WriteJSON(w, c, http.StatusCreated)
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in models.CommentInput
	if !decode(w, r, "*Handler.reply", &in) {
		return
	}

	c, err := h.services.FeedService.Reply(r.Context(), userID, chi.URLParam(r, "commentID"), in)
	if err != nil {
		h.fail(w, r, "*Handler.reply", err, app.MsgCommentNotFound)
		return
	}
	utils.WriteJSON(w, c, http.StatusCreated)
}

func (h *Handler) likeComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	res, err := h.services.FeedService.LikeComment(r.Context(), userID, chi.URLParam(r, "commentID"))
	if err != nil {
		h.fail(w, r, "*Handler.likeComment", err, app.MsgCommentNotFound)
		return
	}
	utils.WriteJSON(w, res, http.StatusOK)
}
