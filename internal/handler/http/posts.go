package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-social-sync/internal/app"
	"github.com/MKhiriev/go-social-sync/internal/utils"
	"github.com/MKhiriev/go-social-sync/models"
)

// clientIDHeader names the installation sending the request. Creates are
// deduplicated per installation.
const clientIDHeader = "X-Client-ID"

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	posts, err := h.services.FeedService.ListPosts(r.Context(), userID, models.PostQuery{
		Search:    query.Get("search"),
		Author:    query.Get("author"),
		OrderBy:   query.Get("order_by"),
		Direction: query.Get("direction"),
	})
	if err != nil {
		h.fail(w, r, "*Handler.listPosts", err, app.MsgPostNotFound)
		return
	}
	utils.WriteJSON(w, posts, http.StatusOK)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	post, err := h.services.FeedService.GetPost(r.Context(), userID, chi.URLParam(r, "postID"))
	if err != nil {
		h.fail(w, r, "*Handler.getPost", err, app.MsgPostNotFound)
		return
	}
	utils.WriteJSON(w, post, http.StatusOK)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in models.PostInput
	if !decode(w, r, "*Handler.createPost", &in) {
		return
	}

	post, err := h.services.FeedService.CreatePost(r.Context(), userID, r.Header.Get(clientIDHeader), in)
	if err != nil {
		h.fail(w, r, "*Handler.createPost", err, app.MsgPostNotFound)
		return
	}
	utils.WriteJSON(w, post, http.StatusCreated)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in models.PostInput
	if !decode(w, r, "*Handler.updatePost", &in) {
		return
	}

	post, err := h.services.FeedService.UpdatePost(r.Context(), userID, chi.URLParam(r, "postID"), in)
	if err != nil {
		h.fail(w, r, "*Handler.updatePost", err, app.MsgPostNotFound)
		return
	}
	utils.WriteJSON(w, post, http.StatusOK)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.services.FeedService.DeletePost(r.Context(), userID, chi.URLParam(r, "postID")); err != nil {
		h.fail(w, r, "*Handler.deletePost", err, app.MsgPostNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) vote(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.VoteRequest
	if !decode(w, r, "*Handler.vote", &req) {
		return
	}

	res, err := h.services.FeedService.Vote(r.Context(), userID, chi.URLParam(r, "postID"), req.Vote)
	if err != nil {
		h.fail(w, r, "*Handler.vote", err, app.MsgPostNotFound)
		return
	}
	utils.WriteJSON(w, res, http.StatusOK)
}

func (h *Handler) favorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.FavoriteRequest
	if !decode(w, r, "*Handler.favorite", &req) {
		return
	}

	if err := h.services.FeedService.SetFavorite(r.Context(), userID, chi.URLParam(r, "postID"), req.Favorite); err != nil {
		h.fail(w, r, "*Handler.favorite", err, app.MsgPostNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) favorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	posts, err := h.services.FeedService.Favorites(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "*Handler.favorites", err, app.MsgPostNotFound)
		return
	}
	utils.WriteJSON(w, posts, http.StatusOK)
}

func (h *Handler) userPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	posts, err := h.services.FeedService.UserPosts(r.Context(), userID, chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, "*Handler.userPosts", err, app.MsgUserNotFound)
		return
	}
	utils.WriteJSON(w, posts, http.StatusOK)
}
