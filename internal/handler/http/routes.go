package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging, withGZip, h.withHashCheck)
	if h.requestTimeout > 0 {
		router.Use(middleware.Timeout(h.requestTimeout))
	}

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/version", h.getServerVersion)
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", h.me)
			r.Put("/", h.updateMe)
			r.Put("/password", h.changePassword)
			r.Get("/favorites", h.favorites)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.listPosts)
			r.Post("/", h.createPost)
			r.Get("/user/{userID}", h.userPosts)
			r.Get("/{postID}", h.getPost)
			r.Put("/{postID}", h.updatePost)
			r.Delete("/{postID}", h.deletePost)
			r.Post("/{postID}/vote", h.vote)
			r.Post("/{postID}/favorite", h.favorite)
			r.Post("/{postID}/comments", h.addComment)
		})

		r.Post("/comments/{commentID}/replies", h.reply)
		r.Post("/comments/{commentID}/like", h.likeComment)

		r.Post("/sync", h.sync)
	})

	router.NotFound(notFound)
	router.MethodNotAllowed(notFound)

	return router
}
