package boards

import (
	"marker-mind/core"
	"marker-mind/middleware"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the board API under the current router. Requests are
// authenticated with secret; an empty secret serves everyone as the
// anonymous owner.
func Routes(r chi.Router, store core.BoardStore, secret []byte) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(secret))
		r.Route("/boards", func(r chi.Router) {
			r.Get("/", HandleListBoards(store))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", HandleGetBoard(store))
				r.Put("/", HandleSaveBoard(store))
				r.Delete("/", HandleDeleteBoard(store))
			})
		})
	})
}
