package tasks

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tasknest/tasknest/internal/platform/httpx"
	"github.com/tasknest/tasknest/internal/shared"
)

// MountRoutes registers task routes under /{user_id}/tasks. The router must
// already enforce bearer authentication.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/{user_id}/tasks", func(r chi.Router) {
		r.Use(requirePathOwner)
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{task_id}", h.get)
		r.Put("/{task_id}", h.update)
		r.Patch("/{task_id}/complete", h.toggle)
		r.Delete("/{task_id}", h.delete)
	})
}

// requirePathOwner answers 404 when the path user id is not the token's user id.
func requirePathOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenUserID, ok := shared.UserIDFromContext(r.Context())
		if !ok {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		pathUserID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("user_id", "must be an integer"))
			return
		}
		if pathUserID != tokenUserID {
			httpx.RespondError(w, shared.ErrNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
