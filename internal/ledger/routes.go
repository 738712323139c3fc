package ledger

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the time entry endpoints. bulk-confirm is mounted
// before the id routes to avoid any routing ambiguity.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/time-entries", func(r chi.Router) {
		r.Post("/bulk-confirm", h.BulkConfirm)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/confirm", h.Confirm)
		r.Delete("/{id}", h.Delete)
	})
}
