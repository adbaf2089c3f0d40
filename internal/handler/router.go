package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/cursos-bot/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/check-auth", h.CheckAuth)

		r.Route("/pedidos", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListPublicOrders)
			r.Patch("/{id}/confirmar", h.ConfirmOrder)
		})

		r.Get("/colecciones", h.ListCollections)
		r.Post("/visitas", h.RecordVisit)
		r.Get("/visitas", h.GetVisits)
		r.Get("/tasa", h.GetRate)

		r.Post("/chat/webhook", h.ChatWebhook)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/pedidos", h.ListOrders)
			r.Get("/pedidos/{id}", h.GetOrder)
			r.Put("/pedidos/{id}", h.UpdateOrderStatus)
			r.Post("/pedidos/{id}/verificar", h.VerifyOrder)

			r.Get("/pendientes", h.ListPendingLeads)
			r.Get("/verificados", h.ListVerifiedLeads)

			r.Post("/colecciones", h.CreateCollection)
			r.Post("/colecciones/{id}/items", h.AddItem)
			r.Delete("/items/{id}", h.DeleteItem)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
