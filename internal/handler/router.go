package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	custommiddleware "github.com/mmeshcher/zoomarket-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса зоомаркет.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/api/listings", h.ListListings)
	r.Get("/api/listings/{listingID}", h.GetListing)

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/basket", h.GetBasket)
			r.Post("/basket", h.AddToBasket)
			r.Delete("/basket/{listingID}", h.RemoveFromBasket)

			r.Post("/orders", h.CreateOrder)
			r.Get("/orders", h.GetOrders)
			r.Get("/orders/{orderID}", h.GetOrder)
			r.Post("/orders/{orderID}/cancel", h.CancelOrder)
			r.Post("/orders/{orderID}/proof", h.AttachProof)
			r.Get("/orders/{orderID}/proof", h.GetProof)

			r.Get("/notifications", h.GetNotifications)
			r.Post("/notifications/{notificationID}/seen", h.MarkNotificationSeen)

			r.Get("/payment-address", h.GetPaymentAddress)
		})
	})

	r.Route("/api/staff", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)
		r.Use(h.staffOnly)

		r.Post("/listings", h.CreateListing)
		r.Post("/orders/{orderID}/status", h.SetOrderStatus)
		r.Post("/orders/{orderID}/reject", h.RejectPayment)
		r.Get("/orders/{orderID}/proof", h.GetProofStaff)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}

func pathParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
