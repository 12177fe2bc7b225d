package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lqhuy/marketplace/internal/port"
)

func NewRouter(h *HTTPHandler, identity port.IdentityGateway) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", h.HealthCheck)

	r.Post("/auth/signup", h.Signup)
	r.Post("/auth/login", h.Login)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/categories", h.Categories)
		r.Get("/{productID}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(identity))
			r.Post("/", h.CreateProduct)
			r.Put("/{productID}", h.UpdateProduct)
			r.Delete("/{productID}", h.DeleteProduct)
		})
	})

	r.Route("/basket", func(r chi.Router) {
		r.Use(RequireAuth(identity))
		r.Get("/", h.GetBasket)
		r.Post("/add", h.AddItem)
		r.Put("/update", h.UpdateItem)
		r.Delete("/remove/{productID}", h.RemoveItem)
		r.Delete("/clear", h.ClearBasket)
		r.Post("/checkout", h.Checkout)
		r.Get("/orders", h.GetOrderHistory)
	})

	return r
}
