// Package api serves health, metrics and the payment gateway webhook.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler, mw *Middleware) http.Handler {
	mux := chi.NewRouter()
	mux.Use(chimw.RequestID, mw.Log, chimw.Recoverer)

	mux.Get("/health", h.Health)
	mux.Get("/ready", h.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/webhooks", func(r chi.Router) {
		r.Use(chimw.AllowContentType("application/json"))
		r.Post("/payment", h.PaymentWebhook)
	})

	return mux
}
