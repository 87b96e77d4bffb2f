package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/field-booking/internal/auth"
	"github.com/Shivanand-hulikatti/field-booking/internal/guard"
)

// NewRouter builds the HTTP API around h.
func NewRouter(h *BookingHandler, verifier *auth.Verifier, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(logger))          // structured access log
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(verifier))

		r.With(Require(guard.Player()...)).Post("/venues/{venueID}/bookings", h.ProposeBooking)

		r.Route("/bookings", func(r chi.Router) {
			r.With(Require(guard.Reader()...)).Get("/", h.ListBookings)
			r.With(Require(guard.Reader()...)).Get("/{id}", h.GetBooking)
			r.With(Require(guard.Player()...)).Put("/{id}/join", h.Join)
			r.With(Require(guard.Player()...)).Put("/{id}/unjoin", h.Unjoin)
		})

		r.With(Require(guard.Player()...)).Get("/schedules", h.MySchedule)
	})

	return r
}
