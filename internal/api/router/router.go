// Package router assembles the HTTP routing tree for the Bookwell API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bookwell/bookwell/internal/appointment"
	custommw "github.com/bookwell/bookwell/internal/http/middleware"
	"github.com/bookwell/bookwell/internal/review"
	"github.com/bookwell/bookwell/pkg/logging"
)

// Config carries the dependencies the router needs.
type Config struct {
	Logger             *logging.Logger
	AppointmentHandler *appointment.Handler
	ReviewHandler      *review.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New builds the API router.
func New(cfg Config) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(custommw.CORS(cfg.CORSAllowedOrigins))
	r.Use(custommw.RequestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	ah := cfg.AppointmentHandler
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", ah.Book)
		r.Get("/{appointmentID}", ah.Get)
		r.Post("/{appointmentID}/cancel", ah.Cancel)
		r.Post("/{appointmentID}/confirm", ah.Confirm)
		r.Post("/{appointmentID}/reject", ah.Reject)
		r.Post("/{appointmentID}/start", ah.Start)
		r.Post("/{appointmentID}/complete", ah.Complete)
		r.Post("/{appointmentID}/no-show", ah.NoShow)
		r.Post("/{appointmentID}/reschedule", ah.Reschedule)
		if cfg.ReviewHandler != nil {
			r.Post("/{appointmentID}/review", cfg.ReviewHandler.Submit)
		}
	})

	r.Get("/me/appointments", ah.ListMine)

	return r
}
