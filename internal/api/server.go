package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gigbook/internal/auth"
	"gigbook/internal/config"
	"gigbook/internal/domain"
	"gigbook/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Services bundles the workflows the HTTP layer exposes.
type Services struct {
	Users        *service.UserService
	Profiles     *service.ProfileService
	Availability *service.AvailabilityService
	Bookings     *service.BookingService
	Events       *service.EventService
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	cfg     *config.Config
	svc     Services
	auth    *auth.Middleware
	limiter domain.RateLimiter
	ready   Pinger
	router  chi.Router
	server  *http.Server
	logger  *zerolog.Logger
	nowFunc func() time.Time
}

func NewServer(cfg *config.Config, svc Services, resolver domain.IdentityResolver, limiter domain.RateLimiter, ready Pinger, logger *zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		limiter: limiter,
		ready:   ready,
		logger:  logger,
		nowFunc: time.Now,
	}
	s.auth = auth.NewMiddleware(resolver, svc.Users, cfg.Auth.CookieName, s.writeError, logger)
	s.router = s.routes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	r.Use(s.cors)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Require)
		r.Use(s.rateLimit)

		r.Get("/me", s.handleMe)

		r.Route("/artists", func(r chi.Router) {
			r.Get("/", s.handleListArtists)
			r.Post("/", s.handleCreateArtist)
			r.Patch("/me", s.handleUpdateArtist)
			r.Get("/me/unavailability", s.handleListUnavailability)
			r.Post("/me/unavailability", s.handleAddUnavailability)
			r.Delete("/me/unavailability/{id}", s.handleDeleteUnavailability)
			r.Get("/{slug}", s.handleGetArtist)
			r.Get("/{slug}/availability", s.handleCheckAvailability)
		})

		r.Route("/venues", func(r chi.Router) {
			r.Get("/", s.handleListVenues)
			r.Post("/", s.handleCreateVenue)
			r.Patch("/me", s.handleUpdateVenue)
			r.Get("/me/events", s.handleListVenueEvents)
			r.Get("/me/bookings/export", s.handleExportBookings)
			r.Post("/{id}/event-requests", s.handleRequestEvent)
			r.Get("/{slug}", s.handleGetVenue)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", s.handleListBookings)
			r.Post("/", s.handleRequestBooking)
			r.Get("/{id}", s.handleGetBooking)
			r.Post("/{id}/respond", s.handleRespondBooking)
			r.Post("/{id}/cancel", s.handleCancelBooking)
			r.Post("/{id}/event", s.handleCreateEventForBooking)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/{slug}", s.handleGetEvent)
			r.Post("/{id}/approve", s.handleApproveEvent)
			r.Post("/{id}/decline", s.handleDeclineEvent)
		})
	})
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
