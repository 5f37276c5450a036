package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/summitgear/internal/account"
	"github.com/hongminglow/summitgear/internal/apperr"
	"github.com/hongminglow/summitgear/internal/auth"
	"github.com/hongminglow/summitgear/internal/booking"
	"github.com/hongminglow/summitgear/internal/catalog"
	"github.com/hongminglow/summitgear/internal/config"
	"github.com/hongminglow/summitgear/internal/http/handlers"
	"github.com/hongminglow/summitgear/internal/http/respond"
	"github.com/hongminglow/summitgear/internal/metrics"
	"github.com/hongminglow/summitgear/internal/middleware"
	"github.com/hongminglow/summitgear/internal/models"
	"github.com/hongminglow/summitgear/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner    *http.Server
	cfg      config.Config
	log      *logrus.Logger
	accounts *account.Service
	limiter  *middleware.RateLimiter
	stop     chan struct{}
}

// New wires services, middleware and routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, denylist auth.Denylist, log *logrus.Logger) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	accounts := account.NewService(store, auth.NewPasswordHasher(cfg.BcryptCost), tokens)
	m := metrics.New()
	bookings := booking.NewService(store, store, booking.WithObserver(m))
	limiter := middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)
	gate := middleware.NewGate(tokens, denylist)

	router := mux.NewRouter()
	router.Use(m.Instrument)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Failure(w, r, apperr.NotFound("route"))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	guards := handlers.Guards{
		Authenticated: gate.Authenticate,
		Admin: func(next http.Handler) http.Handler {
			return gate.Authenticate(middleware.RequireRole(models.RoleAdmin)(next))
		},
		Limited: limiter.Handler,
	}

	handlers.NewHealthHandler(time.Now(), store).Register(router)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	handlers.NewAuthHandler(accounts, denylist).Register(router, guards)
	handlers.NewCatalogHandler(catalog.NewService(store)).Register(router, guards)
	handlers.NewBookingHandler(bookings).Register(router, guards)

	handler := middleware.CORS(cfg.CORSOrigins)(middleware.Logging(log)(router))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		inner:    httpServer,
		cfg:      cfg,
		log:      log,
		accounts: accounts,
		limiter:  limiter,
		stop:     make(chan struct{}),
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// SeedAdmin creates the configured administrator if it does not exist yet.
// It does nothing when no admin credentials are configured.
func (s *Server) SeedAdmin(ctx context.Context) error {
	if s.cfg.AdminEmail == "" {
		return nil
	}
	admin, created, err := s.accounts.EnsureAdmin(ctx, s.cfg.AdminName, s.cfg.AdminEmail, s.cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		s.log.WithField("user_id", admin.ID).Info("seeded administrator account")
	}
	return nil
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	s.limiter.StartCleanup(time.Minute, s.stop)
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	return s.inner.Shutdown(ctx)
}
