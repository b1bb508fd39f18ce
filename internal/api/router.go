// Package api exposes the onboarding operations over HTTP for the wizard UI
// and the back office.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"franchise-onboarding/internal/common/logger"
	lookupregistry "franchise-onboarding/internal/workers/enrichment/lookup-registry"
	notifyfranchiseecreated "franchise-onboarding/internal/workers/communication/notify-franchisee-created"
	searchlegacyunits "franchise-onboarding/internal/workers/data-access/search-legacy-units"
	checkonboardingstatus "franchise-onboarding/internal/workers/onboarding/check-onboarding-status"
	reviewonboardingrequest "franchise-onboarding/internal/workers/onboarding/review-onboarding-request"
	submitonboarding "franchise-onboarding/internal/workers/onboarding/submit-onboarding"
)

type Submitter interface {
	Execute(ctx context.Context, input *submitonboarding.Input) (*submitonboarding.Output, error)
}

type Reviewer interface {
	Execute(ctx context.Context, input *reviewonboardingrequest.Input) (*reviewonboardingrequest.Output, error)
}

type StatusChecker interface {
	Execute(ctx context.Context, input *checkonboardingstatus.Input) (*checkonboardingstatus.Output, error)
}

type RegistryLookup interface {
	Execute(ctx context.Context, input *lookupregistry.Input) (*lookupregistry.Output, error)
}

type CreatedNotifier interface {
	Execute(ctx context.Context, input *notifyfranchiseecreated.Input) (*notifyfranchiseecreated.Output, error)
}

type LegacyUnitSearch interface {
	Execute(ctx context.Context, input *searchlegacyunits.Input) (*searchlegacyunits.Output, error)
}

// Services are the operations behind the routes. A nil service leaves its
// route unmounted.
type Services struct {
	Submit      Submitter
	Review      Reviewer
	Status      StatusChecker
	Lookup      RegistryLookup
	Notify      CreatedNotifier
	LegacyUnits LegacyUnitSearch
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Config struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// Environment is echoed by the submission health probe.
	Environment map[string]bool
}

type Server struct {
	config   Config
	services Services
	checks   map[string]ReadinessCheck
	now      func() time.Time
	logger   logger.Logger
}

func NewServer(config Config, services Services, checks map[string]ReadinessCheck, log logger.Logger) *Server {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	return &Server{
		config:   config,
		services: services,
		checks:   checks,
		now:      time.Now,
		logger:   log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(s.requestLogger)
	r.Use(s.corsHandler().Handler)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/functions/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.config.RequestTimeout))

		if s.services.Submit != nil {
			r.Get("/onboarding-submit", s.handleSubmitHealth)
			r.Post("/onboarding-submit", s.handleSubmit)
		}
		if s.services.Review != nil {
			r.Post("/approve-onboarding-request", s.handleReview)
		}
		if s.services.Status != nil {
			r.Get("/onboarding-status/{trackingNumber}", s.handleStatus)
		}
		if s.services.Lookup != nil {
			r.Post("/api-lookup", s.handleLookup)
		}
		if s.services.Notify != nil {
			r.Post("/notify-franchisee-created", s.handleNotify)
		}
		if s.services.LegacyUnits != nil {
			r.Get("/legacy-units", s.handleLegacyUnits)
		}
	})
	return r
}

func (s *Server) corsHandler() *cors.Cors {
	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
		MaxAge:         600,
	})
}
