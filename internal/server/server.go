// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the search and subscription flows over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/truthfinder/internal/identity"
	"github.com/pdiddy/truthfinder/internal/logging"
	"github.com/pdiddy/truthfinder/internal/metrics"
	"github.com/pdiddy/truthfinder/internal/payment"
	"github.com/pdiddy/truthfinder/internal/research"
	"github.com/pdiddy/truthfinder/pkg/types"
)

// Policy is the part of the policy facade the handlers call directly.
type Policy interface {
	Status(ctx context.Context, id types.Identity) types.Status
	ActivateCheckout(ctx context.Context, id types.Identity, checkoutID string) (bool, error)
}

// Researcher runs searches.
type Researcher interface {
	Run(ctx context.Context, id types.Identity, rawQuery string) (research.Result, error)
}

// Deps are the collaborators a Server needs. Payments and Registry may be nil.
type Deps struct {
	Policy   Policy
	Research Researcher
	Sessions *identity.Sessions
	Payments payment.Provider
	Registry *prometheus.Registry
	Log      logrus.FieldLogger
}

// Server holds the HTTP handlers.
type Server struct {
	policy     Policy
	research   Researcher
	sessions   *identity.Sessions
	payments   payment.Provider
	registry   *prometheus.Registry
	log        logrus.FieldLogger
	cookieName string
	cookieTTL  time.Duration
	secure     bool
}

// New returns a Server configured by cfg.
func New(deps Deps, cfg types.SessionConfig, secureCookies bool) *Server {
	s := &Server{
		policy:     deps.Policy,
		research:   deps.Research,
		sessions:   deps.Sessions,
		payments:   deps.Payments,
		registry:   deps.Registry,
		log:        deps.Log,
		cookieName: cfg.CookieName,
		cookieTTL:  cfg.IdleTTL,
		secure:     secureCookies,
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.cookieName == "" {
		s.cookieName = "tf_session"
	}
	if s.cookieTTL <= 0 {
		s.cookieTTL = 24 * time.Hour
	}
	return s
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), requestLogger(s.log), recovery(s.log))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if s.registry != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(s.registry)))
	}

	api := r.Group("/api", s.session())
	api.GET("/status", s.handleStatus)
	api.GET("/search", s.handleSearch)
	api.POST("/premium/checkout", s.handleCheckout)
	api.GET("/premium/activated", s.handleActivated)
	api.POST("/session/end", s.handleEndSession)
	return r
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg types.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", cfg.Addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}
