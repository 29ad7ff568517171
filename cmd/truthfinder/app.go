// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/pdiddy/truthfinder/internal/analysis"
	"github.com/pdiddy/truthfinder/internal/archive"
	"github.com/pdiddy/truthfinder/internal/entitlement"
	"github.com/pdiddy/truthfinder/internal/identity"
	"github.com/pdiddy/truthfinder/internal/logging"
	"github.com/pdiddy/truthfinder/internal/metrics"
	"github.com/pdiddy/truthfinder/internal/payment"
	"github.com/pdiddy/truthfinder/internal/policy"
	"github.com/pdiddy/truthfinder/internal/research"
	"github.com/pdiddy/truthfinder/internal/store"
	"github.com/pdiddy/truthfinder/internal/usage"
	"github.com/pdiddy/truthfinder/pkg/types"
)

// app holds the wired components shared by subcommands.
type app struct {
	cfg      types.Config
	log      *logrus.Logger
	db       *sql.DB
	ledger   *usage.SQLLedger
	facade   *policy.Facade
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	closers  []func() error
}

// newApp loads configuration and opens the store.
func newApp() (*app, error) {
	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.Log)

	db, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	ents := entitlement.NewSQLStore(db)
	ledger := usage.NewSQLLedger(db)

	a := &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		ledger:   ledger,
		facade:   policy.New(ents, ledger, cfg.Policy, policy.WithLogger(log), policy.WithMetrics(m)),
		registry: reg,
		metrics:  m,
	}
	a.closers = append(a.closers, db.Close)
	return a, nil
}

// Close releases everything the app opened, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WithError(err).Warn("close failed")
		}
	}
}

func (a *app) archiveClient() *archive.Client {
	return archive.New(a.cfg.Search, archive.WithMetrics(a.metrics), archive.WithLogger(a.log))
}

func (a *app) payments() *payment.StripeClient {
	return payment.NewStripe(a.cfg.Payment, a.log)
}

func (a *app) researchService() *research.Service {
	return research.New(a.facade, a.archiveClient(),
		research.WithAnalyzer(analysis.NewHuggingFace(a.cfg.Analysis, a.log)),
		research.WithLogger(a.log),
	)
}

// sessionStore builds the configured session backend.
func (a *app) sessionStore(ctx context.Context) (identity.SessionStore, error) {
	cfg := a.cfg.Session
	switch cfg.Backend {
	case types.SessionRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		a.closers = append(a.closers, rdb.Close)
		a.log.WithField("addr", cfg.RedisAddr).Info("using redis session store")
		return identity.NewRedisStore(rdb, cfg.RedisPrefix, cfg.IdleTTL), nil
	default:
		mem := identity.NewMemoryStore(cfg.IdleTTL, time.Minute)
		a.closers = append(a.closers, mem.Close)
		return mem, nil
	}
}
