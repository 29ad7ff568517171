// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/truthfinder/internal/secrets"
	"github.com/pdiddy/truthfinder/pkg/types"
)

// setDefaults registers every config key with its default so environment
// variables are honoured by Unmarshal even when no config file sets the key.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.busy_timeout", d.Store.BusyTimeout)

	v.SetDefault("policy.free_daily_cap", d.Policy.FreeDailyCap)
	v.SetDefault("policy.window", d.Policy.Window)
	v.SetDefault("policy.premium_duration", d.Policy.PremiumDuration)

	v.SetDefault("search.timeout", d.Search.Timeout)
	v.SetDefault("search.user_agent", d.Search.UserAgent)
	v.SetDefault("search.endpoint", d.Search.Endpoint)
	v.SetDefault("search.requests_per_second", d.Search.RequestsPerSecond)
	v.SetDefault("search.burst", d.Search.Burst)

	v.SetDefault("analysis.timeout", d.Analysis.Timeout)
	v.SetDefault("analysis.user_agent", d.Analysis.UserAgent)
	v.SetDefault("analysis.endpoint", d.Analysis.Endpoint)
	v.SetDefault("analysis.token", d.Analysis.Token)

	v.SetDefault("payment.timeout", d.Payment.Timeout)
	v.SetDefault("payment.user_agent", d.Payment.UserAgent)
	v.SetDefault("payment.endpoint", d.Payment.Endpoint)
	v.SetDefault("payment.secret_key", d.Payment.SecretKey)
	v.SetDefault("payment.base_url", d.Payment.BaseURL)
	v.SetDefault("payment.price_cents", d.Payment.PriceCents)
	v.SetDefault("payment.currency", d.Payment.Currency)

	v.SetDefault("session.backend", string(d.Session.Backend))
	v.SetDefault("session.idle_ttl", d.Session.IdleTTL)
	v.SetDefault("session.redis_addr", d.Session.RedisAddr)
	v.SetDefault("session.redis_prefix", d.Session.RedisPrefix)
	v.SetDefault("session.cookie_name", d.Session.CookieName)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// loadConfig decodes the merged defaults, config file, environment and flags
// into a Config, then fills credentials from the secrets directory.
func loadConfig(v *viper.Viper, secretValues map[string]string) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	secrets.Apply(&cfg, secretValues)

	switch cfg.Session.Backend {
	case types.SessionMemory, types.SessionRedis:
	default:
		return types.Config{}, fmt.Errorf("unknown session backend %q (want memory or redis)", cfg.Session.Backend)
	}
	if cfg.Store.Path == "" {
		return types.Config{}, fmt.Errorf("store.path must not be empty")
	}
	return cfg, nil
}
