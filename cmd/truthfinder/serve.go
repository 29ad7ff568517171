// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/truthfinder/internal/identity"
	"github.com/pdiddy/truthfinder/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Long: `Serve starts the HTTP API. Each browser session gets an opaque cookie that
maps to an anonymous identity; the identity keys the daily allowance, the
premium entitlement and the usage ledger.

Sessions live in memory by default. Set session.backend to redis to share
them between replicas.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		store, err := a.sessionStore(ctx)
		if err != nil {
			return err
		}

		deps := server.Deps{
			Policy:   a.facade,
			Research: a.researchService(),
			Sessions: identity.NewSessions(store, nil),
			Registry: a.registry,
			Log:      a.log,
		}
		if pay := a.payments(); pay.Configured() {
			deps.Payments = pay
		} else {
			a.log.Warn("payment secret key not set; premium checkout disabled")
		}

		secure := strings.HasPrefix(a.cfg.Payment.BaseURL, "https://")
		srv := server.New(deps, a.cfg.Session, secure)
		return srv.Run(ctx, a.cfg.Server)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().String("session-backend", "", "session store: memory or redis (overrides session.backend)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("session.backend", serveCmd.Flags().Lookup("session-backend"))

	rootCmd.AddCommand(serveCmd)
}
