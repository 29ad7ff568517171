// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the truthfinder CLI. It serves the
// search API, runs one-off and interactive searches, and gives operators
// access to premium grants and the usage ledger.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/truthfinder/internal/secrets"
	"github.com/pdiddy/truthfinder/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from the secrets directory at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the truthfinder CLI.
var rootCmd = &cobra.Command{
	Use:   "truthfinder",
	Short: "Search historical archives with free and premium access tiers",
	Long: `truthfinder searches public document archives (archive.org) for historical
records. Anonymous sessions get a daily allowance of free searches; premium
subscribers get unlimited searches, larger result sets, analytics, AI document
analysis and report export.

Run "truthfinder serve" for the HTTP API, "truthfinder search" for a one-off
search, or "truthfinder shell" for an interactive session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logrus.StandardLogger())
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./truthfinder.yaml or ~/.config/truthfinder/truthfinder.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of secret files (stripe-secret-key, huggingface-token)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides store.path)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides log.level)")

	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("truthfinder")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "truthfinder"))
		}
	}

	viper.SetEnvPrefix("TRUTHFINDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper(), types.DefaultConfig())

	// The payment key is also accepted under its conventional name.
	_ = viper.BindEnv("payment.secret_key", "TRUTHFINDER_PAYMENT_SECRET_KEY", "STRIPE_SECRET_KEY")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
