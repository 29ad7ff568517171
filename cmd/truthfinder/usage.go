// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Inspect and compact the usage ledger",
}

var usageHistoryCmd = &cobra.Command{
	Use:   "history IDENTITY",
	Short: "List recent searches for an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := resolveIdentity(cmd, args[0])
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.ledger.History(cmd.Context(), id, limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if asJSON {
			return printJSON(out, records)
		}
		if len(records) == 0 {
			fmt.Fprintf(out, "No searches recorded for %s\n", id.Short())
			return nil
		}
		for _, r := range records {
			fmt.Fprintf(out, "%s  %4d results  %s\n",
				r.Timestamp.UTC().Format(time.RFC3339), r.ResultCount, r.Query)
		}
		return nil
	},
}

var usagePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete ledger entries older than a cutoff",
	Long: `Prune removes ledger entries older than --older-than. Entries inside the
rolling window are needed for the daily allowance, so the cutoff may not be
shorter than policy.window.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		age, _ := cmd.Flags().GetDuration("older-than")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if age < a.cfg.Policy.Window {
			return fmt.Errorf("--older-than %v is shorter than the %v usage window", age, a.cfg.Policy.Window)
		}
		n, err := a.ledger.Prune(cmd.Context(), time.Now().Add(-age))
		if err != nil {
			return err
		}
		a.log.WithField("deleted", n).Info("usage ledger pruned")
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries\n", n)
		return nil
	},
}

func init() {
	usageHistoryCmd.Flags().Int("limit", 20, "maximum entries to show (0 for all)")
	usageHistoryCmd.Flags().Bool("json", false, "output entries as JSON")
	usagePruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "delete entries older than this")

	usageCmd.AddCommand(usageHistoryCmd, usagePruneCmd)
	rootCmd.AddCommand(usageCmd)
}
