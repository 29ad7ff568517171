// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/truthfinder/pkg/types"
)

var premiumCmd = &cobra.Command{
	Use:   "premium",
	Short: "Inspect and grant premium entitlements",
}

var premiumGrantCmd = &cobra.Command{
	Use:   "grant IDENTITY",
	Short: "Grant premium access to an identity",
	Long: `Grant writes a premium entitlement for IDENTITY, replacing any earlier one.
The default duration is policy.premium_duration (30 days). Use it to comp
access or to repair an activation that failed after payment.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := resolveIdentity(cmd, args[0])
		if err != nil {
			return err
		}
		d, _ := cmd.Flags().GetDuration("duration")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if d == 0 {
			d = a.facade.PremiumDuration()
		}
		return grantPremium(cmd.Context(), cmd.OutOrStdout(), a.facade, id, d)
	},
}

var premiumStatusCmd = &cobra.Command{
	Use:   "status IDENTITY",
	Short: "Show tier and remaining searches for an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := resolveIdentity(cmd, args[0])
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		st := a.facade.Status(cmd.Context(), id)
		if asJSON {
			return printJSON(cmd.OutOrStdout(), st)
		}
		printStatus(cmd.OutOrStdout(), st)
		return nil
	},
}

type premiumGranter interface {
	GrantFor(ctx context.Context, id types.Identity, d time.Duration) error
	Status(ctx context.Context, id types.Identity) types.Status
}

// grantPremium writes the grant and reports the expiry as stored.
func grantPremium(ctx context.Context, w io.Writer, p premiumGranter, id types.Identity, d time.Duration) error {
	if err := p.GrantFor(ctx, id, d); err != nil {
		return err
	}
	st := p.Status(ctx, id)
	if st.ExpiresAt.IsZero() {
		return fmt.Errorf("grant for %s was written but cannot be read back", id.Short())
	}
	fmt.Fprintf(w, "Granted premium to %s until %s\n", id.Short(), st.ExpiresAt.UTC().Format(time.RFC3339))
	return nil
}

func init() {
	premiumGrantCmd.Flags().Duration("duration", 0, "entitlement length (default policy.premium_duration)")
	premiumStatusCmd.Flags().Bool("json", false, "output status as JSON")

	premiumCmd.AddCommand(premiumGrantCmd, premiumStatusCmd)
	rootCmd.AddCommand(premiumCmd)
}
