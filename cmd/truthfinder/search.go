// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/truthfinder/internal/identity"
	"github.com/pdiddy/truthfinder/internal/report"
	"github.com/pdiddy/truthfinder/internal/research"
	"github.com/pdiddy/truthfinder/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Run one search against the archive",
	Long: `Search runs a single archive search under an identity. The identity's tier
decides how many results come back and whether analytics, AI analysis and
report export are included.

Without --identity a new anonymous identity is issued and printed so that
later searches can reuse it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		idFlag, _ := cmd.Flags().GetString("identity")
		asJSON, _ := cmd.Flags().GetBool("json")
		exportDir, _ := cmd.Flags().GetString("export")
		formatFlag, _ := cmd.Flags().GetString("format")

		format, err := report.ParseFormat(formatFlag)
		if err != nil {
			return err
		}
		id, err := resolveIdentity(cmd, idFlag)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.researchService().Run(cmd.Context(), id, strings.Join(args, " "))
		if err != nil {
			return err
		}

		if asJSON {
			if err := printJSON(out, res); err != nil {
				return err
			}
		} else {
			printResult(out, res)
		}
		if res.Denied() {
			return fmt.Errorf("daily limit reached for %s", id.Short())
		}

		if exportDir != "" {
			return exportReport(cmd, res, exportDir, format)
		}
		return nil
	},
}

// resolveIdentity validates a caller-supplied identity or issues a new one.
func resolveIdentity(cmd *cobra.Command, raw string) (types.Identity, error) {
	if raw != "" {
		if !identity.Valid(raw) {
			return "", fmt.Errorf("invalid identity %q: want %d hex characters", raw, identity.Length)
		}
		return types.Identity(raw), nil
	}
	id, err := identity.NewGenerator(nil, nil).New()
	if err != nil {
		return "", err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "New identity: %s (pass --identity to reuse it)\n", id)
	return id, nil
}

func exportReport(cmd *cobra.Command, res research.Result, dir string, format report.Format) error {
	if res.Report == nil {
		return fmt.Errorf("report export requires premium access")
	}
	path, err := report.Write(dir, *res.Report, format)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
	return nil
}

func init() {
	searchCmd.Flags().String("identity", "", "identity to search as (default: issue a new one)")
	searchCmd.Flags().Bool("json", false, "output the result as JSON")
	searchCmd.Flags().String("export", "", "write the premium report into this directory")
	searchCmd.Flags().String("format", string(report.FormatJSON), "report format: json or yaml")

	rootCmd.AddCommand(searchCmd)
}
