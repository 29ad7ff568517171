// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/truthfinder/internal/identity"
	"github.com/pdiddy/truthfinder/internal/payment"
	"github.com/pdiddy/truthfinder/internal/report"
	"github.com/pdiddy/truthfinder/internal/research"
	"github.com/pdiddy/truthfinder/pkg/types"
)

const shellHelp = `Type a query to search. Commands:
  :status          show tier and remaining searches
  :upgrade         print a checkout link for premium access
  :export [FMT]    write the last premium report (json or yaml)
  :help            show this help
  :quit            leave the shell`

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive search session",
	Long: `Shell starts an interactive session with one anonymous identity. Every
search in the session counts against that identity's daily allowance. The
identity ends with the shell; a new shell starts a new identity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exportDir, _ := cmd.Flags().GetString("export-dir")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sh := &shell{
			in:        cmd.InOrStdin(),
			out:       cmd.OutOrStdout(),
			ids:       identity.NewProvider(nil),
			policy:    a.facade,
			research:  a.researchService(),
			exportDir: exportDir,
		}
		if pay := a.payments(); pay.Configured() {
			sh.payments = pay
		}
		return sh.run(cmd.Context())
	},
}

type statusSource interface {
	Status(ctx context.Context, id types.Identity) types.Status
}

type researcher interface {
	Run(ctx context.Context, id types.Identity, rawQuery string) (research.Result, error)
}

// shell is the interactive loop. It holds one identity for its lifetime.
type shell struct {
	in        io.Reader
	out       io.Writer
	ids       *identity.Provider
	policy    statusSource
	research  researcher
	payments  payment.Provider
	exportDir string

	last *research.Result
}

func (s *shell) run(ctx context.Context) error {
	id, err := s.ids.Identity()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Session identity %s. %s\n\n", id.Short(), shellHelp)

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if done := s.handle(ctx, line); done {
			return nil
		}
	}
}

// handle runs one line of input and reports whether the shell should exit.
func (s *shell) handle(ctx context.Context, line string) bool {
	id, err := s.ids.Identity()
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Fprintln(s.out, shellHelp)
	case ":status":
		printStatus(s.out, s.policy.Status(ctx, id))
	case ":upgrade":
		if s.payments == nil {
			fmt.Fprintln(s.out, "Payment system temporarily unavailable.")
			break
		}
		co, err := s.payments.CreateCheckout(ctx, id)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			break
		}
		fmt.Fprintf(s.out, "Complete checkout at:\n  %s\n", co.URL)
	case ":export":
		s.export(fields[1:])
	default:
		if strings.HasPrefix(fields[0], ":") {
			fmt.Fprintf(s.out, "unknown command %s; try :help\n", fields[0])
			break
		}
		res, err := s.research.Run(ctx, id, line)
		if err != nil {
			if errors.Is(err, research.ErrInvalidQuery) {
				fmt.Fprintln(s.out, "Invalid search query.")
			} else {
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
			break
		}
		printResult(s.out, res)
		if !res.Denied() {
			s.last = &res
		}
	}
	return false
}

func (s *shell) export(args []string) {
	if s.last == nil || s.last.Report == nil {
		fmt.Fprintln(s.out, "Nothing to export. Report export is a premium feature.")
		return
	}
	f := ""
	if len(args) > 0 {
		f = args[0]
	}
	format, err := report.ParseFormat(f)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	path, err := report.Write(s.exportDir, *s.last.Report, format)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Report written to %s\n", path)
}

func init() {
	shellCmd.Flags().String("export-dir", ".", "directory for exported reports")

	rootCmd.AddCommand(shellCmd)
}
