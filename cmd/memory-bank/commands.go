package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/memory-bank/internal/bank"
	"github.com/HendryAvila/memory-bank/internal/config"
	"github.com/HendryAvila/memory-bank/internal/journal"
	"github.com/HendryAvila/memory-bank/internal/redundancy"
	"github.com/HendryAvila/memory-bank/internal/routing"
	"github.com/HendryAvila/memory-bank/internal/templates"
)

func openBank(cfg *config.Config) (*bank.Bank, error) {
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("creating template renderer: %w", err)
	}
	return bank.New(cfg.Bank.Root, renderer, cfg.Bank.Contributor), nil
}

// ─── init ───────────────────────────────────────────────────────────────────

func newInitCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the memory-bank directories and template files",
		Long:  "Create the memory-bank directories and template files. Existing files are kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			b, err := openBank(cfg)
			if err != nil {
				return err
			}
			res, err := b.Scaffold()
			if err != nil {
				return fmt.Errorf("creating memory bank: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Memory bank: %s\n", b.Root())
			for _, f := range res.Created {
				fmt.Fprintf(out, "  created %s\n", f)
			}
			fmt.Fprintf(out, "%d files created, %d existing files kept\n", len(res.Created), len(res.Skipped))
			return nil
		},
	}
}

// ─── route ──────────────────────────────────────────────────────────────────

func newRouteCmd(load configLoader) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "route [text...]",
		Short: "Show which memory-bank files a piece of text belongs in",
		Long:  "Show which memory-bank files a piece of text belongs in. Reads stdin when no text is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := load(); err != nil {
				return err
			}
			text := strings.Join(args, " ")
			if text == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = string(data)
			}

			a, err := routing.Analyze(text)
			if errors.Is(err, routing.ErrEmptyContent) {
				return errors.New("nothing to route: pass text as arguments or on stdin")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(a)
			}
			fmt.Fprintf(out, "Primary category: %s (confidence %.1f%%)\n", a.PrimaryCategory.Title(), a.Confidence)
			fmt.Fprintf(out, "Content type: %s\n", a.ContentType.Title())
			if len(a.KeyTopics) > 0 {
				fmt.Fprintf(out, "Key topics: %s\n", strings.Join(a.KeyTopics, ", "))
			}
			if len(a.Suggestions) == 0 {
				fmt.Fprintln(out, "No file suggestions.")
				return nil
			}
			fmt.Fprintln(out, "Suggested files:")
			for _, s := range a.Suggestions {
				fmt.Fprintf(out, "  %-36s %-6s %s\n", s.TargetFile, s.Priority, s.Reason)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full analysis as JSON")
	return cmd
}

// ─── check ──────────────────────────────────────────────────────────────────

func newCheckCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "List memory-bank documents similar to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			target, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			index := redundancy.New(cfg.Bank.Root, redundancy.Options{
				Threshold: cfg.Redundancy.Threshold,
				MinTokens: cfg.Redundancy.MinTokens,
			})
			if err := index.IndexAll(cmd.Context(), cfg.Bank.Root); err != nil {
				return fmt.Errorf("indexing %s: %w", cfg.Bank.Root, err)
			}

			out := cmd.OutOrStdout()
			if !index.Checkable(string(content)) {
				fmt.Fprintln(out, "Content is too short to compare.")
				return nil
			}
			matches, err := index.CheckRedundancy(cmd.Context(), target, string(content))
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Fprintf(out, "No similar documents among %d indexed.\n", index.Len())
				return nil
			}
			now := time.Now()
			for _, m := range matches {
				fmt.Fprintf(out, "%5.1f%%  %s  %s\n", m.Similarity*100, m.File, redundancy.CrossReference(m.File, now))
			}
			return nil
		},
	}
}

// ─── report ─────────────────────────────────────────────────────────────────

func newReportCmd(load configLoader) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "report",
		Short: "List the behavior reports of recently ended sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return fmt.Errorf("%w (journal.enabled: false)", journal.ErrDisabled)
			}
			j, err := journal.New(journal.DefaultConfig(cfg.Journal.DataDir))
			if err != nil {
				return err
			}
			defer func() { _ = j.Close() }()

			reports, err := j.RecentReports(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(reports) == 0 {
				fmt.Fprintln(out, "No ended sessions yet.")
				return nil
			}
			for _, r := range reports {
				fmt.Fprintf(out, "%s  %-24s %-17s ratio %.3f  %d calls\n",
					r.CreatedAt, r.SessionID, r.Classification, r.AdherenceRatio, r.TotalCalls)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of reports to list")
	return cmd
}
