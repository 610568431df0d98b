package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"findash/internal/cli"
	"findash/internal/core"
	"findash/internal/dashboard"
	"findash/internal/log"
	"findash/internal/sources"
	"findash/internal/sources/vault"
	"findash/internal/storage"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = newRootCmd()

type scanOptions struct {
	dir        string
	db         string
	extensions []string
	filter     string
	date       string
	timezone   string
	workers    int
	report     bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "findash-scan",
		Short: "Scan a notes vault and print the spending dashboard as JSON",
		Long: `findash-scan reads every note in a vault, extracts lines of the form
"DD-MM-YYYY | Category | Description | Amount" and prints the dashboard view
for the chosen time filter. With --db the notes are read from a SQLite store
filled by the import command instead.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dir, "dir", "./vault", "vault directory to scan")
	f.StringSliceVar(&opts.extensions, "ext", []string{".md"}, "file extensions to read")
	f.StringVar(&opts.db, "db", "", "read notes from this SQLite database instead of --dir")
	f.StringVar(&opts.filter, "filter", "today", "time filter: today, month or all")
	f.StringVar(&opts.date, "date", "", "reference date YYYY-MM-DD (default: today)")
	f.StringVar(&opts.timezone, "timezone", "Local", "zone used to compute today")
	f.IntVar(&opts.workers, "workers", dashboard.DefaultWorkers, "documents scanned concurrently")
	f.BoolVar(&opts.report, "report", false, "print the scan report to stderr")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log scan progress to stderr")

	cmd.AddCommand(newImportCmd())
	return cmd
}

func runScan(cmd *cobra.Command, opts *scanOptions) error {
	filter, err := core.ParseTimeFilter(opts.filter)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	today := cli.Today(loc)
	if opts.date != "" {
		if today, err = core.ParseDate(opts.date); err != nil {
			return fmt.Errorf("--date: %w", err)
		}
	}

	logger := log.Discard()
	if opts.verbose {
		logger = log.New(log.Config{
			Component: log.ComponentCLI,
			Handler:   slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}),
		})
	}

	ctx := cmd.Context()
	var source sources.Source = vault.New(opts.dir, opts.extensions...)
	if opts.db != "" {
		if _, err := os.Stat(opts.db); err != nil {
			return fmt.Errorf("--db: %w", err)
		}
		repo, err := storage.NewSQLiteRepository(opts.db)
		if err != nil {
			return err
		}
		defer repo.Close()
		source = repo
	}
	docs, err := source.Documents(ctx)
	if err != nil {
		return err
	}

	d, err := dashboard.NewAssembler(logger, nil, opts.workers).Scan(ctx, docs)
	if err != nil {
		return err
	}

	if opts.report {
		if err := writeJSON(cmd.ErrOrStderr(), d.Report()); err != nil {
			return err
		}
	}
	return writeJSON(cmd.OutOrStdout(), d.View(filter, today))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
