package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kirillkom/profile-export/internal/bootstrap"
	"github.com/kirillkom/profile-export/internal/config"
	"github.com/kirillkom/profile-export/internal/core/domain"
	"github.com/kirillkom/profile-export/internal/observability/logging"
	"github.com/kirillkom/profile-export/internal/observability/metrics"
)

type globalFlags struct {
	input       string
	output      string
	workers     int
	logLevel    string
	xlsx        bool
	metricsFile string
}

func newRootCommand() *cobra.Command {
	cfg := config.Load()
	flags := &globalFlags{
		input:    cfg.InputDir,
		output:   cfg.OutputDir,
		workers:  cfg.BatchWorkers,
		logLevel: cfg.LogLevel,
		xlsx:     cfg.OutputXLSX,
	}

	root := &cobra.Command{
		Use:           "profilex",
		Short:         "Extract person profile tables from PDF documents into CSV files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.output, "output", "o", flags.output, "output root directory")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", flags.logLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&flags.xlsx, "xlsx", flags.xlsx, "also write profile.xlsx per person")
	root.PersistentFlags().StringVar(&flags.metricsFile, "metrics-file", "", "write processing metrics in text exposition format to this file")

	batch := &cobra.Command{
		Use:   "batch",
		Short: "Process every PDF of the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDocuments(cmd, cfg, flags, "")
		},
	}
	batch.Flags().StringVarP(&flags.input, "input", "i", flags.input, "input directory with PDF files")
	batch.Flags().IntVarP(&flags.workers, "workers", "w", flags.workers, "parallel documents")

	file := &cobra.Command{
		Use:   "file <path>",
		Short: "Process a single PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocuments(cmd, cfg, flags, args[0])
		},
	}

	inspect := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Print the fragment classification trace of a PDF without writing output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, cfg, flags, args[0])
		},
	}

	root.AddCommand(batch, file, inspect)
	return root
}

func (f *globalFlags) apply(cfg config.Config) config.Config {
	cfg.InputDir = f.input
	cfg.OutputDir = f.output
	cfg.BatchWorkers = f.workers
	cfg.LogLevel = f.logLevel
	cfg.OutputXLSX = f.xlsx
	return cfg
}

// runDocuments processes path, or the whole input directory when path is
// empty, and prints one status line per document.
func runDocuments(cmd *cobra.Command, base config.Config, flags *globalFlags, path string) error {
	cfg := flags.apply(base)
	logger := logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "profilex", cfg.LogLevel)

	var workerMetrics *metrics.WorkerMetrics
	opts := bootstrap.Options{Logger: logger}
	if flags.metricsFile != "" {
		workerMetrics = metrics.NewWorkerMetrics("profilex")
		opts.Observer = workerMetrics
	}

	app, err := bootstrap.New(cmd.Context(), cfg, opts)
	if err != nil {
		return reportError(cmd, err)
	}
	defer app.Close()

	var report domain.BatchReport
	if path == "" {
		report, err = app.BatchUC.ProcessDirectory(cmd.Context(), cfg.InputDir)
	} else {
		report, err = app.BatchUC.ProcessSingle(cmd.Context(), path)
	}
	if err != nil {
		return reportError(cmd, err)
	}

	printReport(cmd.OutOrStdout(), report, cfg.InputDir, path)

	if workerMetrics != nil {
		if err := prometheus.WriteToTextfile(flags.metricsFile, workerMetrics.Registry()); err != nil {
			return reportError(cmd, fmt.Errorf("write metrics file: %w", err))
		}
	}
	return nil
}

func printReport(w io.Writer, report domain.BatchReport, inputDir, path string) {
	if report.Outcome == domain.OutcomeNothingToDo {
		if path != "" {
			fmt.Fprintf(w, "Nothing to do: %s does not exist\n", path)
		} else {
			fmt.Fprintf(w, "No PDF files found in %s\n", inputDir)
		}
		return
	}
	for _, res := range report.Results {
		fmt.Fprintf(w, "Processing %s: %s\n", res.Document, res.Status)
		if res.Status == domain.StatusError {
			fmt.Fprintf(w, "Error: %s\n", res.Message)
		}
	}
}

func runInspect(cmd *cobra.Command, base config.Config, flags *globalFlags, path string) error {
	cfg := flags.apply(base)
	logger := logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "profilex", cfg.LogLevel)

	app, err := bootstrap.New(cmd.Context(), cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		return reportError(cmd, err)
	}
	defer app.Close()

	doc, err := app.Extractor.Extract(cmd.Context(), path)
	if err != nil {
		return reportError(cmd, err)
	}
	profile, err := app.Engine.Stitch(doc)
	if err != nil {
		return reportError(cmd, err)
	}

	tables := make(map[string]int, len(profile.Tables))
	for _, table := range profile.Outputs() {
		tables[string(table.Category)] = len(table.Rows)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Document string            `json:"document"`
		Pages    int               `json:"pages"`
		Trace    []domain.Decision `json:"trace"`
		Tables   map[string]int    `json:"tables"`
	}{
		Document: doc.Name,
		Pages:    len(doc.Pages),
		Trace:    profile.Trace,
		Tables:   tables,
	})
}

func reportError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", domain.Describe(err))
	return err
}
