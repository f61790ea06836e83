package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhcgn/contact-cleaner/config"
	"github.com/dhcgn/contact-cleaner/dedupe"
	"github.com/dhcgn/contact-cleaner/detect"
	"github.com/dhcgn/contact-cleaner/export"
	"github.com/dhcgn/contact-cleaner/metrics"
	"github.com/dhcgn/contact-cleaner/progress"
	"github.com/dhcgn/contact-cleaner/runner"
	"github.com/dhcgn/contact-cleaner/stats"
)

var extractCmd = &cobra.Command{
	Use:   "extract [inputs...]",
	Short: "Write the unique contacts of all inputs to an .xlsx or .csv file",
	Example: `  contact-cleaner extract export.xlsx
  contact-cleaner extract -o contacts.csv archive.pst mails/ old.mbox
  contact-cleaner extract imaps://me@mail.example.com/INBOX`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cmd, args)
		if err != nil {
			return err
		}

		logger, cleanup, err := setupLogger(cfg, "extract")
		if err != nil {
			return err
		}
		defer func() {
			_ = cleanup()
		}()

		slog.SetDefault(logger)
		logger.Info("starting contact-cleaner", "inputs", len(cfg.Inputs), "output", cfg.Output, "workers", cfg.Workers)

		return runExtract(cfg, logger)
	},
}

func init() {
	config.RegisterFlags(extractCmd)
	config.RegisterOutputFlags(extractCmd)
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cfg config.Config, logger *slog.Logger) error {
	started := time.Now()

	r, err := runner.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("runner.New: %w", err)
	}
	reporter := stats.NewReporter(r, r.Logger())

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
		r.SubscribeStats("metrics", recorder.Subscriber)
	}

	spinner := progress.New(len(cfg.Inputs), cfg.Progress, cfg.LogLevel)
	r.SubscribeStats("progress", spinner.Subscriber)

	for _, input := range cfg.Inputs {
		r.Add(input, detect.Open(input, cfg, r.Logger()))
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	context.AfterFunc(sigCtx, r.Stop)

	results, err := r.Start()
	spinner.Stop()
	if err != nil {
		return err
	}

	res := dedupe.Summarize(runner.Merge(results))

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
	}

	output := ""
	if res.Unique > 0 {
		if err := export.Write(cfg.Output, res); err != nil {
			return err
		}
		output = cfg.Output
		r.Logger().Info("contacts written", "output", output, "total", res.Total, "unique", res.Unique, "duplicatesRemoved", res.DuplicatesRemoved)
	} else {
		r.Logger().Warn("no contacts found, nothing written")
	}

	progress.PrintSummary(reporter.Summary(), res, output, time.Since(started))
	if err := progress.PrintPreview(res, cfg.Preview); err != nil {
		r.Logger().Warn("preview failed", "err", err)
	}

	return failedInputs(results)
}

func failedInputs(results []runner.FileResult) error {
	failed := runner.Failed(results)
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, len(failed))
	for i, res := range failed {
		names[i] = res.Name
	}
	return fmt.Errorf("%d of %d inputs failed: %s", len(failed), len(results), strings.Join(names, ", "))
}
