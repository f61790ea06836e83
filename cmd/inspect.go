package cmd

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dhcgn/contact-cleaner/config"
	"github.com/dhcgn/contact-cleaner/dedupe"
	"github.com/dhcgn/contact-cleaner/detect"
	"github.com/dhcgn/contact-cleaner/model"
	"github.com/dhcgn/contact-cleaner/runner"
	"github.com/dhcgn/contact-cleaner/stats"
)

var (
	reportDir string
	topN      int
)

// reportCategories are the frequency tables inspect builds, in print order.
var reportCategories = []string{"domains", "addresses"}

var inspectCmd = &cobra.Command{
	Use:   "inspect [inputs...]",
	Short: "Analyse the inputs and show the most frequent domains and addresses",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cmd, args)
		if err != nil {
			return err
		}

		logger, cleanup, err := setupLogger(cfg, "inspect")
		if err != nil {
			return err
		}
		defer func() {
			_ = cleanup()
		}()

		return runInspect(cfg, logger)
	},
}

func init() {
	config.RegisterFlags(inspectCmd)
	inspectCmd.Flags().StringVarP(&reportDir, "report-dir", "o", ".", "Output directory for CSV reports")
	inspectCmd.Flags().IntVarP(&topN, "top", "t", 10, "Number of top items to display in statistics")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cfg config.Config, logger *slog.Logger) error {
	r, err := runner.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("runner.New: %w", err)
	}
	reporter := stats.NewReporter(r, r.Logger())

	for _, input := range cfg.Inputs {
		fmt.Println("Analyzing:", input)
		r.Add(input, detect.Open(input, cfg, r.Logger()))
	}

	results, err := r.Start()
	if err != nil {
		return err
	}

	counter := countContacts(runner.Merge(results))
	summary := reporter.Summary()

	fmt.Printf("\nRead %d records from %d inputs, %d contacts (%d filtered records)\n\n",
		summary.Records, summary.Files, summary.Contacts, summary.Filtered)
	for _, category := range reportCategories {
		fmt.Printf("Top %d %s:\n", topN, category)
		stats.PrettyPrintTop(os.Stdout, counter[category], topN)
		fmt.Println()
	}

	if err := saveCSVReports(counter, reportCategories, reportDir, 1000); err != nil {
		return fmt.Errorf("error saving CSV reports: %w", err)
	}
	fmt.Printf("Reports saved to directory: %s\n", reportDir)

	return failedInputs(results)
}

// countContacts counts every occurrence, before deduplication.
func countContacts(contacts []model.Contact) map[string]map[string]int {
	counter := make(map[string]map[string]int, len(reportCategories))
	for _, category := range reportCategories {
		counter[category] = make(map[string]int)
	}

	for _, c := range contacts {
		key := dedupe.Key(c.Email)
		if key == "" {
			continue
		}
		counter["addresses"][key]++
		if domain := dedupe.Key(c.Domain); domain != "" {
			counter["domains"][domain]++
		}
	}
	return counter
}

func saveCSVReports(counter map[string]map[string]int, categories []string, dir string, limit int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, category := range categories {
		filePath := filepath.Join(dir, fmt.Sprintf("report_%s.csv", category))

		file, err := os.Create(filePath)
		if err != nil {
			return err
		}

		writer := csv.NewWriter(file)
		if err := writer.Write([]string{"Value", "Count"}); err != nil {
			file.Close()
			return err
		}

		for _, p := range stats.Top(counter[category], limit) {
			if err := writer.Write([]string{p.Key, strconv.Itoa(p.Value)}); err != nil {
				file.Close()
				return err
			}
		}

		writer.Flush()
		if err := writer.Error(); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
	}

	return nil
}
