package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skylab-io/aqicast/internal/cleaning"
	"github.com/skylab-io/aqicast/internal/config"
)

// CleanOptions holds flags for the clean command.
type CleanOptions struct {
	Input   string
	Output  string
	Report  string
	Verbose bool
}

// NewCleanCmd creates the clean command.
func NewCleanCmd(logger *logrus.Logger, cfgFile *string) *cobra.Command {
	opts := &CleanOptions{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean raw sensor readings",
		Long: `Clean raw multi-city sensor readings: assess quality, impute
missing values, handle outliers, repair physical constraint violations,
check cross-source consistency, and flag anomalies. Emits the cleaned
table as CSV and a structured cleaning report as JSON.`,
		Example: `  aqicast clean --input raw.csv --output cleaned.csv
  aqicast clean --input raw.csv --output cleaned.csv --report report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, opts, logger, *cfgFile)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "input CSV file (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "cleaned CSV output file (required)")
	cmd.Flags().StringVarP(&opts.Report, "report", "r", "-", "cleaning report JSON output (- for stdout)")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runClean(cmd *cobra.Command, opts *CleanOptions, logger *logrus.Logger, cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	readings, err := loadReadings(opts.Input)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"input":    opts.Input,
		"readings": len(readings),
	}).Info("Loaded raw readings")

	cleaner := cleaning.NewDataCleaner(&cfg.Cleaning, logger, nil)
	cleaned, report, err := cleaner.Clean(cmd.Context(), readings)
	if err != nil {
		return fmt.Errorf("cleaning failed: %w", err)
	}

	if err := writeTableCSV(opts.Output, cleaned); err != nil {
		return err
	}
	if err := writeJSON(opts.Report, report); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"output":       opts.Output,
		"rows":         cleaned.NumRows(),
		"completeness": report.Quality.Completeness,
	}).Info("Cleaning completed")
	return nil
}
