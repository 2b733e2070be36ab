package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skylab-io/aqicast/internal/config"
	"github.com/skylab-io/aqicast/internal/features"
	"github.com/skylab-io/aqicast/pkg/models"
)

// FeaturesOptions holds flags for the features command.
type FeaturesOptions struct {
	Input  string
	Output string
}

// NewFeaturesCmd creates the features command.
func NewFeaturesCmd(logger *logrus.Logger, cfgFile *string) *cobra.Command {
	opts := &FeaturesOptions{}

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Derive forecasting features",
		Long: `Derive temporal forecasting features from cleaned readings:
cyclical time encodings, per-city lags and rolling statistics,
pollutant interactions and ratios, and weather couplings. Input rows
must already be cleaned; missing cells only appear in lag and rolling
warm-up regions of the output.`,
		Example: `  aqicast features --input cleaned.csv --output features.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeatures(opts, logger, *cfgFile)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "cleaned CSV input file (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "feature CSV output file (required)")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runFeatures(opts *FeaturesOptions, logger *logrus.Logger, cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	readings, err := loadReadings(opts.Input)
	if err != nil {
		return err
	}
	t := models.NewTableFromReadings(readings)

	engineer := features.NewEngineer(&cfg.Features, logger)
	out := engineer.Transform(t)

	if err := writeTableCSV(opts.Output, out); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"output":   opts.Output,
		"rows":     out.NumRows(),
		"columns":  len(out.Columns()),
		"entities": len(out.EntityIDs()),
	}).Info("Feature engineering completed")
	return nil
}
