package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skylab-io/aqicast/internal/config"
	"github.com/skylab-io/aqicast/internal/forecast"
	"github.com/skylab-io/aqicast/pkg/models"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	Input       string
	Output      string
	Mode        string
	Predictor   string
	Target      string
	Horizon     int
	InitialSize int
	StepSize    int
	Entity      string
	TrainEntity string
	EvalEntity  string
	TestSize    float64
	Random      bool
}

// NewValidateCmd creates the validate command.
func NewValidateCmd(logger *logrus.Logger, cfgFile *string) *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Evaluate forecast models",
		Long: `Evaluate a forecast model over a feature table using
leakage-safe schemes: rolling walk-forward over the whole series,
per-city hold-out with AQI band stratification, or cross-city transfer
(train on one city, evaluate on another).`,
		Example: `  aqicast validate --input features.csv --mode walkforward --horizon 24
  aqicast validate --input features.csv --mode holdout --entity delhi --test-size 0.2
  aqicast validate --input features.csv --mode cross --train-entity delhi --eval-entity mumbai`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, logger, *cfgFile)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "feature CSV input file (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "-", "evaluation report JSON output (- for stdout)")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "walkforward", "evaluation mode (walkforward, holdout, cross)")
	cmd.Flags().StringVarP(&opts.Predictor, "predictor", "p", forecast.PredictorLinear, "registered predictor name")
	cmd.Flags().StringVarP(&opts.Target, "target", "t", models.ColumnAQI, "target column to forecast")
	cmd.Flags().IntVar(&opts.Horizon, "horizon", 24, "forecast horizon in hours")
	cmd.Flags().IntVar(&opts.InitialSize, "initial-train-size", 500, "walk-forward initial training window")
	cmd.Flags().IntVar(&opts.StepSize, "step-size", 24, "walk-forward step size")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "city for hold-out evaluation")
	cmd.Flags().StringVar(&opts.TrainEntity, "train-entity", "", "training city for cross evaluation")
	cmd.Flags().StringVar(&opts.EvalEntity, "eval-entity", "", "evaluation city for cross evaluation")
	cmd.Flags().Float64Var(&opts.TestSize, "test-size", 0.2, "hold-out test fraction")
	cmd.Flags().BoolVar(&opts.Random, "random-split", false, "use a seeded random hold-out split instead of chronological")
	cmd.MarkFlagRequired("input")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions, logger *logrus.Logger, cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	readings, err := loadReadings(opts.Input)
	if err != nil {
		return err
	}
	t := models.NewTableFromReadings(readings)

	registry := forecast.NewDefaultRegistry(opts.Target)
	factory, ok := registry.Factory(opts.Predictor)
	if !ok {
		return fmt.Errorf("unknown predictor %q (registered: %v)", opts.Predictor, registry.Names())
	}

	var report interface{}
	switch opts.Mode {
	case "walkforward":
		validator := forecast.NewWalkForwardValidator(&cfg.Validation, logger, nil)
		report, err = validator.RollingForecast(cmd.Context(), factory, t, nil, opts.Target, opts.Horizon, opts.InitialSize, opts.StepSize)
	case "holdout":
		if opts.Entity == "" {
			return fmt.Errorf("--entity is required for holdout mode")
		}
		validator := forecast.NewMultiEntityValidator(&cfg.Validation, logger)
		report, err = validator.HoldOut(cmd.Context(), factory, t, nil, opts.Target, opts.Horizon, opts.Entity, opts.TestSize, !opts.Random)
	case "cross":
		if opts.TrainEntity == "" || opts.EvalEntity == "" {
			return fmt.Errorf("--train-entity and --eval-entity are required for cross mode")
		}
		validator := forecast.NewMultiEntityValidator(&cfg.Validation, logger)
		report, err = validator.CrossEntity(cmd.Context(), factory, t, nil, opts.Target, opts.Horizon, opts.TrainEntity, opts.EvalEntity)
	default:
		return fmt.Errorf("unknown mode %q (expected walkforward, holdout, or cross)", opts.Mode)
	}
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	return writeJSON(opts.Output, report)
}
