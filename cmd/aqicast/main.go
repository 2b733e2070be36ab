package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skylab-io/aqicast/cmd/aqicast/commands"
)

var (
	cfgFile string
	verbose bool
	logger  = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "aqicast",
	Short: "Air quality data pipeline",
	Long: `aqicast cleans multi-city air quality sensor data, derives
temporal forecasting features, and evaluates forecast models with
leakage-safe time-series validation.`,
	Version: "1.0.0",
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./aqicast.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(commands.NewCleanCmd(logger, &cfgFile))
	rootCmd.AddCommand(commands.NewFeaturesCmd(logger, &cfgFile))
	rootCmd.AddCommand(commands.NewValidateCmd(logger, &cfgFile))
}

func initLogging() {
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
