// Command claimsight runs the claims analytics pipeline: normalize raw
// extracts into the canonical claims table, derive reporting metrics,
// project future cost, score uploads against a trained model, and load
// results into Postgres.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"claimsight/internal/config"
)

var (
	jsonLogs bool
	logger   zerolog.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "claimsight",
		Short:         "Healthcare claims analytics pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(jsonLogs)
		},
	}
	root.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit JSON logs instead of console output")

	root.AddCommand(cleanCmd())
	root.AddCommand(reportCmd())
	root.AddCommand(forecastCmd())
	root.AddCommand(predictCmd())
	root.AddCommand(loadCmd())

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newLogger(json bool) zerolog.Logger {
	if json {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
