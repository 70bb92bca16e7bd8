package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"claimsight/internal/claims"
	"claimsight/internal/forecast"
)

func forecastCmd() *cobra.Command {
	var horizon int

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project future monthly claim cost from the claims history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if horizon == 0 {
				horizon = cfg.ForecastHorizon
			}

			t, err := claims.ReadFile(cfg.OutputPath)
			if err != nil {
				return fmt.Errorf("read %s: %w", cfg.OutputPath, err)
			}

			series := forecast.MonthlySeries(t.Rows)
			fc := forecast.Forecaster{
				Trees:      cfg.ForecastTrees,
				MinHistory: cfg.ForecastMinHist,
			}
			projected, err := fc.Project(forecast.Points(series), horizon)
			if err != nil {
				return fmt.Errorf("project: %w", err)
			}

			var lastMonth string
			if len(series) > 0 {
				lastMonth = series[len(series)-1].Month
			}
			months := forecast.FutureMonths(lastMonth, horizon)

			if err := os.MkdirAll(cfg.ReportDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(cfg.ReportDir, "forecast.csv")
			if err := writeForecast(path, months, projected); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			logger.Info().
				Str("path", path).
				Int("history_months", len(series)).
				Int("horizon", horizon).
				Msg("forecast written")
			return nil
		},
	}
	cmd.Flags().IntVar(&horizon, "horizon", 0, "months to project (default: config)")
	return cmd
}

func writeForecast(path string, months []string, projected []forecast.Point) error {
	return writeReport(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"month", "month_index", "projected_cost"}); err != nil {
			return err
		}
		for i, p := range projected {
			err := w.Write([]string{
				months[i],
				strconv.Itoa(p.Index),
				strconv.FormatFloat(p.Cost, 'f', 2, 64),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
