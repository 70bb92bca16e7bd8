package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"claimsight/internal/claims"
	"claimsight/internal/forecast"
)

func predictCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "predict [claims.csv]",
		Short: "Score a claims CSV with the trained cost model",
		Long: "Scores uploaded claim rows against the pre-trained cost model.\n" +
			"With no argument the extended canonical table (final_merged.csv) is scored;\n" +
			"its column contract is validated before prediction.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			model, err := forecast.LoadModel(cfg.ModelPath)
			if err != nil {
				return fmt.Errorf("load model %s: %w", cfg.ModelPath, err)
			}

			input := cfg.FinalMergedPath
			if len(args) == 1 {
				input = args[0]
			} else if _, err := claims.ReadFinalMerged(input); err != nil {
				return fmt.Errorf("read %s: %w", input, err)
			}

			preds, err := model.PredictFile(input)
			if err != nil {
				return err
			}

			dest := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				dest = f
			}

			w := csv.NewWriter(dest)
			if err := w.Write([]string{"row", "predicted_cost"}); err != nil {
				return err
			}
			for _, p := range preds {
				err := w.Write([]string{
					strconv.Itoa(p.Row),
					strconv.FormatFloat(p.Cost, 'f', 2, 64),
				})
				if err != nil {
					return err
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}
			logger.Info().Int("rows", len(preds)).Msg("predictions written")
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write predictions to a file instead of stdout")
	return cmd
}
