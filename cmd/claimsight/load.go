package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"claimsight/internal/claims"
	"claimsight/internal/pgstore"
)

func loadCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Bulk-load the canonical claims table into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not configured")
			}
			if input == "" {
				input = cfg.OutputPath
			}

			var t *claims.Table
			if strings.HasSuffix(input, ".parquet") {
				t, err = claims.ReadParquetFile(input)
			} else {
				t, err = claims.ReadFile(input)
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", input, err)
			}

			ctx := cmd.Context()
			pool, err := pgstore.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pgstore.InitSchema(ctx, pool); err != nil {
				return fmt.Errorf("init schema: %w", err)
			}
			run, err := pgstore.Load(ctx, pool, t, input, logger)
			if err != nil {
				return err
			}
			logger.Info().Str("run_id", run.ID.String()).Msg("load complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "claims table to load, CSV or parquet (default: config output path)")
	return cmd
}
