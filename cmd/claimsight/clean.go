package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"claimsight/internal/claims"
	"claimsight/internal/source"
)

func cleanCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Normalize raw extracts and build the canonical claims table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if year == 0 {
				year = time.Now().Year()
			}
			return runClean(cfg.DataDir, cfg.OutputPath, cfg.ParquetPath, year)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "reference year for patient age (default: current year)")
	return cmd
}

func runClean(dataDir, outputPath, parquetPath string, year int) error {
	in := func(name string) string { return filepath.Join(dataDir, name) }

	encounters, _, err := source.ReadEncounters(in("encounters.csv"), logger)
	if err != nil {
		return fmt.Errorf("read encounters: %w", err)
	}

	// Everything else is a dimension table: a missing file degrades the
	// output columns instead of failing the run.
	patients, err := optionalPatients(in("patients.csv"), year)
	if err != nil {
		return err
	}
	condFlags, err := optionalConditions(in("conditions.csv"))
	if err != nil {
		return err
	}
	procFlags, err := optionalProcedures(in("procedures.csv"))
	if err != nil {
		return err
	}
	payers, err := optionalPayers(in("payers.csv"))
	if err != nil {
		return err
	}
	transitions, err := optionalTransitions(in("payer_transitions.csv"))
	if err != nil {
		return err
	}

	table, stats, err := claims.Merge(claims.Input{
		Encounters:  encounters,
		Patients:    patients,
		Conditions:  condFlags,
		Procedures:  procFlags,
		Payers:      payers,
		Transitions: transitions,
	}, logger)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	if err := claims.WriteFile(outputPath, table); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	logger.Info().
		Str("path", outputPath).
		Int("rows", stats.Merged).
		Int("duplicates_removed", stats.DuplicatesRemoved).
		Int("unknown_payers", stats.UnknownPayers).
		Msg("canonical claims written")

	if parquetPath != "" {
		if err := claims.WriteParquetFile(parquetPath, table); err != nil {
			return fmt.Errorf("write %s: %w", parquetPath, err)
		}
		logger.Info().Str("path", parquetPath).Int("rows", len(table.Rows)).Msg("parquet written")
	}
	return nil
}

func optionalPatients(path string, year int) ([]source.Patient, error) {
	recs, _, err := source.ReadPatients(path, year, logger)
	if skipMissing(err, path) {
		return nil, nil
	}
	return recs, err
}

func optionalConditions(path string) (map[string]claims.ConditionFlags, error) {
	recs, _, err := source.ReadConditions(path, logger)
	if skipMissing(err, path) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return claims.TagConditions(recs), nil
}

func optionalProcedures(path string) (map[string]bool, error) {
	recs, _, err := source.ReadProcedures(path, logger)
	if skipMissing(err, path) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return claims.TagProcedures(recs), nil
}

func optionalPayers(path string) ([]source.Payer, error) {
	recs, _, err := source.ReadPayers(path, logger)
	if skipMissing(err, path) {
		return nil, nil
	}
	return recs, err
}

func optionalTransitions(path string) ([]source.PayerTransition, error) {
	recs, _, err := source.ReadPayerTransitions(path, logger)
	if skipMissing(err, path) {
		return nil, nil
	}
	return recs, err
}

func skipMissing(err error, path string) bool {
	var missing *source.MissingInputError
	if errors.As(err, &missing) {
		logger.Warn().Str("path", path).Msg("input not found, columns will carry defaults")
		return true
	}
	return false
}
