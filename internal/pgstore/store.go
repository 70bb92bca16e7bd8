// Package pgstore bulk-loads the canonical claims table into Postgres so
// the presentation layer can query it. Loads are wholesale: previous
// claim rows are deleted, then the new table is written under a fresh
// run id with timing and row-count bookkeeping.
package pgstore

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"claimsight/internal/claims"
)

//go:embed schema.sql
var schema string

// Run records one completed load.
type Run struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	SourceFile string
	ClaimRows  int64
}

// Connect opens a pgx pool sized for bulk imports and pings it.
func Connect(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection: %w", err)
	}
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// InitSchema applies the embedded schema.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

var claimColumns = []string{
	"run_id", "patient", "encounter_date", "total_claim_cost",
	"payer_coverage", "description", "organization", "payer",
	"patient_id", "birth_date", "gender", "city", "state", "age",
	"is_diabetes", "is_dialysis", "is_dialysis_proc", "payer_name",
}

// Load replaces the claims table contents with t and records the run.
// The delete, COPY, and run insert share one transaction, so a failed
// load leaves the previous data intact.
func Load(ctx context.Context, pool *pgxpool.Pool, t *claims.Table, sourceFile string, logger zerolog.Logger) (*Run, error) {
	run := &Run{
		ID:         uuid.New(),
		StartedAt:  time.Now().UTC(),
		SourceFile: sourceFile,
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM claims"); err != nil {
		return nil, fmt.Errorf("clear claims: %w", err)
	}

	// Claims reference the run row, so it goes in first; counts are
	// filled in once the COPY finishes.
	if _, err := tx.Exec(ctx,
		`INSERT INTO pipeline_runs (id, started_at, finished_at, source_file, claim_rows)
		 VALUES ($1, $2, $2, $3, 0)`,
		run.ID, run.StartedAt, run.SourceFile,
	); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"claims"},
		claimColumns,
		pgx.CopyFromSlice(len(t.Rows), func(i int) ([]any, error) {
			r := &t.Rows[i]
			return []any{
				run.ID,
				r.Patient,
				dateOrNull(r.EncounterDate),
				r.TotalClaimCost,
				r.PayerCoverage,
				r.Description,
				r.Organization,
				r.Payer,
				r.PatientID,
				dateOrNull(r.BirthDate),
				r.Gender,
				r.City,
				r.State,
				r.Age,
				r.IsDiabetes,
				r.IsDialysis,
				r.IsDialysisProc,
				r.PayerName,
			}, nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("copy claims: %w", err)
	}
	run.ClaimRows = copied
	run.FinishedAt = time.Now().UTC()

	if _, err := tx.Exec(ctx,
		`UPDATE pipeline_runs SET finished_at = $2, claim_rows = $3 WHERE id = $1`,
		run.ID, run.FinishedAt, run.ClaimRows,
	); err != nil {
		return nil, fmt.Errorf("finish run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	logger.Info().
		Str("run_id", run.ID.String()).
		Int64("rows", run.ClaimRows).
		Dur("took", run.FinishedAt.Sub(run.StartedAt)).
		Msg("claims loaded")
	return run, nil
}

// LatestRun returns the most recently finished load, or nil if none.
func LatestRun(ctx context.Context, pool *pgxpool.Pool) (*Run, error) {
	row := pool.QueryRow(ctx,
		`SELECT id, started_at, finished_at, source_file, claim_rows
		 FROM pipeline_runs ORDER BY finished_at DESC LIMIT 1`)

	var run Run
	err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.SourceFile, &run.ClaimRows)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	return &run, nil
}

// CountClaims returns the number of rows currently loaded.
func CountClaims(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	var n int64
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM claims").Scan(&n); err != nil {
		return 0, fmt.Errorf("count claims: %w", err)
	}
	return n, nil
}

func dateOrNull(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
