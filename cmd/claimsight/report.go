package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"claimsight/internal/claims"
	"claimsight/internal/config"
	"claimsight/internal/metrics"
)

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Derive metric reports from the canonical claims table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runReport(cfg)
		},
	}
}

func runReport(cfg *config.Config) error {
	t, err := claims.ReadFile(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.OutputPath, err)
	}
	if err := os.MkdirAll(cfg.ReportDir, 0o755); err != nil {
		return err
	}

	weights := metrics.RiskWeights{Diabetes: cfg.RiskDiabetesW, Dialysis: cfg.RiskDialysisW}

	reports := []struct {
		file  string
		write func(w *csv.Writer) error
	}{
		{"monthly_summary.csv", func(w *csv.Writer) error {
			return writeMonthlySummary(w, t)
		}},
		{"payer_summary.csv", func(w *csv.Writer) error {
			return writePayerSummary(w, t)
		}},
		{"outliers.csv", func(w *csv.Writer) error {
			return writeOutliers(w, t, cfg.ZScoreThreshold)
		}},
		{"duplicate_claims.csv", func(w *csv.Writer) error {
			return writeDuplicates(w, t)
		}},
		{"top_risk.csv", func(w *csv.Writer) error {
			return writeTopRisk(w, t, weights, cfg.TopRiskN)
		}},
		{"cohort_summary.csv", func(w *csv.Writer) error {
			return writeCohorts(w, t)
		}},
		{"city_breakdown.csv", func(w *csv.Writer) error {
			return writeCityBreakdown(w, t)
		}},
		{"top_organizations.csv", func(w *csv.Writer) error {
			return writeTopOrganizations(w, t, cfg.TopRiskN)
		}},
	}

	for _, rep := range reports {
		path := filepath.Join(cfg.ReportDir, rep.file)
		if err := writeReport(path, rep.write); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Info().Str("path", path).Msg("report written")
	}
	return nil
}

func writeReport(path string, fn func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeMonthlySummary(w *csv.Writer, t *claims.Table) error {
	aggs := metrics.Aggregate(t.Rows, metrics.Month)
	pmpm := metrics.PMPM(aggs)
	if err := w.Write([]string{"month", "total_cost", "claims", "unique_patients", "diabetes_claims", "dialysis_claims", "pmpm"}); err != nil {
		return err
	}
	for i, a := range aggs {
		pmpmStr := ""
		if pmpm[i].PMPM != nil {
			pmpmStr = f64(*pmpm[i].PMPM)
		}
		err := w.Write([]string{
			a.Period, f64(a.TotalCost), itoa(a.Claims), itoa(a.UniquePatients),
			itoa(a.DiabetesClaims), itoa(a.DialysisClaims), pmpmStr,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writePayerSummary(w *csv.Writer, t *claims.Table) error {
	if err := w.Write([]string{"rank", "payer", "payer_name", "claims", "total_cost", "avg_cost", "acceptance_rate"}); err != nil {
		return err
	}
	for _, p := range metrics.PayerSummary(t.Rows) {
		err := w.Write([]string{
			itoa(p.Rank), p.Payer, p.PayerName, itoa(p.Claims),
			f64(p.TotalCost), f64(p.AvgCost), f64(p.AcceptanceRate),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeOutliers(w *csv.Writer, t *claims.Table, threshold float64) error {
	if err := w.Write([]string{"patient", "encounter_date", "total_claim_cost", "z_score"}); err != nil {
		return err
	}
	for _, o := range metrics.Outliers(t.Rows, threshold) {
		err := w.Write([]string{
			o.Row.Patient, dateCol(o.Row), f64(o.Row.TotalClaimCost), f64(o.Z),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeDuplicates(w *csv.Writer, t *claims.Table) error {
	if err := w.Write([]string{"patient", "encounter_date", "total_claim_cost", "description"}); err != nil {
		return err
	}
	for _, r := range metrics.DuplicateClaims(t.Rows) {
		err := w.Write([]string{r.Patient, dateCol(r), f64(r.TotalClaimCost), r.Description})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeTopRisk(w *csv.Writer, t *claims.Table, weights metrics.RiskWeights, n int) error {
	if err := w.Write([]string{"patient", "age", "cost_rank", "risk_score"}); err != nil {
		return err
	}
	for _, s := range metrics.TopRisk(t.Rows, weights, n) {
		err := w.Write([]string{s.Patient, itoa(int(s.Age)), f64(s.CostRank), f64(s.Score)})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeCohorts(w *csv.Writer, t *claims.Table) error {
	s := metrics.Cohorts(t.Rows)
	if err := w.Write([]string{"cohort", "patients", "total_cost"}); err != nil {
		return err
	}
	rows := [][]string{
		{"diabetes", itoa(s.DiabetesPatients), f64(s.DiabetesCost)},
		{"dialysis", itoa(s.DialysisPatients), f64(s.DialysisCost)},
		{"both", itoa(s.BothPatients), ""},
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

func writeCityBreakdown(w *csv.Writer, t *claims.Table) error {
	if err := w.Write([]string{"city", "diabetes_claims", "dialysis_claims"}); err != nil {
		return err
	}
	for _, c := range metrics.CityBreakdown(t.Rows) {
		if err := w.Write([]string{c.City, itoa(c.Diabetes), itoa(c.Dialysis)}); err != nil {
			return err
		}
	}
	return nil
}

func writeTopOrganizations(w *csv.Writer, t *claims.Table, n int) error {
	if err := w.Write([]string{"organization", "total_cost", "claims"}); err != nil {
		return err
	}
	for _, o := range metrics.TopOrganizations(t.Rows, n) {
		if err := w.Write([]string{o.Organization, f64(o.TotalCost), itoa(o.Claims)}); err != nil {
			return err
		}
	}
	return nil
}

func dateCol(r claims.Row) string {
	if r.EncounterDate.IsZero() {
		return ""
	}
	return r.EncounterDate.Format("2006-01-02")
}

func f64(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }
func itoa(n int) string    { return strconv.Itoa(n) }
