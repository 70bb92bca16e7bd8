package forecast

import (
	"errors"
	"testing"
	"time"

	"claimsight/internal/claims"
)

func monthClaim(month string, cost float64) claims.Row {
	d, err := time.Parse("2006-01", month)
	if err != nil {
		panic(err)
	}
	return claims.Row{Patient: "p", EncounterDate: d, TotalClaimCost: cost}
}

func series(costs ...float64) []Point {
	out := make([]Point, len(costs))
	for i, c := range costs {
		out[i] = Point{Index: i, Cost: c}
	}
	return out
}

func TestProjectIndicesContinue(t *testing.T) {
	hist := series(100, 110, 120, 130, 140, 150, 160, 170, 180, 190, 200, 210)

	fc := Forecaster{Trees: 20}
	out, err := fc.Project(hist, 12)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(out) != 12 {
		t.Fatalf("expected 12 points, got %d", len(out))
	}
	for i, p := range out {
		if p.Index != 12+i {
			t.Errorf("point %d: expected index %d, got %d", i, 12+i, p.Index)
		}
	}
}

func TestProjectConstantSeries(t *testing.T) {
	hist := series(500, 500, 500, 500, 500, 500)

	fc := Forecaster{Trees: 10}
	out, err := fc.Project(hist, 3)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	for _, p := range out {
		if p.Cost != 500 {
			t.Errorf("expected constant history to project 500, got %v at index %d", p.Cost, p.Index)
		}
	}
}

func TestProjectDeterministic(t *testing.T) {
	hist := series(10, 30, 20, 50, 40, 60, 55, 70)

	fc := Forecaster{Trees: 30, Seed: 7}
	a, err := fc.Project(hist, 4)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	b, err := fc.Project(hist, 4)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("point %d differs between identical runs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestProjectInsufficientHistory(t *testing.T) {
	fc := Forecaster{}

	_, err := fc.Project(series(100), 3)
	var insufficient *InsufficientHistoryError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientHistoryError, got %v", err)
	}
	if insufficient.Have != 1 || insufficient.Need != MinHistoryFloor {
		t.Errorf("expected have=1 need=%d, got %+v", MinHistoryFloor, insufficient)
	}

	// Above the floor but below the default minimum.
	_, err = fc.Project(series(100, 200, 300), 3)
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientHistoryError below default minimum, got %v", err)
	}
	if insufficient.Have != 3 || insufficient.Need != 6 {
		t.Errorf("expected have=3 need=6, got %+v", insufficient)
	}
}

func TestProjectBadHorizon(t *testing.T) {
	fc := Forecaster{MinHistory: 2}
	if _, err := fc.Project(series(1, 2), 0); err == nil {
		t.Fatal("expected error for zero horizon")
	}
	if _, err := fc.Project(series(1, 2), -1); err == nil {
		t.Fatal("expected error for negative horizon")
	}
}

func TestMonthlySeries(t *testing.T) {
	rows := []claims.Row{
		monthClaim("2024-02", 200),
		monthClaim("2024-01", 100),
		monthClaim("2024-01", 50),
		{Patient: "p", TotalClaimCost: 999}, // no date
	}

	out := MonthlySeries(rows)
	if len(out) != 2 {
		t.Fatalf("expected 2 months, got %d", len(out))
	}
	if out[0].Month != "2024-01" || out[0].Index != 0 || out[0].Cost != 150 {
		t.Errorf("first point: %+v", out[0])
	}
	if out[1].Month != "2024-02" || out[1].Index != 1 || out[1].Cost != 200 {
		t.Errorf("second point: %+v", out[1])
	}
}

func TestFutureMonths(t *testing.T) {
	got := FutureMonths("2024-11", 3)
	want := []string{"2024-12", "2025-01", "2025-02"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("month %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	for _, m := range FutureMonths("garbage", 2) {
		if m != "" {
			t.Errorf("expected empty labels for unparseable start, got %q", m)
		}
	}
}
