package metrics

import (
	"testing"

	"claimsight/internal/claims"
)

func TestCohorts(t *testing.T) {
	rows := []claims.Row{
		{Patient: "p1", TotalClaimCost: 100, IsDiabetes: true},
		{Patient: "p1", TotalClaimCost: 50, IsDiabetes: true},
		{Patient: "p2", TotalClaimCost: 200, IsDialysis: true},
		{Patient: "p3", TotalClaimCost: 300, IsDiabetes: true, IsDialysis: true},
		{Patient: "p4", TotalClaimCost: 999},
	}

	s := Cohorts(rows)
	if s.DiabetesPatients != 2 {
		t.Errorf("expected 2 diabetes patients, got %d", s.DiabetesPatients)
	}
	if s.DialysisPatients != 2 {
		t.Errorf("expected 2 dialysis patients, got %d", s.DialysisPatients)
	}
	if s.BothPatients != 1 {
		t.Errorf("expected 1 patient in both cohorts, got %d", s.BothPatients)
	}
	if s.DiabetesCost != 450 {
		t.Errorf("expected diabetes cost 450, got %v", s.DiabetesCost)
	}
	if s.DialysisCost != 500 {
		t.Errorf("expected dialysis cost 500, got %v", s.DialysisCost)
	}
}

func TestMonthlyCohortCosts(t *testing.T) {
	rows := []claims.Row{
		claim("p1", "2024-01-10", 100),
		claim("p2", "2024-01-15", 200),
		claim("p3", "2024-02-01", 400),
	}
	rows[0].IsDiabetes = true
	rows[1].IsDialysis = true
	rows[2].IsDiabetes = true

	trend := MonthlyCohortCosts(rows)
	if len(trend) != 2 {
		t.Fatalf("expected 2 months, got %d", len(trend))
	}
	if trend[0].Period != "2024-01" || trend[0].DiabetesCost != 100 || trend[0].DialysisCost != 200 {
		t.Errorf("january: %+v", trend[0])
	}
	if trend[1].DiabetesCost != 400 {
		t.Errorf("february: %+v", trend[1])
	}
}

func TestCityBreakdown(t *testing.T) {
	rows := []claims.Row{
		{Patient: "p1", City: "Boston", IsDiabetes: true},
		{Patient: "p2", City: "Boston", IsDialysis: true},
		{Patient: "p3", City: "Salem", IsDiabetes: true},
		{Patient: "p4"}, // no demographics
	}

	cities := CityBreakdown(rows)
	if len(cities) != 3 {
		t.Fatalf("expected 3 cities including the empty bucket, got %d", len(cities))
	}
	if cities[0].City != "" {
		t.Errorf("expected empty city sorted first, got %q", cities[0].City)
	}
	if cities[1].City != "Boston" || cities[1].Diabetes != 1 || cities[1].Dialysis != 1 {
		t.Errorf("boston: %+v", cities[1])
	}
}

func TestTopOrganizations(t *testing.T) {
	rows := []claims.Row{
		{Organization: "org1", TotalClaimCost: 100},
		{Organization: "org2", TotalClaimCost: 500},
		{Organization: "org1", TotalClaimCost: 50},
		{Organization: "org3", TotalClaimCost: 10},
	}

	top := TopOrganizations(rows, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 organizations, got %d", len(top))
	}
	if top[0].Organization != "org2" || top[0].TotalCost != 500 {
		t.Errorf("expected org2 first, got %+v", top[0])
	}
	if top[1].Organization != "org1" || top[1].TotalCost != 150 || top[1].Claims != 2 {
		t.Errorf("expected org1 second, got %+v", top[1])
	}
}
