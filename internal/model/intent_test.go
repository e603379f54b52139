package model

import "testing"

func TestDrugIdentification_PrimaryName(t *testing.T) {
	d := DrugIdentification{BrandName: "Paxlovid", GenericName: "nirmatrelvir/ritonavir"}
	if d.PrimaryName() != "Paxlovid" {
		t.Errorf("expected brand name, got %s", d.PrimaryName())
	}

	d = DrugIdentification{GenericName: "nirmatrelvir"}
	if d.PrimaryName() != "nirmatrelvir" {
		t.Errorf("expected generic fallback, got %s", d.PrimaryName())
	}
}

func TestNormalizeClaimType(t *testing.T) {
	tests := []struct {
		in   string
		want ClaimType
	}{
		{"efficacy", ClaimTypeEfficacy},
		{"Safety", ClaimTypeSafety},
		{" dosing ", ClaimTypeDosing},
		{"indication", ClaimTypeIndication},
		{"something else", ClaimTypeEfficacy},
		{"", ClaimTypeEfficacy},
	}
	for _, tt := range tests {
		if got := NormalizeClaimType(tt.in); got != tt.want {
			t.Errorf("NormalizeClaimType(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNewSourceQuery(t *testing.T) {
	cfg := DefaultConfig()
	intent := &Intent{
		OriginalQuery: "efficacy claims for Paxlovid in COVID-19",
		Drug: DrugIdentification{
			BrandName:   "Paxlovid",
			GenericName: "nirmatrelvir/ritonavir",
			SearchTerms: []string{"Paxlovid", "nirmatrelvir"},
		},
		ClaimType:  ClaimTypeEfficacy,
		Indication: "COVID-19",
	}

	q := NewSourceQuery(intent, cfg)

	if q.DrugName != "Paxlovid" {
		t.Errorf("expected drug name Paxlovid, got %s", q.DrugName)
	}
	if q.MaxResults != cfg.Search.MaxLiteratureResults {
		t.Errorf("expected max results %d, got %d", cfg.Search.MaxLiteratureResults, q.MaxResults)
	}
	if q.YearsBack != 5 {
		t.Errorf("expected 5 years back, got %d", q.YearsBack)
	}

	// The derived query must be independent of later intent mutation
	intent.Drug.SearchTerms[0] = "mutated"
	if q.SearchTerms[0] != "Paxlovid" {
		t.Error("source query shares backing array with intent search terms")
	}
}

func TestIntent_MaxClaims(t *testing.T) {
	i := &Intent{Output: OutputRequirements{ClaimCount: 8}}
	if i.MaxClaims(6) != 8 {
		t.Errorf("expected 8, got %d", i.MaxClaims(6))
	}
	i = &Intent{}
	if i.MaxClaims(6) != 6 {
		t.Errorf("expected fallback 6, got %d", i.MaxClaims(6))
	}
}
