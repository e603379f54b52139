package validate

import (
	"strings"
	"testing"

	"github.com/pharmaclaims/substantia/internal/model"
)

const sourceExcerpt = "In EPIC-HR, treatment within three days of symptom onset reduced the risk of " +
	"COVID-19-related hospitalization or death by 89.1% (95% CI, 75.59 to 94.84; p<0.001) among " +
	"2,246 randomized participants (N=2246)."

func validClaim() model.Claim {
	return model.Claim{
		ID:             2,
		ClaimType:      model.ClaimTypeEfficacy,
		ClaimText:      "PAXLOVID reduced the risk of hospitalization or death by 89.1% in high-risk adults.",
		Substantiation: "In the EPIC-HR randomized trial of 2,246 participants, treatment within three days of symptom onset reduced COVID-19-related hospitalization or death by 89.1% (p<0.001) compared with placebo.",
		SourceType:     model.SourceTypeFullText,
		SourceExcerpt:  sourceExcerpt,
		FullTextUsed:   true,
		NumericalData:  map[string]string{"risk_reduction": "89.1%", "n": "2246"},
		Citations: []model.Citation{{
			Primary:      true,
			CitationType: model.CitationJournalArticle,
			Authors:      "Hammond J, Leister-Tebbe H et al.",
			Title:        "Oral Nirmatrelvir for High-Risk, Nonhospitalized Adults with Covid-19",
			Journal:      "New England Journal of Medicine",
			Year:         2022,
			PMID:         "35172054",
		}},
	}
}

func TestValidate_CleanClaim(t *testing.T) {
	claims := New().Validate([]model.Claim{validClaim()})

	c := claims[0]
	if len(c.ValidationNotes) != 0 {
		t.Fatalf("notes = %v", c.ValidationNotes)
	}
	if c.Confidence != model.ConfidenceHigh {
		t.Errorf("confidence = %s", c.Confidence)
	}
	if c.ConfidenceText != confidenceFullTextText {
		t.Errorf("confidence text = %s", c.ConfidenceText)
	}
}

func TestValidate_HighRelevanceWording(t *testing.T) {
	c := validClaim()
	c.RelevanceScore = 20.5

	got := New().Validate([]model.Claim{c})[0]
	if got.ConfidenceText != confidenceValidatedText {
		t.Errorf("confidence text = %s", got.ConfidenceText)
	}
}

func TestValidate_NumericMismatchDowngrades(t *testing.T) {
	c := validClaim()
	c.ClaimText = "PAXLOVID reduced the risk of hospitalization or death by 94% in high-risk adults."

	got := New().Validate([]model.Claim{c})[0]
	if got.Confidence != model.ConfidenceMedium {
		t.Errorf("confidence = %s", got.Confidence)
	}
	if got.ConfidenceText != confidenceNumericFlagText {
		t.Errorf("confidence text = %s", got.ConfidenceText)
	}
	found := false
	for _, note := range got.ValidationNotes {
		if strings.Contains(note, "94%") {
			found = true
		}
	}
	if !found {
		t.Errorf("notes = %v, expected the mismatched number", got.ValidationNotes)
	}
}

func TestValidate_NeverDropsClaims(t *testing.T) {
	broken := validClaim()
	broken.ClaimText = "Too short."
	broken.Substantiation = "Also too short."
	broken.Citations = nil

	claims := New().Validate([]model.Claim{validClaim(), broken, validClaim()})
	if len(claims) != 3 {
		t.Fatalf("claims = %d, validator must never drop claims", len(claims))
	}

	got := claims[1]
	if got.Confidence != model.ConfidenceMedium {
		t.Errorf("confidence = %s", got.Confidence)
	}
	if len(got.ValidationNotes) == 0 {
		t.Error("expected validation notes on the broken claim")
	}
}

func TestValidate_FDAClaimAlwaysHighest(t *testing.T) {
	c := model.Claim{
		ID:         1,
		ClaimText:  "Short.",
		SourceType: model.SourceTypeFDALabel,
		Citations: []model.Citation{{
			Primary:      true,
			CitationType: model.CitationFDALabel,
			Section:      "Efficacy",
			URL:          "https://www.accessdata.fda.gov/scripts/cder/daf/",
		}},
	}

	got := New().Validate([]model.Claim{c})[0]
	if got.Confidence != model.ConfidenceHighest {
		t.Errorf("confidence = %s, label claims are never downgraded", got.Confidence)
	}
	if got.ConfidenceText != confidenceFDAText {
		t.Errorf("confidence text = %s", got.ConfidenceText)
	}
	// Flags are still recorded for the reviewer
	if len(got.ValidationNotes) == 0 {
		t.Error("expected completeness notes despite the Highest tier")
	}
}

func TestValidate_CitationIntegrity(t *testing.T) {
	c := validClaim()
	c.Citations = []model.Citation{{
		Primary:      true,
		CitationType: model.CitationJournalArticle,
		Title:        "Some title",
		// no authors, journal, year, or identifier
	}}

	got := New().Validate([]model.Claim{c})[0]
	if got.Confidence != model.ConfidenceMedium {
		t.Errorf("confidence = %s", got.Confidence)
	}
	if got.ConfidenceText != confidenceIntegrityText {
		t.Errorf("confidence text = %s", got.ConfidenceText)
	}

	joined := strings.Join(got.ValidationNotes, "; ")
	for _, want := range []string{"missing identifier", "missing authors", "missing journal", "missing year"} {
		if !strings.Contains(joined, want) {
			t.Errorf("notes %q missing %q", joined, want)
		}
	}
}

func TestValidate_FullTextNeverBelowMedium(t *testing.T) {
	missingID := validClaim()
	missingID.Citations[0].PMID = ""
	missingID.Citations[0].PMCID = ""
	missingID.Citations[0].DOI = ""

	thin := validClaim()
	thin.Substantiation = "Too short."
	thin.ClaimText = "PAXLOVID reduced hospitalizations." // no numbers to mismatch
	thin.NumericalData = nil

	claims := New().Validate([]model.Claim{missingID, thin})
	for i, got := range claims {
		if got.Confidence != model.ConfidenceMedium {
			t.Errorf("claim %d confidence = %s, flagged full-text claims stay medium", i, got.Confidence)
		}
		if got.ConfidenceText != confidenceIntegrityText {
			t.Errorf("claim %d confidence text = %s", i, got.ConfidenceText)
		}
		if len(got.ValidationNotes) == 0 {
			t.Errorf("claim %d lost its diagnostic notes", i)
		}
	}
}

func TestExtractNumbers(t *testing.T) {
	numbers := extractNumbers("Risk fell 89.1% (95% CI, 75.59 to 94.84; p<0.001) with N=2,246 enrolled.")

	want := map[string]bool{"89.1%": false, "p<0.001": false, "N=2,246": false}
	for _, n := range numbers {
		key := strings.ReplaceAll(n, " ", "")
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("missing token %q in %v", k, numbers)
		}
	}
}

func TestFuzzyNumberMatch(t *testing.T) {
	source := []string{"89.1%", "2,246", "p<0.001"}

	cases := []struct {
		number string
		want   bool
	}{
		{"89.1%", true},
		{"89.1 %", true},
		{"2246", true},
		{"p < 0.001", true},
		{"94%", false},
	}
	for _, tc := range cases {
		if got := fuzzyNumberMatch(tc.number, source); got != tc.want {
			t.Errorf("fuzzyNumberMatch(%q) = %v, want %v", tc.number, got, tc.want)
		}
	}
}
