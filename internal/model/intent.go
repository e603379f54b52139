package model

import "strings"

// ClaimType categorizes the kind of claim the user asked for
type ClaimType string

const (
	ClaimTypeEfficacy   ClaimType = "efficacy"   // Treatment-effect claims
	ClaimTypeSafety     ClaimType = "safety"     // Adverse-event and tolerability claims
	ClaimTypeIndication ClaimType = "indication" // Approved-use claims
	ClaimTypeDosing     ClaimType = "dosing"     // Dosage and administration claims
	ClaimTypeMechanism  ClaimType = "mechanism"  // Mechanism-of-action claims
)

// NormalizeClaimType maps free-form LLM output onto a known claim type,
// defaulting to efficacy
func NormalizeClaimType(s string) ClaimType {
	switch ClaimType(strings.ToLower(strings.TrimSpace(s))) {
	case ClaimTypeSafety:
		return ClaimTypeSafety
	case ClaimTypeIndication:
		return ClaimTypeIndication
	case ClaimTypeDosing:
		return ClaimTypeDosing
	case ClaimTypeMechanism:
		return ClaimTypeMechanism
	default:
		return ClaimTypeEfficacy
	}
}

// DrugIdentification holds the drug names extracted from the query
type DrugIdentification struct {
	BrandName   string   `json:"brand_name,omitempty"`   // e.g. "Paxlovid"
	GenericName string   `json:"generic_name,omitempty"` // e.g. "nirmatrelvir/ritonavir"
	Synonyms    []string `json:"synonyms,omitempty"`
	SearchTerms []string `json:"search_terms,omitempty"`
}

// PrimaryName returns the best available name for source searches
func (d DrugIdentification) PrimaryName() string {
	if d.BrandName != "" {
		return d.BrandName
	}
	return d.GenericName
}

// OutputRequirements captures the user's output preferences
type OutputRequirements struct {
	ClaimCount            int    `json:"claim_count"`
	IncludeSubstantiation bool   `json:"include_substantiation"`
	FormatType            string `json:"format_type"`
}

// Intent is the structured representation of the user's free-text query.
// It is built once by the intent parser and consumed read-only downstream.
type Intent struct {
	OriginalQuery string             `json:"original_query"`
	Drug          DrugIdentification `json:"drug"`
	ClaimType     ClaimType          `json:"claim_type"`
	Indication    string             `json:"indication,omitempty"`
	Population    string             `json:"population,omitempty"`
	Output        OutputRequirements `json:"output_requirements"`
}

// MaxClaims returns the effective claim budget for this intent
func (i *Intent) MaxClaims(fallback int) int {
	if i.Output.ClaimCount > 0 {
		return i.Output.ClaimCount
	}
	return fallback
}

// SourceQuery is the normalized request handed to every source client.
// One SourceQuery is derived per pipeline run and never mutated afterwards.
type SourceQuery struct {
	DrugName    string   `json:"drug_name"`
	GenericName string   `json:"generic_name,omitempty"`
	SearchTerms []string `json:"search_terms,omitempty"`
	Indication  string   `json:"indication,omitempty"`
	Population  string   `json:"population,omitempty"`
	MaxResults  int      `json:"max_results"` // literature cap
	MaxTrials   int      `json:"max_trials"`  // trial registry cap
	YearsBack   int      `json:"years_back"`  // literature date window
}

// NewSourceQuery derives the single per-run query from the parsed intent
func NewSourceQuery(intent *Intent, cfg *Config) SourceQuery {
	return SourceQuery{
		DrugName:    intent.Drug.PrimaryName(),
		GenericName: intent.Drug.GenericName,
		SearchTerms: append([]string(nil), intent.Drug.SearchTerms...),
		Indication:  intent.Indication,
		Population:  intent.Population,
		MaxResults:  cfg.Search.MaxLiteratureResults,
		MaxTrials:   cfg.Search.MaxTrialResults,
		YearsBack:   cfg.Search.YearsBack,
	}
}
