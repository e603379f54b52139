package model

import "strings"

// SourceKind tags a candidate with the registry it came from
type SourceKind string

const (
	SourceLabel      SourceKind = "openfda"         // FDA drug-label registry
	SourceLiterature SourceKind = "pubmed"          // PubMed/PMC literature registry
	SourceTrials     SourceKind = "clinicaltrials"  // ClinicalTrials.gov registry
)

// Resolution reasons recorded by the full-text resolver
const (
	ReasonNotIndexed       = "not indexed in full-text repository"
	ReasonFetchFailed      = "fetch failed"
	ReasonAccessRestricted = "access restricted"
)

// LabelDocument is an FDA drug label retrieved from OpenFDA
type LabelDocument struct {
	BrandName               string   `json:"brand_name,omitempty"`
	GenericName             string   `json:"generic_name,omitempty"`
	IndicationsAndUsage     []string `json:"indications_and_usage,omitempty"`
	ClinicalStudies         []string `json:"clinical_studies,omitempty"`
	DosageAndAdministration []string `json:"dosage_and_administration,omitempty"`
	Warnings                []string `json:"warnings,omitempty"`
	AdverseReactions        []string `json:"adverse_reactions,omitempty"`
	EffectiveTime           string   `json:"effective_time,omitempty"`
}

// SectionFor returns the label section most relevant to a claim type,
// falling back to indications and usage
func (d *LabelDocument) SectionFor(ct ClaimType) []string {
	switch ct {
	case ClaimTypeSafety:
		if len(d.AdverseReactions) > 0 {
			return d.AdverseReactions
		}
		return d.Warnings
	case ClaimTypeDosing:
		if len(d.DosageAndAdministration) > 0 {
			return d.DosageAndAdministration
		}
	case ClaimTypeEfficacy:
		if len(d.ClinicalStudies) > 0 {
			return d.ClinicalStudies
		}
	}
	return d.IndicationsAndUsage
}

// Body returns the claim-relevant label text for synthesis
func (d *LabelDocument) Body(ct ClaimType) string {
	parts := d.SectionFor(ct)
	if ct == ClaimTypeEfficacy && len(d.IndicationsAndUsage) > 0 {
		parts = append(append([]string(nil), d.IndicationsAndUsage...), parts...)
	}
	return strings.Join(parts, "\n\n")
}

// Article is a PubMed literature record. Resolution fields start unset and
// are written at most once by the full-text resolver.
type Article struct {
	PMID             string            `json:"pmid"`
	Title            string            `json:"title"`
	Abstract         string            `json:"abstract,omitempty"`
	Authors          []string          `json:"authors,omitempty"`
	Journal          string            `json:"journal,omitempty"`
	PubYear          int               `json:"pub_year,omitempty"`
	DOI              string            `json:"doi,omitempty"`
	PMCID            string            `json:"pmcid,omitempty"` // secondary full-text repository identifier
	PublicationTypes []string          `json:"publication_types,omitempty"`
	Resolved         bool              `json:"resolved"`
	FullTextFound    bool              `json:"full_text_found"`
	ResolutionReason string            `json:"resolution_reason,omitempty"`
	FullText         string            `json:"-"`
	Sections         map[string]string `json:"-"`
}

// AuthorLine formats authors for citations ("Hammond J, Smith A, et al.")
func (a *Article) AuthorLine() string {
	if len(a.Authors) == 0 {
		return "Unknown"
	}
	shown := a.Authors
	if len(shown) > 3 {
		shown = shown[:3]
	}
	line := strings.Join(shown, ", ")
	if len(a.Authors) > 3 {
		line += " et al."
	}
	return line
}

// Trial is a ClinicalTrials.gov registration
type Trial struct {
	NCTID             string   `json:"nct_id"`
	OfficialTitle     string   `json:"official_title,omitempty"`
	BriefTitle        string   `json:"brief_title,omitempty"`
	Status            string   `json:"status,omitempty"`
	Phase             string   `json:"phase,omitempty"`
	Enrollment        int      `json:"enrollment,omitempty"`
	StartDate         string   `json:"start_date,omitempty"`
	CompletionDate    string   `json:"completion_date,omitempty"`
	PrimaryOutcomes   []string `json:"primary_outcomes,omitempty"`
	SecondaryOutcomes []string `json:"secondary_outcomes,omitempty"`
	InterventionType  string   `json:"intervention_type,omitempty"`
	InterventionName  string   `json:"intervention_name,omitempty"`
	Sponsor           string   `json:"sponsor,omitempty"`
	HasResults        bool     `json:"has_results"`
	URL               string   `json:"url"`
}

// Title returns the best available trial title
func (t *Trial) Title() string {
	if t.BriefTitle != "" {
		return t.BriefTitle
	}
	return t.OfficialTitle
}

// Candidate is a raw result item from one source: a tagged variant over the
// three payload shapes, keyed by its source-native identifier.
type Candidate struct {
	Source  SourceKind     `json:"source"`
	ID      string         `json:"id"` // label: brand name, literature: PMID, trials: NCT ID
	Label   *LabelDocument `json:"label,omitempty"`
	Article *Article       `json:"article,omitempty"`
	Trial   *Trial         `json:"trial,omitempty"`
}

// NewLabelCandidate wraps a label document as a candidate
func NewLabelCandidate(doc *LabelDocument) *Candidate {
	id := doc.BrandName
	if id == "" {
		id = doc.GenericName
	}
	return &Candidate{Source: SourceLabel, ID: id, Label: doc}
}

// NewArticleCandidate wraps a literature record as a candidate
func NewArticleCandidate(a *Article) *Candidate {
	return &Candidate{Source: SourceLiterature, ID: a.PMID, Article: a}
}

// NewTrialCandidate wraps a trial registration as a candidate
func NewTrialCandidate(t *Trial) *Candidate {
	return &Candidate{Source: SourceTrials, ID: t.NCTID, Trial: t}
}

// Degradation records a non-fatal failure of one external source
type Degradation struct {
	Source SourceKind `json:"source"`
	Reason string     `json:"reason"`
}

// Aggregation is the orchestrator's fan-in result across all three sources
type Aggregation struct {
	Label        *Candidate    `json:"label,omitempty"`
	Literature   []*Candidate  `json:"literature,omitempty"`
	Trials       []*Candidate  `json:"trials,omitempty"`
	Degradations []Degradation `json:"degradations,omitempty"`
	ElapsedSec   float64       `json:"elapsed_seconds"`
}

// LiteratureCounts reports total, full-text and abstract-only counts
func (a *Aggregation) LiteratureCounts() (total, fullText, abstractOnly int) {
	total = len(a.Literature)
	for _, c := range a.Literature {
		if c.Article != nil && c.Article.FullTextFound {
			fullText++
		}
	}
	return total, fullText, total - fullText
}
