package model

// SourceType identifies the authority class of a claim's primary source
type SourceType string

const (
	SourceTypeFDALabel     SourceType = "FDA_APPROVED_LABEL"
	SourceTypeFullText     SourceType = "PEER_REVIEWED_FULL_TEXT"
	SourceTypeAbstractOnly SourceType = "PEER_REVIEWED_ABSTRACT" // never a claim source, kept for exclusions
	SourceTypeTrial        SourceType = "CLINICAL_TRIAL_REGISTRY"
)

// CitationType classifies a citation
type CitationType string

const (
	CitationFDALabel       CitationType = "FDA_LABEL"
	CitationJournalArticle CitationType = "JOURNAL_ARTICLE"
	CitationTrialRegistry  CitationType = "TRIAL_REGISTRY"
)

// ConfidenceTier is the ordinal quality label attached to a claim
type ConfidenceTier string

const (
	ConfidenceHighest ConfidenceTier = "highest"
	ConfidenceHigh    ConfidenceTier = "high"
	ConfidenceMedium  ConfidenceTier = "medium"
	ConfidenceLow     ConfidenceTier = "low"
)

// Citation is one reference supporting a claim. Exactly one citation per
// claim carries Primary = true.
type Citation struct {
	Primary      bool         `json:"primary"`
	CitationType CitationType `json:"citation_type"`
	Text         string       `json:"text,omitempty"`

	// Journal article fields
	Authors string `json:"authors,omitempty"`
	Title   string `json:"title,omitempty"`
	Journal string `json:"journal,omitempty"`
	Year    int    `json:"year,omitempty"`
	PMID    string `json:"pmid,omitempty"`
	PMCID   string `json:"pmcid,omitempty"`
	DOI     string `json:"doi,omitempty"`
	PMCURL  string `json:"pmc_url,omitempty"`

	// FDA label fields
	Section string `json:"section,omitempty"`

	// Trial registry fields
	NCT string `json:"nct,omitempty"`

	URL string `json:"url,omitempty"`
}

// HasIdentifier reports whether the citation carries at least one external
// identifier appropriate to its type
func (c Citation) HasIdentifier() bool {
	switch c.CitationType {
	case CitationJournalArticle:
		return c.PMID != "" || c.PMCID != "" || c.DOI != ""
	case CitationTrialRegistry:
		return c.NCT != ""
	case CitationFDALabel:
		return c.Section != "" || c.URL != ""
	}
	return false
}

// Claim is one MLR-ready claim with full substantiation and citations.
// It is created once by the claims generator; the validator only annotates
// confidence and notes, never restructures it.
type Claim struct {
	ID             int               `json:"claim_id"`
	ClaimType      ClaimType         `json:"claim_type"`
	ClaimText      string            `json:"claim_text"`
	Substantiation string            `json:"substantiation"`
	SourceType     SourceType        `json:"source_type"`
	Citations      []Citation        `json:"citations"`
	Confidence     ConfidenceTier    `json:"confidence"`
	ConfidenceText string            `json:"confidence_text,omitempty"`
	FullTextUsed   bool              `json:"full_text_used"`
	ExtractedFrom  string            `json:"extracted_from,omitempty"`
	NumericalData  map[string]string `json:"numerical_data,omitempty"`
	SourceExcerpt  string            `json:"-"` // source text the claim was synthesized from, kept for validation
	RelevanceScore float64           `json:"relevance_score,omitempty"`

	// Validator annotations
	ValidationNotes []string `json:"validation_notes,omitempty"`
}

// PrimaryCitation returns the claim's primary citation, or a zero Citation
// if the claim is malformed
func (c *Claim) PrimaryCitation() Citation {
	for _, cit := range c.Citations {
		if cit.Primary {
			return cit
		}
	}
	return Citation{}
}
