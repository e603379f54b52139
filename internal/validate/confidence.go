package validate

import "github.com/pharmaclaims/substantia/internal/model"

// Confidence wording carried into the rendered output
const (
	confidenceFDAText          = "Highest - FDA Approved"
	confidenceValidatedText    = "High - Full text substantiation with validated data"
	confidenceFullTextText     = "High - Full text substantiation"
	confidenceNumericFlagText  = "Medium - Full text available but numerical validation flagged issues"
	confidenceIntegrityText    = "Medium - Substantiation or citation integrity issues"
	confidenceTrialContextText = "Medium - Registry data without peer-reviewed substantiation"
)

// validatedScoreThreshold marks a near-perfect relevance match on the 0-24
// composite scale
const validatedScoreThreshold = 20

type assessment struct {
	numericFlagged   bool
	integrityFlagged bool
}

// assignConfidence sets the claim's tier deterministically from its source
// type and validation outcome. FDA label claims are regulatory ground truth
// and always carry the highest tier regardless of flags.
func assignConfidence(c *model.Claim, a assessment) {
	if c.SourceType == model.SourceTypeFDALabel {
		c.Confidence = model.ConfidenceHighest
		c.ConfidenceText = confidenceFDAText
		return
	}

	if c.SourceType == model.SourceTypeTrial {
		c.Confidence = model.ConfidenceMedium
		c.ConfidenceText = confidenceTrialContextText
		return
	}

	// Full-text claims never drop below medium: any flagged issue is a
	// reviewer warning, not a disqualification
	switch {
	case a.integrityFlagged:
		c.Confidence = model.ConfidenceMedium
		c.ConfidenceText = confidenceIntegrityText
	case a.numericFlagged:
		c.Confidence = model.ConfidenceMedium
		c.ConfidenceText = confidenceNumericFlagText
	case c.RelevanceScore >= validatedScoreThreshold:
		c.Confidence = model.ConfidenceHigh
		c.ConfidenceText = confidenceValidatedText
	default:
		c.Confidence = model.ConfidenceHigh
		c.ConfidenceText = confidenceFullTextText
	}
}
