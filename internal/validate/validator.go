package validate

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pharmaclaims/substantia/internal/model"
)

// Completeness minimums for an MLR-ready claim
const (
	minClaimTextLen      = 20
	minSubstantiationLen = 100
)

// Numeric token shapes checked for source fidelity: plain numbers and
// percentages, decimals, sample sizes, p-values and confidence intervals.
var numberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d{1,3}(?:,\d{3})*(?:\.\d+)?%?`),
	regexp.MustCompile(`(?i)\b\d+\.\d+%?`),
	regexp.MustCompile(`(?i)\bN\s*=\s*\d+(?:,\d{3})*\b`),
	regexp.MustCompile(`(?i)\bp\s*[<>=]\s*0\.\d+\b`),
	regexp.MustCompile(`(?i)\bCI:?\s*\d+%?-\d+%?`),
}

// Validator is the pure quality gate over generated claims. It never drops
// or rewrites a claim: failures downgrade confidence and leave notes for
// the reviewer.
type Validator struct{}

// New creates a validator
func New() *Validator {
	return &Validator{}
}

// Validate annotates every claim in place with validation notes and a
// deterministic confidence tier. The input order is preserved.
func (v *Validator) Validate(claims []model.Claim) []model.Claim {
	for i := range claims {
		c := &claims[i]

		numericIssues := v.checkNumericalAccuracy(c)
		completenessIssues := v.checkCompleteness(c)
		citationIssues := v.checkCitations(c)

		c.ValidationNotes = append(c.ValidationNotes, numericIssues...)
		c.ValidationNotes = append(c.ValidationNotes, completenessIssues...)
		c.ValidationNotes = append(c.ValidationNotes, citationIssues...)

		assignConfidence(c, assessment{
			numericFlagged:   len(numericIssues) > 0,
			integrityFlagged: len(completenessIssues) > 0 || len(citationIssues) > 0,
		})

		if len(c.ValidationNotes) > 0 {
			zap.L().Warn("claim validation flagged issues",
				zap.Int("claim_id", c.ID),
				zap.Strings("notes", c.ValidationNotes))
		}
	}
	return claims
}

// checkNumericalAccuracy verifies every number in the claim and its
// substantiation appears in the source excerpt the claim was drawn from
func (v *Validator) checkNumericalAccuracy(c *model.Claim) []string {
	if c.SourceExcerpt == "" {
		return nil
	}

	var issues []string
	sourceNumbers := extractNumbers(c.SourceExcerpt)
	claimNumbers := extractNumbers(c.ClaimText + " " + c.Substantiation)

	for _, n := range claimNumbers {
		if !fuzzyNumberMatch(n, sourceNumbers) {
			issues = append(issues, fmt.Sprintf("number %q in claim not found in source text", n))
		}
	}

	for field, value := range c.NumericalData {
		if value == "" {
			continue
		}
		if !fuzzyNumberMatch(value, sourceNumbers) {
			issues = append(issues, fmt.Sprintf("numerical data field %q value %q not found in source", field, value))
		}
	}

	return issues
}

func (v *Validator) checkCompleteness(c *model.Claim) []string {
	var issues []string

	if c.ClaimText == "" {
		issues = append(issues, "missing claim text")
	} else if len(c.ClaimText) < minClaimTextLen {
		issues = append(issues, fmt.Sprintf("claim text too short (minimum %d characters)", minClaimTextLen))
	}

	if c.Substantiation == "" {
		issues = append(issues, "missing substantiation")
	} else if len(c.Substantiation) < minSubstantiationLen {
		issues = append(issues, fmt.Sprintf("substantiation too short (minimum %d characters)", minSubstantiationLen))
	}

	if len(c.Citations) == 0 {
		issues = append(issues, "claim has no citations")
	}

	return issues
}

func (v *Validator) checkCitations(c *model.Claim) []string {
	var issues []string

	for _, cit := range c.Citations {
		if !cit.HasIdentifier() {
			issues = append(issues, fmt.Sprintf("%s citation missing identifier", cit.CitationType))
		}

		if cit.CitationType == model.CitationJournalArticle {
			for field, val := range map[string]string{
				"authors": cit.Authors,
				"title":   cit.Title,
				"journal": cit.Journal,
			} {
				if val == "" {
					issues = append(issues, fmt.Sprintf("journal citation missing %s", field))
				}
			}
			if cit.Year == 0 {
				issues = append(issues, "journal citation missing year")
			}
		}
	}

	return issues
}

func extractNumbers(text string) []string {
	var numbers []string
	for _, p := range numberPatterns {
		for _, m := range p.FindAllString(text, -1) {
			numbers = append(numbers, strings.TrimSpace(m))
		}
	}
	return numbers
}

// fuzzyNumberMatch tolerates formatting drift ("89%" vs "89 %", "2,246" vs
// "2246") but never value drift
func fuzzyNumberMatch(number string, sourceNumbers []string) bool {
	clean := normalizeNumber(number)
	if clean == "" {
		return true
	}

	for _, s := range sourceNumbers {
		sClean := normalizeNumber(s)
		if clean == sClean {
			return true
		}
		if strings.Contains(sClean, clean) || strings.Contains(clean, sClean) {
			return true
		}
	}
	return false
}

func normalizeNumber(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.ToLower(s)
}
