package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pharmaclaims/substantia/internal/llm"
	"github.com/pharmaclaims/substantia/internal/model"
	"github.com/pharmaclaims/substantia/internal/rank"
)

const fdaLabelDirectoryURL = "https://www.accessdata.fda.gov/scripts/cder/daf/"

// Source text handed to the synthesizer is bounded; the results section
// usually carries the numbers, so it leads.
const maxSourceTextLen = 12000

// excerptLen bounds the excerpt kept on each claim for numeric validation
const excerptLen = 2000

// Generator turns the ranked worklist into MLR-ready claims: the label claim
// first, then one claim per ranked article until the budget is filled. A
// synthesis failure is retried once; a second failure excludes the candidate
// instead of aborting the run.
type Generator struct {
	capability llm.Capability
}

// NewGenerator creates a claims generator
func NewGenerator(capability llm.Capability) *Generator {
	return &Generator{capability: capability}
}

// Generate produces at most maxClaims claims in authority order. The
// returned exclusions record candidates that failed synthesis.
func (g *Generator) Generate(ctx context.Context, intent *model.Intent, ranking *rank.Ranking, maxClaims int) ([]model.Claim, []model.Exclusion) {
	var claims []model.Claim
	var excluded []model.Exclusion
	nextID := 1

	if ranking.Label != nil && ranking.Label.Label != nil {
		claim, err := g.labelClaim(ctx, nextID, intent, ranking.Label.Label)
		if err != nil {
			zap.L().Warn("label claim generation failed", zap.Error(err))
			excluded = append(excluded, model.Exclusion{
				Source: model.SourceLabel,
				ID:     ranking.Label.ID,
				Title:  ranking.Label.Label.BrandName + " prescribing information",
				Reason: model.ExclusionGenerationFailed,
			})
		} else {
			claims = append(claims, *claim)
			nextID++
		}
	}

	for _, scored := range ranking.Articles {
		if len(claims) >= maxClaims {
			break
		}

		a := scored.Candidate.Article
		claim, err := g.articleClaim(ctx, nextID, intent, a, scored.Score, ranking.Trials)
		if err != nil {
			zap.L().Warn("article claim generation failed",
				zap.String("pmid", a.PMID),
				zap.Error(err))
			excluded = append(excluded, model.Exclusion{
				Source:  model.SourceLiterature,
				ID:      a.PMID,
				Title:   a.Title,
				Journal: a.Journal,
				Year:    a.PubYear,
				Authors: a.AuthorLine(),
				DOI:     a.DOI,
				Reason:  model.ExclusionGenerationFailed,
			})
			continue
		}

		claims = append(claims, *claim)
		nextID++
	}

	zap.L().Info("claims generated",
		zap.Int("claims", len(claims)),
		zap.Int("failed", len(excluded)))

	return claims, excluded
}

func (g *Generator) labelClaim(ctx context.Context, id int, intent *model.Intent, label *model.LabelDocument) (*model.Claim, error) {
	body := label.Body(intent.ClaimType)
	if body == "" {
		return nil, fmt.Errorf("label has no %s content", intent.ClaimType)
	}

	draft, err := g.synthesize(ctx, llm.SynthesisRequest{
		Intent:     intent,
		ClaimType:  intent.ClaimType,
		SourceName: "FDA label",
		SourceText: truncateText(body, maxSourceTextLen),
		Metadata: map[string]string{
			"brand_name":   label.BrandName,
			"generic_name": label.GenericName,
		},
	})
	if err != nil {
		return nil, err
	}

	brand := label.BrandName
	if brand == "" {
		brand = "Drug"
	}
	effective := label.EffectiveTime
	if effective == "" {
		effective = "current"
	}

	citation := model.Citation{
		Primary:      true,
		CitationType: model.CitationFDALabel,
		Text:         fmt.Sprintf("%s Prescribing Information. FDA-approved label. %s.", brand, effective),
		Section:      titleCase(string(intent.ClaimType)),
		URL:          fdaLabelDirectoryURL,
	}

	return &model.Claim{
		ID:             id,
		ClaimType:      intent.ClaimType,
		ClaimText:      draft.ClaimText,
		Substantiation: draft.Substantiation,
		SourceType:     model.SourceTypeFDALabel,
		Citations:      []model.Citation{citation},
		FullTextUsed:   true,
		ExtractedFrom:  "FDA Label",
		NumericalData:  draft.NumericalData,
		// The excerpt must cover everything synthesis saw, or the numeric
		// check flags figures drawn from later label text
		SourceExcerpt:  truncateText(body, maxSourceTextLen),
	}, nil
}

func (g *Generator) articleClaim(ctx context.Context, id int, intent *model.Intent, a *model.Article, score float64, trials []*model.Candidate) (*model.Claim, error) {
	draft, err := g.synthesize(ctx, llm.SynthesisRequest{
		Intent:     intent,
		ClaimType:  intent.ClaimType,
		SourceName: a.PMCID,
		SourceText: truncateText(a.FullText, maxSourceTextLen),
		Metadata: map[string]string{
			"title":   a.Title,
			"journal": a.Journal,
			"authors": a.AuthorLine(),
			"pmcid":   a.PMCID,
			"doi":     a.DOI,
		},
	})
	if err != nil {
		return nil, err
	}

	citations := []model.Citation{{
		Primary:      true,
		CitationType: model.CitationJournalArticle,
		Authors:      a.AuthorLine(),
		Title:        a.Title,
		Journal:      a.Journal,
		Year:         a.PubYear,
		PMID:         a.PMID,
		PMCID:        a.PMCID,
		DOI:          a.DOI,
		PMCURL:       fmt.Sprintf("https://www.ncbi.nlm.nih.gov/pmc/articles/%s/", a.PMCID),
	}}
	if trialCit := crossReferenceTrial(a, trials); trialCit != nil {
		citations = append(citations, *trialCit)
	}

	extractedFrom := draft.ExtractedFrom
	if extractedFrom == "" {
		extractedFrom = "Results section"
	}

	// The results section is the numeric ground truth when present
	excerpt := a.Sections["Results"]
	if excerpt == "" {
		excerpt = truncateText(a.FullText, excerptLen)
	}

	return &model.Claim{
		ID:             id,
		ClaimType:      intent.ClaimType,
		ClaimText:      draft.ClaimText,
		Substantiation: draft.Substantiation,
		SourceType:     model.SourceTypeFullText,
		Citations:      citations,
		FullTextUsed:   true,
		ExtractedFrom:  extractedFrom,
		NumericalData:  draft.NumericalData,
		SourceExcerpt:  excerpt,
		RelevanceScore: score,
	}, nil
}

// synthesize calls the capability with one retry. Synthesis is the longest
// LLM call in the run and occasionally fails transiently.
func (g *Generator) synthesize(ctx context.Context, req llm.SynthesisRequest) (*llm.Draft, error) {
	draft, err := g.capability.SynthesizeClaim(ctx, req)
	if err == nil {
		return draft, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	zap.L().Debug("claim synthesis retrying",
		zap.String("source", req.SourceName),
		zap.Error(err))
	return g.capability.SynthesizeClaim(ctx, req)
}

// crossReferenceTrial attaches a registry citation when the article's full
// text mentions one of the retrieved NCT IDs
func crossReferenceTrial(a *model.Article, trials []*model.Candidate) *model.Citation {
	if a.FullText == "" {
		return nil
	}
	text := strings.ToLower(a.FullText)

	for _, c := range trials {
		t := c.Trial
		if t == nil || t.NCTID == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(t.NCTID)) {
			return &model.Citation{
				Primary:      false,
				CitationType: model.CitationTrialRegistry,
				Text:         t.Title(),
				NCT:          t.NCTID,
				URL:          t.URL,
			}
		}
	}
	return nil
}

func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
