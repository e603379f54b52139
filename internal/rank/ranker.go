package rank

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/pharmaclaims/substantia/internal/llm"
	"github.com/pharmaclaims/substantia/internal/model"
)

// Scoring scale: fixed authority and recency components bracket the LLM's
// 0-10 relevance judgment, so totals land on a 0-24 scale and a score of 20+
// marks a near-perfect match backed by peer review.
const (
	authorityScore = 8.5 // peer-reviewed full text
	recencyScore   = 3.0
	maxRelevance   = 10
	fallbackScore  = authorityScore + 5.0 + recencyScore // scorer unavailable
)

// ScoredArticle pairs a literature candidate with its composite score
type ScoredArticle struct {
	Candidate *model.Candidate
	Score     float64
}

// Ranking is the ranker's output: the claim-generation worklist plus the
// exclusions it produced. The label is carried through untouched; it is
// regulatory ground truth and is never scored or filtered.
type Ranking struct {
	Label        *model.Candidate
	Articles     []ScoredArticle // full text only, best first, capped at the claim budget
	Trials       []*model.Candidate
	Excluded     []model.Exclusion
	Degradations []model.Degradation
}

// Ranker orders full-text literature by composite relevance and enforces the
// full-text-only rule for claim evidence
type Ranker struct {
	capability llm.Capability
}

// New creates a ranker scoring through the given capability provider
func New(capability llm.Capability) *Ranker {
	return &Ranker{capability: capability}
}

// Rank filters and orders the aggregation for claim generation. Literature
// without full text is excluded with the paywall note. The remaining
// articles are scored in one batch call; if scoring fails the retrieval
// order stands and the degradation is recorded. The top max-claims − 1
// articles survive: one claim slot is always reserved for the label.
func (r *Ranker) Rank(ctx context.Context, intent *model.Intent, agg *model.Aggregation, maxClaims int) *Ranking {
	out := &Ranking{
		Label:  agg.Label,
		Trials: agg.Trials,
	}

	var fullText []*model.Candidate
	for _, c := range agg.Literature {
		a := c.Article
		if a == nil {
			continue
		}
		if a.FullTextFound {
			fullText = append(fullText, c)
			continue
		}
		out.Excluded = append(out.Excluded, model.Exclusion{
			Source:  model.SourceLiterature,
			ID:      a.PMID,
			Title:   a.Title,
			Journal: a.Journal,
			Year:    a.PubYear,
			Authors: a.AuthorLine(),
			DOI:     a.DOI,
			Reason:  model.ExclusionNoFullText,
			Note:    model.PaywalledNote,
		})
	}

	zap.L().Info("ranking literature",
		zap.Int("full_text", len(fullText)),
		zap.Int("excluded", len(out.Excluded)))

	if len(fullText) == 0 {
		return out
	}

	scored := r.score(ctx, intent, fullText)
	if scored == nil {
		// Retrieval order is already newest-first; keep it and say so
		out.Degradations = append(out.Degradations, model.Degradation{
			Source: model.SourceLiterature,
			Reason: "relevance scoring unavailable, articles kept in retrieval order",
		})
		scored = make([]ScoredArticle, len(fullText))
		for i, c := range fullText {
			scored[i] = ScoredArticle{Candidate: c, Score: fallbackScore}
		}
	}

	// Stable: equal scores keep retrieval order
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	// One slot is the label's, whether or not a label was found
	budget := maxClaims - 1
	if budget < 0 {
		budget = 0
	}
	if len(scored) > budget {
		scored = scored[:budget]
	}

	out.Articles = scored
	return out
}

// score runs the single batch relevance call. A nil return means the scorer
// failed and the caller should fall back to retrieval order.
func (r *Ranker) score(ctx context.Context, intent *model.Intent, candidates []*model.Candidate) []ScoredArticle {
	previews := make([]llm.ArticlePreview, len(candidates))
	for i, c := range candidates {
		previews[i] = llm.ArticlePreview{
			ID:       c.Article.PMID,
			Title:    c.Article.Title,
			Abstract: c.Article.Abstract,
			Results:  c.Article.Sections["Results"],
		}
	}

	scores, err := r.capability.ScoreRelevance(ctx, llm.ScoreRequest{
		Intent:   intent,
		Articles: previews,
		MaxScore: maxRelevance,
	})
	if err != nil || len(scores) != len(candidates) {
		zap.L().Warn("batch relevance scoring failed",
			zap.Int("articles", len(candidates)),
			zap.Error(err))
		return nil
	}

	scored := make([]ScoredArticle, len(candidates))
	for i, c := range candidates {
		rel := scores[i]
		if rel < 0 {
			rel = 0
		}
		if rel > maxRelevance {
			rel = maxRelevance
		}
		scored[i] = ScoredArticle{
			Candidate: c,
			Score:     authorityScore + rel + recencyScore,
		}
	}
	return scored
}
