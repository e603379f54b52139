package source

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/pharmaclaims/substantia/internal/model"
	"github.com/pharmaclaims/substantia/internal/worker"
)

// FullTextResolver runs step 3 of the literature chain: fetching PMC full
// text for every article that has a PMC ID. Resolution is at-most-once per
// article within a run; already-resolved articles are never refetched.
type FullTextResolver struct {
	lit     *LiteratureClient
	workers int
}

// NewFullTextResolver creates a resolver fetching with at most workers
// concurrent PMC requests
func NewFullTextResolver(lit *LiteratureClient, workers int) *FullTextResolver {
	if workers <= 0 {
		workers = 1
	}
	return &FullTextResolver{lit: lit, workers: workers}
}

type resolveJob struct {
	lit     *LiteratureClient
	article *model.Article
}

type resolveResult struct {
	article *model.Article
	err     error
}

func (r resolveResult) GetError() error { return r.err }

func (j resolveJob) Execute(ctx context.Context) worker.Result {
	full, err := j.lit.FetchFullText(ctx, j.article.PMCID)
	if err != nil {
		return resolveResult{article: j.article, err: err}
	}

	j.article.FullText = full.Text
	j.article.Sections = full.Sections
	j.article.FullTextFound = true
	return resolveResult{article: j.article}
}

// Resolve marks every unresolved article as resolved exactly once, recording
// full text where PMC has it and the reason where it does not. Articles
// without a PMC ID never generate a request. Fetch failures degrade the
// article, never the run.
func (r *FullTextResolver) Resolve(ctx context.Context, candidates []*model.Candidate) {
	pool := worker.NewPool(ctx, r.workers)
	pool.Start()

	var submitted []*model.Article
	for _, c := range candidates {
		a := c.Article
		if a == nil || a.Resolved {
			continue
		}
		a.Resolved = true

		if a.PMCID == "" {
			a.ResolutionReason = model.ReasonNotIndexed
			continue
		}

		pool.Submit(resolveJob{lit: r.lit, article: a})
		submitted = append(submitted, a)
	}

	results := pool.Wait()

	for _, res := range results {
		rr, ok := res.(resolveResult)
		if !ok || rr.err == nil {
			continue
		}

		if IsStatus(rr.err, http.StatusForbidden) {
			rr.article.ResolutionReason = model.ReasonAccessRestricted
		} else {
			rr.article.ResolutionReason = model.ReasonFetchFailed
		}
		zap.L().Warn("full-text resolution failed",
			zap.String("pmcid", rr.article.PMCID),
			zap.String("reason", rr.article.ResolutionReason),
			zap.Error(rr.err))
	}

	// Jobs abandoned on cancellation produce no result; without a reason the
	// article would read as paywalled downstream
	for _, a := range submitted {
		if !a.FullTextFound && a.ResolutionReason == "" {
			a.ResolutionReason = model.ReasonFetchFailed
		}
	}

	zap.L().Debug("full-text resolution complete", zap.Int("fetched", len(submitted)))
}
