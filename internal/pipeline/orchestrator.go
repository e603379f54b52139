package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pharmaclaims/substantia/internal/model"
)

// Searcher is the slice of a source client the orchestrator needs
type Searcher interface {
	Kind() model.SourceKind
	Search(ctx context.Context, q model.SourceQuery) ([]*model.Candidate, error)
}

// Resolver fetches full text for literature candidates in place
type Resolver interface {
	Resolve(ctx context.Context, candidates []*model.Candidate)
}

// Orchestrator fans one query out to all three sources concurrently. A
// source that fails or times out becomes a degradation in the aggregation;
// only the caller decides whether an empty aggregation is fatal.
type Orchestrator struct {
	label      Searcher
	literature Searcher
	trials     Searcher
	resolver   Resolver
	perSource  time.Duration
}

// NewOrchestrator creates an orchestrator with a per-source timeout
func NewOrchestrator(label, literature, trials Searcher, resolver Resolver, perSource time.Duration) *Orchestrator {
	if perSource <= 0 {
		perSource = 45 * time.Second
	}
	return &Orchestrator{
		label:      label,
		literature: literature,
		trials:     trials,
		resolver:   resolver,
		perSource:  perSource,
	}
}

// SearchAll queries label, literature and trial sources in parallel and
// resolves literature full text before returning. Every source failure is
// recorded, never propagated.
func (o *Orchestrator) SearchAll(ctx context.Context, q model.SourceQuery) *model.Aggregation {
	start := time.Now()
	agg := &model.Aggregation{}
	var mu sync.Mutex

	degrade := func(kind model.SourceKind, err error) {
		zap.L().Warn("source degraded", zap.String("source", string(kind)), zap.Error(err))
		mu.Lock()
		agg.Degradations = append(agg.Degradations, model.Degradation{
			Source: kind,
			Reason: err.Error(),
		})
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, o.perSource)
		defer cancel()

		candidates, err := o.label.Search(sctx, q)
		if err != nil {
			degrade(o.label.Kind(), err)
			return nil
		}
		if len(candidates) > 0 {
			mu.Lock()
			agg.Label = candidates[0]
			mu.Unlock()
		}
		return nil
	})

	g.Go(func() error {
		// Search and full-text resolution share the literature budget
		sctx, cancel := context.WithTimeout(gctx, o.perSource)
		defer cancel()

		candidates, err := o.literature.Search(sctx, q)
		if err != nil {
			degrade(o.literature.Kind(), err)
			return nil
		}
		o.resolver.Resolve(sctx, candidates)

		mu.Lock()
		agg.Literature = candidates
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, o.perSource)
		defer cancel()

		candidates, err := o.trials.Search(sctx, q)
		if err != nil {
			degrade(o.trials.Kind(), err)
			return nil
		}
		mu.Lock()
		agg.Trials = candidates
		mu.Unlock()
		return nil
	})

	_ = g.Wait()

	agg.ElapsedSec = time.Since(start).Seconds()

	total, fullText, abstractOnly := agg.LiteratureCounts()
	zap.L().Info("source fan-out complete",
		zap.Bool("label", agg.Label != nil),
		zap.Int("literature", total),
		zap.Int("full_text", fullText),
		zap.Int("abstract_only", abstractOnly),
		zap.Int("trials", len(agg.Trials)),
		zap.Float64("elapsed_sec", agg.ElapsedSec))

	return agg
}
