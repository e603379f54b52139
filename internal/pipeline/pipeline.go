package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pharmaclaims/substantia/internal/cache"
	"github.com/pharmaclaims/substantia/internal/llm"
	"github.com/pharmaclaims/substantia/internal/model"
	"github.com/pharmaclaims/substantia/internal/rank"
	"github.com/pharmaclaims/substantia/internal/source"
	"github.com/pharmaclaims/substantia/internal/validate"
)

// labelLookup is the slice of the OpenFDA client intent enrichment needs
type labelLookup interface {
	Lookup(ctx context.Context, brandName, genericName string) (*model.LabelDocument, error)
}

// Pipeline runs one query end to end: intent, concurrent retrieval, ranking,
// claim synthesis, validation, bundle assembly.
type Pipeline struct {
	cfg          *model.Config
	capability   llm.Capability
	labelLookup  labelLookup
	orchestrator *Orchestrator
	ranker       *rank.Ranker
	generator    *Generator
	validator    *validate.Validator
}

// New wires a pipeline from config. A missing or unusable LLM provider is a
// configuration error: nothing downstream can run without one.
func New(cfg *model.Config) (*Pipeline, error) {
	capability, err := llm.NewCapability(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}

	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewMemoryCache(cfg.Cache.TTL, 2*cfg.Cache.TTL)
	}
	clients := source.NewClients(cfg, c)

	return &Pipeline{
		cfg:         cfg,
		capability:  capability,
		labelLookup: clients.Label,
		orchestrator: NewOrchestrator(
			clients.Label,
			clients.Literature,
			clients.Trials,
			clients.Resolver,
			cfg.Search.PerSourceTimeout,
		),
		ranker:    rank.New(capability),
		generator: NewGenerator(capability),
		validator: validate.New(),
	}, nil
}

// Run executes the full pipeline for one free-text query. The only fatal
// failures are an unparseable query and a broken configuration; every source
// or synthesis failure degrades into the bundle instead.
func (p *Pipeline) Run(ctx context.Context, query string) (*model.ResultBundle, error) {
	intent, err := p.capability.ParseIntent(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrParse, err)
	}
	p.enrichIntent(ctx, intent)

	zap.L().Info("intent parsed",
		zap.String("drug", intent.Drug.PrimaryName()),
		zap.String("claim_type", string(intent.ClaimType)),
		zap.String("indication", intent.Indication))

	q := model.NewSourceQuery(intent, p.cfg)
	agg := p.orchestrator.SearchAll(ctx, q)

	maxClaims := intent.MaxClaims(p.cfg.Search.MaxClaims)
	ranking := p.ranker.Rank(ctx, intent, agg, maxClaims)

	claims, failed := p.generator.Generate(ctx, intent, ranking, maxClaims)
	claims = p.validator.Validate(claims)

	return assembleBundle(query, agg, ranking, claims, failed), nil
}

// enrichIntent backfills the generic name from the FDA label when the query
// only named the brand, and makes sure both names are search terms. The
// request cache makes the label lookup free for the orchestrator's pass.
// Enrichment failure is never fatal.
func (p *Pipeline) enrichIntent(ctx context.Context, intent *model.Intent) {
	drug := &intent.Drug

	if drug.BrandName != "" && drug.GenericName == "" {
		label, err := p.labelLookup.Lookup(ctx, drug.BrandName, "")
		if err != nil {
			zap.L().Warn("drug enrichment lookup failed", zap.Error(err))
		} else if label != nil && label.GenericName != "" {
			drug.GenericName = label.GenericName
			zap.L().Debug("generic name backfilled", zap.String("generic", label.GenericName))
		}
	}

	if drug.BrandName != "" && !containsTerm(drug.SearchTerms, drug.BrandName) {
		drug.SearchTerms = append([]string{drug.BrandName}, drug.SearchTerms...)
	}
	if drug.GenericName != "" && !containsTerm(drug.SearchTerms, drug.GenericName) {
		drug.SearchTerms = append(drug.SearchTerms, drug.GenericName)
	}
}

func containsTerm(terms []string, term string) bool {
	for _, t := range terms {
		if t == term {
			return true
		}
	}
	return false
}

func assembleBundle(query string, agg *model.Aggregation, ranking *rank.Ranking, claims []model.Claim, failed []model.Exclusion) *model.ResultBundle {
	total, fullText, abstractOnly := agg.LiteratureCounts()

	labels := 0
	if agg.Label != nil {
		labels = 1
	}

	summary := model.SearchSummary{
		RunID:           uuid.NewString(),
		UserQuery:       query,
		SourcesSearched: model.DefaultSources(),
		ResultsFound: map[string]int{
			"fda_labels":           labels,
			"pubmed_total":         total,
			"pubmed_full_text":     fullText,
			"pubmed_abstract_only": abstractOnly,
			"clinical_trials":      len(agg.Trials),
		},
		FullTextStrategy: model.FullTextStrategyNote,
		SearchTimeSec:    agg.ElapsedSec,
		Timestamp:        time.Now().UTC(),
	}
	summary.Degradations = append(summary.Degradations, agg.Degradations...)
	summary.Degradations = append(summary.Degradations, ranking.Degradations...)

	excluded := append([]model.Exclusion(nil), ranking.Excluded...)
	excluded = append(excluded, failed...)

	noFullText := 0
	for _, e := range excluded {
		if e.Reason == model.ExclusionNoFullText {
			noFullText++
		}
	}

	return &model.ResultBundle{
		Summary:  summary,
		Claims:   claims,
		Excluded: excluded,
		Recommendation: fmt.Sprintf(
			"%d claims generated from full-text sources. %d additional relevant articles identified but excluded due to lack of full text access.",
			len(claims), noFullText),
	}
}
