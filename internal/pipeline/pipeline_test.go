package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pharmaclaims/substantia/internal/model"
	"github.com/pharmaclaims/substantia/internal/rank"
	"github.com/pharmaclaims/substantia/internal/validate"
)

// stubLookup stands in for the OpenFDA client during intent enrichment
type stubLookup struct {
	label *model.LabelDocument
	err   error
	calls int
}

func (s *stubLookup) Lookup(ctx context.Context, brandName, genericName string) (*model.LabelDocument, error) {
	s.calls++
	return s.label, s.err
}

func testPipeline(cap *stubCapability, lookup *stubLookup) *Pipeline {
	label := &fakeSearcher{
		kind: model.SourceLabel,
		candidates: []*model.Candidate{
			model.NewLabelCandidate(&model.LabelDocument{
				BrandName:           "PAXLOVID",
				GenericName:         "NIRMATRELVIR AND RITONAVIR",
				IndicationsAndUsage: []string{"indicated for the treatment of mild-to-moderate COVID-19"},
				ClinicalStudies:     []string{"EPIC-HR demonstrated an 89.1% relative risk reduction."},
				EffectiveTime:       "20230526",
			}),
		},
	}
	literature := &fakeSearcher{
		kind: model.SourceLiterature,
		candidates: []*model.Candidate{
			model.NewArticleCandidate(fullTextArticle("100", "in trial NCT04960202.")),
			model.NewArticleCandidate(fullTextArticle("200", "overall.")),
			model.NewArticleCandidate(&model.Article{
				PMID:    "300",
				Title:   "Paywalled review",
				Journal: "Lancet",
				PubYear: 2023,
			}),
		},
	}
	trials := &fakeSearcher{
		kind: model.SourceTrials,
		candidates: []*model.Candidate{
			model.NewTrialCandidate(&model.Trial{
				NCTID:      "NCT04960202",
				BriefTitle: "EPIC-HR",
				URL:        "https://clinicaltrials.gov/study/NCT04960202",
			}),
		},
	}

	return &Pipeline{
		cfg:          model.DefaultConfig(),
		capability:   cap,
		labelLookup:  lookup,
		orchestrator: NewOrchestrator(label, literature, trials, &fakeResolver{}, time.Second),
		ranker:       rank.New(cap),
		generator:    NewGenerator(cap),
		validator:    validate.New(),
	}
}

func TestPipeline_Run(t *testing.T) {
	cap := &stubCapability{}
	p := testPipeline(cap, &stubLookup{})

	bundle, err := p.Run(context.Background(), "efficacy claims for Paxlovid in COVID-19")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	s := bundle.Summary
	if s.RunID == "" || s.Timestamp.IsZero() {
		t.Error("run identity not recorded")
	}
	if s.UserQuery != "efficacy claims for Paxlovid in COVID-19" {
		t.Errorf("user query = %q", s.UserQuery)
	}

	want := map[string]int{
		"fda_labels":           1,
		"pubmed_total":         3,
		"pubmed_full_text":     2,
		"pubmed_abstract_only": 1,
		"clinical_trials":      1,
	}
	for k, v := range want {
		if s.ResultsFound[k] != v {
			t.Errorf("results_found[%s] = %d, want %d", k, s.ResultsFound[k], v)
		}
	}
	if len(s.Degradations) != 0 {
		t.Errorf("degradations = %+v", s.Degradations)
	}

	// Label claim + two full-text article claims, all validated
	if len(bundle.Claims) != 3 {
		t.Fatalf("claims = %d", len(bundle.Claims))
	}
	if bundle.Claims[0].Confidence != model.ConfidenceHighest {
		t.Errorf("label claim confidence = %s", bundle.Claims[0].Confidence)
	}
	for i, c := range bundle.Claims {
		if c.Confidence == "" || c.ConfidenceText == "" {
			t.Errorf("claim %d not validated: %+v", i, c.Confidence)
		}
	}

	// The paywalled article lands in exclusions and drives the recommendation
	if bundle.ExcludedByReason(model.ExclusionNoFullText) != 1 {
		t.Fatalf("excluded = %+v", bundle.Excluded)
	}
	wantRec := "3 claims generated from full-text sources. 1 additional relevant articles identified but excluded due to lack of full text access."
	if bundle.Recommendation != wantRec {
		t.Errorf("recommendation = %q", bundle.Recommendation)
	}
}

func TestPipeline_ParseFailureIsFatal(t *testing.T) {
	cap := &stubCapability{parseErr: errors.New("no drug identified in query")}
	p := testPipeline(cap, &stubLookup{})

	_, err := p.Run(context.Background(), "tell me about the weather")
	if !errors.Is(err, model.ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestPipeline_ScoringFailureDegrades(t *testing.T) {
	cap := &stubCapability{scoreErr: errors.New("rate limited")}
	p := testPipeline(cap, &stubLookup{})

	bundle, err := p.Run(context.Background(), "efficacy claims for Paxlovid")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(bundle.Claims) != 3 {
		t.Fatalf("claims = %d", len(bundle.Claims))
	}

	found := false
	for _, d := range bundle.Summary.Degradations {
		if d.Source == model.SourceLiterature && strings.Contains(d.Reason, "retrieval order") {
			found = true
		}
	}
	if !found {
		t.Errorf("degradations = %+v", bundle.Summary.Degradations)
	}
}

func TestPipeline_EnrichIntentBackfillsGeneric(t *testing.T) {
	intent := testIntent()
	intent.Drug.GenericName = ""
	intent.Drug.SearchTerms = []string{"nirmatrelvir"}

	cap := &stubCapability{intent: intent}
	lookup := &stubLookup{label: &model.LabelDocument{
		BrandName:   "PAXLOVID",
		GenericName: "NIRMATRELVIR AND RITONAVIR",
	}}
	p := testPipeline(cap, lookup)

	p.enrichIntent(context.Background(), intent)

	if lookup.calls != 1 {
		t.Fatalf("lookup calls = %d", lookup.calls)
	}
	if intent.Drug.GenericName != "NIRMATRELVIR AND RITONAVIR" {
		t.Errorf("generic = %q", intent.Drug.GenericName)
	}
	terms := intent.Drug.SearchTerms
	if len(terms) != 3 || terms[0] != "Paxlovid" || terms[2] != "NIRMATRELVIR AND RITONAVIR" {
		t.Errorf("search terms = %v", terms)
	}
}

func TestPipeline_EnrichIntentLookupFailureIsNonFatal(t *testing.T) {
	intent := testIntent()
	intent.Drug.GenericName = ""

	lookup := &stubLookup{err: errors.New("openfda down")}
	p := testPipeline(&stubCapability{intent: intent}, lookup)

	p.enrichIntent(context.Background(), intent)

	if intent.Drug.GenericName != "" {
		t.Errorf("generic = %q", intent.Drug.GenericName)
	}
	if intent.Drug.SearchTerms[0] != "Paxlovid" {
		t.Errorf("brand not promoted: %v", intent.Drug.SearchTerms)
	}
}

func TestPipeline_EnrichIntentSkipsLookupWhenGenericKnown(t *testing.T) {
	intent := testIntent()
	lookup := &stubLookup{}
	p := testPipeline(&stubCapability{intent: intent}, lookup)

	p.enrichIntent(context.Background(), intent)

	if lookup.calls != 0 {
		t.Errorf("lookup calls = %d", lookup.calls)
	}
}

func TestNew_MissingProviderKey(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = ""

	_, err := New(cfg)
	if !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}
