package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pharmaclaims/substantia/internal/model"
)

// Capability is the pluggable interface for the three intelligence steps the
// pipeline delegates to an external LLM: intent parsing, relevance scoring
// and claim synthesis. The pipeline itself stays deterministic and is tested
// against stub implementations.
type Capability interface {
	// Name returns the provider name
	Name() string

	// ParseIntent extracts a structured intent from a free-text query.
	// It fails when no drug can be identified.
	ParseIntent(ctx context.Context, query string) (*model.Intent, error)

	// ScoreRelevance scores a batch of article previews against the intent
	// in one call, returning one score per preview in input order.
	ScoreRelevance(ctx context.Context, req ScoreRequest) ([]float64, error)

	// SynthesizeClaim drafts one claim from authoritative source text
	SynthesizeClaim(ctx context.Context, req SynthesisRequest) (*Draft, error)
}

// ArticlePreview is the bounded excerpt of a candidate sent for scoring
type ArticlePreview struct {
	ID       string // source-native identifier, echoed in logs only
	Title    string
	Abstract string
	Results  string // results-section excerpt if available
}

// ScoreRequest is a single batched relevance-scoring call
type ScoreRequest struct {
	Intent   *model.Intent
	Articles []ArticlePreview
	MaxScore int // upper bound of the scale, 10 by default
}

// SynthesisRequest asks for one claim drafted from authoritative text —
// a label section body or an article's full text, never an abstract.
type SynthesisRequest struct {
	Intent     *model.Intent
	ClaimType  model.ClaimType
	SourceName string            // e.g. "FDA label" or "PMC8908851"
	SourceText string
	Metadata   map[string]string // citation metadata shown to the model
}

// Draft is the synthesizer's structured output for one claim
type Draft struct {
	ClaimText      string            `json:"claim_text"`
	Substantiation string            `json:"substantiation"`
	ExtractedFrom  string            `json:"extracted_from,omitempty"`
	NumericalData  map[string]string `json:"-"`
}

// Config holds LLM provider configuration
type Config struct {
	Provider  string // "openai" or "anthropic"
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   int // seconds
	MaxTokens int
}

// ConfigFromModel converts the process config section into a provider config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   mc.Timeout,
		MaxTokens: mc.MaxTokens,
	}
}

// intentPayload mirrors the JSON schema the intent prompt requests
type intentPayload struct {
	Drug struct {
		BrandName   string   `json:"brand_name"`
		GenericName string   `json:"generic_name"`
		SearchTerms []string `json:"search_terms"`
	} `json:"drug"`
	ClaimType  string `json:"claim_type"`
	Indication string `json:"indication"`
	Population string `json:"population"`
	Output     struct {
		ClaimCount            int    `json:"claim_count"`
		IncludeSubstantiation bool   `json:"include_substantiation"`
		FormatType            string `json:"format_type"`
	} `json:"output_requirements"`
}

// decodeIntent parses the model's intent JSON and validates that a drug was
// actually identified
func decodeIntent(raw, query string) (*model.Intent, error) {
	var payload intentPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return nil, eris.Wrap(err, "decode intent JSON")
	}

	if payload.Drug.BrandName == "" && payload.Drug.GenericName == "" {
		return nil, eris.New("no drug identified in query")
	}

	intent := &model.Intent{
		OriginalQuery: query,
		Drug: model.DrugIdentification{
			BrandName:   payload.Drug.BrandName,
			GenericName: payload.Drug.GenericName,
			SearchTerms: payload.Drug.SearchTerms,
		},
		ClaimType:  model.NormalizeClaimType(payload.ClaimType),
		Indication: payload.Indication,
		Population: payload.Population,
		Output: model.OutputRequirements{
			ClaimCount:            payload.Output.ClaimCount,
			IncludeSubstantiation: payload.Output.IncludeSubstantiation,
			FormatType:            payload.Output.FormatType,
		},
	}
	if intent.Output.FormatType == "" {
		intent.Output.FormatType = "MLR-ready"
	}
	return intent, nil
}

// decodeScores accepts either {"scores": [..]} or a bare JSON array, and
// requires exactly one score per scored article
func decodeScores(raw string, want int) ([]float64, error) {
	raw = stripFences(raw)

	var wrapper struct {
		Scores []float64 `json:"scores"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapper); err == nil && wrapper.Scores != nil {
		return checkScoreCount(wrapper.Scores, want)
	}

	var bare []float64
	if err := json.Unmarshal([]byte(raw), &bare); err != nil {
		return nil, eris.Wrap(err, "decode relevance scores")
	}
	return checkScoreCount(bare, want)
}

func checkScoreCount(scores []float64, want int) ([]float64, error) {
	if len(scores) != want {
		return nil, eris.Errorf("expected %d scores, got %d", want, len(scores))
	}
	return scores, nil
}

// decodeDraft parses the synthesizer's claim JSON
func decodeDraft(raw string) (*Draft, error) {
	var payload struct {
		ClaimText      string         `json:"claim_text"`
		Substantiation string         `json:"substantiation"`
		ExtractedFrom  string         `json:"extracted_from"`
		NumericalData  map[string]any `json:"numerical_data"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return nil, eris.Wrap(err, "decode claim draft JSON")
	}
	if payload.ClaimText == "" {
		return nil, eris.New("draft has no claim text")
	}

	draft := &Draft{
		ClaimText:      payload.ClaimText,
		Substantiation: payload.Substantiation,
		ExtractedFrom:  payload.ExtractedFrom,
	}
	if len(payload.NumericalData) > 0 {
		draft.NumericalData = make(map[string]string, len(payload.NumericalData))
		for k, v := range payload.NumericalData {
			if v == nil {
				continue
			}
			draft.NumericalData[k] = fmt.Sprint(v)
		}
	}
	return draft, nil
}

// stripFences removes a markdown code fence around a JSON payload if present
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
