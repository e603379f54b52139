package llm

import (
	"context"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/pharmaclaims/substantia/internal/model"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicProvider implements the Capability interface on the official
// Anthropic SDK
type AnthropicProvider struct {
	client sdk.Client
	config Config
}

// NewAnthropicProvider creates a new Anthropic capability provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, eris.New("Anthropic API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicProvider{
		client: sdk.NewClient(opts...),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// ParseIntent extracts structured intent from a free-text query
func (p *AnthropicProvider) ParseIntent(ctx context.Context, query string) (*model.Intent, error) {
	raw, err := p.complete(ctx, intentSystemPrompt, buildIntentPrompt(query))
	if err != nil {
		return nil, err
	}
	return decodeIntent(raw, query)
}

// ScoreRelevance scores a batch of article previews in one call
func (p *AnthropicProvider) ScoreRelevance(ctx context.Context, req ScoreRequest) ([]float64, error) {
	if len(req.Articles) == 0 {
		return nil, nil
	}
	raw, err := p.complete(ctx, scoreSystemPrompt, buildScorePrompt(req))
	if err != nil {
		return nil, err
	}
	return decodeScores(raw, len(req.Articles))
}

// SynthesizeClaim drafts one claim from source text
func (p *AnthropicProvider) SynthesizeClaim(ctx context.Context, req SynthesisRequest) (*Draft, error) {
	raw, err := p.complete(ctx, synthesisSystemPrompt, buildSynthesisPrompt(req))
	if err != nil {
		return nil, err
	}
	return decodeDraft(raw)
}

func (p *AnthropicProvider) complete(ctx context.Context, system, prompt string) (string, error) {
	m := p.config.Model
	if m == "" {
		m = defaultAnthropicModel
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(m),
		MaxTokens:   int64(maxTokens),
		System:      []sdk.TextBlockParam{{Text: system}},
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
		Temperature: sdk.Float(0),
	})
	if err != nil {
		return "", eris.Wrap(err, "Anthropic API error")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", eris.New("no text content from Anthropic")
	}
	return text, nil
}
