package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sashabaranov/go-openai"

	"github.com/pharmaclaims/substantia/internal/model"
)

// OpenAIProvider implements the Capability interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI capability provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, eris.New("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// ParseIntent extracts structured intent from a free-text query
func (p *OpenAIProvider) ParseIntent(ctx context.Context, query string) (*model.Intent, error) {
	raw, err := p.complete(ctx, intentSystemPrompt, buildIntentPrompt(query), true)
	if err != nil {
		return nil, err
	}
	return decodeIntent(raw, query)
}

// ScoreRelevance scores a batch of article previews in one call
func (p *OpenAIProvider) ScoreRelevance(ctx context.Context, req ScoreRequest) ([]float64, error) {
	if len(req.Articles) == 0 {
		return nil, nil
	}
	raw, err := p.complete(ctx, scoreSystemPrompt, buildScorePrompt(req), true)
	if err != nil {
		return nil, err
	}
	return decodeScores(raw, len(req.Articles))
}

// SynthesizeClaim drafts one claim from source text
func (p *OpenAIProvider) SynthesizeClaim(ctx context.Context, req SynthesisRequest) (*Draft, error) {
	raw, err := p.complete(ctx, synthesisSystemPrompt, buildSynthesisPrompt(req), true)
	if err != nil {
		return nil, err
	}
	return decodeDraft(raw)
}

// complete sends one chat completion and returns the text content
func (p *OpenAIProvider) complete(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	m := p.config.Model
	if m == "" {
		m = openai.GPT4oMini
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

	chatReq := openai.ChatCompletionRequest{
		Model: m,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0,
	}
	if jsonMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", eris.Wrap(err, "OpenAI API error")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
