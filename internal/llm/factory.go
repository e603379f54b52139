package llm

import (
	"strings"

	"github.com/rotisserie/eris"
)

// NewCapability creates the configured LLM provider. The pipeline cannot run
// without one: intent parsing, scoring and synthesis all go through it.
func NewCapability(config Config) (Capability, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "":
		return nil, eris.New("no LLM provider configured")

	default:
		return nil, eris.Errorf("unknown LLM provider: %s (supported: openai, anthropic)", config.Provider)
	}
}
