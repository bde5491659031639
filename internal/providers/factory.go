package providers

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"tradedesk/internal/config"
)

// Provider selects a model backend. Provider identity is configuration: the
// rest of the pipeline only ever sees the eino chat-model interface.
type Provider string

const (
	ProviderOpenAI   Provider = "openai"
	ProviderDeepSeek Provider = "deepseek"
)

// Tier distinguishes the heavyweight reasoning model from the cheaper one
// used for routine turns.
type Tier int

const (
	QuickThink Tier = iota
	DeepThink
)

// NewChatModel constructs the configured provider's chat model behind the
// single tool-calling interface. Unknown providers are configuration
// errors.
func NewChatModel(ctx context.Context, cfg *config.Config, tier Tier) (model.ToolCallingChatModel, error) {
	name := cfg.QuickThinkLLM
	if tier == DeepThink {
		name = cfg.DeepThinkLLM
	}

	switch Provider(cfg.LLMProvider) {
	case ProviderOpenAI:
		maxTokens := 8192
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BackendURL,
			APIKey:    cfg.APIKey,
			Model:     name,
			MaxTokens: &maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}
		return cm, nil
	case ProviderDeepSeek:
		cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.APIKey,
			Model:     name,
			MaxTokens: 8192,
		})
		if err != nil {
			return nil, fmt.Errorf("create deepseek chat model: %w", err)
		}
		return cm, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
