package gateway

import (
	"fmt"

	"zenai/model"
)

// NewGateway creates a gateway backend from configuration. It dispatches on
// Config.Type; constructor errors (missing key, bad URL) pass through.
func NewGateway(cfg Config) (model.Gateway, error) {
	switch cfg.Type {
	case GatewayTypeOpenAI:
		return NewOpenAIGateway(cfg.BaseURL, cfg.APIKey)
	case GatewayTypeAnthropic:
		return NewAnthropicGateway(cfg.BaseURL, cfg.APIKey)
	case GatewayTypeOpenRouter:
		return NewOpenRouterGateway(cfg.BaseURL, cfg.APIKey)
	case GatewayTypeOllama:
		return NewOllamaGateway(cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown gateway type: %s", cfg.Type)
	}
}

// MapProviderID converts a config provider ID to a GatewayType. Unknown IDs
// pass through as-is so the factory reports them.
func MapProviderID(id string) GatewayType {
	switch id {
	case "openai":
		return GatewayTypeOpenAI
	case "anthropic":
		return GatewayTypeAnthropic
	case "openrouter":
		return GatewayTypeOpenRouter
	case "ollama":
		return GatewayTypeOllama
	default:
		return GatewayType(id)
	}
}
