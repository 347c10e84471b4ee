// Package gateway implements the provider backends behind the model.Gateway
// interface.
//
// Zen talks to multiple AI providers (OpenAI, Anthropic, OpenRouter, local
// Ollama) through a single gateway abstraction so the orchestration and UI
// layers stay provider-agnostic. Capability varies per backend: OpenAI covers
// every generation mode, the others are chat-only and report
// model.ErrUnsupported for the rest.
//
// The Gateway interface itself lives in the model package to avoid import
// cycles; this package implements it.
package gateway

// GatewayType identifies the backend implementation.
type GatewayType string

const (
	GatewayTypeOpenAI     GatewayType = "openai"
	GatewayTypeAnthropic  GatewayType = "anthropic"
	GatewayTypeOpenRouter GatewayType = "openrouter"
	GatewayTypeOllama     GatewayType = "ollama"
)

// Config holds backend-specific configuration.
type Config struct {
	Type    GatewayType
	BaseURL string
	APIKey  string // unused for Ollama
}
