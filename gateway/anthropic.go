package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"zenai/config"
	"zenai/model"
)

const anthropicDefaultBaseURL = "https://api.anthropic.com"

// AnthropicGateway implements model.Gateway against the Anthropic API.
// Chat-only: media generation, OCR and transcription report ErrUnsupported.
type AnthropicGateway struct {
	client   *anthropic.Client
	baseURL  string
	apiKey   string
	identity *model.Identity
}

// NewAnthropicGateway creates an Anthropic gateway. An empty API key is
// allowed; the gateway starts unauthenticated.
func NewAnthropicGateway(baseURL, apiKey string) (*AnthropicGateway, error) {
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}

	g := &AnthropicGateway{baseURL: baseURL}
	g.SetAPIKey(apiKey)
	return g, nil
}

// SetAPIKey swaps the credential and rebuilds the client
func (g *AnthropicGateway) SetAPIKey(apiKey string) {
	g.apiKey = apiKey
	g.identity = nil
	client := anthropic.NewClient(
		option.WithBaseURL(g.baseURL),
		option.WithAPIKey(apiKey),
	)
	g.client = &client
}

func (g *AnthropicGateway) IsAuthenticated() bool {
	return g.apiKey != ""
}

func (g *AnthropicGateway) Identity(ctx context.Context) (*model.Identity, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("no Anthropic API key configured")
	}
	if g.identity != nil {
		return g.identity, nil
	}
	return g.SignIn(ctx)
}

// SignIn validates the key. Anthropic has no identity or health endpoint, so
// a minimal one-token message stands in for one.
func (g *AnthropicGateway) SignIn(ctx context.Context) (*model.Identity, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("no Anthropic API key configured")
	}

	_, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaudeSonnet4_5_20250929,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Anthropic sign-in failed: %w", err)
	}

	g.identity = &model.Identity{Username: "anthropic"}
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Anthropic] key validated")
	}
	return g.identity, nil
}

func (g *AnthropicGateway) SignOut(ctx context.Context) error {
	g.SetAPIKey("")
	return nil
}

// ListModels returns a curated list; Anthropic has no model listing API
func (g *AnthropicGateway) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	models := []anthropic.Model{
		anthropic.ModelClaudeSonnet4_5_20250929,
		anthropic.ModelClaude3_5Haiku20241022,
		anthropic.ModelClaude_3_Opus_20240229,
		anthropic.ModelClaude_3_Haiku_20240307,
	}

	result := make([]model.ModelInfo, 0, len(models))
	for _, m := range models {
		result = append(result, model.ModelInfo{ID: string(m), Provider: "anthropic"})
	}
	return result, nil
}

// StreamChat streams a message, invoking onText with the full accumulated
// text after each delta.
func (g *AnthropicGateway) StreamChat(ctx context.Context, history []model.Message, modelID, systemPrompt string, onText model.StreamCallback) (string, error) {
	messages, systemBlocks := buildAnthropicMessages(history, systemPrompt)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		Messages:  messages,
		MaxTokens: 4096,
	}
	if len(systemBlocks) > 0 {
		params.System = systemBlocks
	}

	stream := g.client.Messages.NewStreaming(ctx, params)

	msg := anthropic.Message{}
	var full strings.Builder

	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return "", fmt.Errorf("error accumulating message: %w", err)
		}

		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				full.WriteString(deltaVariant.Text)
				if onText != nil {
					onText(full.String())
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("Anthropic streaming error: %w", err)
	}

	// Prefer the accumulated message's text blocks over our delta collection
	var final strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			final.WriteString(text.Text)
		}
	}
	if final.Len() > 0 {
		return final.String(), nil
	}
	return full.String(), nil
}

func (g *AnthropicGateway) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("%w: image generation", model.ErrUnsupported)
}

func (g *AnthropicGateway) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("%w: video generation", model.ErrUnsupported)
}

func (g *AnthropicGateway) GenerateSpeech(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("%w: speech generation", model.ErrUnsupported)
}

func (g *AnthropicGateway) PerformOCR(ctx context.Context, file model.AttachedFile) (string, error) {
	return "", fmt.Errorf("%w: OCR", model.ErrUnsupported)
}

func (g *AnthropicGateway) TranscribeAudio(ctx context.Context, file model.AttachedFile) (string, error) {
	return "", fmt.Errorf("%w: transcription", model.ErrUnsupported)
}

// buildAnthropicMessages converts a Zen conversation to Anthropic format.
// System content moves to the separate system parameter; error messages
// never reach the provider.
func buildAnthropicMessages(messages []model.Message, systemPrompt string) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var systemBlocks []anthropic.TextBlockParam
	if systemPrompt != "" {
		systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: systemPrompt})
	}

	result := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		if msg.Type == model.TypeError {
			continue
		}

		switch msg.Role {
		case model.RoleSystem:
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return result, systemBlocks
}
