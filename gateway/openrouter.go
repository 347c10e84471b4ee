package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"zenai/config"
	"zenai/model"
)

const openrouterDefaultBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterGateway implements model.Gateway against OpenRouter's API, which
// is OpenAI-compatible, so it reuses the OpenAI SDK with a different base
// URL. Chat-only: media generation, OCR and transcription report
// ErrUnsupported.
type OpenRouterGateway struct {
	client   openai.Client
	baseURL  string
	apiKey   string
	identity *model.Identity
}

// NewOpenRouterGateway creates an OpenRouter gateway. An empty API key is
// allowed: the gateway starts unauthenticated and SetAPIKey/SignIn establish
// the identity later.
func NewOpenRouterGateway(baseURL, apiKey string) (*OpenRouterGateway, error) {
	if baseURL == "" {
		baseURL = openrouterDefaultBaseURL
	}

	g := &OpenRouterGateway{baseURL: baseURL}
	g.SetAPIKey(apiKey)
	return g, nil
}

// SetAPIKey swaps the credential and rebuilds the client
func (g *OpenRouterGateway) SetAPIKey(apiKey string) {
	g.apiKey = apiKey
	g.identity = nil
	g.client = openai.NewClient(
		option.WithBaseURL(g.baseURL),
		option.WithAPIKey(apiKey),
	)
}

func (g *OpenRouterGateway) IsAuthenticated() bool {
	return g.apiKey != ""
}

// Identity returns the account identity, verifying the key remotely
func (g *OpenRouterGateway) Identity(ctx context.Context) (*model.Identity, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("no OpenRouter API key configured")
	}
	if g.identity != nil {
		return g.identity, nil
	}
	return g.SignIn(ctx)
}

// SignIn validates the configured key with a model listing, the same
// stand-in used for OpenAI.
func (g *OpenRouterGateway) SignIn(ctx context.Context) (*model.Identity, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("no OpenRouter API key configured")
	}

	if _, err := g.client.Models.List(ctx); err != nil {
		return nil, fmt.Errorf("OpenRouter sign-in failed: %w", err)
	}

	g.identity = &model.Identity{Username: "openrouter"}
	if config.DebugLog != nil {
		config.DebugLog.Printf("[OpenRouter] key validated")
	}
	return g.identity, nil
}

// SignOut discards the credential
func (g *OpenRouterGateway) SignOut(ctx context.Context) error {
	g.SetAPIKey("")
	return nil
}

// ListModels fetches the catalog. OpenRouter exposes hundreds of routed
// models through the same endpoint shape as OpenAI.
func (g *OpenRouterGateway) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	page, err := g.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list OpenRouter models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		result = append(result, model.ModelInfo{ID: m.ID, Provider: "openrouter"})
	}
	return result, nil
}

// StreamChat streams a chat completion, invoking onText with the full
// accumulated text after each delta.
func (g *OpenRouterGateway) StreamChat(ctx context.Context, history []model.Message, modelID, systemPrompt string, onText model.StreamCallback) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: BuildOpenAIMessages(history, systemPrompt),
		Model:    openai.ChatModel(modelID),
	}

	stream := g.client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}

	var full strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			full.WriteString(chunk.Choices[0].Delta.Content)
			if onText != nil {
				onText(full.String())
			}
		}
	}

	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("OpenRouter streaming error: %w", err)
	}

	if len(acc.Choices) > 0 && acc.Choices[0].Message.Content != "" {
		return acc.Choices[0].Message.Content, nil
	}
	return full.String(), nil
}

func (g *OpenRouterGateway) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("%w: image generation", model.ErrUnsupported)
}

func (g *OpenRouterGateway) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("%w: video generation", model.ErrUnsupported)
}

func (g *OpenRouterGateway) GenerateSpeech(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("%w: speech generation", model.ErrUnsupported)
}

func (g *OpenRouterGateway) PerformOCR(ctx context.Context, file model.AttachedFile) (string, error) {
	return "", fmt.Errorf("%w: OCR", model.ErrUnsupported)
}

func (g *OpenRouterGateway) TranscribeAudio(ctx context.Context, file model.AttachedFile) (string, error) {
	return "", fmt.Errorf("%w: transcription", model.ErrUnsupported)
}
