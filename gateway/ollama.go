package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"zenai/model"
)

const ollamaDefaultBaseURL = "http://localhost:11434"

// OllamaGateway implements model.Gateway against a local Ollama server.
// Chat-only, and credential-free: a local server needs no sign-in, so auth
// operations are trivially satisfied.
type OllamaGateway struct {
	client  *api.Client
	baseURL string
}

// NewOllamaGateway creates a gateway for a local Ollama server
func NewOllamaGateway(baseURL string) (*OllamaGateway, error) {
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &OllamaGateway{
		client:  api.NewClient(parsedURL, http.DefaultClient),
		baseURL: baseURL,
	}, nil
}

func (g *OllamaGateway) IsAuthenticated() bool {
	return true
}

// Identity verifies the server is reachable
func (g *OllamaGateway) Identity(ctx context.Context) (*model.Identity, error) {
	if _, err := g.client.List(ctx); err != nil {
		return nil, fmt.Errorf("Ollama server not reachable: %w", err)
	}
	return &model.Identity{Username: "local"}, nil
}

func (g *OllamaGateway) SignIn(ctx context.Context) (*model.Identity, error) {
	return g.Identity(ctx)
}

func (g *OllamaGateway) SignOut(ctx context.Context) error {
	return nil
}

// ListModels returns the models installed on the server
func (g *OllamaGateway) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	resp, err := g.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list Ollama models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		result = append(result, model.ModelInfo{ID: m.Name, Provider: "ollama"})
	}
	return result, nil
}

// StreamChat streams a chat response, invoking onText with the full
// accumulated text after each chunk.
func (g *OllamaGateway) StreamChat(ctx context.Context, history []model.Message, modelID, systemPrompt string, onText model.StreamCallback) (string, error) {
	req := &api.ChatRequest{
		Model:    modelID,
		Messages: BuildOllamaMessages(history, systemPrompt),
		Stream:   func(b bool) *bool { return &b }(true),
	}

	var full strings.Builder
	respFunc := func(resp api.ChatResponse) error {
		if resp.Message.Content != "" {
			full.WriteString(resp.Message.Content)
			if onText != nil {
				onText(full.String())
			}
		}
		return nil
	}

	if err := g.client.Chat(ctx, req, respFunc); err != nil {
		return "", fmt.Errorf("Ollama chat error: %w", err)
	}

	return full.String(), nil
}

func (g *OllamaGateway) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("%w: image generation", model.ErrUnsupported)
}

func (g *OllamaGateway) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("%w: video generation", model.ErrUnsupported)
}

func (g *OllamaGateway) GenerateSpeech(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("%w: speech generation", model.ErrUnsupported)
}

func (g *OllamaGateway) PerformOCR(ctx context.Context, file model.AttachedFile) (string, error) {
	return "", fmt.Errorf("%w: OCR", model.ErrUnsupported)
}

func (g *OllamaGateway) TranscribeAudio(ctx context.Context, file model.AttachedFile) (string, error) {
	return "", fmt.Errorf("%w: transcription", model.ErrUnsupported)
}
