package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"zenai/config"
	"zenai/model"
)

const (
	openaiDefaultBaseURL = "https://api.openai.com/v1"
	openaiVisionModel    = "gpt-4o-mini"
	ocrPrompt            = "Extract all text from this image. Return only the extracted text, with no commentary."

	// generated videos are polled until ready
	videoPollInterval = 5 * time.Second
)

// OpenAIGateway implements model.Gateway against the OpenAI API. It is the
// full-capability backend: chat, image, video and speech generation, OCR and
// transcription.
type OpenAIGateway struct {
	client   openai.Client
	baseURL  string
	apiKey   string
	identity *model.Identity
}

// NewOpenAIGateway creates an OpenAI gateway. An empty API key is allowed:
// the gateway starts unauthenticated and SetAPIKey/SignIn establish the
// identity later.
func NewOpenAIGateway(baseURL, apiKey string) (*OpenAIGateway, error) {
	if baseURL == "" {
		baseURL = openaiDefaultBaseURL
	}

	g := &OpenAIGateway{baseURL: baseURL}
	g.SetAPIKey(apiKey)
	return g, nil
}

// SetAPIKey swaps the credential and rebuilds the client. Any previously
// verified identity is discarded until the next SignIn.
func (g *OpenAIGateway) SetAPIKey(apiKey string) {
	g.apiKey = apiKey
	g.identity = nil
	g.client = openai.NewClient(
		option.WithBaseURL(g.baseURL),
		option.WithAPIKey(apiKey),
	)
}

// IsAuthenticated reports whether a credential is present. Validity is only
// known after SignIn or the first real request.
func (g *OpenAIGateway) IsAuthenticated() bool {
	return g.apiKey != ""
}

// Identity returns the account identity, verifying the key remotely
func (g *OpenAIGateway) Identity(ctx context.Context) (*model.Identity, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("no OpenAI API key configured")
	}
	if g.identity != nil {
		return g.identity, nil
	}
	return g.SignIn(ctx)
}

// SignIn validates the configured key with a lightweight request. OpenAI has
// no identity endpoint, so a successful model listing stands in for one.
func (g *OpenAIGateway) SignIn(ctx context.Context) (*model.Identity, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("no OpenAI API key configured")
	}

	if _, err := g.client.Models.List(ctx); err != nil {
		return nil, fmt.Errorf("OpenAI sign-in failed: %w", err)
	}

	g.identity = &model.Identity{Username: "openai"}
	if config.DebugLog != nil {
		config.DebugLog.Printf("[OpenAI] key validated")
	}
	return g.identity, nil
}

// SignOut discards the credential
func (g *OpenAIGateway) SignOut(ctx context.Context) error {
	g.SetAPIKey("")
	return nil
}

// ListModels fetches the account's model list
func (g *OpenAIGateway) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	page, err := g.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list OpenAI models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		result = append(result, model.ModelInfo{ID: m.ID, Provider: "openai"})
	}
	return result, nil
}

// StreamChat streams a chat completion, invoking onText with the full
// accumulated text after each delta.
func (g *OpenAIGateway) StreamChat(ctx context.Context, history []model.Message, modelID, systemPrompt string, onText model.StreamCallback) (string, error) {
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
		return "", fmt.Errorf("OpenAI streaming error: %w", err)
	}

	// Prefer the accumulator's assembled message; fall back to the deltas we
	// collected when the accumulator saw no completed choice.
	if len(acc.Choices) > 0 && acc.Choices[0].Message.Content != "" {
		return acc.Choices[0].Message.Content, nil
	}
	return full.String(), nil
}

// GenerateImage creates an image for the prompt and returns it as a data URI
func (g *OpenAIGateway) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModelDallE3,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		Size:           openai.ImageGenerateParamsSize1024x1024,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", fmt.Errorf("OpenAI image generation returned no image data")
	}

	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

// GenerateVideo creates a video for the prompt, polling until the render
// completes, and returns it as a data URI.
func (g *OpenAIGateway) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	video, err := g.client.Videos.New(ctx, openai.VideoNewParams{
		Prompt: prompt,
		Model:  openai.VideoModelSora2,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI video generation failed: %w", err)
	}

	for video.Status != openai.VideoStatusCompleted {
		if video.Status == openai.VideoStatusFailed {
			return "", fmt.Errorf("OpenAI video render failed")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(videoPollInterval):
		}

		video, err = g.client.Videos.Get(ctx, video.ID)
		if err != nil {
			return "", fmt.Errorf("OpenAI video poll failed: %w", err)
		}
	}

	resp, err := g.client.Videos.DownloadContent(ctx, video.ID, openai.VideoDownloadContentParams{})
	if err != nil {
		return "", fmt.Errorf("OpenAI video download failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("OpenAI video read failed: %w", err)
	}

	return "data:video/mp4;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// GenerateSpeech synthesizes the prompt as audio and returns it as a data URI
func (g *OpenAIGateway) GenerateSpeech(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModelTTS1,
		Voice: openai.AudioSpeechNewParamsVoiceAlloy,
		Input: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI speech generation failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("OpenAI speech read failed: %w", err)
	}

	return "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// PerformOCR extracts the text of an image attachment via a single vision
// chat turn.
func (g *OpenAIGateway) PerformOCR(ctx context.Context, file model.AttachedFile) (string, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(ocrPrompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: file.Content,
		}),
	}

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
		Model:    openai.ChatModel(openaiVisionModel),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI OCR failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("OpenAI OCR returned no content")
	}

	return completion.Choices[0].Message.Content, nil
}

// TranscribeAudio runs an audio attachment through Whisper
func (g *OpenAIGateway) TranscribeAudio(ctx context.Context, file model.AttachedFile) (string, error) {
	_, payload, err := model.ParseDataURI(file.Content)
	if err != nil {
		return "", fmt.Errorf("audio attachment is not a data URI: %w", err)
	}

	resp, err := g.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  openai.File(bytes.NewReader(payload), file.Name, model.NormalizeAudioMIME(file.Name, file.Type)),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI transcription failed: %w", err)
	}

	return resp.Text, nil
}
