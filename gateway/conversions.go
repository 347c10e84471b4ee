package gateway

import (
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"zenai/model"
)

// BuildOpenAIMessages converts a Zen conversation to OpenAI chat format.
//
// A non-empty system prompt is prepended as a system message. Error messages
// never reach the provider. User-media messages become multi-part content:
// the text plus one image part per image attachment; non-image attachments
// contribute nothing here because their modes (transcription, OCR) run as
// separate requests.
func BuildOpenAIMessages(messages []model.Message, systemPrompt string) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)

	if systemPrompt != "" {
		result = append(result, openai.SystemMessage(systemPrompt))
	}

	for _, msg := range messages {
		if msg.Type == model.TypeError {
			continue
		}

		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			if msg.Type == model.TypeUserMedia && hasImageAttachment(msg) {
				result = append(result, openai.UserMessage(buildImageParts(msg)))
			} else {
				result = append(result, openai.UserMessage(msg.Content))
			}
		}
	}

	return result
}

func hasImageAttachment(msg model.Message) bool {
	for _, f := range msg.Files {
		if strings.HasPrefix(f.Type, "image/") {
			return true
		}
	}
	return false
}

func buildImageParts(msg model.Message) []openai.ChatCompletionContentPartUnionParam {
	parts := []openai.ChatCompletionContentPartUnionParam{}
	if msg.Content != "" {
		parts = append(parts, openai.TextContentPart(msg.Content))
	}
	for _, f := range msg.Files {
		if !strings.HasPrefix(f.Type, "image/") {
			continue
		}
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: f.Content,
		}))
	}
	return parts
}

// BuildOllamaMessages converts a Zen conversation to Ollama chat format.
// Attachments and media types flatten to plain text: local models served by
// Ollama receive only the textual conversation.
func BuildOllamaMessages(messages []model.Message, systemPrompt string) []api.Message {
	result := make([]api.Message, 0, len(messages)+1)

	if systemPrompt != "" {
		result = append(result, api.Message{Role: model.RoleSystem, Content: systemPrompt})
	}

	for _, msg := range messages {
		if msg.Type == model.TypeError {
			continue
		}
		result = append(result, api.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return result
}
