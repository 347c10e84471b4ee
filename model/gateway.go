package model

import (
	"context"
	"errors"
)

// Mode selects what kind of generation a send performs
type Mode string

const (
	ModeChat       Mode = "chat"
	ModeTxt2Img    Mode = "txt2img"
	ModeTxt2Vid    Mode = "txt2vid"
	ModeTxt2Speech Mode = "txt2speech"
	ModeImg2Txt    Mode = "img2txt"
	ModeSpeech2Txt Mode = "speech2txt"
)

// AllModes lists every mode in display order
var AllModes = []Mode{ModeChat, ModeTxt2Img, ModeTxt2Vid, ModeTxt2Speech, ModeImg2Txt, ModeSpeech2Txt}

// ModeLabel returns the human-readable name for a mode
func ModeLabel(m Mode) string {
	switch m {
	case ModeChat:
		return "Chat"
	case ModeTxt2Img:
		return "Image"
	case ModeTxt2Vid:
		return "Video"
	case ModeTxt2Speech:
		return "Speech"
	case ModeImg2Txt:
		return "OCR"
	case ModeSpeech2Txt:
		return "Transcribe"
	default:
		return string(m)
	}
}

var (
	// ErrUnsupported is returned by gateways that do not implement a
	// generation capability (chat-only providers).
	ErrUnsupported = errors.New("operation not supported by this provider")

	// ErrSignInCancelled marks a sign-in the user abandoned; it is never
	// surfaced as an error.
	ErrSignInCancelled = errors.New("sign-in cancelled")

	// ErrAttachmentRequired is the validation failure for OCR/transcription
	// sends without a suitable attachment. Raised before any gateway call.
	ErrAttachmentRequired = errors.New("attachment required")
)

// Identity describes the authenticated account at the provider
type Identity struct {
	Username string
}

// ModelInfo describes one selectable model
type ModelInfo struct {
	ID       string
	Provider string
}

// StreamCallback receives the full accumulated response text after each
// streamed increment - not a delta. Replaying any prefix of calls is
// harmless because each call supersedes the previous one wholesale.
type StreamCallback func(accumulated string)

// Gateway abstracts the remote AI provider.
//
// The interface is defined in the model package (not gateway) to avoid import
// cycles: gateway implementations import model, and the orchestrator uses the
// Gateway interface without importing the gateway package.
//
// Only StreamChat observes the context for cooperative cancellation; the
// other operations run to completion or failure once dispatched, and stale
// results are discarded by the orchestrator's handle-identity check.
type Gateway interface {
	// IsAuthenticated reports whether a usable identity is present without
	// touching the network.
	IsAuthenticated() bool

	// Identity returns the authenticated account, verifying it remotely.
	Identity(ctx context.Context) (*Identity, error)

	// SignIn establishes (or re-validates) the identity.
	SignIn(ctx context.Context) (*Identity, error)

	// SignOut discards the identity.
	SignOut(ctx context.Context) error

	// ListModels returns the models selectable for chat.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// StreamChat sends the conversation and streams the response. Returns the
	// authoritative final text, which may differ from the last streamed
	// snapshot and always wins.
	StreamChat(ctx context.Context, history []Message, modelID, systemPrompt string, onText StreamCallback) (string, error)

	// GenerateImage returns a media reference (data URI or URL) for the prompt.
	GenerateImage(ctx context.Context, prompt string) (string, error)

	// GenerateVideo returns a media reference for the prompt.
	GenerateVideo(ctx context.Context, prompt string) (string, error)

	// GenerateSpeech returns an audio media reference for the prompt.
	GenerateSpeech(ctx context.Context, prompt string) (string, error)

	// PerformOCR extracts text from an image attachment.
	PerformOCR(ctx context.Context, file AttachedFile) (string, error)

	// TranscribeAudio extracts text from an audio attachment.
	TranscribeAudio(ctx context.Context, file AttachedFile) (string, error)
}
