// Package testutil provides a configurable gateway double for tests outside
// the model package.
package testutil

import (
	"context"

	"zenai/model"
)

// MockGateway implements model.Gateway with overridable behavior. The zero
// value is an authenticated gateway whose chat returns an empty response;
// set the func fields to script specific behavior.
type MockGateway struct {
	Authenticated      bool
	IdentityFunc       func(ctx context.Context) (*model.Identity, error)
	SignInFunc         func(ctx context.Context) (*model.Identity, error)
	SignOutFunc        func(ctx context.Context) error
	ListModelsFunc     func(ctx context.Context) ([]model.ModelInfo, error)
	StreamChatFunc     func(ctx context.Context, history []model.Message, modelID, systemPrompt string, onText model.StreamCallback) (string, error)
	GenerateImageFunc  func(ctx context.Context, prompt string) (string, error)
	GenerateVideoFunc  func(ctx context.Context, prompt string) (string, error)
	GenerateSpeechFunc func(ctx context.Context, prompt string) (string, error)
	PerformOCRFunc     func(ctx context.Context, file model.AttachedFile) (string, error)
	TranscribeFunc     func(ctx context.Context, file model.AttachedFile) (string, error)
}

// NewMockGateway returns an authenticated mock
func NewMockGateway() *MockGateway {
	return &MockGateway{Authenticated: true}
}

func (m *MockGateway) IsAuthenticated() bool {
	return m.Authenticated
}

func (m *MockGateway) Identity(ctx context.Context) (*model.Identity, error) {
	if m.IdentityFunc != nil {
		return m.IdentityFunc(ctx)
	}
	return &model.Identity{Username: "test"}, nil
}

func (m *MockGateway) SignIn(ctx context.Context) (*model.Identity, error) {
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx)
	}
	m.Authenticated = true
	return &model.Identity{Username: "test"}, nil
}

func (m *MockGateway) SignOut(ctx context.Context) error {
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx)
	}
	m.Authenticated = false
	return nil
}

func (m *MockGateway) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return []model.ModelInfo{{ID: "test-model", Provider: "test"}}, nil
}

func (m *MockGateway) StreamChat(ctx context.Context, history []model.Message, modelID, systemPrompt string, onText model.StreamCallback) (string, error) {
	if m.StreamChatFunc != nil {
		return m.StreamChatFunc(ctx, history, modelID, systemPrompt, onText)
	}
	return "", nil
}

func (m *MockGateway) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, prompt)
	}
	return "", model.ErrUnsupported
}

func (m *MockGateway) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	if m.GenerateVideoFunc != nil {
		return m.GenerateVideoFunc(ctx, prompt)
	}
	return "", model.ErrUnsupported
}

func (m *MockGateway) GenerateSpeech(ctx context.Context, prompt string) (string, error) {
	if m.GenerateSpeechFunc != nil {
		return m.GenerateSpeechFunc(ctx, prompt)
	}
	return "", model.ErrUnsupported
}

func (m *MockGateway) PerformOCR(ctx context.Context, file model.AttachedFile) (string, error) {
	if m.PerformOCRFunc != nil {
		return m.PerformOCRFunc(ctx, file)
	}
	return "", model.ErrUnsupported
}

func (m *MockGateway) TranscribeAudio(ctx context.Context, file model.AttachedFile) (string, error) {
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, file)
	}
	return "", model.ErrUnsupported
}
