package model

// StreamChunkMsg delivers the full accumulated assistant text for an
// in-flight chat turn. Handle identifies the originating request so stale
// chunks from a superseded turn are discarded.
type StreamChunkMsg struct {
	Handle    *RequestHandle
	MessageID string
	Content   string
}

// TurnSettledMsg marks the end of a generation turn: success, error or
// cancellation. Exactly one is delivered per dispatched turn. SessionID and
// UserMessage pin the turn to the session that originated it, so a result
// arriving after the user navigated elsewhere still commits to the right
// history entry.
type TurnSettledMsg struct {
	Handle      *RequestHandle
	SessionID   string // originating session; empty for private turns
	UserMessage Message
	Mode        Mode
	MessageID   string  // chat mode: the streaming placeholder to finalize
	FinalText   string  // chat mode: authoritative final text
	Message     Message // non-chat modes: the assistant message to append
	Err         error
	Cancelled   bool
}

// AuthRequiredMsg signals that a send was attempted without an identity
type AuthRequiredMsg struct{}

type ModelsListMsg struct {
	Models []ModelInfo
	Err    error
}

type SignInResultMsg struct {
	Identity  *Identity
	Err       error
	Cancelled bool
}

type SignOutDoneMsg struct {
	Err error
}

type ExportDoneMsg struct {
	Path string
	Err  error
}
