package contract

import "context"

// ChatModel is the outbound LLM boundary: transcript and tool catalog in,
// plain message or tool-call requests out. Implementations are expected to
// enforce their own wall-clock timeout per call.
type ChatModel interface {
	Complete(ctx context.Context, req CompletionRequest) (ModelResponse, error)
}
