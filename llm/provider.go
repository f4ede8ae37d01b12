// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for LLM providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling

package llm

import (
	"context"

	"github.com/richinex/didact/model"
)

// Provider defines the abstract interface for LLM providers.
//
// A provider is a stateless request/response mapper: it never mutates the
// conversation it is handed and performs no retries of its own. Retry and
// loop-termination decisions belong to the agent layer.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Generate sends a plain completion request with an optional system
	// instruction and returns the text answer.
	Generate(ctx context.Context, contents []model.Message, systemInstruction string) (string, *TokenUsage, error)

	// GenerateWithTools sends a completion request with tool declarations
	// and a tool-choice policy. The result is either a final text answer
	// or the list of tool calls the model requested, in the order the
	// model returned them.
	GenerateWithTools(ctx context.Context, contents []model.Message, tools []ToolDeclaration, choice ToolChoice) (StepResult, error)
}
