// Package agent runs the tool-calling loop.
//
// Contains the result types returned from a loop run.
package agent

import (
	"github.com/richinex/didact/llm"
	"github.com/richinex/didact/model"
)

// ToolCall is an alias for model.ToolCall for tool call metadata.
type ToolCall = model.ToolCall

// Result is the outcome of one loop run.
type Result struct {
	// Text is the final answer shown to the caller. Always non-empty:
	// an exhausted run or a blank model reply is substituted with a
	// fixed fallback message.
	Text string

	// Messages is the full conversation including the turns appended
	// during the run and the final model reply, suitable for session
	// persistence.
	Messages []model.Message

	// Exhausted reports that the step ceiling was hit before the model
	// produced a final answer.
	Exhausted bool

	Steps      int
	LLMCalls   int
	ToolCalls  []ToolCall
	Usage      llm.TokenUsage
	DurationMs uint64
}
