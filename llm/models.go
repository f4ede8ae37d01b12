// Package llm provides shared data models for LLM providers.
package llm

import (
	"github.com/richinex/didact/model"
)

// ToolDeclaration defines a tool that the LLM can call.
// Parameters follows JSON Schema conventions.
type ToolDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolChoiceMode controls whether the model is free to call tools.
type ToolChoiceMode string

const (
	// ToolChoiceAuto lets the model decide freely whether to call a tool.
	ToolChoiceAuto ToolChoiceMode = "auto"
	// ToolChoiceAny forces the model to call some tool.
	ToolChoiceAny ToolChoiceMode = "any"
	// ToolChoiceNone forces the model to answer directly.
	ToolChoiceNone ToolChoiceMode = "none"
)

// ToolChoice is the tool-choice policy sent with a generation request.
// The zero value means auto with no allow-list.
type ToolChoice struct {
	Mode         ToolChoiceMode `json:"mode,omitempty"`
	AllowedTools []string       `json:"allowed_tools,omitempty"`
}

// StepResult is the outcome of one generation step: either a final text
// answer, or one or more tool calls the model wants executed.
type StepResult struct {
	Text  string
	Calls []model.FunctionCall
	Usage *TokenUsage
}

// IsFinal reports whether the model produced a final answer rather than
// requesting tool calls.
func (r StepResult) IsFinal() bool {
	return len(r.Calls) == 0
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// Add accumulates usage from another step.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
