// Package model provides the conversation data model shared across packages.
//
// Messages follow the Gemini wire shape: a role plus an ordered list of
// parts, where each part is text, a function call requested by the model,
// or the response to a function call injected back into the conversation.
package model

import (
	"fmt"
)

// Role identifies who produced a message.
type Role string

const (
	// RoleUser marks messages originating from the caller, including
	// injected function responses (the model expects tool results on the
	// user side of the exchange).
	RoleUser Role = "user"
	// RoleModel marks messages produced by the model, including echoed
	// function calls.
	RoleModel Role = "model"
)

// Valid reports whether the role is one of the two accepted values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// FunctionCall is a model-issued request to invoke a named tool.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries the outcome of executing a FunctionCall,
// bound to the call by Name.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// Part is one segment of a message. Exactly one field is set.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// Message is one turn in a conversation.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Validate checks the structural invariants enforced at the transport
// boundary: a known role and a parts list that is present.
func (m Message) Validate() error {
	if !m.Role.Valid() {
		return fmt.Errorf("invalid role %q: expected 'user' or 'model'", m.Role)
	}
	if m.Parts == nil {
		return fmt.Errorf("message is missing parts")
	}
	return nil
}

// TextMessage builds a single-part text message.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Parts: []Part{{Text: text}}}
}

// FunctionCallMessage builds the model-turn echo of a function call.
func FunctionCallMessage(call FunctionCall) Message {
	return Message{Role: RoleModel, Parts: []Part{{FunctionCall: &call}}}
}

// FunctionResponseMessage builds the user-turn injection of a tool outcome.
// The outcome is wrapped under a "result" key so the model always receives
// a JSON object, matching the wire contract.
func FunctionResponseMessage(name string, outcome any) Message {
	return Message{Role: RoleUser, Parts: []Part{{
		FunctionResponse: &FunctionResponse{
			Name:     name,
			Response: map[string]any{"result": outcome},
		},
	}}}
}

// Text concatenates the text parts of a message.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		out += p.Text
	}
	return out
}

// ToolCall contains metrics about a tool invocation.
// Used for tracking and analytics in agent results.
type ToolCall struct {
	Name       string `json:"name"`
	InputSize  int    `json:"input_size"`
	OutputSize int    `json:"output_size"`
	DurationMs uint64 `json:"duration_ms"`
	Success    bool   `json:"success"`
}
