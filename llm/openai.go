// OpenAI Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for OpenAI Chat Completions API
// - Conversion between part-based messages and OpenAI's flat tool messages

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/richinex/didact/model"
)

// OpenAIProvider implements the Provider interface for OpenAI.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey, modelName string, maxTokens uint32, temperature float32) *OpenAIProvider {
	return &OpenAIProvider{
		client:      openai.NewClient(apiKey),
		model:       modelName,
		maxTokens:   int(maxTokens),
		temperature: temperature,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the current model.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Generate sends a plain completion request.
func (p *OpenAIProvider) Generate(ctx context.Context, contents []model.Message, systemInstruction string) (string, *TokenUsage, error) {
	messages := convertToOpenAIMessages(contents)
	if systemInstruction != "" {
		messages = append([]openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemInstruction,
		}}, messages...)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", nil, fmt.Errorf("chat completion failed: %w", err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	return content, convertOpenAIUsage(resp.Usage), nil
}

// GenerateWithTools sends a completion request with tool declarations.
func (p *OpenAIProvider) GenerateWithTools(ctx context.Context, contents []model.Message, tools []ToolDeclaration, choice ToolChoice) (StepResult, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    convertToOpenAIMessages(contents),
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		Tools:       convertToOpenAITools(tools),
	}
	if tc := convertToOpenAIToolChoice(choice); tc != nil {
		req.ToolChoice = tc
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return StepResult{}, fmt.Errorf("chat completion failed: %w", err)
	}

	result := StepResult{Usage: convertOpenAIUsage(resp.Usage)}
	if len(resp.Choices) > 0 {
		result.Text = resp.Choices[0].Message.Content
		for _, tc := range resp.Choices[0].Message.ToolCalls {
			var args map[string]any
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
			result.Calls = append(result.Calls, model.FunctionCall{
				Name: tc.Function.Name,
				Args: args,
			})
		}
	}

	return result, nil
}

// convertToOpenAIMessages converts part-based conversation messages to
// OpenAI chat messages. Function calls become assistant tool_calls and
// function responses become role "tool" messages; the function name
// doubles as the tool call id (the Gemini convention carried across).
func convertToOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessage {
	var result []openai.ChatCompletionMessage
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == model.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}

		for _, part := range msg.Parts {
			switch {
			case part.FunctionCall != nil:
				argsJSON, err := json.Marshal(part.FunctionCall.Args)
				if err != nil {
					argsJSON = []byte("{}")
				}
				result = append(result, openai.ChatCompletionMessage{
					Role: openai.ChatMessageRoleAssistant,
					ToolCalls: []openai.ToolCall{{
						ID:   part.FunctionCall.Name,
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      part.FunctionCall.Name,
							Arguments: string(argsJSON),
						},
					}},
				})
			case part.FunctionResponse != nil:
				content, err := json.Marshal(part.FunctionResponse.Response)
				if err != nil {
					content = []byte("{}")
				}
				result = append(result, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    string(content),
					ToolCallID: part.FunctionResponse.Name,
				})
			case part.Text != "":
				result = append(result, openai.ChatCompletionMessage{
					Role:    role,
					Content: part.Text,
				})
			}
		}
	}
	return result
}

// convertToOpenAIToolChoice maps the tool-choice policy to OpenAI's
// tool_choice field. OpenAI can only force a single named function, so
// an allow-list of exactly one tool under "any" becomes a forced call.
func convertToOpenAIToolChoice(choice ToolChoice) any {
	switch choice.Mode {
	case ToolChoiceNone:
		return "none"
	case ToolChoiceAny:
		if len(choice.AllowedTools) == 1 {
			return openai.ToolChoice{
				Type:     openai.ToolTypeFunction,
				Function: openai.ToolFunction{Name: choice.AllowedTools[0]},
			}
		}
		return "required"
	default:
		return nil
	}
}

// convertToOpenAITools converts tool declarations to OpenAI format.
func convertToOpenAITools(tools []ToolDeclaration) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

func convertOpenAIUsage(usage openai.Usage) *TokenUsage {
	return &TokenUsage{
		PromptTokens:     uint32(usage.PromptTokens),
		CompletionTokens: uint32(usage.CompletionTokens),
		TotalTokens:      uint32(usage.TotalTokens),
	}
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
