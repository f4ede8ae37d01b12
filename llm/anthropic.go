// Anthropic Provider implementation using official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for Anthropic Messages API
// - Conversion between part-based messages and tool_use/tool_result blocks

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/richinex/didact/model"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude.
type AnthropicProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(apiKey, modelName string, maxTokens uint32, temperature float32) *AnthropicProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &AnthropicProvider{
		client:      client,
		model:       modelName,
		maxTokens:   int64(maxTokens),
		temperature: float64(temperature),
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Model returns the current model.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// Generate sends a plain completion request.
func (p *AnthropicProvider) Generate(ctx context.Context, contents []model.Message, systemInstruction string) (string, *TokenUsage, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Messages:    convertToAnthropicMessages(contents),
		Temperature: anthropic.Float(p.temperature),
	}
	if systemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemInstruction},
		}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", nil, fmt.Errorf("message creation failed: %w", err)
	}

	content := ""
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += variant.Text
		}
	}

	return content, convertAnthropicUsage(message.Usage), nil
}

// GenerateWithTools sends a completion request with tool declarations.
func (p *AnthropicProvider) GenerateWithTools(ctx context.Context, contents []model.Message, tools []ToolDeclaration, choice ToolChoice) (StepResult, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Messages:    convertToAnthropicMessages(contents),
		Temperature: anthropic.Float(p.temperature),
		Tools:       convertToAnthropicTools(tools),
	}
	if tc := convertToAnthropicToolChoice(choice); tc != nil {
		params.ToolChoice = *tc
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return StepResult{}, fmt.Errorf("message creation failed: %w", err)
	}

	result := StepResult{Usage: convertAnthropicUsage(message.Usage)}
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Text += variant.Text
		case anthropic.ToolUseBlock:
			inputJSON, _ := json.Marshal(variant.Input)
			var args map[string]any
			_ = json.Unmarshal(inputJSON, &args)
			result.Calls = append(result.Calls, model.FunctionCall{
				Name: variant.Name,
				Args: args,
			})
		}
	}

	return result, nil
}

// convertToAnthropicMessages converts part-based conversation messages to
// Anthropic format. Function calls become tool_use blocks and function
// responses become tool_result blocks, with the function name reused as
// the block id.
func convertToAnthropicMessages(messages []model.Message) []anthropic.MessageParam {
	var result []anthropic.MessageParam
	for _, msg := range messages {
		for _, part := range msg.Parts {
			switch {
			case part.FunctionCall != nil:
				var input map[string]any
				if part.FunctionCall.Args != nil {
					input = part.FunctionCall.Args
				}
				result = append(result, anthropic.MessageParam{
					Role: anthropic.MessageParamRoleAssistant,
					Content: []anthropic.ContentBlockParamUnion{{
						OfToolUse: &anthropic.ToolUseBlockParam{
							ID:    part.FunctionCall.Name,
							Name:  part.FunctionCall.Name,
							Input: input,
						},
					}},
				})
			case part.FunctionResponse != nil:
				content, err := json.Marshal(part.FunctionResponse.Response)
				if err != nil {
					content = []byte("{}")
				}
				result = append(result, anthropic.NewUserMessage(
					anthropic.NewToolResultBlock(part.FunctionResponse.Name, string(content), false),
				))
			case part.Text != "":
				if msg.Role == model.RoleModel {
					result = append(result, anthropic.NewAssistantMessage(
						anthropic.NewTextBlock(part.Text),
					))
				} else {
					result = append(result, anthropic.NewUserMessage(
						anthropic.NewTextBlock(part.Text),
					))
				}
			}
		}
	}
	return result
}

// convertToAnthropicToolChoice maps the tool-choice policy to Anthropic's
// tool_choice field. Returns nil when the default (auto) applies.
func convertToAnthropicToolChoice(choice ToolChoice) *anthropic.ToolChoiceUnionParam {
	switch choice.Mode {
	case ToolChoiceNone:
		return &anthropic.ToolChoiceUnionParam{
			OfNone: &anthropic.ToolChoiceNoneParam{},
		}
	case ToolChoiceAny:
		if len(choice.AllowedTools) == 1 {
			return &anthropic.ToolChoiceUnionParam{
				OfTool: &anthropic.ToolChoiceToolParam{Name: choice.AllowedTools[0]},
			}
		}
		return &anthropic.ToolChoiceUnionParam{
			OfAny: &anthropic.ToolChoiceAnyParam{},
		}
	default:
		return nil
	}
}

// convertToAnthropicTools converts tool declarations to Anthropic format.
func convertToAnthropicTools(tools []ToolDeclaration) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		properties, _ := t.Parameters["properties"].(map[string]any)

		var required []string
		if req, ok := t.Parameters["required"].([]string); ok {
			required = req
		}
		if req, ok := t.Parameters["required"].([]any); ok {
			for _, r := range req {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
		}

		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
				Required:   required,
			},
		}
		result[i] = anthropic.ToolUnionParam{OfTool: &toolParam}
	}
	return result
}

func convertAnthropicUsage(usage anthropic.Usage) *TokenUsage {
	if usage.InputTokens == 0 && usage.OutputTokens == 0 {
		return nil
	}
	return &TokenUsage{
		PromptTokens:     uint32(usage.InputTokens),
		CompletionTokens: uint32(usage.OutputTokens),
		TotalTokens:      uint32(usage.InputTokens + usage.OutputTokens),
	}
}

// Verify AnthropicProvider implements Provider
var _ Provider = (*AnthropicProvider)(nil)
