// DeepSeek Provider implementation using go-openai library.
//
// Information Hiding:
// - Uses OpenAI-compatible API with different base URL
// - Shares message and tool conversion with the OpenAI provider

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/richinex/didact/model"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekProvider implements the Provider interface for DeepSeek.
type DeepSeekProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewDeepSeekProvider creates a new DeepSeek provider.
func NewDeepSeekProvider(apiKey, modelName string, maxTokens uint32, temperature float32) *DeepSeekProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = deepseekBaseURL

	return &DeepSeekProvider{
		client:      openai.NewClientWithConfig(config),
		model:       modelName,
		maxTokens:   int(maxTokens),
		temperature: temperature,
	}
}

// Name returns the provider name.
func (p *DeepSeekProvider) Name() string {
	return "deepseek"
}

// Model returns the current model.
func (p *DeepSeekProvider) Model() string {
	return p.model
}

// Generate sends a plain completion request.
func (p *DeepSeekProvider) Generate(ctx context.Context, contents []model.Message, systemInstruction string) (string, *TokenUsage, error) {
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
func (p *DeepSeekProvider) GenerateWithTools(ctx context.Context, contents []model.Message, tools []ToolDeclaration, choice ToolChoice) (StepResult, error) {
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

// Verify DeepSeekProvider implements Provider
var _ Provider = (*DeepSeekProvider)(nil)
