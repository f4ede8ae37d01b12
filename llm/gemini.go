// Google Gemini Provider implementation using official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - Request/response format for Gemini API
// - Tool declaration and tool-choice conversion
// - System instruction handling via config

package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/richinex/didact/model"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
	initErr     error // Stores client initialization error for deferred reporting
}

// NewGeminiProvider creates a new Gemini provider.
// If client initialization fails, the error is stored and returned on first use.
func NewGeminiProvider(apiKey, modelName string, maxTokens uint32, temperature float32) *GeminiProvider {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &GeminiProvider{
			model:       modelName,
			maxTokens:   int32(maxTokens),
			temperature: temperature,
			initErr:     fmt.Errorf("failed to initialize Gemini client: %w", err),
		}
	}

	return &GeminiProvider{
		client:      client,
		model:       modelName,
		maxTokens:   int32(maxTokens),
		temperature: temperature,
	}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the current model.
func (p *GeminiProvider) Model() string {
	return p.model
}

// Generate sends a plain completion request.
func (p *GeminiProvider) Generate(ctx context.Context, contents []model.Message, systemInstruction string) (string, *TokenUsage, error) {
	if p.initErr != nil {
		return "", nil, p.initErr
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.temperature),
		MaxOutputTokens: p.maxTokens,
	}
	if systemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}

	response, err := p.client.Models.GenerateContent(ctx, p.model, convertToGeminiContents(contents), config)
	if err != nil {
		return "", nil, fmt.Errorf("generate content failed: %w", err)
	}

	text := response.Text()
	if text == "" {
		return "", nil, fmt.Errorf("empty response from Gemini")
	}

	return text, convertGeminiUsage(response), nil
}

// GenerateWithTools sends a completion request with tool declarations.
func (p *GeminiProvider) GenerateWithTools(ctx context.Context, contents []model.Message, tools []ToolDeclaration, choice ToolChoice) (StepResult, error) {
	if p.initErr != nil {
		return StepResult{}, p.initErr
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.temperature),
		MaxOutputTokens: p.maxTokens,
		Tools:           convertToGeminiTools(tools),
		ToolConfig:      convertToGeminiToolConfig(choice),
	}

	response, err := p.client.Models.GenerateContent(ctx, p.model, convertToGeminiContents(contents), config)
	if err != nil {
		return StepResult{}, fmt.Errorf("generate content failed: %w", err)
	}

	result := StepResult{Usage: convertGeminiUsage(response)}
	if len(response.Candidates) > 0 && response.Candidates[0].Content != nil {
		for _, part := range response.Candidates[0].Content.Parts {
			if part.Text != "" {
				result.Text += part.Text
			}
			if part.FunctionCall != nil {
				result.Calls = append(result.Calls, model.FunctionCall{
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				})
			}
		}
	}

	return result, nil
}

// convertToGeminiContents converts conversation messages to Gemini format.
// The message model mirrors Gemini's part structure, so this is a direct
// field-by-field mapping.
func convertToGeminiContents(messages []model.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		content := &genai.Content{Role: string(msg.Role)}
		for _, part := range msg.Parts {
			p := &genai.Part{Text: part.Text}
			if part.FunctionCall != nil {
				p.FunctionCall = &genai.FunctionCall{
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				}
			}
			if part.FunctionResponse != nil {
				p.FunctionResponse = &genai.FunctionResponse{
					Name:     part.FunctionResponse.Name,
					Response: part.FunctionResponse.Response,
				}
			}
			content.Parts = append(content.Parts, p)
		}
		contents = append(contents, content)
	}
	return contents
}

// convertToGeminiToolConfig maps a tool-choice policy to Gemini's
// function calling config. Auto with no allow-list maps to nil so the
// request omits the config entirely.
func convertToGeminiToolConfig(choice ToolChoice) *genai.ToolConfig {
	if (choice.Mode == "" || choice.Mode == ToolChoiceAuto) && len(choice.AllowedTools) == 0 {
		return nil
	}

	mode := genai.FunctionCallingConfigModeAuto
	switch choice.Mode {
	case ToolChoiceAny:
		mode = genai.FunctionCallingConfigModeAny
	case ToolChoiceNone:
		mode = genai.FunctionCallingConfigModeNone
	}

	return &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 mode,
			AllowedFunctionNames: choice.AllowedTools,
		},
	}
}

// convertToGeminiTools converts tool declarations to Gemini format.
func convertToGeminiTools(tools []ToolDeclaration) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	var declarations []*genai.FunctionDeclaration
	for _, t := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertToGeminiSchema(t.Parameters),
		})
	}

	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// convertToGeminiSchema recursively converts a parameter schema to Gemini format.
func convertToGeminiSchema(params map[string]any) *genai.Schema {
	schema := &genai.Schema{
		Type: genai.TypeObject,
	}

	if t, ok := params["type"].(string); ok {
		schema.Type = mapToGeminiType(t)
	}

	// Required may arrive as []string (declarations built in Go) or
	// []any (declarations decoded from JSON).
	if req, ok := params["required"].([]string); ok {
		schema.Required = req
	}
	if req, ok := params["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	if props, ok := params["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			propMap, ok := prop.(map[string]any)
			if !ok {
				continue
			}
			schema.Properties[name] = convertPropertyToGeminiSchema(propMap)
		}
	}

	return schema
}

// convertPropertyToGeminiSchema converts a single property to Gemini schema.
func convertPropertyToGeminiSchema(prop map[string]any) *genai.Schema {
	schema := &genai.Schema{}

	if t, ok := prop["type"].(string); ok {
		schema.Type = mapToGeminiType(t)
	}
	if d, ok := prop["description"].(string); ok {
		schema.Description = d
	}

	if enum, ok := prop["enum"].([]string); ok {
		schema.Enum = enum
	}
	if enum, ok := prop["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}

	// Gemini requires 'items' for arrays.
	if schema.Type == genai.TypeArray {
		if items, ok := prop["items"].(map[string]any); ok {
			schema.Items = convertPropertyToGeminiSchema(items)
		} else {
			schema.Items = &genai.Schema{Type: genai.TypeString}
		}
	}

	if schema.Type == genai.TypeObject {
		if props, ok := prop["properties"].(map[string]any); ok {
			schema.Properties = make(map[string]*genai.Schema)
			for name, p := range props {
				if pMap, ok := p.(map[string]any); ok {
					schema.Properties[name] = convertPropertyToGeminiSchema(pMap)
				}
			}
		}
	}

	return schema
}

// mapToGeminiType maps JSON schema type to Gemini type.
func mapToGeminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer", "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

func convertGeminiUsage(response *genai.GenerateContentResponse) *TokenUsage {
	if response.UsageMetadata == nil {
		return nil
	}
	return &TokenUsage{
		PromptTokens:     uint32(response.UsageMetadata.PromptTokenCount),
		CompletionTokens: uint32(response.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      uint32(response.UsageMetadata.TotalTokenCount),
	}
}

// Verify GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)
