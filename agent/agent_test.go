package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/richinex/didact/llm"
	"github.com/richinex/didact/model"
	"github.com/richinex/didact/tools"
)

// scriptedProvider replays a fixed sequence of step results and records
// the conversation it was handed at each step.
type scriptedProvider struct {
	script []llm.StepResult
	err    error
	calls  int
	seen   [][]model.Message
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted-1" }

func (p *scriptedProvider) Generate(_ context.Context, _ []model.Message, _ string) (string, *llm.TokenUsage, error) {
	return "", nil, errors.New("not used")
}

func (p *scriptedProvider) GenerateWithTools(_ context.Context, contents []model.Message, _ []llm.ToolDeclaration, _ llm.ToolChoice) (llm.StepResult, error) {
	snapshot := make([]model.Message, len(contents))
	copy(snapshot, contents)
	p.seen = append(p.seen, snapshot)

	if p.err != nil {
		p.calls++
		return llm.StepResult{}, p.err
	}

	step := p.calls
	p.calls++
	if step >= len(p.script) {
		step = len(p.script) - 1
	}
	return p.script[step], nil
}

var _ llm.Provider = (*scriptedProvider)(nil)

func mathRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	registry := tools.NewRegistry()
	for _, tool := range []tools.Tool{tools.NewSumTool(), tools.NewIsPrimeTool(), tools.NewPrimesBetweenTool()} {
		if err := registry.Register(tool); err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}
	return registry
}

func userAsks(text string) []model.Message {
	return []model.Message{model.TextMessage(model.RoleUser, text)}
}

func TestRunDirectAnswer(t *testing.T) {
	provider := &scriptedProvider{script: []llm.StepResult{
		{Text: "Hello there."},
	}}

	result, err := New(provider, mathRegistry(t)).Run(context.Background(), userAsks("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "Hello there." {
		t.Errorf("unexpected text: %q", result.Text)
	}
	if result.Exhausted {
		t.Error("should not be exhausted")
	}
	if result.LLMCalls != 1 || provider.calls != 1 {
		t.Errorf("expected 1 model call, got %d", provider.calls)
	}
	if len(result.ToolCalls) != 0 {
		t.Errorf("expected no tool calls, got %d", len(result.ToolCalls))
	}
}

func TestRunPrimalityRoundTrip(t *testing.T) {
	provider := &scriptedProvider{script: []llm.StepResult{
		{Calls: []model.FunctionCall{{Name: "is_prime", Args: map[string]any{"n": 97.0}}}},
		{Text: "Yes, 97 is prime."},
	}}

	result, err := New(provider, mathRegistry(t)).Run(context.Background(), userAsks("Is 97 prime?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "Yes, 97 is prime." {
		t.Errorf("unexpected text: %q", result.Text)
	}
	if provider.calls != 2 {
		t.Fatalf("expected 2 model calls, got %d", provider.calls)
	}

	// The second model call must see: user question, model echo of the
	// call, user turn carrying the wrapped tool outcome.
	second := provider.seen[1]
	if len(second) != 3 {
		t.Fatalf("expected 3 messages on second call, got %d", len(second))
	}
	echo := second[1]
	if echo.Role != model.RoleModel || echo.Parts[0].FunctionCall == nil ||
		echo.Parts[0].FunctionCall.Name != "is_prime" {
		t.Errorf("unexpected echo message: %+v", echo)
	}
	feedback := second[2]
	if feedback.Role != model.RoleUser || feedback.Parts[0].FunctionResponse == nil {
		t.Fatalf("unexpected feedback message: %+v", feedback)
	}
	response := feedback.Parts[0].FunctionResponse
	if response.Name != "is_prime" {
		t.Errorf("unexpected response name: %q", response.Name)
	}
	wrapped, ok := response.Response["result"].(map[string]any)
	if !ok {
		t.Fatalf("outcome not wrapped under result: %v", response.Response)
	}
	if wrapped["isPrime"] != true {
		t.Errorf("expected isPrime true, got %v", wrapped["isPrime"])
	}

	if len(result.ToolCalls) != 1 || !result.ToolCalls[0].Success {
		t.Errorf("unexpected tool call metrics: %+v", result.ToolCalls)
	}
}

func TestRunExhaustsStepCeiling(t *testing.T) {
	provider := &scriptedProvider{script: []llm.StepResult{
		{Calls: []model.FunctionCall{{Name: "calc_sum", Args: map[string]any{"numbers": []any{1.0}}}}},
	}}

	result, err := New(provider, mathRegistry(t)).Run(context.Background(), userAsks("loop forever"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Exhausted {
		t.Fatal("expected exhausted result")
	}
	if provider.calls != DefaultMaxSteps {
		t.Errorf("expected exactly %d model calls, got %d", DefaultMaxSteps, provider.calls)
	}
	if !strings.Contains(result.Text, "maximum number of tool-call steps") {
		t.Errorf("unexpected exhaustion text: %q", result.Text)
	}
	if len(result.ToolCalls) != DefaultMaxSteps {
		t.Errorf("expected %d tool calls, got %d", DefaultMaxSteps, len(result.ToolCalls))
	}
}

func TestRunCustomStepCeiling(t *testing.T) {
	provider := &scriptedProvider{script: []llm.StepResult{
		{Calls: []model.FunctionCall{{Name: "calc_sum", Args: map[string]any{"numbers": []any{1.0}}}}},
	}}

	result, err := New(provider, mathRegistry(t)).
		WithMaxSteps(2).
		Run(context.Background(), userAsks("loop"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Exhausted || provider.calls != 2 {
		t.Errorf("expected exhaustion after 2 calls, got exhausted=%v calls=%d", result.Exhausted, provider.calls)
	}
}

func TestRunUnknownToolFeedsErrorBack(t *testing.T) {
	provider := &scriptedProvider{script: []llm.StepResult{
		{Calls: []model.FunctionCall{{Name: "launch_rocket", Args: map[string]any{}}}},
		{Text: "I cannot do that."},
	}}

	result, err := New(provider, mathRegistry(t)).Run(context.Background(), userAsks("launch"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "I cannot do that." {
		t.Errorf("unexpected text: %q", result.Text)
	}

	feedback := provider.seen[1][2].Parts[0].FunctionResponse
	wrapped := feedback.Response["result"].(map[string]any)
	if wrapped["error"] != "Unknown function: launch_rocket" {
		t.Errorf("unexpected outcome: %v", wrapped)
	}
	if result.ToolCalls[0].Success {
		t.Error("unknown tool must not count as success")
	}
}

func TestRunToolErrorFeedsErrorBack(t *testing.T) {
	provider := &scriptedProvider{script: []llm.StepResult{
		{Calls: []model.FunctionCall{{Name: "calc_sum", Args: map[string]any{"numbers": "oops"}}}},
		{Text: "The input was invalid."},
	}}

	result, err := New(provider, mathRegistry(t)).Run(context.Background(), userAsks("sum"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "The input was invalid." {
		t.Errorf("unexpected text: %q", result.Text)
	}

	feedback := provider.seen[1][2].Parts[0].FunctionResponse
	wrapped := feedback.Response["result"].(map[string]any)
	if wrapped["error"] != "numbers must be an array of numbers." {
		t.Errorf("unexpected outcome: %v", wrapped)
	}
}

type panickyTool struct{}

func (panickyTool) Declaration() llm.ToolDeclaration {
	return llm.ToolDeclaration{Name: "panicky", Parameters: map[string]any{"type": "object"}}
}

func (panickyTool) Call(context.Context, map[string]any) (any, error) {
	panic("boom")
}

func TestRunContainsToolPanic(t *testing.T) {
	registry := tools.NewRegistry()
	if err := registry.Register(panickyTool{}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	provider := &scriptedProvider{script: []llm.StepResult{
		{Calls: []model.FunctionCall{{Name: "panicky", Args: map[string]any{}}}},
		{Text: "Something went wrong with that tool."},
	}}

	result, err := New(provider, registry).Run(context.Background(), userAsks("go"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	feedback := provider.seen[1][2].Parts[0].FunctionResponse
	wrapped := feedback.Response["result"].(map[string]any)
	if !strings.Contains(wrapped["error"].(string), "panicked") {
		t.Errorf("unexpected outcome: %v", wrapped)
	}
	if result.ToolCalls[0].Success {
		t.Error("panicking tool must not count as success")
	}
}

func TestRunEmptyAnswerFallback(t *testing.T) {
	provider := &scriptedProvider{script: []llm.StepResult{
		{Text: "   "},
	}}

	result, err := New(provider, mathRegistry(t)).Run(context.Background(), userAsks("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "I couldn't produce a response right now." {
		t.Errorf("unexpected fallback text: %q", result.Text)
	}
}

func TestRunProviderErrorPropagates(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("upstream down")}

	_, err := New(provider, mathRegistry(t)).Run(context.Background(), userAsks("hi"))
	if err == nil || !strings.Contains(err.Error(), "upstream down") {
		t.Fatalf("expected propagated provider error, got %v", err)
	}
}

func TestRunDoesNotMutateCallerHistory(t *testing.T) {
	provider := &scriptedProvider{script: []llm.StepResult{
		{Calls: []model.FunctionCall{{Name: "is_prime", Args: map[string]any{"n": 7.0}}}},
		{Text: "7 is prime."},
	}}

	history := make([]model.Message, 1, 8)
	history[0] = model.TextMessage(model.RoleUser, "Is 7 prime?")

	result, err := New(provider, mathRegistry(t)).Run(context.Background(), history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("caller history length changed: %d", len(history))
	}
	if history[0].Text() != "Is 7 prime?" {
		t.Errorf("caller history content changed: %+v", history[0])
	}

	// The run's own transcript carries question, echo, outcome, answer.
	if len(result.Messages) != 4 {
		t.Errorf("expected 4 transcript messages, got %d", len(result.Messages))
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &scriptedProvider{script: []llm.StepResult{{Text: "never"}}}
	_, err := New(provider, mathRegistry(t)).Run(ctx, userAsks("hi"))
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
