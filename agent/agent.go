// Tool-calling loop implementation.
//
// All agentic execution goes through this module: the model decides which
// tools to call, the loop executes them and feeds the outcomes back, and
// the exchange repeats until the model answers in plain text or the step
// ceiling is hit.
//
// Information Hiding:
// - Loop internals hidden
// - LLM communication hidden
// - Tool dispatch and failure handling hidden

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/richinex/didact/llm"
	"github.com/richinex/didact/model"
	"github.com/richinex/didact/tools"
)

// DefaultMaxSteps bounds the number of model calls in one run.
const DefaultMaxSteps = 6

const (
	exhaustedAnswer = "I reached the maximum number of tool-call steps. Please ask again with more specifics."
	emptyAnswer     = "I couldn't produce a response right now."
)

// Agent drives the tool-calling loop against a single provider.
type Agent struct {
	provider llm.Provider
	registry *tools.Registry
	maxSteps int
	choice   llm.ToolChoice
	logger   *slog.Logger
}

// New creates an agent with the default step ceiling and free tool choice.
func New(provider llm.Provider, registry *tools.Registry) *Agent {
	return &Agent{
		provider: provider,
		registry: registry,
		maxSteps: DefaultMaxSteps,
		logger:   slog.Default(),
	}
}

// WithMaxSteps overrides the step ceiling. Values below 1 are ignored.
func (a *Agent) WithMaxSteps(n int) *Agent {
	if n >= 1 {
		a.maxSteps = n
	}
	return a
}

// WithToolChoice overrides the tool-choice policy sent to the model.
func (a *Agent) WithToolChoice(choice llm.ToolChoice) *Agent {
	a.choice = choice
	return a
}

// WithLogger overrides the logger.
func (a *Agent) WithLogger(logger *slog.Logger) *Agent {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Run executes the loop over the given history. The caller's slice is
// never mutated; every appended turn goes onto a private copy.
//
// Tool failures and unknown tool names are fed back to the model as error
// outcomes rather than aborting the run. Only model-call failures and
// context cancellation return an error.
func (a *Agent) Run(ctx context.Context, history []model.Message) (Result, error) {
	start := time.Now()

	conversation := make([]model.Message, len(history), len(history)+2*a.maxSteps+1)
	copy(conversation, history)

	declarations := a.registry.Declarations()

	var result Result
	for step := 0; step < a.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("run cancelled: %w", err)
		}

		stepResult, err := a.provider.GenerateWithTools(ctx, conversation, declarations, a.choice)
		if err != nil {
			return Result{}, fmt.Errorf("model call failed: %w", err)
		}
		result.LLMCalls++
		result.Steps++
		result.Usage.Add(stepResult.Usage)

		if stepResult.IsFinal() {
			text := stepResult.Text
			if strings.TrimSpace(text) == "" {
				text = emptyAnswer
			}
			conversation = append(conversation, model.TextMessage(model.RoleModel, text))

			result.Text = text
			result.Messages = conversation
			result.DurationMs = uint64(time.Since(start).Milliseconds())
			return result, nil
		}

		a.logger.Debug("model requested tools",
			"step", step+1,
			"calls", len(stepResult.Calls))

		// Echo the calls as a model turn, then answer them all in a
		// single user turn, preserving call order.
		echoParts := make([]model.Part, 0, len(stepResult.Calls))
		responseParts := make([]model.Part, 0, len(stepResult.Calls))
		for _, call := range stepResult.Calls {
			call := call
			echoParts = append(echoParts, model.Part{FunctionCall: &call})

			outcome, metric := a.dispatch(ctx, call)
			result.ToolCalls = append(result.ToolCalls, metric)
			responseParts = append(responseParts, model.Part{
				FunctionResponse: &model.FunctionResponse{
					Name:     call.Name,
					Response: map[string]any{"result": outcome},
				},
			})
		}
		conversation = append(conversation,
			model.Message{Role: model.RoleModel, Parts: echoParts},
			model.Message{Role: model.RoleUser, Parts: responseParts},
		)
	}

	conversation = append(conversation, model.TextMessage(model.RoleModel, exhaustedAnswer))

	result.Text = exhaustedAnswer
	result.Exhausted = true
	result.Messages = conversation
	result.DurationMs = uint64(time.Since(start).Milliseconds())

	a.logger.Warn("step ceiling reached", "max_steps", a.maxSteps)
	return result, nil
}

// dispatch runs a single tool call and reduces every failure mode to an
// error outcome the model can read.
func (a *Agent) dispatch(ctx context.Context, call model.FunctionCall) (any, model.ToolCall) {
	start := time.Now()
	if call.Args == nil {
		call.Args = map[string]any{}
	}
	metric := model.ToolCall{Name: call.Name}
	if encoded, err := json.Marshal(call.Args); err == nil {
		metric.InputSize = len(encoded)
	}

	var outcome any
	tool, ok := a.registry.Get(call.Name)
	if !ok {
		outcome = map[string]any{"error": fmt.Sprintf("Unknown function: %s", call.Name)}
		a.logger.Warn("unknown tool requested", "tool", call.Name)
	} else if out, err := safeCall(ctx, tool, call.Args); err != nil {
		outcome = map[string]any{"error": err.Error()}
		a.logger.Warn("tool failed", "tool", call.Name, "error", err)
	} else {
		outcome = out
		metric.Success = true
	}

	if encoded, err := json.Marshal(outcome); err == nil {
		metric.OutputSize = len(encoded)
	}
	metric.DurationMs = uint64(time.Since(start).Milliseconds())

	a.logger.Debug("tool executed",
		"tool", call.Name,
		"success", metric.Success,
		"duration_ms", metric.DurationMs)
	return outcome, metric
}

// safeCall invokes the tool with panic containment so a misbehaving tool
// cannot take down the run.
func safeCall(ctx context.Context, tool tools.Tool, args map[string]any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return tool.Call(ctx, args)
}
