// Package tools provides the tool system for the agent.
//
// Information Hiding:
// - Tool execution details hidden behind interface
// - Tool parameters and schemas hidden in implementations
// - Registry implementation details hidden from consumers
// - Error handling internalized per tool
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/richinex/didact/llm"
)

// Tool is the interface that all tools must implement.
//
// Call validates its own arguments and returns a JSON-serializable
// outcome. Expected failures (bad arguments, upstream errors, timeouts)
// are reported through the error return; the agent converts them into a
// structured {error} payload for the model, so a tool error never aborts
// an agent run.
type Tool interface {
	// Declaration returns the schema advertised to the model.
	Declaration() llm.ToolDeclaration

	// Call executes the tool with the given argument object.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ErrTimeout is returned by network tools when an upstream call exceeds
// its time bound. The model sees it as {error: "Timeout"}.
var ErrTimeout = errors.New("Timeout")

// stringArg extracts a non-empty string argument.
func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// numberArg extracts a numeric argument. JSON numbers decode as float64.
func numberArg(args map[string]any, key string) (float64, bool) {
	v, ok := args[key].(float64)
	return v, ok
}

// getJSON performs a GET request and decodes the JSON response body.
// Client timeouts and context deadlines surface as ErrTimeout.
func getJSON(ctx context.Context, client *http.Client, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return ErrTimeout
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}
