// Local computational tools: summation and primality.
//
// These tools do no I/O and never suspend; they validate argument types
// strictly rather than coercing (fractional or infinite inputs are
// rejected, not truncated).

package tools

import (
	"context"
	"errors"
	"math"

	"github.com/richinex/didact/llm"
)

// maxPrimesLimit is the hard cap on primes returned in one call.
const maxPrimesLimit = 500

// SumTool adds a list of numbers.
type SumTool struct{}

// NewSumTool creates the summation tool.
func NewSumTool() *SumTool {
	return &SumTool{}
}

// Declaration returns the schema advertised to the model.
func (t *SumTool) Declaration() llm.ToolDeclaration {
	return llm.ToolDeclaration{
		Name:        "calc_sum",
		Description: "Returns the sum for a list of numbers.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"numbers": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "number"},
					"description": "Array of numbers to add.",
				},
			},
			"required": []string{"numbers"},
		},
	}
}

// Call sums the numbers after a strict element-wise type check.
func (t *SumTool) Call(_ context.Context, args map[string]any) (any, error) {
	raw, ok := args["numbers"].([]any)
	if !ok {
		return nil, errors.New("numbers must be an array of numbers.")
	}

	sum := 0.0
	for _, v := range raw {
		n, ok := v.(float64)
		if !ok {
			return nil, errors.New("numbers must be an array of numbers.")
		}
		sum += n
	}

	return map[string]any{
		"sum":   sum,
		"count": len(raw),
	}, nil
}

// IsPrimeTool tests a single integer for primality.
type IsPrimeTool struct{}

// NewIsPrimeTool creates the primality tool.
func NewIsPrimeTool() *IsPrimeTool {
	return &IsPrimeTool{}
}

// Declaration returns the schema advertised to the model.
func (t *IsPrimeTool) Declaration() llm.ToolDeclaration {
	return llm.ToolDeclaration{
		Name:        "is_prime",
		Description: "Checks if a number is prime.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"n": map[string]any{
					"type":        "number",
					"description": "Integer to test.",
				},
			},
			"required": []string{"n"},
		},
	}
}

// Call tests n for primality.
func (t *IsPrimeTool) Call(_ context.Context, args map[string]any) (any, error) {
	raw, ok := numberArg(args, "n")
	if !ok || math.IsInf(raw, 0) || math.IsNaN(raw) || raw != math.Trunc(raw) || raw < 0 {
		return nil, errors.New("n must be a non-negative integer.")
	}

	n := int64(raw)
	return map[string]any{
		"n":       n,
		"isPrime": isPrime(n),
	}, nil
}

// PrimesBetweenTool enumerates primes in an inclusive range.
type PrimesBetweenTool struct{}

// NewPrimesBetweenTool creates the prime range tool.
func NewPrimesBetweenTool() *PrimesBetweenTool {
	return &PrimesBetweenTool{}
}

// Declaration returns the schema advertised to the model.
func (t *PrimesBetweenTool) Declaration() llm.ToolDeclaration {
	return llm.ToolDeclaration{
		Name:        "primes_between",
		Description: "Lists prime numbers in a range. Caps output to a reasonable limit.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start": map[string]any{
					"type":        "number",
					"description": "Start of range (inclusive).",
				},
				"end": map[string]any{
					"type":        "number",
					"description": "End of range (inclusive).",
				},
				"limit": map[string]any{
					"type":        "number",
					"description": "Max primes to return (default 100, max 500).",
				},
			},
			"required": []string{"start", "end"},
		},
	}
}

// Call enumerates primes in [start, end], stopping once the limit is
// reached. truncated reports whether primes beyond the cap remained in
// the range.
func (t *PrimesBetweenTool) Call(_ context.Context, args map[string]any) (any, error) {
	start, okStart := numberArg(args, "start")
	end, okEnd := numberArg(args, "end")
	if !okStart || !okEnd || start > end || start < 0 {
		return nil, errors.New("Invalid range. Provide start <= end, both >= 0.")
	}

	maxCount := 100
	if limit, ok := numberArg(args, "limit"); ok {
		maxCount = int(limit)
	}
	if maxCount < 1 {
		maxCount = 1
	}
	if maxCount > maxPrimesLimit {
		maxCount = maxPrimesLimit
	}

	primes := make([]int64, 0, maxCount)
	truncated := false
	for x := int64(start); x <= int64(end); x++ {
		if !isPrime(x) {
			continue
		}
		if len(primes) == maxCount {
			truncated = true
			break
		}
		primes = append(primes, x)
	}

	return map[string]any{
		"start":     int64(start),
		"end":       int64(end),
		"count":     len(primes),
		"primes":    primes,
		"truncated": truncated,
	}, nil
}

// isPrime tests primality by trial division up to floor(sqrt(n)),
// stepping by 2 after excluding even numbers.
func isPrime(n int64) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for i := int64(3); i*i <= n; i += 2 {
		if n%i == 0 {
			return false
		}
	}
	return true
}

// Verify the computational tools implement Tool
var (
	_ Tool = (*SumTool)(nil)
	_ Tool = (*IsPrimeTool)(nil)
	_ Tool = (*PrimesBetweenTool)(nil)
)
