// Package tools provides tool management and registration.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Registration and discovery mechanisms abstracted

package tools

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/richinex/didact/llm"
)

// Registry manages available tools. The catalogue is built once at
// startup and is safe for unsynchronized concurrent reads thereafter.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a new tool to the registry.
// Returns error if a tool with the same name already exists.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Declaration().Name
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool '%s' already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// Has checks if a tool exists in the registry.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.tools[name]
	return exists
}

// Names returns all registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Declarations returns the declarations of all registered tools, sorted
// by name so the list sent to the model is deterministic.
func (r *Registry) Declarations() []llm.ToolDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	declarations := make([]llm.ToolDeclaration, 0, len(names))
	for _, name := range names {
		declarations = append(declarations, r.tools[name].Declaration())
	}
	return declarations
}

// DefaultToolTimeout bounds each upstream HTTP call made by a tool.
const DefaultToolTimeout = 10 * time.Second

// Defaults creates a registry with the standard tool catalogue.
// Returns error if any tool registration fails.
func Defaults(timeout time.Duration) (*Registry, error) {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}

	registry := NewRegistry()

	catalogue := []Tool{
		NewWeatherTool(timeout),
		NewWebSearchTool(timeout),
		NewCryptoPriceTool(timeout),
		NewSumTool(),
		NewIsPrimeTool(),
		NewPrimesBetweenTool(),
	}

	for _, t := range catalogue {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("failed to register default tools: %w", err)
		}
	}

	return registry, nil
}
