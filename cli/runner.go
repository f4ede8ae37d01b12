// Command execution for CLI commands.
//
// Information Hiding:
// - Provider and registry setup hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/richinex/didact/agent"
	"github.com/richinex/didact/config"
	"github.com/richinex/didact/llm"
	"github.com/richinex/didact/model"
	"github.com/richinex/didact/server"
	"github.com/richinex/didact/storage"
	"github.com/richinex/didact/tools"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	MaxSteps int
	Verbose  bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		MaxSteps: agent.DefaultMaxSteps,
	}
}

// NewLogger builds the tinted slog logger used across commands.
func NewLogger(output io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(output, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05.000Z07:00",
	})
	return slog.New(handler)
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, opts Options) error {
	settings, provider, err := setup(opts)
	if err != nil {
		return err
	}
	logger := NewLogger(os.Stderr, opts.Verbose)

	registry, err := tools.Defaults(time.Duration(settings.Tools.TimeoutSecs) * time.Second)
	if err != nil {
		return err
	}

	store, err := storage.OpenSqlite(settings.Server.SessionDBPath)
	if err != nil {
		return fmt.Errorf("failed to open session database: %w", err)
	}
	defer store.Close()

	runner := newAgent(provider, registry, settings, opts).WithLogger(logger)
	srv := server.New(runner, provider, store, settings.Server.PersonaPrompt, logger)

	httpServer := &http.Server{
		Addr:    settings.Server.Addr,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", settings.Server.Addr, "provider", provider.Name(), "model", provider.Model())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Ask runs a single question through the loop and prints the answer.
func Ask(ctx context.Context, question string, opts Options) error {
	settings, provider, err := setup(opts)
	if err != nil {
		return err
	}

	registry, err := tools.Defaults(time.Duration(settings.Tools.TimeoutSecs) * time.Second)
	if err != nil {
		return err
	}

	a := newAgent(provider, registry, settings, opts).
		WithLogger(NewLogger(os.Stderr, opts.Verbose))

	history := []model.Message{model.TextMessage(model.RoleUser, question)}
	result, err := a.Run(ctx, history)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", result.Text)
	if opts.Verbose {
		printRunStats(result)
	}
	return nil
}

// Chat starts an interactive session, optionally persisted to SQLite.
func Chat(ctx context.Context, sessionID string, opts Options) error {
	settings, provider, err := setup(opts)
	if err != nil {
		return err
	}

	registry, err := tools.Defaults(time.Duration(settings.Tools.TimeoutSecs) * time.Second)
	if err != nil {
		return err
	}

	a := newAgent(provider, registry, settings, opts).
		WithLogger(NewLogger(os.Stderr, opts.Verbose))

	var store storage.ConversationStorage
	if sessionID != "" {
		s, err := storage.OpenSqlite(settings.Server.SessionDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer s.Close()
		store = s
	}

	var history []model.Message
	if store != nil {
		history, err = store.Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if len(history) > 0 {
			fmt.Printf("Resuming session '%s' (%d messages)\n\n", sessionID, len(history))
		}
	}

	fmt.Printf("Chat using %s (%s). Type 'exit' to quit.\n\n", provider.Name(), provider.Model())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		result, err := a.Run(ctx, append(history, model.TextMessage(model.RoleUser, input)))
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
			continue
		}

		fmt.Printf("\n%s\n\n", result.Text)
		history = result.Messages

		if store != nil {
			if err := store.Save(ctx, sessionID, history); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save history: %v\n", err)
			}
		}
	}

	return scanner.Err()
}

// ListTools prints the default tool catalogue.
func ListTools(verbose bool) error {
	registry, err := tools.Defaults(tools.DefaultToolTimeout)
	if err != nil {
		return err
	}

	fmt.Println("Available tools:")
	fmt.Println()
	for _, decl := range registry.Declarations() {
		fmt.Printf("  %s\n", decl.Name)
		fmt.Printf("    %s\n", decl.Description)

		if verbose {
			if properties, ok := decl.Parameters["properties"].(map[string]any); ok && len(properties) > 0 {
				required := map[string]bool{}
				if names, ok := decl.Parameters["required"].([]string); ok {
					for _, name := range names {
						required[name] = true
					}
				}
				fmt.Println("    Parameters:")
				for name, raw := range properties {
					spec, _ := raw.(map[string]any)
					marker := ""
					if required[name] {
						marker = "*"
					}
					fmt.Printf("      %s%s: %v - %v\n", name, marker, spec["type"], spec["description"])
				}
			}
		}
		fmt.Println()
	}
	return nil
}

// Helper functions

func setup(opts Options) (config.Settings, llm.Provider, error) {
	provider, err := createProvider(opts.Provider)
	if err != nil {
		return config.Settings{}, nil, err
	}
	settings, err := config.New(opts.Provider)
	if err != nil {
		return config.Settings{}, nil, err
	}
	return settings, provider, nil
}

func newAgent(provider llm.Provider, registry *tools.Registry, settings config.Settings, opts Options) *agent.Agent {
	maxSteps := settings.Agent.MaxSteps
	if opts.MaxSteps > 0 {
		maxSteps = opts.MaxSteps
	}
	return agent.New(provider, registry).
		WithMaxSteps(maxSteps).
		WithToolChoice(llm.ToolChoice{Mode: llm.ToolChoiceMode(settings.Agent.ToolChoice)})
}

func createProvider(providerName string) (llm.Provider, error) {
	if providerName == "" {
		return nil, fmt.Errorf("--provider is required for this command")
	}

	providerType, err := llm.ParseProviderType(providerName)
	if err != nil {
		return nil, err
	}

	settings, err := config.New(providerName)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(providerName)
	if err != nil {
		return nil, err
	}

	return providerType.
		Model(settings.LLM.Model).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		APIKey(apiKey)
}

func printRunStats(result agent.Result) {
	fmt.Printf("\n(%d model calls, %d tool calls", result.LLMCalls, len(result.ToolCalls))
	if result.Usage.TotalTokens > 0 {
		fmt.Printf(", %d tokens", result.Usage.TotalTokens)
	}
	fmt.Printf(", %dms)\n", result.DurationMs)
	for _, call := range result.ToolCalls {
		status := "ok"
		if !call.Success {
			status = "failed"
		}
		fmt.Printf("  %s: %s in %dms\n", call.Name, status, call.DurationMs)
	}
}
