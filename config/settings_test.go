package config

import (
	"os"
	"testing"
)

func TestNewValidProvider(t *testing.T) {
	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", settings.LLM.Provider)
	}
}

func TestNewWithAlias(t *testing.T) {
	settings, err := New("claude")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "anthropic" {
		t.Errorf("expected provider 'anthropic' (normalized from 'claude'), got %q", settings.LLM.Provider)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("unknown_provider")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestAPIKeyForValidProvider(t *testing.T) {
	original := os.Getenv("OPENAI_API_KEY")
	os.Setenv("OPENAI_API_KEY", "test-key")
	defer os.Setenv("OPENAI_API_KEY", original)

	key, err := APIKeyFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "test-key" {
		t.Errorf("expected 'test-key', got %q", key)
	}
}

func TestAPIKeyForMissing(t *testing.T) {
	original := os.Getenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	defer os.Setenv("OPENAI_API_KEY", original)

	_, err := APIKeyFor("openai")
	if err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestAPIKeyForUnknownProvider(t *testing.T) {
	_, err := APIKeyFor("unknown")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestModelFor(t *testing.T) {
	model, err := ModelFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model == "" {
		t.Error("expected non-empty model")
	}
}

func TestNewWithInvalidEnvVar(t *testing.T) {
	original := os.Getenv("LLM_MAX_TOKENS")
	os.Setenv("LLM_MAX_TOKENS", "not-a-number")
	defer os.Setenv("LLM_MAX_TOKENS", original)

	_, err := New("openai")
	if err == nil {
		t.Error("expected error for invalid LLM_MAX_TOKENS")
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for unknown provider")
		}
	}()
	MustNew("unknown_provider")
}

func TestSupportedProviders(t *testing.T) {
	providers := SupportedProviders()
	if len(providers) == 0 {
		t.Error("expected at least one supported provider")
	}
}

func TestNewDefaults(t *testing.T) {
	for _, key := range []string{
		"AGENT_MAX_STEPS", "AGENT_TOOL_CHOICE", "TOOL_TIMEOUT_SECS",
		"SERVER_ADDR", "CHAT_PERSONA", "SESSION_DB_PATH",
	} {
		t.Setenv(key, "")
	}

	settings, err := New("gemini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Agent.MaxSteps != 6 {
		t.Errorf("expected default MaxSteps 6, got %d", settings.Agent.MaxSteps)
	}
	if settings.Agent.ToolChoice != "auto" {
		t.Errorf("expected default ToolChoice auto, got %q", settings.Agent.ToolChoice)
	}
	if settings.Tools.TimeoutSecs != 10 {
		t.Errorf("expected default TimeoutSecs 10, got %d", settings.Tools.TimeoutSecs)
	}
	if settings.Server.Addr != ":8080" {
		t.Errorf("expected default Addr :8080, got %q", settings.Server.Addr)
	}
	if settings.Server.PersonaPrompt != DefaultPersonaPrompt {
		t.Errorf("unexpected default persona: %q", settings.Server.PersonaPrompt)
	}
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("AGENT_MAX_STEPS", "3")
	t.Setenv("TOOL_TIMEOUT_SECS", "30")
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("CHAT_PERSONA", "You are a pirate.")

	settings, err := New("gemini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Agent.MaxSteps != 3 {
		t.Errorf("expected MaxSteps 3, got %d", settings.Agent.MaxSteps)
	}
	if settings.Tools.TimeoutSecs != 30 {
		t.Errorf("expected TimeoutSecs 30, got %d", settings.Tools.TimeoutSecs)
	}
	if settings.Server.Addr != ":9999" {
		t.Errorf("expected Addr :9999, got %q", settings.Server.Addr)
	}
	if settings.Server.PersonaPrompt != "You are a pirate." {
		t.Errorf("unexpected persona: %q", settings.Server.PersonaPrompt)
	}
}

func TestNewWithInvalidMaxSteps(t *testing.T) {
	t.Setenv("AGENT_MAX_STEPS", "six")

	_, err := New("gemini")
	if err == nil {
		t.Error("expected error for invalid AGENT_MAX_STEPS")
	}
}
