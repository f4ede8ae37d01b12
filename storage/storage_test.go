package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/richinex/didact/model"
)

func sampleTranscript() []model.Message {
	return []model.Message{
		model.TextMessage(model.RoleUser, "Is 97 prime?"),
		model.FunctionCallMessage(model.FunctionCall{
			Name: "is_prime",
			Args: map[string]any{"n": 97.0},
		}),
		model.FunctionResponseMessage("is_prime", map[string]any{"n": 97.0, "isPrime": true}),
		model.TextMessage(model.RoleModel, "Yes, 97 is prime."),
	}
}

// conversationStorageTests exercises the ConversationStorage contract
// against any implementation.
func conversationStorageTests(t *testing.T, store ConversationStorage) {
	ctx := context.Background()

	// Missing session loads as empty, not error.
	history, err := store.Load(ctx, "missing")
	if err != nil {
		t.Fatalf("load of missing session failed: %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Fatalf("expected empty slice for missing session, got %v", history)
	}

	exists, err := store.Exists(ctx, "s1")
	if err != nil || exists {
		t.Fatalf("expected s1 to not exist, got exists=%v err=%v", exists, err)
	}

	transcript := sampleTranscript()
	if err := store.Save(ctx, "s1", transcript); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	exists, err = store.Exists(ctx, "s1")
	if err != nil || !exists {
		t.Fatalf("expected s1 to exist, got exists=%v err=%v", exists, err)
	}

	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded) != len(transcript) {
		t.Fatalf("expected %d messages, got %d", len(transcript), len(loaded))
	}
	if loaded[0].Role != model.RoleUser || loaded[0].Text() != "Is 97 prime?" {
		t.Errorf("first message did not round-trip: %+v", loaded[0])
	}
	call := loaded[1].Parts[0].FunctionCall
	if call == nil || call.Name != "is_prime" {
		t.Fatalf("function call did not round-trip: %+v", loaded[1])
	}
	if call.Args["n"] != 97.0 {
		t.Errorf("function call args did not round-trip: %v", call.Args)
	}
	response := loaded[2].Parts[0].FunctionResponse
	if response == nil || response.Name != "is_prime" {
		t.Fatalf("function response did not round-trip: %+v", loaded[2])
	}

	// Save replaces, not appends.
	shorter := transcript[:1]
	if err := store.Save(ctx, "s1", shorter); err != nil {
		t.Fatalf("re-save failed: %v", err)
	}
	loaded, err = store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load after re-save failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 message after replacement, got %d", len(loaded))
	}

	if err := store.Save(ctx, "s2", transcript); err != nil {
		t.Fatalf("save s2 failed: %v", err)
	}
	sessions, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %v", sessions)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	exists, err = store.Exists(ctx, "s1")
	if err != nil || exists {
		t.Fatalf("expected s1 gone after delete, got exists=%v err=%v", exists, err)
	}
	history, err = store.Load(ctx, "s1")
	if err != nil || len(history) != 0 {
		t.Fatalf("expected empty transcript after delete, got %v err=%v", history, err)
	}
}

func TestInMemoryStorage(t *testing.T) {
	conversationStorageTests(t, NewInMemoryStorage())
}

func TestSqliteStorage(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("failed to create in-memory SQLite: %v", err)
	}
	defer store.Close()

	conversationStorageTests(t, store)
}

func TestSqliteStorageFileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "didact.db")

	store, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("failed to open SQLite at %s: %v", path, err)
	}

	ctx := context.Background()
	if err := store.Save(ctx, "persisted", sampleTranscript()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Reopen and verify the transcript survived.
	reopened, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "persisted")
	if err != nil {
		t.Fatalf("load after reopen failed: %v", err)
	}
	if len(loaded) != 4 {
		t.Fatalf("expected 4 messages after reopen, got %d", len(loaded))
	}
}

func TestInMemoryStorageIsolation(t *testing.T) {
	store := NewInMemoryStorage()
	ctx := context.Background()

	original := sampleTranscript()
	if err := store.Save(ctx, "s", original); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Mutating the caller's slice must not affect the stored copy.
	original[0] = model.TextMessage(model.RoleUser, "overwritten")

	loaded, err := store.Load(ctx, "s")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded[0].Text() != "Is 97 prime?" {
		t.Errorf("stored transcript was mutated through caller slice: %q", loaded[0].Text())
	}
}
