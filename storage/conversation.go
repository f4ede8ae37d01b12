// Package storage provides conversation storage abstraction.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Each storage implementation encapsulates its own data structures

package storage

import (
	"context"

	"github.com/richinex/didact/model"
)

// ConversationStorage defines the interface for storing conversation
// transcripts keyed by session.
type ConversationStorage interface {
	// Save replaces the transcript for a session.
	Save(ctx context.Context, sessionID string, history []model.Message) error

	// Load returns the transcript for a session.
	// Returns empty slice (not nil) if the session doesn't exist.
	// Returns error only for storage failures, not missing sessions.
	Load(ctx context.Context, sessionID string) ([]model.Message, error)

	// Delete removes the session and its transcript.
	Delete(ctx context.Context, sessionID string) error

	// ListSessions lists all session IDs.
	ListSessions(ctx context.Context) ([]string, error)

	// Exists checks if a session exists.
	Exists(ctx context.Context, sessionID string) (bool, error)
}
