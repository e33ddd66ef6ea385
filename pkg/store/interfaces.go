package store

import (
	"context"
	"time"
)

// StateStore handles persistent application state.
// The same backing file may be written by sibling processes; callers that
// need to observe those writes poll StateVersion for a cheap change cursor.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error

	// StateVersion returns a monotonically increasing cursor that moves
	// whenever any state row is written, by this process or another.
	StateVersion(ctx context.Context) (int64, error)
}

// AuditEntry records one preset transition.
type AuditEntry struct {
	ID        int64
	Preset    string
	Source    string
	CreatedAt time.Time
}

// AuditStore handles the preset transition history.
type AuditStore interface {
	AppendAudit(ctx context.Context, preset, source string) error
	RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error)
}

// Store composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	StateStore
	AuditStore

	// Close closes the store connection.
	Close() error
}
