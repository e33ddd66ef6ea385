package maintenance

import (
	"context"
	"log/slog"
	"time"

	"argusgo/pkg/db"
	"argusgo/pkg/preset"
	"argusgo/pkg/store"
)

const lastRunStateKey = "maintenance_last_run"

// Run executes all maintenance tasks: audit pruning and state repair.
// Failures are logged, never fatal; a skipped maintenance pass only
// means a slightly larger database. It blocks until completion.
func Run(ctx context.Context, s store.Store, d *db.DB, auditRetention time.Duration) error {
	slog.Info("Starting database maintenance...")

	if err := pruneAudit(d, auditRetention); err != nil {
		slog.Error("Audit pruning failed", "error", err)
	} else {
		slog.Info("Audit pruning completed")
	}

	if err := repairPreset(ctx, s); err != nil {
		slog.Error("Preset repair failed", "error", err)
	}

	if err := s.SetState(ctx, lastRunStateKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		slog.Warn("Failed to record maintenance timestamp", "error", err)
	}

	return nil
}

func pruneAudit(d *db.DB, retention time.Duration) error {
	if retention <= 0 {
		return nil // Retention disabled, keep everything
	}
	return d.PruneAudit(retention)
}

// repairPreset deletes a corrupt persisted preset so every consumer
// falls back to the default instead of re-logging the same warning
// forever. Valid values are left untouched.
func repairPreset(ctx context.Context, s store.Store) error {
	raw, ok := s.GetState(ctx, preset.Key)
	if !ok {
		return nil
	}
	if _, valid := preset.Parse(raw); valid {
		return nil
	}

	slog.Warn("Removing corrupt persisted preset", "value", raw)
	return s.DeleteState(ctx, preset.Key)
}
