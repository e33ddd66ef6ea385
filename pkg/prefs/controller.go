package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"argusgo/pkg/notify"
	"argusgo/pkg/preset"
	"argusgo/pkg/store"
)

// ErrInvalidPreset is returned when SetPreset is called with a value
// outside the three canonical presets.
var ErrInvalidPreset = errors.New("invalid sensitivity preset")

// Audit source labels.
const (
	sourceLocal    = "local"
	sourceExternal = "external"
)

// Observer is called after every observable preset change with the new
// consistent (preset, policy) pair. No partial state is ever visible.
type Observer func(preset.Preset, preset.Policy)

// Controller owns the in-memory (preset, policy) pair for this process
// and keeps it consistent with the persisted store and with sibling
// contexts publishing on the bus.
//
// The policy is always exactly PolicyFor(preset); the pair is updated
// atomically under one lock.
type Controller struct {
	st    store.StateStore
	audit store.AuditStore
	sub   *notify.Subscription

	mu        sync.RWMutex
	cur       preset.Preset
	pol       preset.Policy
	observers []Observer

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a controller, reading the persisted preset once.
// A missing or unparseable stored value falls back to preset.Default.
// The controller subscribes to the bus for its entire lifetime; the
// caller must Close it. audit may be nil.
func New(ctx context.Context, st store.StateStore, audit store.AuditStore, bus *notify.Bus) *Controller {
	cur := preset.Default
	if raw, ok := st.GetState(ctx, preset.Key); ok {
		if p, valid := preset.Parse(raw); valid {
			cur = p
		} else {
			slog.Warn("Prefs: ignoring invalid persisted preset", "value", raw)
		}
	}

	c := &Controller{
		st:    st,
		audit: audit,
		sub:   bus.Subscribe(),
		cur:   cur,
		pol:   preset.PolicyFor(cur),
		done:  make(chan struct{}),
	}

	go c.drain()
	return c
}

// Preset returns the current preset.
func (c *Controller) Preset() preset.Preset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cur
}

// Policy returns the policy derived from the current preset.
func (c *Controller) Policy() preset.Policy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pol
}

// Snapshot returns the consistent (preset, policy) pair.
func (c *Controller) Snapshot() (preset.Preset, preset.Policy) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cur, c.pol
}

// Watch registers an observer for preset changes. Observers are called
// synchronously, in registration order, after the state is updated.
func (c *Controller) Watch(fn Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// SetPreset persists p, then updates the in-memory pair and notifies
// observers and the bus. If the persistence write fails the in-memory
// state is left untouched and the error is returned to the caller.
func (c *Controller) SetPreset(ctx context.Context, p preset.Preset) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPreset, p)
	}

	if err := c.st.SetState(ctx, preset.Key, p.String()); err != nil {
		return fmt.Errorf("failed to persist preset: %w", err)
	}

	c.mu.Lock()
	c.cur = p
	c.pol = preset.PolicyFor(p)
	pol := c.pol
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	c.recordAudit(ctx, p, sourceLocal)
	c.publish(p)
	slog.Debug("Prefs: preset updated", "preset", p)

	for _, fn := range observers {
		fn(p, pol)
	}
	return nil
}

// drain mirrors externally persisted changes into memory. This path
// never writes the store: the change is already durable.
func (c *Controller) drain() {
	defer close(c.done)
	for change := range c.sub.C() {
		c.applyExternal(change)
	}
}

func (c *Controller) applyExternal(change notify.Change) {
	if change.Key != preset.Key || change.Origin == c.sub.ID() {
		return
	}
	p, ok := preset.Parse(change.Value)
	if !ok {
		// Untrusted cross-context value; a missed update only means
		// stale local state, never corruption.
		return
	}

	c.mu.Lock()
	if p == c.cur {
		c.mu.Unlock()
		return
	}
	c.cur = p
	c.pol = preset.PolicyFor(p)
	pol := c.pol
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	c.recordAudit(context.Background(), p, sourceExternal)
	slog.Info("Prefs: preset updated externally", "preset", p)

	for _, fn := range observers {
		fn(p, pol)
	}
}

func (c *Controller) publish(p preset.Preset) {
	c.sub.Bus().Publish(notify.Change{
		Key:    preset.Key,
		Value:  p.String(),
		Origin: c.sub.ID(),
	})
}

func (c *Controller) recordAudit(ctx context.Context, p preset.Preset, source string) {
	if c.audit == nil {
		return
	}
	if err := c.audit.AppendAudit(ctx, p.String(), source); err != nil {
		slog.Error("Prefs: failed to record audit entry", "error", err)
	}
}

// Close releases the bus subscription and waits for in-flight
// deliveries to finish. Further external changes are ignored.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.sub.Close()
		<-c.done
	})
}
