package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"argusgo/pkg/notify"
	"argusgo/pkg/store"
)

// Origin tags changes discovered by the watcher on the bus.
const Origin = "external"

// DefaultInterval is used when no poll interval is configured.
const DefaultInterval = 2 * time.Second

// Service monitors the shared state file for writes made by sibling
// processes and republishes them on the bus. Writes made through this
// process also move the cursor; the resulting self-echoes carry the
// same value and are absorbed downstream.
type Service struct {
	st       store.StateStore
	bus      *notify.Bus
	keys     []string
	interval time.Duration

	mu      sync.Mutex
	cursor  int64
	lastVal map[string]string
}

// NewService creates a watcher for the given state keys.
func NewService(st store.StateStore, bus *notify.Bus, interval time.Duration, keys ...string) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{
		st:       st,
		bus:      bus,
		keys:     keys,
		interval: interval,
		lastVal:  make(map[string]string),
	}
}

// Start seeds the cursor and polls until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.seed(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("Watcher: monitoring state keys", "keys", s.keys, "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Service) seed(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.st.StateVersion(ctx)
	if err != nil {
		slog.Warn("Watcher: failed to read state cursor", "error", err)
	}
	s.cursor = v
	for _, key := range s.keys {
		val, _ := s.st.GetState(ctx, key)
		s.lastVal[key] = val
	}
}

// poll publishes a change for every watched key whose value moved since
// the last check. Exported indirectly through Start; called once per tick.
func (s *Service) poll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.st.StateVersion(ctx)
	if err != nil {
		slog.Warn("Watcher: failed to read state cursor", "error", err)
		return
	}
	if v == s.cursor {
		return
	}
	s.cursor = v

	for _, key := range s.keys {
		val, _ := s.st.GetState(ctx, key)
		if val == s.lastVal[key] {
			continue
		}
		s.lastVal[key] = val
		slog.Info("Watcher: state changed on disk", "key", key, "value", val)
		s.bus.Publish(notify.Change{Key: key, Value: val, Origin: Origin})
	}
}

// CheckNow runs a single poll outside the ticker loop, so callers can
// observe a write without waiting out the interval.
func (s *Service) CheckNow(ctx context.Context) {
	s.poll(ctx)
}
