package config

import (
	"context"
	"strconv"

	"argusgo/pkg/store"
)

// Provider defines the interface for accessing unified configuration.
type Provider interface {
	SiteLat(ctx context.Context) float64
	SiteLon(ctx context.Context) float64
	CellResolution(ctx context.Context) int
	RangeRingUnits(ctx context.Context) string

	// Raw access (for components that need deep access)
	AppConfig() *Config
}

// UnifiedProvider implements Provider by bridging static Config and
// persistent Store.
type UnifiedProvider struct {
	base  *Config
	store store.StateStore
}

// NewProvider creates a new UnifiedProvider.
func NewProvider(base *Config, st store.StateStore) *UnifiedProvider {
	return &UnifiedProvider{
		base:  base,
		store: st,
	}
}

func (p *UnifiedProvider) AppConfig() *Config { return p.base }

// --- Implementations ---

func (p *UnifiedProvider) SiteLat(ctx context.Context) float64 {
	return p.getFloat64(ctx, KeySiteLat, p.base.Radar.SiteLat)
}

func (p *UnifiedProvider) SiteLon(ctx context.Context) float64 {
	return p.getFloat64(ctx, KeySiteLon, p.base.Radar.SiteLon)
}

func (p *UnifiedProvider) CellResolution(ctx context.Context) int {
	return p.getInt(ctx, KeyCellResolution, p.base.Radar.CellResolution)
}

func (p *UnifiedProvider) RangeRingUnits(ctx context.Context) string {
	fallback := p.base.Radar.RangeRingUnits
	if fallback == "" {
		fallback = "km"
	}
	val := p.getString(ctx, KeyRangeRingUnits, fallback)
	if val != "km" && val != "nm" {
		return fallback
	}
	return val
}

// --- Helpers ---

func (p *UnifiedProvider) getString(ctx context.Context, key, fallback string) string {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			return val
		}
	}
	return fallback
}

func (p *UnifiedProvider) getInt(ctx context.Context, key string, fallback int) int {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				return i
			}
		}
	}
	return fallback
}

func (p *UnifiedProvider) getFloat64(ctx context.Context, key string, fallback float64) float64 {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f
			}
		}
	}
	return fallback
}
