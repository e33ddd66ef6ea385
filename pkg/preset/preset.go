package preset

import "time"

// Preset is the user-selectable radar sensitivity level.
type Preset string

const (
	Conservative Preset = "conservative"
	Balanced     Preset = "balanced"
	Aggressive   Preset = "aggressive"
)

// Default is used when no preference has been persisted yet.
const Default = Balanced

// Key is the persistent state key holding the active preset.
const Key = "radar-sensitivity-preset"

// Parse converts an untrusted string into a Preset.
// Anything outside the three canonical values is rejected.
func Parse(s string) (Preset, bool) {
	switch Preset(s) {
	case Conservative, Balanced, Aggressive:
		return Preset(s), true
	}
	return "", false
}

// Valid reports whether p is one of the three canonical presets.
func (p Preset) Valid() bool {
	_, ok := Parse(string(p))
	return ok
}

func (p Preset) String() string { return string(p) }

// Policy holds the derived radar tuning for a preset.
// It is recomputed wholesale whenever the preset changes, never patched.
type Policy struct {
	// MinConfidence is the minimum track confidence to surface a contact.
	MinConfidence float64
	// MaxRangeKm is the detection range the UI draws coverage for.
	MaxRangeKm float64
	// ScanInterval is the sweep refresh period.
	ScanInterval time.Duration
	// TrackTimeout is how long a silent track is kept before dropping.
	TrackTimeout time.Duration
	// MaxTracks caps the number of simultaneous tracks.
	MaxTracks int
	// ClutterFilter suppresses low-confidence ground returns.
	ClutterFilter bool
}

// PolicyFor derives the sensitivity policy for a preset.
// Pure and total over the three canonical presets; unknown values
// (which cannot occur past the Parse boundary) map to the Default policy.
func PolicyFor(p Preset) Policy {
	switch p {
	case Conservative:
		return Policy{
			MinConfidence: 0.85,
			MaxRangeKm:    40,
			ScanInterval:  5 * time.Second,
			TrackTimeout:  10 * time.Second,
			MaxTracks:     16,
			ClutterFilter: true,
		}
	case Aggressive:
		return Policy{
			MinConfidence: 0.40,
			MaxRangeKm:    160,
			ScanInterval:  1 * time.Second,
			TrackTimeout:  60 * time.Second,
			MaxTracks:     256,
			ClutterFilter: false,
		}
	default:
		return Policy{
			MinConfidence: 0.65,
			MaxRangeKm:    80,
			ScanInterval:  2 * time.Second,
			TrackTimeout:  30 * time.Second,
			MaxTracks:     64,
			ClutterFilter: true,
		}
	}
}
