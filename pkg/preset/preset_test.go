package preset

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Preset
		wantOK bool
	}{
		{"Conservative", "conservative", Conservative, true},
		{"Balanced", "balanced", Balanced, true},
		{"Aggressive", "aggressive", Aggressive, true},
		{"Empty", "", "", false},
		{"Unknown", "turbo", "", false},
		{"CaseSensitive", "Balanced", "", false},
		{"Whitespace", " balanced", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	if !Default.Valid() {
		t.Error("default preset must be valid")
	}
	if Preset("turbo").Valid() {
		t.Error("unknown preset must not be valid")
	}
}

func TestPolicyFor(t *testing.T) {
	// Deterministic: same input, same output.
	for _, p := range []Preset{Conservative, Balanced, Aggressive} {
		if PolicyFor(p) != PolicyFor(p) {
			t.Errorf("PolicyFor(%s) not deterministic", p)
		}
	}

	cons := PolicyFor(Conservative)
	bal := PolicyFor(Balanced)
	agg := PolicyFor(Aggressive)

	// Sensitivity ordering: aggressive sees more, further, faster.
	if !(agg.MinConfidence < bal.MinConfidence && bal.MinConfidence < cons.MinConfidence) {
		t.Errorf("MinConfidence ordering broken: %v %v %v", cons.MinConfidence, bal.MinConfidence, agg.MinConfidence)
	}
	if !(agg.MaxRangeKm > bal.MaxRangeKm && bal.MaxRangeKm > cons.MaxRangeKm) {
		t.Errorf("MaxRangeKm ordering broken: %v %v %v", cons.MaxRangeKm, bal.MaxRangeKm, agg.MaxRangeKm)
	}
	if !(agg.ScanInterval < bal.ScanInterval && bal.ScanInterval < cons.ScanInterval) {
		t.Errorf("ScanInterval ordering broken: %v %v %v", cons.ScanInterval, bal.ScanInterval, agg.ScanInterval)
	}
	if !(agg.MaxTracks > bal.MaxTracks && bal.MaxTracks > cons.MaxTracks) {
		t.Errorf("MaxTracks ordering broken: %d %d %d", cons.MaxTracks, bal.MaxTracks, agg.MaxTracks)
	}
	if agg.ClutterFilter {
		t.Error("aggressive preset should disable the clutter filter")
	}

	// Unknown presets fall back to the balanced policy.
	if PolicyFor(Preset("turbo")) != bal {
		t.Error("unknown preset should map to the balanced policy")
	}
}
