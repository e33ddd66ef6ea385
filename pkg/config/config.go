package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	Radar  RadarConfig  `yaml:"radar"`
	Watch  WatchConfig  `yaml:"watch"`
	Audit  AuditConfig  `yaml:"audit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// RadarConfig holds the radar site defaults. The persistent store may
// override them at runtime (see Provider).
type RadarConfig struct {
	SiteLat        float64 `yaml:"site_lat"`
	SiteLon        float64 `yaml:"site_lon"`
	CellResolution int     `yaml:"cell_resolution"`
	RangeRingUnits string  `yaml:"range_ring_units"` // "km", "nm"
}

// WatchConfig holds settings for the external state watcher.
type WatchConfig struct {
	Interval Duration `yaml:"interval"`
}

// AuditConfig holds settings for the preset audit trail.
type AuditConfig struct {
	Retention Duration `yaml:"retention"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost:1948",
		},
		DB: DBConfig{
			Path: "./data/argus.db",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		Radar: RadarConfig{
			SiteLat:        50.0379,
			SiteLon:        8.5622,
			CellResolution: 5,
			RangeRingUnits: "km",
		},
		Watch: WatchConfig{
			Interval: Duration(2 * time.Second),
		},
		Audit: AuditConfig{
			Retention: Duration(30 * Day),
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does
// NOT save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		applyEnvFallbacks(cfg)

		if err := validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	// If file does not exist, save defaults
	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnvFallbacks(cfg)

	return cfg, validate(cfg)
}

// applyEnvFallbacks fills empty fields from the environment (populated
// via .env in main). Values from the file always win.
func applyEnvFallbacks(cfg *Config) {
	if cfg.Server.Address == "" {
		if addr := os.Getenv("ARGUS_ADDR"); addr != "" {
			cfg.Server.Address = addr
		}
	}
	if cfg.DB.Path == "" {
		if path := os.Getenv("ARGUS_DB_PATH"); path != "" {
			cfg.DB.Path = path
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Radar.SiteLat < -90 || cfg.Radar.SiteLat > 90 {
		return fmt.Errorf("invalid site_lat %f: must be within [-90, 90]", cfg.Radar.SiteLat)
	}
	if cfg.Radar.SiteLon < -180 || cfg.Radar.SiteLon > 180 {
		return fmt.Errorf("invalid site_lon %f: must be within [-180, 180]", cfg.Radar.SiteLon)
	}
	if cfg.Radar.CellResolution < 0 || cfg.Radar.CellResolution > 15 {
		return fmt.Errorf("invalid cell_resolution %d: must be within [0, 15]", cfg.Radar.CellResolution)
	}
	if u := cfg.Radar.RangeRingUnits; u != "km" && u != "nm" {
		return fmt.Errorf("invalid range_ring_units %q: must be 'km' or 'nm'", u)
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# ArgusGo Configuration
# --------------------
# Supported Duration units: ns, us, ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	// Inject comments for enum-like fields so a hand-editing user sees
	// the accepted values.
	reUnits := regexp.MustCompile(`(?m)^(\s+)range_ring_units:`)
	data = reUnits.ReplaceAll(data, []byte("${1}# Options: km, nm\n${1}range_ring_units:"))

	reLevel := regexp.MustCompile(`(?m)^(\s+)level:`)
	data = reLevel.ReplaceAll(data, []byte("${1}# Options: DEBUG, INFO, WARN, ERROR\n${1}level:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault writes the default configuration to the path,
// overwriting any existing file.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
