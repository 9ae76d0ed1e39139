// Package config loads and saves the host-side settings for running the
// keymap engine: tick cadence, container capacities, and the optional
// host feedback layers (chime, TUI, Bluetooth profile callbacks).
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// TimingConfig holds the scheduler's tick cadence.
type TimingConfig struct {
	MsPerTick uint8 `toml:"ms_per_tick"`
}

// CapacityConfig holds the engine's fixed-capacity container sizes.
type CapacityConfig struct {
	MaxPressedKeys    int `toml:"max_pressed_keys"`
	InputQueueSize    int `toml:"input_queue_size"`
	ScheduledHeapSize int `toml:"scheduled_heap_size"`
}

// ChimeConfig holds audible tap/hold/caps-word feedback settings.
type ChimeConfig struct {
	Enabled     bool    `toml:"enabled"`
	TapHz       float64 `toml:"tap_hz"`
	HoldHz      float64 `toml:"hold_hz"`
	CapsWordHz  float64 `toml:"caps_word_hz"`
	DurationMs  int     `toml:"duration_ms"`
}

// TUIConfig holds the host simulator visualizer's settings.
type TUIConfig struct {
	Enabled bool   `toml:"enabled"`
	Theme   string `toml:"theme"`
}

// BluetoothConfig holds the Bluetooth profile callback command set's
// host-side settings (the engine only emits the command; a real profile
// switch is this host's job).
type BluetoothConfig struct {
	Enabled      bool `toml:"enabled"`
	ProfileCount int  `toml:"profile_count"`
}

// Config is the top-level engine-host configuration.
type Config struct {
	Timing    TimingConfig    `toml:"timing"`
	Capacity  CapacityConfig  `toml:"capacity"`
	Chime     ChimeConfig     `toml:"chime"`
	TUI       TUIConfig       `toml:"tui"`
	Bluetooth BluetoothConfig `toml:"bluetooth"`
}

// Default returns a Config populated with all default values.
func Default() *Config {
	return &Config{
		Timing: TimingConfig{MsPerTick: 1},
		Capacity: CapacityConfig{
			MaxPressedKeys:    16,
			InputQueueSize:    32,
			ScheduledHeapSize: 256,
		},
		Chime: ChimeConfig{
			Enabled:    true,
			TapHz:      880,
			HoldHz:     440,
			CapsWordHz: 660,
			DurationMs: 60,
		},
		TUI: TUIConfig{
			Enabled: true,
			Theme:   "synthwave",
		},
		Bluetooth: BluetoothConfig{
			Enabled:      false,
			ProfileCount: 6,
		},
	}
}

// DefaultPath returns the default config file path
// (~/.config/keymap-sim/config.toml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "keymap-sim", "config.toml")
}

// Save writes the config as TOML to path, creating parent directories if
// needed. The write is atomic: data is written to a temporary file and
// renamed into place so a crash mid-write cannot corrupt the existing
// config.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".keymap-sim-config-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// Load reads the TOML config from path. If the file does not exist, it
// returns the default config without error.
func Load(path string) (*Config, error) {
	cfg := Default()

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	_, err = toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
