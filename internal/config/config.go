package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	UDP      UDPConfig      `yaml:"udp"`
	WS       WSConfig       `yaml:"ws"`
	SimAPI   SimAPIConfig   `yaml:"simapi"`
	Liveness LivenessConfig `yaml:"liveness"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
	Log      LogConfig      `yaml:"log"`
}

type UDPConfig struct {
	// Listen is the telemetry bind address, all interfaces by default.
	Listen string `yaml:"listen"`
}

type WSConfig struct {
	Listen string `yaml:"listen"`
}

type SimAPIConfig struct {
	// Dir overrides the per-platform SayIntentionsAI directory.
	Dir string `yaml:"dir"`
	// ATCID is the callsign written to the SimAPI file.
	ATCID string `yaml:"atc_id"`
	// WriteInterval is the minimum spacing between file writes.
	WriteInterval time.Duration `yaml:"write_interval"`
}

type LivenessConfig struct {
	// Timeout is the silence window before the simulator is reported
	// disconnected.
	Timeout time.Duration `yaml:"timeout"`
	// Period is the evaluation interval while clients are connected.
	Period time.Duration `yaml:"period"`
}

type ShutdownConfig struct {
	// Command, when set, is run on a shutdown request to terminate the
	// simulator process. Its outcome is logged, not interpreted.
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type LogConfig struct {
	// File enables a rotating on-disk log in addition to stderr.
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

func Default() Config {
	return Config{
		UDP:      UDPConfig{Listen: ":49002"},
		WS:       WSConfig{Listen: ":8765"},
		SimAPI:   SimAPIConfig{ATCID: "N250VB", WriteInterval: 750 * time.Millisecond},
		Liveness: LivenessConfig{Timeout: 5 * time.Second, Period: 2 * time.Second},
		Log:      LogConfig{MaxSizeMB: 32},
	}
}

// Load reads the YAML config at path and applies defaults. A missing
// file is not an error: the bridge runs usefully with zero config.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.UDP.Listen == "" {
		cfg.UDP.Listen = ":49002"
	}
	if cfg.WS.Listen == "" {
		cfg.WS.Listen = ":8765"
	}
	if cfg.SimAPI.ATCID == "" {
		cfg.SimAPI.ATCID = "N250VB"
	}
	if cfg.SimAPI.WriteInterval == 0 {
		cfg.SimAPI.WriteInterval = 750 * time.Millisecond
	}
	if cfg.SimAPI.WriteInterval < 0 {
		return Config{}, fmt.Errorf("simapi.write_interval must be > 0")
	}
	if cfg.Liveness.Timeout == 0 {
		cfg.Liveness.Timeout = 5 * time.Second
	}
	if cfg.Liveness.Period == 0 {
		cfg.Liveness.Period = 2 * time.Second
	}
	if cfg.Liveness.Timeout < 0 || cfg.Liveness.Period < 0 {
		return Config{}, fmt.Errorf("liveness.timeout and liveness.period must be > 0")
	}
	if cfg.Shutdown.Command == "" && len(cfg.Shutdown.Args) > 0 {
		return Config{}, fmt.Errorf("shutdown.args requires shutdown.command")
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 32
	}

	return cfg, nil
}
