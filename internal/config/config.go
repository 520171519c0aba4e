package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"clicker/internal/keys"
	"clicker/internal/logging"
)

const (
	ActionClick = "click"
	ActionKey   = "key"
)

type Config struct {
	Interval       float64 `json:"Interval" yaml:"interval"`
	Benchmark      bool    `json:"Benchmark" yaml:"benchmark"`
	Hotkey         string  `json:"Hotkey" yaml:"hotkey"`
	StopHotkey     string  `json:"StopHotkey" yaml:"stop_hotkey"`
	Action         string  `json:"Action" yaml:"action"`
	Button         string  `json:"Button" yaml:"button"`
	Key            string  `json:"Key" yaml:"key"`
	HotKeyHook     bool    `json:"HotKeyHook" yaml:"hotkey_hook"`
	AutoStart      bool    `json:"AutoStart" yaml:"auto_start"`
	StatusInterval float64 `json:"StatusInterval" yaml:"status_interval"`
	Console        bool    `json:"Console" yaml:"console"`
	LogLevel       string  `json:"LogLevel" yaml:"log_level"`
	LogFormat      string  `json:"LogFormat" yaml:"log_format"`
	DEBUG          bool    `json:"DEBUG" yaml:"debug"`
}

func Default() Config {
	return Config{
		Interval:       1.0,
		Benchmark:      false,
		Hotkey:         "F6",
		StopHotkey:     "",
		Action:         ActionClick,
		Button:         "left",
		Key:            "a",
		HotKeyHook:     false,
		AutoStart:      false,
		StatusInterval: 1.0,
		Console:        true,
		LogLevel:       "info",
		LogFormat:      "console",
		DEBUG:          false,
	}
}

// Load reads a JSON config, or YAML when the file ends in .yaml/.yml.
// Missing fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func SaveDefault(path string) error {
	var (
		b   []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		b, err = yaml.Marshal(Default())
	default:
		b, err = json.MarshalIndent(Default(), "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Validate rejects settings that cannot be acted on. Intervals are not checked
// here; the scheduler clamps them.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Action)) {
	case ActionClick, ActionKey:
	default:
		return fmt.Errorf("Action must be %q or %q, got %q", ActionClick, ActionKey, c.Action)
	}
	if strings.TrimSpace(c.Hotkey) == "" {
		return errors.New("Hotkey must not be empty")
	}
	if c.StopHotkey != "" {
		if _, err := keys.Parse(c.StopHotkey); err != nil {
			return fmt.Errorf("StopHotkey: %w", err)
		}
	}
	if c.StatusInterval < 0 {
		return errors.New("StatusInterval must not be negative")
	}
	if _, err := logging.NormalizeLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := logging.NormalizeFormat(c.LogFormat); err != nil {
		return err
	}
	return nil
}

// EffectiveLogLevel honours the DEBUG switch over LogLevel.
func (c Config) EffectiveLogLevel() string {
	if c.DEBUG {
		return "debug"
	}
	return c.LogLevel
}
