// Package config loads optional defaults from ~/.config/wwdc-dl/config.toml.
// Command-line flags override anything set here.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds tool-wide defaults.
type Config struct {
	OutputDir   string `toml:"output_dir"`
	Workers     int    `toml:"workers"`
	FFmpegPath  string `toml:"ffmpeg_path"`
	GeminiModel string `toml:"gemini_model"`
	IndexPath   string `toml:"index_path"`
}

// Load reads the config file if present, filling defaults otherwise.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OutputDir:  "./wwdc-content",
		Workers:    5,
		FFmpegPath: "ffmpeg",
		IndexPath:  filepath.Join(home, ".config", "wwdc-dl", "index.db"),
	}

	cfgPath := filepath.Join(home, ".config", "wwdc-dl", "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", cfgPath, err)
		}
	}

	return cfg, nil
}
