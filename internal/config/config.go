// Package config loads the optional .cortex/config.yaml tuning file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Benny93/cortex-go/internal/activation"
	"github.com/Benny93/cortex-go/internal/analytics"
	"github.com/Benny93/cortex-go/internal/reinforce"
)

// DefaultDir is the per-project data directory, relative to the project root.
const DefaultDir = ".cortex"

// FileName is the config file name inside DefaultDir.
const FileName = "config.yaml"

// Config aggregates all engine tuning sections.
type Config struct {
	// Project is the project identifier used to scope graph records.
	Project string `yaml:"project"`

	// NotesDir is where markdown notes live, relative to the project root.
	NotesDir string `yaml:"notes_dir"`

	Analytics     analytics.Config  `yaml:"analytics"`
	Recall        activation.Config `yaml:"recall"`
	Reinforcement reinforce.Config  `yaml:"reinforcement"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Project:       "default",
		NotesDir:      "notes",
		Analytics:     analytics.DefaultConfig(),
		Recall:        activation.DefaultConfig(),
		Reinforcement: reinforce.DefaultConfig(),
	}
}

// Load reads .cortex/config.yaml under projectRoot. A missing file yields
// Default(); a malformed file is an error.
func Load(projectRoot string) (Config, error) {
	cfg := Default()
	path := filepath.Join(projectRoot, DefaultDir, FileName)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DataDir returns the store directory under projectRoot.
func DataDir(projectRoot string) string {
	return filepath.Join(projectRoot, DefaultDir, "data")
}
