// Package config provides YAML-based configuration loading for
// holdfast.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level holdfast configuration, loaded from
// holdfast.yaml.
type Config struct {
	DataDir   string         `yaml:"data_dir"`
	Project   ProjectConfig  `yaml:"project"`
	Snapshot  SnapshotConfig `yaml:"snapshot"`
	Worktrees WorktreeConfig `yaml:"worktrees"`
	Server    ServerConfig   `yaml:"server"`
	Timeline  TimelineConfig `yaml:"timeline"`
	Watch     WatchConfig    `yaml:"watch"`
}

// ProjectConfig identifies the project the process operates on.
type ProjectConfig struct {
	ID  string `yaml:"id"`
	Dir string `yaml:"dir"`
}

// SnapshotConfig tunes the checkpoint engine.
type SnapshotConfig struct {
	Disabled   bool   `yaml:"disabled"`
	GCHours    int    `yaml:"gc_hours"`
	GCSchedule string `yaml:"gc_schedule"`
}

// WorktreeConfig sets the managed worktrees root; removal operations
// refuse to act outside it.
type WorktreeConfig struct {
	Root string `yaml:"root"`
}

// ServerConfig holds the sync server listen address.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// TimelineConfig tunes client-side history windowing.
type TimelineConfig struct {
	WindowBase      int `yaml:"window_base"`
	WindowIncrement int `yaml:"window_increment"`
}

// WatchConfig tunes the auto-checkpoint watcher.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// Load reads a YAML config file from path and returns a validated
// Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a config for the given project directory without a
// config file, with every default applied.
func Default(projectDir string) (*Config, error) {
	cfg := Config{Project: ProjectConfig{Dir: projectDir}}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Project.Dir == "" {
		if wd, err := os.Getwd(); err == nil {
			c.Project.Dir = wd
		}
	}
	if abs, err := filepath.Abs(c.Project.Dir); err == nil {
		c.Project.Dir = abs
	}
	if c.Project.ID == "" {
		c.Project.ID = projectID(c.Project.Dir)
	}
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, ".holdfast")
		}
	}
	if c.Snapshot.GCHours == 0 {
		c.Snapshot.GCHours = 24
	}
	if c.Snapshot.GCSchedule == "" {
		c.Snapshot.GCSchedule = "0 3 * * *"
	}
	if c.Worktrees.Root == "" {
		c.Worktrees.Root = filepath.Join(c.DataDir, "worktrees", c.Project.ID)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:4517"
	}
	if c.Timeline.WindowBase == 0 {
		c.Timeline.WindowBase = 50
	}
	if c.Timeline.WindowIncrement == 0 {
		c.Timeline.WindowIncrement = 50
	}
	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = 500
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	if c.Project.Dir == "" {
		return fmt.Errorf("config: project.dir is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir is required")
	}
	if c.Snapshot.GCHours < 0 {
		return fmt.Errorf("config: snapshot.gc_hours must not be negative")
	}
	return nil
}

// projectID derives a stable, filesystem-safe id from the project
// path.
func projectID(dir string) string {
	id := strings.Trim(dir, string(filepath.Separator))
	id = strings.ReplaceAll(id, string(filepath.Separator), "-")
	id = strings.ReplaceAll(id, ":", "")
	id = strings.ReplaceAll(id, " ", "_")
	if id == "" {
		id = "root"
	}
	return id
}
