package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raysh454/pagewatch/internal/scheduler"
	"github.com/raysh454/pagewatch/internal/watcher"
	"github.com/raysh454/pagewatch/internal/webclient"
)

// Config is the full application configuration. Values left zero fall back
// to the component defaults.
type Config struct {
	// StorageRoot is the directory holding the SQLite database.
	StorageRoot string `yaml:"storage_root" json:"storage_root"`

	// URLs are monitored from startup. URLs added at runtime via the API
	// are persisted alongside these.
	URLs []string `yaml:"urls" json:"urls"`

	// WebhookURL, when set, receives a POST for every detected change.
	WebhookURL string `yaml:"webhook_url" json:"webhook_url"`

	Watcher   watcher.Config   `yaml:"watcher" json:"watcher"`
	Scheduler scheduler.Config `yaml:"scheduler" json:"scheduler"`
	WebClient webclient.Config `yaml:"webclient" json:"webclient"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		StorageRoot: ".pagewatch",
		Watcher: watcher.Config{
			RetentionLimit: watcher.DefaultRetentionLimit,
		},
		Scheduler: scheduler.Config{
			Interval: scheduler.DefaultInterval,
			Stagger:  scheduler.DefaultStagger,
		},
		WebClient: webclient.Config{
			Backend: "nethttp",
			Timeout: 30 * time.Second,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
