package cli

import (
	"flag"
	"time"

	"github.com/raysh454/pagewatch/internal/app"
	"github.com/raysh454/pagewatch/internal/server"
)

// CLIArgs are the command-line arguments for a pagewatch run.
// Keep this small for now — add fields as modules need them.
type CLIArgs struct {
	// ConfigPath points to an optional YAML config file.
	ConfigPath string

	// ListenAddr is the HTTP listen address.
	ListenAddr string

	// StorageRoot overrides the config's storage directory; empty keeps it.
	StorageRoot string

	// URLs are extra URLs to monitor, in addition to the config file's.
	URLs []string

	// Backend overrides the web client backend (nethttp|chromedp).
	Backend string

	// Interval overrides the check interval; 0 keeps the config value.
	Interval time.Duration

	// WebhookURL overrides the change-notification webhook.
	WebhookURL string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("pagewatch", flag.ContinueOnError)

	out := &CLIArgs{RawArgs: args}
	fs.StringVar(&out.ConfigPath, "config", "", "Path to YAML config file")
	fs.StringVar(&out.ListenAddr, "listen", ":8080", "HTTP listen address")
	fs.StringVar(&out.StorageRoot, "storage", "", "Storage directory (overrides config)")
	fs.StringVar(&out.Backend, "backend", "", "Web client backend: nethttp|chromedp (overrides config)")
	fs.DurationVar(&out.Interval, "interval", 0, "Check interval, e.g. 15m (overrides config)")
	fs.StringVar(&out.WebhookURL, "webhook", "", "Webhook URL notified on changes (overrides config)")
	fs.Func("url", "URL to monitor (repeatable)", func(v string) error {
		out.URLs = append(out.URLs, v)
		return nil
	})

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(nil)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return out, nil
}

// BuildConfig loads the config file (defaults when -config is empty) and
// applies the CLI overrides on top, returning a ready server.Config.
func (a *CLIArgs) BuildConfig() (server.Config, error) {
	cfg, err := app.LoadConfig(a.ConfigPath)
	if err != nil {
		return server.Config{}, err
	}

	if a.StorageRoot != "" {
		cfg.StorageRoot = a.StorageRoot
	}
	if a.Backend != "" {
		cfg.WebClient.Backend = a.Backend
	}
	if a.Interval > 0 {
		cfg.Scheduler.Interval = a.Interval
	}
	if a.WebhookURL != "" {
		cfg.WebhookURL = a.WebhookURL
	}
	cfg.URLs = append(cfg.URLs, a.URLs...)

	return server.Config{
		ListenAddr: a.ListenAddr,
		AppConfig:  cfg,
	}, nil
}
