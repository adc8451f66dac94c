package cli

import (
	"testing"
	"time"
)

func TestParseArgs_Defaults(t *testing.T) {
	t.Parallel()

	args, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.ListenAddr != ":8080" {
		t.Fatalf("listen = %q", args.ListenAddr)
	}
	if args.ConfigPath != "" || args.Interval != 0 || len(args.URLs) != 0 {
		t.Fatalf("unexpected non-defaults: %+v", args)
	}
}

func TestParseArgs_AllFlags(t *testing.T) {
	t.Parallel()

	args, err := ParseArgs([]string{
		"-config", "pw.yaml",
		"-listen", ":9090",
		"-storage", "/tmp/pw",
		"-backend", "chromedp",
		"-interval", "5m",
		"-webhook", "https://hooks.test/pw",
		"-url", "https://a.test",
		"-url", "https://b.test",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.ConfigPath != "pw.yaml" || args.ListenAddr != ":9090" || args.StorageRoot != "/tmp/pw" {
		t.Fatalf("args = %+v", args)
	}
	if args.Backend != "chromedp" || args.Interval != 5*time.Minute || args.WebhookURL != "https://hooks.test/pw" {
		t.Fatalf("args = %+v", args)
	}
	if len(args.URLs) != 2 || args.URLs[0] != "https://a.test" || args.URLs[1] != "https://b.test" {
		t.Fatalf("urls = %v", args.URLs)
	}
}

func TestParseArgs_UnknownFlag(t *testing.T) {
	t.Parallel()

	if _, err := ParseArgs([]string{"-nope"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestBuildConfig_Overrides(t *testing.T) {
	t.Parallel()

	args, err := ParseArgs([]string{
		"-listen", ":9191",
		"-storage", t.TempDir(),
		"-interval", "2m",
		"-url", "https://a.test",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}

	cfg, err := args.BuildConfig()
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}
	if cfg.ListenAddr != ":9191" {
		t.Fatalf("listen = %q", cfg.ListenAddr)
	}
	if cfg.AppConfig.StorageRoot != args.StorageRoot {
		t.Fatalf("storage = %q", cfg.AppConfig.StorageRoot)
	}
	if cfg.AppConfig.Scheduler.Interval != 2*time.Minute {
		t.Fatalf("interval = %v", cfg.AppConfig.Scheduler.Interval)
	}
	if len(cfg.AppConfig.URLs) != 1 || cfg.AppConfig.URLs[0] != "https://a.test" {
		t.Fatalf("urls = %v", cfg.AppConfig.URLs)
	}
}

func TestBuildConfig_MissingConfigFile(t *testing.T) {
	t.Parallel()

	args, err := ParseArgs([]string{"-config", "/nonexistent/pw.yaml"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if _, err := args.BuildConfig(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
