// Package scheduler drives periodic checks of every monitored URL. Checks
// of different URLs are staggered so a burst of fetches does not hit remote
// servers (or the local CPU) all at once; the per-URL serialization itself
// lives in the detector.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/pagewatch/internal/interfaces"
	"github.com/raysh454/pagewatch/internal/watcher"
	"github.com/raysh454/pagewatch/internal/webclient"
)

// DefaultInterval is how often a full check pass runs.
const DefaultInterval = 15 * time.Minute

// DefaultStagger is the delay between consecutive URLs within one pass.
const DefaultStagger = 2 * time.Second

// Config tunes the check loop.
type Config struct {
	Interval time.Duration `yaml:"interval" json:"interval"`
	Stagger  time.Duration `yaml:"stagger" json:"stagger"`
}

func (c Config) interval() time.Duration {
	if c.Interval <= 0 {
		return DefaultInterval
	}
	return c.Interval
}

// stagger treats zero as the default and negative values as "no delay".
func (c Config) stagger() time.Duration {
	if c.Stagger < 0 {
		return 0
	}
	if c.Stagger == 0 {
		return DefaultStagger
	}
	return c.Stagger
}

// CheckResult reports the outcome of one URL check within a pass.
type CheckResult struct {
	URL     string          `json:"url"`
	Outcome watcher.Outcome `json:"outcome,omitempty"`
	Err     string          `json:"error,omitempty"`
}

// Scheduler owns the fetch-then-observe loop.
type Scheduler struct {
	cfg      Config
	client   webclient.WebClient
	detector *watcher.Detector
	logger   interfaces.Logger
}

// New creates a scheduler over client and detector.
func New(cfg Config, client webclient.WebClient, detector *watcher.Detector, logger interfaces.Logger) (*Scheduler, error) {
	if client == nil {
		return nil, errors.New("scheduler: nil webclient")
	}
	if detector == nil {
		return nil, errors.New("scheduler: nil detector")
	}
	return &Scheduler{
		cfg:      cfg,
		client:   client,
		detector: detector,
		logger:   logger.With(interfaces.Field{Key: "component", Value: "scheduler"}),
	}, nil
}

// Run blocks until ctx is cancelled, executing one check pass per interval.
// The first pass runs immediately on start.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		interfaces.Field{Key: "interval", Value: s.cfg.interval().String()},
		interfaces.Field{Key: "stagger", Value: s.cfg.stagger().String()})

	s.CheckAll(ctx)

	ticker := time.NewTicker(s.cfg.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.CheckAll(ctx)
		}
	}
}

// CheckAll runs one pass over every monitored URL, staggering the checks.
// It returns per-URL results; a failed URL does not abort the pass.
func (s *Scheduler) CheckAll(ctx context.Context) []CheckResult {
	urls := s.detector.Store().URLs()
	results := make([]CheckResult, 0, len(urls))

	for i, url := range urls {
		if i > 0 {
			if !sleepCtx(ctx, s.cfg.stagger()) {
				return results
			}
		}
		if ctx.Err() != nil {
			return results
		}

		outcome, err := s.RunNow(ctx, url)
		res := CheckResult{URL: url, Outcome: outcome}
		if err != nil {
			res.Err = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// RunNow checks a single URL immediately, outside the periodic schedule.
func (s *Scheduler) RunNow(ctx context.Context, url string) (watcher.Outcome, error) {
	resp, err := s.client.Do(ctx, &webclient.Request{Method: "GET", URL: url})
	if err != nil {
		s.logger.Warn("fetch failed",
			interfaces.Field{Key: "url", Value: url},
			interfaces.Field{Key: "error", Value: err.Error()})
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Warn("fetch returned error status",
			interfaces.Field{Key: "url", Value: url},
			interfaces.Field{Key: "status", Value: resp.StatusCode})
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	outcome, _, err := s.detector.Observe(ctx, url, string(resp.Body))
	if err != nil {
		return "", fmt.Errorf("observe %s: %w", url, err)
	}
	return outcome, nil
}

// sleepCtx waits for d or until ctx is cancelled; false means cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
