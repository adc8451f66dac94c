// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/raysh454/pagewatch/internal/logging"
	"github.com/raysh454/pagewatch/internal/notify"
	"github.com/raysh454/pagewatch/internal/watcher"
	"github.com/raysh454/pagewatch/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// Pages maps URL to the HTML body returned for it; unknown URLs get
// "ok:<url>" with status 200. Set FailURLs[url] = true to force an error.
type DummyWebClient struct {
	ResponseDelay time.Duration
	Pages         map[string]string
	FailURLs      map[string]bool
	mu            sync.Mutex
	Requests      []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailURLs != nil && d.FailURLs[req.URL] {
		return nil, &errString{"dummy fetch fail for " + req.URL}
	}

	body := "ok:" + req.URL
	if d.Pages != nil {
		if page, ok := d.Pages[req.URL]; ok {
			body = page
		}
	}

	return &webclient.Response{
		Request:    req,
		Body:       []byte(body),
		StatusCode: 200,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: "GET", URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// ─── Notifier ──────────────────────────────────────────────────────────

// DummyNotifier implements notify.Notifier with in-memory recording.
type DummyNotifier struct {
	mu     sync.Mutex
	Events []notify.ChangeEvent
	Err    error
}

func (n *DummyNotifier) NotifyChange(_ context.Context, ev notify.ChangeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, ev)
	return n.Err
}

// Seen returns a copy of the recorded events.
func (n *DummyNotifier) Seen() []notify.ChangeEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.ChangeEvent(nil), n.Events...)
}

// ─── Persister ─────────────────────────────────────────────────────────

// DummyPersister implements watcher.Persister in memory.
type DummyPersister struct {
	mu      sync.Mutex
	Saved   []watcher.State
	LoadVal *watcher.State
	SaveErr error
	LoadErr error
}

func (p *DummyPersister) Save(_ context.Context, st watcher.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Saved = append(p.Saved, st)
	return p.SaveErr
}

func (p *DummyPersister) Load(_ context.Context) (watcher.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.LoadErr != nil {
		return watcher.State{}, p.LoadErr
	}
	if p.LoadVal != nil {
		return *p.LoadVal, nil
	}
	return watcher.NewState(), nil
}

// ─── helpers ───────────────────────────────────────────────────────────

type errString struct{ s string }

func (e *errString) Error() string { return e.s }
