// Package notify delivers "page changed" events to interested parties:
// the log, an optional webhook, and any connected websocket clients.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/raysh454/pagewatch/internal/interfaces"
)

// ChangeEvent describes one detected change on a monitored URL.
type ChangeEvent struct {
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	Title     string    `json:"title,omitempty"`
	Added     int       `json:"added"`
	Removed   int       `json:"removed"`
}

// Notifier receives change events. Implementations must be safe for
// concurrent use; delivery failures are the implementation's problem and
// must not propagate back into detection.
type Notifier interface {
	NotifyChange(ctx context.Context, ev ChangeEvent) error
}

// LogNotifier writes each event to the logger. It is the default notifier.
type LogNotifier struct {
	logger interfaces.Logger
}

func NewLogNotifier(logger interfaces.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyChange(ctx context.Context, ev ChangeEvent) error {
	if n.logger == nil {
		return nil
	}
	n.logger.Info("page changed",
		interfaces.Field{Key: "url", Value: ev.URL},
		interfaces.Field{Key: "title", Value: ev.Title},
		interfaces.Field{Key: "added", Value: ev.Added},
		interfaces.Field{Key: "removed", Value: ev.Removed})
	return nil
}

// WebhookNotifier POSTs each event as JSON to a configured endpoint.
type WebhookNotifier struct {
	endpoint string
	client   *http.Client
	logger   interfaces.Logger
}

func NewWebhookNotifier(endpoint string, timeout time.Duration, logger interfaces.Logger) (*WebhookNotifier, error) {
	if endpoint == "" {
		return nil, errors.New("notify: empty webhook endpoint")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}, nil
}

func (n *WebhookNotifier) NotifyChange(ctx context.Context, ev ChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Hub fans events out to every registered notifier and to subscribed
// channels (used by the websocket endpoint). A slow subscriber never blocks
// delivery: events are dropped when a subscriber's buffer is full.
type Hub struct {
	mu        sync.RWMutex
	notifiers []Notifier
	subs      map[chan ChangeEvent]struct{}
	logger    interfaces.Logger
}

func NewHub(logger interfaces.Logger) *Hub {
	return &Hub{
		subs:   make(map[chan ChangeEvent]struct{}),
		logger: logger,
	}
}

// Register adds a notifier that will receive every event.
func (h *Hub) Register(n Notifier) {
	if n == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifiers = append(h.notifiers, n)
}

// Subscribe returns a buffered channel of events plus a cancel function.
// The channel is closed when the cancel function is called.
func (h *Hub) Subscribe() (<-chan ChangeEvent, func()) {
	ch := make(chan ChangeEvent, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	// Closing under the hub lock keeps cancel ordered against the sends in
	// NotifyChange, which hold the read lock.
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// NotifyChange implements Notifier, so a Hub can stand wherever a single
// notifier is expected.
func (h *Hub) NotifyChange(ctx context.Context, ev ChangeEvent) error {
	h.mu.RLock()
	notifiers := make([]Notifier, len(h.notifiers))
	copy(notifiers, h.notifiers)
	h.mu.RUnlock()

	for _, n := range notifiers {
		if err := n.NotifyChange(ctx, ev); err != nil && h.logger != nil {
			h.logger.Warn("notifier failed",
				interfaces.Field{Key: "url", Value: ev.URL},
				interfaces.Field{Key: "error", Value: err.Error()})
		}
	}

	// The sends stay under the read lock so a concurrent cancel cannot close
	// a channel mid-send. They are non-blocking, so the lock is held only
	// briefly.
	h.mu.RLock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// subscriber not keeping up, drop
		}
	}
	h.mu.RUnlock()
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
var _ Notifier = (*WebhookNotifier)(nil)
var _ Notifier = (*Hub)(nil)
