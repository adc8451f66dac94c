package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raysh454/pagewatch/internal/interfaces"
)

type countingNotifier struct {
	calls atomic.Int64
}

func (c *countingNotifier) NotifyChange(ctx context.Context, ev ChangeEvent) error {
	c.calls.Add(1)
	return nil
}

func TestHub_FanOut(t *testing.T) {
	t.Parallel()

	hub := NewHub(interfaces.NewTestLogger(false))
	n1 := &countingNotifier{}
	n2 := &countingNotifier{}
	hub.Register(n1)
	hub.Register(n2)

	ch, cancel := hub.Subscribe()
	defer cancel()

	ev := ChangeEvent{URL: "https://a.test", Timestamp: time.Now(), Added: 1, Removed: 2}
	if err := hub.NotifyChange(context.Background(), ev); err != nil {
		t.Fatalf("NotifyChange: %v", err)
	}

	if got := n1.calls.Load(); got != 1 {
		t.Fatalf("n1 calls = %d, want 1", got)
	}
	if got := n2.calls.Load(); got != 1 {
		t.Fatalf("n2 calls = %d, want 1", got)
	}

	select {
	case got := <-ch:
		if got.URL != ev.URL {
			t.Fatalf("subscriber got url %q, want %q", got.URL, ev.URL)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received event")
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	hub := NewHub(interfaces.NewTestLogger(false))
	_, cancel := hub.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = hub.NotifyChange(context.Background(), ChangeEvent{URL: "https://a.test"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("NotifyChange blocked on a full subscriber buffer")
	}
}

// slowNotifier models log/webhook delivery taking a moment, widening the
// window between a publisher's fan-out and its subscriber sends.
type slowNotifier struct{}

func (slowNotifier) NotifyChange(ctx context.Context, ev ChangeEvent) error {
	time.Sleep(time.Microsecond)
	return nil
}

func TestHub_CancelDuringPublish(t *testing.T) {
	t.Parallel()

	hub := NewHub(interfaces.NewTestLogger(false))
	hub.Register(slowNotifier{})

	stop := make(chan struct{})
	panics := make(chan any, 1)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					select {
					case panics <- r:
					default:
					}
				}
			}()
			for {
				select {
				case <-stop:
					return
				default:
				}
				_ = hub.NotifyChange(context.Background(), ChangeEvent{URL: "https://a.test"})
			}
		}()
	}

	// Subscribers come and go while the publishers run; cancelling mid-publish
	// must never make a send hit a closed channel.
	for i := 0; i < 200; i++ {
		ch, cancel := hub.Subscribe()
		select {
		case <-ch:
		default:
		}
		cancel()
	}
	close(stop)
	wg.Wait()

	select {
	case r := <-panics:
		t.Fatalf("NotifyChange panicked: %v", r)
	default:
	}
}

func TestHub_SubscribeCancelIdempotent(t *testing.T) {
	t.Parallel()

	hub := NewHub(interfaces.NewTestLogger(false))
	_, cancel := hub.Subscribe()
	cancel()
	cancel() // second call must not panic
}

func TestWebhookNotifier(t *testing.T) {
	t.Parallel()

	var received ChangeEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(srv.URL, time.Second, interfaces.NewTestLogger(false))
	if err != nil {
		t.Fatalf("NewWebhookNotifier: %v", err)
	}

	ev := ChangeEvent{URL: "https://a.test", Title: "A", Added: 3, Removed: 1}
	if err := n.NotifyChange(context.Background(), ev); err != nil {
		t.Fatalf("NotifyChange: %v", err)
	}
	if received.URL != ev.URL || received.Added != 3 || received.Removed != 1 {
		t.Fatalf("webhook received %+v, want %+v", received, ev)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(srv.URL, time.Second, interfaces.NewTestLogger(false))
	if err != nil {
		t.Fatalf("NewWebhookNotifier: %v", err)
	}
	if err := n.NotifyChange(context.Background(), ChangeEvent{URL: "https://a.test"}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestNewWebhookNotifier_EmptyEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := NewWebhookNotifier("", time.Second, nil); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}
