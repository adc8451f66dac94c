package watcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raysh454/pagewatch/internal/interfaces"
	"github.com/raysh454/pagewatch/internal/notify"
)

type capturingNotifier struct {
	mu     sync.Mutex
	events []notify.ChangeEvent
}

func (c *capturingNotifier) NotifyChange(ctx context.Context, ev notify.ChangeEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *capturingNotifier) all() []notify.ChangeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]notify.ChangeEvent, len(c.events))
	copy(out, c.events)
	return out
}

func newTestDetector(t *testing.T, opts ...DetectorOption) *Detector {
	t.Helper()
	return NewDetector(NewStateStore(0), interfaces.NewTestLogger(false), opts...)
}

func TestDetector_FirstSeenThenChangedThenUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDetector(t)
	url := "https://a.test"

	outcome, rec, err := d.Observe(ctx, url, "<html><body>v1</body></html>")
	if err != nil {
		t.Fatalf("observe v1: %v", err)
	}
	if outcome != OutcomeFirstSeen || rec != nil {
		t.Fatalf("observe v1 = (%s, %v), want (first_seen, nil)", outcome, rec)
	}

	outcome, rec, err = d.Observe(ctx, url, "<html><body>v2</body></html>")
	if err != nil {
		t.Fatalf("observe v2: %v", err)
	}
	if outcome != OutcomeChanged || rec == nil {
		t.Fatalf("observe v2 = (%s, %v), want (changed, record)", outcome, rec)
	}
	if !strings.Contains(rec.OldContent, "v1") || !strings.Contains(rec.NewContent, "v2") {
		t.Fatalf("record contents = %q -> %q", rec.OldContent, rec.NewContent)
	}

	outcome, rec, err = d.Observe(ctx, url, "<html><body>v2</body></html>")
	if err != nil {
		t.Fatalf("observe v2 again: %v", err)
	}
	if outcome != OutcomeUnchanged || rec != nil {
		t.Fatalf("observe v2 again = (%s, %v), want (unchanged, nil)", outcome, rec)
	}

	if h := d.Store().History(url); len(h) != 1 {
		t.Fatalf("history length = %d, want 1", len(h))
	}
}

func TestDetector_IdenticalObservationIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDetector(t)
	url := "https://a.test"
	html := "<html><body>same</body></html>"

	if outcome, _, err := d.Observe(ctx, url, html); err != nil || outcome != OutcomeFirstSeen {
		t.Fatalf("first observe = (%v, %v)", outcome, err)
	}
	before, _ := d.Store().Snapshot(url)

	if outcome, _, err := d.Observe(ctx, url, html); err != nil || outcome != OutcomeUnchanged {
		t.Fatalf("second observe = (%v, %v)", outcome, err)
	}
	after, _ := d.Store().Snapshot(url)

	if before != after {
		t.Fatalf("snapshot mutated on unchanged observation: %+v -> %+v", before, after)
	}
	if h := d.Store().History(url); len(h) != 0 {
		t.Fatalf("history = %v, want empty", h)
	}
}

func TestDetector_VolatileMarkupIsUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDetector(t)
	url := "https://a.test"

	v1 := `<html><body><div timestamp="1718791200000">News</div><script>t=1</script></body></html>`
	v2 := `<html><body><div timestamp="1718882999000">News</div><script>t=2</script></body></html>`

	if outcome, _, err := d.Observe(ctx, url, v1); err != nil || outcome != OutcomeFirstSeen {
		t.Fatalf("observe v1 = (%v, %v)", outcome, err)
	}
	outcome, _, err := d.Observe(ctx, url, v2)
	if err != nil {
		t.Fatalf("observe v2: %v", err)
	}
	if outcome != OutcomeUnchanged {
		t.Fatalf("volatile-only change classified as %s, want unchanged", outcome)
	}
}

func TestDetector_EmptyContent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDetector(t)
	url := "https://a.test"

	if _, _, err := d.Observe(ctx, url, ""); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("empty observe err = %v, want ErrEmptyContent", err)
	}
	if _, _, err := d.Observe(ctx, url, "  \n\t "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("whitespace observe err = %v, want ErrEmptyContent", err)
	}

	// With an existing snapshot, an empty fetch must leave state untouched.
	if _, _, err := d.Observe(ctx, url, "<html><body>v1</body></html>"); err != nil {
		t.Fatalf("observe v1: %v", err)
	}
	before, _ := d.Store().Snapshot(url)

	if _, _, err := d.Observe(ctx, url, ""); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("empty observe err = %v, want ErrEmptyContent", err)
	}
	after, _ := d.Store().Snapshot(url)
	if before != after {
		t.Fatalf("snapshot mutated on empty observe: %+v -> %+v", before, after)
	}
	if h := d.Store().History(url); len(h) != 0 {
		t.Fatalf("history grew on empty observe: %v", h)
	}
}

func TestDetector_NotifiesOnlyOnChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	n := &capturingNotifier{}
	d := newTestDetector(t, WithNotifier(n))
	url := "https://a.test"

	if _, _, err := d.Observe(ctx, url, "<html><head><title>Page A</title></head><body>v1</body></html>"); err != nil {
		t.Fatalf("observe v1: %v", err)
	}
	if got := n.all(); len(got) != 0 {
		t.Fatalf("first_seen emitted %d events, want 0", len(got))
	}

	if _, _, err := d.Observe(ctx, url, "<html><head><title>Page A</title></head><body>v2</body></html>"); err != nil {
		t.Fatalf("observe v2: %v", err)
	}
	events := n.all()
	if len(events) != 1 {
		t.Fatalf("changed emitted %d events, want 1", len(events))
	}
	if events[0].URL != url {
		t.Fatalf("event url = %q", events[0].URL)
	}
	if events[0].Title != "Page A" {
		t.Fatalf("event title = %q, want Page A", events[0].Title)
	}
	if events[0].Added == 0 && events[0].Removed == 0 {
		t.Fatal("event carries no change magnitude")
	}

	if _, _, err := d.Observe(ctx, url, "<html><head><title>Page A</title></head><body>v2</body></html>"); err != nil {
		t.Fatalf("observe v2 again: %v", err)
	}
	if got := n.all(); len(got) != 1 {
		t.Fatalf("unchanged emitted extra events: %d", len(got))
	}
}

type failingPersister struct {
	saves int
}

func (p *failingPersister) Save(ctx context.Context, st State) error {
	p.saves++
	return errors.New("disk full")
}

func (p *failingPersister) Load(ctx context.Context) (State, error) {
	return NewState(), nil
}

func TestDetector_PersistFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := &failingPersister{}
	d := newTestDetector(t, WithPersister(p))

	outcome, _, err := d.Observe(ctx, "https://a.test", "<html><body>v1</body></html>")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if outcome != OutcomeFirstSeen {
		t.Fatalf("outcome = %s", outcome)
	}
	if p.saves != 1 {
		t.Fatalf("saves = %d, want 1", p.saves)
	}
}

func TestDetector_ClockOverride(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	d := newTestDetector(t, WithClock(func() time.Time { return fixed }))
	url := "https://a.test"

	if _, _, err := d.Observe(ctx, url, "<html><body>v1</body></html>"); err != nil {
		t.Fatalf("observe v1: %v", err)
	}
	_, rec, err := d.Observe(ctx, url, "<html><body>v2</body></html>")
	if err != nil {
		t.Fatalf("observe v2: %v", err)
	}
	if rec == nil || !rec.Timestamp.Equal(fixed) {
		t.Fatalf("record timestamp = %v, want %v", rec.Timestamp, fixed)
	}
}
