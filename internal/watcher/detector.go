package watcher

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/raysh454/pagewatch/internal/diffview"
	"github.com/raysh454/pagewatch/internal/interfaces"
	"github.com/raysh454/pagewatch/internal/normalizer"
	"github.com/raysh454/pagewatch/internal/notify"
)

// Persister saves and loads the full watcher state. Saves happen after
// every mutation and are best-effort: a failed save is logged, never
// surfaced to the observation that triggered it.
type Persister interface {
	Save(ctx context.Context, st State) error
	Load(ctx context.Context) (State, error)
}

// Detector decides first-seen / unchanged / changed for each observation
// and owns all mutations of the StateStore. Observations of the same URL
// are serialized with a per-URL lock; different URLs proceed concurrently.
type Detector struct {
	store     *StateStore
	notifier  notify.Notifier
	persister Persister
	logger    interfaces.Logger
	now       func() time.Time

	lockMu   sync.Mutex
	urlLocks map[string]*sync.Mutex
}

// DetectorOption customizes a Detector.
type DetectorOption func(*Detector)

// WithNotifier sets the change-event sink. Events fire only on the changed
// outcome.
func WithNotifier(n notify.Notifier) DetectorOption {
	return func(d *Detector) { d.notifier = n }
}

// WithPersister enables save-after-mutation persistence.
func WithPersister(p Persister) DetectorOption {
	return func(d *Detector) { d.persister = p }
}

// WithClock overrides the timestamp source. Tests use this to pin record
// timestamps.
func WithClock(now func() time.Time) DetectorOption {
	return func(d *Detector) { d.now = now }
}

// NewDetector creates a Detector over store.
func NewDetector(store *StateStore, logger interfaces.Logger, opts ...DetectorOption) *Detector {
	d := &Detector{
		store:    store,
		logger:   logger,
		now:      time.Now,
		urlLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Store exposes the underlying state store for read-side collaborators
// (search, reporting, API handlers).
func (d *Detector) Store() *StateStore {
	return d.store
}

func (d *Detector) urlLock(url string) *sync.Mutex {
	d.lockMu.Lock()
	defer d.lockMu.Unlock()
	mu, ok := d.urlLocks[url]
	if !ok {
		mu = &sync.Mutex{}
		d.urlLocks[url] = mu
	}
	return mu
}

// Observe runs one detection pass for url over rawHTML.
//
// Empty or whitespace-only content fails with ErrEmptyContent and leaves
// the URL's state exactly as it was: a transient fetch failure must not be
// misread as the page being emptied. On the changed outcome the returned
// record is the one appended to history; otherwise it is nil.
func (d *Detector) Observe(ctx context.Context, url, rawHTML string) (Outcome, *ChangeRecord, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", nil, ErrEmptyContent
	}

	normalized := normalizer.Normalize(rawHTML)
	if normalized == "" {
		return "", nil, ErrEmptyContent
	}
	fp := Fingerprint(normalized)

	mu := d.urlLock(url)
	mu.Lock()
	defer mu.Unlock()

	prev, exists := d.store.Snapshot(url)
	if !exists {
		d.store.SetSnapshot(Snapshot{URL: url, Fingerprint: fp, Content: normalized})
		d.logger.Info("first snapshot stored",
			interfaces.Field{Key: "url", Value: url},
			interfaces.Field{Key: "fingerprint", Value: fp})
		d.persist(ctx)
		return OutcomeFirstSeen, nil, nil
	}

	if prev.Fingerprint == fp {
		d.logger.Debug("no change",
			interfaces.Field{Key: "url", Value: url},
			interfaces.Field{Key: "fingerprint", Value: fp})
		return OutcomeUnchanged, nil, nil
	}

	rec := ChangeRecord{
		ID:         uuid.New().String(),
		URL:        url,
		Timestamp:  d.now().UTC(),
		OldContent: prev.Content,
		NewContent: normalized,
	}
	d.store.ApplyChange(Snapshot{URL: url, Fingerprint: fp, Content: normalized}, rec)

	d.logger.Info("change detected",
		interfaces.Field{Key: "url", Value: url},
		interfaces.Field{Key: "record_id", Value: rec.ID},
		interfaces.Field{Key: "old_fingerprint", Value: prev.Fingerprint},
		interfaces.Field{Key: "new_fingerprint", Value: fp})

	d.persist(ctx)
	d.emitChange(ctx, rec, rawHTML)

	return OutcomeChanged, &rec, nil
}

// persist saves the full state, logging failures instead of returning them.
func (d *Detector) persist(ctx context.Context) {
	if d.persister == nil {
		return
	}
	if err := d.persister.Save(ctx, d.store.Export()); err != nil {
		d.logger.Warn("state save failed", interfaces.Field{Key: "error", Value: err.Error()})
	}
}

// emitChange delivers the change event, best-effort.
func (d *Detector) emitChange(ctx context.Context, rec ChangeRecord, rawHTML string) {
	if d.notifier == nil {
		return
	}
	summary := diffview.Summarize(rec.OldContent, rec.NewContent)
	ev := notify.ChangeEvent{
		URL:       rec.URL,
		Timestamp: rec.Timestamp,
		Title:     pageTitle(rawHTML),
		Added:     summary.Added,
		Removed:   summary.Removed,
	}
	if err := d.notifier.NotifyChange(ctx, ev); err != nil {
		d.logger.Warn("change notification failed",
			interfaces.Field{Key: "url", Value: rec.URL},
			interfaces.Field{Key: "error", Value: err.Error()})
	}
}

// pageTitle extracts the <title> text, or "" when the document has none.
func pageTitle(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
