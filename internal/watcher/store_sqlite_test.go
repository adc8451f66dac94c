package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/raysh454/pagewatch/internal/interfaces"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(t.TempDir(), interfaces.NewTestLogger(false))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return s
}

func TestSQLiteStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSQLiteStore(t)

	ts := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	st := NewState()
	st.MonitoredURLs = []string{"https://b.test", "https://a.test"}
	st.Snapshots["https://a.test"] = Snapshot{URL: "https://a.test", Fingerprint: -12345, Content: "v2"}
	st.Snapshots["https://b.test"] = Snapshot{URL: "https://b.test", Fingerprint: 7, Content: "w1"}
	st.History["https://a.test"] = []ChangeRecord{
		{ID: "r1", URL: "https://a.test", Timestamp: ts, OldContent: "v1", NewContent: "v2"},
		{ID: "r2", URL: "https://a.test", Timestamp: ts.Add(time.Hour), OldContent: "v2", NewContent: "v3"},
	}

	if err := s.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(got.MonitoredURLs) != 2 || got.MonitoredURLs[0] != "https://b.test" || got.MonitoredURLs[1] != "https://a.test" {
		t.Fatalf("loaded URLs = %v, want stored order [b a]", got.MonitoredURLs)
	}
	if snap := got.Snapshots["https://a.test"]; snap.Fingerprint != -12345 || snap.Content != "v2" {
		t.Fatalf("loaded snapshot = %+v", snap)
	}
	h := got.History["https://a.test"]
	if len(h) != 2 || h[0].ID != "r1" || h[1].ID != "r2" {
		t.Fatalf("loaded history = %+v", h)
	}
	if !h[0].Timestamp.Equal(ts) {
		t.Fatalf("loaded timestamp = %v, want %v", h[0].Timestamp, ts)
	}
}

func TestSQLiteStore_SaveReplacesPreviousState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSQLiteStore(t)

	first := NewState()
	first.MonitoredURLs = []string{"https://a.test"}
	first.Snapshots["https://a.test"] = Snapshot{URL: "https://a.test", Fingerprint: 1, Content: "v1"}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save first: %v", err)
	}

	second := NewState()
	second.MonitoredURLs = []string{"https://b.test"}
	second.Snapshots["https://b.test"] = Snapshot{URL: "https://b.test", Fingerprint: 2, Content: "w1"}
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.MonitoredURLs) != 1 || got.MonitoredURLs[0] != "https://b.test" {
		t.Fatalf("loaded URLs = %v, want [b]", got.MonitoredURLs)
	}
	if _, ok := got.Snapshots["https://a.test"]; ok {
		t.Fatal("stale snapshot survived replace")
	}
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t)
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.MonitoredURLs) != 0 || len(got.Snapshots) != 0 || len(got.History) != 0 {
		t.Fatalf("fresh store not empty: %+v", got)
	}
}
