package watcher

import (
	"fmt"
	"testing"
	"time"
)

// ─── URL registry ───

func TestStateStore_AddRemoveURLs(t *testing.T) {
	t.Parallel()

	s := NewStateStore(0)

	if err := s.AddURL("https://a.test"); err != nil {
		t.Fatalf("AddURL: %v", err)
	}
	if err := s.AddURL("https://b.test"); err != nil {
		t.Fatalf("AddURL: %v", err)
	}
	if err := s.AddURL("https://a.test"); err != ErrAlreadyMonitored {
		t.Fatalf("duplicate AddURL err = %v, want ErrAlreadyMonitored", err)
	}

	got := s.URLs()
	if len(got) != 2 || got[0] != "https://a.test" || got[1] != "https://b.test" {
		t.Fatalf("URLs() = %v, want insertion order [a b]", got)
	}

	if err := s.RemoveURL("https://a.test"); err != nil {
		t.Fatalf("RemoveURL: %v", err)
	}
	if err := s.RemoveURL("https://a.test"); err != ErrNotFound {
		t.Fatalf("RemoveURL missing err = %v, want ErrNotFound", err)
	}
	if s.Monitored("https://a.test") {
		t.Fatal("removed URL still monitored")
	}
}

func TestStateStore_RemoveURLDropsState(t *testing.T) {
	t.Parallel()

	s := NewStateStore(0)
	s.SetSnapshot(Snapshot{URL: "https://a.test", Fingerprint: 1, Content: "v1"})
	s.ApplyChange(
		Snapshot{URL: "https://a.test", Fingerprint: 2, Content: "v2"},
		ChangeRecord{ID: "r1", URL: "https://a.test", Timestamp: time.Now(), OldContent: "v1", NewContent: "v2"},
	)

	if err := s.RemoveURL("https://a.test"); err != nil {
		t.Fatalf("RemoveURL: %v", err)
	}
	if _, ok := s.Snapshot("https://a.test"); ok {
		t.Fatal("snapshot survived RemoveURL")
	}
	if h := s.History("https://a.test"); len(h) != 0 {
		t.Fatalf("history survived RemoveURL: %v", h)
	}
}

// ─── retention ───

func TestStateStore_RetentionBound(t *testing.T) {
	t.Parallel()

	s := NewStateStore(0)
	url := "https://a.test"
	s.SetSnapshot(Snapshot{URL: url, Fingerprint: 0, Content: "v0"})

	const changes = 15
	for i := 1; i <= changes; i++ {
		s.ApplyChange(
			Snapshot{URL: url, Fingerprint: int32(i), Content: fmt.Sprintf("v%d", i)},
			ChangeRecord{
				ID:         fmt.Sprintf("r%d", i),
				URL:        url,
				Timestamp:  time.Now(),
				OldContent: fmt.Sprintf("v%d", i-1),
				NewContent: fmt.Sprintf("v%d", i),
			},
		)
	}

	h := s.History(url)
	if len(h) != DefaultRetentionLimit {
		t.Fatalf("history length = %d, want %d", len(h), DefaultRetentionLimit)
	}
	// The survivors are the most recent ones, oldest first.
	for i, rec := range h {
		want := fmt.Sprintf("r%d", changes-DefaultRetentionLimit+1+i)
		if rec.ID != want {
			t.Fatalf("history[%d].ID = %s, want %s", i, rec.ID, want)
		}
	}
}

// ─── export / restore ───

func TestStateStore_ExportIsDeepCopy(t *testing.T) {
	t.Parallel()

	s := NewStateStore(0)
	s.SetSnapshot(Snapshot{URL: "https://a.test", Fingerprint: 1, Content: "v1"})
	s.ApplyChange(
		Snapshot{URL: "https://a.test", Fingerprint: 2, Content: "v2"},
		ChangeRecord{ID: "r1", URL: "https://a.test", Timestamp: time.Now(), OldContent: "v1", NewContent: "v2"},
	)

	st := s.Export()

	// Mutate the store; the export must not move.
	s.ApplyChange(
		Snapshot{URL: "https://a.test", Fingerprint: 3, Content: "v3"},
		ChangeRecord{ID: "r2", URL: "https://a.test", Timestamp: time.Now(), OldContent: "v2", NewContent: "v3"},
	)

	if len(st.History["https://a.test"]) != 1 {
		t.Fatalf("export history length = %d, want 1", len(st.History["https://a.test"]))
	}
	if st.Snapshots["https://a.test"].Content != "v2" {
		t.Fatalf("export snapshot = %q, want v2", st.Snapshots["https://a.test"].Content)
	}
}

func TestStateStore_RestoreRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewStateStore(0)
	s.SetSnapshot(Snapshot{URL: "https://a.test", Fingerprint: 1, Content: "v1"})
	s.SetSnapshot(Snapshot{URL: "https://b.test", Fingerprint: 2, Content: "w1"})
	s.ApplyChange(
		Snapshot{URL: "https://a.test", Fingerprint: 3, Content: "v2"},
		ChangeRecord{ID: "r1", URL: "https://a.test", Timestamp: time.Now().UTC(), OldContent: "v1", NewContent: "v2"},
	)

	st := s.Export()

	s2 := NewStateStore(0)
	s2.Restore(st)

	got := s2.Export()
	if len(got.MonitoredURLs) != 2 || got.MonitoredURLs[0] != "https://a.test" {
		t.Fatalf("restored URLs = %v", got.MonitoredURLs)
	}
	if got.Snapshots["https://a.test"].Content != "v2" {
		t.Fatalf("restored snapshot = %+v", got.Snapshots["https://a.test"])
	}
	if len(got.History["https://a.test"]) != 1 || got.History["https://a.test"][0].ID != "r1" {
		t.Fatalf("restored history = %+v", got.History["https://a.test"])
	}
}

func TestStateStore_RestoreReappliesRetention(t *testing.T) {
	t.Parallel()

	st := NewState()
	st.MonitoredURLs = []string{"https://a.test"}
	for i := 0; i < 20; i++ {
		st.History["https://a.test"] = append(st.History["https://a.test"], ChangeRecord{
			ID:  fmt.Sprintf("r%d", i),
			URL: "https://a.test",
		})
	}

	s := NewStateStore(0)
	s.Restore(st)

	h := s.History("https://a.test")
	if len(h) != DefaultRetentionLimit {
		t.Fatalf("restored history length = %d, want %d", len(h), DefaultRetentionLimit)
	}
	if h[0].ID != "r10" || h[len(h)-1].ID != "r19" {
		t.Fatalf("restored window = [%s..%s], want [r10..r19]", h[0].ID, h[len(h)-1].ID)
	}
}

// ─── lookups and resets ───

func TestStateStore_HistoryRecord(t *testing.T) {
	t.Parallel()

	s := NewStateStore(0)
	s.SetSnapshot(Snapshot{URL: "https://a.test", Fingerprint: 1, Content: "v1"})
	s.ApplyChange(
		Snapshot{URL: "https://a.test", Fingerprint: 2, Content: "v2"},
		ChangeRecord{ID: "r1", URL: "https://a.test", Timestamp: time.Now(), OldContent: "v1", NewContent: "v2"},
	)

	rec, err := s.HistoryRecord("https://a.test", "r1")
	if err != nil {
		t.Fatalf("HistoryRecord: %v", err)
	}
	if rec.NewContent != "v2" {
		t.Fatalf("record = %+v", rec)
	}

	if _, err := s.HistoryRecord("https://a.test", "nope"); err != ErrNotFound {
		t.Fatalf("missing record err = %v, want ErrNotFound", err)
	}
	if _, err := s.HistoryRecord("https://other.test", "r1"); err != ErrNotFound {
		t.Fatalf("missing url err = %v, want ErrNotFound", err)
	}
}

func TestStateStore_ClearHistoryAndClearAll(t *testing.T) {
	t.Parallel()

	s := NewStateStore(0)
	s.SetSnapshot(Snapshot{URL: "https://a.test", Fingerprint: 1, Content: "v1"})
	s.ApplyChange(
		Snapshot{URL: "https://a.test", Fingerprint: 2, Content: "v2"},
		ChangeRecord{ID: "r1", URL: "https://a.test", Timestamp: time.Now(), OldContent: "v1", NewContent: "v2"},
	)

	s.ClearHistory()
	if h := s.History("https://a.test"); len(h) != 0 {
		t.Fatalf("history after ClearHistory = %v", h)
	}
	if _, ok := s.Snapshot("https://a.test"); !ok {
		t.Fatal("snapshot lost on ClearHistory")
	}
	s.ClearHistory() // idempotent

	s.ClearAll()
	if urls := s.URLs(); len(urls) != 0 {
		t.Fatalf("urls after ClearAll = %v", urls)
	}
	if _, ok := s.Snapshot("https://a.test"); ok {
		t.Fatal("snapshot survived ClearAll")
	}
	s.ClearAll() // idempotent
}
