// Package search runs literal or regex queries across current snapshots and
// the change history. It is a pure reader: every query operates on a
// point-in-time export of the state store and never mutates it.
package search

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/raysh454/pagewatch/internal/watcher"
)

// ErrInvalidPattern is returned when a regex query does not compile. The
// whole search aborts; there are no partial results.
var ErrInvalidPattern = errors.New("search: invalid pattern")

// Source identifies which content a result matched against.
type Source string

const (
	// SourceCurrentSnapshot is the live snapshot of a URL.
	SourceCurrentSnapshot Source = "current_snapshot"
	// SourceHistoricalOld is the before-side of a change record.
	SourceHistoricalOld Source = "historical_old"
	// SourceHistoricalNew is the after-side of a change record.
	SourceHistoricalNew Source = "historical_new"
)

// Options toggles search behavior. The zero value searches nothing; callers
// enable at least one of IncludeSnapshots/IncludeHistory.
type Options struct {
	CaseSensitive    bool   `json:"case_sensitive"`
	UseRegex         bool   `json:"use_regex"`
	IncludeSnapshots bool   `json:"include_snapshots"`
	IncludeHistory   bool   `json:"include_history"`
	URLFilter        string `json:"url_filter,omitempty"`
	// MaxAgeDays skips history records older than this many days, measured
	// against the time the search started. Zero means no age limit.
	MaxAgeDays int `json:"max_age_days,omitempty"`
}

// Match is one occurrence of the pattern. Start is a character (rune)
// offset into the result's Content, not a byte offset.
type Match struct {
	Start int    `json:"start"`
	Text  string `json:"text"`
}

// Snippet is a context window around one match.
type Snippet struct {
	Text           string `json:"text"`
	MatchText      string `json:"match_text"`
	TruncatedStart bool   `json:"truncated_start"`
	TruncatedEnd   bool   `json:"truncated_end"`
}

// String renders the snippet with ellipses marking truncated edges.
func (s Snippet) String() string {
	out := s.Text
	if s.TruncatedStart {
		out = "..." + out
	}
	if s.TruncatedEnd {
		out = out + "..."
	}
	return out
}

// contextLimit caps how many matches per result get a context snippet.
// Later matches still count toward MatchCount.
const contextLimit = 10

// contextRadius is the number of characters kept on each side of a match.
const contextRadius = 200

// Result is one content string with at least one match. Content itself is
// kept for report building but excluded from JSON payloads, which would
// otherwise ship entire pages per result.
type Result struct {
	Source     Source    `json:"source"`
	URL        string    `json:"url"`
	Timestamp  time.Time `json:"timestamp"`
	RecordID   string    `json:"record_id,omitempty"`
	Content    string    `json:"-"`
	Matches    []Match   `json:"matches"`
	MatchCount int       `json:"match_count"`
	Contexts   []Snippet `json:"contexts"`
}

// Engine executes queries over a state store.
type Engine struct {
	store *watcher.StateStore
	now   func() time.Time
}

// NewEngine creates a search engine over store.
func NewEngine(store *watcher.StateStore) *Engine {
	return &Engine{store: store, now: time.Now}
}

// WithClock overrides the time source used for age filtering and snapshot
// result timestamps.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Search runs query with opts and returns results sorted by descending
// match count. Ties keep discovery order: snapshots before history, URLs in
// insertion order, and within one record the old side before the new side.
func (e *Engine) Search(query string, opts Options) ([]Result, error) {
	re, err := compile(query, opts)
	if err != nil {
		return nil, err
	}

	now := e.now()
	st := e.store.Export()

	var cutoff time.Time
	if opts.MaxAgeDays > 0 {
		cutoff = now.Add(-time.Duration(opts.MaxAgeDays) * 24 * time.Hour)
	}

	var results []Result

	if opts.IncludeSnapshots {
		for _, url := range st.MonitoredURLs {
			if opts.URLFilter != "" && url != opts.URLFilter {
				continue
			}
			snap, ok := st.Snapshots[url]
			if !ok {
				continue
			}
			if r, ok := buildResult(re, SourceCurrentSnapshot, url, "", now, snap.Content); ok {
				results = append(results, r)
			}
		}
	}

	if opts.IncludeHistory {
		for _, url := range st.MonitoredURLs {
			if opts.URLFilter != "" && url != opts.URLFilter {
				continue
			}
			for _, rec := range st.History[url] {
				if opts.MaxAgeDays > 0 && rec.Timestamp.Before(cutoff) {
					continue
				}
				if r, ok := buildResult(re, SourceHistoricalOld, url, rec.ID, rec.Timestamp, rec.OldContent); ok {
					results = append(results, r)
				}
				if r, ok := buildResult(re, SourceHistoricalNew, url, rec.ID, rec.Timestamp, rec.NewContent); ok {
					results = append(results, r)
				}
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchCount > results[j].MatchCount
	})
	return results, nil
}

// compile turns the query into a regexp according to opts.
func compile(query string, opts Options) (*regexp.Regexp, error) {
	pattern := query
	if !opts.UseRegex {
		pattern = regexp.QuoteMeta(query)
	}
	if !opts.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

// buildResult matches re against content; ok is false when there are no
// matches.
func buildResult(re *regexp.Regexp, src Source, url, recordID string, ts time.Time, content string) (Result, bool) {
	matches := findMatches(re, content)
	if len(matches) == 0 {
		return Result{}, false
	}

	r := Result{
		Source:     src,
		URL:        url,
		Timestamp:  ts,
		RecordID:   recordID,
		Content:    content,
		Matches:    matches,
		MatchCount: len(matches),
	}
	limit := len(matches)
	if limit > contextLimit {
		limit = contextLimit
	}
	r.Contexts = make([]Snippet, 0, limit)
	for _, m := range matches[:limit] {
		r.Contexts = append(r.Contexts, ContextWindow(content, m, contextRadius))
	}
	return r, true
}

// findMatches returns all non-overlapping occurrences with rune offsets.
// Byte offsets from the regexp package are converted incrementally, so the
// scan stays linear in the content length.
func findMatches(re *regexp.Regexp, content string) []Match {
	idx := re.FindAllStringIndex(content, -1)
	if len(idx) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(idx))
	byteOff, runeOff := 0, 0
	for _, span := range idx {
		for byteOff < span[0] {
			_, size := utf8.DecodeRuneInString(content[byteOff:])
			byteOff += size
			runeOff++
		}
		matches = append(matches, Match{Start: runeOff, Text: content[span[0]:span[1]]})
	}
	return matches
}

// ContextWindow extracts a window of radius characters on each side of m,
// clipped to content bounds, with truncation flags for ellipsis rendering.
// Exported for the report builder, which uses a narrower radius.
func ContextWindow(content string, m Match, radius int) Snippet {
	runes := []rune(content)
	matchLen := len([]rune(m.Text))

	start := m.Start - radius
	if start < 0 {
		start = 0
	}
	end := m.Start + matchLen + radius
	if end > len(runes) {
		end = len(runes)
	}

	return Snippet{
		Text:           string(runes[start:end]),
		MatchText:      m.Text,
		TruncatedStart: start > 0,
		TruncatedEnd:   end < len(runes),
	}
}
