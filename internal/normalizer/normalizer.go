// Package normalizer reduces raw page HTML to a stable text form so that
// cosmetic churn (scripts, embedded timestamps, whitespace) does not register
// as a content change.
package normalizer

import (
	"regexp"
	"strings"
)

// The cleanup pipeline runs these in order. Order matters: whitespace is
// collapsed before the attribute patterns run, so those patterns only need to
// handle single spaces.
var (
	reScripts       = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	reStyles        = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	reComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	reWhitespace    = regexp.MustCompile(`\s+`)
	reTimestampAttr = regexp.MustCompile(`timestamp="\d+"`)
	reDataTimeAttr  = regexp.MustCompile(`data-time="\d+"`)
	reISOTimestamp  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)
)

// Normalize strips volatile markup from raw HTML and returns the cleaned
// text. The result is what fingerprinting, storage, search and diffing all
// operate on. Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := reScripts.ReplaceAllString(raw, "")
	s = reStyles.ReplaceAllString(s, "")
	s = reComments.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = reTimestampAttr.ReplaceAllString(s, "")
	s = reDataTimeAttr.ReplaceAllString(s, "")
	s = reISOTimestamp.ReplaceAllString(s, "[TIMESTAMP]")
	return strings.TrimSpace(s)
}
