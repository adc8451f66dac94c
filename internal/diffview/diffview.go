// Package diffview renders a display-oriented comparison of two content
// strings. The comparison is positional: line i of the old text is compared
// to line i of the new text, with no realignment on insertions. A single
// inserted line therefore marks every following line as changed. That
// tradeoff is intentional (speed and predictability over minimal diffs);
// do not swap in an LCS diff here without changing the callers' expectations.
package diffview

import (
	"regexp"
	"strings"
)

// Mode selects how content is prepared before comparison.
type Mode string

const (
	// Formatted reflows HTML onto one-tag-per-line before comparing.
	Formatted Mode = "formatted"
	// Raw returns both inputs verbatim without comparison.
	Raw Mode = "raw"
)

// Tag classifies one line of a rendered view.
type Tag string

const (
	TagUnchanged Tag = "unchanged"
	TagRemoved   Tag = "removed"
	TagAdded     Tag = "added"
	// TagNone marks Raw mode output, which carries no classification.
	TagNone Tag = "none"
)

// Line is a single tagged line of a rendered view.
type Line struct {
	Text string `json:"text"`
	Tag  Tag    `json:"tag"`
}

// View is one side of a rendered diff.
type View struct {
	Lines []Line `json:"lines"`
}

var (
	reSpace       = regexp.MustCompile(`\s+`)
	reTagBoundary = regexp.MustCompile(`>\s*<`)
)

// reflow splits content on tag boundaries so each markup element lands on
// its own line, giving the positional comparison stable units to work with.
func reflow(content string) []string {
	s := reSpace.ReplaceAllString(content, " ")
	s = reTagBoundary.ReplaceAllString(s, ">\n<")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

// Render compares oldContent and newContent and returns the old and new
// views. In Raw mode each view is the verbatim input as a single untagged
// line. In Formatted mode both sides are reflowed and compared position by
// position: a line present on only one side is removed/added, a differing
// pair is removed on the old side and added on the new side.
func Render(oldContent, newContent string, mode Mode) (View, View) {
	if mode == Raw {
		return View{Lines: []Line{{Text: oldContent, Tag: TagNone}}},
			View{Lines: []Line{{Text: newContent, Tag: TagNone}}}
	}

	oldLines := reflow(oldContent)
	newLines := reflow(newContent)

	oldView := View{Lines: make([]Line, 0, len(oldLines))}
	newView := View{Lines: make([]Line, 0, len(newLines))}

	n := len(oldLines)
	if len(newLines) > n {
		n = len(newLines)
	}
	for i := 0; i < n; i++ {
		switch {
		case i >= len(newLines):
			oldView.Lines = append(oldView.Lines, Line{Text: oldLines[i], Tag: TagRemoved})
		case i >= len(oldLines):
			newView.Lines = append(newView.Lines, Line{Text: newLines[i], Tag: TagAdded})
		case oldLines[i] == newLines[i]:
			oldView.Lines = append(oldView.Lines, Line{Text: oldLines[i], Tag: TagUnchanged})
			newView.Lines = append(newView.Lines, Line{Text: newLines[i], Tag: TagUnchanged})
		default:
			oldView.Lines = append(oldView.Lines, Line{Text: oldLines[i], Tag: TagRemoved})
			newView.Lines = append(newView.Lines, Line{Text: newLines[i], Tag: TagAdded})
		}
	}
	return oldView, newView
}
