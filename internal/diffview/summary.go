package diffview

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Summary counts the characters inserted and deleted between two content
// strings, independent of the positional display diff. It feeds change
// notifications a rough magnitude without the display constraints of Render.
type Summary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Summarize computes a character-level Summary of old vs new.
func Summarize(oldContent, newContent string) Summary {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldContent, newContent, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var s Summary
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			s.Added += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			s.Removed += len([]rune(d.Text))
		}
	}
	return s
}
