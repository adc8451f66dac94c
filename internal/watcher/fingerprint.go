package watcher

import "unicode/utf16"

// Fingerprint computes a 32-bit rolling hash of normalized content.
// The hash walks UTF-16 code units with wrapping int32 arithmetic
// (h = h*31 + unit), so fingerprints stored by earlier releases keep
// comparing equal across upgrades. Collisions are possible; a colliding
// change would be missed. Accepted tradeoff for a cheap equality pre-check.
func Fingerprint(content string) int32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(content)) {
		h = (h << 5) - h + int32(unit)
	}
	return h
}
