// Package text provides small helpers for measuring and trimming article text.
package text

import "strings"

// CountRunes counts Unicode characters rather than bytes, so Japanese text
// and emoji are measured the way a reader sees them.
//
//	CountRunes("hello")  // 5
//	CountRunes("日本語")   // 3
//	CountRunes("Hello👋") // 6
func CountRunes(text string) int {
	return len([]rune(text))
}

// CountWords counts whitespace-separated tokens.
// Runs of spaces, tabs and newlines count as a single separator.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Truncate shortens text to at most maxRunes characters, appending an
// ellipsis when it cuts. maxRunes <= 0 returns text unchanged.
func Truncate(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= maxRunes {
		return text
	}
	if maxRunes == 1 {
		return "…"
	}
	return string(r[:maxRunes-1]) + "…"
}
