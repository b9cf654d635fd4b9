package expand

import (
	"strings"
	"unicode"

	"corpus-expand/internal/corpus"
)

const terminalPunct = ".。!！?？"

func isTerminalPunct(r rune) bool {
	return strings.ContainsRune(terminalPunct, r)
}

// Sanitize normalizes one raw item. The bool is false when the item must be dropped.
// Easy-tier items lose any trailing run of sentence-final punctuation.
func Sanitize(raw string, tier corpus.Tier) (string, bool) {
	s := strings.TrimSpace(raw)
	if tier == corpus.Easy {
		s = strings.TrimRightFunc(s, func(r rune) bool {
			return isTerminalPunct(r) || unicode.IsSpace(r)
		})
	}
	if s == "" {
		return "", false
	}
	return s, true
}
