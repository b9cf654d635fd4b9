package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"corpus-expand/internal/corpus"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		raw    string
		tier   corpus.Tier
		want   string
		wantOK bool
	}{
		{raw: "  苹果  ", tier: corpus.Easy, want: "苹果", wantOK: true},
		{raw: "苹果。", tier: corpus.Easy, want: "苹果", wantOK: true},
		{raw: "good morning!", tier: corpus.Easy, want: "good morning", wantOK: true},
		{raw: "真的吗？！", tier: corpus.Easy, want: "真的吗", wantOK: true},
		{raw: "hello . ", tier: corpus.Easy, want: "hello", wantOK: true},
		{raw: "e.g. tea", tier: corpus.Easy, want: "e.g. tea", wantOK: true},
		{raw: "。", tier: corpus.Easy, wantOK: false},
		{raw: "   ", tier: corpus.Easy, wantOK: false},
		{raw: "", tier: corpus.Medium, wantOK: false},
		{raw: " 今天天气很好。 ", tier: corpus.Medium, want: "今天天气很好。", wantOK: true},
		{raw: "What a night!", tier: corpus.Hard, want: "What a night!", wantOK: true},
	}
	for _, tc := range cases {
		got, ok := Sanitize(tc.raw, tc.tier)
		assert.Equal(t, tc.wantOK, ok, "%q", tc.raw)
		assert.Equal(t, tc.want, got, "%q", tc.raw)
	}
}

func TestSanitizeEasyNeverEndsWithTerminalPunct(t *testing.T) {
	for _, p := range []string{".", "。", "!", "！", "?", "？"} {
		for _, raw := range []string{"word" + p, "word" + p + p, "word " + p, "词" + p + "\t"} {
			got, ok := Sanitize(raw, corpus.Easy)
			assert.True(t, ok, raw)
			assert.NotRegexp(t, `[.。!！?？\s]$`, got, raw)
		}
	}
}
