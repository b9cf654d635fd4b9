package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"corpus-expand/internal/corpus"
)

// ParseBatch decodes a model reply into tier arrays. Missing keys stay empty and
// non-string elements are dropped; anything that is not a JSON object is ErrParse.
func ParseBatch(text string) (corpus.Corpus, error) {
	text = stripCodeFence(text)
	if text == "" {
		return corpus.Corpus{}, fmt.Errorf("%w: 模型返回内容为空", ErrParse)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return corpus.Corpus{}, fmt.Errorf("%w: %w; 原始内容: %s", ErrParse, err, truncate(text, 300))
	}
	if obj == nil {
		return corpus.Corpus{}, fmt.Errorf("%w: 返回的不是 JSON 对象", ErrParse)
	}
	var out corpus.Corpus
	for _, tier := range corpus.Tiers {
		out.Set(tier, stringItems(obj[string(tier)]))
	}
	return out, nil
}

func stringItems(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.Index(text, "\n"); i >= 0 {
		text = text[i+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
