package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"corpus-expand/internal/corpus"
)

// DefaultForbiddenCap bounds how many already-seen items are echoed back to the provider.
const DefaultForbiddenCap = 500

type Prompt struct {
	System string
	User   string
}

type Builder struct {
	ForbiddenCap int
}

func Build(lang corpus.Language, tier corpus.Tier, count int, forbidden []string) (Prompt, error) {
	return Builder{}.Build(lang, tier, count, forbidden)
}

func (b Builder) Build(lang corpus.Language, tier corpus.Tier, count int, forbidden []string) (Prompt, error) {
	if count < 1 {
		return Prompt{}, fmt.Errorf("请求数量必须大于 0：%d", count)
	}
	system, ok := systemPrompts[lang]
	if !ok {
		return Prompt{}, fmt.Errorf("不支持的语言：%s", lang)
	}
	guidance, ok := styleGuidance[lang][tier]
	if !ok {
		return Prompt{}, fmt.Errorf("不支持的层级：%s", tier)
	}
	blob, err := encodeForbidden(CapForbidden(forbidden, b.cap()))
	if err != nil {
		return Prompt{}, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Language: %s\n", languageNames[lang])
	fmt.Fprintf(&sb, "Level: %s\n", tier)
	fmt.Fprintf(&sb, "Count: %d\n", count)
	fmt.Fprintf(&sb, "Style guidance: %s\n", guidance)
	fmt.Fprintf(&sb, "Forbidden items (no overlap): %s\n", blob)
	fmt.Fprintf(&sb, "Return STRICT JSON with exactly one array at the requested level (%s), other levels empty arrays.", tier)
	return Prompt{System: system, User: sb.String()}, nil
}

func (b Builder) cap() int {
	if b.ForbiddenCap <= 0 {
		return DefaultForbiddenCap
	}
	return b.ForbiddenCap
}

// CapForbidden keeps the last n items, which are the most recently accepted ones.
func CapForbidden(items []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func encodeForbidden(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", fmt.Errorf("编码禁用列表失败：%w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
