package corpus

import (
	"fmt"
	"strings"
)

type Language string

const (
	Chinese Language = "zh"
	English Language = "en"
)

var Languages = []Language{Chinese, English}

type Tier string

const (
	Easy   Tier = "easy"
	Medium Tier = "medium"
	Hard   Tier = "hard"
)

// Tiers is the fixed processing order.
var Tiers = []Tier{Easy, Medium, Hard}

func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case Chinese:
		return Chinese, nil
	case English:
		return English, nil
	default:
		return "", fmt.Errorf("不支持的语言：%s（可选 zh、en）", s)
	}
}

// ParseLanguages accepts repeated and comma separated values and drops duplicates.
func ParseLanguages(values []string) ([]Language, error) {
	out := make([]Language, 0, len(Languages))
	seen := map[Language]bool{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			lang, err := ParseLanguage(part)
			if err != nil {
				return nil, err
			}
			if seen[lang] {
				continue
			}
			seen[lang] = true
			out = append(out, lang)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("未指定语言")
	}
	return out, nil
}

func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case Easy:
		return Easy, nil
	case Medium:
		return Medium, nil
	case Hard:
		return Hard, nil
	default:
		return "", fmt.Errorf("不支持的层级：%s", s)
	}
}

// Corpus holds the items of one language. Field order matches the on-disk key order.
type Corpus struct {
	Easy   []string `json:"easy"`
	Medium []string `json:"medium"`
	Hard   []string `json:"hard"`
}

func (c *Corpus) Get(t Tier) []string {
	if c == nil {
		return nil
	}
	switch t {
	case Easy:
		return c.Easy
	case Medium:
		return c.Medium
	case Hard:
		return c.Hard
	}
	return nil
}

func (c *Corpus) Set(t Tier, items []string) {
	switch t {
	case Easy:
		c.Easy = items
	case Medium:
		c.Medium = items
	case Hard:
		c.Hard = items
	}
}

func (c *Corpus) Count(t Tier) int {
	return len(c.Get(t))
}

// Deficit is how many items tier t still needs to reach target.
func (c *Corpus) Deficit(t Tier, target int) int {
	return max(0, target-c.Count(t))
}

func (c *Corpus) normalize() {
	for _, t := range Tiers {
		if c.Get(t) == nil {
			c.Set(t, []string{})
		}
	}
}
