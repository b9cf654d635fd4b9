package app

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"corpus-expand/internal/corpus"
	"corpus-expand/internal/llm"
)

type memStore struct {
	mu    sync.Mutex
	data  map[corpus.Language]*corpus.Corpus
	saves map[corpus.Language]int
}

func newMemStore() *memStore {
	return &memStore{data: map[corpus.Language]*corpus.Corpus{}, saves: map[corpus.Language]int{}}
}

func (s *memStore) Load(lang corpus.Language) (*corpus.Corpus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data[lang]
	if !ok {
		return &corpus.Corpus{Easy: []string{}, Medium: []string{}, Hard: []string{}}, nil
	}
	cp := &corpus.Corpus{}
	for _, t := range corpus.Tiers {
		cp.Set(t, append([]string{}, c.Get(t)...))
	}
	return cp, nil
}

func (s *memStore) Save(lang corpus.Language, c *corpus.Corpus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[lang] = c
	s.saves[lang]++
	return nil
}

var (
	levelRe = regexp.MustCompile(`Level: (\w+)`)
	countRe = regexp.MustCompile(`Count: (\d+)`)
)

// freshProvider answers every request with exactly Count new items for the requested level.
type freshProvider struct {
	mu    sync.Mutex
	calls int
	seq   int
	// fail, when set, may turn a request into an error.
	fail func(req llm.Request) error
}

func (p *freshProvider) Name() string { return "fresh" }

func (p *freshProvider) Generate(_ context.Context, req llm.Request) (corpus.Corpus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail != nil {
		if err := p.fail(req); err != nil {
			return corpus.Corpus{}, err
		}
	}
	tier := corpus.Tier(levelRe.FindStringSubmatch(req.UserPrompt)[1])
	n, _ := strconv.Atoi(countRe.FindStringSubmatch(req.UserPrompt)[1])
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p.seq++
		items = append(items, fmt.Sprintf("%s-%d", tier, p.seq))
	}
	out := corpus.Corpus{}
	out.Set(tier, items)
	return out, nil
}

func isChinese(req llm.Request) bool {
	return strings.Contains(req.UserPrompt, "Language: Chinese")
}
