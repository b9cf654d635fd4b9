package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corpus-expand/internal/corpus"
	"corpus-expand/internal/expand"
	"corpus-expand/internal/llm"
	"corpus-expand/internal/logging"
)

func newOrchestrator(t *testing.T, store corpus.Store, p llm.Provider, perCall int) *Orchestrator {
	t.Helper()
	e, err := expand.New(expand.Options{Provider: p, PerCall: perCall})
	require.NoError(t, err)
	return &Orchestrator{Store: store, Expander: e, Logger: logging.Nop()}
}

func TestOrchestratorFillsAllTiersAndSavesOnce(t *testing.T) {
	store := newMemStore()
	store.data[corpus.English] = &corpus.Corpus{Easy: []string{"a", "b"}, Medium: []string{}, Hard: []string{"h1", "h2", "h3"}}
	p := &freshProvider{}
	o := newOrchestrator(t, store, p, 10)

	sum, err := o.Run(context.Background(), Plan{Languages: []corpus.Language{corpus.Chinese, corpus.English}, Target: 3})
	require.NoError(t, err)
	require.NoError(t, sum.Err())

	assert.Equal(t, 1, store.saves[corpus.Chinese])
	assert.Equal(t, 1, store.saves[corpus.English])
	for _, lang := range []corpus.Language{corpus.Chinese, corpus.English} {
		for _, tier := range corpus.Tiers {
			assert.Len(t, store.data[lang].Get(tier), 3, "%s %s", lang, tier)
		}
	}
	assert.Equal(t, []string{"a", "b"}, store.data[corpus.English].Easy[:2])
	assert.Equal(t, []string{"h1", "h2", "h3"}, store.data[corpus.English].Hard)
	// zh: 3 tiers, en: easy + medium; hard was already at target.
	assert.Equal(t, 5, p.calls)
	assert.Equal(t, 5, sum.Calls)
	require.Len(t, sum.Languages, 2)
	assert.True(t, sum.Languages[1].Saved)
	assert.Equal(t, 3, sum.Languages[1].Counts[corpus.Hard])
}

func TestOrchestratorZeroDeficitMakesNoCalls(t *testing.T) {
	store := newMemStore()
	store.data[corpus.Chinese] = &corpus.Corpus{Easy: []string{"1", "2"}, Medium: []string{"1", "2", "3"}, Hard: []string{"1", "2"}}
	p := &freshProvider{}
	o := newOrchestrator(t, store, p, 10)

	_, err := o.Run(context.Background(), Plan{Languages: []corpus.Language{corpus.Chinese}, Target: 2})
	require.NoError(t, err)
	assert.Zero(t, p.calls)
	assert.Len(t, store.data[corpus.Chinese].Medium, 3, "existing items above target are kept")
}

func TestOrchestratorProviderFailureSkipsLanguage(t *testing.T) {
	store := newMemStore()
	store.data[corpus.Chinese] = &corpus.Corpus{Easy: []string{"旧"}, Medium: []string{}, Hard: []string{}}
	p := &freshProvider{fail: func(req llm.Request) error {
		if isChinese(req) && levelRe.FindStringSubmatch(req.UserPrompt)[1] == "medium" {
			return fmt.Errorf("%w: HTTP 500", llm.ErrProvider)
		}
		return nil
	}}
	var buf bytes.Buffer
	logger, _, err := logging.New(&buf, "", false)
	require.NoError(t, err)
	o := newOrchestrator(t, store, p, 10)
	o.Logger = logger

	sum, err := o.Run(context.Background(), Plan{Languages: []corpus.Language{corpus.Chinese, corpus.English}, Target: 2})
	require.NoError(t, err)
	assert.Equal(t, []corpus.Language{corpus.Chinese}, sum.Failed)
	assert.Error(t, sum.Err())
	assert.Zero(t, store.saves[corpus.Chinese], "failed language must not be persisted")
	assert.Equal(t, []string{"旧"}, store.data[corpus.Chinese].Easy)
	assert.Equal(t, 1, store.saves[corpus.English])
	require.Len(t, sum.Languages, 2)
	assert.True(t, errors.Is(sum.Languages[0].Err, llm.ErrProvider))
	assert.Contains(t, buf.String(), "zh 处理失败")
	assert.Contains(t, buf.String(), "en hard: -> 2")
}

func TestOrchestratorAuthStopsRun(t *testing.T) {
	store := newMemStore()
	p := &freshProvider{fail: func(req llm.Request) error {
		if !isChinese(req) {
			return fmt.Errorf("%w: HTTP 401", llm.ErrAuth)
		}
		return nil
	}}
	o := newOrchestrator(t, store, p, 10)

	langs := []corpus.Language{corpus.Chinese, corpus.English}
	sum, err := o.Run(context.Background(), Plan{Languages: langs, Target: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrAuth))
	assert.Equal(t, 1, store.saves[corpus.Chinese], "languages finished before the failure stay saved")
	assert.Zero(t, store.saves[corpus.English])
	assert.Empty(t, sum.Failed)
}

func TestOrchestratorCancelled(t *testing.T) {
	store := newMemStore()
	p := &freshProvider{}
	o := newOrchestrator(t, store, p, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx, Plan{Languages: []corpus.Language{corpus.English}, Target: 1})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, p.calls)
	assert.Zero(t, store.saves[corpus.English])
}

func TestOrchestratorRecordsExhaustedTiers(t *testing.T) {
	store := newMemStore()
	p := &freshProvider{fail: func(req llm.Request) error {
		if levelRe.FindStringSubmatch(req.UserPrompt)[1] == "hard" {
			return fmt.Errorf("%w: not json", llm.ErrParse)
		}
		return nil
	}}
	o := newOrchestrator(t, store, p, 4)

	sum, err := o.Run(context.Background(), Plan{Languages: []corpus.Language{corpus.English}, Target: 4})
	require.NoError(t, err)
	require.Len(t, sum.Languages, 1)
	assert.Equal(t, []corpus.Tier{corpus.Hard}, sum.Languages[0].Exhausted)
	assert.Empty(t, store.data[corpus.English].Hard)
	assert.Equal(t, 1, store.saves[corpus.English], "an exhausted tier still saves")
}
