package app

import (
	"context"
	"errors"
	"fmt"

	"corpus-expand/internal/corpus"
	"corpus-expand/internal/expand"
	"corpus-expand/internal/llm"
	"corpus-expand/internal/logging"
)

type Plan struct {
	Languages []corpus.Language
	Target    int
}

type LanguageSummary struct {
	Language  corpus.Language
	Counts    map[corpus.Tier]int
	Exhausted []corpus.Tier
	Calls     int
	Saved     bool
	Path      string
	Err       error
}

type Summary struct {
	Languages []LanguageSummary
	Calls     int
	Failed    []corpus.Language
}

// Err reports the failed languages, if any.
func (s Summary) Err() error {
	if len(s.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d 个语言处理失败：%v", len(s.Failed), s.Failed)
}

type Orchestrator struct {
	Store    corpus.Store
	Expander *expand.Expander
	Logger   *logging.Logger
}

type pathResolver interface {
	Path(lang corpus.Language) (string, error)
}

// Run processes plan.Languages in order. A language is persisted only after all
// of its tiers finished; a provider failure leaves its file untouched and the run moves
// on. Auth failures and cancellation stop the run.
func (o *Orchestrator) Run(ctx context.Context, plan Plan) (Summary, error) {
	sum := Summary{}
	for _, lang := range plan.Languages {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		ls, err := o.runLanguage(ctx, lang, plan.Target)
		sum.Languages = append(sum.Languages, ls)
		sum.Calls += ls.Calls
		if err == nil {
			continue
		}
		if isFatal(err) {
			return sum, err
		}
		sum.Failed = append(sum.Failed, lang)
		o.Logger.Emit(logging.Event{Level: "error", Event: "language_failed", Lang: string(lang), Error: err.Error()})
	}
	return sum, nil
}

func (o *Orchestrator) runLanguage(ctx context.Context, lang corpus.Language, target int) (LanguageSummary, error) {
	ls := LanguageSummary{Language: lang, Counts: make(map[corpus.Tier]int, len(corpus.Tiers))}
	fail := func(err error) (LanguageSummary, error) {
		ls.Err = err
		return ls, err
	}

	c, err := o.Store.Load(lang)
	if err != nil {
		return fail(err)
	}
	for _, tier := range corpus.Tiers {
		if c.Deficit(tier, target) == 0 {
			ls.Counts[tier] = c.Count(tier)
			o.Logger.Emit(logging.Event{Event: "tier_skip", Lang: string(lang), Tier: string(tier), Count: c.Count(tier), Target: target})
			continue
		}
		res, err := o.Expander.Expand(ctx, expand.Job{
			Language: lang,
			Tier:     tier,
			Existing: c.Get(tier),
			Target:   target,
		})
		ls.Calls += res.Calls
		if err != nil {
			return fail(fmt.Errorf("%s %s：%w", lang, tier, err))
		}
		c.Set(tier, res.Items)
		ls.Counts[tier] = len(res.Items)
		if res.Exhausted {
			ls.Exhausted = append(ls.Exhausted, tier)
		}
		o.Logger.Emit(logging.Event{Event: "tier_done", Lang: string(lang), Tier: string(tier), Count: len(res.Items), Target: target, Accepted: res.Added})
	}

	if err := o.Store.Save(lang, c); err != nil {
		return fail(err)
	}
	ls.Saved = true
	if pr, ok := o.Store.(pathResolver); ok {
		ls.Path, _ = pr.Path(lang)
	}
	o.Logger.Emit(logging.Event{Event: "save_ok", Lang: string(lang), OutputFile: ls.Path})
	return ls, nil
}

func isFatal(err error) bool {
	return errors.Is(err, llm.ErrAuth) ||
		errors.Is(err, llm.ErrUnsupportedProvider) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
