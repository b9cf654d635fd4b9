package expand

import (
	"context"
	"errors"
	"fmt"
	"time"

	"corpus-expand/internal/corpus"
	"corpus-expand/internal/llm"
	"corpus-expand/internal/logging"
	"corpus-expand/internal/prompt"
)

type Options struct {
	Provider    llm.Provider
	Model       string
	Temperature float64
	// PerCall is the initial batch size; MinPerCall is the halving floor.
	PerCall    int
	MinPerCall int
	// GiveUpAfter is how many empty answers at the floor end a run.
	GiveUpAfter  int
	ForbiddenCap int
	MaxRetries   int
	Pacer        Pacer
	Logger       *logging.Logger
}

type Expander struct {
	opts    Options
	prompts prompt.Builder
}

type Job struct {
	Language corpus.Language
	Tier     corpus.Tier
	Existing []string
	Target   int
}

type Result struct {
	Items     []string
	Added     int
	Calls     int
	Exhausted bool
}

func New(opts Options) (*Expander, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("未配置 provider")
	}
	if opts.PerCall < 1 {
		return nil, fmt.Errorf("per_call 必须大于 0：%d", opts.PerCall)
	}
	if opts.MinPerCall < 1 {
		opts.MinPerCall = 1
	}
	if opts.GiveUpAfter < 1 {
		opts.GiveUpAfter = 1
	}
	if opts.Pacer == nil {
		opts.Pacer = NewPacer(0)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Expander{opts: opts, prompts: prompt.Builder{ForbiddenCap: opts.ForbiddenCap}}, nil
}

// Expand asks the provider for new items until the tier reaches job.Target or the
// provider stops producing anything new. Items from a batch that would overshoot the
// target are discarded. On error the partial Result is returned too.
func (e *Expander) Expand(ctx context.Context, job Job) (Result, error) {
	items := append(make([]string, 0, max(job.Target, len(job.Existing))), job.Existing...)
	seen := newSeenSet(items)
	th := newThrottle(e.opts.PerCall, e.opts.MinPerCall, e.opts.GiveUpAfter)
	res := Result{}
	logger := e.opts.Logger

	for len(items) < job.Target {
		requested := th.requestSize(job.Target - len(items))
		if err := e.opts.Pacer.Wait(ctx); err != nil {
			return finish(res, items), err
		}
		p, err := e.prompts.Build(job.Language, job.Tier, requested, seen.recent(e.prompts.ForbiddenCap))
		if err != nil {
			return finish(res, items), err
		}

		start := time.Now()
		batch, err := e.generate(ctx, job, p)
		e.opts.Pacer.Done()
		res.Calls++
		accepted := 0
		switch {
		case errors.Is(err, llm.ErrParse):
			logger.Emit(logging.Event{Level: "warn", Event: "parse_failed", Lang: string(job.Language), Tier: string(job.Tier), Requested: requested, Error: err.Error()})
		case err != nil:
			return finish(res, items), err
		default:
			for _, raw := range batch.Get(job.Tier) {
				if len(items) >= job.Target {
					break
				}
				s, ok := Sanitize(raw, job.Tier)
				if !ok || !seen.add(s) {
					continue
				}
				items = append(items, s)
				accepted++
			}
		}
		res.Added += accepted
		logger.Emit(logging.Event{
			Event:     "api_response",
			Lang:      string(job.Language),
			Tier:      string(job.Tier),
			Requested: requested,
			Accepted:  accepted,
			Count:     len(items),
			Target:    job.Target,
			LatencyMS: time.Since(start).Milliseconds(),
		})

		if accepted > 0 {
			th.progress()
			continue
		}
		before := th.size
		if th.empty(requested) {
			res.Exhausted = true
			logger.Emit(logging.Event{Level: "warn", Event: "tier_exhausted", Lang: string(job.Language), Tier: string(job.Tier), Count: len(items), Target: job.Target})
			break
		}
		if th.size < before {
			logger.Emit(logging.Event{Level: "warn", Event: "batch_shrink", Lang: string(job.Language), Tier: string(job.Tier), BatchSize: th.size})
		}
	}
	return finish(res, items), nil
}

func (e *Expander) generate(ctx context.Context, job Job, p prompt.Prompt) (corpus.Corpus, error) {
	var batch corpus.Corpus
	err := withExponentialBackoff(ctx, retryOptions{
		MaxRetries: e.opts.MaxRetries,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   8 * time.Second,
		Jitter:     0.25,
		Retryable:  func(err error) bool { return errors.Is(err, llm.ErrProvider) },
		OnRetry: func(attempt int, wait time.Duration, err error) {
			e.opts.Logger.Emit(logging.Event{
				Level:   "warn",
				Event:   "retry_backoff",
				Lang:    string(job.Language),
				Tier:    string(job.Tier),
				Attempt: attempt,
				WaitMS:  wait.Milliseconds(),
				Error:   err.Error(),
			})
		},
	}, func(attempt int) error {
		e.opts.Logger.Emit(logging.Event{Level: "debug", Event: "api_request", Lang: string(job.Language), Tier: string(job.Tier), Provider: e.opts.Provider.Name(), Model: e.opts.Model, Attempt: attempt})
		out, err := e.opts.Provider.Generate(ctx, llm.Request{
			Model:        e.opts.Model,
			SystemPrompt: p.System,
			UserPrompt:   p.User,
			Temperature:  e.opts.Temperature,
		})
		if err != nil {
			return err
		}
		batch = out
		return nil
	})
	return batch, err
}

func finish(res Result, items []string) Result {
	res.Items = items
	return res
}

type seenSet struct {
	set   map[string]struct{}
	order []string
}

func newSeenSet(items []string) *seenSet {
	s := &seenSet{set: make(map[string]struct{}, len(items))}
	for _, it := range items {
		s.add(it)
	}
	return s
}

func (s *seenSet) add(item string) bool {
	if _, ok := s.set[item]; ok {
		return false
	}
	s.set[item] = struct{}{}
	s.order = append(s.order, item)
	return true
}

// recent returns up to n of the most recently added items; n <= 0 means the default cap.
func (s *seenSet) recent(n int) []string {
	if n <= 0 {
		n = prompt.DefaultForbiddenCap
	}
	return prompt.CapForbidden(s.order, n)
}
