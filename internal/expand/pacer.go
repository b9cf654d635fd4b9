package expand

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces provider calls. Wait blocks before a call; Done marks that the call
// returned, and the next Wait lets at least the configured delay pass from then.
type Pacer interface {
	Wait(ctx context.Context) error
	Done()
}

type callPacer struct {
	mu    sync.Mutex
	every rate.Limit
	lim   *rate.Limiter
}

// NewPacer returns a Pacer with the given gap between the end of one call and the
// start of the next; the first call is not delayed. delay <= 0 disables pacing.
func NewPacer(delay time.Duration) Pacer {
	every := rate.Inf
	if delay > 0 {
		every = rate.Every(delay)
	}
	return &callPacer{every: every, lim: rate.NewLimiter(every, 1)}
}

func (p *callPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	lim := p.lim
	p.mu.Unlock()
	return lim.Wait(ctx)
}

func (p *callPacer) Done() {
	if p.every == rate.Inf {
		return
	}
	// a fresh bucket drained now refills exactly one delay later
	lim := rate.NewLimiter(p.every, 1)
	lim.Allow()
	p.mu.Lock()
	p.lim = lim
	p.mu.Unlock()
}
