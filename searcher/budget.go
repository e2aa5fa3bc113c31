package searcher

import (
	"context"
	"time"
)

// Clock reports the current time. Tests swap it for a deterministic one.
type Clock func() time.Time

type BudgetOption func(b *Budget)

func WithClock(clock Clock) BudgetOption {
	return func(b *Budget) {
		if clock != nil {
			b.now = clock
		}
	}
}

// Budget is the deadline shared by every searcher. It is polled, never
// signalled: a search checks Expired at each node or iteration and unwinds on
// its own.
type Budget struct {
	ctx      context.Context
	now      Clock
	start    time.Time
	deadline time.Time
}

// NewBudget starts a budget of duration d. A non-positive d means the search
// is bounded only by ctx and its own depth or simulation ceiling.
func NewBudget(ctx context.Context, d time.Duration, options ...BudgetOption) *Budget {
	if ctx == nil {
		ctx = context.Background()
	}
	b := &Budget{ctx: ctx, now: time.Now}
	for _, option := range options {
		option(b)
	}
	b.start = b.now()
	if d > 0 {
		b.deadline = b.start.Add(d)
	}
	if dl, ok := ctx.Deadline(); ok && (b.deadline.IsZero() || dl.Before(b.deadline)) {
		b.deadline = dl
	}
	return b
}

// Unlimited is a budget that never expires.
func Unlimited() *Budget {
	return NewBudget(context.Background(), 0)
}

func (b *Budget) Expired() bool {
	if b.ctx.Err() != nil {
		return true
	}
	if b.deadline.IsZero() {
		return false
	}
	return !b.now().Before(b.deadline)
}

func (b *Budget) Elapsed() time.Duration {
	return b.now().Sub(b.start)
}

// Remaining is zero once expired and negative when there is no deadline.
func (b *Budget) Remaining() time.Duration {
	if b.deadline.IsZero() {
		return -1
	}
	if r := b.deadline.Sub(b.now()); r > 0 {
		return r
	}
	return 0
}
