package fetcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Counter is the single-range log counter the fetcher drives. Implemented by
// rpc.Client in production and by deterministic fakes in tests.
type Counter interface {
	CountLogs(ctx context.Context, provider string, from, to uint64) (int64, error)
}

// RangeError reports the smallest sub-range that exhausted all options.
type RangeError struct {
	From  uint64
	To    uint64
	Cause error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range %d-%d failed: %v", e.From, e.To, e.Cause)
}

func (e *RangeError) Unwrap() error {
	return e.Cause
}

// Fetcher counts logs over arbitrary-width windows by bisecting sub-ranges
// that keep failing after transport-level retries.
type Fetcher struct {
	counter  Counter
	minWidth uint64
	split    bool
	log      *zap.Logger
}

// New creates a fetcher. minWidth is the smallest width a failing range may be
// split down to; below it the failure is terminal. split disables bisection
// entirely when false, making any failure terminal for the whole window.
func New(counter Counter, minWidth uint64, split bool, log *zap.Logger) *Fetcher {
	if minWidth < 1 {
		minWidth = 1
	}
	return &Fetcher{
		counter:  counter,
		minWidth: minWidth,
		split:    split,
		log:      log,
	}
}

type blockRange struct {
	from uint64
	to   uint64
}

// Part is one successfully counted sub-range of a window.
type Part struct {
	From  uint64
	To    uint64
	Count int64
}

// CountRange resolves [from, to] into successfully counted sub-ranges that
// cover the window exactly once, returning their total and the parts in
// ascending block order so the caller can persist each one. On persistent
// failure it returns a *RangeError naming the smallest sub-range that could
// not be fetched. The reduction is pure: no external state is touched.
func (f *Fetcher) CountRange(ctx context.Context, provider string, from, to uint64) (int64, []Part, error) {
	// Explicit work stack instead of recursion; depth is bounded by
	// ceil(log2(width/minWidth)) but the stack keeps pathological inputs off
	// the call stack.
	stack := []blockRange{{from: from, to: to}}
	var total int64
	var parts []Part

	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cnt, err := f.counter.CountLogs(ctx, provider, r.from, r.to)
		if err == nil {
			total += cnt
			parts = append(parts, Part{From: r.from, To: r.to, Count: cnt})
			continue
		}

		width := r.to - r.from + 1
		if !f.split || width <= f.minWidth {
			return 0, nil, &RangeError{From: r.from, To: r.to, Cause: err}
		}

		// Low half absorbs the extra block on odd widths.
		mid := r.from + width/2 - 1
		f.log.Debug("splitting failed range",
			zap.Uint64("from", r.from),
			zap.Uint64("to", r.to),
			zap.Uint64("mid", mid),
			zap.Error(err),
		)
		stack = append(stack, blockRange{from: mid + 1, to: r.to})
		stack = append(stack, blockRange{from: r.from, to: mid})
	}

	return total, parts, nil
}
