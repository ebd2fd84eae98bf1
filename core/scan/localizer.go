package scan

import (
	"context"

	"log-reconciler/core/store"

	"go.uber.org/zap"
)

// Counter is the single-range log counter the localizer drives against both
// providers. Implemented by rpc.Client.
type Counter interface {
	CountLogs(ctx context.Context, provider string, from, to uint64) (int64, error)
}

// Recorder persists range-level discrepancy findings. Implemented by
// store.Store.
type Recorder interface {
	AddDiscrepancy(from, to uint64, liveTestCount int64, provider string) error
}

// BlockDiff is one block where the two providers' counts diverge.
type BlockDiff struct {
	Block     uint64
	RefCount  int64
	TestCount int64
}

// Finding is the outcome for one disagreeing range.
type Finding struct {
	From            uint64
	To              uint64
	StoredCount     int64
	RefCount        int64
	TestCount       int64
	DivergentBlocks []BlockDiff
}

// Localizer compares a reference and a test provider over stored ranges and
// narrows disagreements down to individual blocks.
type Localizer struct {
	counter      Counter
	recorder     Recorder
	refProvider  string
	testProvider string
	log          *zap.Logger
}

// NewLocalizer creates a localizer. recorder may be nil for read-only runs
// that must not persist findings.
func NewLocalizer(counter Counter, recorder Recorder, refProvider, testProvider string, log *zap.Logger) *Localizer {
	return &Localizer{
		counter:      counter,
		recorder:     recorder,
		refProvider:  refProvider,
		testProvider: testProvider,
		log:          log,
	}
}

// Run compares both providers' aggregate counts for each stored OK range.
// Agreeing ranges cost one extra call per provider; a disagreeing range pays
// a per-block scan and yields one persisted discrepancy row holding the live
// test-provider count. Ranges where either provider cannot be queried are
// logged and skipped without a finding.
func (l *Localizer) Run(ctx context.Context, ranges []store.LogRange) ([]Finding, error) {
	var findings []Finding

	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		if r.Status != store.StatusOK || r.Cnt == nil {
			continue
		}

		refCnt, testCnt, ok := l.countBoth(ctx, r.FromBlock, r.ToBlock)
		if !ok {
			continue
		}

		if refCnt == testCnt {
			// Informational only: the reference moved since the stored scan.
			if refCnt != *r.Cnt {
				l.log.Info("stored count is stale",
					zap.Uint64("from", r.FromBlock),
					zap.Uint64("to", r.ToBlock),
					zap.Int64("stored", *r.Cnt),
					zap.Int64("reference", refCnt),
				)
			}
			continue
		}

		l.log.Warn("providers disagree over range",
			zap.Uint64("from", r.FromBlock),
			zap.Uint64("to", r.ToBlock),
			zap.Int64("reference", refCnt),
			zap.Int64("test", testCnt),
		)

		blocks := l.narrow(ctx, r.FromBlock, r.ToBlock)
		findings = append(findings, Finding{
			From:            r.FromBlock,
			To:              r.ToBlock,
			StoredCount:     *r.Cnt,
			RefCount:        refCnt,
			TestCount:       testCnt,
			DivergentBlocks: blocks,
		})

		if l.recorder != nil {
			if err := l.recorder.AddDiscrepancy(r.FromBlock, r.ToBlock, testCnt, l.testProvider); err != nil {
				l.log.Error("failed to persist discrepancy",
					zap.Uint64("from", r.FromBlock),
					zap.Uint64("to", r.ToBlock),
					zap.Error(err),
				)
			}
		}
	}

	return findings, nil
}

// Recheck re-examines previously recorded discrepancies without writing
// anything back. Still-disagreeing ranges are narrowed per block; resolved
// ones get a staleness note against the stored count.
func (l *Localizer) Recheck(ctx context.Context, discrepancies []store.Discrepancy) ([]Finding, error) {
	var findings []Finding

	for _, d := range discrepancies {
		if err := ctx.Err(); err != nil {
			return findings, err
		}

		refCnt, testCnt, ok := l.countBoth(ctx, d.FromBlock, d.ToBlock)
		if !ok {
			continue
		}

		if refCnt == testCnt {
			if refCnt != d.DiscrepancyCount {
				l.log.Info("recorded discrepancy is stale",
					zap.Uint64("from", d.FromBlock),
					zap.Uint64("to", d.ToBlock),
					zap.Int64("recorded", d.DiscrepancyCount),
					zap.Int64("reference", refCnt),
				)
			} else {
				l.log.Info("providers now agree",
					zap.Uint64("from", d.FromBlock),
					zap.Uint64("to", d.ToBlock),
				)
			}
			continue
		}

		l.log.Warn("providers still disagree",
			zap.Uint64("from", d.FromBlock),
			zap.Uint64("to", d.ToBlock),
			zap.Int64("reference", refCnt),
			zap.Int64("test", testCnt),
		)

		blocks := l.narrow(ctx, d.FromBlock, d.ToBlock)
		findings = append(findings, Finding{
			From:            d.FromBlock,
			To:              d.ToBlock,
			StoredCount:     d.DiscrepancyCount,
			RefCount:        refCnt,
			TestCount:       testCnt,
			DivergentBlocks: blocks,
		})
	}

	return findings, nil
}

// countBoth fetches the aggregate count from both providers. Either provider
// failing makes the range unavailable for comparison.
func (l *Localizer) countBoth(ctx context.Context, from, to uint64) (refCnt, testCnt int64, ok bool) {
	refCnt, err := l.counter.CountLogs(ctx, l.refProvider, from, to)
	if err != nil {
		l.log.Warn("reference provider unavailable for range",
			zap.Uint64("from", from), zap.Uint64("to", to), zap.Error(err))
		return 0, 0, false
	}
	testCnt, err = l.counter.CountLogs(ctx, l.testProvider, from, to)
	if err != nil {
		l.log.Warn("test provider unavailable for range",
			zap.Uint64("from", from), zap.Uint64("to", to), zap.Error(err))
		return 0, 0, false
	}
	return refCnt, testCnt, true
}

// narrow scans every block in [from, to] against both providers and returns
// the blocks whose counts differ. Progress is reported at coarse percentage
// milestones to bound output volume. Blocks where either provider fails are
// logged and skipped.
func (l *Localizer) narrow(ctx context.Context, from, to uint64) []BlockDiff {
	total := to - from + 1
	var diffs []BlockDiff
	lastMilestone := uint64(0)

	for blk := from; ; blk++ {
		if ctx.Err() != nil {
			return diffs
		}

		done := blk - from + 1
		if pct := done * 100 / total; pct/10 > lastMilestone {
			lastMilestone = pct / 10
			l.log.Info("narrowing progress",
				zap.Uint64("percent", pct),
				zap.Uint64("done", done),
				zap.Uint64("total", total),
			)
		}

		refCnt, testCnt, ok := l.countBoth(ctx, blk, blk)
		if ok && refCnt != testCnt {
			diffs = append(diffs, BlockDiff{Block: blk, RefCount: refCnt, TestCount: testCnt})
			l.log.Warn("block diverges",
				zap.Uint64("block", blk),
				zap.Int64("reference", refCnt),
				zap.Int64("test", testCnt),
			)
		}

		if blk == to {
			break
		}
	}

	return diffs
}
