package scan

import (
	"context"
	"fmt"
	"testing"

	"log-reconciler/core/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	refURL  = "https://ref.example.org"
	testURL = "https://test.example.org"
)

// scriptedCounter serves fixed counts per provider and range.
type scriptedCounter struct {
	counts map[string]int64
	errs   map[string]error
	calls  int
}

func rangeKey(provider string, from, to uint64) string {
	return fmt.Sprintf("%s|%d-%d", provider, from, to)
}

func (c *scriptedCounter) CountLogs(_ context.Context, provider string, from, to uint64) (int64, error) {
	c.calls++
	key := rangeKey(provider, from, to)
	if err, ok := c.errs[key]; ok {
		return 0, err
	}
	cnt, ok := c.counts[key]
	if !ok {
		return 0, fmt.Errorf("unscripted call %s", key)
	}
	return cnt, nil
}

type recordedDiscrepancy struct {
	from, to uint64
	count    int64
	provider string
}

type captureRecorder struct {
	rows []recordedDiscrepancy
}

func (r *captureRecorder) AddDiscrepancy(from, to uint64, liveTestCount int64, provider string) error {
	r.rows = append(r.rows, recordedDiscrepancy{from: from, to: to, count: liveTestCount, provider: provider})
	return nil
}

func okRange(from, to uint64, cnt int64) store.LogRange {
	return store.LogRange{FromBlock: from, ToBlock: to, Cnt: &cnt, Status: store.StatusOK}
}

func TestRun_LocalizesDisagreementToBlock(t *testing.T) {
	// Stored [10,19] with reference aggregate 5 vs test aggregate 4; block 13
	// carries the missing log.
	counter := &scriptedCounter{counts: map[string]int64{
		rangeKey(refURL, 10, 19):  5,
		rangeKey(testURL, 10, 19): 4,
	}}
	for blk := uint64(10); blk <= 19; blk++ {
		var ref, test int64
		if blk == 12 || blk == 15 {
			ref, test = 2, 2
		}
		if blk == 13 {
			ref, test = 1, 0
		}
		counter.counts[rangeKey(refURL, blk, blk)] = ref
		counter.counts[rangeKey(testURL, blk, blk)] = test
	}

	recorder := &captureRecorder{}
	l := NewLocalizer(counter, recorder, refURL, testURL, zap.NewNop())

	findings, err := l.Run(context.Background(), []store.LogRange{okRange(10, 19, 5)})
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, uint64(10), f.From)
	assert.Equal(t, uint64(19), f.To)
	assert.Equal(t, int64(5), f.RefCount)
	assert.Equal(t, int64(4), f.TestCount)
	require.Len(t, f.DivergentBlocks, 1)
	assert.Equal(t, BlockDiff{Block: 13, RefCount: 1, TestCount: 0}, f.DivergentBlocks[0])

	// One persisted row per disagreeing range, holding the live test count.
	require.Len(t, recorder.rows, 1)
	assert.Equal(t, recordedDiscrepancy{from: 10, to: 19, count: 4, provider: testURL}, recorder.rows[0])
}

func TestRun_AgreeingRangeCostsTwoCalls(t *testing.T) {
	counter := &scriptedCounter{counts: map[string]int64{
		rangeKey(refURL, 0, 999):  7,
		rangeKey(testURL, 0, 999): 7,
	}}
	recorder := &captureRecorder{}
	l := NewLocalizer(counter, recorder, refURL, testURL, zap.NewNop())

	findings, err := l.Run(context.Background(), []store.LogRange{okRange(0, 999, 7)})
	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Empty(t, recorder.rows)
	assert.Equal(t, 2, counter.calls)
}

func TestRun_StaleStoredCountIsInformationalOnly(t *testing.T) {
	// Providers agree on 9 but the stored count says 7: note, no finding.
	counter := &scriptedCounter{counts: map[string]int64{
		rangeKey(refURL, 0, 99):  9,
		rangeKey(testURL, 0, 99): 9,
	}}
	recorder := &captureRecorder{}
	l := NewLocalizer(counter, recorder, refURL, testURL, zap.NewNop())

	findings, err := l.Run(context.Background(), []store.LogRange{okRange(0, 99, 7)})
	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Empty(t, recorder.rows)
}

func TestRun_SkipsUnavailableAndErrorRows(t *testing.T) {
	counter := &scriptedCounter{
		counts: map[string]int64{},
		errs: map[string]error{
			rangeKey(refURL, 0, 99): fmt.Errorf("connection refused"),
		},
	}
	recorder := &captureRecorder{}
	l := NewLocalizer(counter, recorder, refURL, testURL, zap.NewNop())

	errType := "transport"
	rows := []store.LogRange{
		okRange(0, 99, 3),
		{FromBlock: 100, ToBlock: 199, Status: store.StatusError, ErrorType: &errType},
	}

	findings, err := l.Run(context.Background(), rows)
	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Empty(t, recorder.rows)
	// The unavailable range costs one call; the ERROR row costs none.
	assert.Equal(t, 1, counter.calls)
}

func TestRecheck_ReadOnlyNarrowing(t *testing.T) {
	counter := &scriptedCounter{counts: map[string]int64{
		rangeKey(refURL, 10, 12):  2,
		rangeKey(testURL, 10, 12): 1,
		rangeKey(refURL, 10, 10):  0,
		rangeKey(testURL, 10, 10): 0,
		rangeKey(refURL, 11, 11):  1,
		rangeKey(testURL, 11, 11): 0,
		rangeKey(refURL, 12, 12):  1,
		rangeKey(testURL, 12, 12): 1,
		rangeKey(refURL, 20, 29):  5,
		rangeKey(testURL, 20, 29): 5,
	}}
	l := NewLocalizer(counter, nil, refURL, testURL, zap.NewNop())

	discrepancies := []store.Discrepancy{
		{FromBlock: 10, ToBlock: 12, DiscrepancyCount: 1, Provider: testURL},
		// Resolved since recording; reference now differs from the recorded count.
		{FromBlock: 20, ToBlock: 29, DiscrepancyCount: 4, Provider: testURL},
	}

	findings, err := l.Recheck(context.Background(), discrepancies)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, uint64(10), findings[0].From)
	require.Len(t, findings[0].DivergentBlocks, 1)
	assert.Equal(t, uint64(11), findings[0].DivergentBlocks[0].Block)
}

func TestRun_CancelledContextStops(t *testing.T) {
	counter := &scriptedCounter{counts: map[string]int64{}}
	l := NewLocalizer(counter, nil, refURL, testURL, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Run(ctx, []store.LogRange{okRange(0, 9, 1)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, counter.calls)
}
