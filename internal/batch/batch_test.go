// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/pkg/types"
)

// fakeConverter fails for the configured paths and tracks concurrency.
type fakeConverter struct {
	fail     map[string]bool
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	started  []string
}

func (f *fakeConverter) Convert(_ context.Context, path string, _ types.Strategy, _ types.Options) (*types.Result, error) {
	f.mu.Lock()
	f.started = append(f.started, path)
	f.mu.Unlock()

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)

	if f.fail[path] {
		return nil, &convert.ConversionError{Path: path, Format: types.FormatPDF}
	}
	return &types.Result{Markdown: "converted " + path}, nil
}

func inputs(n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("doc%02d.pdf", i+1)
	}
	return paths
}

func TestConvertAll_CollectsFailures(t *testing.T) {
	paths := inputs(10)
	conv := &fakeConverter{fail: map[string]bool{paths[6]: true}, delay: 5 * time.Millisecond}
	c := New(conv)

	outcomes := c.ConvertAll(context.Background(), paths, types.StrategyAuto, types.DefaultOptions(), 4, false)
	require.Len(t, outcomes, 10)

	for i, o := range outcomes {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, paths[i], o.Path, "outcomes must keep input order")
		if i == 6 {
			assert.ErrorIs(t, o.Err, convert.ErrConversionFailed)
			assert.Nil(t, o.Result)
			continue
		}
		require.NoError(t, o.Err)
		assert.Equal(t, "converted "+paths[i], o.Result.Markdown)
	}

	assert.LessOrEqual(t, conv.peak.Load(), int32(4))
	assert.Equal(t, Summary{Converted: 9, Failed: 1}, Summarize(outcomes))
}

func TestConvertAll_FailFast(t *testing.T) {
	paths := inputs(6)
	conv := &fakeConverter{fail: map[string]bool{paths[0]: true}}
	c := New(conv)

	outcomes := c.ConvertAll(context.Background(), paths, types.StrategyAuto, types.DefaultOptions(), 1, true)
	require.Len(t, outcomes, 6)

	assert.ErrorIs(t, outcomes[0].Err, convert.ErrConversionFailed)
	for _, o := range outcomes[1:] {
		assert.ErrorIs(t, o.Err, convert.ErrSkipped)
	}
	assert.Equal(t, []string{paths[0]}, conv.started)

	s := Summarize(outcomes)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 5, s.Skipped)
	assert.True(t, s.HasFailures())
}

func TestConvertAll_FailFastLetsInFlightFinish(t *testing.T) {
	paths := inputs(8)
	conv := &fakeConverter{fail: map[string]bool{paths[0]: true}, delay: 20 * time.Millisecond}
	c := New(conv)

	outcomes := c.ConvertAll(context.Background(), paths, types.StrategyAuto, types.DefaultOptions(), 3, true)
	require.Len(t, outcomes, 8)

	s := Summarize(outcomes)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 8, s.Total())
	// Every item that was started produced a real outcome.
	for _, o := range outcomes {
		if errors.Is(o.Err, convert.ErrSkipped) {
			continue
		}
		assert.Contains(t, conv.started, o.Path)
	}
	assert.Positive(t, s.Skipped)
}

func TestConvertAll_Progress(t *testing.T) {
	paths := inputs(5)
	var calls []int
	c := New(&fakeConverter{}, WithProgress(func(done, total int, _ Outcome) {
		assert.Equal(t, 5, total)
		calls = append(calls, done)
	}))

	c.ConvertAll(context.Background(), paths, types.StrategyAuto, types.DefaultOptions(), 2, false)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, calls)
}

func TestConvertAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conv := &fakeConverter{}

	outcomes := New(conv).ConvertAll(ctx, inputs(3), types.StrategyAuto, types.DefaultOptions(), 2, false)
	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
	assert.Empty(t, conv.started)
}

func TestConvertAll_EmptyAndZeroWorkers(t *testing.T) {
	c := New(&fakeConverter{})
	assert.Empty(t, c.ConvertAll(context.Background(), nil, types.StrategyAuto, types.DefaultOptions(), 4, false))

	outcomes := c.ConvertAll(context.Background(), inputs(2), types.StrategyAuto, types.DefaultOptions(), 0, false)
	assert.Len(t, outcomes, 2)
}

func TestSummaryPrint(t *testing.T) {
	var buf bytes.Buffer
	Summary{Converted: 3, Skipped: 1, Failed: 2}.Print(&buf)
	assert.Equal(t, "\nBatch summary: 3 converted, 1 skipped, 2 failed (total: 6)\n", buf.String())
}
