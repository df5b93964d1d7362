// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch converts many inputs concurrently through a bounded worker
// pool. Per-item failures never abort the batch unless fail-fast is set, and
// outcomes are always reported in input order.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Converter is the single-item operation the coordinator fans out.
// *orchestrator.Orchestrator satisfies it.
type Converter interface {
	Convert(ctx context.Context, path string, requested types.Strategy, opts types.Options) (*types.Result, error)
}

// Outcome is the result of one batch item. Exactly one of Result and Err is set.
type Outcome struct {
	Index  int
	Path   string
	Result *types.Result
	Err    error
}

// OK reports whether the item converted successfully.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// ProgressFunc is called after each item finishes. Calls are serialized.
type ProgressFunc func(done, total int, o Outcome)

// Coordinator runs batches. Safe for concurrent use.
type Coordinator struct {
	conv     Converter
	logger   zerolog.Logger
	progress ProgressFunc
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithProgress registers a callback fired after each item.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Coordinator) { c.progress = fn }
}

// WithLogger sets the coordinator's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New creates a coordinator over conv.
func New(conv Converter, opts ...Option) *Coordinator {
	c := &Coordinator{conv: conv, logger: zerolog.Nop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ConvertAll converts every path with at most workers conversions in flight.
// The returned slice has one outcome per path, in input order. With
// failFast, once any item fails no further item starts; those items get
// convert.ErrSkipped while work already in flight runs to completion.
func (c *Coordinator) ConvertAll(ctx context.Context, paths []string, requested types.Strategy, opts types.Options, workers int, failFast bool) []Outcome {
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]Outcome, len(paths))
	var (
		failed atomic.Bool
		mu     sync.Mutex
		done   int
	)

	finish := func(o Outcome) {
		outcomes[o.Index] = o
		if c.progress == nil {
			return
		}
		mu.Lock()
		done++
		c.progress(done, len(paths), o)
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			o := Outcome{Index: i, Path: p}
			switch {
			case failFast && failed.Load():
				o.Err = convert.ErrSkipped
			case ctx.Err() != nil:
				o.Err = ctx.Err()
			default:
				o.Result, o.Err = c.conv.Convert(ctx, p, requested, opts)
			}

			if o.Err != nil {
				failed.Store(true)
				c.logger.Debug().Str("path", p).Err(o.Err).Msg("batch item failed")
			}
			finish(o)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// Summary counts batch outcomes.
type Summary struct {
	Converted int
	Skipped   int
	Failed    int
}

// Summarize counts outcomes by kind.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		switch {
		case o.OK():
			s.Converted++
		case errors.Is(o.Err, convert.ErrSkipped):
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}

// Total returns the total number of items processed.
func (s Summary) Total() int {
	return s.Converted + s.Skipped + s.Failed
}

// HasFailures reports whether any item failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Print writes the one-line batch summary.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		s.Converted, s.Skipped, s.Failed, s.Total())
}
