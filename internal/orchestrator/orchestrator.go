// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator runs one conversion end to end: detect the format,
// resolve the strategy, then try the primary converter and its declared
// fallbacks in order until one produces output that passes validation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/internal/detect"
	"github.com/pdiddy/doc2md/internal/registry"
	"github.com/pdiddy/doc2md/internal/strategy"
	"github.com/pdiddy/doc2md/pkg/types"
)

// State names a step of a single conversion.
type State string

const (
	StateInit             State = "init"
	StateDetected         State = "detected"
	StateStrategySelected State = "strategy_selected"
	StateConverting       State = "converting"
	StateValidating       State = "validating"
	StateSuccess          State = "success"
	StateFailed           State = "failed"
)

// Orchestrator converts single inputs. It holds only read-only collaborators
// and is safe for concurrent use.
type Orchestrator struct {
	detector  *detect.Detector
	registry  *registry.Registry
	selector  *strategy.Selector
	validator convert.Validator
	policy    types.FallbackPolicy
	logger    zerolog.Logger
}

// Config carries the orchestrator's collaborators and tunables.
type Config struct {
	Detector   *detect.Detector
	Registry   *registry.Registry
	Selector   types.SelectorConfig
	Validation types.ValidationConfig
	Fallbacks  types.FallbackPolicy
	Logger     zerolog.Logger
}

// New creates an orchestrator. A nil Fallbacks policy means no fallbacks.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		detector:  cfg.Detector,
		registry:  cfg.Registry,
		selector:  strategy.New(cfg.Selector, cfg.Registry, cfg.Logger),
		validator: convert.NewValidator(cfg.Validation),
		policy:    cfg.Fallbacks,
		logger:    cfg.Logger,
	}
}

// Registry returns the registry the orchestrator dispatches to.
func (o *Orchestrator) Registry() *registry.Registry {
	return o.registry
}

// Detect classifies path without converting it.
func (o *Orchestrator) Detect(path string) (types.Detection, error) {
	return o.detector.DetectFile(path)
}

// Convert converts the file at path. requested may be StrategyAuto. On
// success the result's provenance names the converter that produced it and
// lists every attempt made. When every candidate fails the error is a
// *convert.ConversionError.
func (o *Orchestrator) Convert(ctx context.Context, path string, requested types.Strategy, opts types.Options) (*types.Result, error) {
	log := o.logger.With().Str("path", path).Logger()
	log.Debug().Str("state", string(StateInit)).Str("requested", string(requested)).Msg("conversion started")

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		log.Debug().Str("state", string(StateFailed)).Err(err).Msg("input not readable")
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	det, err := o.detector.DetectFile(path)
	if err != nil {
		log.Debug().Str("state", string(StateFailed)).Err(err).Msg("detection failed")
		return nil, fmt.Errorf("detecting %s: %w", path, err)
	}
	if !det.Known() {
		log.Debug().Str("state", string(StateFailed)).Msg("unknown format")
		return nil, fmt.Errorf("%w: %s", convert.ErrUnsupportedFormat, path)
	}
	log = log.With().Str("format", string(det.Format)).Logger()
	log.Debug().Str("state", string(StateDetected)).
		Float64("confidence", det.Confidence).Str("method", string(det.Method)).Msg("format detected")

	primary := o.selector.Select(ctx, det.Format, requested, o.registry.Sampler(det.Format), path)
	candidates := o.policy.Candidates(det.Format, primary)
	log.Debug().Str("state", string(StateStrategySelected)).
		Str("strategy", string(primary)).Int("candidates", len(candidates)).Msg("strategy selected")

	opts.Format = det.Format

	var attempts []types.Attempt
	for _, s := range candidates {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, types.Attempt{Format: det.Format, Strategy: s, Err: err, Verdict: types.VerdictNotRun})
			break
		}

		result, attempt := o.attempt(ctx, log, path, info.Size(), det.Format, s, opts)
		attempts = append(attempts, attempt)
		if attempt.Success {
			out := *result
			out.Provenance.Attempts = attempts
			log.Debug().Str("state", string(StateSuccess)).
				Str("converter", attempt.Converter).Str("strategy", string(s)).
				Int("prior_attempts", len(attempts)-1).Msg("conversion succeeded")
			return &out, nil
		}
	}

	log.Debug().Str("state", string(StateFailed)).Int("attempts", len(attempts)).Msg("all candidates failed")
	return nil, &convert.ConversionError{Path: path, Format: det.Format, Attempts: attempts}
}

// attempt runs one candidate and validates its output. The returned result
// is non-nil only when the attempt succeeded.
func (o *Orchestrator) attempt(ctx context.Context, log zerolog.Logger, path string, size int64, format types.Format, s types.Strategy, opts types.Options) (*types.Result, types.Attempt) {
	a := types.Attempt{Format: format, Strategy: s, Verdict: types.VerdictNotRun}

	c, err := o.registry.Get(format, s)
	if err != nil {
		a.Err = fmt.Errorf("%w: %w", convert.ErrConverterUnavailable, err)
		log.Debug().Str("strategy", string(s)).Msg("no converter for candidate")
		return nil, a
	}
	a.Converter = c.Name()

	log.Debug().Str("state", string(StateConverting)).Str("converter", a.Converter).Str("strategy", string(s)).Msg("invoking converter")
	result, err := invoke(ctx, c, path, opts)
	if err != nil {
		a.Err = err
		log.Debug().Str("converter", a.Converter).Err(err).Msg("converter failed")
		return nil, a
	}
	if result == nil {
		a.Err = o.validator.Validate(nil, size)
		a.Verdict = types.VerdictFailed
		log.Debug().Str("converter", a.Converter).Msg("converter returned no result")
		return nil, a
	}

	// Provenance is set before validation. The validated value is never
	// written again; Convert returns a copy carrying the attempt list.
	result.Provenance = types.Provenance{Converter: a.Converter, Format: format, Strategy: s}
	if result.Metadata.WordCount == 0 {
		result.Metadata.WordCount = types.CountWords(result.Markdown)
	}

	log.Debug().Str("state", string(StateValidating)).Str("converter", a.Converter).Msg("validating output")
	if err := o.validator.Validate(result, size); err != nil {
		a.Err = err
		a.Verdict = types.VerdictFailed
		log.Debug().Str("converter", a.Converter).Err(err).Msg("output rejected")
		return nil, a
	}

	a.Success = true
	a.Verdict = types.VerdictPassed
	return result, a
}

// invoke calls the converter under the per-conversion deadline and turns a
// panic into an error.
func invoke(ctx context.Context, c convert.Converter, path string, opts types.Options) (result *types.Result, err error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("converter %s panicked: %v", c.Name(), r)
		}
	}()

	result, err = c.Convert(ctx, path, opts)
	if err == nil && ctx.Err() != nil {
		// The converter ignored cancellation and returned late.
		return nil, fmt.Errorf("converter %s: %w", c.Name(), ctx.Err())
	}
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("converter %s timed out after %s: %w", c.Name(), opts.Timeout, err)
	}
	return result, err
}
