// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package strategy resolves a requested conversion strategy to a concrete
// one. Explicit requests pass through; auto is resolved from the registered
// strategies for the format and, for PDFs, from how much text the leading
// pages carry.
package strategy

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Catalog reports which concrete strategies are registered for a format,
// in preference order.
type Catalog interface {
	Strategies(format types.Format) []types.Strategy
}

// Selector picks concrete strategies. Safe for concurrent use.
type Selector struct {
	cfg     types.SelectorConfig
	catalog Catalog
	logger  zerolog.Logger
}

// New creates a selector.
func New(cfg types.SelectorConfig, catalog Catalog, logger zerolog.Logger) *Selector {
	return &Selector{cfg: cfg, catalog: catalog, logger: logger}
}

// Select returns the concrete strategy to use for path, detected as format.
// A concrete requested strategy is returned unchanged even when nothing is
// registered for it; the orchestrator reports that as an unavailable
// candidate. sampler may be nil.
func (s *Selector) Select(ctx context.Context, format types.Format, requested types.Strategy, sampler convert.PageSampler, path string) types.Strategy {
	if requested.Concrete() {
		return requested
	}

	registered := s.catalog.Strategies(format)
	if len(registered) == 1 {
		return registered[0]
	}

	if format == types.FormatPDF {
		return s.registeredOr(registered, s.selectPDF(ctx, sampler, path), path)
	}

	if len(registered) > 0 {
		return registered[0]
	}
	return types.ConcreteStrategies[0]
}

// registeredOr returns want when it is registered, otherwise the most
// preferred registered strategy. With nothing registered want is kept.
func (s *Selector) registeredOr(registered []types.Strategy, want types.Strategy, path string) types.Strategy {
	if len(registered) == 0 {
		return want
	}
	for _, r := range registered {
		if r == want {
			return want
		}
	}
	s.logger.Warn().Str("path", path).Str("wanted", string(want)).Str("using", string(registered[0])).
		Msg("preferred strategy not registered")
	return registered[0]
}

// selectPDF samples leading pages and chooses OCR when they carry too little
// text to be a digital document.
func (s *Selector) selectPDF(ctx context.Context, sampler convert.PageSampler, path string) types.Strategy {
	log := s.logger.With().Str("path", path).Logger()

	if sampler == nil {
		log.Debug().Msg("no page sampler registered, assuming digital pdf")
		return types.StrategyFast
	}

	pages, err := sampler.SamplePages(ctx, path, s.cfg.SamplePages)
	if err != nil {
		log.Warn().Err(err).Msg("page sampling failed, assuming digital pdf")
		return types.StrategyFast
	}
	if len(pages) == 0 {
		log.Debug().Msg("no pages sampled, treating as scanned")
		return types.StrategyOCR
	}

	total := 0
	for _, p := range pages {
		total += utf8.RuneCountInString(strings.TrimSpace(p))
	}
	avg := float64(total) / float64(len(pages))

	if avg < float64(s.cfg.MinCharsPerPage) {
		log.Debug().Float64("avg_chars", avg).Int("pages", len(pages)).Msg("little extractable text, selecting ocr")
		return types.StrategyOCR
	}
	log.Debug().Float64("avg_chars", avg).Int("pages", len(pages)).Msg("text layer present, selecting fast")
	return types.StrategyFast
}
