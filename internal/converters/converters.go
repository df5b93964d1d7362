// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package converters wires the built-in converters into the default
// capability table and assembles a ready-to-use orchestrator.
package converters

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/doc2md/internal/container"
	"github.com/pdiddy/doc2md/internal/converters/csv"
	"github.com/pdiddy/doc2md/internal/converters/docx"
	"github.com/pdiddy/doc2md/internal/converters/html"
	"github.com/pdiddy/doc2md/internal/converters/markitdown"
	"github.com/pdiddy/doc2md/internal/converters/ocr"
	"github.com/pdiddy/doc2md/internal/converters/pdftext"
	"github.com/pdiddy/doc2md/internal/converters/plaintext"
	"github.com/pdiddy/doc2md/internal/converters/remote"
	"github.com/pdiddy/doc2md/internal/converters/xlsx"
	"github.com/pdiddy/doc2md/internal/detect"
	"github.com/pdiddy/doc2md/internal/orchestrator"
	"github.com/pdiddy/doc2md/internal/registry"
	"github.com/pdiddy/doc2md/internal/secrets"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Deps are the external collaborators the built-in converters need.
type Deps struct {
	Config types.Config

	// Runtime runs the OCR and markitdown containers. Nil leaves those
	// converters unavailable.
	Runtime container.Runtime

	// Secrets supplies API keys missing from Config.
	Secrets secrets.Store
}

// Capabilities returns the default capability table:
//
//	pdf    fast=pdftext  accurate=remote  ocr=ocr
//	docx   fast=docx     accurate=markitdown
//	xlsx   fast=xlsx     accurate=markitdown
//	pptx   fast=markitdown
//	epub   fast=markitdown
//	html   fast=html
//	csv    fast=csv
//	text   fast=plaintext
//	image  ocr=ocr
func Capabilities(d Deps) []registry.Capability {
	cfg := d.Config

	remoteCfg := cfg.Remote
	if remoteCfg.APIKey == "" {
		remoteCfg.APIKey = d.Secrets.Get(secrets.RemoteAPIKey)
	}
	mdCfg := cfg.Markitdown
	if mdCfg.LLMAPIKey == "" {
		mdCfg.LLMAPIKey = d.Secrets.Get(secrets.OpenAIAPIKey)
	}

	var (
		pdfText = pdftext.New()
		ocrConv = ocr.New(d.Runtime, cfg.OCR)
		remConv = remote.New(remoteCfg)
		mdConv  = markitdown.New(d.Runtime, mdCfg)
	)

	return []registry.Capability{
		{Format: types.FormatPDF, Strategy: types.StrategyFast, Converter: pdfText},
		{Format: types.FormatPDF, Strategy: types.StrategyAccurate, Converter: remConv},
		{Format: types.FormatPDF, Strategy: types.StrategyOCR, Converter: ocrConv},
		{Format: types.FormatDOCX, Strategy: types.StrategyFast, Converter: docx.New()},
		{Format: types.FormatDOCX, Strategy: types.StrategyAccurate, Converter: mdConv},
		{Format: types.FormatXLSX, Strategy: types.StrategyFast, Converter: xlsx.New()},
		{Format: types.FormatXLSX, Strategy: types.StrategyAccurate, Converter: mdConv},
		{Format: types.FormatPPTX, Strategy: types.StrategyFast, Converter: mdConv},
		{Format: types.FormatEPUB, Strategy: types.StrategyFast, Converter: mdConv},
		{Format: types.FormatHTML, Strategy: types.StrategyFast, Converter: html.New()},
		{Format: types.FormatCSV, Strategy: types.StrategyFast, Converter: csv.New()},
		{Format: types.FormatText, Strategy: types.StrategyFast, Converter: plaintext.New()},
		{Format: types.FormatImage, Strategy: types.StrategyOCR, Converter: ocrConv},
	}
}

// LoadTables returns the detection tables and fallback policy from path, or
// the built-in defaults when path is empty.
func LoadTables(path string) (detect.Tables, types.FallbackPolicy, error) {
	if path == "" {
		return detect.DefaultTables(), types.DefaultFallbackPolicy(), nil
	}
	t, p, err := detect.LoadTables(path)
	if err != nil {
		return detect.Tables{}, nil, fmt.Errorf("loading tables: %w", err)
	}
	return t, p, nil
}

// SeedExtensions adds the extensions of every available converter to t,
// in format display order. Mappings already present win.
func SeedExtensions(t detect.Tables, reg *registry.Registry) detect.Tables {
	exts := reg.Extensions()
	for _, f := range types.Formats {
		if len(exts[f]) > 0 {
			t = t.WithExtensions(f, exts[f])
		}
	}
	return t
}

// NewEngine builds the registry from the default capability table and
// returns an orchestrator over it.
func NewEngine(d Deps, logger zerolog.Logger) (*orchestrator.Orchestrator, error) {
	tables, policy, err := LoadTables(d.Config.TablesFile)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Build(Capabilities(d), logger)
	if err != nil {
		return nil, fmt.Errorf("building registry: %w", err)
	}

	return orchestrator.New(orchestrator.Config{
		Detector:   detect.New(SeedExtensions(tables, reg)),
		Registry:   reg,
		Selector:   d.Config.Selector,
		Validation: d.Config.Validation,
		Fallbacks:  policy,
		Logger:     logger,
	}), nil
}
