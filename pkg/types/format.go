// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Format identifies a recognized document kind. The set is closed: adding a
// format means adding a constant here plus registry entries.
type Format string

const (
	FormatUnknown Format = "unknown"
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatXLSX    Format = "xlsx"
	FormatPPTX    Format = "pptx"
	FormatEPUB    Format = "epub"
	FormatZIP     Format = "zip"
	FormatHTML    Format = "html"
	FormatCSV     Format = "csv"
	FormatText    Format = "text"
	FormatImage   Format = "image"
)

// Formats lists every known format except FormatUnknown, in display order.
var Formats = []Format{
	FormatPDF, FormatDOCX, FormatXLSX, FormatPPTX, FormatEPUB,
	FormatZIP, FormatHTML, FormatCSV, FormatText, FormatImage,
}

// ParseFormat converts a string to a Format. Unrecognized values return an error.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	if s == string(FormatUnknown) {
		return FormatUnknown, nil
	}
	return FormatUnknown, fmt.Errorf("unknown format %q", s)
}

// Strategy is a named execution mode for converting a format.
type Strategy string

const (
	// StrategyAuto is request intent only. It is resolved to a concrete
	// strategy before any registry lookup and is never a registry key.
	StrategyAuto     Strategy = "auto"
	StrategyFast     Strategy = "fast"
	StrategyOCR      Strategy = "ocr"
	StrategyAccurate Strategy = "accurate"
)

// ConcreteStrategies lists the strategies that may key a registry entry,
// in preference order for auto resolution.
var ConcreteStrategies = []Strategy{StrategyFast, StrategyAccurate, StrategyOCR}

// Concrete reports whether s can be used as a registry key.
func (s Strategy) Concrete() bool {
	for _, c := range ConcreteStrategies {
		if s == c {
			return true
		}
	}
	return false
}

// Rank returns the position of s in ConcreteStrategies, or len(ConcreteStrategies)
// for non-concrete values. Used for stable ordering.
func (s Strategy) Rank() int {
	for i, c := range ConcreteStrategies {
		if s == c {
			return i
		}
	}
	return len(ConcreteStrategies)
}

// ParseStrategy converts a string to a Strategy. The empty string means auto.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return StrategyAuto, nil
	case StrategyAuto, StrategyFast, StrategyOCR, StrategyAccurate:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown strategy %q (want auto, fast, ocr, or accurate)", s)
}

// Key is the registry primary key.
type Key struct {
	Format   Format   `json:"format" yaml:"format"`
	Strategy Strategy `json:"strategy" yaml:"strategy"`
}

func (k Key) String() string {
	return string(k.Format) + "/" + string(k.Strategy)
}

// DetectionMethod names the detection layer that produced a result.
type DetectionMethod string

const (
	MethodNone      DetectionMethod = "none"
	MethodExtension DetectionMethod = "extension"
	MethodMagic     DetectionMethod = "magic"
	MethodContainer DetectionMethod = "container"
	MethodContent   DetectionMethod = "content"
)

// Detection is the detector's best guess for one input.
type Detection struct {
	Format     Format          `json:"format" yaml:"format"`
	Confidence float64         `json:"confidence" yaml:"confidence"`
	Method     DetectionMethod `json:"method" yaml:"method"`
}

// Known reports whether the detection identified a format.
func (d Detection) Known() bool {
	return d.Format != FormatUnknown && d.Format != ""
}

// FallbackPolicy lists, per format and primary strategy, the secondary
// strategies that are acceptable degradations, in the order they are tried.
// Strategies that are never interchangeable for a format are absent.
type FallbackPolicy map[Format]map[Strategy][]Strategy

// DefaultFallbackPolicy returns the built-in fallback policy.
func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{
		FormatPDF: {
			StrategyFast:     {StrategyOCR},
			StrategyAccurate: {StrategyFast, StrategyOCR},
		},
		FormatDOCX: {
			StrategyFast:     {StrategyAccurate},
			StrategyAccurate: {StrategyFast},
		},
		FormatXLSX: {
			StrategyFast:     {StrategyAccurate},
			StrategyAccurate: {StrategyFast},
		},
	}
}

// Candidates returns the ordered list of strategies to try for format when
// primary was selected: primary first, then its fallbacks, with duplicates
// and non-concrete strategies removed.
func (p FallbackPolicy) Candidates(format Format, primary Strategy) []Strategy {
	out := []Strategy{primary}
	seen := map[Strategy]bool{primary: true}
	for _, s := range p[format][primary] {
		if seen[s] || !s.Concrete() {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
