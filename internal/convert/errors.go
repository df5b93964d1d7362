// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/doc2md/internal/detect"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Error kinds reported by the conversion core. Check them with errors.Is.
var (
	// ErrUnsupportedFormat means detection found no known format.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrConverterUnavailable means no available converter is registered for
	// a candidate (format, strategy) pair.
	ErrConverterUnavailable = errors.New("converter unavailable")

	// ErrValidationFailed means a converter returned output that failed the
	// sanity checks.
	ErrValidationFailed = errors.New("validation failed")

	// ErrConversionFailed means every candidate was tried and none produced
	// a validated result.
	ErrConversionFailed = errors.New("conversion failed")

	// ErrDetectionAmbiguous is re-exported from the detector.
	ErrDetectionAmbiguous = detect.ErrDetectionAmbiguous

	// ErrSkipped marks batch items that were never started because an
	// earlier item failed in fail-fast mode.
	ErrSkipped = errors.New("skipped after earlier failure")
)

// ConversionError reports that all candidates for an input failed. It
// carries every attempt in the order it was made.
type ConversionError struct {
	Path     string
	Format   types.Format
	Attempts []types.Attempt
}

func (e *ConversionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "converting %s (%s): %s after %d attempt(s)", e.Path, e.Format, ErrConversionFailed, len(e.Attempts))
	for i, a := range e.Attempts {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(a.String())
	}
	return b.String()
}

// Unwrap exposes ErrConversionFailed followed by each attempt's cause, so
// errors.Is matches both the aggregate kind and any per-attempt kind.
func (e *ConversionError) Unwrap() []error {
	errs := []error{ErrConversionFailed}
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}
