// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/doc2md/pkg/types"
)

// Validator applies the output sanity checks. The zero value is not useful;
// build one with NewValidator.
type Validator struct {
	cfg types.ValidationConfig
}

// NewValidator creates a validator with the given bounds.
func NewValidator(cfg types.ValidationConfig) Validator {
	return Validator{cfg: cfg}
}

// Validate checks r, produced from an input of inputSize bytes. The returned
// error wraps ErrValidationFailed and names the first check that failed.
func (v Validator) Validate(r *types.Result, inputSize int64) error {
	if r == nil {
		return fmt.Errorf("%w: converter returned no result", ErrValidationFailed)
	}

	minChars := v.cfg.MinMarkdownChars
	if inputSize < v.cfg.SmallInputBytes {
		minChars = 1
	} else if perPage := r.Metadata.PageCount * v.cfg.MinCharsPerPage; perPage > minChars {
		minChars = perPage
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(r.Markdown)); n < minChars {
		return fmt.Errorf("%w: markdown has %d characters, need at least %d", ErrValidationFailed, n, minChars)
	}

	if len(r.Images) > v.cfg.MaxImages {
		return fmt.Errorf("%w: %d images exceeds limit %d", ErrValidationFailed, len(r.Images), v.cfg.MaxImages)
	}
	if len(r.Tables) > v.cfg.MaxTables {
		return fmt.Errorf("%w: %d tables exceeds limit %d", ErrValidationFailed, len(r.Tables), v.cfg.MaxTables)
	}

	for i, t := range r.Tables {
		if t.Rows < 0 || t.Columns < 0 {
			return fmt.Errorf("%w: table %d has %d rows and %d columns", ErrValidationFailed, i, t.Rows, t.Columns)
		}
	}
	return nil
}
