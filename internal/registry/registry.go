// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry maps (format, strategy) pairs to available converters.
// The registry is built once from a capability table, probing every
// converter's availability a single time, and is read-only afterwards.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/pkg/types"
)

// ErrNotRegistered is returned by Get when no available converter serves
// the requested pair.
var ErrNotRegistered = errors.New("no converter registered")

// Capability declares that Converter serves Format under Strategy.
type Capability struct {
	Format    types.Format
	Strategy  types.Strategy
	Converter convert.Converter
}

// Descriptor is a probed capability.
type Descriptor struct {
	Format    types.Format
	Strategy  types.Strategy
	Available bool
	Converter convert.Converter
}

// Key returns the descriptor's primary key.
func (d Descriptor) Key() types.Key {
	return types.Key{Format: d.Format, Strategy: d.Strategy}
}

// Registry holds the available converters. Safe for concurrent reads.
type Registry struct {
	entries     map[types.Key]convert.Converter
	descriptors []Descriptor
}

// Build probes every capability in table and keeps the available ones.
// Unavailable converters are omitted without error. A table that names the
// same pair twice, uses a non-concrete strategy, or has a nil converter is
// rejected.
func Build(table []Capability, logger zerolog.Logger) (*Registry, error) {
	r := &Registry{
		entries:     make(map[types.Key]convert.Converter, len(table)),
		descriptors: make([]Descriptor, 0, len(table)),
	}
	seen := make(map[types.Key]bool, len(table))

	for _, c := range table {
		key := types.Key{Format: c.Format, Strategy: c.Strategy}
		if c.Converter == nil {
			return nil, fmt.Errorf("capability %s: nil converter", key)
		}
		if !c.Strategy.Concrete() {
			return nil, fmt.Errorf("capability %s: strategy %q cannot be registered", key, c.Strategy)
		}
		if c.Format == types.FormatUnknown || c.Format == "" {
			return nil, fmt.Errorf("capability %s: format must be known", key)
		}
		if seen[key] {
			return nil, fmt.Errorf("capability %s: registered twice", key)
		}
		seen[key] = true

		available := c.Converter.Available()
		r.descriptors = append(r.descriptors, Descriptor{
			Format:    c.Format,
			Strategy:  c.Strategy,
			Available: available,
			Converter: c.Converter,
		})
		if !available {
			logger.Debug().Str("key", key.String()).Str("converter", c.Converter.Name()).Msg("converter unavailable, omitted")
			continue
		}
		r.entries[key] = c.Converter
	}

	sortDescriptors(r.descriptors)
	logger.Debug().Int("available", len(r.entries)).Int("declared", len(table)).Msg("registry built")
	return r, nil
}

// Get returns the converter registered for (format, strategy).
func (r *Registry) Get(format types.Format, strategy types.Strategy) (convert.Converter, error) {
	c, ok := r.entries[types.Key{Format: format, Strategy: strategy}]
	if !ok {
		return nil, fmt.Errorf("%w for %s/%s", ErrNotRegistered, format, strategy)
	}
	return c, nil
}

// ListAvailable returns every available pair, ordered by format then by
// strategy preference.
func (r *Registry) ListAvailable() []types.Key {
	keys := make([]types.Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keyLess(keys[i], keys[j])
	})
	return keys
}

// Strategies returns the available strategies for format in preference order.
func (r *Registry) Strategies(format types.Format) []types.Strategy {
	var out []types.Strategy
	for _, s := range types.ConcreteStrategies {
		if _, ok := r.entries[types.Key{Format: format, Strategy: s}]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Descriptors returns every probed capability, available or not.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Formats returns the formats with at least one available converter.
func (r *Registry) Formats() []types.Format {
	var out []types.Format
	for _, f := range types.Formats {
		if len(r.Strategies(f)) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// Sampler returns a page sampler for format, taken from the first available
// converter for that format that can sample pages.
func (r *Registry) Sampler(format types.Format) convert.PageSampler {
	for _, s := range types.ConcreteStrategies {
		c, ok := r.entries[types.Key{Format: format, Strategy: s}]
		if !ok {
			continue
		}
		if ps, ok := c.(convert.PageSampler); ok {
			return ps
		}
	}
	return nil
}

// Extensions returns, per format, the extensions reported by available
// converters.
func (r *Registry) Extensions() map[types.Format][]string {
	out := make(map[types.Format][]string)
	for _, k := range r.ListAvailable() {
		out[k.Format] = append(out[k.Format], r.entries[k].SupportedExtensions()...)
	}
	return out
}

func sortDescriptors(ds []Descriptor) {
	sort.SliceStable(ds, func(i, j int) bool {
		return keyLess(ds[i].Key(), ds[j].Key())
	})
}

func keyLess(a, b types.Key) bool {
	if a.Format != b.Format {
		return formatRank(a.Format) < formatRank(b.Format)
	}
	return a.Strategy.Rank() < b.Strategy.Rank()
}

func formatRank(f types.Format) int {
	for i, x := range types.Formats {
		if x == f {
			return i
		}
	}
	return len(types.Formats)
}
