// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detect identifies the format of an input file from its name and a
// bounded prefix of its content. Detection runs in layers of increasing
// evidence: extension, magic bytes, archive entry inspection, and finally a
// markup heuristic. A later layer only runs while the best confidence so far
// is below AcceptThreshold.
package detect

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/doc2md/pkg/types"
)

// SampleSize is the number of leading bytes the detector inspects.
const SampleSize = 8 << 10

// Confidence assigned by each layer.
const (
	AcceptThreshold            = 0.5
	ConfidenceExtension        = 0.4
	ConfidenceContent          = 0.6
	ConfidenceMagic            = 0.8
	ConfidenceContainerGeneric = 0.9
	ConfidenceContainer        = 0.95
)

// ErrDetectionAmbiguous is returned when one layer finds equally strong
// evidence for two different formats and no more specific layer can decide.
var ErrDetectionAmbiguous = errors.New("ambiguous detection")

// htmlTokens are the markup tokens the content heuristic looks for.
var htmlTokens = [][]byte{
	[]byte("<!doctype"),
	[]byte("<html"),
	[]byte("<head"),
	[]byte("<body"),
	[]byte("<div"),
}

// Detector classifies inputs. It holds only immutable tables and is safe
// for concurrent use.
type Detector struct {
	tables Tables
}

// New creates a detector over the given tables.
func New(t Tables) *Detector {
	return &Detector{tables: t}
}

// Tables returns the tables the detector was built with.
func (d *Detector) Tables() Tables {
	return d.tables
}

// opener yields random access to the full input for archive inspection.
type opener func() (r io.ReaderAt, size int64, closeFn func() error, err error)

// DetectFile reads a bounded prefix of the file at path and classifies it.
func (d *Detector) DetectFile(path string) (types.Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Detection{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sample := make([]byte, SampleSize)
	n, err := io.ReadFull(f, sample)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return types.Detection{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return d.Detect(path, sample[:n])
}

// Detect classifies the input named path whose leading bytes are sample.
// The file at path is only opened when the sample carries the generic
// container signature, and then only its directory is read.
func (d *Detector) Detect(path string, sample []byte) (types.Detection, error) {
	return d.detect(path, sample, func() (io.ReaderAt, int64, func() error, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, nil, err
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, 0, nil, err
		}
		return f, info.Size(), f.Close, nil
	})
}

// DetectBytes classifies in-memory content. name supplies the extension.
func (d *Detector) DetectBytes(name string, data []byte) (types.Detection, error) {
	return d.detect(name, data, func() (io.ReaderAt, int64, func() error, error) {
		return bytes.NewReader(data), int64(len(data)), func() error { return nil }, nil
	})
}

func (d *Detector) detect(name string, sample []byte, open opener) (types.Detection, error) {
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}

	best := types.Detection{Format: types.FormatUnknown, Method: types.MethodNone}

	// Layer 1: extension.
	if f, ok := d.tables.Extensions[strings.ToLower(filepath.Ext(name))]; ok {
		best = types.Detection{Format: f, Confidence: ConfidenceExtension, Method: types.MethodExtension}
	}
	if best.Confidence >= AcceptThreshold {
		return best, nil
	}

	// Layer 2: magic bytes, with layer 3 for the generic container.
	if sig, ok := d.matchSignature(sample); ok {
		if sig.Format == d.tables.Container && len(d.tables.Markers) > 0 {
			return d.inspectContainer(open)
		}
		return types.Detection{Format: sig.Format, Confidence: ConfidenceMagic, Method: types.MethodMagic}, nil
	}

	markup := looksLikeMarkup(sample)

	// No signature contradicted the extension. Textual formats have no
	// signature, so their extension is trusted unless the sample is binary.
	if best.Known() && d.tables.Textual[best.Format] && bytes.IndexByte(sample, 0) < 0 {
		if best.Format == types.FormatHTML && markup {
			best.Confidence, best.Method = ConfidenceContent, types.MethodContent
		}
		return best, nil
	}

	// Layer 4: markup heuristic, for unmapped extensions and extensions
	// whose signature did not match.
	if markup {
		return types.Detection{Format: types.FormatHTML, Confidence: ConfidenceContent, Method: types.MethodContent}, nil
	}

	return types.Detection{Format: types.FormatUnknown, Method: types.MethodNone}, nil
}

func (d *Detector) matchSignature(sample []byte) (Signature, bool) {
	for _, sig := range d.tables.Signatures {
		end := sig.Offset + len(sig.Magic)
		if end > len(sample) {
			continue
		}
		if bytes.Equal(sample[sig.Offset:end], sig.Magic) {
			return sig, true
		}
	}
	return Signature{}, false
}

// inspectContainer reads the archive directory and looks for entry paths
// that identify a specific format. Entries are never decompressed.
func (d *Detector) inspectContainer(open opener) (types.Detection, error) {
	generic := types.Detection{Format: d.tables.Container, Confidence: ConfidenceMagic, Method: types.MethodMagic}

	r, size, closeFn, err := open()
	if err != nil {
		return generic, nil
	}
	defer closeFn()

	zr, err := zip.NewReader(r, size)
	if err != nil {
		// Signature without a readable directory: a damaged or truncated
		// archive. The magic bytes are still the best evidence we have.
		return generic, nil
	}

	var found []types.Format
	for _, entry := range zr.File {
		for _, m := range d.tables.Markers {
			if strings.HasPrefix(entry.Name, m.Prefix) && !containsFormat(found, m.Format) {
				found = append(found, m.Format)
			}
		}
	}

	switch len(found) {
	case 0:
		return types.Detection{Format: d.tables.Container, Confidence: ConfidenceContainerGeneric, Method: types.MethodContainer}, nil
	case 1:
		return types.Detection{Format: found[0], Confidence: ConfidenceContainer, Method: types.MethodContainer}, nil
	default:
		return types.Detection{}, fmt.Errorf("%w: archive holds markers for %s", ErrDetectionAmbiguous, joinFormats(found))
	}
}

func looksLikeMarkup(sample []byte) bool {
	lower := bytes.ToLower(sample)
	for _, tok := range htmlTokens {
		if bytes.Contains(lower, tok) {
			return true
		}
	}
	return false
}

func containsFormat(list []types.Format, f types.Format) bool {
	for _, x := range list {
		if x == f {
			return true
		}
	}
	return false
}

func joinFormats(list []types.Format) string {
	names := make([]string, len(list))
	for i, f := range list {
		names[i] = string(f)
	}
	return strings.Join(names, " and ")
}
