// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package remote converts documents by uploading them to a layout-aware
// conversion service over HTTP. It backs the accurate PDF strategy.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/internal/httputil"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Name identifies the converter.
const Name = "remote"

// maxErrorBody bounds how much of an error response is quoted.
const maxErrorBody = 512

// Converter posts the raw document to Endpoint and decodes a JSON result.
type Converter struct {
	endpoint string
	apiKey   string
	client   *httputil.Client
}

// New creates a remote converter. An empty endpoint makes the converter
// unavailable.
func New(cfg types.RemoteConfig) *Converter {
	return &Converter{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   httputil.NewClient(cfg.HTTPConfig),
	}
}

// WithHTTPClient replaces the transport client.
func (c *Converter) WithHTTPClient(hc *http.Client) *Converter {
	c.client = c.client.WithHTTPClient(hc)
	return c
}

func (c *Converter) Name() string                  { return Name }
func (c *Converter) SupportsOCR() bool             { return true }
func (c *Converter) SupportedExtensions() []string { return []string{".pdf"} }

// Available reports whether an endpoint is configured. The service itself
// is not contacted.
func (c *Converter) Available() bool {
	if c.endpoint == "" {
		return false
	}
	u, err := url.Parse(c.endpoint)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Convert uploads path and returns the service's rendition.
func (c *Converter) Convert(ctx context.Context, path string, opts types.Options) (*types.Result, error) {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	params := url.Values{
		"filename":       {filepath.Base(path)},
		"extract_images": {strconv.FormatBool(opts.ExtractImages)},
		"ocr_language":   {opts.OCRLanguage},
	}
	reqURL := c.endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("conversion service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("conversion service returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var sr serviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing conversion service response: %w", err)
	}

	pages := sr.Pages
	if len(pages) == 0 && sr.Markdown != "" {
		pages = []string{sr.Markdown}
	}

	result, err := convert.NewResult(path, convert.JoinPages(pages, opts))
	if err != nil {
		return nil, err
	}
	result.Metadata.PageCount = sr.PageCount
	if result.Metadata.PageCount == 0 {
		result.Metadata.PageCount = len(sr.Pages)
	}
	result.Metadata.Title = sr.Title
	result.Metadata.Author = sr.Author
	result.Metadata.Duration = time.Since(start)
	result.Warnings = sr.Warnings

	if opts.ExtractImages {
		for _, img := range sr.Images {
			result.Images = append(result.Images, types.Image{
				Index:   img.Index,
				Page:    img.Page,
				Format:  img.Format,
				Width:   img.Width,
				Height:  img.Height,
				Data:    img.Data,
				AltText: img.AltText,
			})
		}
	}
	for _, t := range sr.Tables {
		result.Tables = append(result.Tables, types.Table{
			Page:     t.Page,
			Index:    t.Index,
			Rows:     t.Rows,
			Columns:  t.Columns,
			Headers:  t.Headers,
			Data:     t.Data,
			Markdown: t.Markdown,
		})
	}
	return result, nil
}

// serviceResponse is the JSON document the conversion service returns.
// Either Pages or Markdown carries the body.
type serviceResponse struct {
	Markdown  string         `json:"markdown"`
	Pages     []string       `json:"pages"`
	PageCount int            `json:"page_count"`
	Title     string         `json:"title"`
	Author    string         `json:"author"`
	Images    []serviceImage `json:"images"`
	Tables    []serviceTable `json:"tables"`
	Warnings  []string       `json:"warnings"`
}

type serviceImage struct {
	Page    int    `json:"page"`
	Index   int    `json:"index"`
	Format  string `json:"format"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Data    []byte `json:"data"` // base64 in JSON
	AltText string `json:"alt_text"`
}

type serviceTable struct {
	Page     int        `json:"page"`
	Index    int        `json:"index"`
	Rows     int        `json:"rows"`
	Columns  int        `json:"columns"`
	Headers  []string   `json:"headers"`
	Data     [][]string `json:"data"`
	Markdown string     `json:"markdown"`
}
