// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// HTTPConfig holds shared HTTP settings used by converters that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests (e.g. "doc2md/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SelectorConfig holds the scanned-versus-digital PDF decision thresholds.
type SelectorConfig struct {
	// SamplePages is how many leading pages are sampled (default 3).
	SamplePages int `json:"sample_pages" yaml:"sample_pages" mapstructure:"sample_pages"`

	// MinCharsPerPage is the average extractable characters per sampled page
	// below which a PDF is treated as scanned (default 50).
	MinCharsPerPage int `json:"min_chars_per_page" yaml:"min_chars_per_page" mapstructure:"min_chars_per_page"`
}

// Validate checks the selector thresholds.
func (c SelectorConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SamplePages, validation.Required, validation.Min(1)),
		validation.Field(&c.MinCharsPerPage, validation.Min(0)),
	)
}

// ValidationConfig holds the sanity-check bounds applied to converter output.
type ValidationConfig struct {
	// MinMarkdownChars is the minimum trimmed Markdown length (default 20).
	MinMarkdownChars int `json:"min_markdown_chars" yaml:"min_markdown_chars" mapstructure:"min_markdown_chars"`

	// SmallInputBytes is the input size below which any non-blank Markdown
	// is accepted (default 1024).
	SmallInputBytes int64 `json:"small_input_bytes" yaml:"small_input_bytes" mapstructure:"small_input_bytes"`

	// MinCharsPerPage is the minimum trimmed Markdown length per reported
	// page for paged inputs (default 5). Zero disables the check.
	MinCharsPerPage int `json:"min_chars_per_page" yaml:"min_chars_per_page" mapstructure:"min_chars_per_page"`

	// MaxImages is the largest plausible image count (default 10000).
	MaxImages int `json:"max_images" yaml:"max_images" mapstructure:"max_images"`

	// MaxTables is the largest plausible table count (default 10000).
	MaxTables int `json:"max_tables" yaml:"max_tables" mapstructure:"max_tables"`
}

// Validate checks the validation bounds.
func (c ValidationConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MinMarkdownChars, validation.Required, validation.Min(1)),
		validation.Field(&c.SmallInputBytes, validation.Min(int64(0))),
		validation.Field(&c.MinCharsPerPage, validation.Min(0)),
		validation.Field(&c.MaxImages, validation.Min(0)),
		validation.Field(&c.MaxTables, validation.Min(0)),
	)
}

// OCRConfig holds settings for the container-based OCR converter.
type OCRConfig struct {
	// Image is the container image providing the tesseract binary.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// MaxPages caps the number of pages rendered for OCR (0 = all pages).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`
}

// RemoteConfig holds settings for the remote high-accuracy conversion service.
type RemoteConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the conversion service URL. Empty disables the converter.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// APIKey authenticates against the service. Usually loaded from .secrets/.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// MarkitdownConfig holds settings for the markitdown container converter.
type MarkitdownConfig struct {
	// Image is the markitdown container image (default "markitdown:latest").
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// LLMAPIKey enables LLM image descriptions inside markitdown when set.
	LLMAPIKey string `json:"llm_api_key,omitempty" yaml:"llm_api_key,omitempty" mapstructure:"llm_api_key"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "console" or "json" (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Validate checks the logger settings.
func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.In("", "debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.In("", "console", "json")),
	)
}

// Config groups every setting the CLI reads.
type Config struct {
	Selector   SelectorConfig   `json:"selector" yaml:"selector" mapstructure:"selector"`
	Validation ValidationConfig `json:"validation" yaml:"validation" mapstructure:"validation"`
	OCR        OCRConfig        `json:"ocr" yaml:"ocr" mapstructure:"ocr"`
	Remote     RemoteConfig     `json:"remote" yaml:"remote" mapstructure:"remote"`
	Markitdown MarkitdownConfig `json:"markitdown" yaml:"markitdown" mapstructure:"markitdown"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
	Options    Options          `json:"options" yaml:"options" mapstructure:"options"`

	// Workers is the batch worker count (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// TablesFile optionally overrides the detection tables and fallback policy.
	TablesFile string `json:"tables_file,omitempty" yaml:"tables_file,omitempty" mapstructure:"tables_file"`

	// HistoryDB is the SQLite run-history path. Empty disables history.
	HistoryDB string `json:"history_db,omitempty" yaml:"history_db,omitempty" mapstructure:"history_db"`
}

// DefaultConfig returns the configuration used when no file or flag overrides it.
func DefaultConfig() Config {
	return Config{
		Selector: SelectorConfig{
			SamplePages:     3,
			MinCharsPerPage: 50,
		},
		Validation: ValidationConfig{
			MinMarkdownChars: 20,
			SmallInputBytes:  1024,
			MinCharsPerPage:  5,
			MaxImages:        10000,
			MaxTables:        10000,
		},
		OCR: OCRConfig{
			Image: "tesseractshadow/tesseract4re:latest",
		},
		Remote: RemoteConfig{
			HTTPConfig: HTTPConfig{
				Timeout:    120 * time.Second,
				UserAgent:  "doc2md/0.1",
				MaxRetries: 5,
			},
		},
		Markitdown: MarkitdownConfig{
			Image: "markitdown:latest",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Options: DefaultOptions(),
		Workers: 4,
	}
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Selector),
		validation.Field(&c.Validation),
		validation.Field(&c.Log),
		validation.Field(&c.Options),
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
	)
}
