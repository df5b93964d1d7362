package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/doc2md/pkg/types"
)

// addConversionFlags registers the flags shared by convert and batch.
func addConversionFlags(cmd *cobra.Command) {
	cmd.Flags().String("strategy", string(types.StrategyAuto), "strategy: auto, fast, accurate or ocr")
	cmd.Flags().Bool("no-images", false, "do not extract or save images")
	cmd.Flags().Bool("no-frontmatter", false, "omit the YAML frontmatter from saved Markdown")
	cmd.Flags().Bool("page-breaks", false, "insert a marker between pages")
	cmd.Flags().String("ocr-lang", "", "tesseract language code(s), e.g. eng+fra")
	cmd.Flags().Duration("timeout", 0, "per-converter timeout (0 = none)")
}

// conversionRequest reads the shared flags over the configured options.
func conversionRequest(cmd *cobra.Command) (types.Strategy, types.Options, error) {
	s, _ := cmd.Flags().GetString("strategy")
	strategy, err := types.ParseStrategy(s)
	if err != nil {
		return "", types.Options{}, err
	}

	opts := cfg.Options
	if noImages, _ := cmd.Flags().GetBool("no-images"); noImages {
		opts.ExtractImages = false
	}
	if pb, _ := cmd.Flags().GetBool("page-breaks"); pb {
		opts.PageBreaks = true
	}
	if lang, _ := cmd.Flags().GetString("ocr-lang"); lang != "" {
		opts.OCRLanguage = lang
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		opts.Timeout = timeout
	}
	return strategy, opts, nil
}
