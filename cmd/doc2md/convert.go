package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/internal/history"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert one document to Markdown",
	Long: `Convert detects the document's format, selects a strategy, and writes the
Markdown next to the input (or to --output). Images are saved to
<name>_images/ unless --no-images is set. Use --output - to print the
Markdown to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	addConversionFlags(convertCmd)
	convertCmd.Flags().StringP("output", "o", "", "output file (default: <input>.md next to the input)")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	input := args[0]

	strategy, opts, err := conversionRequest(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = markdownPath(filepath.Dir(input), input)
	}
	if output != "-" && samePath(output, input) {
		return fmt.Errorf("refusing to overwrite input %s; choose another --output", input)
	}
	noFrontmatter, _ := cmd.Flags().GetBool("no-frontmatter")

	eng, _, err := newEngine()
	if err != nil {
		return err
	}

	hist := openHistory()
	if hist != nil {
		defer hist.Close()
	}

	result, convErr := eng.Convert(ctx, input, strategy, opts)
	if hist != nil {
		recordRun(cmd, hist, "convert", []history.Entry{history.EntryFor(input, result, convErr)})
	}
	if convErr != nil {
		return convErr
	}

	for _, w := range result.Warnings {
		logger.Warn().Str("path", input).Msg(w)
	}

	if output == "-" {
		_, err := fmt.Fprintln(os.Stdout, result.Markdown)
		return err
	}

	saved, err := convert.Save(result, output, convert.SaveOptions{
		Frontmatter: !noFrontmatter,
		Images:      opts.ExtractImages,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Converted %s -> %s\n", input, saved.Markdown)
	if len(saved.Images) > 0 {
		fmt.Fprintf(os.Stderr, "Saved %d image(s) to %s\n", len(saved.Images), saved.ImageDir)
	}
	fmt.Fprintln(os.Stderr, result.Summary())
	return nil
}

// markdownPath returns dir/<input stem>.md, or dir/<input stem>.converted.md
// when the first would be the input itself.
func markdownPath(dir, input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	p := filepath.Join(dir, stem+".md")
	if samePath(p, input) {
		p = filepath.Join(dir, stem+".converted.md")
	}
	return p
}

// samePath reports whether a and b name the same file location.
func samePath(a, b string) bool {
	return absPath(a) == absPath(b)
}

// recordRun writes one run and its entries to the history. Failures are
// logged; history never fails a conversion.
func recordRun(cmd *cobra.Command, hist *history.Store, command string, entries []history.Entry) {
	ctx := cmd.Context()
	run, err := hist.BeginRun(ctx, command)
	if err != nil {
		logger.Warn().Err(err).Msg("recording run")
		return
	}

	var converted, failed int
	for _, e := range entries {
		if e.Success {
			converted++
		} else {
			failed++
		}
		if err := hist.Record(ctx, run.ID, e); err != nil {
			logger.Warn().Err(err).Str("path", e.Path).Msg("recording conversion")
		}
	}
	if err := hist.FinishRun(ctx, run.ID, converted, failed); err != nil {
		logger.Warn().Err(err).Msg("finishing run")
	}
}
