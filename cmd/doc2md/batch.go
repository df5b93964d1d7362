package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pdiddy/doc2md/internal/batch"
	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/internal/history"
)

var batchCmd = &cobra.Command{
	Use:   "batch <files...>",
	Short: "Convert many documents concurrently",
	Long: `Batch converts every input with a bounded pool of workers. Each input
succeeds or fails independently; with --fail-fast, inputs not yet started
when a failure occurs are skipped. Markdown is written next to each input or
into --output-dir.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	addConversionFlags(batchCmd)
	batchCmd.Flags().Int("workers", 0, "concurrent conversions (default from config, 4)")
	batchCmd.Flags().Bool("fail-fast", false, "skip inputs not yet started after the first failure")
	batchCmd.Flags().String("output-dir", "", "directory for Markdown output (default: next to each input)")
	batchCmd.Flags().Bool("no-progress", false, "disable the progress bar")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	strategy, opts, err := conversionRequest(cmd)
	if err != nil {
		return err
	}
	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = cfg.Workers
	}
	failFast, _ := cmd.Flags().GetBool("fail-fast")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	noFrontmatter, _ := cmd.Flags().GetBool("no-frontmatter")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	eng, _, err := newEngine()
	if err != nil {
		return err
	}

	var batchOpts []batch.Option
	batchOpts = append(batchOpts, batch.WithLogger(logger))
	if !noProgress {
		bar := progressbar.NewOptions(len(args),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("converting"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(os.Stderr, "\n")
			}),
			progressbar.OptionSetRenderBlankState(true),
		)
		batchOpts = append(batchOpts, batch.WithProgress(func(done, total int, _ batch.Outcome) {
			_ = bar.Set(done)
		}))
	}

	outcomes := batch.New(eng, batchOpts...).ConvertAll(ctx, args, strategy, opts, workers, failFast)

	paths := outputPaths(args, outputDir)
	entries := make([]history.Entry, 0, len(outcomes))
	for _, o := range outcomes {
		entries = append(entries, history.EntryFor(o.Path, o.Result, o.Err))
		if !o.OK() {
			fmt.Fprintf(os.Stderr, "FAILED %s: %v\n", o.Path, o.Err)
			continue
		}
		saved, err := convert.Save(o.Result, paths[o.Index], convert.SaveOptions{
			Frontmatter: !noFrontmatter,
			Images:      opts.ExtractImages,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAILED %s: saving: %v\n", o.Path, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "Converted %s -> %s (%s)\n", o.Path, saved.Markdown, o.Result.Provenance.Strategy)
	}

	if hist := openHistory(); hist != nil {
		recordRun(cmd, hist, "batch", entries)
		hist.Close()
	}

	summary := batch.Summarize(outcomes)
	summary.Print(os.Stdout)
	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed conversion", summary.Failed)
	}
	return nil
}

// outputPaths assigns each input its Markdown path. Inputs sharing a stem
// in the same output directory get a numeric suffix. No path ever names
// one of the inputs.
func outputPaths(inputs []string, outputDir string) []string {
	isInput := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		isInput[absPath(in)] = true
	}

	used := make(map[string]int)
	taken := make(map[string]bool)
	out := make([]string, len(inputs))
	for i, in := range inputs {
		dir := outputDir
		if dir == "" {
			dir = filepath.Dir(in)
		}
		base := markdownPath(dir, in)
		p := base
		for n := used[base]; ; n++ {
			if n > 0 {
				p = strings.TrimSuffix(base, ".md") + fmt.Sprintf("_%d.md", n)
			}
			if !taken[p] && !isInput[absPath(p)] {
				used[base] = n + 1
				break
			}
		}
		taken[p] = true
		out[i] = p
	}
	return out
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
