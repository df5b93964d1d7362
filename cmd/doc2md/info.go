package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doc2md/pkg/types"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "List converters and their capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, rt, err := newEngine()
		if err != nil {
			return err
		}

		runtime := "none"
		if rt != nil {
			runtime = rt.Name()
		}
		fmt.Printf("doc2md %s (container runtime: %s)\n\n", version, runtime)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FORMAT\tSTRATEGY\tCONVERTER\tAVAILABLE\tOCR\tEXTENSIONS")
		for _, d := range eng.Registry().Descriptors() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				d.Format, d.Strategy, d.Converter.Name(),
				yesNo(d.Available), yesNo(d.Converter.SupportsOCR()),
				strings.Join(d.Converter.SupportedExtensions(), " "))
		}
		return w.Flush()
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that every format has an available converter",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}

		reg := eng.Registry()
		registered := make(map[types.Format]bool)
		for _, d := range reg.Descriptors() {
			registered[d.Format] = true
		}

		var missing []string
		for _, f := range types.Formats {
			if !registered[f] {
				continue
			}
			strategies := reg.Strategies(f)
			if len(strategies) == 0 {
				missing = append(missing, string(f))
				fmt.Printf("%-6s  unavailable\n", f)
				continue
			}
			names := make([]string, len(strategies))
			for i, s := range strategies {
				names[i] = string(s)
			}
			fmt.Printf("%-6s  ok (%s)\n", f, strings.Join(names, ", "))
		}
		if len(missing) > 0 {
			return fmt.Errorf("no available converter for: %s", strings.Join(missing, ", "))
		}
		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(checkCmd)
}
