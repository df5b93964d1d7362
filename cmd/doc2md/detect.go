package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect <files...>",
	Short: "Report the detected format of each file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tFORMAT\tCONFIDENCE\tMETHOD")
		var failed int
		for _, path := range args {
			d, err := eng.Detect(path)
			if err != nil {
				failed++
				fmt.Fprintf(w, "%s\terror: %v\t\t\n", path, err)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", path, d.Format, d.Confidence, d.Method)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d file(s) could not be detected", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
