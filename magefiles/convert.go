//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert builds the CLI and converts every file in dir into out/.
func Convert(dir string) error {
	mg.Deps(Build)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	args := []string{"batch", "--output-dir", "out"}
	for _, e := range entries {
		if !e.IsDir() {
			args = append(args, filepath.Join(dir, e.Name()))
		}
	}
	if len(args) == 3 {
		fmt.Printf("[convert] no files in %s\n", dir)
		return nil
	}
	return sh.RunV(filepath.Join(binDir, binName), args...)
}
