//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search runs a query against the configured backends and prints page 0.
// Example: mage search "spa pool"
func Search(query string) error {
	mg.Deps(Build)
	fmt.Printf("[search] %q across configured backends\n", query)
	return sh.RunV(filepath.Join(binDir, binName), "search", query, "--format", "table")
}
