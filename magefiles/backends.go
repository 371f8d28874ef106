//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Backends lists the configured backends in merge order.
func Backends() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "backends")
}
