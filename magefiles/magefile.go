//go:build mage

// Package main contains Mage build targets for fedsearch developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "fedsearch"
	cmdPkg  = "./cmd/fedsearch"

	// buildTags enables FTS5 in mattn/go-sqlite3; the sqlite backend needs it.
	buildTags = "sqlite_fts5"
)

// projectDirs lists the working directories a local setup expects.
var projectDirs = []string{
	"data",
	".secrets",
}

// sampleConfig is written by Init when no fedsearch.yaml exists.
const sampleConfig = `search:
  page_size: 10
  degraded: false
backends:
  - name: local
    kind: sqlite
    endpoint: data/hotels.db
    collection: hotels
  - name: demo
    kind: memory
    endpoint: testdata/hotels-extra.json
`

// Init creates the data and secrets directories and a sample config.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if _, err := os.Stat("fedsearch.yaml"); os.IsNotExist(err) {
		if err := os.WriteFile("fedsearch.yaml", []byte(sampleConfig), 0o644); err != nil {
			return fmt.Errorf("writing fedsearch.yaml: %w", err)
		}
		fmt.Println("   fedsearch.yaml")
	}
	fmt.Println("Project initialized.")
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-tags", buildTags,
		"-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with FTS5 enabled.
func Test() error {
	return sh.RunV("go", "test", "-tags", buildTags, "./...")
}

// Stats prints project metrics: Go production/test LOC and documentation word count.
func Stats() error {
	var prod, tests, words int
	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), "_") || (info.Name() != "." && strings.HasPrefix(info.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		switch {
		case strings.HasSuffix(path, "_test.go"):
			tests += countLines(data)
		case filepath.Ext(path) == ".go":
			prod += countLines(data)
		case filepath.Ext(path) == ".md":
			words += len(bytes.Fields(data))
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", tests)
	fmt.Printf("Words (documentation):           %d\n", words)
	return nil
}

// countLines counts non-blank lines in data.
func countLines(data []byte) int {
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) > 0 {
			n++
		}
	}
	return n
}

// Seed creates the local sqlite index and loads the sample hotels into it.
func Seed() error {
	mg.Deps(Init, Build)
	bin := filepath.Join(binDir, binName)
	if err := sh.RunV(bin, "index", "create", "--backend", "local", "--schema", "testdata/hotels.schema.yaml"); err != nil {
		return err
	}
	return sh.RunV(bin, "index", "upload", "--backend", "local", "--file", "testdata/hotels.json", "--key", "hotelId")
}
