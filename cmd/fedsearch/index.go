// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fedsearch/internal/backend"
	"github.com/pdiddy/fedsearch/internal/federate"
	"github.com/pdiddy/fedsearch/internal/loader"
	"github.com/pdiddy/fedsearch/internal/logger"
	"github.com/pdiddy/fedsearch/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Create backend indexes and load documents",
	Long: `Index prepares backends for searching. Use create to define each backend's
index from a schema file, then upload to load documents into one backend.`,
}

// --- create subcommand ---

var indexCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create or replace the index on each backend from a schema file",
	Long: `Create reads a schema file (yaml, toml, or json) listing fields with their
type and key/searchable flags, and creates the index on every configured
backend, or only on the backend named by --backend. An existing index is
replaced.`,
	RunE: runIndexCreate,
}

func runIndexCreate(cmd *cobra.Command, args []string) error {
	schemaPath, _ := cmd.Flags().GetString("schema")
	only, _ := cmd.Flags().GetString("backend")

	schema, err := loader.ReadSchema(appFS, schemaPath)
	if err != nil {
		return err
	}
	backends, err := openSelected(only)
	if err != nil {
		return err
	}
	defer backend.CloseAll(backends)

	logger.Section("index create")
	ctx := cmd.Context()
	var failed int
	for _, b := range backends {
		if err := b.CreateIndex(ctx, schema); err != nil {
			fmt.Fprintf(os.Stderr, "failed  %s: %v\n", b.Name(), err)
			failed++
			continue
		}
		fmt.Printf("created index on %s (%d fields, key %s)\n", b.Name(), len(schema.Fields), schema.KeyField())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d backend(s) failed index creation", failed, len(backends))
	}
	return nil
}

// --- upload subcommand ---

var indexUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Bulk upload documents into one backend",
	Long: `Upload reads documents from a json, yaml, or toml file and sends them to
the backend named by --backend in batches. Documents without a key get a
random UUID. A failed batch is reported and the upload continues.`,
	RunE: runIndexUpload,
}

func runIndexUpload(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("backend")
	file, _ := cmd.Flags().GetString("file")
	key, _ := cmd.Flags().GetString("key")
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	docs, err := loader.ReadDocuments(appFS, file)
	if err != nil {
		return err
	}
	if n := loader.AssignKeys(docs, key); n > 0 {
		logger.Info("generated %d document key(s)", n)
	}

	backends, err := openSelected(name)
	if err != nil {
		return err
	}
	defer backend.CloseAll(backends)

	_, err = loader.Upload(cmd.Context(), backends[0], docs, batchSize, os.Stdout)
	return err
}

// openSelected opens every configured backend, or only the one named.
func openSelected(name string) ([]backend.Backend, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	descs := cfg.Backends
	if name != "" {
		descs = nil
		for _, d := range cfg.Backends {
			if d.Name == name {
				descs = []types.BackendDescriptor{d}
				break
			}
		}
		if descs == nil {
			return nil, fmt.Errorf("%w: no backend named %q", federate.ErrConfiguration, name)
		}
	}
	backends, err := backend.OpenAll(descs, backend.Options{HTTP: cfg.HTTP, FS: appFS})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", federate.ErrConfiguration, err)
	}
	return backends, nil
}

func init() {
	indexCreateCmd.Flags().String("schema", "schema.yaml", "schema file (yaml, toml, or json)")
	indexCreateCmd.Flags().String("backend", "", "only create the index on this backend")

	indexUploadCmd.Flags().String("backend", "", "backend to upload into (required)")
	indexUploadCmd.Flags().String("file", "", "documents file: json, yaml, or toml (required)")
	indexUploadCmd.Flags().String("key", "id", "document key field")
	indexUploadCmd.Flags().Int("batch-size", loader.DefaultBatchSize, "documents per upload request")
	indexUploadCmd.MarkFlagRequired("backend")
	indexUploadCmd.MarkFlagRequired("file")

	indexCmd.AddCommand(indexCreateCmd)
	indexCmd.AddCommand(indexUploadCmd)
	rootCmd.AddCommand(indexCmd)
}

