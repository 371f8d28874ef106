// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fedsearch/pkg/types"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List configured backends in merge order",
	Long: `Backends prints the configured backends in the order used to break score
ties, with each backend's kind, endpoint, collection, and whether a
credential was found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		printBackends(cfg.Backends, os.Stdout)
		return nil
	},
}

func printBackends(descs []types.BackendDescriptor, w io.Writer) {
	fmt.Fprintf(w, "%-3s  %-12s  %-7s  %-40s  %-12s  %-10s  %s\n",
		"#", "Name", "Kind", "Endpoint", "Collection", "Credential", "Rate")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for i, d := range descs {
		cred := "none"
		if d.Credential != "" {
			cred = "set"
		}
		rate := "-"
		if d.RateLimit > 0 {
			rate = fmt.Sprintf("%g/s", d.RateLimit)
		}
		fmt.Fprintf(w, "%-3d  %-12s  %-7s  %-40s  %-12s  %-10s  %s\n",
			i+1, d.Name, d.Kind, d.Endpoint, d.Collection, cred, rate)
	}
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}
