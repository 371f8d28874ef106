// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pdiddy/fedsearch/internal/backend"
	"github.com/pdiddy/fedsearch/internal/config"
	"github.com/pdiddy/fedsearch/internal/federate"
	"github.com/pdiddy/fedsearch/internal/logger"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search all backends and print one page of merged results",
	Long: `Search sends the query to every configured backend in rounds, merges the
results by score (records without a score sort last, ties keep backend
order), and prints the requested page.

When the backends run out before the requested page, the last page reached
is printed and a notice goes to stderr; --strict turns that into exit code 5.
An empty query or "*" matches every document.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	pageNumber, _ := cmd.Flags().GetInt("page")
	strict, _ := cmd.Flags().GetBool("strict")
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = defaultFormat()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backends, err := backend.OpenAll(cfg.Backends, backend.Options{HTTP: cfg.HTTP, FS: appFS})
	if err != nil {
		return fmt.Errorf("%w: %v", federate.ErrConfiguration, err)
	}
	defer backend.CloseAll(backends)

	engine, err := federate.New(backend.Clients(backends),
		federate.WithDegraded(cfg.Search.Degraded),
		federate.WithSessionTimeout(cfg.Search.SessionTimeout),
	)
	if err != nil {
		return err
	}

	logger.Section("search")
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	page, err := engine.Paginate(ctx, federate.Request{
		Query:      query,
		PageSize:   cfg.Search.PageSize,
		PageNumber: pageNumber,
		Fields:     cfg.Search.SearchFields,
	})
	var cancelled *federate.CancelledError
	if errors.As(err, &cancelled) {
		fmt.Fprintln(os.Stderr, "search cancelled; partial page follows")
		if werr := writePage(cancelled.Page, format, os.Stdout); werr != nil {
			return werr
		}
		return err
	}
	if err != nil {
		return err
	}

	if err := writePage(page, format, os.Stdout); err != nil {
		return err
	}
	if page.Overrun() {
		fmt.Fprintf(os.Stderr, "no results at page %d (last page is %d)\n", pageNumber, page.Number)
		if strict {
			return fmt.Errorf("%w: page %d, last page %d", errPageNotReached, pageNumber, page.Number)
		}
	}
	return nil
}

// defaultFormat prints a table to terminals and JSON to pipes.
func defaultFormat() string {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "table"
	}
	return "json"
}

func writePage(page federate.Page, format string, w io.Writer) error {
	switch format {
	case "table":
		federate.FormatTable(page, w)
		return nil
	case "json":
		return federate.FormatJSON(page, w)
	case "yaml":
		return federate.FormatYAML(page, w)
	}
	return fmt.Errorf("%w: unknown format %q (table, json, yaml)", federate.ErrInvalidRequest, format)
}

func init() {
	searchCmd.Flags().Int("page-size", config.DefaultPageSize, "records per page (1-100)")
	searchCmd.Flags().Int("page", 0, "page number to return, counting from 0")
	searchCmd.Flags().StringSlice("fields", nil, "restrict matching to these fields (comma-separated)")
	searchCmd.Flags().Bool("degraded", false, "skip failing backends instead of aborting")
	searchCmd.Flags().Duration("timeout", 0, "abort the whole search after this long (0 = no limit)")
	searchCmd.Flags().String("format", "", "output format: table, json, or yaml (default: table on a terminal, json otherwise)")
	searchCmd.Flags().Bool("strict", false, "exit with status 5 when the requested page does not exist")

	bindFlags(searchCmd.Flags(), map[string]string{
		"page-size": "search.page_size",
		"fields":    "search.search_fields",
		"degraded":  "search.degraded",
		"timeout":   "search.session_timeout",
	})

	rootCmd.AddCommand(searchCmd)
}
