// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"
)

// FormatTable writes page as a fixed-width table. Ranks count from the start
// of the merged stream, so page 2 of size 10 starts at rank 21.
func FormatTable(page Page, w io.Writer) {
	if page.Empty() {
		fmt.Fprintln(w, "No results found.")
		writeFooter(page, w)
		return
	}

	fmt.Fprintf(w, "%-5s  %-12s  %-8s  %-20s  %s\n", "Rank", "Backend", "Score", "ID", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	base := page.Number * page.PageSize
	for i, r := range page.Records {
		score := "-"
		if hasScore(r.Score) {
			score = fmt.Sprintf("%.4f", *r.Score)
		}
		fmt.Fprintf(w, "%-5d  %-12s  %-8s  %-20s  %s\n",
			base+i+1, truncate(r.Backend, 12), score, truncate(r.Identifier(), 20), truncate(r.Title(), 50))
	}
	writeFooter(page, w)
}

func writeFooter(page Page, w io.Writer) {
	fmt.Fprintf(w, "\npage %d, %d result(s)", page.Number, len(page.Records))
	if len(page.FailedBackends) > 0 {
		fmt.Fprintf(w, " (partial: %s failed)", strings.Join(page.FailedBackends, ", "))
	}
	fmt.Fprintln(w)
}

// FormatJSON writes page as indented JSON to w.
func FormatJSON(page Page, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(page)
}

// FormatYAML writes page as YAML to w.
func FormatYAML(page Page, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(page)
}

// truncate shortens s to max runes, ending in "...".
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
