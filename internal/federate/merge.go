// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federate

import (
	"math"
	"slices"

	"github.com/pdiddy/fedsearch/pkg/types"
)

// MergedBatch is one round's records in merged order.
type MergedBatch []types.Record

func hasScore(s *float64) bool {
	return s != nil && !math.IsNaN(*s)
}

// CompareScores orders present scores descending and absent scores last.
// A NaN score counts as absent. It returns a negative number when a sorts
// before b, a positive number when after, and zero when they tie.
func CompareScores(a, b *float64) int {
	pa, pb := hasScore(a), hasScore(b)
	switch {
	case !pa && !pb:
		return 0
	case !pa:
		return 1
	case !pb:
		return -1
	case *a > *b:
		return -1
	case *a < *b:
		return 1
	}
	return 0
}

// CompareRecords compares records by score only; ties are left to the
// stable sort.
func CompareRecords(a, b types.Record) int {
	return CompareScores(a.Score, b.Score)
}

// Merge flattens pages in the given order and stable-sorts the result with
// CompareRecords. Input pages are not modified.
func Merge(pages []RemotePage) MergedBatch {
	n := 0
	for _, p := range pages {
		n += len(p.Records)
	}
	out := make(MergedBatch, 0, n)
	for _, p := range pages {
		out = append(out, p.Records...)
	}
	slices.SortStableFunc(out, CompareRecords)
	return out
}
