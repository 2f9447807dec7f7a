package pm

import (
	"cmp"
	"path"
	"slices"
	"strings"
)

// SuffixCount is the number of archived files sharing one extension.
type SuffixCount struct {
	Suffix string // extension without the dot, as stored; empty when there is none
	Count  int
}

// StatSuffix counts indexed files per extension, most common first.
func (a *Archive) StatSuffix() []SuffixCount {
	counts := make(map[string]int)
	for _, p := range a.index.Paths() {
		counts[strings.TrimPrefix(path.Ext(p), ".")]++
	}

	stats := make([]SuffixCount, 0, len(counts))
	for suffix, n := range counts {
		stats = append(stats, SuffixCount{Suffix: suffix, Count: n})
	}
	slices.SortFunc(stats, func(x, y SuffixCount) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return cmp.Compare(x.Suffix, y.Suffix)
	})
	return stats
}

// Len returns the number of archived files.
func (a *Archive) Len() int {
	return a.index.Len()
}
