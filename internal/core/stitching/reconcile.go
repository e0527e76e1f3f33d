package stitching

import (
	"fmt"
	"strings"
)

// Reconcile aligns continuation rows to the anchor's columns by padding short
// rows with empty cells and truncating long ones, then reuses the anchor's
// labels positionally. The alignment is structural only and can lose trailing
// cells. Without an anchor the rows keep their width under positional names.
func Reconcile(rows [][]string, anchor []string) ([]string, [][]string) {
	if len(anchor) == 0 {
		width := 0
		for _, row := range rows {
			if len(row) > width {
				width = len(row)
			}
		}
		return positionalLabels(width), fitRows(rows, width)
	}
	return append([]string(nil), anchor...), fitRows(rows, len(anchor))
}

func fitRows(rows [][]string, width int) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		fitted := make([]string, width)
		copy(fitted, row)
		out[i] = fitted
	}
	return out
}

func positionalLabels(width int) []string {
	labels := make([]string, width)
	for i := range labels {
		labels[i] = fmt.Sprintf("col_%d", i)
	}
	return labels
}

// headerLabels turns a header row into unique column labels. Blank cells get
// positional names; repeats get the first free numeric suffix.
func headerLabels(header []string, blank func(string) bool) []string {
	labels := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		base := strings.TrimSpace(h)
		if blank(base) {
			base = fmt.Sprintf("col_%d", i)
		}
		label := base
		for n := 2; seen[label]; n++ {
			label = fmt.Sprintf("%s_%d", base, n)
		}
		seen[label] = true
		labels[i] = label
	}
	return labels
}
