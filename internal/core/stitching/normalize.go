package stitching

import "github.com/kirillkom/profile-export/internal/core/domain"

// Normalize pads ragged rows to a common width and drops every row and column
// whose cells are all blank. The result is safe to normalize again.
func Normalize(grid domain.Grid, vocab domain.Vocabulary) [][]string {
	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return nil
	}

	keepCol := make([]bool, width)
	keptRows := make([][]string, 0, len(grid))
	for _, row := range grid {
		padded := make([]string, width)
		copy(padded, row)

		blankRow := true
		for i, cell := range padded {
			if !vocab.Blank(cell) {
				blankRow = false
				keepCol[i] = true
			}
		}
		if !blankRow {
			keptRows = append(keptRows, padded)
		}
	}
	if len(keptRows) == 0 {
		return nil
	}

	cols := make([]int, 0, width)
	for i, keep := range keepCol {
		if keep {
			cols = append(cols, i)
		}
	}

	out := make([][]string, len(keptRows))
	for r, row := range keptRows {
		trimmed := make([]string, len(cols))
		for j, i := range cols {
			trimmed[j] = row[i]
		}
		out[r] = trimmed
	}
	return out
}
