package domain

import "strings"

// Grid is a raw table as returned by the extraction collaborator. Rows may be
// ragged; a missing cell is the empty string.
type Grid [][]string

// Page is one page of extraction output.
type Page struct {
	Number int    `json:"number"`
	Grids  []Grid `json:"grids"`
	Text   string `json:"text"`
}

// ExtractedDocument is the complete extraction output for one source file,
// pages in document order.
type ExtractedDocument struct {
	Name  string `json:"name"`
	Pages []Page `json:"pages"`
}

// Fragment is a normalized grid with its position in the document.
type Fragment struct {
	Page  int
	Index int
	Rows  [][]string
}

func (f Fragment) RowCount() int {
	return len(f.Rows)
}

func (f Fragment) ColCount() int {
	if len(f.Rows) == 0 {
		return 0
	}
	return len(f.Rows[0])
}

func (f Fragment) Empty() bool {
	return f.RowCount() == 0 || f.ColCount() == 0
}

// FirstRow returns the candidate header with every cell trimmed.
func (f Fragment) FirstRow() []string {
	if len(f.Rows) == 0 {
		return nil
	}
	out := make([]string, len(f.Rows[0]))
	for i, cell := range f.Rows[0] {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}
