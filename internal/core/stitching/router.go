package stitching

import (
	"strings"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

type accumulatorState int

const (
	stateEmpty accumulatorState = iota
	stateAccumulating
	stateFinalized
)

type piece struct {
	columns []string
	rows    [][]string
}

// tableAccumulator collects the row fragments of one multi-row category.
type tableAccumulator struct {
	category domain.Category
	state    accumulatorState
	pieces   []piece
}

func (a *tableAccumulator) add(columns []string, rows [][]string) error {
	if a.state == stateFinalized {
		return domain.WrapError(domain.ErrFinalized, "accumulate "+string(a.category), errorf("fragment after finalization"))
	}
	a.pieces = append(a.pieces, piece{columns: columns, rows: rows})
	a.state = stateAccumulating
	return nil
}

// anchor returns the column labels of the most recently accumulated fragment.
func (a *tableAccumulator) anchor() []string {
	if len(a.pieces) == 0 {
		return nil
	}
	return a.pieces[len(a.pieces)-1].columns
}

// finalize concatenates all pieces in input order under the union of their
// labels, first-seen order.
func (a *tableAccumulator) finalize(clean func(string) string) domain.Table {
	a.state = stateFinalized

	var columns []string
	index := make(map[string]int)
	for _, p := range a.pieces {
		for _, c := range p.columns {
			if _, ok := index[c]; !ok {
				index[c] = len(columns)
				columns = append(columns, c)
			}
		}
	}

	var rows [][]string
	for _, p := range a.pieces {
		for _, row := range p.rows {
			out := make([]string, len(columns))
			for i, cell := range row {
				if i >= len(p.columns) {
					break
				}
				out[index[p.columns[i]]] = clean(cell)
			}
			rows = append(rows, out)
		}
	}

	return domain.Table{Category: a.category, Columns: columns, Rows: rows}
}

// Router accumulates classified fragments for one document.
type Router struct {
	vocab  domain.Vocabulary
	tables map[domain.Category]*tableAccumulator
	traits *domain.TraitsRecord
	state  accumulatorState
}

func NewRouter(vocab domain.Vocabulary) *Router {
	return &Router{
		vocab:  vocab,
		tables: make(map[domain.Category]*tableAccumulator),
		traits: domain.NewTraitsRecord(vocab.TraitFields),
	}
}

func (r *Router) table(c domain.Category) *tableAccumulator {
	acc, ok := r.tables[c]
	if !ok {
		acc = &tableAccumulator{category: c}
		r.tables[c] = acc
	}
	return acc
}

// Anchor returns the labels continuation rows of c are aligned to.
func (r *Router) Anchor(c domain.Category) []string {
	if acc, ok := r.tables[c]; ok {
		return acc.anchor()
	}
	return nil
}

// AddTable stores a fragment whose first row is its header.
func (r *Router) AddTable(c domain.Category, frag domain.Fragment) (int, error) {
	if r.state == stateFinalized {
		return 0, domain.WrapError(domain.ErrFinalized, "route fragment", errorf("router finalized"))
	}
	if frag.Empty() {
		return 0, nil
	}
	columns := headerLabels(frag.FirstRow(), r.vocab.Blank)
	rows := frag.Rows[1:]
	if err := r.table(c).add(columns, rows); err != nil {
		return 0, err
	}
	r.state = stateAccumulating
	return len(rows), nil
}

// AddContinuation stores a headerless fragment aligned to the category anchor.
func (r *Router) AddContinuation(c domain.Category, frag domain.Fragment) (int, error) {
	if r.state == stateFinalized {
		return 0, domain.WrapError(domain.ErrFinalized, "route fragment", errorf("router finalized"))
	}
	columns, rows := Reconcile(frag.Rows, r.Anchor(c))
	if err := r.table(c).add(columns, rows); err != nil {
		return 0, err
	}
	r.state = stateAccumulating
	return len(rows), nil
}

// MergeTraits folds the first non-empty data row of a traits fragment into the
// record. Fields already filled are kept.
func (r *Router) MergeTraits(frag domain.Fragment) (int, error) {
	if r.state == stateFinalized {
		return 0, domain.WrapError(domain.ErrFinalized, "merge traits", errorf("router finalized"))
	}
	r.state = stateAccumulating
	if frag.Empty() {
		return 0, nil
	}

	columns := headerLabels(frag.FirstRow(), r.vocab.Blank)
	for _, row := range frag.Rows[1:] {
		if !r.hasContent(row) {
			continue
		}
		filled := 0
		for i, label := range columns {
			if i >= len(row) || r.vocab.Blank(row[i]) {
				continue
			}
			if r.traits.Fill(label, flatten(row[i])) {
				filled++
			}
		}
		return filled, nil
	}
	return 0, nil
}

// FillTraitText writes free text into the designated traits field when empty.
func (r *Router) FillTraitText(text string) bool {
	if r.state == stateFinalized {
		return false
	}
	return r.traits.Fill(r.vocab.TraitTextField, flatten(text))
}

// Finalize closes every accumulator and returns the multi-row tables and the
// traits record. Calling it twice returns the same tables.
func (r *Router) Finalize() (map[domain.Category]domain.Table, *domain.TraitsRecord) {
	r.state = stateFinalized
	out := make(map[domain.Category]domain.Table, len(r.tables))
	for c, acc := range r.tables {
		out[c] = acc.finalize(r.clean)
	}
	return out, r.traits
}

func (r *Router) hasContent(row []string) bool {
	for _, cell := range row {
		if !r.vocab.Blank(cell) {
			return true
		}
	}
	return false
}

func (r *Router) clean(cell string) string {
	if r.vocab.Blank(cell) {
		return ""
	}
	return flatten(cell)
}

func flatten(cell string) string {
	cell = strings.ReplaceAll(cell, "\r\n", " ")
	cell = strings.ReplaceAll(cell, "\n", " ")
	return strings.TrimSpace(cell)
}
