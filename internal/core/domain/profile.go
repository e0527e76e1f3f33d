package domain

import "strings"

// Table is a finalized output table: one header row of column labels and its
// data rows. All rows have len(Columns) cells.
type Table struct {
	Category Category
	Columns  []string
	Rows     [][]string
}

func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// TraitsRecord is the single evolving record of the traits category.
// A field, once non-empty, is never overwritten.
type TraitsRecord struct {
	fields []string
	values map[string]string
}

func NewTraitsRecord(fields []string) *TraitsRecord {
	r := &TraitsRecord{
		fields: append([]string(nil), fields...),
		values: make(map[string]string, len(fields)),
	}
	return r
}

func (r *TraitsRecord) Fields() []string {
	return append([]string(nil), r.fields...)
}

// Has reports whether field belongs to the record's fixed field set.
func (r *TraitsRecord) Has(field string) bool {
	for _, f := range r.fields {
		if f == field {
			return true
		}
	}
	return false
}

func (r *TraitsRecord) Get(field string) string {
	return r.values[field]
}

// Fill writes value into field if the field is part of the set and still empty.
// It reports whether the record changed.
func (r *TraitsRecord) Fill(field, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || !r.Has(field) {
		return false
	}
	if strings.TrimSpace(r.values[field]) != "" {
		return false
	}
	r.values[field] = value
	return true
}

func (r *TraitsRecord) Empty() bool {
	for _, v := range r.values {
		if v != "" {
			return false
		}
	}
	return true
}

// Table renders the record as exactly one data row.
func (r *TraitsRecord) Table() Table {
	row := make([]string, len(r.fields))
	for i, f := range r.fields {
		row[i] = r.values[f]
	}
	return Table{
		Category: CategoryTraits,
		Columns:  r.Fields(),
		Rows:     [][]string{row},
	}
}

// Decision is one entry of the per-fragment classification trace.
type Decision struct {
	Page      int       `json:"page"`
	Index     int       `json:"index"`
	Category  Category  `json:"category"`
	Route     Route     `json:"route"`
	TraitKind TraitKind `json:"trait_kind,omitempty"`
	Rows      int       `json:"rows"`
}

// Profile is the stitched result for one person document.
type Profile struct {
	Source string
	Tables map[Category]Table
	Traits *TraitsRecord
	Trace  []Decision
}

// Outputs returns the non-empty tables in file order, traits included. An
// unknown table is kept even without data rows so its header stays visible.
func (p *Profile) Outputs() []Table {
	out := make([]Table, 0, len(OutputOrder))
	for _, c := range OutputOrder {
		if c == CategoryTraits {
			if p.Traits != nil && !p.Traits.Empty() {
				out = append(out, p.Traits.Table())
			}
			continue
		}
		t, ok := p.Tables[c]
		if !ok {
			continue
		}
		if !t.Empty() || (c == CategoryUnknown && len(t.Columns) > 0) {
			out = append(out, t)
		}
	}
	return out
}
