package pdftable

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

const fallbackFontSize = 10.0

// LayoutOptions tunes how positioned glyphs are grouped into lines, cells and
// tables. Gap values are multiples of the font size.
type LayoutOptions struct {
	LineTolerance   float64
	WordGap         float64
	CellGap         float64
	ColumnTolerance float64
	ParagraphGap    float64
	MinTableRows    int
}

func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		LineTolerance:   0.5,
		WordGap:         0.15,
		CellGap:         1.5,
		ColumnTolerance: 1.2,
		ParagraphGap:    1.8,
		MinTableRows:    1,
	}
}

func (o LayoutOptions) normalize() LayoutOptions {
	def := DefaultLayoutOptions()
	if o.LineTolerance <= 0 {
		o.LineTolerance = def.LineTolerance
	}
	if o.WordGap <= 0 {
		o.WordGap = def.WordGap
	}
	if o.CellGap <= o.WordGap {
		o.CellGap = def.CellGap
	}
	if o.ColumnTolerance <= 0 {
		o.ColumnTolerance = def.ColumnTolerance
	}
	if o.ParagraphGap <= 0 {
		o.ParagraphGap = def.ParagraphGap
	}
	if o.MinTableRows <= 0 {
		o.MinTableRows = def.MinTableRows
	}
	return o
}

// glyph is one positioned text run as reported by the PDF content stream.
type glyph struct {
	x, y, w, size float64
	s             string
}

// span is a horizontally contiguous piece of text on one line.
type span struct {
	x0, x1 float64
	text   string
}

type line struct {
	y      float64
	size   float64
	glyphs []glyph
	cells  []span
}

func (l line) text() string {
	parts := make([]string, 0, len(l.cells))
	for _, c := range l.cells {
		parts = append(parts, c.text)
	}
	return strings.Join(parts, " ")
}

// layoutPage turns the glyphs of one page into table grids and a text stream.
func layoutPage(number int, glyphs []glyph, opts LayoutOptions) domain.Page {
	opts = opts.normalize()
	lines := groupLines(glyphs, opts)
	for i := range lines {
		lines[i].cells = lineCells(lines[i], opts)
	}

	page := domain.Page{Number: number, Text: pageText(lines, opts)}
	for _, region := range tableRegions(lines, opts) {
		if grid := buildGrid(region, opts); len(grid) > 0 {
			page.Grids = append(page.Grids, grid)
		}
	}
	return page
}

// groupLines buckets glyphs by baseline, top of the page first, each line
// sorted left to right.
func groupLines(glyphs []glyph, opts LayoutOptions) []line {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := make([]glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.s == "" {
			continue
		}
		if g.size <= 0 {
			g.size = fallbackFontSize
		}
		sorted = append(sorted, g)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].y > sorted[j].y
	})

	var lines []line
	for _, g := range sorted {
		if n := len(lines); n > 0 {
			last := &lines[n-1]
			if math.Abs(last.y-g.y) <= opts.LineTolerance*math.Max(last.size, g.size) {
				last.glyphs = append(last.glyphs, g)
				if g.size > last.size {
					last.size = g.size
				}
				continue
			}
		}
		lines = append(lines, line{y: g.y, size: g.size, glyphs: []glyph{g}})
	}

	for i := range lines {
		gs := lines[i].glyphs
		sort.SliceStable(gs, func(a, b int) bool { return gs[a].x < gs[b].x })
	}
	return lines
}

// lineCells merges the glyphs of a line into cells. A whitespace glyph or a
// small gap separates words; a gap wider than CellGap starts a new cell.
func lineCells(l line, opts LayoutOptions) []span {
	var (
		cells   []span
		cur     *span
		pending bool
	)
	for _, g := range l.glyphs {
		if strings.TrimFunc(g.s, unicode.IsSpace) == "" {
			pending = true
			continue
		}
		end := g.x + g.w
		if cur != nil {
			gap := g.x - cur.x1
			switch {
			case gap > opts.CellGap*l.size:
				cells = append(cells, *cur)
				cur = nil
			case pending || gap > opts.WordGap*l.size:
				cur.text += " "
			}
		}
		if cur == nil {
			cur = &span{x0: g.x, x1: end}
		}
		cur.text += g.s
		if end > cur.x1 {
			cur.x1 = end
		}
		pending = false
	}
	if cur != nil {
		cells = append(cells, *cur)
	}
	for i := range cells {
		cells[i].text = strings.TrimSpace(cells[i].text)
	}
	return cells
}

// tableRegions returns runs of consecutive lines with at least two cells. A
// single-cell line directly below a table row is treated as a wrapped cell of
// that row when it starts inside one of the row's cells.
func tableRegions(lines []line, opts LayoutOptions) [][][]span {
	var (
		regions [][][]span
		current [][]span
		prev    *line
	)
	flush := func() {
		if len(current) >= opts.MinTableRows {
			regions = append(regions, current)
		}
		current = nil
	}

	for i := range lines {
		l := &lines[i]
		switch {
		case len(l.cells) >= 2:
			if prev != nil && len(current) > 0 && prev.y-l.y > opts.ParagraphGap*2*l.size {
				flush()
			}
			current = append(current, append([]span(nil), l.cells...))
			prev = l
		case len(l.cells) == 1 && len(current) > 0 && prev != nil && prev.y-l.y <= opts.ParagraphGap*l.size:
			if !appendWrapped(current[len(current)-1], l.cells[0], opts.ColumnTolerance*l.size) {
				flush()
				prev = nil
				continue
			}
			prev = l
		default:
			flush()
			prev = nil
		}
	}
	flush()
	return regions
}

func appendWrapped(row []span, wrapped span, tolerance float64) bool {
	for i := range row {
		if wrapped.x0 >= row[i].x0-tolerance && wrapped.x0 <= row[i].x1+tolerance {
			row[i].text += "\n" + wrapped.text
			if wrapped.x1 > row[i].x1 {
				row[i].x1 = wrapped.x1
			}
			return true
		}
	}
	return false
}

// buildGrid aligns the cells of a region into columns by clustering their left
// edges. Cells that land in the same column of a row are joined.
func buildGrid(rows [][]span, opts LayoutOptions) domain.Grid {
	if len(rows) == 0 {
		return nil
	}
	var starts []float64
	for _, row := range rows {
		for _, c := range row {
			starts = append(starts, c.x0)
		}
	}
	sort.Float64s(starts)
	columns := clusterValues(starts, opts.ColumnTolerance*fallbackFontSize)

	grid := make(domain.Grid, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(columns))
		for _, c := range row {
			col := nearestColumn(columns, c.x0)
			if cells[col] != "" {
				cells[col] += " " + c.text
			} else {
				cells[col] = c.text
			}
		}
		grid = append(grid, cells)
	}
	return grid
}

// clusterValues clusters sorted values within tolerance, keeping the running
// average of each cluster as its centre.
func clusterValues(values []float64, tolerance float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	centres := []float64{values[0]}
	counts := []int{1}
	for _, v := range values[1:] {
		last := len(centres) - 1
		if v-centres[last] > tolerance {
			centres = append(centres, v)
			counts = append(counts, 1)
			continue
		}
		counts[last]++
		centres[last] += (v - centres[last]) / float64(counts[last])
	}
	return centres
}

func nearestColumn(columns []float64, x float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range columns {
		if d := math.Abs(c - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// pageText renders lines top to bottom and inserts an empty line where the
// vertical gap exceeds ParagraphGap font sizes.
func pageText(lines []line, opts LayoutOptions) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
			if lines[i-1].y-l.y > opts.ParagraphGap*math.Max(l.size, lines[i-1].size) {
				b.WriteByte('\n')
			}
		}
		b.WriteString(l.text())
	}
	return b.String()
}
