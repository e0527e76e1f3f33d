package pdftable

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

type Options struct {
	// Validate runs a structural pdfcpu check before reading page content.
	Validate bool
	Layout   LayoutOptions
	Logger   *slog.Logger
}

// Extractor reads positioned text from every page and reconstructs table
// grids and a plain text stream from it.
type Extractor struct {
	validate bool
	layout   LayoutOptions
	logger   *slog.Logger
}

func New(opts Options) *Extractor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		validate: opts.Validate,
		layout:   opts.Layout.normalize(),
		logger:   logger,
	}
}

type extractResult struct {
	doc *domain.ExtractedDocument
	err error
}

// Extract runs in its own goroutine so a cancelled context returns promptly
// even while the parser is inside a single large page.
func (e *Extractor) Extract(ctx context.Context, path string) (*domain.ExtractedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := make(chan extractResult, 1)
	go func() {
		doc, err := e.extract(ctx, path)
		done <- extractResult{doc: doc, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.doc, res.err
	}
}

func (e *Extractor) extract(ctx context.Context, path string) (doc *domain.ExtractedDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = domain.WrapError(domain.ErrExtraction, "read pdf", fmt.Errorf("parser panic: %v", r))
		}
	}()

	expected := 0
	if e.validate {
		expected, err = Preflight(path)
		if err != nil {
			return nil, err
		}
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "open pdf", err)
	}
	defer f.Close()

	total := reader.NumPage()
	if expected > 0 && expected != total {
		e.logger.Debug("page_count_mismatch", "path", path, "validated", expected, "parsed", total)
	}

	doc = &domain.ExtractedDocument{Name: filepath.Base(path), Pages: make([]domain.Page, 0, total)}
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := e.readPage(reader, n)
		if err != nil {
			return nil, err
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

func (e *Extractor) readPage(reader *pdf.Reader, n int) (domain.Page, error) {
	p := reader.Page(n)
	if p.V.IsNull() {
		return domain.Page{Number: n}, nil
	}
	content := p.Content()
	glyphs := make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, glyph{x: t.X, y: t.Y, w: t.W, size: t.FontSize, s: t.S})
	}
	if len(glyphs) == 0 {
		return domain.Page{Number: n}, nil
	}
	return layoutPage(n, glyphs, e.layout), nil
}
