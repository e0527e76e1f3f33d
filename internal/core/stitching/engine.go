// Package stitching rebuilds logical tables from the ordered table fragments of
// one profile document: it classifies each fragment, detects headerless
// continuations, aligns their columns and merges single-fact fragments into one
// traits record.
package stitching

import (
	"fmt"
	"log/slog"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

// Context is the classification state carried from one fragment to the next.
type Context struct {
	Previous domain.Category
}

// Placement is where a fragment is routed and why.
type Placement struct {
	Category domain.Category
	Route    domain.Route
	Kind     domain.TraitKind
}

type Engine struct {
	vocab      domain.Vocabulary
	classifier *Classifier
	detector   *ContinuationDetector
	logger     *slog.Logger
}

func NewEngine(vocab domain.Vocabulary, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		vocab:      vocab,
		classifier: NewClassifier(vocab),
		detector:   NewContinuationDetector(vocab),
		logger:     logger,
	}
}

func (e *Engine) Vocabulary() domain.Vocabulary {
	return e.vocab
}

// Place decides the category of frag given the previous placement and returns
// the context for the next fragment.
func (e *Engine) Place(ctx Context, frag domain.Fragment) (Placement, Context) {
	header := frag.FirstRow()

	var p Placement
	category, kind := e.classifier.Classify(header)
	switch {
	case category == domain.CategoryTraits:
		p = Placement{Category: category, Route: domain.RouteSingleFact, Kind: kind}
	case category != domain.CategoryUnknown:
		p = Placement{Category: category, Route: domain.RouteDirect}
	default:
		if inherited, ok := e.detector.Detect(header, ctx.Previous); ok {
			p = Placement{Category: inherited, Route: domain.RouteContinuation}
		} else {
			p = Placement{Category: domain.CategoryUnknown, Route: domain.RouteUnknown}
		}
	}
	return p, Context{Previous: p.Category}
}

// Fragments normalizes every grid of the document in page order and drops the
// ones that normalize to nothing.
func (e *Engine) Fragments(doc *domain.ExtractedDocument) []domain.Fragment {
	var out []domain.Fragment
	index := 0
	for _, page := range doc.Pages {
		for _, grid := range page.Grids {
			rows := Normalize(grid, e.vocab)
			if len(rows) == 0 {
				continue
			}
			out = append(out, domain.Fragment{Page: page.Number, Index: index, Rows: rows})
			index++
		}
	}
	return out
}

// Stitch runs the whole fragment sequence of one document through
// classification and routing, then folds in the free-text traits section.
func (e *Engine) Stitch(doc *domain.ExtractedDocument) (*domain.Profile, error) {
	if doc == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "stitch document", errorf("document is nil"))
	}

	router := NewRouter(e.vocab)
	trace := make([]domain.Decision, 0)
	ctx := Context{}

	for _, frag := range e.Fragments(doc) {
		var placement Placement
		placement, ctx = e.Place(ctx, frag)

		var (
			rows int
			err  error
		)
		switch placement.Route {
		case domain.RouteSingleFact:
			rows, err = router.MergeTraits(frag)
		case domain.RouteContinuation:
			rows, err = router.AddContinuation(placement.Category, frag)
		default:
			rows, err = router.AddTable(placement.Category, frag)
		}
		if err != nil {
			return nil, fmt.Errorf("route fragment %d: %w", frag.Index, err)
		}

		decision := domain.Decision{
			Page:      frag.Page,
			Index:     frag.Index,
			Category:  placement.Category,
			Route:     placement.Route,
			TraitKind: placement.Kind,
			Rows:      rows,
		}
		trace = append(trace, decision)
		e.logger.Debug("fragment_classified",
			"document", doc.Name,
			"page", decision.Page,
			"index", decision.Index,
			"category", string(decision.Category),
			"route", string(decision.Route),
			"rows", decision.Rows,
		)
	}

	texts := make([]string, len(doc.Pages))
	for i, page := range doc.Pages {
		texts[i] = page.Text
	}
	if text, found := ExtractTraitText(texts, e.vocab.TraitTextHeading); found && text != "" {
		if router.FillTraitText(text) {
			e.logger.Debug("trait_text_merged", "document", doc.Name, "chars", len([]rune(text)))
		}
	}

	tables, traits := router.Finalize()
	return &domain.Profile{
		Source: doc.Name,
		Tables: tables,
		Traits: traits,
		Trace:  trace,
	}, nil
}

func errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
