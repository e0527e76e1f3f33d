package stitching

import "github.com/kirillkom/profile-export/internal/core/domain"

// Classifier maps a fragment's header row to a category.
type Classifier struct {
	vocab domain.Vocabulary
}

func NewClassifier(vocab domain.Vocabulary) *Classifier {
	return &Classifier{vocab: vocab}
}

// Classify checks table signatures in priority order, then the traits markers.
// A cell matches a field only by full trimmed equality.
func (c *Classifier) Classify(header []string) (domain.Category, domain.TraitKind) {
	cells := make(map[string]struct{}, len(header))
	for _, h := range header {
		cells[trim(h)] = struct{}{}
	}

	for _, sig := range c.vocab.Signatures {
		if containsAll(cells, sig.Fields) {
			return sig.Category, ""
		}
	}
	for _, marker := range c.vocab.TraitMarkers {
		if containsAll(cells, marker.AllOf) {
			return domain.CategoryTraits, marker.Kind
		}
	}
	return domain.CategoryUnknown, ""
}

func containsAll(cells map[string]struct{}, fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if _, ok := cells[f]; !ok {
			return false
		}
	}
	return true
}
