package pdftable

import (
	"errors"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

// Preflight validates the document structure and returns its page count.
func Preflight(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, domain.WrapError(domain.ErrNoInput, "open pdf", err)
		}
		return 0, domain.WrapError(domain.ErrExtraction, "open pdf", err)
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return 0, domain.WrapError(domain.ErrExtraction, "validate pdf", err)
	}
	if ctx.PageCount == 0 {
		return 0, domain.WrapError(domain.ErrExtraction, "validate pdf", errors.New("document has no pages"))
	}
	return ctx.PageCount, nil
}
