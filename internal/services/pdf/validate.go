package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// validatePDF checks that generated bytes form a structurally valid PDF. A
// report that fails here is never served or written to disk.
func validatePDF(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty PDF output")
	}
	conf := model.NewDefaultConfiguration()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("pdf validation failed: %w", err)
	}
	return nil
}

// PageCount reports the number of pages in a PDF byte slice.
func PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	count, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("failed to count PDF pages: %w", err)
	}
	return count, nil
}
