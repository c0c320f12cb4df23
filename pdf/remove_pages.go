package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// RemovePages removes the pages named by spec from src.
func RemovePages(src []byte, spec string) ([]byte, error) {
	// Validate page numbers against PDF page count before processing
	totalPages, err := CountPages(src)
	if err != nil {
		return nil, err
	}
	pageNumbers, err := SelectPages(spec, totalPages)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := api.RemovePages(bytes.NewReader(src), &buf, pageSelection(pageNumbers), newConfiguration()); err != nil {
		return nil, fmt.Errorf("pdfcpu remove failed: %w", err)
	}
	return buf.Bytes(), nil
}
