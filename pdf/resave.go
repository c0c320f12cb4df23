package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Resave optimizes and compresses a PDF
func Resave(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(src), &buf, newConfiguration()); err != nil {
		return nil, fmt.Errorf("pdfcpu optimize failed: %w", err)
	}
	return buf.Bytes(), nil
}
