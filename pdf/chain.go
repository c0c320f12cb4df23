package pdf

import (
	"bytes"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ChainFiles concatenates a group of single-page PDFs named "{stem}.pdf",
// "{stem} (1).pdf", "{stem} (2).pdf", ... in key order. open reads a file by
// the name it was listed under.
func ChainFiles(names []string, stem string, open func(name string) ([]byte, error)) ([]byte, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s*%s", ErrFileNotFound, stem, DocumentExt)
	}

	sorted, err := SortByKey(names, stem, DocumentExt)
	if err != nil {
		return nil, err
	}

	parts := make([][]byte, 0, len(sorted))
	for _, name := range sorted {
		data, err := open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		n, err := CountPages(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if n != 1 {
			return nil, fmt.Errorf("%w: %s has %d pages", ErrNotSinglePage, name, n)
		}
		log.Debug().Str("file", name).Int("page", len(parts)+1).Msg("Chaining page")
		parts = append(parts, data)
	}

	var buf bytes.Buffer
	if err := Concat(&buf, parts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
