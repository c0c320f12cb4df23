package pdf

import (
	"bytes"
	"fmt"

	"github.com/rs/zerolog/log"
)

// PickOptions controls PickPages.
type PickOptions struct {
	// Replace writes only the picked pages, ignoring any existing destination.
	Replace bool
}

// PickPages copies the pages named by spec out of src, in the order given,
// and appends them to the pages of dst. A nil dst starts a new document.
// Everything is read before the result is returned, so dst may be the same
// file as src.
func PickPages(src []byte, spec string, dst []byte, opts PickOptions) ([]byte, error) {
	doc, err := ParseDocument(src)
	if err != nil {
		return nil, err
	}
	pages, err := SelectPages(spec, doc.PageCount())
	if err != nil {
		return nil, err
	}

	var parts [][]byte
	if dst != nil && !opts.Replace {
		parts = append(parts, dst)
	}

	extracted := make(map[int][]byte)
	for _, n := range pages {
		page, ok := extracted[n]
		if !ok {
			page, err = doc.ExtractPage(n)
			if err != nil {
				return nil, err
			}
			extracted[n] = page
		}
		parts = append(parts, page)
	}

	log.Debug().
		Str("pages", spec).
		Int("picked", len(pages)).
		Bool("append", dst != nil && !opts.Replace).
		Msg("Picking pages")

	var buf bytes.Buffer
	if err := Concat(&buf, parts...); err != nil {
		return nil, fmt.Errorf("failed to assemble pages: %w", err)
	}
	return buf.Bytes(), nil
}
