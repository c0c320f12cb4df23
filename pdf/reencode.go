package pdf

import (
	"github.com/rs/zerolog/log"
	"seehuhn.de/go/geom/matrix"
)

// ReencodeOptions controls ReencodeJPEG.
type ReencodeOptions struct {
	Quality int          // zero means DefaultJPEGQuality
	Page    PageGeometry // zero means Letter
}

// ReencodeJPEG rebuilds the first page of src from its first image, stored
// as JPEG and stretched over the whole page. Axis flips in the source page's
// transforms are carried over. Only the first page is kept.
func ReencodeJPEG(src []byte, opts ReencodeOptions) ([]byte, error) {
	geom := opts.Page
	if geom == (PageGeometry{}) {
		geom = Letter
	}

	doc, err := ParseDocument(src)
	if err != nil {
		return nil, err
	}
	page, err := doc.Page(1)
	if err != nil {
		return nil, err
	}
	img, err := page.FirstImage()
	if err != nil {
		return nil, err
	}
	cmds, err := page.Commands()
	if err != nil {
		return nil, err
	}
	x, y, err := ResolveOrientation(cmds, geom)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeJPEG(img, opts.Quality)
	if err != nil {
		return nil, err
	}
	converted, err := ConvertImage(encoded)
	if err != nil {
		return nil, err
	}

	out, err := ParseDocument(converted)
	if err != nil {
		return nil, err
	}
	outPage, err := out.Page(1)
	if err != nil {
		return nil, err
	}
	err = replaceTransform(outPage, func(matrix.Matrix) (matrix.Matrix, error) {
		return FlipTransform(x, y, geom), nil
	})
	if err != nil {
		return nil, err
	}
	outPage.SetMediaBox(geom)

	log.Debug().
		Bool("flip_x", x < 0).
		Bool("flip_y", y < 0).
		Int("source_bytes", len(src)).
		Int("jpeg_bytes", len(encoded)).
		Msg("Re-encoded page image")
	return out.Bytes()
}
