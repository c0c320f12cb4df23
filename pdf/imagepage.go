package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	"seehuhn.de/go/geom/matrix"
)

// ImagePageOptions controls how a scanned image is placed on a page.
type ImagePageOptions struct {
	DPI       int          // resolution the image was scanned at
	Reduction int          // integer downsampling factor, 1 keeps every pixel
	Page      PageGeometry // zero means Letter
	Quality   int          // JPEG quality, zero means DefaultJPEGQuality
}

// DefaultImagePageOptions returns the options the command line starts from.
func DefaultImagePageOptions() ImagePageOptions {
	return ImagePageOptions{
		DPI:       DefaultDPI,
		Reduction: DefaultReduction,
		Page:      Letter,
		Quality:   DefaultJPEGQuality,
	}
}

func (o ImagePageOptions) page() PageGeometry {
	if o.Page == (PageGeometry{}) {
		return Letter
	}
	return o.Page
}

func quality(q int) int {
	if q <= 0 {
		return DefaultJPEGQuality
	}
	return min(q, 100)
}

// imageCommands is the content stream that draws image name under transform m.
func imageCommands(name string, m matrix.Matrix) []Command {
	return []Command{
		{Operator: "q"},
		{Operands: MatrixOperands(m), Operator: "cm"},
		{Operands: []string{name}, Operator: "Do"},
		{Operator: "Q"},
	}
}

// ConvertImage wraps an encoded image in a single-page PDF. The page is the
// size of the image at ReferenceDPI and its content stream is exactly
//
//	q  w*3/4 0 0 h*3/4 0 0 cm  /Im Do  Q
func ConvertImage(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	var buf bytes.Buffer
	err = api.ImportImages(nil, &buf, []io.Reader{bytes.NewReader(data)}, pdfcpu.DefaultImportConfig(), newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to import image: %w", err)
	}

	doc, err := ParseDocument(buf.Bytes())
	if err != nil {
		return nil, err
	}
	page, err := doc.Page(1)
	if err != nil {
		return nil, err
	}
	name, err := page.ImageName()
	if err != nil {
		return nil, err
	}

	base := ReferenceTransform(cfg.Width, cfg.Height)
	if err := page.SetCommands(imageCommands(name, base)); err != nil {
		return nil, err
	}
	page.SetMediaBox(PageGeometry{Width: base[0], Height: base[3]})

	return doc.Bytes()
}

// replaceTransform rewrites the operands of the first cm command of p.
func replaceTransform(p PageHandle, fn func(base matrix.Matrix) (matrix.Matrix, error)) error {
	cmds, err := p.Commands()
	if err != nil {
		return err
	}
	for i, c := range cmds {
		if c.Operator != "cm" {
			continue
		}
		base, err := c.Matrix()
		if err != nil {
			return err
		}
		m, err := fn(base)
		if err != nil {
			return err
		}
		cmds[i].Operands = MatrixOperands(m)
		return p.SetCommands(cmds)
	}
	return fmt.Errorf("%w: content stream has no cm command", ErrParse)
}

// PrepareImage trims img to the page at nominalDPI, anchored at the top-left
// corner, and then downsamples it by factor.
func PrepareImage(img image.Image, nominalDPI, factor int, page PageGeometry) (image.Image, ImageDescriptor, error) {
	dpi, err := Resolution(nominalDPI, factor)
	if err != nil {
		return nil, ImageDescriptor{}, err
	}

	b := img.Bounds()
	crop := b
	maxW := int(math.Floor(page.Width / UnitsPerInch * float64(nominalDPI)))
	maxH := int(math.Floor(page.Height / UnitsPerInch * float64(nominalDPI)))
	if b.Dx() > maxW {
		log.Info().Int("width", b.Dx()).Int("max", maxW).Msg("Trimming width")
		crop.Max.X = crop.Min.X + maxW
	}
	if b.Dy() > maxH {
		log.Info().Int("height", b.Dy()).Int("max", maxH).Msg("Trimming height")
		crop.Max.Y = crop.Min.Y + maxH
	}

	out := img
	if crop != b {
		dst := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
		draw.Copy(dst, image.Point{}, img, crop, draw.Src, nil)
		out = dst
	}

	if factor > 1 {
		w := (out.Bounds().Dx() + factor - 1) / factor
		h := (out.Bounds().Dy() + factor - 1) / factor
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), out, out.Bounds(), draw.Src, nil)
		out = dst
	}

	desc := ImageDescriptor{Width: out.Bounds().Dx(), Height: out.Bounds().Dy(), DPI: dpi}
	return out, desc, nil
}

func encodeJPEG(img image.Image, q int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality(q)}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// ImagePage converts a scanned image into a single page of true physical
// size, centered on the page.
func ImagePage(data []byte, opts ImagePageOptions) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	geom := opts.page()
	prepared, desc, err := PrepareImage(img, opts.DPI, opts.Reduction, geom)
	if err != nil {
		return nil, err
	}
	encoded, err := encodeJPEG(prepared, opts.Quality)
	if err != nil {
		return nil, err
	}
	converted, err := ConvertImage(encoded)
	if err != nil {
		return nil, err
	}

	doc, err := ParseDocument(converted)
	if err != nil {
		return nil, err
	}
	page, err := doc.Page(1)
	if err != nil {
		return nil, err
	}
	page.SetMediaBox(geom)
	err = replaceTransform(page, func(base matrix.Matrix) (matrix.Matrix, error) {
		return CenterTransform(desc, geom, base)
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("width", desc.Width).
		Int("height", desc.Height).
		Float64("dpi", desc.DPI).
		Msg("Placed image on page")
	return doc.Bytes()
}
