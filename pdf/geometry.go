package pdf

import (
	"fmt"
	"strings"

	"seehuhn.de/go/geom/matrix"
)

// PageGeometry is the size of a page in PDF user space units.
type PageGeometry struct {
	Width  float64
	Height float64
}

var (
	// Letter is U.S. letter paper, 8.5 x 11 in.
	Letter = PageGeometry{Width: 612, Height: 792}
	// Legal is U.S. legal paper, 8.5 x 14 in.
	Legal = PageGeometry{Width: 612, Height: 1008}
	// A4 is ISO A4 paper, 210 x 297 mm.
	A4 = PageGeometry{Width: 595.28, Height: 841.89}
)

// pageSizes maps the names accepted on the command line and in configuration.
var pageSizes = map[string]PageGeometry{
	"letter": Letter,
	"legal":  Legal,
	"a4":     A4,
}

// LookupPageSize returns the geometry registered under name.
func LookupPageSize(name string) (PageGeometry, error) {
	g, ok := pageSizes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return PageGeometry{}, fmt.Errorf("%w: unknown page size %q", ErrParse, name)
	}
	return g, nil
}

// Center returns the geometric center of the page.
func (g PageGeometry) Center() (x, y float64) {
	return g.Width / 2, g.Height / 2
}

// ImageDescriptor describes a raster image about to be placed on a page.
type ImageDescriptor struct {
	Width  int     // pixels
	Height int     // pixels
	DPI    float64 // effective resolution, after any reduction
}

// Resolution returns the effective resolution of an image scanned at
// nominalDPI and then downsampled by factor.
func Resolution(nominalDPI, factor int) (float64, error) {
	if nominalDPI <= 0 {
		return 0, fmt.Errorf("%w: %d dpi", ErrInvalidResolution, nominalDPI)
	}
	if factor < 1 {
		return 0, fmt.Errorf("%w: reduction factor %d", ErrInvalidResolution, factor)
	}
	return float64(nominalDPI) / float64(factor), nil
}

// ReferenceTransform is the transform the image converter writes for an image
// of the given pixel size: the unit square is stretched over the image as if
// it had been scanned at ReferenceDPI.
func ReferenceTransform(widthPx, heightPx int) matrix.Matrix {
	k := float64(UnitsPerInch) / ReferenceDPI
	return matrix.Matrix{float64(widthPx) * k, 0, 0, float64(heightPx) * k, 0, 0}
}

// CenterTransform computes the content stream transform that centers an image
// on the page and scales it to its true physical size.
//
// The translation is worked out in image pixels at the image's own resolution:
// centering w pixels on a page w' inches wide takes (dpi*w' - w)/2 pixels.
// The converter has already scaled pixels by 72/96, so the translation is
// scaled by the same factor and then post-multiplied onto base. Finally the
// whole transform is scaled by 96/dpi so that dpi pixels cover one inch rather
// than 96. For Letter this gives the translation
//
//	((51*dpi - 6*w)/16, (66*dpi - 6*h)/16).
func CenterTransform(img ImageDescriptor, page PageGeometry, base matrix.Matrix) (matrix.Matrix, error) {
	if img.DPI <= 0 {
		return matrix.Matrix{}, fmt.Errorf("%w: %g dpi", ErrInvalidResolution, img.DPI)
	}

	k := float64(UnitsPerInch) / ReferenceDPI
	tx := (img.DPI*page.Width/UnitsPerInch - float64(img.Width)) / 2 * k
	ty := (img.DPI*page.Height/UnitsPerInch - float64(img.Height)) / 2 * k
	s := ReferenceDPI / img.DPI

	return base.Mul(matrix.Translate(tx, ty)).Mul(matrix.Scale(s, s)), nil
}
