package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/matrix"
)

// gradient returns a w x h image whose pixels differ enough to survive JPEG.
func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func jpegOf(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// imagePDF returns a single-page PDF of a w x h pixel image.
func imagePDF(t *testing.T, w, h int) []byte {
	t.Helper()
	data, err := ConvertImage(jpegOf(t, gradient(w, h)))
	require.NoError(t, err)
	return data
}

// numberedPDF returns an n-page PDF whose page i is 8*i pixels wide, so
// pages can be told apart by their media box.
func numberedPDF(t *testing.T, n int) []byte {
	t.Helper()
	parts := make([][]byte, n)
	for i := range parts {
		parts[i] = imagePDF(t, 8*(i+1), 16)
	}
	var buf bytes.Buffer
	require.NoError(t, Concat(&buf, parts...))
	return buf.Bytes()
}

// pageWidths returns the media box width of every page, in image pixels.
func pageWidths(t *testing.T, data []byte) []int {
	t.Helper()
	doc, err := ParseDocument(data)
	require.NoError(t, err)
	widths := make([]int, doc.PageCount())
	for i := range widths {
		p, err := doc.Page(i + 1)
		require.NoError(t, err)
		widths[i] = int(p.MediaBox().Width*ReferenceDPI/UnitsPerInch + 0.5)
	}
	return widths
}

// firstTransform returns the operand of the first cm on page n.
func firstTransform(t *testing.T, data []byte, n int) matrix.Matrix {
	t.Helper()
	doc, err := ParseDocument(data)
	require.NoError(t, err)
	p, err := doc.Page(n)
	require.NoError(t, err)
	cmds, err := p.Commands()
	require.NoError(t, err)
	for _, c := range cmds {
		if c.Operator == "cm" {
			m, err := c.Matrix()
			require.NoError(t, err)
			return m
		}
	}
	t.Fatalf("page %d has no cm", n)
	return matrix.Matrix{}
}

func apply(m matrix.Matrix, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}
