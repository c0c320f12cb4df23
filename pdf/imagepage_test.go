package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/matrix"
)

func TestPrepareImageTrims(t *testing.T) {
	// At 10 dpi Letter holds 85 x 110 pixels.
	img, desc, err := PrepareImage(gradient(100, 120), 10, 1, Letter)
	require.NoError(t, err)
	assert.Equal(t, ImageDescriptor{Width: 85, Height: 110, DPI: 10}, desc)
	assert.Equal(t, 85, img.Bounds().Dx())
	assert.Equal(t, 110, img.Bounds().Dy())

	// the top-left corner is kept
	src := gradient(100, 120)
	assert.Equal(t, src.At(0, 0), img.At(0, 0))
	assert.Equal(t, src.At(84, 109), img.At(84, 109))
}

func TestPrepareImageKeepsSmallImages(t *testing.T) {
	src := gradient(40, 50)
	img, desc, err := PrepareImage(src, 10, 1, Letter)
	require.NoError(t, err)
	assert.Equal(t, ImageDescriptor{Width: 40, Height: 50, DPI: 10}, desc)
	assert.Equal(t, src, img)
}

func TestPrepareImageReduces(t *testing.T) {
	_, desc, err := PrepareImage(gradient(100, 120), 10, 2, Letter)
	require.NoError(t, err)
	// trimmed to 85 x 110 first, then halved rounding up
	assert.Equal(t, ImageDescriptor{Width: 43, Height: 55, DPI: 5}, desc)
}

func TestPrepareImageRejectsResolution(t *testing.T) {
	_, _, err := PrepareImage(gradient(4, 4), 0, 1, Letter)
	assert.ErrorIs(t, err, ErrInvalidResolution)
	_, _, err = PrepareImage(gradient(4, 4), 300, 0, Letter)
	assert.ErrorIs(t, err, ErrInvalidResolution)
}

func TestImagePage(t *testing.T) {
	// 60 x 90 pixels at 15 dpi is a 4 x 6 in. print.
	out, err := ImagePage(jpegOf(t, gradient(60, 90)), ImagePageOptions{DPI: 15, Reduction: 1})
	require.NoError(t, err)

	doc, err := ParseDocument(out)
	require.NoError(t, err)
	require.Equal(t, 1, doc.PageCount())
	page, err := doc.Page(1)
	require.NoError(t, err)
	assert.Equal(t, Letter, page.MediaBox())

	assertMatrix(t, matrix.Matrix{288, 0, 0, 432, 162, 180}, firstTransform(t, out, 1))

	img, err := page.FirstImage()
	require.NoError(t, err)
	assert.Equal(t, 60, img.Bounds().Dx())
	assert.Equal(t, 90, img.Bounds().Dy())
}

func TestImagePageWithReduction(t *testing.T) {
	// 120 x 180 at 30 dpi halved is 60 x 90 at 15 dpi: the same print.
	out, err := ImagePage(jpegOf(t, gradient(120, 180)), ImagePageOptions{DPI: 30, Reduction: 2, Page: Letter})
	require.NoError(t, err)
	assertMatrix(t, matrix.Matrix{288, 0, 0, 432, 162, 180}, firstTransform(t, out, 1))
}

func TestImagePageErrors(t *testing.T) {
	_, err := ImagePage([]byte("nope"), DefaultImagePageOptions())
	assert.Error(t, err)

	_, err = ImagePage(jpegOf(t, gradient(8, 8)), ImagePageOptions{DPI: 0, Reduction: 1})
	assert.ErrorIs(t, err, ErrInvalidResolution)
}

func TestDefaultImagePageOptions(t *testing.T) {
	opts := DefaultImagePageOptions()
	assert.Equal(t, 300, opts.DPI)
	assert.Equal(t, 1, opts.Reduction)
	assert.Equal(t, Letter, opts.Page)
	assert.Equal(t, 75, opts.Quality)
}
