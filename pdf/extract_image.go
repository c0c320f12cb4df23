package pdf

import (
	"fmt"
	"image"
	"sort"

	// Decoders for the formats pdfcpu hands back extracted images in.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// FirstImage decodes the first image resource of the page, in object order.
func (p *Page) FirstImage() (image.Image, error) {
	images, err := pdfcpu.ExtractPageImages(p.doc.ctx, p.nr, false)
	if err != nil {
		return nil, fmt.Errorf("page %d: failed to extract images: %w", p.nr, err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w on page %d", ErrNoImage, p.nr)
	}

	objNrs := make([]int, 0, len(images))
	for objNr := range images {
		objNrs = append(objNrs, objNr)
	}
	sort.Ints(objNrs)

	first := images[objNrs[0]]
	img, _, err := image.Decode(first)
	if err != nil {
		return nil, fmt.Errorf("page %d: failed to decode %s image %s: %w", p.nr, first.FileType, first.Name, err)
	}
	return img, nil
}

// ImageName returns the resource name of the first image the content stream draws.
func (p *Page) ImageName() (string, error) {
	cmds, err := p.Commands()
	if err != nil {
		return "", err
	}
	return drawnImage(cmds)
}

func drawnImage(cmds []Command) (string, error) {
	for _, c := range cmds {
		if c.Operator == "Do" && len(c.Operands) == 1 {
			return c.Operands[0], nil
		}
	}
	return "", fmt.Errorf("%w: content stream draws no XObject", ErrNoImage)
}
