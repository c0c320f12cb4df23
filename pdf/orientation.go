package pdf

import (
	"fmt"

	"seehuhn.de/go/geom/matrix"
)

// ResolveOrientation scans a content stream for transforms that flip an axis.
//
// The returned terms start at half the page width and height and change sign
// once for every cm whose a (for x) or d (for y) component is negative, so the
// sign of each term is (-1)^n for n flips on that axis.
func ResolveOrientation(cmds []Command, page PageGeometry) (x, y float64, err error) {
	x, y = page.Center()
	for i, c := range cmds {
		if c.Operator != "cm" {
			continue
		}
		m, err := c.Matrix()
		if err != nil {
			return 0, 0, fmt.Errorf("command %d: %w", i, err)
		}
		if m[0] < 0 {
			x = -x
		}
		if m[3] < 0 {
			y = -y
		}
	}
	return x, y, nil
}

// FlipTransform builds the transform that stretches the image unit square over
// the whole page, mirrored on each axis whose term is negative. An unflipped
// Letter page gives [612 0 0 792 0 0]; a flipped x axis gives [-612 0 0 792 612 0].
func FlipTransform(x, y float64, page PageGeometry) matrix.Matrix {
	cx, cy := page.Center()
	return matrix.Matrix{2 * x, 0, 0, 2 * y, cx - x, cy - y}
}
