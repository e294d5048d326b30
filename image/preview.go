package image

import (
	"image"

	"github.com/bodgit/lyim/palette"
)

// Preview returns a copy of m with every pixel replaced by its closest
// palette color. The result is fully opaque and has its top-left corner at
// (0, 0). A nil palette means palette.Default.
func Preview(m image.Image, p palette.Palette) *image.Paletted {
	if p == nil {
		p = palette.Default
	}

	b := m.Bounds()
	pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), p.Colors())
	if len(p) == 0 {
		return pm
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pm.Set(x-b.Min.X, y-b.Min.Y, p.Convert(m.At(x, y)))
		}
	}

	return pm
}
