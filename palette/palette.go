/*
Package palette implements the fixed eight color palette used by the lyim
text encoding and the nearest color matching against it.

Each entry carries a stable 1-based index which is what gets packed into the
encoded form. Colors are plain 8-bit RGB triples, any alpha is ignored when
matching.
*/
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	// ErrMalformedColorCode is returned when a color code is not exactly
	// six hexadecimal digits
	ErrMalformedColorCode = errors.New("palette: malformed color code")
	// ErrEmptyPalette is returned when matching against a palette with no
	// entries
	ErrEmptyPalette = errors.New("palette: empty palette")
	// ErrUnknownIndex is returned by Lookup for an index not in the palette
	ErrUnknownIndex = errors.New("palette: unknown index")
)

// Color is an opaque 24-bit RGB color.
type Color struct {
	R, G, B uint8
}

// RGBA implements the color.Color interface. The alpha is always fully
// opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	a = 0xffff
	return
}

// Hex returns the color as a lowercase "#rrggbb" code.
func (c Color) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}.Hex()
}

func (c Color) String() string {
	return c.Hex()
}

func (c Color) sqDist(o Color) int {
	dr := int(c.R) - int(o.R)
	dg := int(c.G) - int(o.G)
	db := int(c.B) - int(o.B)
	return dr*dr + dg*dg + db*db
}

// Distance returns the Euclidean distance between two colors in RGB space.
func (c Color) Distance(o Color) float64 {
	return math.Sqrt(float64(c.sqDist(o)))
}

// FromColor converts any color.Color to a Color, discarding alpha. The
// channels are taken from the non-alpha-premultiplied form so a
// semi-transparent pixel matches on its visible color.
func FromColor(c color.Color) Color {
	if p, ok := c.(Color); ok {
		return p
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{n.R, n.G, n.B}
}

// ParseColor parses a color code of the form "RRGGBB" with an optional
// leading '#'.
func ParseColor(code string) (Color, error) {
	s := strings.TrimPrefix(code, "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrMalformedColorCode, code)
	}

	var rgb [3]uint8
	for i := range rgb {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrMalformedColorCode, code)
		}
		rgb[i] = uint8(v)
	}

	return Color{rgb[0], rgb[1], rgb[2]}, nil
}

// MustParseColor is like ParseColor but panics if the code is malformed.
func MustParseColor(code string) Color {
	c, err := ParseColor(code)
	if err != nil {
		panic(err)
	}
	return c
}

// Entry is a palette color along with its 1-based index.
type Entry struct {
	Color Color
	Index int
}

// Palette is an ordered sequence of entries.
type Palette []Entry

// Default is the palette used by the encoding. The indices are part of the
// format and must never change.
var Default = Palette{
	{Color{0x00, 0x00, 0x00}, 1}, // Black
	{Color{0xaa, 0x00, 0x00}, 2}, // Dark red
	{Color{0x00, 0xaa, 0x00}, 3}, // Green
	{Color{0xaa, 0x55, 0x00}, 4}, // Brown
	{Color{0x00, 0x00, 0xaa}, 5}, // Blue
	{Color{0xaa, 0x00, 0xaa}, 6}, // Magenta
	{Color{0x00, 0xaa, 0xaa}, 7}, // Cyan
	{Color{0xaa, 0xaa, 0xaa}, 8}, // Light gray
}

// Lookup returns the entry with the given index.
func (p Palette) Lookup(index int) (Entry, error) {
	for _, e := range p {
		if e.Index == index {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %d", ErrUnknownIndex, index)
}

// Closest returns the entry nearest to c. On a tie the earlier entry wins.
func (p Palette) Closest(c Color) (Entry, error) {
	if len(p) == 0 {
		return Entry{}, ErrEmptyPalette
	}

	best, bestSum := p[0], c.sqDist(p[0].Color)
	for _, e := range p[1:] {
		if sum := c.sqDist(e.Color); sum < bestSum {
			best, bestSum = e, sum
		}
	}

	return best, nil
}

// Convert implements the color.Model interface, returning the closest
// palette color. An empty palette returns c unchanged.
func (p Palette) Convert(c color.Color) color.Color {
	e, err := p.Closest(FromColor(c))
	if err != nil {
		return c
	}
	return e.Color
}

// Colors returns the palette as a color.Palette in palette order, suitable for
// image.NewPaletted.
func (p Palette) Colors() color.Palette {
	cp := make(color.Palette, len(p))
	for i, e := range p {
		cp[i] = e.Color
	}
	return cp
}
