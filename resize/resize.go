/*
Package resize implements the sizing policy applied to an image before it is
encoded.

An image is only ever shrunk, never enlarged, and its aspect ratio is kept.
A requested width is rounded up to an even number before the scale is
worked out as each encoded character holds two horizontally adjacent pixels.
*/
package resize

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	// ErrInvalidImageDimensions is returned for a non-positive source
	// dimension or a negative requested dimension
	ErrInvalidImageDimensions = errors.New("resize: invalid image dimensions")
	// ErrUnknownFilter is returned for an unrecognised filter name
	ErrUnknownFilter = errors.New("resize: unknown filter")
)

// DefaultFilter is the name of the filter used when none is given.
const DefaultFilter = "linear"

var filters = map[string]imaging.ResampleFilter{
	"nearest":    imaging.NearestNeighbor,
	"box":        imaging.Box,
	"linear":     imaging.Linear,
	"hermite":    imaging.Hermite,
	"mitchell":   imaging.MitchellNetravali,
	"catmullrom": imaging.CatmullRom,
	"bspline":    imaging.BSpline,
	"gaussian":   imaging.Gaussian,
	"lanczos":    imaging.Lanczos,
}

// Filters returns the names of the available resampling filters, sorted.
func Filters() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filter returns the resampling filter with the given name. An empty name
// returns the default filter.
func Filter(name string) (imaging.ResampleFilter, error) {
	if name == "" {
		name = DefaultFilter
	}
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return f, nil
}

// Plan works out the dimensions an image of sw by sh pixels is resized to
// given an optional requested width and height, zero meaning the source
// dimension is used.
//
// The returned width is not guaranteed to be even; the scale is derived from
// the evened requested width and may still produce an odd result.
func Plan(sw, sh, rw, rh int) (int, int, error) {
	if sw <= 0 || sh <= 0 {
		return 0, 0, fmt.Errorf("%w: source %dx%d", ErrInvalidImageDimensions, sw, sh)
	}
	if rw < 0 || rh < 0 {
		return 0, 0, fmt.Errorf("%w: requested %dx%d", ErrInvalidImageDimensions, rw, rh)
	}

	tw, th := rw, rh
	if tw == 0 {
		tw = sw
	}
	if th == 0 {
		th = sh
	}

	if tw%2 != 0 {
		tw++
	}

	scale := math.Min(math.Min(float64(tw)/float64(sw), float64(th)/float64(sh)), 1)

	return int(math.Floor(float64(sw) * scale)), int(math.Floor(float64(sh) * scale)), nil
}

// Image resamples m to exactly w by h pixels. The result always has its
// top-left corner at (0, 0). If m is already the requested size it is copied
// without resampling.
func Image(m image.Image, w, h int, filter imaging.ResampleFilter) *image.NRGBA {
	if w <= 0 || h <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	}

	b := m.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return imaging.Clone(m)
	}

	return imaging.Resize(m, w, h, filter)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
