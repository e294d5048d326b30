/*
Package image implements the lyim text encoder.

An image is written one row at a time from top to bottom. Each pair of
horizontally adjacent pixels is matched to the closest palette colors and the
two palette indices are packed into a single character in the range '!' to
'`'. Every row, including an empty one, is terminated by a single space.

There is no header; the width of the image is implied by the distance
between delimiters and the height by the number of them. An image with an
odd width has its last column dropped so every character holds exactly two
pixels.
*/
package image

// Delimiter terminates every encoded row.
const Delimiter = ' '

// EncodedLen returns the length in bytes of the encoding of a w by h pixel
// image.
func EncodedLen(w, h int) int {
	if w < 0 || h < 0 {
		return 0
	}
	return h * (w>>1 + 1)
}
