/*
Package pack implements packing of a pair of palette indices into a single
printable character.

Each index in the range 1-8 is reduced to 3 bits, the first index occupies
the upper 3 bits and the second the lower 3 bits of a 6-bit value. The value
is offset by 33 so the result always falls within '!' (33) to '`' (96) and
can never collide with the space used to delimit rows.
*/
package pack

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Bits is the width of a single packed index
	Bits = 3
	// MinIndex is the lowest valid palette index
	MinIndex = 1
	// MaxIndex is the highest valid palette index
	MaxIndex = 1 << Bits
	// Offset is added to the packed value to make it printable
	Offset = '!'
	// Max is the highest character Pair can return
	Max = Offset + 1<<(Bits*2) - 1
)

var (
	// ErrIndexOutOfRange is returned when a palette index is outside 1-8
	ErrIndexOutOfRange = errors.New("pack: index out of range")
	// ErrValueTooLarge is returned when a value does not fit in the
	// requested number of bits
	ErrValueTooLarge = errors.New("pack: value too large")
)

func checkIndex(i int) error {
	if i < MinIndex || i > MaxIndex {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return nil
}

// Pair packs the two palette indices a and b into one character.
func Pair(a, b int) (byte, error) {
	if err := checkIndex(a); err != nil {
		return 0, err
	}
	if err := checkIndex(b); err != nil {
		return 0, err
	}

	v := byte(a-1)&0x07<<Bits | byte(b-1)&0x07

	return v + Offset, nil
}

// Binary returns the width-bit, zero padded, most significant bit first
// binary representation of n.
func Binary(n, width uint) (string, error) {
	if n>>width != 0 {
		return "", fmt.Errorf("%w: %d in %d bits", ErrValueTooLarge, n, width)
	}

	var sb strings.Builder
	sb.Grow(int(width))
	for i := width; i > 0; i-- {
		if n>>(i-1)&1 == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}

	return sb.String(), nil
}
