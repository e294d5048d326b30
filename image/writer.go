package image

import (
	"context"
	"image"
	"io"

	"github.com/bodgit/lyim/pack"
	"github.com/bodgit/lyim/palette"
	"golang.org/x/sync/errgroup"
)

// Options are the encoding parameters.
type Options struct {
	// Palette to match against, palette.Default if nil
	Palette palette.Palette
	// Workers is the number of rows encoded concurrently, values less
	// than two encode sequentially
	Workers int
}

type encoder struct {
	w io.Writer
	m image.Image
	p palette.Palette
}

func (e *encoder) index(x, y int) (int, error) {
	entry, err := e.p.Closest(palette.FromColor(e.m.At(x, y)))
	if err != nil {
		return 0, err
	}
	return entry.Index, nil
}

// row appends the encoding of row y to dst
func (e *encoder) row(dst []byte, y int) ([]byte, error) {
	b := e.m.Bounds()
	for x := b.Min.X; x+1 < b.Max.X; x += 2 {
		i1, err := e.index(x, y)
		if err != nil {
			return nil, err
		}
		i2, err := e.index(x+1, y)
		if err != nil {
			return nil, err
		}
		c, err := pack.Pair(i1, i2)
		if err != nil {
			return nil, err
		}
		dst = append(dst, c)
	}
	return append(dst, Delimiter), nil
}

func (e *encoder) encode() error {
	b := e.m.Bounds()
	buf := make([]byte, 0, EncodedLen(b.Dx(), 1))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		var err error
		if buf, err = e.row(buf[:0], y); err != nil {
			return err
		}
		if _, err = e.w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// There is never more than one worker per row
func workerCount(workers, rows int) int {
	if workers > rows {
		return rows
	}
	return workers
}

// Rows are independent so they can be encoded in any order, they are only
// written out once all of them are done
func (e *encoder) encodeParallel(workers int) error {
	b := e.m.Bounds()
	rows := make([][]byte, b.Dy())

	g, ctx := errgroup.WithContext(context.Background())

	in := make(chan int)
	g.Go(func() error {
		defer close(in)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			select {
			case in <- y:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for y := range in {
				row, err := e.row(make([]byte, 0, EncodedLen(b.Dx(), 1)), y)
				if err != nil {
					return err
				}
				rows[y-b.Min.Y] = row
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := e.w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

// Encode writes the Image m to w in lyim text format. The image is not
// resized. Options may be nil.
func Encode(w io.Writer, m image.Image, o *Options) error {
	e := encoder{
		w: w,
		m: m,
		p: palette.Default,
	}

	workers := 1
	if o != nil {
		if o.Palette != nil {
			e.p = o.Palette
		}
		workers = o.Workers
	}

	if workers = workerCount(workers, m.Bounds().Dy()); workers > 1 {
		return e.encodeParallel(workers)
	}

	return e.encode()
}

// EncodeRow returns the encoding of the single row y of m including the
// trailing delimiter. A nil palette means palette.Default.
func EncodeRow(m image.Image, y int, p palette.Palette) ([]byte, error) {
	if p == nil {
		p = palette.Default
	}
	e := encoder{m: m, p: p}
	return e.row(make([]byte, 0, EncodedLen(m.Bounds().Dx(), 1)), y)
}
