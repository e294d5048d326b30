package lyim

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	limage "github.com/bodgit/lyim/image"
	"github.com/bodgit/lyim/resize"
	"github.com/disintegration/gift"
)

// Options control how an image is resized and encoded.
type Options struct {
	// Width and Height constrain the encoded image, zero means the source
	// dimension. The image is never enlarged.
	Width  int
	Height int
	// Filter is the name of the resampling filter, see resize.Filters
	Filter string
	// Workers is the number of rows encoded concurrently
	Workers int
	// MaxPixels is the largest source image, in pixels, that is decoded.
	// Zero means no limit
	MaxPixels int
}

// ErrImageTooLarge is returned when the source image has more pixels than
// Options.MaxPixels allows
var ErrImageTooLarge = errors.New("lyim: image too large")

// DecodeError records a source image that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "lyim: decode: " + e.Err.Error()
}

// Unwrap returns the underlying decoder error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (o Options) validate() error {
	if o.Width < 0 || o.Height < 0 {
		return fmt.Errorf("%w: requested %dx%d", resize.ErrInvalidImageDimensions, o.Width, o.Height)
	}
	if o.MaxPixels < 0 {
		return fmt.Errorf("invalid pixel limit %d", o.MaxPixels)
	}
	_, err := resize.Filter(o.Filter)
	return err
}

// Resize returns m resized according to the options.
func Resize(m image.Image, o Options) (*image.NRGBA, error) {
	filter, err := resize.Filter(o.Filter)
	if err != nil {
		return nil, err
	}

	b := m.Bounds()
	w, h, err := resize.Plan(b.Dx(), b.Dy(), o.Width, o.Height)
	if err != nil {
		return nil, err
	}

	return resize.Image(m, w, h, filter), nil
}

// Encode resizes m and returns its encoded form.
func Encode(m image.Image, o Options) ([]byte, error) {
	r, err := Resize(m, o)
	if err != nil {
		return nil, err
	}

	b := bytes.NewBuffer(make([]byte, 0, limage.EncodedLen(r.Bounds().Dx(), r.Bounds().Dy())))
	if err := limage.Encode(b, r, &limage.Options{Workers: o.Workers}); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Preview resizes m and returns it with every pixel replaced by the closest
// palette color, enlarged by an integer scale factor.
func Preview(m image.Image, o Options, scale int) (image.Image, error) {
	r, err := Resize(m, o)
	if err != nil {
		return nil, err
	}

	pm := limage.Preview(r, nil)

	b := pm.Bounds()
	if scale <= 1 || b.Empty() {
		return pm, nil
	}

	g := gift.New(gift.Resize(b.Dx()*scale, b.Dy()*scale, gift.NearestNeighborResampling))
	dst := image.NewNRGBA(g.Bounds(b))
	g.Draw(dst, pm)

	return dst, nil
}

// Decode reads an image from r. The header is checked against maxPixels
// before any pixel data is decoded, zero means no limit. Any failure of the
// decoder is returned as a *DecodeError.
func Decode(r io.Reader, maxPixels int) (image.Image, string, error) {
	src, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, "", err
	}
	return decode(src, maxPixels)
}

func decode(src []byte, maxPixels int) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, "", &DecodeError{err}
	}

	if maxPixels > 0 && cfg.Width*cfg.Height > maxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	m, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, "", &DecodeError{err}
	}

	return m, format, nil
}

// EncodeReader decodes an image from r and returns its encoded form. If the
// Encoder has a Store, an identical source with identical options is only
// encoded once.
func (e *Encoder) EncodeReader(r io.Reader, o Options) ([]byte, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}

	src, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	sha := fmt.Sprintf("%X", sha1.Sum(src))

	if e.store != nil {
		b, ok, err := e.store.Find(sha, o)
		if err != nil {
			return nil, err
		}
		if ok {
			e.logger.Printf("Cache hit for %s\n", sha)
			return b, nil
		}
	}

	m, format, err := decode(src, o.MaxPixels)
	if err != nil {
		return nil, err
	}

	b, err := Encode(m, o)
	if err != nil {
		return nil, err
	}
	e.logger.Printf("Encoded %s image %dx%d into %d bytes\n", format, m.Bounds().Dx(), m.Bounds().Dy(), len(b))

	if e.store != nil {
		if err := e.store.Add(sha, o, b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// OutputName returns the name of the exported file for the source file,
// placed in dir or alongside the source if dir is empty.
func OutputName(file, dir string) string {
	if dir == "" {
		dir = filepath.Dir(file)
	}
	return filepath.Join(dir, BaseName(filepath.Base(file), ".")+Extension)
}

// EncodeFile encodes the image file and writes the result to a file in dir
// as named by OutputName. The output path is returned. Nothing is written if
// the source cannot be read or encoded.
func (e *Encoder) EncodeFile(file, dir string, o Options) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	b, err := e.EncodeReader(f, o)
	if err != nil {
		return "", fmt.Errorf("%s: %w", file, err)
	}

	out := OutputName(file, dir)
	if err := ioutil.WriteFile(out, b, 0644); err != nil {
		return "", err
	}
	e.logger.Printf("Wrote \"%s\"\n", out)

	return out, nil
}

// PreviewFile decodes the image file and returns its preview.
func (e *Encoder) PreviewFile(file string, o Options, scale int) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := Decode(f, o.MaxPixels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return Preview(m, o, scale)
}
