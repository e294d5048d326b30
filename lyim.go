/*
Package lyim is a library for converting images into the lyim printable text
encoding.

An image is shrunk according to the requested dimensions, every pixel is
matched against a fixed eight color palette and each pair of pixels is
written as a single character, see the image subpackage for the details of
the format.
*/
package lyim

import (
	"io/ioutil"
	"log"

	// Supported input formats
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Extension is appended to the base name of an exported file.
const Extension = ".lyim"

// Encoder converts image files, optionally caching the results in a Store.
type Encoder struct {
	store  *Store
	logger *log.Logger
}

// New returns an Encoder. The store and logger may both be nil.
func New(store *Store, logger *log.Logger) *Encoder {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Encoder{
		store:  store,
		logger: logger,
	}
}
