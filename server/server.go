/*
Package server implements an HTTP front end to the lyim encoder.

	POST /api/encode   multipart form with an "image" file and optional
	                   "width", "height" and "filter" fields, returns the
	                   encoded text as an attachment
	POST /api/preview  same form, returns the quantized image as PNG
	GET  /api/palette  returns the palette as JSON
*/
package server

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/bodgit/lyim"
	"github.com/bodgit/lyim/palette"
	"github.com/bodgit/lyim/resize"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
)

const formFile = "image"

type handler struct {
	enc      *lyim.Encoder
	defaults lyim.Options
	scale    int
}

// New returns an echo instance serving the API. Requests that don't set a
// width, height or filter get the ones from defaults. Request bodies larger
// than bodyLimit, such as "32M", are rejected; an empty limit uses
// lyim.DefaultBodyLimit.
func New(enc *lyim.Encoder, defaults lyim.Options, scale int, bodyLimit string) *echo.Echo {
	h := &handler{
		enc:      enc,
		defaults: defaults,
		scale:    scale,
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	if bodyLimit == "" {
		bodyLimit = lyim.DefaultBodyLimit
	}
	e.Use(middleware.BodyLimit(bodyLimit))

	api := e.Group("/api")
	api.POST("/encode", h.encode)
	api.POST("/preview", h.preview)
	api.GET("/palette", h.palette)

	return e
}

func formInt(c echo.Context, name string, def int) (int, error) {
	v := c.FormValue(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, v))
	}
	return n, nil
}

func (h *handler) options(c echo.Context) (lyim.Options, error) {
	o := h.defaults

	var err error
	if o.Width, err = formInt(c, "width", o.Width); err != nil {
		return o, err
	}
	if o.Height, err = formInt(c, "height", o.Height); err != nil {
		return o, err
	}
	if f := c.FormValue("filter"); f != "" {
		o.Filter = f
	}

	return o, nil
}

func (h *handler) source(c echo.Context) (string, []byte, error) {
	fh, err := c.FormFile(formFile)
	if err != nil {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "missing image")
	}

	f, err := fh.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	b, err := ioutil.ReadAll(f)
	if err != nil {
		return "", nil, err
	}

	return fh.Filename, b, nil
}

// Problems with the submitted image or parameters are the client's fault
func httpError(err error) error {
	var de *lyim.DecodeError
	switch {
	case errors.As(err, &de),
		errors.Is(err, lyim.ErrImageTooLarge),
		errors.Is(err, resize.ErrInvalidImageDimensions),
		errors.Is(err, resize.ErrUnknownFilter):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}

func (h *handler) encode(c echo.Context) error {
	o, err := h.options(c)
	if err != nil {
		return err
	}

	name, src, err := h.source(c)
	if err != nil {
		return err
	}

	b, err := h.enc.EncodeReader(bytes.NewReader(src), o)
	if err != nil {
		return httpError(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", lyim.BaseName(name, ".")+lyim.Extension))

	return c.Blob(http.StatusOK, "text/plain; charset=us-ascii", b)
}

func (h *handler) preview(c echo.Context) error {
	o, err := h.options(c)
	if err != nil {
		return err
	}

	_, src, err := h.source(c)
	if err != nil {
		return err
	}

	m, _, err := lyim.Decode(bytes.NewReader(src), o.MaxPixels)
	if err != nil {
		return httpError(err)
	}

	pm, err := lyim.Preview(m, o, h.scale)
	if err != nil {
		return httpError(err)
	}

	b := new(bytes.Buffer)
	if err := png.Encode(b, pm); err != nil {
		return err
	}

	return c.Blob(http.StatusOK, "image/png", b.Bytes())
}

type paletteEntry struct {
	Index int    `json:"index"`
	Color string `json:"color"`
}

func (h *handler) palette(c echo.Context) error {
	entries := make([]paletteEntry, len(palette.Default))
	for i, e := range palette.Default {
		entries[i] = paletteEntry{
			Index: e.Index,
			Color: e.Color.Hex(),
		}
	}
	return c.JSON(http.StatusOK, entries)
}
