package lyim

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/lyim/palette"
	"github.com/bodgit/lyim/resize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "lyim")
	require.NoError(t, err)
	return dir
}

func solid(w, h int, c color.Color) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, c)
		}
	}
	return m
}

func writePNG(t *testing.T, file string, m image.Image) {
	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, m))
}

func pngBytes(t *testing.T, m image.Image) []byte {
	b := new(bytes.Buffer)
	require.NoError(t, png.Encode(b, m))
	return b.Bytes()
}

// hugePNG returns a valid 1x1 PNG with the IHDR rewritten to claim w by h
// pixels
func hugePNG(t *testing.T, w, h uint32) []byte {
	b := pngBytes(t, solid(1, 1, color.Black))
	binary.BigEndian.PutUint32(b[16:], w)
	binary.BigEndian.PutUint32(b[20:], h)
	binary.BigEndian.PutUint32(b[29:], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestEncode(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 2, 1))
	m.Set(0, 0, color.RGBA{0, 0, 0, 0xff})
	m.Set(1, 0, color.RGBA{170, 0, 0, 0xff})

	b, err := Encode(m, Options{})
	require.NoError(t, err)
	assert.Equal(t, []byte{'"', ' '}, b)
}

func TestEncodeResized(t *testing.T) {
	b, err := Encode(solid(100, 50, palette.Default[6].Color), Options{Width: 61})
	require.NoError(t, err)

	// 62 pixels wide is 31 characters plus the delimiter, 31 rows
	assert.Equal(t, bytes.Repeat(append(bytes.Repeat([]byte{33 + (6<<3 | 6)}, 31), ' '), 31), b)
}

func TestEncodeOddScaledWidth(t *testing.T) {
	b, err := Encode(solid(100, 100, palette.Default[0].Color), Options{Height: 33})
	require.NoError(t, err)

	// 33x33, the last column is dropped
	assert.Equal(t, bytes.Repeat(append(bytes.Repeat([]byte{'!'}, 16), ' '), 33), b)
}

func TestEncodeInvalid(t *testing.T) {
	_, err := Encode(image.NewRGBA(image.Rect(0, 0, 0, 10)), Options{})
	assert.ErrorIs(t, err, resize.ErrInvalidImageDimensions)

	_, err = Encode(solid(2, 2, color.Black), Options{Width: -1})
	assert.ErrorIs(t, err, resize.ErrInvalidImageDimensions)

	_, err = Encode(solid(2, 2, color.Black), Options{Filter: "nope"})
	assert.ErrorIs(t, err, resize.ErrUnknownFilter)
}

func TestResize(t *testing.T) {
	m, err := Resize(solid(100, 50, color.White), Options{Width: 61})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 62, 31), m.Bounds())

	m, err = Resize(solid(100, 50, color.White), Options{})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 50), m.Bounds())
}

func TestPreview(t *testing.T) {
	m, err := Preview(solid(4, 2, color.RGBA{250, 250, 250, 0x80}), Options{}, 1)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), m.Bounds())

	m, err = Preview(solid(4, 2, color.RGBA{0, 0, 200, 0xff}), Options{}, 3)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 12, 6), m.Bounds())
	assert.Equal(t, color.RGBA{0, 0, 0xaa, 0xff}, color.RGBAModel.Convert(m.At(11, 5)))
}

func TestBaseName(t *testing.T) {
	tables := []struct {
		name, sep, want string
	}{
		{"photo.png", ".", "photo"},
		{"archive.tar.gz", ".", "archive.tar"},
		{"noext", ".", "noext"},
		{".hidden", ".", ""},
		{"a-b-c", "-", "a-b"},
		{"name.png", "", "name.png"},
	}

	for _, table := range tables {
		assert.Equal(t, table.want, BaseName(table.name, table.sep))
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, filepath.Join("in", "cat.lyim"), OutputName(filepath.Join("in", "cat.png"), ""))
	assert.Equal(t, filepath.Join("out", "cat.v2.lyim"), OutputName(filepath.Join("in", "cat.v2.jpg"), "out"))
}

func TestEncodeFile(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "red.png")
	writePNG(t, src, solid(4, 2, color.RGBA{0xaa, 0, 0, 0xff}))

	out, err := New(nil, nil).EncodeFile(src, "", Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "red.lyim"), out)

	b, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "** ** ", string(b))
}

func TestEncodeFileMissing(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	_, err := New(nil, nil).EncodeFile(filepath.Join(dir, "missing.png"), "", Options{})
	assert.True(t, os.IsNotExist(err))

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, ioutil.WriteFile(bad, []byte("not an image"), 0644))
	_, err = New(nil, nil).EncodeFile(bad, "", Options{})
	assert.ErrorIs(t, err, image.ErrFormat)

	files, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDecode(t *testing.T) {
	src := pngBytes(t, solid(8, 8, color.Black))

	m, format, err := Decode(bytes.NewReader(src), 64)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 8, 8), m.Bounds())

	_, _, err = Decode(bytes.NewReader(src), 63)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, _, err = Decode(bytes.NewReader(hugePNG(t, 50000, 50000)), DefaultMaxPixels)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	var de *DecodeError
	_, _, err = Decode(bytes.NewReader(src[:len(src)-20]), 0)
	assert.True(t, errors.As(err, &de))

	_, _, err = Decode(bytes.NewReader([]byte("hello")), 0)
	assert.True(t, errors.As(err, &de))
	assert.ErrorIs(t, err, image.ErrFormat)
}

func TestEncodeReaderTooLarge(t *testing.T) {
	e := New(nil, nil)

	_, err := e.EncodeReader(bytes.NewReader(hugePNG(t, 50000, 50000)), Options{MaxPixels: DefaultMaxPixels})
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = e.EncodeReader(bytes.NewReader(pngBytes(t, solid(4, 4, color.Black))), Options{MaxPixels: 16})
	assert.NoError(t, err)

	_, err = e.EncodeReader(bytes.NewReader(pngBytes(t, solid(4, 4, color.Black))), Options{MaxPixels: -1})
	assert.Error(t, err)
}

func TestStore(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	store, err := NewStore(filepath.Join(dir, "lyim.db"))
	require.NoError(t, err)
	defer store.Close()

	buf := new(bytes.Buffer)
	e := New(store, log.New(buf, "", 0))

	src := new(bytes.Buffer)
	require.NoError(t, png.Encode(src, solid(6, 3, color.RGBA{0, 0xaa, 0, 0xff})))

	b1, err := e.EncodeReader(bytes.NewReader(src.Bytes()), Options{})
	require.NoError(t, err)
	b2, err := e.EncodeReader(bytes.NewReader(src.Bytes()), Options{Filter: "LINEAR"})
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
	assert.Contains(t, buf.String(), "Cache hit")

	n, err := store.Length()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = e.EncodeReader(bytes.NewReader(src.Bytes()), Options{Width: 2})
	require.NoError(t, err)

	n, err = store.Length()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, err := store.Find("0000", Options{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScan(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	sub := filepath.Join(dir, "sub")
	hidden := filepath.Join(dir, ".hidden")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.Mkdir(hidden, 0755))

	writePNG(t, filepath.Join(dir, "a.png"), solid(2, 2, color.Black))
	writePNG(t, filepath.Join(sub, "b.PNG"), solid(2, 2, color.Black))
	writePNG(t, filepath.Join(hidden, "c.png"), solid(2, 2, color.Black))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "broken.png"), []byte("garbage"), 0644))

	require.NoError(t, New(nil, nil).Scan(context.Background(), dir, Options{}))

	for _, file := range []string{filepath.Join(dir, "a.lyim"), filepath.Join(sub, "b.lyim")} {
		b, err := ioutil.ReadFile(file)
		require.NoError(t, err)
		assert.Equal(t, "! ! ", string(b))
	}

	for _, file := range []string{filepath.Join(hidden, "c.lyim"), filepath.Join(dir, "notes.lyim"), filepath.Join(dir, "broken.lyim")} {
		_, err := os.Stat(file)
		assert.True(t, os.IsNotExist(err), file)
	}
}

func TestScanSharedBaseName(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	f, err := os.Create(filepath.Join(dir, "a.gif"))
	require.NoError(t, err)
	require.NoError(t, gif.Encode(f, solid(2, 2, color.Black), nil))
	require.NoError(t, f.Close())

	writePNG(t, filepath.Join(dir, "a.png"), solid(2, 2, color.RGBA{0xaa, 0, 0, 0xff}))

	buf := new(bytes.Buffer)
	require.NoError(t, New(nil, log.New(buf, "", 0)).Scan(context.Background(), dir, Options{}))

	b, err := ioutil.ReadFile(filepath.Join(dir, "a.lyim"))
	require.NoError(t, err)
	assert.Equal(t, "! ! ", string(b))
	assert.Contains(t, buf.String(), "a.png")
	assert.Contains(t, buf.String(), "already written")
}

func TestScanCancelled(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	writePNG(t, filepath.Join(dir, "a.png"), solid(2, 2, color.Black))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, New(nil, nil).Scan(ctx, dir, Options{}))
}

func TestLoadConfig(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "lyim.toml")
	require.NoError(t, ioutil.WriteFile(file, []byte("width = 64\nfilter = \"lanczos\"\nlisten = \"127.0.0.1:9000\"\n"), 0644))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 0, cfg.Height)
	assert.Equal(t, "lanczos", cfg.Filter)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	assert.Equal(t, 1, cfg.PreviewScale)
	assert.Equal(t, DefaultBodyLimit, cfg.BodyLimit)
	assert.Equal(t, Options{Width: 64, Filter: "lanczos", Workers: cfg.Workers, MaxPixels: DefaultMaxPixels}, cfg.Options())

	require.NoError(t, ioutil.WriteFile(file, []byte("max_pixels = 1000\nbody_limit = \"1M\"\n"), 0644))
	cfg, err = LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Options().MaxPixels)
	assert.Equal(t, "1M", cfg.BodyLimit)

	require.NoError(t, ioutil.WriteFile(file, []byte("colour = 1\n"), 0644))
	_, err = LoadConfig(file)
	assert.Error(t, err)

	require.NoError(t, ioutil.WriteFile(file, []byte("filter = \"blurry\"\n"), 0644))
	_, err = LoadConfig(file)
	assert.ErrorIs(t, err, resize.ErrUnknownFilter)

	require.NoError(t, ioutil.WriteFile(file, []byte("height = -3\n"), 0644))
	_, err = LoadConfig(file)
	assert.ErrorIs(t, err, resize.ErrInvalidImageDimensions)
}
