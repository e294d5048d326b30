package lyim

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bodgit/lyim/resize"
)

// Config holds the settings read from a TOML configuration file.
type Config struct {
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	Filter       string `toml:"filter"`
	Workers      int    `toml:"workers"`
	MaxPixels    int    `toml:"max_pixels"`
	PreviewScale int    `toml:"preview_scale"`
	DB           string `toml:"db"`
	Listen       string `toml:"listen"`
	BodyLimit    string `toml:"body_limit"`
}

const (
	// DefaultMaxPixels is 64 megapixels
	DefaultMaxPixels = 1 << 26
	// DefaultBodyLimit caps the size of an upload to the HTTP API
	DefaultBodyLimit = "32M"
)

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Filter:       resize.DefaultFilter,
		Workers:      runtime.NumCPU(),
		MaxPixels:    DefaultMaxPixels,
		PreviewScale: 1,
		Listen:       ":8080",
		BodyLimit:    DefaultBodyLimit,
	}
}

// LoadConfig reads the configuration file, any setting not present keeps
// its default value. Unknown keys are an error.
func LoadConfig(file string) (Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(file, &cfg)
	if err != nil {
		return Config{}, err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys %s", file, strings.Join(keys, ", "))
	}

	if err := cfg.Options().validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", file, err)
	}

	if cfg.PreviewScale < 1 {
		return Config{}, fmt.Errorf("%s: preview_scale must be at least 1", file)
	}

	return cfg, nil
}

// Options returns the encoding options from the configuration.
func (c Config) Options() Options {
	return Options{
		Width:     c.Width,
		Height:    c.Height,
		Filter:    c.Filter,
		Workers:   c.Workers,
		MaxPixels: c.MaxPixels,
	}
}
