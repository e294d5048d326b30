package main

import (
	"context"
	"fmt"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/lyim"
	"github.com/bodgit/lyim/palette"
	"github.com/bodgit/lyim/resize"
	"github.com/bodgit/lyim/server"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

var cfg = lyim.DefaultConfig()

func setup(c *cli.Context) error {
	if file := c.String("config"); file != "" {
		var err error
		if cfg, err = lyim.LoadConfig(file); err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	if c.IsSet("db") {
		cfg.DB = c.String("db")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("filter") {
		cfg.Filter = c.String("filter")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("max-pixels") {
		cfg.MaxPixels = c.Int("max-pixels")
	}

	return nil
}

func newEncoder(c *cli.Context) (*lyim.Encoder, func(), error) {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	if cfg.DB == "" {
		return lyim.New(nil, logger), func() {}, nil
	}

	store, err := lyim.NewStore(cfg.DB)
	if err != nil {
		return nil, nil, err
	}

	return lyim.New(store, logger), func() { store.Close() }, nil
}

func main() {
	app := cli.NewApp()

	app.Name = "lyim"
	app.Usage = "Convert images to lyim text"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{"LYIM_CONFIG"},
			Usage:   "path to TOML configuration file",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"LYIM_DB"},
			Usage:   "path to cache database",
		},
		&cli.IntFlag{
			Name:  "width",
			Usage: "maximum width in pixels, 0 keeps the source width",
		},
		&cli.IntFlag{
			Name:  "height",
			Usage: "maximum height in pixels, 0 keeps the source height",
		},
		&cli.StringFlag{
			Name:  "filter",
			Value: resize.DefaultFilter,
			Usage: "resampling filter, one of " + strings.Join(resize.Filters(), ", "),
		},
		&cli.IntFlag{
			Name:  "workers",
			Value: cfg.Workers,
			Usage: "number of rows to encode concurrently",
		},
		&cli.IntFlag{
			Name:  "max-pixels",
			Value: cfg.MaxPixels,
			Usage: "refuse source images larger than this many pixels, 0 for no limit",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Before = setup

	app.Commands = []*cli.Command{
		{
			Name:        "encode",
			Usage:       "Encode image files",
			Description: "Each FILE is written as a .lyim file with the same base name.",
			ArgsUsage:   "FILE...",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "directory to write to, defaults to alongside each FILE",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				e, done, err := newEncoder(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer done()

				for _, file := range c.Args().Slice() {
					out, err := e.EncodeFile(file, c.String("output"), cfg.Options())
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					fmt.Println(out)
				}

				return nil
			},
		},
		{
			Name:        "preview",
			Usage:       "Render an image using only the palette colors",
			Description: "The image is resized as for encode and every pixel replaced by its closest\n   palette color, then written as a PNG.",
			ArgsUsage:   "FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "PNG file to write, defaults to FILE with a .preview.png suffix",
				},
				&cli.IntFlag{
					Name:  "scale",
					Usage: "enlarge the preview by this factor",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				e, done, err := newEncoder(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer done()

				file := c.Args().First()

				scale := cfg.PreviewScale
				if c.IsSet("scale") {
					scale = c.Int("scale")
				}

				m, err := e.PreviewFile(file, cfg.Options(), scale)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				out := c.String("output")
				if out == "" {
					out = filepath.Join(filepath.Dir(file), lyim.BaseName(filepath.Base(file), ".")+".preview.png")
				}

				f, err := os.Create(out)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				if err := png.Encode(f, m); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "scan",
			Usage:       "Encode every image under a directory",
			Description: "Hidden files and directories are skipped.",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				e, done, err := newEncoder(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer done()

				if err := e.Scan(context.Background(), c.Args().First(), cfg.Options()); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "serve",
			Usage: "Run the HTTP API",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "listen",
					Aliases: []string{"l"},
					Usage:   "address to listen on",
				},
			},
			Action: func(c *cli.Context) error {
				e, done, err := newEncoder(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer done()

				listen := cfg.Listen
				if c.IsSet("listen") {
					listen = c.String("listen")
				}

				if err := server.New(e, cfg.Options(), cfg.PreviewScale, cfg.BodyLimit).Start(listen); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "palette",
			Usage: "List the palette colors",
			Action: func(c *cli.Context) error {
				for _, e := range palette.Default {
					fmt.Printf("%d\t%s\t%3d %3d %3d\n", e.Index, e.Color.Hex(), e.Color.R, e.Color.G, e.Color.B)
				}
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
