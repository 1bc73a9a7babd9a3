package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/imgtobitmap"
	"github.com/bodgit/imgtobitmap/bitmap"
	"github.com/bodgit/imgtobitmap/quantize"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

// parseResize parses WxH where either side may be omitted or zero to keep
// the aspect ratio.
func parseResize(s string) (int, int, error) {
	if s == "" {
		return 0, 0, nil
	}

	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q, expected WxH", s)
	}

	var size [2]int
	for i, p := range parts {
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, fmt.Errorf("invalid size %q, expected WxH", s)
		}
		size[i] = n
	}

	return size[0], size[1], nil
}

func parseBPP(s string) (int, error) {
	bpp, err := strconv.Atoi(s)
	if err != nil || bpp < quantize.MinBPP || bpp > quantize.MaxBPP {
		return 0, fmt.Errorf("invalid bits per pixel %q, must be between %d and %d", s, quantize.MinBPP, quantize.MaxBPP)
	}
	return bpp, nil
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(c.App.ErrWriter)
	}
	return logger
}

func newConverter(c *cli.Context) (*imgtobitmap.Converter, func(), error) {
	format, err := bitmap.ParseFormat(c.String("format"))
	if err != nil {
		return nil, nil, err
	}

	metric, err := quantize.ParseMetric(c.String("metric"))
	if err != nil {
		return nil, nil, err
	}

	width, height, err := parseResize(c.String("resize"))
	if err != nil {
		return nil, nil, err
	}

	options := []imgtobitmap.Option{
		imgtobitmap.WithFormat(format),
		imgtobitmap.WithMetric(metric),
		imgtobitmap.WithResize(width, height),
	}

	closer := func() {}
	if db := c.String("db"); db != "" {
		catalog, err := imgtobitmap.OpenCatalog(db)
		if err != nil {
			return nil, nil, err
		}
		options = append(options, imgtobitmap.WithCatalog(catalog))
		closer = func() { catalog.Close() }
	}

	converter, err := imgtobitmap.New(newLogger(c), options...)
	if err != nil {
		closer()
		return nil, nil, err
	}

	return converter, closer, nil
}

func readBitmap(file string) (*bitmap.Bitmap, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(file)) {
	case bitmap.FormatBinary.Extension():
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		b := new(bitmap.Bitmap)
		if err := b.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		return b, nil
	case bitmap.FormatPython.Extension():
		return bitmap.DecodePython(f)
	}

	return nil, errors.New("only Python modules and binary bitmaps can be previewed")
}

func writePreview(file string, b *bitmap.Bitmap) (err error) {
	m, err := b.Image()
	if err != nil {
		return err
	}

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return png.Encode(f, m)
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "imgtobitmap"
	app.Usage = "Convert images to indexed bitmaps for microcontroller displays"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{"IMGTOBITMAP_CONFIG"},
			Usage:   "load flag defaults from YAML `FILE`",
		},
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"IMGTOBITMAP_DB"},
			Usage:   "cache conversions in the catalog database at `FILE`",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			EnvVars: []string{"IMGTOBITMAP_FORMAT"},
			Value:   bitmap.FormatPython.String(),
			Usage:   "output format, one of python, c or bin",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "metric",
			EnvVars: []string{"IMGTOBITMAP_METRIC"},
			Value:   quantize.MetricRGB.String(),
			Usage:   "color distance metric for 2 or more bits per pixel, one of rgb or lab",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  "resize",
			Usage: "resize images to `WxH` first, a zero or missing side keeps the aspect ratio",
		}),
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		}),
	}

	app.Before = altsrc.InitInputSourceWithContext(app.Flags, altsrc.NewYamlSourceFromFlagFunc("config"))

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert an image",
			Description: "Bits per pixel must be between 1 and 8. One bit per pixel is a strict black and white threshold, good for SSD1306 and similar displays.",
			ArgsUsage:   "IMAGE BPP",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "write to `FILE` instead of next to the image",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				bpp, err := parseBPP(c.Args().Get(1))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				converter, closer, err := newConverter(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				out, err := converter.Convert(c.Args().First(), bpp, c.String("output"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				fmt.Fprintf(c.App.Writer, "Wrote %s\n", out)

				return nil
			},
		},
		{
			Name:        "scan",
			Usage:       "Convert every image in a directory tree",
			Description: "Each artifact is written next to its source image. Hidden files and directories are skipped.",
			ArgsUsage:   "DIRECTORY BPP",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "workers",
					Value: imgtobitmap.DefaultWorkers,
					Usage: "number of images to convert at once",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				bpp, err := parseBPP(c.Args().Get(1))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				converter, closer, err := newConverter(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				n, err := converter.Scan(c.Context, c.Args().First(), bpp, c.Int("workers"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				fmt.Fprintf(c.App.Writer, "Converted %d images\n", n)

				return nil
			},
		},
		{
			Name:        "preview",
			Usage:       "Render a generated bitmap as a PNG",
			Description: "Colors are rendered as they appear after RGB565 packing.",
			ArgsUsage:   "BITMAP PNG",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				b, err := readBitmap(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := writePreview(c.Args().Get(1), b); err != nil {
					return cli.NewExitError(err, 1)
				}

				fmt.Fprintf(c.App.Writer, "Wrote %s\n", c.Args().Get(1))

				return nil
			},
		},
		{
			Name:        "catalog",
			Usage:       "List cached conversions",
			Description: "Requires --db.",
			Action: func(c *cli.Context) error {
				db := c.String("db")
				if db == "" {
					return cli.NewExitError("no catalog database given, use --db", 1)
				}

				catalog, err := imgtobitmap.OpenCatalog(db)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer catalog.Close()

				entries, err := catalog.Entries()
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for _, e := range entries {
					fmt.Fprintf(c.App.Writer, "%s %dx%d %dbpp %s %s (%d bytes)\n", e.SHA1, e.Width, e.Height, e.BPP, e.Variant, e.Path, e.Size)
				}

				return nil
			},
		},
	}

	return app
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
