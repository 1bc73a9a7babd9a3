/*
Package imgtobitmap converts raster images into indexed bitmaps that can be
embedded in microcontroller firmware driving small displays.

An image is quantized to a palette of 2^bpp colors, the palette is packed
as byte-swapped RGB565 words and the pixel indices are packed into a dense
bitstream. The result is written out as a Python module by default, or
optionally as a C header or raw binary blob.
*/
package imgtobitmap

import (
	"fmt"
	"image"
	"io"
	"log"

	"github.com/bodgit/imgtobitmap/bitmap"
	"github.com/bodgit/imgtobitmap/quantize"
)

// Converter converts images to bitmaps. It holds no per-conversion state so
// a single Converter can be used from multiple goroutines.
type Converter struct {
	logger  *log.Logger
	format  bitmap.Format
	metric  quantize.Metric
	resize  image.Point
	catalog *Catalog
}

// Option configures a Converter.
type Option func(*Converter) error

// WithFormat sets the output format. The default is bitmap.FormatPython.
func WithFormat(f bitmap.Format) Option {
	return func(c *Converter) error {
		if f.Extension() == "" {
			return &Error{Kind: ErrInvalidParameter, Op: "format", Err: bitmap.ErrUnknownFormat}
		}
		c.format = f
		return nil
	}
}

// WithMetric sets the color distance metric used when mapping pixels to
// an adaptive palette.
func WithMetric(m quantize.Metric) Option {
	return func(c *Converter) error {
		c.metric = m
		return nil
	}
}

// WithResize resizes every source image before quantizing it. If one of
// width or height is zero it is computed to preserve the aspect ratio.
func WithResize(width, height int) Option {
	return func(c *Converter) error {
		if width < 0 || height < 0 {
			return &Error{Kind: ErrInvalidParameter, Op: "resize", Err: fmt.Errorf("negative size %dx%d", width, height)}
		}
		c.resize = image.Pt(width, height)
		return nil
	}
}

// WithCatalog caches every artifact in the catalog and reuses it when the
// same source is converted again with the same settings.
func WithCatalog(catalog *Catalog) Option {
	return func(c *Converter) error {
		c.catalog = catalog
		return nil
	}
}

// New returns a new Converter logging to logger. A nil logger discards
// all output.
func New(logger *log.Logger, options ...Option) (*Converter, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	c := &Converter{
		logger: logger,
		format: bitmap.FormatPython,
		metric: quantize.MetricRGB,
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Format returns the output format.
func (c *Converter) Format() bitmap.Format {
	return c.format
}

func (c *Converter) variant(out string) string {
	v := fmt.Sprintf("%s/%s/%dx%d", c.format, c.metric, c.resize.X, c.resize.Y)
	if c.format == bitmap.FormatC {
		v += "/" + identifier(out)
	}
	return v
}
