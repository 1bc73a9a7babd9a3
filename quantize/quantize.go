/*
Package quantize reduces an image to an indexed image with exactly 2^bpp
palette entries.

At one bit per pixel the image is thresholded on luminance into black and
white. At two or more bits per pixel an adaptive palette is built with a
median cut and every pixel is mapped to its nearest palette entry.
*/
package quantize

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	mediancut "github.com/ericpauley/go-quantize/quantize"
)

const (
	// MinBPP is the smallest supported number of bits per pixel
	MinBPP = 1
	// MaxBPP is the largest supported number of bits per pixel
	MaxBPP = 8

	threshold = 127
)

// ErrInvalidBPP is returned when the bits per pixel is outside of MinBPP
// to MaxBPP.
var ErrInvalidBPP = fmt.Errorf("quantize: bits per pixel must be between %d and %d", MinBPP, MaxBPP)

var (
	black = color.RGBA{0x00, 0x00, 0x00, 0xff}
	white = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// Metric selects how the distance between two colors is measured when
// mapping pixels onto the palette.
type Metric int

const (
	// MetricRGB is the squared Euclidean distance in RGB space
	MetricRGB Metric = iota
	// MetricLab is the Euclidean distance in CIE L*a*b* space
	MetricLab
)

var metricNames = map[Metric]string{
	MetricRGB: "rgb",
	MetricLab: "lab",
}

func (m Metric) String() string {
	if s, ok := metricNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// ParseMetric returns the Metric named s.
func ParseMetric(s string) (Metric, error) {
	for m, name := range metricNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, errors.New("quantize: unknown metric " + s)
}

type options struct {
	metric Metric
}

// Option configures Image.
type Option func(*options)

// WithMetric sets the color distance metric used for bpp of 2 or more.
func WithMetric(m Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// Colors returns the palette size for bpp bits per pixel.
func Colors(bpp int) int {
	return 1 << uint(bpp)
}

// Image quantizes m to a paletted image with exactly Colors(bpp) palette
// entries. The returned image always has its origin at (0, 0).
func Image(m image.Image, bpp int, opts ...Option) (*image.Paletted, error) {
	if bpp < MinBPP || bpp > MaxBPP {
		return nil, ErrInvalidBPP
	}

	o := options{metric: MetricRGB}
	for _, opt := range opts {
		opt(&o)
	}

	src := opaque(m)

	if bpp == 1 {
		return Threshold(src), nil
	}

	return Adaptive(src, Colors(bpp), o.metric), nil
}

// Luminance returns the ITU-R 601-2 luma of c on a 0-255 scale. Alpha is
// ignored.
func Luminance(c color.Color) uint8 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return uint8((19595*uint32(n.R) + 38470*uint32(n.G) + 7471*uint32(n.B) + 1<<15) >> 16)
}

// Threshold maps every pixel of m to black (index 0) or white (index 1)
// depending on whether its luminance is above 127.
func Threshold(m image.Image) *image.Paletted {
	b := m.Bounds()
	pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), color.Palette{black, white})

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if Luminance(m.At(x, y)) > threshold {
				pm.SetColorIndex(x-b.Min.X, y-b.Min.Y, 1)
			}
		}
	}

	return pm
}

// Adaptive builds a palette of up to n colors from m with a median cut,
// pads it with black to exactly n entries and maps every pixel to its
// nearest entry using metric.
func Adaptive(m image.Image, n int, metric Metric) *image.Paletted {
	b := m.Bounds()

	var p color.Palette
	if !b.Empty() {
		q := mediancut.MedianCutQuantizer{}
		p = q.Quantize(make(color.Palette, 0, n), m)
	}
	if len(p) > n {
		p = p[:n]
	}
	p = Pad(p, n)

	pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), p)
	r := newRemapper(p, metric)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pm.SetColorIndex(x-b.Min.X, y-b.Min.Y, r.index(m.At(x, y)))
		}
	}

	return pm
}

// Pad pads p with black up to n entries.
func Pad(p color.Palette, n int) color.Palette {
	for len(p) < n {
		p = append(p, black)
	}
	return p
}

// opaque returns a copy of m with straight, fully opaque colors so the
// quantizer never sees premultiplied values.
func opaque(m image.Image) *image.NRGBA {
	b := m.Bounds()
	dst := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			c.A = 0xff
			dst.SetNRGBA(x, y, c)
		}
	}
	return dst
}
