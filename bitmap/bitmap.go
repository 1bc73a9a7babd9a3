/*
Package bitmap implements the indexed bitmap artifact embedded into display
firmware.

A bitmap is described by its width, height and bits per pixel, a palette of
exactly 2^bpp byte-swapped RGB565 words and the packed pixel indices. The
canonical encoding is a small Python module exposing HEIGHT, WIDTH, COLORS,
BITS, BPP, PALETTE and BITMAP constants, which MicroPython display drivers
can import directly. A C header and a raw binary encoding are also
available for other firmware.
*/
package bitmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/bodgit/imgtobitmap/bitstream"
	"github.com/bodgit/imgtobitmap/rgb565"
)

var (
	// ErrUnknownFormat is returned for an unrecognised output format name
	ErrUnknownFormat = errors.New("bitmap: unknown format")
	// ErrInconsistent is returned when the fields of a bitmap disagree
	// with each other
	ErrInconsistent = errors.New("bitmap: inconsistent bitmap")
)

// Bitmap is a packed, indexed image.
type Bitmap struct {
	Width   int
	Height  int
	BPP     int
	Palette []uint16
	Data    []byte
}

// New packs the paletted image m at bpp bits per pixel. The palette is
// truncated or padded with black so that it has exactly 2^bpp entries.
func New(m *image.Paletted, bpp int) (*Bitmap, error) {
	data, err := bitstream.Pack(m, bpp)
	if err != nil {
		return nil, err
	}

	n := 1 << uint(bpp)
	p := m.Palette
	if len(p) > n {
		p = p[:n]
	}

	palette := make([]uint16, n)
	copy(palette, rgb565.Palette(p))

	return &Bitmap{
		Width:   m.Rect.Dx(),
		Height:  m.Rect.Dy(),
		BPP:     bpp,
		Palette: palette,
		Data:    data,
	}, nil
}

// Colors returns the number of palette entries.
func (b *Bitmap) Colors() int {
	return 1 << uint(b.BPP)
}

// Bits returns the number of meaningful bits in Data.
func (b *Bitmap) Bits() int {
	return b.Width * b.Height * b.BPP
}

// Validate checks the fields of b agree with each other.
func (b *Bitmap) Validate() error {
	switch {
	case b.BPP < 1 || b.BPP > 8:
		return fmt.Errorf("%w: bpp %d", ErrInconsistent, b.BPP)
	case b.Width < 0 || b.Height < 0:
		return fmt.Errorf("%w: negative dimensions", ErrInconsistent)
	case b.Width != 0 && b.Height > math.MaxInt/b.Width/b.BPP:
		return fmt.Errorf("%w: dimensions %dx%d too large", ErrInconsistent, b.Width, b.Height)
	case len(b.Palette) != b.Colors():
		return fmt.Errorf("%w: %d palette entries, expected %d", ErrInconsistent, len(b.Palette), b.Colors())
	case len(b.Data) != bitstream.Len(b.Bits()):
		return fmt.Errorf("%w: %d bytes of bitmap, expected %d", ErrInconsistent, len(b.Data), bitstream.Len(b.Bits()))
	}
	return nil
}

// Image unpacks b into a paletted image whose palette holds the RGB565
// colors.
func (b *Bitmap) Image() (*image.Paletted, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	pix, err := bitstream.Unpack(b.Data, b.Width, b.Height, b.BPP)
	if err != nil {
		return nil, err
	}

	p := make(color.Palette, len(b.Palette))
	for i, v := range b.Palette {
		p[i] = rgb565.Decode(v)
	}

	m := image.NewPaletted(image.Rect(0, 0, b.Width, b.Height), p)
	copy(m.Pix, pix)

	return m, nil
}

// Format is an output encoding.
type Format int

const (
	// FormatPython is an importable Python module
	FormatPython Format = iota
	// FormatC is a C header
	FormatC
	// FormatBinary is a raw little-endian blob
	FormatBinary
)

var formats = []struct {
	name string
	ext  string
}{
	FormatPython: {"python", ".py"},
	FormatC:      {"c", ".h"},
	FormatBinary: {"bin", ".bin"},
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formats) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formats[f].name
}

// Extension returns the file extension, including the leading dot.
func (f Format) Extension() string {
	if f < 0 || int(f) >= len(formats) {
		return ""
	}
	return formats[f].ext
}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	for i, f := range formats {
		if strings.EqualFold(s, f.name) {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Encode writes b to w in format f. The name is only used by FormatC to
// prefix the generated identifiers.
func (b *Bitmap) Encode(w io.Writer, f Format, name string) error {
	switch f {
	case FormatPython:
		return b.EncodePython(w)
	case FormatC:
		return b.EncodeC(w, name)
	case FormatBinary:
		data, err := b.MarshalBinary()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("%w: %s", ErrUnknownFormat, f)
}
