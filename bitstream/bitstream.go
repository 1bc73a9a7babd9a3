/*
Package bitstream packs palette indices into a dense big-endian bitstream
and unpacks them again.

Every pixel contributes exactly bpp bits, most significant bit first, and
pixels are visited row by row, left to right. There is no padding between
rows; only the final byte of the stream is padded with zero bits on the
right if the total number of bits is not a multiple of eight.
*/
package bitstream

import (
	"bytes"
	"errors"
	"image"
	"io"
)

var (
	// ErrBitWidth is returned for bit widths outside of 1 to 8.
	ErrBitWidth = errors.New("bitstream: bit width must be between 1 and 8")
	// ErrIndexRange is returned when a palette index does not fit in the
	// requested bit width.
	ErrIndexRange = errors.New("bitstream: palette index out of range")
)

// Writer writes bit groups to an underlying io.ByteWriter.
type Writer struct {
	w   io.ByteWriter
	acc byte
	n   uint
}

// NewWriter returns a new Writer writing to w.
func NewWriter(w io.ByteWriter) *Writer {
	return &Writer{w: w}
}

// WriteBits writes the low n bits of v, most significant bit first.
func (w *Writer) WriteBits(v uint32, n int) error {
	for i := n - 1; i >= 0; i-- {
		w.acc = w.acc<<1 | byte(v>>uint(i)&1)
		w.n++
		if w.n == 8 {
			if err := w.w.WriteByte(w.acc); err != nil {
				return err
			}
			w.acc, w.n = 0, 0
		}
	}
	return nil
}

// Flush writes out any partial byte, padding the unused low-order bits with
// zeroes.
func (w *Writer) Flush() error {
	if w.n == 0 {
		return nil
	}
	b := w.acc << (8 - w.n)
	w.acc, w.n = 0, 0
	return w.w.WriteByte(b)
}

// Reader reads bit groups from a byte slice.
type Reader struct {
	b   []byte
	off int
}

// NewReader returns a new Reader reading from b.
func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// ReadBits reads n bits, most significant bit first.
func (r *Reader) ReadBits(n int) (uint32, error) {
	var v uint32
	for i := 0; i < n; i++ {
		if r.off>>3 >= len(r.b) {
			return 0, io.ErrUnexpectedEOF
		}
		bit := r.b[r.off>>3] >> (7 - uint(r.off&7)) & 1
		v = v<<1 | uint32(bit)
		r.off++
	}
	return v, nil
}

// Len returns the number of bytes needed to hold bits bits.
func Len(bits int) int {
	return (bits + 7) >> 3
}

// Pack packs every pixel of m at bpp bits per pixel.
func Pack(m *image.Paletted, bpp int) ([]byte, error) {
	if bpp < 1 || bpp > 8 {
		return nil, ErrBitWidth
	}

	b := m.Bounds()
	buf := bytes.NewBuffer(make([]byte, 0, Len(b.Dx()*b.Dy()*bpp)))
	w := NewWriter(buf)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := m.ColorIndexAt(x, y)
			if int(i)>>uint(bpp) != 0 {
				return nil, ErrIndexRange
			}
			if err := w.WriteBits(uint32(i), bpp); err != nil {
				return nil, err
			}
		}
	}

	if err := w.Flush(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Unpack returns the width*height palette indices held in data.
func Unpack(data []byte, width, height, bpp int) ([]uint8, error) {
	if bpp < 1 || bpp > 8 {
		return nil, ErrBitWidth
	}

	pix := make([]uint8, width*height)
	r := NewReader(data)
	for i := range pix {
		v, err := r.ReadBits(bpp)
		if err != nil {
			return nil, err
		}
		pix[i] = uint8(v)
	}
	return pix, nil
}
