package bitmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/bodgit/imgtobitmap/bitstream"
)

var magic = [4]byte{'I', 'B', 'M', 'P'}

var (
	errNotEnough = errors.New("bitmap: not enough data")
	errTooMuch   = errors.New("bitmap: too much data")
	errBadMagic  = errors.New("bitmap: bad magic")
	errTooLarge  = errors.New("bitmap: dimensions too large")
)

type header struct {
	Magic  [4]byte
	Width  uint16
	Height uint16
	BPP    uint8
}

// MarshalBinary encodes b as the magic "IBMP", then the width and height
// as little-endian 16-bit values, a single bpp byte, the palette words and
// finally the packed bitmap.
func (b *Bitmap) MarshalBinary() ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.Width > math.MaxUint16 || b.Height > math.MaxUint16 {
		return nil, errTooLarge
	}

	buf := new(bytes.Buffer)

	h := header{
		Magic:  magic,
		Width:  uint16(b.Width),
		Height: uint16(b.Height),
		BPP:    uint8(b.BPP),
	}
	if err := binary.Write(buf, binary.LittleEndian, &h); err != nil {
		return nil, err
	}

	if err := binary.Write(buf, binary.LittleEndian, b.Palette); err != nil {
		return nil, err
	}

	if _, err := buf.Write(b.Data); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary decodes b from the form written by MarshalBinary.
func (b *Bitmap) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errNotEnough
		}
		return err
	}
	if h.Magic != magic {
		return errBadMagic
	}

	n := Bitmap{
		Width:  int(h.Width),
		Height: int(h.Height),
		BPP:    int(h.BPP),
	}
	if n.BPP < 1 || n.BPP > 8 {
		return n.Validate()
	}

	n.Palette = make([]uint16, n.Colors())
	if err := binary.Read(r, binary.LittleEndian, n.Palette); err != nil {
		return errNotEnough
	}

	n.Data = make([]byte, bitstream.Len(n.Bits()))
	if _, err := io.ReadFull(r, n.Data); err != nil {
		return errNotEnough
	}

	if r.Len() > 0 {
		return errTooMuch
	}

	*b = n

	return nil
}
