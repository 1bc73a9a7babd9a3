package bitstream

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paletted(w, h, bpp int, pix ...uint8) *image.Paletted {
	m := image.NewPaletted(image.Rect(0, 0, w, h), make(color.Palette, 1<<uint(bpp)))
	copy(m.Pix, pix)
	return m
}

func TestPack(t *testing.T) {
	tables := []struct {
		name string
		m    *image.Paletted
		bpp  int
		want []byte
	}{
		{"empty", paletted(0, 0, 4), 4, []byte{}},
		{"4x1 at 4bpp", paletted(4, 1, 4, 0x1, 0x2, 0x3, 0x4), 4, []byte{0x12, 0x34}},
		{"3x1 at 4bpp", paletted(3, 1, 4, 0xa, 0xb, 0xc), 4, []byte{0xab, 0xc0}},
		{"8x1 at 1bpp", paletted(8, 1, 1, 1, 0, 1, 1, 0, 0, 0, 1), 1, []byte{0xb1}},
		{"3x3 at 1bpp", paletted(3, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1), 1, []byte{0xff, 0x80}},
		{"3x1 at 3bpp", paletted(3, 1, 3, 7, 0, 5), 3, []byte{0xe2, 0x80}},
		{"2x2 at 8bpp", paletted(2, 2, 8, 0x00, 0xff, 0x80, 0x7f), 8, []byte{0x00, 0xff, 0x80, 0x7f}},
		{"rows are not padded", paletted(3, 2, 2, 1, 2, 3, 3, 2, 1), 2, []byte{0x6f, 0x90}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			b, err := Pack(table.m, table.bpp)
			require.NoError(t, err)
			assert.Equal(t, table.want, b)

			bounds := table.m.Bounds()
			assert.Len(t, b, Len(bounds.Dx()*bounds.Dy()*table.bpp))

			pix, err := Unpack(b, bounds.Dx(), bounds.Dy(), table.bpp)
			require.NoError(t, err)
			assert.Equal(t, table.m.Pix, pix)
		})
	}
}

func TestPackOffsetBounds(t *testing.T) {
	m := image.NewPaletted(image.Rect(5, 5, 7, 6), make(color.Palette, 16))
	m.SetColorIndex(5, 5, 0x9)
	m.SetColorIndex(6, 5, 0x6)

	b, err := Pack(m, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x96}, b)
}

func TestPackErrors(t *testing.T) {
	_, err := Pack(paletted(1, 1, 1, 2), 1)
	assert.Equal(t, ErrIndexRange, err)

	_, err = Pack(paletted(1, 1, 1), 0)
	assert.Equal(t, ErrBitWidth, err)

	_, err = Pack(paletted(1, 1, 1), 9)
	assert.Equal(t, ErrBitWidth, err)
}

func TestWriter(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewWriter(buf)

	require.NoError(t, w.WriteBits(0x5, 3))
	require.NoError(t, w.WriteBits(0x1ff, 9))
	assert.Equal(t, []byte{0xbf}, buf.Bytes())

	require.NoError(t, w.Flush())
	require.NoError(t, w.Flush())
	assert.Equal(t, []byte{0xbf, 0xf0}, buf.Bytes())
}

func TestReader(t *testing.T) {
	r := NewReader([]byte{0xbf, 0xf0})

	v, err := r.ReadBits(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x5), v)

	v, err = r.ReadBits(9)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1ff), v)

	v, err = r.ReadBits(4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v)

	_, err = r.ReadBits(1)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestUnpackShort(t *testing.T) {
	_, err := Unpack([]byte{0xff}, 3, 1, 4)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestLen(t *testing.T) {
	assert.Equal(t, 0, Len(0))
	assert.Equal(t, 1, Len(1))
	assert.Equal(t, 1, Len(8))
	assert.Equal(t, 2, Len(9))
	assert.Equal(t, 2, Len(16))
}
