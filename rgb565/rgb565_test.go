package rgb565

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPack(t *testing.T) {
	tables := []struct {
		r, g, b uint8
		packed  uint16
		swapped uint16
	}{
		{248, 252, 255, 0xffff, 0xffff},
		{255, 255, 255, 0xffff, 0xffff},
		{248, 0, 0, 0xf800, 0x00f8},
		{0, 252, 0, 0x07e0, 0xe007},
		{0, 0, 248, 0x001f, 0x1f00},
		{0, 0, 0, 0x0000, 0x0000},
		{7, 3, 7, 0x0000, 0x0000},
		{0x12, 0x34, 0x56, 0x11aa, 0xaa11},
	}

	for _, table := range tables {
		packed := Pack(table.r, table.g, table.b)
		assert.Equal(t, table.packed, packed)
		assert.Equal(t, table.swapped, Swap(packed))
		assert.Equal(t, table.swapped, Encode(color.RGBA{table.r, table.g, table.b, 0xff}))
	}
}

func TestEncodeIgnoresAlpha(t *testing.T) {
	assert.Equal(t, uint16(0x00f8), Encode(color.NRGBA{0xff, 0x00, 0x00, 0x80}))
}

func TestPalette(t *testing.T) {
	p := color.Palette{
		color.RGBA{0x00, 0x00, 0x00, 0xff},
		color.RGBA{0xff, 0xff, 0xff, 0xff},
		color.RGBA{0xff, 0x00, 0x00, 0xff},
	}
	assert.Equal(t, []uint16{0x0000, 0xffff, 0x00f8}, Palette(p))
}

func TestDecode(t *testing.T) {
	for _, c := range []color.RGBA{
		{0x00, 0x00, 0x00, 0xff},
		{0xff, 0xff, 0xff, 0xff},
		{0xf8, 0x00, 0x00, 0xff},
		{0x10, 0x84, 0x20, 0xff},
	} {
		v := Encode(c)
		d := Decode(v)
		assert.Equal(t, v, Encode(d))
	}

	r, g, b, a := Decode(0xffff).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0xffff, 0xffff, 0xffff}, [4]uint32{r, g, b, a})

	r, g, b, _ = Decode(0x00f8).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b})
}
