/*
Package rgb565 implements the 16-bit color packing used by small TFT and
OLED display drivers.

Each color is packed as RRRRRGGGGGGBBBBB and the two bytes of the resulting
word are then swapped so that the low byte comes first, matching the byte
order the display drivers expect when the word is copied straight into a
little-endian framebuffer.
*/
package rgb565

import "image/color"

// Pack packs the given channels into an RGB565 word without swapping bytes.
func Pack(r, g, b uint8) uint16 {
	return uint16(r&0xf8)<<8 | uint16(g&0xfc)<<3 | uint16(b>>3)
}

// Swap swaps the two bytes of v.
func Swap(v uint16) uint16 {
	return v<<8 | v>>8
}

// Encode returns the byte-swapped RGB565 word for c. Any alpha is ignored.
func Encode(c color.Color) uint16 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Swap(Pack(n.R, n.G, n.B))
}

// Palette encodes every color in p, in palette order.
func Palette(p color.Palette) []uint16 {
	words := make([]uint16, len(p))
	for i, c := range p {
		words[i] = Encode(c)
	}
	return words
}

// Decode unswaps v and returns it as a Color.
func Decode(v uint16) Color {
	return Color(Swap(v))
}

// Color is an unswapped RGB565 value. It implements the color.Color
// interface.
type Color uint16

// RGBA implements the color.Color interface. Short channels are widened by
// repeating their bit pattern so that all zeroes and all ones map to 0x0000
// and 0xffff respectively.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1f
	g6 := uint32(c>>5) & 0x3f
	b5 := uint32(c) & 0x1f

	r8 := r5<<3 | r5>>2
	g8 := g6<<2 | g6>>4
	b8 := b5<<3 | b5>>2

	return r8 | r8<<8, g8 | g8<<8, b8 | b8<<8, 0xffff
}
