package bitmap

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

const wordsPerLine = 8

// Identifier turns s into a valid lowercase C identifier.
func Identifier(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	id := sb.String()
	switch {
	case id == "":
		return "bitmap"
	case id[0] >= '0' && id[0] <= '9':
		return "_" + id
	}
	return id
}

// EncodeC writes b as a C header. Every identifier is prefixed with name.
func (b *Bitmap) EncodeC(w io.Writer, name string) error {
	lower := Identifier(name)
	upper := strings.ToUpper(lower)

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "#ifndef %s_H\n", upper)
	fmt.Fprintf(bw, "#define %s_H\n\n", upper)
	bw.WriteString("#include <stdint.h>\n\n")

	fmt.Fprintf(bw, "#define %s_HEIGHT %d\n", upper, b.Height)
	fmt.Fprintf(bw, "#define %s_WIDTH %d\n", upper, b.Width)
	fmt.Fprintf(bw, "#define %s_COLORS %d\n", upper, b.Colors())
	fmt.Fprintf(bw, "#define %s_BITS %d\n", upper, b.Bits())
	fmt.Fprintf(bw, "#define %s_BPP %d\n\n", upper, b.BPP)

	fmt.Fprintf(bw, "static const uint16_t %s_palette[%s_COLORS] = {", lower, upper)
	for i, c := range b.Palette {
		if i%wordsPerLine == 0 {
			bw.WriteString("\n\t")
		} else {
			bw.WriteByte(' ')
		}
		fmt.Fprintf(bw, "0x%04x,", c)
	}
	bw.WriteString("\n};\n\n")

	// Empty initialisers are not valid C so a zero-length bitmap still
	// gets a single padding byte
	data := b.Data
	if len(data) == 0 {
		data = []byte{0x00}
	}

	fmt.Fprintf(bw, "static const uint8_t %s_bitmap[%d] = {", lower, len(data))
	for i, c := range data {
		if i%bytesPerSegment == 0 {
			bw.WriteString("\n\t")
		} else {
			bw.WriteByte(' ')
		}
		fmt.Fprintf(bw, "0x%02x,", c)
	}
	bw.WriteString("\n};\n\n")

	fmt.Fprintf(bw, "#endif /* %s_H */\n", upper)

	return bw.Flush()
}
