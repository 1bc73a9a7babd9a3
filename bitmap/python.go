package bitmap

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const bytesPerSegment = 16

// ErrSyntax is returned when a Python module cannot be parsed.
var ErrSyntax = errors.New("bitmap: syntax error")

// EncodePython writes b as a Python module. The bitmap is written as a
// bytes literal split into segments of 16 bytes, joined with line
// continuations.
func (b *Bitmap) EncodePython(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "HEIGHT = %d\n", b.Height)
	fmt.Fprintf(bw, "WIDTH = %d\n", b.Width)
	fmt.Fprintf(bw, "COLORS = %d\n", b.Colors())
	fmt.Fprintf(bw, "BITS = %d\n", b.Bits())
	fmt.Fprintf(bw, "BPP = %d\n", b.BPP)

	bw.WriteString("PALETTE = [")
	for i, c := range b.Palette {
		if i > 0 {
			bw.WriteByte(',')
		}
		fmt.Fprintf(bw, "0x%04x", c)
	}
	bw.WriteString("]\n\n")

	bw.WriteString("_bitmap = \\\n")
	bw.WriteString("b'")
	for i, c := range b.Data {
		if i > 0 && i%bytesPerSegment == 0 {
			bw.WriteString("'\\\nb'")
		}
		fmt.Fprintf(bw, "\\x%02x", c)
	}
	bw.WriteString("'\n")
	bw.WriteString("BITMAP = memoryview(_bitmap)\n")

	return bw.Flush()
}

type decoder struct {
	s    *bufio.Scanner
	line int

	colors int
	bits   int
	b      Bitmap
}

func (d *decoder) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, d.line, fmt.Sprintf(format, args...))
}

func (d *decoder) next() (string, bool) {
	for d.s.Scan() {
		d.line++
		if line := strings.TrimSpace(d.s.Text()); line != "" {
			return line, true
		}
	}
	return "", false
}

func splitAssignment(line string) (string, string, bool) {
	i := strings.Index(line, "=")
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

func (d *decoder) readInt(name string) (int, error) {
	line, ok := d.next()
	if !ok {
		return 0, d.errorf("missing %s", name)
	}
	k, v, ok := splitAssignment(line)
	if !ok || k != name {
		return 0, d.errorf("expected %s", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, d.errorf("%s: %v", name, err)
	}
	return n, nil
}

func (d *decoder) readHeader() (err error) {
	if d.b.Height, err = d.readInt("HEIGHT"); err != nil {
		return
	}
	if d.b.Width, err = d.readInt("WIDTH"); err != nil {
		return
	}
	if d.colors, err = d.readInt("COLORS"); err != nil {
		return
	}
	if d.bits, err = d.readInt("BITS"); err != nil {
		return
	}
	d.b.BPP, err = d.readInt("BPP")
	return
}

func (d *decoder) readPalette() error {
	line, ok := d.next()
	if !ok {
		return d.errorf("missing PALETTE")
	}
	k, v, ok := splitAssignment(line)
	if !ok || k != "PALETTE" || !strings.HasPrefix(v, "[") || !strings.HasSuffix(v, "]") {
		return d.errorf("expected PALETTE")
	}

	v = strings.TrimSpace(v[1 : len(v)-1])
	if v == "" {
		return nil
	}

	for _, s := range strings.Split(v, ",") {
		c, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
		if err != nil {
			return d.errorf("PALETTE: %v", err)
		}
		d.b.Palette = append(d.b.Palette, uint16(c))
	}
	return nil
}

func (d *decoder) readSegment(s string) error {
	if len(s)%4 != 0 {
		return d.errorf("truncated byte escape")
	}
	for i := 0; i < len(s); i += 4 {
		if s[i:i+2] != `\x` {
			return d.errorf("expected \\x escape")
		}
		c, err := hex.DecodeString(s[i+2 : i+4])
		if err != nil {
			return d.errorf("%v", err)
		}
		d.b.Data = append(d.b.Data, c[0])
	}
	return nil
}

func (d *decoder) readBitmap() error {
	line, ok := d.next()
	if !ok {
		return d.errorf("missing _bitmap")
	}
	if k, v, ok := splitAssignment(line); !ok || k != "_bitmap" || v != `\` {
		return d.errorf("expected _bitmap")
	}

	d.b.Data = []byte{}
	for {
		line, ok := d.next()
		if !ok {
			return d.errorf("unterminated _bitmap")
		}

		more := strings.HasSuffix(line, `\`)
		if more {
			line = strings.TrimSpace(strings.TrimSuffix(line, `\`))
		}

		if !strings.HasPrefix(line, "b'") || !strings.HasSuffix(line, "'") || len(line) < 3 {
			return d.errorf("expected bytes literal")
		}
		if err := d.readSegment(line[2 : len(line)-1]); err != nil {
			return err
		}

		if !more {
			break
		}
	}

	line, ok = d.next()
	if !ok {
		return d.errorf("missing BITMAP")
	}
	if k, v, ok := splitAssignment(line); !ok || k != "BITMAP" || v != "memoryview(_bitmap)" {
		return d.errorf("expected BITMAP")
	}

	if line, ok := d.next(); ok {
		return d.errorf("unexpected %q", line)
	}

	return nil
}

func (d *decoder) decode(r io.Reader) error {
	d.s = bufio.NewScanner(r)
	d.s.Buffer(make([]byte, 0, 4096), 1<<20)

	if err := d.readHeader(); err != nil {
		return err
	}
	if err := d.readPalette(); err != nil {
		return err
	}
	if err := d.readBitmap(); err != nil {
		return err
	}
	if err := d.s.Err(); err != nil {
		return err
	}

	if err := d.b.Validate(); err != nil {
		return err
	}

	switch {
	case d.colors != d.b.Colors():
		return fmt.Errorf("%w: COLORS %d, expected %d", ErrInconsistent, d.colors, d.b.Colors())
	case d.bits != d.b.Bits():
		return fmt.Errorf("%w: BITS %d, expected %d", ErrInconsistent, d.bits, d.b.Bits())
	}

	return nil
}

// DecodePython reads a Python module previously written by EncodePython.
func DecodePython(r io.Reader) (*Bitmap, error) {
	var d decoder
	if err := d.decode(r); err != nil {
		return nil, err
	}
	return &d.b, nil
}
