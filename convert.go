package imgtobitmap

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/imgtobitmap/bitmap"
	"github.com/bodgit/imgtobitmap/quantize"
	"github.com/disintegration/gift"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// OutputPath returns the path an artifact in format f is written to. If
// output is empty it is derived from source, otherwise the extension of
// output is corrected if it doesn't match f.
func OutputPath(source, output string, f bitmap.Format) string {
	ext := f.Extension()
	if output == "" {
		return strings.TrimSuffix(source, filepath.Ext(source)) + ext
	}
	if old := filepath.Ext(output); !strings.EqualFold(old, ext) {
		return strings.TrimSuffix(output, old) + ext
	}
	return output
}

func identifier(path string) string {
	return bitmap.Identifier(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

func checkBPP(op, path string, bpp int) error {
	if bpp < quantize.MinBPP || bpp > quantize.MaxBPP {
		return &Error{Kind: ErrInvalidParameter, Op: op, Path: path, Err: quantize.ErrInvalidBPP}
	}
	return nil
}

// Convert converts the image at source at bpp bits per pixel and writes
// the artifact to output, returning the path actually written. If output
// is empty the artifact is written next to source.
func (c *Converter) Convert(source string, bpp int, output string) (string, error) {
	if err := checkBPP("convert", source, bpp); err != nil {
		return "", err
	}

	info, err := os.Stat(source)
	if err != nil {
		return "", &Error{Kind: ErrSourceNotFound, Op: "convert", Path: source, Err: err}
	}
	if !info.Mode().IsRegular() {
		return "", &Error{Kind: ErrSourceNotFound, Op: "convert", Path: source, Err: errors.New("not a regular file")}
	}

	f, err := os.Open(source)
	if err != nil {
		return "", &Error{Kind: ErrSourceNotFound, Op: "convert", Path: source, Err: err}
	}
	defer f.Close()

	return c.ConvertReader(f, source, bpp, output)
}

// ConvertReader is like Convert but reads the image from r. The name is
// only used to derive the output path when output is empty.
func (c *Converter) ConvertReader(r io.Reader, name string, bpp int, output string) (string, error) {
	if err := checkBPP("convert", name, bpp); err != nil {
		return "", err
	}
	if name == "" && output == "" {
		return "", &Error{Kind: ErrInvalidParameter, Op: "convert", Err: errors.New("no output path")}
	}

	out := OutputPath(name, output, c.format)

	src, err := io.ReadAll(r)
	if err != nil {
		return "", &Error{Kind: ErrSourceNotFound, Op: "convert", Path: name, Err: err}
	}
	sha := fmt.Sprintf("%X", sha1.Sum(src))

	var artifact []byte
	if c.catalog != nil {
		if artifact, err = c.catalog.Lookup(sha, bpp, c.variant(out)); err != nil {
			c.logger.Printf("Catalog lookup for %q failed: %v\n", name, err)
			artifact = nil
		} else if artifact != nil {
			c.logger.Printf("Using cached conversion of %q with SHA1 %s\n", name, sha)
		}
	}

	var m image.Image
	if artifact == nil {
		m, _, err = image.Decode(bytes.NewReader(src))
		if err != nil {
			return "", &Error{Kind: ErrDecode, Op: "convert", Path: name, Err: err}
		}

		b, err := c.Bitmap(m, bpp)
		if err != nil {
			return "", &Error{Kind: ErrInvalidParameter, Op: "convert", Path: name, Err: err}
		}

		buf := new(bytes.Buffer)
		if err := b.Encode(buf, c.format, identifier(out)); err != nil {
			return "", &Error{Kind: ErrWrite, Op: "encode", Path: out, Err: err}
		}
		artifact = buf.Bytes()

		c.logger.Printf("Converted %q: %dx%d, %d colors, %d bits\n", name, b.Width, b.Height, b.Colors(), b.Bits())
	}

	if err := writeFile(out, artifact); err != nil {
		return "", &Error{Kind: ErrWrite, Op: "write", Path: out, Err: err}
	}

	if c.catalog != nil && m != nil {
		b := m.Bounds()
		if err := c.catalog.Store(sha, b.Dx(), b.Dy(), bpp, c.variant(out), out, artifact); err != nil {
			c.logger.Printf("Catalog store for %q failed: %v\n", name, err)
		}
	}

	return out, nil
}

// Bitmap quantizes m to bpp bits per pixel and packs it, after resizing it
// if the Converter was configured to.
func (c *Converter) Bitmap(m image.Image, bpp int) (*bitmap.Bitmap, error) {
	if c.resize != (image.Point{}) {
		g := gift.New(gift.Resize(c.resize.X, c.resize.Y, gift.LanczosResampling))
		dst := image.NewNRGBA(g.Bounds(m.Bounds()))
		g.Draw(dst, m)
		m = dst
	}

	pm, err := quantize.Image(m, bpp, quantize.WithMetric(c.metric))
	if err != nil {
		return nil, err
	}

	return bitmap.New(pm, bpp)
}

func writeFile(name string, data []byte) (err error) {
	if err = os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return
	}

	f, err := os.Create(name)
	if err != nil {
		return
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = f.Write(data)
	return
}
