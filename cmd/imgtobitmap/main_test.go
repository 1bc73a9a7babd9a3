package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bodgit/imgtobitmap/bitmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.OsExiter = func(int) {}
}

func writeImage(t *testing.T, file string) string {
	t.Helper()

	m := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			m.Set(x, y, color.RGBA{uint8(x * 40), uint8(y * 60), 0x80, 0xff})
		}
	}

	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, m))

	return file
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	app := newApp()
	app.Writer = out
	app.ErrWriter = new(bytes.Buffer)

	err := app.Run(append([]string{"imgtobitmap"}, args...))

	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	source := writeImage(t, filepath.Join(dir, "logo.png"))

	out, err := run(t, "convert", source, "4")
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+filepath.Join(dir, "logo.py")+"\n", out)

	f, err := os.Open(filepath.Join(dir, "logo.py"))
	require.NoError(t, err)
	defer f.Close()

	b, err := bitmap.DecodePython(f)
	require.NoError(t, err)
	assert.Equal(t, 6, b.Width)
	assert.Equal(t, 4, b.BPP)

	output := filepath.Join(dir, "out", "logo.bin")
	out, err = run(t, "--format", "bin", "convert", "-o", output, source, "2")
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+output+"\n", out)
	assert.FileExists(t, output)

	_, err = run(t, "convert", source, "9")
	assert.Error(t, err)

	_, err = run(t, "--format", "jpeg", "convert", source, "1")
	assert.Error(t, err)

	_, err = run(t, "convert", filepath.Join(dir, "missing.png"), "1")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	source := writeImage(t, filepath.Join(dir, "logo.png"))
	config := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(config, []byte("format: c\nmetric: lab\nresize: 3x\n"), 0644))

	out, err := run(t, "--config", config, "convert", source, "2")
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+filepath.Join(dir, "logo.h")+"\n", out)

	b, err := os.ReadFile(filepath.Join(dir, "logo.h"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "#define LOGO_WIDTH 3\n")
	assert.Contains(t, string(b), "#define LOGO_HEIGHT 2\n")

	// Flags given on the command line win over the configuration file
	out, err = run(t, "--config", config, "--format", "python", "convert", source, "2")
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+filepath.Join(dir, "logo.py")+"\n", out)
}

func TestScanCommand(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.png"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "b"), 0755))
	writeImage(t, filepath.Join(dir, "b", "c.png"))

	out, err := run(t, "scan", "--workers", "1", dir, "1")
	require.NoError(t, err)
	assert.Equal(t, "Converted 2 images\n", out)
	assert.FileExists(t, filepath.Join(dir, "b", "c.py"))
}

func TestPreviewCommand(t *testing.T) {
	dir := t.TempDir()
	source := writeImage(t, filepath.Join(dir, "logo.png"))

	for _, format := range []string{"python", "bin"} {
		t.Run(format, func(t *testing.T) {
			_, err := run(t, "--format", format, "convert", source, "3")
			require.NoError(t, err)

			f, err := bitmap.ParseFormat(format)
			require.NoError(t, err)

			preview := filepath.Join(dir, format+".png")
			out, err := run(t, "preview", filepath.Join(dir, "logo"+f.Extension()), preview)
			require.NoError(t, err)
			assert.Equal(t, "Wrote "+preview+"\n", out)

			r, err := os.Open(preview)
			require.NoError(t, err)
			defer r.Close()

			m, err := png.Decode(r)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 6, 4), m.Bounds())
		})
	}

	_, err := run(t, "--format", "c", "convert", source, "3")
	require.NoError(t, err)

	_, err = run(t, "preview", filepath.Join(dir, "logo.h"), filepath.Join(dir, "c.png"))
	assert.Error(t, err)
}

func TestCatalogCommand(t *testing.T) {
	dir := t.TempDir()
	source := writeImage(t, filepath.Join(dir, "logo.png"))
	db := filepath.Join(dir, "catalog.db")

	_, err := run(t, "catalog")
	assert.Error(t, err)

	_, err = run(t, "--db", db, "convert", source, "1")
	require.NoError(t, err)
	_, err = run(t, "--db", db, "convert", source, "5")
	require.NoError(t, err)

	out, err := run(t, "--db", db, "catalog")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], " 6x4 1bpp python/rgb/0x0 "+filepath.Join(dir, "logo.py"))
	assert.Contains(t, lines[1], " 6x4 5bpp python/rgb/0x0 ")
}

func TestParseResize(t *testing.T) {
	tables := []struct {
		s             string
		width, height int
		err           bool
	}{
		{"", 0, 0, false},
		{"128x64", 128, 64, false},
		{"128X64", 128, 64, false},
		{"128x", 128, 0, false},
		{"x64", 0, 64, false},
		{"128", 0, 0, true},
		{"-1x64", 0, 0, true},
		{"axb", 0, 0, true},
	}

	for _, table := range tables {
		t.Run(table.s, func(t *testing.T) {
			width, height, err := parseResize(table.s)
			if table.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, table.width, width)
			assert.Equal(t, table.height, height)
		})
	}
}

func TestParseBPP(t *testing.T) {
	for _, s := range []string{"0", "9", "-1", "four", ""} {
		_, err := parseBPP(s)
		assert.Error(t, err, s)
	}

	for i, s := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		bpp, err := parseBPP(s)
		require.NoError(t, err)
		assert.Equal(t, i+1, bpp)
	}
}
