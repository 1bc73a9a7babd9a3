package imgtobitmap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of conversions Scan runs at once unless told
// otherwise.
const DefaultWorkers = 4

var imageExtensions = map[string]struct{}{
	".bmp":  {},
	".gif":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

func isImage(file string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(file))]
	return ok
}

func (c *Converter) findImages(ctx context.Context, base string, out chan<- string) error {
	defer close(out)
	return filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
		if info.Name()[0] == '.' && file != base {
			if info.Mode().IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Ignore anything that isn't a normal image file
		if !info.Mode().IsRegular() || !isImage(file) {
			return nil
		}

		select {
		case out <- file:
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})
}

func (c *Converter) imageWorker(ctx context.Context, bpp int, in <-chan string, n *int64) error {
	for file := range in {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := c.Convert(file, bpp, "")
		if err != nil {
			return err
		}
		c.logger.Printf("Wrote %s\n", out)
		atomic.AddInt64(n, 1)
	}
	return nil
}

// Scan walks the directory tree rooted at path and converts every image
// found at bpp bits per pixel, writing each artifact next to its source.
// Up to workers conversions run concurrently. It returns the number of
// images converted; the first failure stops the scan.
func (c *Converter) Scan(ctx context.Context, path string, bpp int, workers int) (int, error) {
	if err := checkBPP("scan", path, bpp); err != nil {
		return 0, err
	}
	if workers < 1 {
		workers = DefaultWorkers
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return 0, &Error{Kind: ErrSourceNotFound, Op: "scan", Path: path, Err: err}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return 0, &Error{Kind: ErrSourceNotFound, Op: "scan", Path: path, Err: err}
	}
	if !info.IsDir() {
		return 0, &Error{Kind: ErrSourceNotFound, Op: "scan", Path: path, Err: errNotDirectory}
	}

	g, ctx := errgroup.WithContext(ctx)
	files := make(chan string)

	g.Go(func() error {
		if err := c.findImages(ctx, dir, files); err != nil {
			if err == ctx.Err() {
				return err
			}
			return &Error{Kind: ErrSourceNotFound, Op: "scan", Path: path, Err: err}
		}
		return nil
	})

	var n int64
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return c.imageWorker(ctx, bpp, files, &n)
		})
	}

	err = g.Wait()

	return int(atomic.LoadInt64(&n)), err
}
