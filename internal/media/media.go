// Package media prepares image archives for upload.
//
// [Compressor] rewrites every image inside a zip archive so that neither side exceeds a maximum dimension,
// re-encoding with the configured JPEG quality. Entries that are not images are copied unchanged.
package media

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vgen/internal/shared"
	"github.com/disintegration/imaging"
)

const (
	DefaultMaxDimension = 1920
	DefaultJPEGQuality  = 85
)

// Options controls image re-encoding.
type Options struct {
	MaxDimension int
	JPEGQuality  int // 1-100
}

// Stats summarizes one compression pass.
type Stats struct {
	Images    int
	Resized   int
	Copied    int
	InputSize int64
	Output    int64
}

// Compressor shrinks images inside zip archives.
type Compressor struct {
	opts   Options
	logger *log.Logger
}

// NewCompressor creates a Compressor. Zero options fall back to the defaults.
func NewCompressor(opts Options, logger *log.Logger) *Compressor {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = DefaultJPEGQuality
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Compressor{opts: opts, logger: shared.WithLogger(logger, "component", "media")}
}

// Compress writes a compressed copy of archivePath to a temporary file.
// cleanup removes the temporary file and is safe to call more than once.
func (c *Compressor) Compress(ctx context.Context, archivePath string) (string, func(), error) {
	out, err := os.CreateTemp("", "vgen-images-*.zip")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp archive: %w", err)
	}
	path := out.Name()
	cleanup := func() { os.Remove(path) }

	stats, err := c.CompressTo(ctx, archivePath, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close temp archive: %w", cerr)
	}
	if err != nil {
		cleanup()
		return "", nil, err
	}

	c.logger.Info("compressed image archive",
		"images", stats.Images,
		"resized", stats.Resized,
		"copied", stats.Copied,
		"before", stats.InputSize,
		"after", stats.Output,
	)
	return path, cleanup, nil
}

// CompressTo reads the archive at archivePath and writes the rewritten archive to w.
func (c *Compressor) CompressTo(ctx context.Context, archivePath string, w io.Writer) (Stats, error) {
	var stats Stats

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return stats, fmt.Errorf("%w: failed to open archive: %w", shared.ErrInvalidArgument, err)
	}
	defer reader.Close()

	counter := &countingWriter{w: w}
	zw := zip.NewWriter(counter)

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if file.FileInfo().IsDir() {
			continue
		}
		stats.InputSize += int64(file.CompressedSize64)

		format, isImage := imageFormat(file.Name)
		if !isImage {
			if err := zw.Copy(file); err != nil {
				return stats, fmt.Errorf("failed to copy %s: %w", file.Name, err)
			}
			stats.Copied++
			continue
		}

		resized, err := c.rewrite(zw, file, format)
		if err != nil {
			return stats, err
		}
		stats.Images++
		if resized {
			stats.Resized++
		}
	}

	if err := zw.Close(); err != nil {
		return stats, fmt.Errorf("failed to finish archive: %w", err)
	}
	stats.Output = counter.n
	return stats, nil
}

func (c *Compressor) rewrite(zw *zip.Writer, file *zip.File, format imaging.Format) (bool, error) {
	rc, err := file.Open()
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer rc.Close()

	img, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", file.Name, err)
	}

	resized := false
	bounds := img.Bounds()
	if bounds.Dx() > c.opts.MaxDimension || bounds.Dy() > c.opts.MaxDimension {
		img = imaging.Fit(img, c.opts.MaxDimension, c.opts.MaxDimension, imaging.Lanczos)
		resized = true
	}

	header := &zip.FileHeader{
		Name:     file.Name,
		Method:   zip.Deflate,
		Modified: file.Modified,
	}
	dst, err := zw.CreateHeader(header)
	if err != nil {
		return false, fmt.Errorf("failed to add %s: %w", file.Name, err)
	}
	if err := imaging.Encode(dst, img, format, imaging.JPEGQuality(c.opts.JPEGQuality)); err != nil {
		return false, fmt.Errorf("failed to encode %s: %w", file.Name, err)
	}

	c.logger.Debug("rewrote image", "name", file.Name, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return resized, nil
}

// imageFormat reports the encoder for names imaging can round-trip. Hidden files are never images.
func imageFormat(name string) (imaging.Format, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(name, "__MACOSX/") {
		return 0, false
	}
	format, err := imaging.FormatFromFilename(base)
	if err != nil {
		return 0, false
	}
	switch format {
	case imaging.JPEG, imaging.PNG:
		return format, true
	default:
		return 0, false
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
