package media

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/mediavaultapp/companion-server/internal/domain"
	"github.com/mediavaultapp/companion-server/internal/library"
)

const thumbMaxDim = 480

// Generator renders JPEG thumbnails for still images into a cache directory.
// Video frame extraction needs an external decoder and is not attempted;
// videos fall through to the next tier.
type Generator struct {
	cacheDir string
	logger   *slog.Logger
}

// NewGenerator creates a thumbnail generator writing into cacheDir.
func NewGenerator(cacheDir string, logger *slog.Logger) *Generator {
	return &Generator{cacheDir: cacheDir, logger: logger}
}

var _ library.ThumbnailGenerator = (*Generator)(nil)

// Generate produces a thumbnail for the item and returns its path. Cached
// results are reused across calls.
func (g *Generator) Generate(ctx context.Context, item *domain.MediaItem) (string, error) {
	if item.Type != domain.MediaImage {
		return "", fmt.Errorf("cannot generate thumbnail for %s item %s", item.Type, item.ID)
	}

	out := filepath.Join(g.cacheDir, item.ID+".jpg")
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := decodeImage(item.Path)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", item.ID, err)
	}

	scaled := scaleDown(src, thumbMaxDim)

	if err := os.MkdirAll(g.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create thumbnail cache: %w", err)
	}

	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := jpeg.Encode(f, scaled, &jpeg.Options{Quality: 85}); err != nil {
		os.Remove(out)
		return "", fmt.Errorf("encode thumbnail for %s: %w", item.ID, err)
	}

	g.logger.Debug("Thumbnail generated", "media_id", item.ID, "path", out)
	return out, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// scaleDown fits the image inside a maxDim square, preserving aspect ratio.
// Images already small enough are returned untouched.
func scaleDown(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return src
	}

	if w > h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
