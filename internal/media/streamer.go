// Package media serves vault file content to paired devices: byte-range
// streaming of originals and the tiered thumbnail fallback. It never exposes
// filesystem paths on the wire.
package media

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/mediavaultapp/companion-server/internal/domain"
	"github.com/mediavaultapp/companion-server/internal/library"
)

// Streamer serves media file bytes over HTTP.
type Streamer struct {
	logger *slog.Logger
}

// NewStreamer creates a media streamer.
func NewStreamer(logger *slog.Logger) *Streamer {
	return &Streamer{logger: logger}
}

// ServeMedia streams the item's file, honoring Range requests. Partial
// requests get 206 with Content-Range; full requests get 200 with
// Accept-Ranges advertised. A library row whose file has gone missing on disk
// maps to ErrMediaNotFound so the handler can answer 404 rather than 500.
func (s *Streamer) ServeMedia(w http.ResponseWriter, r *http.Request, item *domain.MediaItem) error {
	return s.serveFile(w, r, item.Path, ContentType(item.Path))
}

func (s *Streamer) serveFile(w http.ResponseWriter, r *http.Request, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return library.ErrMediaNotFound
		}
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, "", info.ModTime(), f)
	return nil
}

// Thumbnails resolves and serves item thumbnails with a tiered fallback:
// a pre-rendered thumbnail file, then on-demand generation, then for still
// images the original bytes.
type Thumbnails struct {
	streamer  *Streamer
	generator library.ThumbnailGenerator
	logger    *slog.Logger
}

// NewThumbnails creates a thumbnail resolver. The generator may be nil, which
// disables tier two.
func NewThumbnails(streamer *Streamer, generator library.ThumbnailGenerator, logger *slog.Logger) *Thumbnails {
	return &Thumbnails{streamer: streamer, generator: generator, logger: logger}
}

// ServeThumb writes the best available thumbnail for the item, or returns
// ErrThumbNotFound when every tier comes up empty.
func (t *Thumbnails) ServeThumb(ctx context.Context, w http.ResponseWriter, r *http.Request, item *domain.MediaItem) error {
	if item.ThumbPath != "" {
		if _, err := os.Stat(item.ThumbPath); err == nil {
			return t.streamer.serveFile(w, r, item.ThumbPath, ContentType(item.ThumbPath))
		}
	}

	if t.generator != nil {
		path, err := t.generator.Generate(ctx, item)
		if err == nil {
			return t.streamer.serveFile(w, r, path, ContentType(path))
		}
		t.logger.Debug("Thumbnail generation failed", "media_id", item.ID, "error", err)
	}

	// A still image is its own thumbnail of last resort.
	if item.Type == domain.MediaImage {
		if _, err := os.Stat(item.Path); err == nil {
			return t.streamer.serveFile(w, r, item.Path, ContentType(item.Path))
		}
	}

	return library.ErrThumbNotFound
}
