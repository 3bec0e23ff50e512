// Package library defines the collaborator interfaces the sync server core
// depends on. The desktop vault's SQLite store satisfies them in production;
// tests substitute fakes. Keeping the core behind capability interfaces turns
// "might be nil" collaborator checks into explicit NotConfigured errors at
// the handler boundary.
package library

import (
	"context"
	"errors"
	"time"

	"github.com/mediavaultapp/companion-server/internal/domain"
)

// Sentinel errors shared by collaborator implementations.
var (
	ErrMediaNotFound    = errors.New("media not found")
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrThumbNotFound    = errors.New("thumbnail not found")
)

// Sort orders accepted by ListMedia.
const (
	SortAdded = "added"
	SortTitle = "title"
)

// ListQuery carries the filters of a library listing request.
type ListQuery struct {
	Page   int
	Limit  int
	Type   domain.MediaType
	Tags   []string
	Search string
	Sort   string
}

// Page is one page of a library listing.
type Page struct {
	Items []*domain.MediaItem
	Total int
	Page  int
	Limit int
}

// Library is the read side of the media library.
type Library interface {
	ListMedia(ctx context.Context, q ListQuery) (*Page, error)
	GetMedia(ctx context.Context, mediaID string) (*domain.MediaItem, error)
	ListTags(ctx context.Context) ([]domain.TagCount, error)
}

// StateStore holds the mutable per-item state the companion synchronizes:
// ratings, views, favorites, watch history and markers.
type StateStore interface {
	// SetRating overwrites the scalar rating of an item (last write wins).
	SetRating(ctx context.Context, mediaID string, rating int, at time.Time) error
	ListRatings(ctx context.Context) ([]domain.RatingEntry, error)

	// RecordView adds a watch event. Exact (mediaID, viewedAt) duplicates
	// are dropped so a retried sync batch cannot double-count views; the
	// return value reports whether the event was actually applied.
	RecordView(ctx context.Context, mediaID string, viewedAt time.Time) (bool, error)
	MediaStats(ctx context.Context, mediaID string) (*domain.MediaStats, error)

	// SetFavorite toggles set membership; replays converge to the same
	// boolean state. Returns whether the stored state changed.
	SetFavorite(ctx context.Context, mediaID string, favorite bool, at time.Time) (bool, error)
	ListFavorites(ctx context.Context) ([]domain.FavoriteEntry, error)

	// ListHistory returns watch events with viewedAt >= since; a nil since
	// returns the full history.
	ListHistory(ctx context.Context, since *time.Time) ([]domain.WatchEvent, error)

	// AddMarker is purely additive; duplicates are a client UX concern.
	AddMarker(ctx context.Context, m *domain.Marker) error
	ListMarkers(ctx context.Context, mediaID string) ([]domain.Marker, error)

	SyncState(ctx context.Context) (*domain.SyncState, error)
}

// PlaylistStore exposes the vault's playlists.
type PlaylistStore interface {
	ListPlaylists(ctx context.Context) ([]domain.Playlist, error)
	GetPlaylist(ctx context.Context, playlistID string) (*domain.Playlist, error)
	// AddPlaylistItems appends the given media ids, skipping ids already in
	// the playlist, and returns the number actually added.
	AddPlaylistItems(ctx context.Context, playlistID string, mediaIDs []string) (int, error)
}

// DownloadQueue accepts URLs a device asks the vault to fetch.
type DownloadQueue interface {
	Enqueue(ctx context.Context, url string) (*domain.DownloadJob, error)
}

// ThumbnailGenerator produces a thumbnail for an item on demand, returning
// the path of the generated file.
type ThumbnailGenerator interface {
	Generate(ctx context.Context, item *domain.MediaItem) (string, error)
}
