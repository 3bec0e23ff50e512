package domain

import "time"

// MediaType classifies a vault item.
type MediaType string

// Media types stored in the vault.
const (
	MediaVideo MediaType = "video"
	MediaImage MediaType = "image"
)

// MediaItem is a single entry in the desktop vault's library.
// Path and ThumbPath are local filesystem locations and are never serialized
// to a client; handlers expose a projection instead.
type MediaItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Type        MediaType `json:"type"`
	Path        string    `json:"-"`
	ThumbPath   string    `json:"-"`
	DurationSec float64   `json:"durationSec,omitempty"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	AddedAt     time.Time `json:"addedAt"`
}

// Marker is a timestamped bookmark inside a media item. Markers are purely
// additive; the server never deduplicates them.
type Marker struct {
	ID        string    `json:"id"`
	MediaID   string    `json:"mediaId"`
	TimeSec   float64   `json:"timeSec"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RatingEntry is the current rating of a media item. Ratings are scalar
// overwrites: last write wins, no merge.
type RatingEntry struct {
	MediaID   string    `json:"mediaId"`
	Rating    int       `json:"rating"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WatchEvent records a single viewing of a media item.
type WatchEvent struct {
	MediaID  string    `json:"mediaId"`
	ViewedAt time.Time `json:"viewedAt"`
}

// FavoriteEntry marks a media item as a favorite. Favorites are set
// membership keyed by media ID, so replayed sync batches converge.
type FavoriteEntry struct {
	MediaID     string    `json:"mediaId"`
	FavoritedAt time.Time `json:"favoritedAt"`
}

// MediaStats is the aggregate per-item state reported to clients.
type MediaStats struct {
	MediaID      string     `json:"mediaId"`
	Rating       int        `json:"rating"`
	ViewCount    int        `json:"viewCount"`
	LastViewedAt *time.Time `json:"lastViewedAt,omitempty"`
	MarkerCount  int        `json:"markerCount"`
}

// Playlist is an ordered collection of media items.
type Playlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	MediaIDs  []string  `json:"mediaIds"`
}

// TagCount is a tag with the number of items carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// DownloadJob tracks a URL a device asked the vault to fetch.
type DownloadJob struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requestedAt"`
}

// SyncState is the coarse snapshot a mobile client uses to decide whether a
// full resync is warranted. It carries no mutation semantics.
type SyncState struct {
	LastSync  time.Time `json:"lastSync"`
	Favorites int       `json:"favorites"`
	History   int       `json:"history"`
	Ratings   int       `json:"ratings"`
	Markers   int       `json:"markers"`
}
