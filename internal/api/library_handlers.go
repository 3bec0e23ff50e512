package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mediavaultapp/companion-server/internal/domain"
	"github.com/mediavaultapp/companion-server/internal/http/response"
	"github.com/mediavaultapp/companion-server/internal/library"
)

// mediaProjection is the client view of a library item. Filesystem paths
// never appear on the wire; hasThumb tells the client whether fetching the
// thumbnail is worthwhile.
type mediaProjection struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Type        domain.MediaType `json:"type"`
	DurationSec float64          `json:"durationSec,omitempty"`
	Width       int              `json:"width,omitempty"`
	Height      int              `json:"height,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	AddedAt     time.Time        `json:"addedAt"`
	HasThumb    bool             `json:"hasThumb"`
}

func projectMedia(item *domain.MediaItem) mediaProjection {
	return mediaProjection{
		ID:          item.ID,
		Title:       item.Title,
		Type:        item.Type,
		DurationSec: item.DurationSec,
		Width:       item.Width,
		Height:      item.Height,
		Tags:        item.Tags,
		AddedAt:     item.AddedAt.UTC(),
		HasThumb:    item.ThumbPath != "" || item.Type == domain.MediaImage,
	}
}

// handleListLibrary returns one page of the library.
func (s *Server) handleListLibrary(w http.ResponseWriter, r *http.Request) {
	if s.services.Library == nil {
		s.notConfigured(w, "Media library")
		return
	}

	q := library.ListQuery{Sort: r.URL.Query().Get("sort")}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		q.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		q.Limit = limit
	}
	if t := r.URL.Query().Get("type"); t != "" {
		q.Type = domain.MediaType(t)
	}
	if tags := r.URL.Query().Get("tags"); tags != "" {
		q.Tags = strings.Split(tags, ",")
	}
	q.Search = r.URL.Query().Get("search")

	page, err := s.services.Library.ListMedia(r.Context(), q)
	if err != nil {
		s.respondError(w, err)
		return
	}

	items := make([]mediaProjection, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, projectMedia(item))
	}

	response.Success(w, map[string]any{
		"items": items,
		"total": page.Total,
		"page":  page.Page,
		"limit": page.Limit,
	}, s.logger)
}

// handleGetMedia returns the projection of a single item.
func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	if s.services.Library == nil {
		s.notConfigured(w, "Media library")
		return
	}

	item, err := s.services.Library.GetMedia(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	response.Success(w, projectMedia(item), s.logger)
}

// handleListTags returns tag usage across the library.
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	if s.services.Library == nil {
		s.notConfigured(w, "Media library")
		return
	}

	tags, err := s.services.Library.ListTags(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	response.Success(w, map[string]any{"tags": tags}, s.logger)
}
