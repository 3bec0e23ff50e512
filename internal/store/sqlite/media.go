package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mediavaultapp/companion-server/internal/domain"
	"github.com/mediavaultapp/companion-server/internal/library"
)

var _ library.Library = (*Store)(nil)

// InsertMedia adds an item to the library. Used by the desktop importer and
// by tests to seed a vault.
func (s *Store) InsertMedia(ctx context.Context, item *domain.MediaItem) error {
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO media (id, title, type, path, thumb_path, duration_sec, width, height, tags, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Title, string(item.Type), item.Path, item.ThumbPath,
		item.DurationSec, item.Width, item.Height, string(tags), toMillis(item.AddedAt),
	)
	if err != nil {
		return fmt.Errorf("insert media %s: %w", item.ID, err)
	}
	return nil
}

// GetMedia fetches a single item by id.
func (s *Store) GetMedia(ctx context.Context, mediaID string) (*domain.MediaItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, type, path, thumb_path, duration_sec, width, height, tags, added_at
		FROM media WHERE id = ?`, mediaID)

	item, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, library.ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media %s: %w", mediaID, err)
	}
	return item, nil
}

// ListMedia returns one page of the library matching the query. Filtering on
// tags and search happens in Go after a single ordered scan; a personal vault
// is small enough that this beats maintaining FTS machinery.
func (s *Store) ListMedia(ctx context.Context, q library.ListQuery) (*library.Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 200 {
		q.Limit = 50
	}

	order := "added_at DESC"
	if q.Sort == library.SortTitle {
		order = "title COLLATE NOCASE ASC"
	}

	query := `
		SELECT id, title, type, path, thumb_path, duration_sec, width, height, tags, added_at
		FROM media`
	var args []any
	if q.Type != "" {
		query += " WHERE type = ?"
		args = append(args, string(q.Type))
	}
	query += " ORDER BY " + order

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var all []*domain.MediaItem
	for rows.Next() {
		item, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		if !matchesFilters(item, q) {
			continue
		}
		all = append(all, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}

	total := len(all)
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	return &library.Page{
		Items: all[start:end],
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}

// ListTags aggregates tag usage across the library.
func (s *Store) ListTags(ctx context.Context) ([]domain.TagCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM media`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan tags: %w", err)
		}
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			continue
		}
		for _, tag := range tags {
			counts[tag]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	out := make([]domain.TagCount, 0, len(counts))
	for tag, count := range counts {
		out = append(out, domain.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedia(row rowScanner) (*domain.MediaItem, error) {
	var (
		item    domain.MediaItem
		mtype   string
		tags    string
		addedAt int64
	)
	err := row.Scan(&item.ID, &item.Title, &mtype, &item.Path, &item.ThumbPath,
		&item.DurationSec, &item.Width, &item.Height, &tags, &addedAt)
	if err != nil {
		return nil, err
	}
	item.Type = domain.MediaType(mtype)
	item.AddedAt = fromMillis(addedAt)
	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
		item.Tags = nil
	}
	return &item, nil
}

func matchesFilters(item *domain.MediaItem, q library.ListQuery) bool {
	if q.Search != "" && !strings.Contains(strings.ToLower(item.Title), strings.ToLower(q.Search)) {
		return false
	}
	for _, want := range q.Tags {
		found := false
		for _, have := range item.Tags {
			if strings.EqualFold(have, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
