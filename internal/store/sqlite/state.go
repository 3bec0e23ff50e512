package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mediavaultapp/companion-server/internal/domain"
	"github.com/mediavaultapp/companion-server/internal/library"
)

var _ library.StateStore = (*Store)(nil)

// SetRating overwrites the rating of an item. Last write wins.
func (s *Store) SetRating(ctx context.Context, mediaID string, rating int, at time.Time) error {
	if err := s.requireMedia(ctx, mediaID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ratings (media_id, rating, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(media_id) DO UPDATE SET rating = excluded.rating, updated_at = excluded.updated_at`,
		mediaID, rating, toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("set rating for %s: %w", mediaID, err)
	}
	return nil
}

// ListRatings returns every rated item.
func (s *Store) ListRatings(ctx context.Context) ([]domain.RatingEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT media_id, rating, updated_at FROM ratings ORDER BY media_id`)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var out []domain.RatingEntry
	for rows.Next() {
		var (
			e  domain.RatingEntry
			ms int64
		)
		if err := rows.Scan(&e.MediaID, &e.Rating, &ms); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		e.UpdatedAt = fromMillis(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordView stores a watch event. Exact duplicates on (media_id, viewed_at)
// are silently dropped; the return value reports whether the row was new.
func (s *Store) RecordView(ctx context.Context, mediaID string, viewedAt time.Time) (bool, error) {
	if err := s.requireMedia(ctx, mediaID); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO views (media_id, viewed_at) VALUES (?, ?)`,
		mediaID, toMillis(viewedAt),
	)
	if err != nil {
		return false, fmt.Errorf("record view for %s: %w", mediaID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MediaStats aggregates rating, view count, last view and marker count for
// one item.
func (s *Store) MediaStats(ctx context.Context, mediaID string) (*domain.MediaStats, error) {
	if err := s.requireMedia(ctx, mediaID); err != nil {
		return nil, err
	}

	stats := &domain.MediaStats{MediaID: mediaID}

	var rating sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT rating FROM ratings WHERE media_id = ?`, mediaID).Scan(&rating)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stats rating for %s: %w", mediaID, err)
	}
	if rating.Valid {
		stats.Rating = int(rating.Int64)
	}

	var last sql.NullInt64
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(viewed_at) FROM views WHERE media_id = ?`, mediaID,
	).Scan(&stats.ViewCount, &last)
	if err != nil {
		return nil, fmt.Errorf("stats views for %s: %w", mediaID, err)
	}
	if last.Valid {
		t := fromMillis(last.Int64)
		stats.LastViewedAt = &t
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM markers WHERE media_id = ?`, mediaID,
	).Scan(&stats.MarkerCount)
	if err != nil {
		return nil, fmt.Errorf("stats markers for %s: %w", mediaID, err)
	}

	return stats, nil
}

// SetFavorite toggles favorite membership. Returns whether stored state
// changed, so replayed batches report zero applied.
func (s *Store) SetFavorite(ctx context.Context, mediaID string, favorite bool, at time.Time) (bool, error) {
	if err := s.requireMedia(ctx, mediaID); err != nil {
		return false, err
	}

	var res sql.Result
	var err error
	if favorite {
		res, err = s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO favorites (media_id, favorited_at) VALUES (?, ?)`,
			mediaID, toMillis(at),
		)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM favorites WHERE media_id = ?`, mediaID)
	}
	if err != nil {
		return false, fmt.Errorf("set favorite for %s: %w", mediaID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListFavorites returns all favorites, most recent first.
func (s *Store) ListFavorites(ctx context.Context) ([]domain.FavoriteEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT media_id, favorited_at FROM favorites ORDER BY favorited_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var out []domain.FavoriteEntry
	for rows.Next() {
		var (
			e  domain.FavoriteEntry
			ms int64
		)
		if err := rows.Scan(&e.MediaID, &ms); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		e.FavoritedAt = fromMillis(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListHistory returns watch events at or after since, newest first. A nil
// since returns everything.
func (s *Store) ListHistory(ctx context.Context, since *time.Time) ([]domain.WatchEvent, error) {
	query := `SELECT media_id, viewed_at FROM views`
	var args []any
	if since != nil {
		query += ` WHERE viewed_at >= ?`
		args = append(args, toMillis(*since))
	}
	query += ` ORDER BY viewed_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []domain.WatchEvent
	for rows.Next() {
		var (
			e  domain.WatchEvent
			ms int64
		)
		if err := rows.Scan(&e.MediaID, &ms); err != nil {
			return nil, fmt.Errorf("scan watch event: %w", err)
		}
		e.ViewedAt = fromMillis(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddMarker stores a bookmark. Markers are additive; no dedup.
func (s *Store) AddMarker(ctx context.Context, m *domain.Marker) error {
	if err := s.requireMedia(ctx, m.MediaID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO markers (id, media_id, time_sec, title, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.MediaID, m.TimeSec, m.Title, toMillis(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("add marker for %s: %w", m.MediaID, err)
	}
	return nil
}

// ListMarkers returns an item's markers ordered by position in the media.
func (s *Store) ListMarkers(ctx context.Context, mediaID string) ([]domain.Marker, error) {
	if err := s.requireMedia(ctx, mediaID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, media_id, time_sec, title, created_at FROM markers WHERE media_id = ? ORDER BY time_sec`,
		mediaID)
	if err != nil {
		return nil, fmt.Errorf("list markers for %s: %w", mediaID, err)
	}
	defer rows.Close()

	var out []domain.Marker
	for rows.Next() {
		var (
			m  domain.Marker
			ms int64
		)
		if err := rows.Scan(&m.ID, &m.MediaID, &m.TimeSec, &m.Title, &ms); err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		m.CreatedAt = fromMillis(ms)
		out = append(out, m)
	}
	return out, rows.Err()
}

// SyncState returns the coarse counters a client compares against its local
// snapshot. LastSync is the newest timestamp across all state tables.
func (s *Store) SyncState(ctx context.Context) (*domain.SyncState, error) {
	state := &domain.SyncState{}

	var newest sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM favorites),
			(SELECT COUNT(*) FROM views),
			(SELECT COUNT(*) FROM ratings),
			(SELECT COUNT(*) FROM markers),
			MAX(
				COALESCE((SELECT MAX(favorited_at) FROM favorites), 0),
				COALESCE((SELECT MAX(viewed_at) FROM views), 0),
				COALESCE((SELECT MAX(updated_at) FROM ratings), 0),
				COALESCE((SELECT MAX(created_at) FROM markers), 0)
			)`,
	).Scan(&state.Favorites, &state.History, &state.Ratings, &state.Markers, &newest)
	if err != nil {
		return nil, fmt.Errorf("sync state: %w", err)
	}
	if newest.Valid && newest.Int64 > 0 {
		state.LastSync = fromMillis(newest.Int64)
	}
	return state, nil
}

// requireMedia verifies the referenced item exists so state writes against
// unknown ids surface as ErrMediaNotFound instead of foreign key noise.
func (s *Store) requireMedia(ctx context.Context, mediaID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM media WHERE id = ?`, mediaID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return library.ErrMediaNotFound
	}
	if err != nil {
		return fmt.Errorf("check media %s: %w", mediaID, err)
	}
	return nil
}
