package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mediavaultapp/companion-server/internal/domain"
	"github.com/mediavaultapp/companion-server/internal/library"
)

var _ library.PlaylistStore = (*Store)(nil)

// CreatePlaylist adds an empty playlist. Used by the desktop app and tests.
func (s *Store) CreatePlaylist(ctx context.Context, p *domain.Playlist) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO playlists (id, name, created_at) VALUES (?, ?, ?)`,
		p.ID, p.Name, toMillis(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create playlist %s: %w", p.ID, err)
	}
	return nil
}

// ListPlaylists returns every playlist with its member ids.
func (s *Store) ListPlaylists(ctx context.Context) ([]domain.Playlist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM playlists ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	var out []domain.Playlist
	for rows.Next() {
		var (
			p  domain.Playlist
			ms int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &ms); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		p.CreatedAt = fromMillis(ms)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		ids, err := s.playlistMembers(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].MediaIDs = ids
	}
	return out, nil
}

// GetPlaylist fetches a single playlist with its member ids.
func (s *Store) GetPlaylist(ctx context.Context, playlistID string) (*domain.Playlist, error) {
	var (
		p  domain.Playlist
		ms int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM playlists WHERE id = ?`, playlistID,
	).Scan(&p.ID, &p.Name, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, library.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get playlist %s: %w", playlistID, err)
	}
	p.CreatedAt = fromMillis(ms)

	ids, err := s.playlistMembers(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	p.MediaIDs = ids
	return &p, nil
}

// AddPlaylistItems appends the given media ids, skipping members already
// present and ids unknown to the library. Returns the number added.
func (s *Store) AddPlaylistItems(ctx context.Context, playlistID string, mediaIDs []string) (int, error) {
	if _, err := s.GetPlaylist(ctx, playlistID); err != nil {
		return 0, err
	}

	var next int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM playlist_items WHERE playlist_id = ?`,
		playlistID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("playlist position for %s: %w", playlistID, err)
	}

	added := 0
	for _, mediaID := range mediaIDs {
		if err := s.requireMedia(ctx, mediaID); err != nil {
			if errors.Is(err, library.ErrMediaNotFound) {
				continue
			}
			return added, err
		}
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO playlist_items (playlist_id, media_id, position) VALUES (?, ?, ?)`,
			playlistID, mediaID, next,
		)
		if err != nil {
			return added, fmt.Errorf("add playlist item %s: %w", mediaID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return added, err
		}
		if n > 0 {
			added++
			next++
		}
	}
	return added, nil
}

func (s *Store) playlistMembers(ctx context.Context, playlistID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT media_id FROM playlist_items WHERE playlist_id = ? ORDER BY position`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("playlist members for %s: %w", playlistID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan playlist member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
