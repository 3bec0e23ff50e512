package api

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mediavaultapp/companion-server/internal/domain"
	"github.com/mediavaultapp/companion-server/internal/download"
	"github.com/mediavaultapp/companion-server/internal/media"
	"github.com/mediavaultapp/companion-server/internal/pairing"
	"github.com/mediavaultapp/companion-server/internal/registry"
	"github.com/mediavaultapp/companion-server/internal/store/sqlite"
	"github.com/mediavaultapp/companion-server/internal/validation"
)

// testEnv bundles a fully wired server against a temporary vault.
type testEnv struct {
	server  *Server
	store   *sqlite.Store
	reg     *registry.Registry
	pairing *pairing.Manager
	dataDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	dataDir := t.TempDir()

	store, err := sqlite.Open(filepath.Join(dataDir, "library.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := registry.New(filepath.Join(dataDir, "devices.json"), logger)
	pairingManager := pairing.NewManager(reg, pairing.Config{
		ServerName: "Test Vault",
		Version:    ServerVersion,
		Port:       8765,
	}, logger)

	streamer := media.NewStreamer(logger)
	thumbnails := media.NewThumbnails(streamer, media.NewGenerator(filepath.Join(dataDir, "thumbs"), logger), logger)
	queue := download.NewQueue(nil, logger)
	t.Cleanup(func() { queue.Shutdown() })

	server := NewServer(Services{
		ServerName: "Test Vault",
		Registry:   reg,
		Pairing:    pairingManager,
		Library:    store,
		State:      store,
		Playlists:  store,
		Downloads:  queue,
		Streamer:   streamer,
		Thumbnails: thumbnails,
	}, validation.New(), logger)

	return &testEnv{
		server:  server,
		store:   store,
		reg:     reg,
		pairing: pairingManager,
		dataDir: dataDir,
	}
}

// pairDevice runs the real pairing flow and returns the device token.
func (e *testEnv) pairDevice(t *testing.T, name string) string {
	t.Helper()
	session, _, err := e.pairing.Create()
	require.NoError(t, err)
	device, err := e.pairing.Consume(session.Code, name, domain.PlatformIOS)
	require.NoError(t, err)
	return device.Token
}

// seedVideo writes a real file into the temp vault and inserts its row.
func (e *testEnv) seedVideo(t *testing.T, id string, content []byte) *domain.MediaItem {
	t.Helper()
	path := filepath.Join(e.dataDir, id+".mp4")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	item := &domain.MediaItem{
		ID:      id,
		Title:   "Video " + id,
		Type:    domain.MediaVideo,
		Path:    path,
		Tags:    []string{"test"},
		AddedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, e.store.InsertMedia(context.Background(), item))
	return item
}

// seedPlaylist creates an empty playlist and returns its id.
func seedPlaylist(t *testing.T, env *testEnv, id, name string) string {
	t.Helper()
	require.NoError(t, env.store.CreatePlaylist(context.Background(), &domain.Playlist{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}))
	return id
}
