// Package api provides the HTTP server and handlers of the companion API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mediavaultapp/companion-server/internal/http/response"
	"github.com/mediavaultapp/companion-server/internal/library"
	"github.com/mediavaultapp/companion-server/internal/media"
	"github.com/mediavaultapp/companion-server/internal/pairing"
	"github.com/mediavaultapp/companion-server/internal/ratelimit"
	"github.com/mediavaultapp/companion-server/internal/registry"
	"github.com/mediavaultapp/companion-server/internal/validation"
)

// Services carries the collaborators the server dispatches to. Registry and
// Pairing are mandatory; the rest may be nil, in which case the routes that
// need them answer 500 with a descriptive message.
type Services struct {
	ServerName string
	Registry   *registry.Registry
	Pairing    *pairing.Manager
	Library    library.Library
	State      library.StateStore
	Playlists  library.PlaylistStore
	Downloads  library.DownloadQueue
	Streamer   *media.Streamer
	Thumbnails *media.Thumbnails
}

// Server holds dependencies for the HTTP handlers.
type Server struct {
	services  Services
	validator *validation.Validator
	pairLimit *ratelimit.KeyedLimiter
	router    *chi.Mux
	logger    *slog.Logger
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(services Services, validator *validation.Validator, logger *slog.Logger) *Server {
	s := &Server{
		services:  services,
		validator: validator,
		pairLimit: ratelimit.New(1, 10),
		router:    chi.NewRouter(),
		logger:    logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	// Unmatched routes answer JSON like every other failure.
	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Not found", s.logger)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	// The companion may load media in a web view from any origin on the LAN.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Public endpoints.
		r.Get("/ping", s.handlePing)
		r.Group(func(r chi.Router) {
			r.Use(s.pairingRateLimit)
			r.Post("/pair", s.handlePair)
			r.Get("/pair/status", s.handlePairStatus)
			r.Get("/pair/qr", s.handlePairQR)
		})

		// Everything else requires a paired device.
		r.Group(func(r chi.Router) {
			r.Use(s.requireDevice)

			r.Get("/library", s.handleListLibrary)
			r.Get("/library/{id}", s.handleGetMedia)
			r.Get("/tags", s.handleListTags)

			r.Route("/media/{id}", func(r chi.Router) {
				r.Get("/stream", s.handleStream)
				r.Get("/thumb", s.handleThumb)
				r.Post("/rate", s.handleRate)
				r.Post("/view", s.handleView)
				r.Get("/stats", s.handleStats)
				r.Get("/markers", s.handleListMarkers)
				r.Post("/markers", s.handleAddMarker)
			})

			r.Route("/sync", func(r chi.Router) {
				r.Get("/state", s.handleSyncState)
				r.Get("/favorites", s.handleListFavorites)
				r.Post("/favorites", s.handlePushFavorites)
				r.Get("/history", s.handleListHistory)
				r.Post("/history", s.handlePushHistory)
				r.Post("/watches", s.handlePushWatches)
				r.Get("/ratings", s.handleListRatings)
				r.Post("/ratings", s.handlePushRatings)
			})

			r.Get("/playlists", s.handleListPlaylists)
			r.Get("/playlists/{id}", s.handleGetPlaylist)
			r.Post("/playlists/{id}/items", s.handleAddPlaylistItems)

			r.Post("/download", s.handleDownload)

			r.Get("/devices", s.handleListDevices)
			r.Delete("/devices/{id}", s.handleRevokeDevice)
		})
	})
}

// handlePing reports server identity and reachability. Public so a companion
// can probe candidate addresses before pairing.
func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]any{
		"status":  "ok",
		"name":    s.services.ServerName,
		"version": ServerVersion,
		"devices": s.services.Registry.Len(),
	}, s.logger)
}
