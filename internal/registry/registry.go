// Package registry is the durable store of paired devices and their tokens.
// It is the single source of truth for which devices may talk to the server.
package registry

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mediavaultapp/companion-server/internal/domain"
)

// Notifier receives device lifecycle transitions. The owner registers one
// explicitly; there is no implicit event bus.
type Notifier interface {
	DevicePaired(d *domain.Device)
	DeviceUnpaired(d *domain.Device)
}

// Registry keeps the paired-device set in memory, backed by a JSON file at a
// fixed per-user path. Persistence is fire-and-forget relative to the request
// that triggered it: a crash between mutation and flush loses at most the
// most recent pairing or unpairing event.
type Registry struct {
	path     string
	logger   *slog.Logger
	notifier Notifier

	mu      sync.RWMutex
	devices map[string]*domain.Device // device id -> device
	tokens  map[string]string         // token -> device id
}

// New creates a registry backed by the JSON file at path.
func New(path string, logger *slog.Logger) *Registry {
	return &Registry{
		path:    path,
		logger:  logger,
		devices: make(map[string]*domain.Device),
		tokens:  make(map[string]string),
	}
}

// SetNotifier registers the lifecycle observer. Pass nil to clear it.
func (r *Registry) SetNotifier(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifier = n
}

// Load reads the device file from disk. A missing file yields an empty
// registry; a malformed file is logged and the registry starts empty.
// Load never fails startup.
func (r *Registry) Load() {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("Failed to read device registry, starting empty", "path", r.path, "error", err)
		}
		return
	}

	var devices []*domain.Device
	if err := json.Unmarshal(data, &devices); err != nil {
		r.logger.Warn("Device registry is malformed, starting empty", "path", r.path, "error", err)
		return
	}

	for _, d := range devices {
		r.devices[d.ID] = d
		r.tokens[d.Token] = d.ID
	}

	r.logger.Info("Device registry loaded", "devices", len(r.devices))
}

// Register inserts a device and persists the registry.
func (r *Registry) Register(d *domain.Device) {
	r.mu.Lock()
	r.devices[d.ID] = d
	r.tokens[d.Token] = d.ID
	r.persistLocked()
	notifier := r.notifier
	r.mu.Unlock()

	if notifier != nil {
		notifier.DevicePaired(d)
	}
}

// Revoke removes a device and persists the registry. Returns whether a
// device existed. The token stops resolving before Revoke returns, so
// revocation has zero grace period.
func (r *Registry) Revoke(deviceID string) bool {
	r.mu.Lock()
	d, ok := r.devices[deviceID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.devices, deviceID)
	delete(r.tokens, d.Token)
	r.persistLocked()
	notifier := r.notifier
	r.mu.Unlock()

	if notifier != nil {
		notifier.DeviceUnpaired(d)
	}
	return true
}

// ResolveToken maps a bearer token to a device ID.
func (r *Registry) ResolveToken(token string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	deviceID, ok := r.tokens[token]
	return deviceID, ok
}

// Get returns a copy of the device with the given ID.
func (r *Registry) Get(deviceID string) (*domain.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[deviceID]
	if !ok {
		return nil, false
	}
	copied := *d
	return &copied, true
}

// Touch updates a device's last-seen timestamp and persists the registry.
func (r *Registry) Touch(deviceID string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[deviceID]
	if !ok {
		return
	}
	d.Touch(at)
	r.persistLocked()
}

// List returns a snapshot of all paired devices, sorted by pairing time for
// stable display.
func (r *Registry) List() []*domain.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Device, 0, len(r.devices))
	for _, d := range r.devices {
		copied := *d
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PairedAt.Before(out[j].PairedAt) })
	return out
}

// Len returns the number of paired devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// persistLocked serializes the device set back to disk, creating parent
// directories as needed. Failures are logged, never surfaced to the request
// that triggered the mutation.
func (r *Registry) persistLocked() {
	devices := make([]*domain.Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].PairedAt.Before(devices[j].PairedAt) })

	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		r.logger.Error("Failed to create registry directory", "path", r.path, "error", err)
		return
	}

	data, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		r.logger.Error("Failed to marshal device registry", "error", err)
		return
	}

	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		r.logger.Error("Failed to write device registry", "path", r.path, "error", err)
	}
}
