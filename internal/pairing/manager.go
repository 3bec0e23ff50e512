// Package pairing implements the short-lived pairing handshake that converts
// a 6-digit code into a registered device and its bearer token.
//
// State machine per code: Active -> Consumed or Active -> Expired. No code
// returns to Active, and no code may produce two devices.
package pairing

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"sync"
	"time"

	"github.com/mediavaultapp/companion-server/internal/auth"
	"github.com/mediavaultapp/companion-server/internal/domain"
	"github.com/mediavaultapp/companion-server/internal/errors"
	"github.com/mediavaultapp/companion-server/internal/id"
	"github.com/mediavaultapp/companion-server/internal/registry"
)

const (
	// CodeLength is the number of digits in a pairing code.
	CodeLength = 6
	// DefaultTTL is the default validity window of a pairing code.
	DefaultTTL = 5 * time.Minute
)

// Status reason strings returned by the status poll.
const (
	ReasonNotFound = "not_found"
	ReasonExpired  = "expired"
)

// Config carries the server identity embedded in discovery payloads.
type Config struct {
	ServerName string
	Version    string
	Port       int
	TTL        time.Duration
}

// Manager owns the set of outstanding pairing sessions.
type Manager struct {
	registry *registry.Registry
	logger   *slog.Logger
	cfg      Config

	// now is injected for expiry boundary tests.
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*domain.PairingSession
}

// NewManager creates a pairing session manager.
func NewManager(reg *registry.Registry, cfg Config, logger *slog.Logger) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Manager{
		registry: reg,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*domain.PairingSession),
	}
}

// SetClock overrides the time source. Test hook.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Create mints a new pairing session and its discovery payload. Expired
// sessions are swept on every call, which bounds memory growth from
// abandoned pairing attempts without a background timer.
func (m *Manager) Create() (*domain.PairingSession, *domain.DiscoveryPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()

	code, err := m.generateCodeLocked()
	if err != nil {
		return nil, nil, err
	}

	now := m.now()
	session := &domain.PairingSession{
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.TTL),
	}
	m.sessions[code] = session

	payload := &domain.DiscoveryPayload{
		Code:      code,
		Addresses: lanAddresses(m.cfg.Port),
		Port:      m.cfg.Port,
		Name:      m.cfg.ServerName,
		Version:   m.cfg.Version,
		ExpiresAt: session.ExpiresAt,
	}

	m.logger.Info("Pairing code created", "code", code, "expires_at", session.ExpiresAt)

	return session, payload, nil
}

// SessionStatus is the result of a side-effect-free status poll.
type SessionStatus struct {
	Valid       bool       `json:"valid"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	RemainingMs *int64     `json:"remainingMs,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// Status reports whether a code is still redeemable. A code found expired is
// opportunistically evicted.
func (m *Manager) Status(code string) SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[code]
	if !ok {
		return SessionStatus{Valid: false, Reason: ReasonNotFound}
	}

	now := m.now()
	if session.Expired(now) {
		delete(m.sessions, code)
		return SessionStatus{Valid: false, Reason: ReasonExpired}
	}

	remaining := session.ExpiresAt.Sub(now).Milliseconds()
	expiresAt := session.ExpiresAt
	return SessionStatus{Valid: true, ExpiresAt: &expiresAt, RemainingMs: &remaining}
}

// Consume redeems a pairing code, minting a new device identity and token
// through the registry. This is the only transition from Active to Consumed;
// the session is deleted under the same lock that validated it, so a code can
// never be redeemed twice.
func (m *Manager) Consume(code, deviceName string, platform domain.Platform) (*domain.Device, error) {
	if deviceName == "" {
		return nil, errors.Validation("deviceName is required")
	}
	if !platform.Valid() {
		return nil, errors.Validationf("platform must be one of: %s, %s", domain.PlatformIOS, domain.PlatformAndroid)
	}

	m.mu.Lock()
	session, ok := m.sessions[code]
	now := m.now()
	if !ok || session.Expired(now) {
		delete(m.sessions, code)
		m.mu.Unlock()
		return nil, errors.Validation("invalid or expired pairing code")
	}
	delete(m.sessions, code)
	m.mu.Unlock()

	token, err := auth.NewDeviceToken()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to mint device token")
	}

	deviceID, err := id.Generate("dev")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to generate device id")
	}

	device := &domain.Device{
		ID:       deviceID,
		Name:     deviceName,
		Platform: platform,
		Token:    token,
		PairedAt: now,
		LastSeen: now,
	}
	m.registry.Register(device)

	m.logger.Info("Device paired", "device_id", device.ID, "name", device.Name, "platform", device.Platform)

	return device, nil
}

// Discovery rebuilds the discovery payload for a still-active code, for
// re-rendering the QR after the first display.
func (m *Manager) Discovery(code string) (*domain.DiscoveryPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[code]
	if !ok || session.Expired(m.now()) {
		delete(m.sessions, code)
		return nil, errors.NotFound("unknown or expired pairing code")
	}

	return &domain.DiscoveryPayload{
		Code:      session.Code,
		Addresses: lanAddresses(m.cfg.Port),
		Port:      m.cfg.Port,
		Name:      m.cfg.ServerName,
		Version:   m.cfg.Version,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// sweepLocked purges every session whose expiry has elapsed.
func (m *Manager) sweepLocked() {
	now := m.now()
	for code, session := range m.sessions {
		if session.Expired(now) {
			delete(m.sessions, code)
		}
	}
}

// generateCodeLocked draws a 6-digit code from a cryptographically strong
// source, re-rolling on collision with a currently active code.
func (m *Manager) generateCodeLocked() (string, error) {
	limit := big.NewInt(1)
	for range CodeLength {
		limit.Mul(limit, big.NewInt(10))
	}

	for {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate pairing code: %w", err)
		}
		code := fmt.Sprintf("%0*d", CodeLength, n)
		if _, taken := m.sessions[code]; !taken {
			return code, nil
		}
	}
}

// lanAddresses returns the base URLs a companion on the same network can try.
// Loopback and link-local addresses are skipped; IPv4 is preferred because
// that is what phone QR scanners reliably dial.
func lanAddresses(port int) []string {
	var out []string

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return out
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() || ipNet.IP.IsLinkLocalUnicast() {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			continue
		}
		out = append(out, fmt.Sprintf("http://%s:%d", ip4, port))
	}
	return out
}
