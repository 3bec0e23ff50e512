package pairing

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediavaultapp/companion-server/internal/domain"
	"github.com/mediavaultapp/companion-server/internal/registry"
)

func newTestManager(t *testing.T) (*Manager, *registry.Registry) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	reg := registry.New(t.TempDir()+"/devices.json", logger)
	m := NewManager(reg, Config{ServerName: "Test Vault", Version: "1.0.0", Port: 8765}, logger)
	return m, reg
}

func TestCreateProducesSixDigitCode(t *testing.T) {
	m, _ := newTestManager(t)

	session, payload, err := m.Create()
	require.NoError(t, err)

	assert.Len(t, session.Code, CodeLength)
	for _, c := range session.Code {
		assert.True(t, c >= '0' && c <= '9', "code must be numeric, got %q", session.Code)
	}
	assert.Equal(t, session.Code, payload.Code)
	assert.Equal(t, "Test Vault", payload.Name)
	assert.Equal(t, 8765, payload.Port)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), session.ExpiresAt, 2*time.Second)
}

func TestStatusReportsRemainingTime(t *testing.T) {
	m, _ := newTestManager(t)

	session, _, err := m.Create()
	require.NoError(t, err)

	status := m.Status(session.Code)
	assert.True(t, status.Valid)
	require.NotNil(t, status.RemainingMs)
	assert.Greater(t, *status.RemainingMs, int64(0))
	assert.Empty(t, status.Reason)
}

func TestStatusUnknownCode(t *testing.T) {
	m, _ := newTestManager(t)

	status := m.Status("000000")
	assert.False(t, status.Valid)
	assert.Equal(t, ReasonNotFound, status.Reason)
}

func TestCodeExpiresAfterTTL(t *testing.T) {
	m, _ := newTestManager(t)

	session, _, err := m.Create()
	require.NoError(t, err)

	// One millisecond before expiry the code is still valid.
	m.SetClock(func() time.Time { return session.ExpiresAt.Add(-time.Millisecond) })
	assert.True(t, m.Status(session.Code).Valid)

	// One millisecond past expiry it is gone.
	m.SetClock(func() time.Time { return session.ExpiresAt.Add(time.Millisecond) })
	status := m.Status(session.Code)
	assert.False(t, status.Valid)
	assert.Equal(t, ReasonExpired, status.Reason)
}

func TestConsumeMintsDevice(t *testing.T) {
	m, reg := newTestManager(t)

	session, _, err := m.Create()
	require.NoError(t, err)

	device, err := m.Consume(session.Code, "My Phone", domain.PlatformIOS)
	require.NoError(t, err)

	assert.NotEmpty(t, device.ID)
	assert.NotEmpty(t, device.Token)
	assert.Equal(t, "My Phone", device.Name)
	assert.Equal(t, domain.PlatformIOS, device.Platform)

	resolved, ok := reg.ResolveToken(device.Token)
	assert.True(t, ok)
	assert.Equal(t, device.ID, resolved)
}

func TestConsumeIsSingleUse(t *testing.T) {
	m, reg := newTestManager(t)

	session, _, err := m.Create()
	require.NoError(t, err)

	_, err = m.Consume(session.Code, "First", domain.PlatformIOS)
	require.NoError(t, err)

	_, err = m.Consume(session.Code, "Second", domain.PlatformAndroid)
	assert.Error(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestConsumeExpiredCode(t *testing.T) {
	m, _ := newTestManager(t)

	session, _, err := m.Create()
	require.NoError(t, err)

	m.SetClock(func() time.Time { return session.ExpiresAt.Add(time.Second) })

	_, err = m.Consume(session.Code, "Late Phone", domain.PlatformIOS)
	assert.Error(t, err)
}

func TestConsumeValidatesInput(t *testing.T) {
	m, _ := newTestManager(t)

	session, _, err := m.Create()
	require.NoError(t, err)

	_, err = m.Consume(session.Code, "", domain.PlatformIOS)
	assert.Error(t, err)

	_, err = m.Consume(session.Code, "Phone", domain.Platform("windows"))
	assert.Error(t, err)
}

func TestDistinctDevicesGetDistinctTokens(t *testing.T) {
	m, reg := newTestManager(t)

	s1, _, err := m.Create()
	require.NoError(t, err)
	s2, _, err := m.Create()
	require.NoError(t, err)
	assert.NotEqual(t, s1.Code, s2.Code)

	d1, err := m.Consume(s1.Code, "Phone A", domain.PlatformIOS)
	require.NoError(t, err)
	d2, err := m.Consume(s2.Code, "Phone B", domain.PlatformAndroid)
	require.NoError(t, err)

	assert.NotEqual(t, d1.ID, d2.ID)
	assert.NotEqual(t, d1.Token, d2.Token)
	assert.Equal(t, 2, reg.Len())
}

func TestDiscoveryForActiveCode(t *testing.T) {
	m, _ := newTestManager(t)

	session, _, err := m.Create()
	require.NoError(t, err)

	payload, err := m.Discovery(session.Code)
	require.NoError(t, err)
	assert.Equal(t, session.Code, payload.Code)

	_, err = m.Discovery("999999")
	assert.Error(t, err)
}

func TestQRCodeEncodesPayload(t *testing.T) {
	m, _ := newTestManager(t)

	_, payload, err := m.Create()
	require.NoError(t, err)

	png, err := QRCode(payload)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
