package domain

import "time"

// PairingSession is a transient, single-use pairing code. A session either
// converts into exactly one Device or expires; it never produces two devices.
type PairingSession struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session has passed its expiry at the given time.
func (s *PairingSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// DiscoveryPayload is the self-describing structure a QR code encodes.
// It carries everything the mobile client needs to validate freshness and
// reach the server before attempting to pair.
type DiscoveryPayload struct {
	Code      string    `json:"code"`
	Addresses []string  `json:"addresses"`
	Port      int       `json:"port"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	ExpiresAt time.Time `json:"expiresAt"`
}
