// Package domain contains the core entities of the companion sync server.
package domain

import "time"

// Platform identifies the mobile OS of a paired device.
type Platform string

// Supported platforms.
const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// Valid reports whether the platform is one of the supported values.
func (p Platform) Valid() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// Device is a mobile client that completed the pairing handshake.
// The token is the sole credential for every subsequent request from the
// device, so it must map to exactly one device for its entire lifetime.
type Device struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Platform Platform  `json:"platform"`
	Token    string    `json:"token"`
	PairedAt time.Time `json:"pairedAt"`
	LastSeen time.Time `json:"lastSeen"`
}

// Touch updates the last-seen timestamp.
func (d *Device) Touch(at time.Time) {
	d.LastSeen = at
}
