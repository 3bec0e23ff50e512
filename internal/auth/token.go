// Package auth provides device credential generation for the companion API.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// deviceTokenSize is the entropy of a device token in bytes (256 bits).
const deviceTokenSize = 32

// NewDeviceToken creates a cryptographically random opaque bearer token.
// Tokens are not self-describing: they are resolved through the device
// registry, which is what makes revocation effective immediately.
// Returns the token string in a base64-urlencoded format.
func NewDeviceToken() (string, error) {
	b := make([]byte, deviceTokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate device token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
