package auth

import (
	"fmt"
	"strings"
)

// DevModeVerifier derives an identity from a structured device id of
// the form DEV_{userId}_{timestamp} without checking any credential.
//
// This bypass exists for local development only. It is security
// sensitive: never construct one unless the dev-mode flag is set, and
// the flag defaults to off.
type DevModeVerifier struct {
	fallback CredentialVerifier
}

func NewDevModeVerifier(fallback CredentialVerifier) *DevModeVerifier {
	return &DevModeVerifier{fallback: fallback}
}

const devDevicePrefix = "DEV_"

// VerifyDevice resolves an identity from a DEV_ device id when the
// token is absent. Any other combination goes through the fallback.
func (v *DevModeVerifier) VerifyDevice(token, deviceID string) (Identity, error) {
	if token == "" && strings.HasPrefix(deviceID, devDevicePrefix) {
		parts := strings.Split(deviceID, "_")
		if len(parts) >= 2 && parts[1] != "" {
			return Identity{UserID: parts[1], DeviceID: deviceID}, nil
		}
		return Identity{}, fmt.Errorf("malformed dev device id %q", deviceID)
	}
	return v.fallback.Verify(token)
}

// Verify satisfies CredentialVerifier for the token-only path.
func (v *DevModeVerifier) Verify(token string) (Identity, error) {
	return v.fallback.Verify(token)
}
