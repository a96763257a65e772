package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// apiKeyBytes is the entropy of a device API key (256 bits).
const apiKeyBytes = 32

// GenerateAPIKey returns a fresh URL-safe random key (43 characters).
// Keys carry no structure and are never derived from the device id.
func GenerateAPIKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
