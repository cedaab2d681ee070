// internal/provision/apikey.go
package provision

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// APIKeyPrefix marks quasar-issued keys so they are recognizable in logs
// and support tickets without revealing anything.
const APIKeyPrefix = "qsr_"

// GenerateAPIKey returns an opaque bearer credential with 256 bits of
// entropy, hex encoded. The key is a pure lookup token: it is stored and
// compared verbatim, never derived from user data.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return APIKeyPrefix + hex.EncodeToString(buf), nil
}
