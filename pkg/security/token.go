package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const shareTokenBytes = 24

// GenerateShareToken returns a URL-safe random token for public share links.
func GenerateShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
