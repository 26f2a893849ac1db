package invitations

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const tokenBytes = 32

// GenerateToken returns a new invitation token: 32 bytes from the OS entropy
// source, hex-encoded. The token is the sole credential for email-link
// acceptance, so it carries no information about the invitation it belongs
// to and there is no weaker fallback if the entropy source fails.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
