package invitations

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	assert.NoError(t, err)
	assert.Len(t, token, 64)

	decoded, err := hex.DecodeString(token)
	assert.NoError(t, err)
	assert.Len(t, decoded, 32)
}

func TestGenerateToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken()
		assert.NoError(t, err)
		assert.False(t, seen[token], "token %q generated twice", token)
		seen[token] = true
	}
}
