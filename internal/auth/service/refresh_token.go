package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/routeledger/backend/internal/common/constants"
)

// GenerateRefreshToken returns a hex-encoded string of RefreshTokenSize
// bytes from the OS CSPRNG.
func GenerateRefreshToken() (string, error) {
	b := make([]byte, constants.RefreshTokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashRefreshToken is the only form in which refresh tokens are stored.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
