package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Prefixes of the one-shot tokens mailed to users.
const (
	VerifyTokenPrefix = "inky_vt_"
	InviteTokenPrefix = "inky_it_"
)

// GenerateToken returns a random token with the given prefix. Only its hash
// is stored.
func GenerateToken(prefix string) (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return prefix + hex.EncodeToString(raw), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func VerifyToken(rawToken, expectedHash string) bool {
	actual := HashToken(rawToken)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expectedHash)) == 1
}
