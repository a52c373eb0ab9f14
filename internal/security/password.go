package security

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func VerifyPassword(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// HashRefreshToken stores refresh tokens salted rather than as a plain
// digest, so equality later requires a per-row compare. bcrypt only
// reads the first 72 bytes of input and a signed JWT is far longer, so
// the token is compacted through sha256 first.
func HashRefreshToken(token string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword(compactToken(token), cost)
	if err != nil {
		return nil, fmt.Errorf("hash refresh token: %w", err)
	}
	return hash, nil
}

func VerifyRefreshToken(token string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, compactToken(token)) == nil
}

func compactToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return []byte(base64.RawStdEncoding.EncodeToString(sum[:]))
}
