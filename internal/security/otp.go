package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

var otpMax = big.NewInt(1000000)

// GenerateOTP returns a uniformly random 6-digit code, zero-padded.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func CompareOTP(expected, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1
}
