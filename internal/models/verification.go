package models

import "time"

type CodePurpose string

const (
	PurposeRegistration  CodePurpose = "registration"
	PurposePasswordReset CodePurpose = "password_reset"
)

// VerificationCode is a transient expiring OTP record keyed by email.
// One table serves both signup confirmation and password reset; the
// purpose field keeps the two flows from accepting each other's codes.
type VerificationCode struct {
	ID           string
	Email        string
	Purpose      CodePurpose
	Name         string
	Username     *string
	PasswordHash []byte
	OTPCode      string
	OTPExpiresAt time.Time
	Attempts     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (c VerificationCode) Expired(now time.Time) bool {
	return now.After(c.OTPExpiresAt)
}
