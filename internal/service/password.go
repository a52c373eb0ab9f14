package service

import (
	"context"
	"errors"
	"time"

	"inkwell/api/internal/ids"
	"inkwell/api/internal/models"
	"inkwell/api/internal/repository"
	"inkwell/api/internal/security"
)

const resetRequestedMessage = "if an account with this email exists, a password reset OTP has been sent"

// ForgotPassword starts the reset flow. Every branch returns the same
// message: the response must not reveal whether the account exists,
// whether a code is already pending, or whether the email went out.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return resetRequestedMessage, nil
		}
		return "", err
	}

	if existing, err := s.codes.FindByEmail(ctx, email); err == nil {
		if !existing.Expired(time.Now()) {
			return resetRequestedMessage, nil
		}
		if err := s.codes.Delete(ctx, existing.ID); err != nil {
			return "", err
		}
	} else if !errors.Is(err, repository.ErrCodeNotFound) {
		return "", err
	}

	otp, err := security.GenerateOTP()
	if err != nil {
		return "", err
	}

	// The existing password hash is carried unchanged; the reset code
	// reuses the registration record shape with its own purpose tag.
	code := models.VerificationCode{
		ID:           ids.New(),
		Email:        user.Email,
		Purpose:      models.PurposePasswordReset,
		Name:         user.Name,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		OTPCode:      otp,
		OTPExpiresAt: time.Now().Add(s.cfg.OTPTTL),
	}

	if err := s.codes.Create(ctx, code); err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			return resetRequestedMessage, nil
		}
		return "", err
	}

	if err := s.notifier.SendPasswordResetOTPEmail(ctx, user.Email, otp, user.Name); err != nil {
		s.log.Error().Err(err).Str("email", user.Email).Msg("reset email dispatch failed")
		if delErr := s.codes.Delete(ctx, code.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("email", user.Email).Msg("reset code cleanup failed")
		}
		return resetRequestedMessage, nil
	}

	return resetRequestedMessage, nil
}

// ResetPassword finishes the reset flow. The OTP is validated exactly
// like registration's; on success the new password lands on the
// existing user row. Existing sessions stay valid — only an explicit
// password change revokes them.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error) {
	email = normalizeEmail(email)

	code, err := s.codes.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return "", ErrNoResetRequest
		}
		return "", err
	}
	if code.Purpose != models.PurposePasswordReset {
		return "", ErrNoResetRequest
	}

	if err := s.checkCode(ctx, code, otp); err != nil {
		return "", err
	}

	passwordHash, err := security.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return "", err
	}

	if err := s.users.UpdatePasswordByEmail(ctx, email, passwordHash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrNoResetRequest
		}
		return "", err
	}

	if err := s.codes.Delete(ctx, code.ID); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("used reset code cleanup failed")
	}

	return "password has been reset successfully, you can now log in with your new password", nil
}

// ChangePassword requires the current password and, unlike
// ResetPassword, revokes every session to force re-authentication.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserMissing
		}
		return "", err
	}

	if !security.VerifyPassword(currentPassword, user.PasswordHash) {
		return "", ErrWrongPassword
	}

	passwordHash, err := security.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return "", err
	}

	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return "", err
	}

	if err := s.sessions.RevokeAllByUser(ctx, user.ID); err != nil {
		return "", err
	}

	return "password changed successfully, please log in again", nil
}
