package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"inkwell/api/internal/config"
	"inkwell/api/internal/ids"
	"inkwell/api/internal/mail"
	"inkwell/api/internal/models"
	"inkwell/api/internal/repository"
	"inkwell/api/internal/security"
)

// UserStore is the credential store: persistent user records.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id string, update repository.ProfileUpdate) (models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
	UpdatePasswordByEmail(ctx context.Context, email string, passwordHash []byte) error
	UpdateRole(ctx context.Context, id string, role models.UserRole) (models.User, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// SessionStore holds refresh-token session records.
type SessionStore interface {
	Create(ctx context.Context, token models.RefreshToken) error
	ListActiveByUser(ctx context.Context, userID string) ([]models.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllByUser(ctx context.Context, userID string) error
}

// CodeStore holds expiring verification codes for both signup and
// password-reset flows.
type CodeStore interface {
	Create(ctx context.Context, code models.VerificationCode) error
	FindByEmail(ctx context.Context, email string) (models.VerificationCode, error)
	IncrementAttempts(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

type AuthService struct {
	users    UserStore
	sessions SessionStore
	codes    CodeStore
	notifier mail.Notifier
	jwt      *security.TokenService
	cfg      config.SecurityConfig
	log      zerolog.Logger
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	codes CodeStore,
	notifier mail.Notifier,
	jwt *security.TokenService,
	cfg config.SecurityConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		codes:    codes,
		notifier: notifier,
		jwt:      jwt,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Username *string
}

type RegisterResult struct {
	Message string
	Email   string
}

// Register starts the OTP-gated signup: it stores a pending
// verification code and mails the OTP. No user row exists until the
// code is verified. A failed email dispatch rolls the pending record
// back so the address is not left blocked.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	email := normalizeEmail(input.Email)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return RegisterResult{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return RegisterResult{}, err
	}

	if existing, err := s.codes.FindByEmail(ctx, email); err == nil {
		if !existing.Expired(time.Now()) {
			return RegisterResult{}, ErrRegistrationInProgress
		}
		if err := s.codes.Delete(ctx, existing.ID); err != nil {
			return RegisterResult{}, err
		}
	} else if !errors.Is(err, repository.ErrCodeNotFound) {
		return RegisterResult{}, err
	}

	passwordHash, err := security.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return RegisterResult{}, err
	}

	otp, err := security.GenerateOTP()
	if err != nil {
		return RegisterResult{}, err
	}

	code := models.VerificationCode{
		ID:           ids.New(),
		Email:        email,
		Purpose:      models.PurposeRegistration,
		Name:         input.Name,
		Username:     input.Username,
		PasswordHash: passwordHash,
		OTPCode:      otp,
		OTPExpiresAt: time.Now().Add(s.cfg.OTPTTL),
	}

	if err := s.codes.Create(ctx, code); err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			// Lost a race with a concurrent registration for the
			// same address; same outcome as the live-code check.
			return RegisterResult{}, ErrRegistrationInProgress
		}
		return RegisterResult{}, err
	}

	if err := s.notifier.SendOTPEmail(ctx, email, otp, input.Name); err != nil {
		if delErr := s.codes.Delete(ctx, code.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("email", email).Msg("pending registration cleanup failed")
		}
		return RegisterResult{}, ErrEmailDelivery
	}

	return RegisterResult{
		Message: "OTP sent to your email, verify to complete registration",
		Email:   email,
	}, nil
}

type LoginResult struct {
	User         models.User
	AccessToken  string
	RefreshToken string
}

// VerifyOTP completes a pending registration: on an exact, unexpired
// code it creates the user from the already-hashed pending record and
// issues the first session.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string, meta SessionMeta) (LoginResult, error) {
	email = normalizeEmail(email)

	code, err := s.codes.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return LoginResult{}, ErrNoPendingRegistration
		}
		return LoginResult{}, err
	}
	if code.Purpose != models.PurposeRegistration {
		return LoginResult{}, ErrNoPendingRegistration
	}

	if err := s.checkCode(ctx, code, otp); err != nil {
		return LoginResult{}, err
	}

	user := models.User{
		ID:            ids.New(),
		Email:         code.Email,
		Username:      code.Username,
		PasswordHash:  code.PasswordHash,
		Name:          code.Name,
		Role:          models.UserRoleUser,
		IsActive:      true,
		EmailVerified: true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return LoginResult{}, ErrEmailTaken
		}
		return LoginResult{}, err
	}

	if err := s.codes.Delete(ctx, code.ID); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("verified code cleanup failed")
	}

	return s.issueSession(ctx, user, meta)
}

// checkCode validates expiry and the code itself, enforcing the
// bounded-attempt lockout. Expired or exhausted codes are deleted, so
// the caller has to start the flow over.
func (s *AuthService) checkCode(ctx context.Context, code models.VerificationCode, otp string) error {
	if code.Expired(time.Now()) {
		if err := s.codes.Delete(ctx, code.ID); err != nil {
			return err
		}
		return ErrOTPExpired
	}

	if !security.CompareOTP(code.OTPCode, otp) {
		attempts, err := s.codes.IncrementAttempts(ctx, code.ID)
		if err != nil && !errors.Is(err, repository.ErrCodeNotFound) {
			return err
		}
		if attempts >= s.cfg.OTPMaxAttempts {
			if err := s.codes.Delete(ctx, code.ID); err != nil {
				s.log.Error().Err(err).Str("email", code.Email).Msg("exhausted code cleanup failed")
			}
			return ErrOTPAttemptsExceeded
		}
		return ErrOTPInvalid
	}

	return nil
}

type LoginInput struct {
	Email    string
	Password string
	Meta     SessionMeta
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !security.VerifyPassword(input.Password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		return LoginResult{}, ErrAccountDeactivated
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return LoginResult{}, err
	}

	return s.issueSession(ctx, user, input.Meta)
}

type SessionMeta struct {
	IPAddress string
	UserAgent string
	Device    *string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Refresh rotates a refresh token. The presented token is matched
// against the user's active session rows by salted-hash compare, so
// the work is bounded by the session count, not the table size. The
// replacement session is persisted before the old one is revoked; a
// crash in between never strands the caller without a valid session.
func (s *AuthService) Refresh(ctx context.Context, rawToken string, meta SessionMeta) (TokenPair, error) {
	claims, err := s.jwt.VerifyRefresh(rawToken)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	sessions, err := s.sessions.ListActiveByUser(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, err
	}

	var matched *models.RefreshToken
	for i := range sessions {
		if security.VerifyRefreshToken(rawToken, sessions[i].TokenHash) {
			matched = &sessions[i]
			break
		}
	}
	if matched == nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	if time.Now().After(matched.ExpiresAt) {
		return TokenPair{}, ErrRefreshTokenExpired
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	result, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.sessions.Revoke(ctx, matched.ID); err != nil {
		// The new session already exists; a concurrent rotation may
		// have revoked this row first.
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("old session revoke failed")
	}

	return TokenPair{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken}, nil
}

// Logout ends every session for the user, not just the current device.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.sessions.RevokeAllByUser(ctx, userID)
}

func (s *AuthService) issueSession(ctx context.Context, user models.User, meta SessionMeta) (LoginResult, error) {
	accessToken, err := s.jwt.SignAccess(user.ID, string(user.Role))
	if err != nil {
		return LoginResult{}, err
	}

	refreshToken, err := s.jwt.SignRefresh(user.ID, string(user.Role))
	if err != nil {
		return LoginResult{}, err
	}

	tokenHash, err := security.HashRefreshToken(refreshToken, s.cfg.BcryptCost)
	if err != nil {
		return LoginResult{}, err
	}

	session := models.RefreshToken{
		ID:        ids.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Device:    meta.Device,
		ExpiresAt: time.Now().Add(s.jwt.RefreshTTL()),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
