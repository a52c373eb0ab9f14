package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/api/internal/models"
)

var (
	ErrCodeNotFound = errors.New("verification code not found")
	ErrCodeExists   = errors.New("verification code already exists")
)

type VerificationRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationRepository(pool *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

const codeColumns = `id, email, purpose, name, username, password_hash, otp_code, otp_expires_at, attempts, created_at, updated_at`

func scanCode(row pgx.Row) (models.VerificationCode, error) {
	var code models.VerificationCode
	err := row.Scan(
		&code.ID,
		&code.Email,
		&code.Purpose,
		&code.Name,
		&code.Username,
		&code.PasswordHash,
		&code.OTPCode,
		&code.OTPExpiresAt,
		&code.Attempts,
		&code.CreatedAt,
		&code.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VerificationCode{}, ErrCodeNotFound
		}
		return models.VerificationCode{}, err
	}
	return code, nil
}

// Create inserts a new code. The unique constraint on email is the
// authority on "one live code per email": a concurrent insert for the
// same address surfaces as ErrCodeExists, never as a second row.
func (r *VerificationRepository) Create(ctx context.Context, code models.VerificationCode) error {
	const query = `
		INSERT INTO verification_codes (
			id, email, purpose, name, username, password_hash, otp_code, otp_expires_at, attempts, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, 0, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		code.ID,
		code.Email,
		code.Purpose,
		code.Name,
		code.Username,
		code.PasswordHash,
		code.OTPCode,
		code.OTPExpiresAt,
	)
	if isUniqueViolation(err) {
		return ErrCodeExists
	}
	return err
}

func (r *VerificationRepository) FindByEmail(ctx context.Context, email string) (models.VerificationCode, error) {
	const query = `SELECT ` + codeColumns + ` FROM verification_codes WHERE email = $1`
	return scanCode(r.pool.QueryRow(ctx, query, email))
}

func (r *VerificationRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	const query = `
		UPDATE verification_codes SET attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING attempts
	`
	var attempts int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrCodeNotFound
		}
		return 0, err
	}
	return attempts, nil
}

func (r *VerificationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM verification_codes WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// DeleteExpired removes stale codes; it only ever touches rows already
// past expiry, so it is safe alongside live registrations.
func (r *VerificationRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM verification_codes WHERE otp_expires_at < $1`
	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
