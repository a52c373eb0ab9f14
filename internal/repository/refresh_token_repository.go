package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/api/internal/models"
)

var ErrTokenNotFound = errors.New("refresh token not found")

type RefreshTokenRepository struct {
	pool *pgxpool.Pool
}

func NewRefreshTokenRepository(pool *pgxpool.Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: pool}
}

const tokenColumns = `id, user_id, token_hash, ip_address, user_agent, device, created_at, expires_at, revoked_at`

func scanToken(row pgx.Row) (models.RefreshToken, error) {
	var token models.RefreshToken
	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.IPAddress,
		&token.UserAgent,
		&token.Device,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RefreshToken{}, ErrTokenNotFound
		}
		return models.RefreshToken{}, err
	}
	return token, nil
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token models.RefreshToken) error {
	const query = `
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, ip_address, user_agent, device, created_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), $7
		)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.IPAddress,
		token.UserAgent,
		token.Device,
		token.ExpiresAt,
	)
	return err
}

// ListActiveByUser returns the user's non-revoked tokens. Hash matching
// against a presented token happens in the service, row by row.
func (r *RefreshTokenRepository) ListActiveByUser(ctx context.Context, userID string) ([]models.RefreshToken, error) {
	const query = `
		SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []models.RefreshToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, id string) error {
	const query = `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID string) error {
	const query = `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

// DeleteExpired purges rows past their expiry regardless of revocation
// state. Run from the cleanup job.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at < $1`
	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
