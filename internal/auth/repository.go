// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/research-portal/internal/core"
)

// Repository stores rotating refresh tokens. Tokens in one family descend
// from a single login; reuse of a spent token revokes the family.
type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	MarkAsUsed(ctx context.Context, id, replacedByID string) error
	RevokeByID(ctx context.Context, id string) error
	RevokeByFamilyID(ctx context.Context, familyID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	ListActiveForUser(ctx context.Context, userID string) ([]RefreshToken, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const refreshTokenColumns = `id, user_id, token_hash, family_id, expires_at, created_at,
			is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address`

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, family_id, expires_at,
			user_agent, ip_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.FamilyID,
		token.ExpiresAt,
		token.UserAgent,
		token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	return r.findOne(ctx, `SELECT `+refreshTokenColumns+`
		FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
}

func (r *repository) FindByID(ctx context.Context, id string) (*RefreshToken, error) {
	return r.findOne(ctx, `SELECT `+refreshTokenColumns+`
		FROM refresh_tokens WHERE id = $1`, id)
}

func (r *repository) findOne(
	ctx context.Context,
	query string,
	arg any,
) (*RefreshToken, error) {
	var token RefreshToken
	err := r.db.GetContext(ctx, &token, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

func (r *repository) MarkAsUsed(ctx context.Context, id, replacedByID string) error {
	query := `
		UPDATE refresh_tokens
		SET is_used = true, used_at = NOW(), replaced_by_id = $2
		WHERE id = $1 AND is_used = false`

	n, err := r.exec(ctx, query, id, replacedByID)
	if err != nil {
		return fmt.Errorf("mark refresh token used: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark refresh token used: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) RevokeByID(ctx context.Context, id string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`

	n, err := r.exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) RevokeByFamilyID(ctx context.Context, familyID string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE family_id = $1 AND revoked_at IS NULL`

	if _, err := r.exec(ctx, query, familyID); err != nil {
		return fmt.Errorf("revoke token family: %w", err)
	}
	return nil
}

func (r *repository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := r.exec(ctx, query, userID); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

func (r *repository) ListActiveForUser(
	ctx context.Context,
	userID string,
) ([]RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + `
		FROM refresh_tokens
		WHERE user_id = $1
			AND revoked_at IS NULL
			AND is_used = false
			AND expires_at > NOW()
		ORDER BY created_at DESC`

	var tokens []RefreshToken
	if err := r.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return tokens, nil
}

func (r *repository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
