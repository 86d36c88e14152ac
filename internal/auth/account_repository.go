// AngelaMos | 2026
// account_repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
}

type accountRepository struct {
	db core.DBTX
}

func NewAccountRepository(db core.DBTX) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, email, password_hash, display_name, token_version,
		       created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (id, email, password_hash, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING token_version, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
	).Scan(&account.TokenVersion, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	var account Account
	err := r.db.GetContext(ctx, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	return &account, nil
}

func (r *accountRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	var account Account
	err := r.db.GetContext(ctx, &account, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}

	return &account, nil
}

func (r *accountRepository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE accounts
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

func (r *accountRepository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE accounts
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "increment token version", query, id)
}

func (r *accountRepository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
