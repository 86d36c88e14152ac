// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	SyncIdentity(ctx context.Context, id, email string, displayName *string) error
	UpdateDisplayName(ctx context.Context, id string, displayName *string) (*User, error)
	UpdateRole(ctx context.Context, id, role string) (*User, error)
	UpdateTier(ctx context.Context, id, tier string) (*User, error)
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, email, display_name, role, tier, created_at, updated_at`

// Create inserts a new profile. A unique violation means another request
// created the same profile first and is reported as ErrDuplicateKey.
func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, display_name, role, tier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + userColumns

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Role,
		user.Tier,
		createdAt,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) SyncIdentity(
	ctx context.Context,
	id, email string,
	displayName *string,
) error {
	query := `
		UPDATE users
		SET email = $2,
		    display_name = COALESCE(NULLIF(display_name, ''), $3),
		    updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, email, displayName); err != nil {
		return fmt.Errorf("sync identity: %w", err)
	}
	return nil
}

func (r *repository) UpdateDisplayName(
	ctx context.Context,
	id string,
	displayName *string,
) (*User, error) {
	return r.updateOne(ctx, "update display name",
		`UPDATE users SET display_name = $2, updated_at = NOW()
		 WHERE id = $1 RETURNING `+userColumns,
		id, displayName)
}

func (r *repository) UpdateRole(ctx context.Context, id, role string) (*User, error) {
	return r.updateOne(ctx, "update role",
		`UPDATE users SET role = $2, updated_at = NOW()
		 WHERE id = $1 RETURNING `+userColumns,
		id, role)
}

func (r *repository) UpdateTier(ctx context.Context, id, tier string) (*User, error) {
	return r.updateOne(ctx, "update tier",
		`UPDATE users SET tier = $2, updated_at = NOW()
		 WHERE id = $1 RETURNING `+userColumns,
		id, tier)
}

func (r *repository) updateOne(
	ctx context.Context,
	op, query string,
	args ...any,
) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR display_name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.Tier != "" {
		conditions = append(conditions, fmt.Sprintf("tier = $%d", argIdx))
		args = append(args, params.Tier)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM users WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
