// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type Repository interface {
	Upsert(ctx context.Context, userID, researchLineID string) (*Subscription, error)
	Deactivate(ctx context.Context, userID, researchLineID string) (*Subscription, error)
	IsActive(ctx context.Context, userID, researchLineID string) (bool, error)
	ListActiveForUser(ctx context.Context, userID string) ([]ActiveLine, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const subscriptionColumns = `user_id, research_line_id, is_active, subscribed_at, unsubscribed_at`

func (r *repository) Upsert(
	ctx context.Context,
	userID, researchLineID string,
) (*Subscription, error) {
	query := `
		INSERT INTO research_line_subscriptions (
			user_id, research_line_id, is_active, subscribed_at, unsubscribed_at
		) VALUES ($1, $2, true, NOW(), NULL)
		ON CONFLICT (user_id, research_line_id) DO UPDATE
		SET is_active = true, subscribed_at = NOW(), unsubscribed_at = NULL
		RETURNING ` + subscriptionColumns

	var sub Subscription
	if err := r.db.GetContext(ctx, &sub, query, userID, researchLineID); err != nil {
		if core.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("subscribe: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	return &sub, nil
}

// Deactivate never inserts. It returns (nil, nil) when no row exists.
func (r *repository) Deactivate(
	ctx context.Context,
	userID, researchLineID string,
) (*Subscription, error) {
	query := `
		UPDATE research_line_subscriptions
		SET is_active = false, unsubscribed_at = NOW()
		WHERE user_id = $1 AND research_line_id = $2
		RETURNING ` + subscriptionColumns

	var sub Subscription
	err := r.db.GetContext(ctx, &sub, query, userID, researchLineID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unsubscribe: %w", err)
	}

	return &sub, nil
}

func (r *repository) IsActive(
	ctx context.Context,
	userID, researchLineID string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM research_line_subscriptions
			WHERE user_id = $1 AND research_line_id = $2 AND is_active = true
		)`

	var active bool
	if err := r.db.GetContext(ctx, &active, query, userID, researchLineID); err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}

	return active, nil
}

func (r *repository) ListActiveForUser(
	ctx context.Context,
	userID string,
) ([]ActiveLine, error) {
	query := `
		SELECT s.research_line_id, l.title, l.slug, s.subscribed_at
		FROM research_line_subscriptions s
		JOIN research_lines l ON l.id = s.research_line_id
		WHERE s.user_id = $1 AND s.is_active = true
		ORDER BY s.subscribed_at DESC`

	var lines []ActiveLine
	if err := r.db.SelectContext(ctx, &lines, query, userID); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	return lines, nil
}
