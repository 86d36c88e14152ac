// AngelaMos | 2026
// repository.go

package event

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, e *Event) error
	CountByType(ctx context.Context, since time.Time) ([]TypeCount, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, e *Event) error {
	query := `
		INSERT INTO events (id, user_id, event_type, details)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.UserID,
		e.EventType,
		e.Details,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	return nil
}

func (r *repository) CountByType(
	ctx context.Context,
	since time.Time,
) ([]TypeCount, error) {
	query := `
		SELECT event_type, COUNT(*) AS count
		FROM events
		WHERE created_at >= $1
		GROUP BY event_type
		ORDER BY count DESC, event_type`

	var counts []TypeCount
	if err := r.db.SelectContext(ctx, &counts, query, since); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	return counts, nil
}
