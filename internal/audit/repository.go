// AngelaMos | 2026
// repository.go

package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, log *Log) error
	List(ctx context.Context, params ListParams) ([]Log, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, log *Log) error {
	query := `
		INSERT INTO audit_logs (id, actor_id, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.ActorID,
		log.Action,
		log.EntityType,
		log.EntityID,
		log.Details,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Log, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.EntityType != "" {
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", argIdx))
		args = append(args, params.EntityType)
		argIdx++
	}

	if params.ActorID != "" {
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", argIdx))
		args = append(args, params.ActorID)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM audit_logs WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, actor_id, action, entity_type, entity_id, details, created_at
		FROM audit_logs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var logs []Log
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	return logs, total, nil
}
