package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

// LogRepository handles persistence for the audit trail.
type LogRepository struct {
	db *pgxpool.Pool
}

func NewLogRepository(db *pgxpool.Pool) *LogRepository {
	return &LogRepository{db: db}
}

func (r *LogRepository) Create(ctx context.Context, l *model.Log) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO logs (id, user_id, action, created_at) VALUES ($1, $2, $3, $4)`,
		l.ID, l.UserID, l.Action, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

// List returns a page of audit entries, newest first, with the actor's name.
func (r *LogRepository) List(ctx context.Context, p model.PageRequest) ([]model.Log, int, error) {
	var c conditions
	if p.Search != "" {
		c.add(`(l.action ILIKE '%%' || $%[1]d || '%%' OR u.username ILIKE '%%' || $%[1]d || '%%')`, p.Search)
	}

	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM logs l JOIN users u ON u.id = l.user_id`+c.where(), c.args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count logs: %w", err)
	}

	suffix, args := c.page(p.Limit, p.Offset())
	rows, err := r.db.Query(ctx,
		`SELECT l.id, l.user_id, l.action, l.created_at, u.username
		 FROM logs l JOIN users u ON u.id = l.user_id`+c.where()+
			` ORDER BY l.created_at DESC, l.id`+suffix,
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var logs []model.Log
	for rows.Next() {
		var l model.Log
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.CreatedAt, &l.Username); err != nil {
			return nil, 0, fmt.Errorf("scan log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}
