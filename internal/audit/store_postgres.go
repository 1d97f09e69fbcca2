package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresSink appends audit entries to the audit_log table.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Append(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (occurred_at, actor, entity_id, action, old_status, new_status, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.Timestamp, entry.Actor, entry.EntityID, string(entry.Action),
		entry.OldStatus, entry.NewStatus, entry.Details,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
