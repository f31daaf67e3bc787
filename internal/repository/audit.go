package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record appends one audit_log row. detail is marshalled to JSONB as-is;
// a nil map stores SQL NULL rather than the literal string "null".
func (r *AuditRepository) Record(ctx context.Context, action, actorID, subjectID string, detail map[string]any) error {
	var detailJSON []byte
	if detail != nil {
		var err error
		detailJSON, err = json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshal audit detail: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (action, actor_id, subject_id, detail) VALUES ($1, $2, $3, $4)`,
		action, actorID, subjectID, nullJSON(detailJSON),
	)
	if err != nil {
		return fmt.Errorf("record audit %s/%s: %w", action, subjectID, err)
	}
	return nil
}

func nullJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}
