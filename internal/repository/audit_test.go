package repository

import (
	"context"
	"database/sql"
	"testing"
)

func TestAuditRepository(t *testing.T) {
	repo := NewAuditRepository(testDB)
	ctx := context.Background()

	t.Run("Record with a detail map inserts without error", func(t *testing.T) {
		err := repo.Record(ctx, "create_jackpot", "alice", "jackpot-123", map[string]any{"fixture_count": 3})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	})

	t.Run("Record with a nil detail map stores SQL NULL rather than erroring", func(t *testing.T) {
		err := repo.Record(ctx, "activate_model", "bob", "model-v1", nil)
		if err != nil {
			t.Fatalf("record with nil detail: %v", err)
		}

		var detail sql.NullString
		row := testDB.QueryRowContext(ctx,
			`SELECT detail::text FROM audit_log WHERE action = 'activate_model' AND subject_id = 'model-v1' ORDER BY id DESC LIMIT 1`,
		)
		if err := row.Scan(&detail); err != nil {
			t.Fatalf("scan detail: %v", err)
		}
		if detail.Valid {
			t.Errorf("expected SQL NULL for nil detail, got %q", detail.String)
		}
	})
}
