package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

type CalibrationRepository struct {
	db *sql.DB
}

func NewCalibrationRepository(db *sql.DB) *CalibrationRepository {
	return &CalibrationRepository{db: db}
}

// SaveCurves persists one isotonic curve per outcome plus the draw curve,
// which is fit separately (spec.md's draw-specific calibration pipeline)
// but stored in the same table keyed by outcome 'D'.
func (r *CalibrationRepository) SaveCurves(ctx context.Context, modelVersionID string, curves map[core.Outcome]core.CalibrationCurve, drawCurve core.CalibrationCurve) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save curves %s: begin: %w", modelVersionID, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO calibration_curves (model_version_id, outcome, breakpoints, curve_values, method, sample_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (model_version_id, outcome) DO UPDATE SET
			breakpoints = EXCLUDED.breakpoints, curve_values = EXCLUDED.curve_values,
			method = EXCLUDED.method, sample_count = EXCLUDED.sample_count
	`)
	if err != nil {
		return fmt.Errorf("save curves %s: prepare: %w", modelVersionID, err)
	}
	defer stmt.Close()

	all := make(map[core.Outcome]core.CalibrationCurve, len(curves)+1)
	for k, v := range curves {
		all[k] = v
	}
	if drawCurve.Method != "" {
		all[core.OutcomeDraw] = drawCurve
	}

	for outcome, curve := range all {
		if _, err := stmt.ExecContext(ctx,
			modelVersionID, string(outcome), pq.Array(curve.Breakpoints), pq.Array(curve.Values),
			curve.Method, curve.SampleCount,
		); err != nil {
			return fmt.Errorf("save curve %s/%s: %w", modelVersionID, outcome, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save curves %s: commit: %w", modelVersionID, err)
	}
	return nil
}

func (r *CalibrationRepository) GetLatestReport(ctx context.Context, modelVersionID string) (*core.CalibrationReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT outcome, breakpoints, curve_values, method, sample_count, brier, log_loss
		FROM calibration_curves
		WHERE model_version_id = $1
	`, modelVersionID)
	if err != nil {
		return nil, fmt.Errorf("get calibration report %s: %w", modelVersionID, err)
	}
	defer rows.Close()

	report := &core.CalibrationReport{Curves: make(map[core.Outcome]core.CalibrationCurve)}
	var found bool
	for rows.Next() {
		var outcome string
		var breakpoints, values pq.Float64Array
		var curve core.CalibrationCurve
		var brier, logLoss sql.NullFloat64

		if err := rows.Scan(&outcome, &breakpoints, &values, &curve.Method, &curve.SampleCount, &brier, &logLoss); err != nil {
			return nil, fmt.Errorf("scan calibration curve: %w", err)
		}
		curve.Breakpoints = []float64(breakpoints)
		curve.Values = []float64(values)
		report.Curves[core.Outcome(outcome)] = curve
		if brier.Valid {
			report.Brier = brier.Float64
		}
		if logLoss.Valid {
			report.LogLoss = logLoss.Float64
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, core.NewNotFoundError("CalibrationReport", modelVersionID)
	}
	return report, nil
}
