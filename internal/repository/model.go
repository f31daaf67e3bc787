package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

type ModelRepository struct {
	db *sql.DB
}

func NewModelRepository(db *sql.DB) *ModelRepository {
	return &ModelRepository{db: db}
}

const modelVersionColumns = `
	id, model_type, status, trained_at, training_matches, training_leagues, training_seasons,
	decay_rate, blend_alpha, home_advantage, rho, attack_strengths, defence_strengths, set_formula_version
`

func scanModelVersion(row interface{ Scan(...any) error }) (*core.ModelVersion, error) {
	var mv core.ModelVersion
	var leagues pq.StringArray
	var seasons pq.StringArray
	var attackJSON, defenceJSON []byte

	if err := row.Scan(
		&mv.VersionTag, &mv.Type, &mv.Status, &mv.TrainedAt, &mv.TrainingMatches, &leagues, &seasons,
		&mv.DecayRate, &mv.BlendAlpha, &mv.Parameters.HomeAdvantage, &mv.Parameters.Rho,
		&attackJSON, &defenceJSON, &mv.SetFormulaVersion,
	); err != nil {
		return nil, err
	}

	mv.TrainingLeagues = make([]core.LeagueCode, len(leagues))
	for i, l := range leagues {
		mv.TrainingLeagues[i] = core.LeagueCode(l)
	}
	mv.TrainingSeasons = []string(seasons)

	if err := json.Unmarshal(attackJSON, &mv.Parameters.Attack); err != nil {
		return nil, fmt.Errorf("unmarshal attack strengths: %w", err)
	}
	if err := json.Unmarshal(defenceJSON, &mv.Parameters.Defence); err != nil {
		return nil, fmt.Errorf("unmarshal defence strengths: %w", err)
	}
	return &mv, nil
}

func (r *ModelRepository) GetActive(ctx context.Context, modelType string) (*core.ModelVersion, error) {
	query := `SELECT ` + modelVersionColumns + ` FROM model_versions WHERE model_type = $1 AND status = 'active'`
	mv, err := scanModelVersion(r.db.QueryRowContext(ctx, query, modelType))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", core.ErrNoActiveModel, modelType)
	}
	if err != nil {
		return nil, fmt.Errorf("get active model %s: %w", modelType, err)
	}
	if err := r.attachCalibration(ctx, mv); err != nil {
		return nil, err
	}
	return mv, nil
}

func (r *ModelRepository) GetByVersion(ctx context.Context, versionTag string) (*core.ModelVersion, error) {
	query := `SELECT ` + modelVersionColumns + ` FROM model_versions WHERE id = $1`
	mv, err := scanModelVersion(r.db.QueryRowContext(ctx, query, versionTag))
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("ModelVersion", versionTag)
	}
	if err != nil {
		return nil, fmt.Errorf("get model version %s: %w", versionTag, err)
	}
	if err := r.attachCalibration(ctx, mv); err != nil {
		return nil, err
	}
	return mv, nil
}

func (r *ModelRepository) List(ctx context.Context, modelType string) ([]core.ModelVersion, error) {
	query := `SELECT ` + modelVersionColumns + ` FROM model_versions WHERE model_type = $1 ORDER BY trained_at DESC`
	rows, err := r.db.QueryContext(ctx, query, modelType)
	if err != nil {
		return nil, fmt.Errorf("list model versions %s: %w", modelType, err)
	}
	defer rows.Close()

	var versions []core.ModelVersion
	for rows.Next() {
		mv, err := scanModelVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model version: %w", err)
		}
		versions = append(versions, *mv)
	}
	return versions, rows.Err()
}

func (r *ModelRepository) Save(ctx context.Context, mv core.ModelVersion) error {
	leagues := make([]string, len(mv.TrainingLeagues))
	for i, l := range mv.TrainingLeagues {
		leagues[i] = string(l)
	}

	attackJSON, err := json.Marshal(mv.Parameters.Attack)
	if err != nil {
		return fmt.Errorf("marshal attack strengths: %w", err)
	}
	defenceJSON, err := json.Marshal(mv.Parameters.Defence)
	if err != nil {
		return fmt.Errorf("marshal defence strengths: %w", err)
	}

	query := `
		INSERT INTO model_versions (
			id, model_type, status, trained_at, training_matches, training_leagues, training_seasons,
			decay_rate, blend_alpha, home_advantage, rho, attack_strengths, defence_strengths, set_formula_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = r.db.ExecContext(ctx, query,
		mv.VersionTag, mv.Type, mv.Status, mv.TrainedAt, mv.TrainingMatches,
		pq.Array(leagues), pq.Array(mv.TrainingSeasons),
		mv.DecayRate, mv.BlendAlpha, mv.Parameters.HomeAdvantage, mv.Parameters.Rho,
		attackJSON, defenceJSON, mv.SetFormulaVersion,
	)
	if err != nil {
		return fmt.Errorf("save model version %s: %w", mv.VersionTag, err)
	}

	if mv.DrawCalibration.Method != "" || len(mv.Calibration) > 0 {
		calib := NewCalibrationRepository(r.db)
		if err := calib.SaveCurves(ctx, mv.VersionTag, mv.Calibration, mv.DrawCalibration); err != nil {
			return err
		}
	}
	return nil
}

// Activate performs the I6 compare-and-swap: archive modelType's current
// active version (if any) and promote versionTag in one serializable
// transaction. The partial unique index on (model_type) WHERE status =
// 'active' guarantees at most one winner when two activations race; the
// loser's UPDATE or commit fails with a unique violation or a
// serialization failure, which is reported as core.ErrActivationRaceLost.
func (r *ModelRepository) Activate(ctx context.Context, modelType, versionTag string) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("activate %s: begin: %w", versionTag, err)
	}
	defer tx.Rollback()

	raceLost := func(err error) bool {
		return isUniqueViolation(err) || strings.Contains(err.Error(), "could not serialize")
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM model_versions WHERE id = $1 AND model_type = $2)`,
		versionTag, modelType,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("activate %s: lookup: %w", versionTag, err)
	}
	if !exists {
		return core.NewNotFoundError("ModelVersion", versionTag)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE model_versions SET status = 'archived' WHERE model_type = $1 AND status = 'active' AND id != $2`,
		modelType, versionTag,
	); err != nil {
		if raceLost(err) {
			return fmt.Errorf("%w: %s", core.ErrActivationRaceLost, versionTag)
		}
		return fmt.Errorf("activate %s: archive previous: %w", versionTag, err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE model_versions SET status = 'active' WHERE id = $1 AND model_type = $2`,
		versionTag, modelType,
	)
	if err != nil {
		if raceLost(err) {
			return fmt.Errorf("%w: %s", core.ErrActivationRaceLost, versionTag)
		}
		return fmt.Errorf("activate %s: %w", versionTag, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate %s: rows affected: %w", versionTag, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrActivationRaceLost, versionTag)
	}

	if err := tx.Commit(); err != nil {
		if raceLost(err) {
			return fmt.Errorf("%w: %s", core.ErrActivationRaceLost, versionTag)
		}
		return fmt.Errorf("activate %s: commit: %w", versionTag, err)
	}
	return nil
}

func (r *ModelRepository) attachCalibration(ctx context.Context, mv *core.ModelVersion) error {
	calib := NewCalibrationRepository(r.db)
	report, err := calib.GetLatestReport(ctx, mv.VersionTag)
	if err != nil && !core.IsNotFound(err) {
		return fmt.Errorf("attach calibration %s: %w", mv.VersionTag, err)
	}
	if report != nil {
		mv.Calibration = report.Curves
		if d, ok := report.Curves[core.OutcomeDraw]; ok {
			mv.DrawCalibration = d
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation,
// the signal a lost I6 activation race surfaces as under the partial
// unique index when two transactions commit concurrently.
func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "duplicate key"))
}
