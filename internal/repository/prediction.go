package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

type PredictionRepository struct {
	db *sql.DB
}

func NewPredictionRepository(db *sql.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) Save(ctx context.Context, fixtureID string, p core.Prediction, explain core.Explain) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save prediction %s/%s: begin: %w", fixtureID, p.SetTag, err)
	}
	defer tx.Rollback()

	var marketHome, marketDraw, marketAway sql.NullFloat64
	if p.MarketTriplet != nil {
		marketHome = sql.NullFloat64{Float64: p.MarketTriplet.Home, Valid: true}
		marketDraw = sql.NullFloat64{Float64: p.MarketTriplet.Draw, Valid: true}
		marketAway = sql.NullFloat64{Float64: p.MarketTriplet.Away, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO predictions (
			fixture_id, model_version_id, set_tag, prob_home, prob_draw, prob_away,
			expected_goals_h, expected_goals_a, market_home, market_draw, market_away, heuristic
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (fixture_id, model_version_id, set_tag) DO UPDATE SET
			prob_home = EXCLUDED.prob_home, prob_draw = EXCLUDED.prob_draw, prob_away = EXCLUDED.prob_away,
			expected_goals_h = EXCLUDED.expected_goals_h, expected_goals_a = EXCLUDED.expected_goals_a,
			market_home = EXCLUDED.market_home, market_draw = EXCLUDED.market_draw, market_away = EXCLUDED.market_away
	`,
		fixtureID, p.ModelVersionID, string(p.SetTag), p.Triplet.Home, p.Triplet.Draw, p.Triplet.Away,
		p.ExpectedGoalsH, p.ExpectedGoalsA, marketHome, marketDraw, marketAway, p.Heuristic,
	)
	if err != nil {
		return fmt.Errorf("save prediction %s/%s: %w", fixtureID, p.SetTag, err)
	}

	if explain.Adjustments != nil {
		dc := explain.Adjustments
		_, err = tx.ExecContext(ctx, `
			INSERT INTO draw_components (
				fixture_id, model_version_id, set_tag, league_prior, elo_symmetry, h2h, weather,
				fatigue, referee, odds_drift, raw_product, total_product
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (fixture_id, model_version_id, set_tag) DO UPDATE SET
				league_prior = EXCLUDED.league_prior, elo_symmetry = EXCLUDED.elo_symmetry, h2h = EXCLUDED.h2h,
				weather = EXCLUDED.weather, fatigue = EXCLUDED.fatigue, referee = EXCLUDED.referee,
				odds_drift = EXCLUDED.odds_drift, raw_product = EXCLUDED.raw_product, total_product = EXCLUDED.total_product
		`,
			fixtureID, p.ModelVersionID, string(p.SetTag),
			nullable(dc.LeaguePrior), nullable(dc.EloSymmetry), nullable(dc.H2H), nullable(dc.Weather),
			nullable(dc.Fatigue), nullable(dc.Referee), nullable(dc.OddsDrift), dc.RawProduct, dc.TotalProduct,
		)
		if err != nil {
			return fmt.Errorf("save draw components %s/%s: %w", fixtureID, p.SetTag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save prediction %s/%s: commit: %w", fixtureID, p.SetTag, err)
	}
	return nil
}

func nullable(c core.ComponentValue) sql.NullFloat64 {
	if !c.Present {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: c.Value, Valid: true}
}

func (r *PredictionRepository) GetByFixtureAndSet(ctx context.Context, fixtureID string, tag core.SetTag) (*core.Prediction, error) {
	query := `
		SELECT fixture_id, model_version_id, set_tag, prob_home, prob_draw, prob_away,
		       expected_goals_h, expected_goals_a, market_home, market_draw, market_away, heuristic, created_at
		FROM predictions
		WHERE fixture_id = $1 AND set_tag = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	p, err := scanPrediction(r.db.QueryRowContext(ctx, query, fixtureID, string(tag)))
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("Prediction", fixtureID+"/"+string(tag))
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction %s/%s: %w", fixtureID, tag, err)
	}

	dc, err := r.drawComponents(ctx, fixtureID, p.ModelVersionID, string(tag))
	if err != nil {
		return nil, err
	}
	p.DrawComponents = dc
	return p, nil
}

func (r *PredictionRepository) ListByFixture(ctx context.Context, fixtureID string) ([]core.Prediction, error) {
	query := `
		SELECT fixture_id, model_version_id, set_tag, prob_home, prob_draw, prob_away,
		       expected_goals_h, expected_goals_a, market_home, market_draw, market_away, heuristic, created_at
		FROM predictions
		WHERE fixture_id = $1
		ORDER BY set_tag
	`
	rows, err := r.db.QueryContext(ctx, query, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("list predictions %s: %w", fixtureID, err)
	}
	defer rows.Close()

	var predictions []core.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		predictions = append(predictions, *p)
	}
	return predictions, rows.Err()
}

func scanPrediction(row interface{ Scan(...any) error }) (*core.Prediction, error) {
	var p core.Prediction
	var marketHome, marketDraw, marketAway sql.NullFloat64

	if err := row.Scan(
		&p.FixtureID, &p.ModelVersionID, &p.SetTag, &p.Triplet.Home, &p.Triplet.Draw, &p.Triplet.Away,
		&p.ExpectedGoalsH, &p.ExpectedGoalsA, &marketHome, &marketDraw, &marketAway, &p.Heuristic, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	if marketHome.Valid && marketDraw.Valid && marketAway.Valid {
		p.MarketTriplet = &core.Triplet{Home: marketHome.Float64, Draw: marketDraw.Float64, Away: marketAway.Float64}
	}
	return &p, nil
}

func (r *PredictionRepository) drawComponents(ctx context.Context, fixtureID, modelVersionID, setTag string) (*core.DrawComponents, error) {
	query := `
		SELECT league_prior, elo_symmetry, h2h, weather, fatigue, referee, odds_drift, raw_product, total_product
		FROM draw_components
		WHERE fixture_id = $1 AND model_version_id = $2 AND set_tag = $3
	`
	var leaguePrior, eloSymmetry, h2h, weather, fatigue, referee, oddsDrift sql.NullFloat64
	var dc core.DrawComponents
	err := r.db.QueryRowContext(ctx, query, fixtureID, modelVersionID, setTag).Scan(
		&leaguePrior, &eloSymmetry, &h2h, &weather, &fatigue, &referee, &oddsDrift, &dc.RawProduct, &dc.TotalProduct,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get draw components %s/%s: %w", fixtureID, setTag, err)
	}

	dc.LeaguePrior = fromNullable(leaguePrior)
	dc.EloSymmetry = fromNullable(eloSymmetry)
	dc.H2H = fromNullable(h2h)
	dc.Weather = fromNullable(weather)
	dc.Fatigue = fromNullable(fatigue)
	dc.Referee = fromNullable(referee)
	dc.OddsDrift = fromNullable(oddsDrift)
	return &dc, nil
}

func fromNullable(n sql.NullFloat64) core.ComponentValue {
	if !n.Valid {
		return core.Missing()
	}
	return core.Present(n.Float64)
}
