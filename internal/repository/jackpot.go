package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

type JackpotRepository struct {
	db *sql.DB
}

func NewJackpotRepository(db *sql.DB) *JackpotRepository {
	return &JackpotRepository{db: db}
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *JackpotRepository) GetByID(ctx context.Context, id string) (*core.Jackpot, error) {
	var j core.Jackpot
	var fingerprint sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner, status, created_at, fingerprint FROM jackpots WHERE id = $1`, id,
	).Scan(&j.ID, &j.Owner, &j.Status, &j.CreatedAt, &fingerprint)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("Jackpot", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get jackpot %s: %w", id, err)
	}
	j.Fingerprint = fingerprint.String

	fixtures, err := r.fixtures(ctx, id)
	if err != nil {
		return nil, err
	}
	j.Fixtures = fixtures
	return &j, nil
}

func (r *JackpotRepository) fixtures(ctx context.Context, jackpotID string) ([]core.Fixture, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, position, home_team_id, away_team_id, league_code, scheduled_at,
		       venue_lat, venue_lon, odds_home, odds_draw, odds_away, outcome
		FROM jackpot_fixtures
		WHERE jackpot_id = $1
		ORDER BY position
	`, jackpotID)
	if err != nil {
		return nil, fmt.Errorf("list fixtures %s: %w", jackpotID, err)
	}
	defer rows.Close()

	var fixtures []core.Fixture
	for rows.Next() {
		var f core.Fixture
		var lat, lon, oddsHome, oddsDraw, oddsAway sql.NullFloat64
		var outcome sql.NullString
		if err := rows.Scan(
			&f.ID, &f.Position, &f.HomeTeam, &f.AwayTeam, &f.League, &f.ScheduledAt,
			&lat, &lon, &oddsHome, &oddsDraw, &oddsAway, &outcome,
		); err != nil {
			return nil, fmt.Errorf("scan fixture: %w", err)
		}
		if lat.Valid {
			f.Lat = &lat.Float64
		}
		if lon.Valid {
			f.Lon = &lon.Float64
		}
		if oddsHome.Valid && oddsDraw.Valid && oddsAway.Valid {
			f.Odds = &core.MarketOdds{Home: oddsHome.Float64, Draw: oddsDraw.Float64, Away: oddsAway.Float64}
		}
		if outcome.Valid {
			o := core.Outcome(outcome.String)
			f.Outcome = &o
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, rows.Err()
}

func (r *JackpotRepository) Create(ctx context.Context, j core.Jackpot) (string, error) {
	id := j.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jackpots (id, owner, status, fingerprint) VALUES ($1, $2, $3, $4)`,
		id, j.Owner, j.Status, nullIfEmpty(j.Fingerprint),
	)
	if err != nil {
		return "", fmt.Errorf("create jackpot: %w", err)
	}
	return id, nil
}

func (r *JackpotRepository) AddFixture(ctx context.Context, jackpotID string, f core.Fixture) (string, error) {
	id := f.ID
	if id == "" {
		id = uuid.NewString()
	}

	var oddsHome, oddsDraw, oddsAway sql.NullFloat64
	if f.Odds != nil {
		oddsHome = sql.NullFloat64{Float64: f.Odds.Home, Valid: true}
		oddsDraw = sql.NullFloat64{Float64: f.Odds.Draw, Valid: true}
		oddsAway = sql.NullFloat64{Float64: f.Odds.Away, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jackpot_fixtures (
			id, jackpot_id, position, league_code, home_team_id, away_team_id, scheduled_at,
			venue_lat, venue_lon, odds_home, odds_draw, odds_away
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		id, jackpotID, f.Position, string(f.League), string(f.HomeTeam), string(f.AwayTeam), f.ScheduledAt,
		f.Lat, f.Lon, oddsHome, oddsDraw, oddsAway,
	)
	if err != nil {
		return "", fmt.Errorf("add fixture to jackpot %s: %w", jackpotID, err)
	}
	return id, nil
}

func (r *JackpotRepository) UpdateStatus(ctx context.Context, id string, status core.JackpotStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE jackpots SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update jackpot status %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFoundError("Jackpot", id)
	}
	return nil
}

func (r *JackpotRepository) SettleFixture(ctx context.Context, jackpotID, fixtureID string, outcome core.Outcome) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jackpot_fixtures SET outcome = $1 WHERE id = $2 AND jackpot_id = $3`,
		outcome, fixtureID, jackpotID,
	)
	if err != nil {
		return fmt.Errorf("settle fixture %s: %w", fixtureID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFoundError("Fixture", fixtureID)
	}
	return nil
}
