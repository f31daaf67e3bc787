// Package repository implements the internal/core persistence
// interfaces against PostgreSQL, following the teacher's pattern of one
// struct per aggregate wrapping *sql.DB with plain $N-placeholder SQL.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

type LeagueRepository struct {
	db *sql.DB
}

func NewLeagueRepository(db *sql.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

const leagueColumns = `code, country, tier, average_draw_rate, home_advantage_prior, active`

func scanLeague(row interface{ Scan(...any) error }) (*core.League, error) {
	var l core.League
	if err := row.Scan(&l.Code, &l.Country, &l.Tier, &l.AverageDrawRate, &l.HomeAdvantagePrior, &l.Active); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LeagueRepository) GetByCode(ctx context.Context, code core.LeagueCode) (*core.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE code = $1`
	l, err := scanLeague(r.db.QueryRowContext(ctx, query, string(code)))
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("League", string(code))
	}
	if err != nil {
		return nil, fmt.Errorf("get league %s: %w", code, err)
	}
	return l, nil
}

func (r *LeagueRepository) List(ctx context.Context, onlyActive bool) ([]core.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues`
	if onlyActive {
		query += ` WHERE active`
	}
	query += ` ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	defer rows.Close()

	var leagues []core.League
	for rows.Next() {
		l, err := scanLeague(rows)
		if err != nil {
			return nil, fmt.Errorf("scan league: %w", err)
		}
		leagues = append(leagues, *l)
	}
	return leagues, rows.Err()
}

func (r *LeagueRepository) Upsert(ctx context.Context, l core.League) error {
	query := `
		INSERT INTO leagues (code, name, country, tier, average_draw_rate, home_advantage_prior, active)
		VALUES ($1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE SET
			country = EXCLUDED.country,
			tier = EXCLUDED.tier,
			average_draw_rate = EXCLUDED.average_draw_rate,
			home_advantage_prior = EXCLUDED.home_advantage_prior,
			active = EXCLUDED.active
	`
	_, err := r.db.ExecContext(ctx, query,
		string(l.Code), l.Country, l.Tier, l.AverageDrawRate, l.HomeAdvantagePrior, l.Active,
	)
	if err != nil {
		return fmt.Errorf("upsert league %s: %w", l.Code, err)
	}
	return nil
}
