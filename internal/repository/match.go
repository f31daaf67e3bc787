package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

type MatchRepository struct {
	db *sql.DB
}

func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// buildFilter translates a core.MatchFilter into a WHERE clause and its
// positional args, mirroring the teacher's dynamic $N filter-building.
func buildFilter(filter core.MatchFilter) (string, []any) {
	var clauses []string
	var args []any

	clauses = append(clauses, fmt.Sprintf("league_code = $%d", len(args)+1))
	args = append(args, string(filter.League))

	if filter.Before != nil {
		clauses = append(clauses, fmt.Sprintf("played_at < $%d", len(args)+1))
		args = append(args, *filter.Before)
	}

	if len(filter.Seasons) > 0 {
		clauses = append(clauses, fmt.Sprintf("season = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.Seasons))
	}

	return strings.Join(clauses, " AND "), args
}

func (r *MatchRepository) List(ctx context.Context, filter core.MatchFilter) ([]core.Match, error) {
	where, args := buildFilter(filter)
	query := `
		SELECT league_code, season, played_at, home_team_id, away_team_id, home_goals, away_goals,
		       odds_home, odds_draw, odds_away
		FROM matches
		WHERE ` + where + `
		ORDER BY played_at DESC
	`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []core.Match
	for rows.Next() {
		var m core.Match
		var oddsHome, oddsDraw, oddsAway sql.NullFloat64
		if err := rows.Scan(
			&m.League, &m.Season, &m.Date, &m.HomeTeam, &m.AwayTeam, &m.HomeGoals, &m.AwayGoals,
			&oddsHome, &oddsDraw, &oddsAway,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if oddsHome.Valid && oddsDraw.Valid && oddsAway.Valid {
			m.Odds = &core.MarketOdds{Home: oddsHome.Float64, Draw: oddsDraw.Float64, Away: oddsAway.Float64}
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *MatchRepository) Count(ctx context.Context, filter core.MatchFilter) (int, error) {
	where, args := buildFilter(filter)
	query := `SELECT COUNT(*) FROM matches WHERE ` + where

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return count, nil
}

// Insert persists a batch of historical results. Not part of
// core.MatchRepository (ingestion is a future collaborator's job per
// spec.md §9) but used by this package's tests to seed historical
// matches.
func (r *MatchRepository) Insert(ctx context.Context, matches []core.Match) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert matches: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO matches (league_code, season, played_at, home_team_id, away_team_id, home_goals, away_goals,
		                      odds_home, odds_draw, odds_away)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("insert matches: prepare: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		var oddsHome, oddsDraw, oddsAway sql.NullFloat64
		if m.Odds != nil {
			oddsHome = sql.NullFloat64{Float64: m.Odds.Home, Valid: true}
			oddsDraw = sql.NullFloat64{Float64: m.Odds.Draw, Valid: true}
			oddsAway = sql.NullFloat64{Float64: m.Odds.Away, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			string(m.League), m.Season, m.Date, string(m.HomeTeam), string(m.AwayTeam), m.HomeGoals, m.AwayGoals,
			oddsHome, oddsDraw, oddsAway,
		); err != nil {
			return fmt.Errorf("insert match %s v %s: %w", m.HomeTeam, m.AwayTeam, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert matches: commit: %w", err)
	}
	return nil
}
