package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

// MetaRepository implements core.MetaRepository backed by PostgreSQL.
type MetaRepository struct {
	db *sql.DB
}

func NewMetaRepository(db *sql.DB) *MetaRepository {
	return &MetaRepository{db: db}
}

func (r *MetaRepository) SeasonCoverage(ctx context.Context) ([]core.LeagueCoverage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT league_code, COUNT(*), MIN(played_at), MAX(played_at)
		FROM matches
		GROUP BY league_code
		ORDER BY league_code
	`)
	if err != nil {
		return nil, fmt.Errorf("query season coverage: %w", err)
	}
	defer rows.Close()

	var coverage []core.LeagueCoverage
	for rows.Next() {
		var c core.LeagueCoverage
		var league string
		if err := rows.Scan(&league, &c.MatchCount, &c.EarliestMatch, &c.LatestMatch); err != nil {
			return nil, fmt.Errorf("scan season coverage: %w", err)
		}
		c.League = core.LeagueCode(league)
		coverage = append(coverage, c)
	}
	return coverage, rows.Err()
}

func (r *MetaRepository) AppliedMigrations(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM schema_migrations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query schema migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan migration name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
