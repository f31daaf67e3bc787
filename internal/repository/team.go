package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

type TeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetByCanonicalName(ctx context.Context, league core.LeagueCode, canonical string) (*core.Team, error) {
	query := `
		SELECT league_code, display_name, canonical_name, COALESCE(attack_strength, 0), COALESCE(defence_strength, 0)
		FROM teams
		WHERE league_code = $1 AND canonical_name = $2
	`
	var t core.Team
	err := r.db.QueryRowContext(ctx, query, string(league), canonical).Scan(
		&t.League, &t.DisplayName, &t.CanonicalName, &t.Attack, &t.Defence,
	)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("Team", canonical)
	}
	if err != nil {
		return nil, fmt.Errorf("get team %s/%s: %w", league, canonical, err)
	}
	return &t, nil
}

// Roster returns canonical_name -> team id for every team in a league,
// the lookup table the fuzzy matcher resolves display names against.
func (r *TeamRepository) Roster(ctx context.Context, league core.LeagueCode) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT canonical_name, id FROM teams WHERE league_code = $1`, string(league))
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", league, err)
	}
	defer rows.Close()

	roster := make(map[string]string)
	for rows.Next() {
		var canonical, id string
		if err := rows.Scan(&canonical, &id); err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		roster[canonical] = id
	}
	return roster, rows.Err()
}

func (r *TeamRepository) Upsert(ctx context.Context, t core.Team) error {
	query := `
		INSERT INTO teams (id, league_code, canonical_name, display_name, attack_strength, defence_strength)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (league_code, canonical_name) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			attack_strength = EXCLUDED.attack_strength,
			defence_strength = EXCLUDED.defence_strength
	`
	_, err := r.db.ExecContext(ctx, query,
		uuid.NewString(), string(t.League), t.CanonicalName, t.DisplayName, t.Attack, t.Defence,
	)
	if err != nil {
		return fmt.Errorf("upsert team %s: %w", t.CanonicalName, err)
	}
	return nil
}

// SaveStrengths persists the fitter's (C2) attack/defence output for every
// team named in the maps. Names that match no canonical_name in the
// league update no row and are skipped rather than erroring.
func (r *TeamRepository) SaveStrengths(ctx context.Context, league core.LeagueCode, attack, defence map[string]float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save strengths %s: begin: %w", league, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE teams SET attack_strength = $1, defence_strength = $2
		WHERE league_code = $3 AND canonical_name = $4
	`)
	if err != nil {
		return fmt.Errorf("save strengths %s: prepare: %w", league, err)
	}
	defer stmt.Close()

	for canonical, a := range attack {
		d := defence[canonical]
		if _, err := stmt.ExecContext(ctx, a, d, string(league), canonical); err != nil {
			return fmt.Errorf("save strengths %s/%s: %w", league, canonical, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save strengths %s: commit: %w", league, err)
	}
	return nil
}
