package repository

import (
	"context"
	"testing"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

func TestTeamRepository(t *testing.T) {
	seedLeague(t, "TEAM_LEAGUE")
	repo := NewTeamRepository(testDB)
	ctx := context.Background()

	t.Run("Upsert then GetByCanonicalName round-trips", func(t *testing.T) {
		team := core.Team{
			League:        "TEAM_LEAGUE",
			CanonicalName: "arsenal",
			DisplayName:   "Arsenal",
			Attack:        1.2,
			Defence:       0.9,
		}
		if err := repo.Upsert(ctx, team); err != nil {
			t.Fatalf("upsert: %v", err)
		}

		got, err := repo.GetByCanonicalName(ctx, team.League, team.CanonicalName)
		if err != nil {
			t.Fatalf("get by canonical name: %v", err)
		}
		if got.DisplayName != team.DisplayName {
			t.Errorf("expected display name %q, got %q", team.DisplayName, got.DisplayName)
		}
	})

	t.Run("Roster maps canonical name to a stable id across upserts", func(t *testing.T) {
		team := core.Team{League: "TEAM_LEAGUE", CanonicalName: "chelsea", DisplayName: "Chelsea"}
		if err := repo.Upsert(ctx, team); err != nil {
			t.Fatalf("first upsert: %v", err)
		}
		roster, err := repo.Roster(ctx, "TEAM_LEAGUE")
		if err != nil {
			t.Fatalf("roster: %v", err)
		}
		id, ok := roster["chelsea"]
		if !ok {
			t.Fatal("expected chelsea in roster")
		}

		team.DisplayName = "Chelsea FC"
		if err := repo.Upsert(ctx, team); err != nil {
			t.Fatalf("second upsert: %v", err)
		}
		roster, err = repo.Roster(ctx, "TEAM_LEAGUE")
		if err != nil {
			t.Fatalf("roster after update: %v", err)
		}
		if roster["chelsea"] != id {
			t.Errorf("expected id to survive an update upsert, got %q want %q", roster["chelsea"], id)
		}
	})

	t.Run("SaveStrengths updates only teams present in the maps", func(t *testing.T) {
		if err := repo.Upsert(ctx, core.Team{League: "TEAM_LEAGUE", CanonicalName: "everton", DisplayName: "Everton"}); err != nil {
			t.Fatalf("upsert everton: %v", err)
		}
		if err := repo.Upsert(ctx, core.Team{League: "TEAM_LEAGUE", CanonicalName: "fulham", DisplayName: "Fulham"}); err != nil {
			t.Fatalf("upsert fulham: %v", err)
		}

		attack := map[string]float64{"everton": 1.05}
		defence := map[string]float64{"everton": 0.95}
		if err := repo.SaveStrengths(ctx, "TEAM_LEAGUE", attack, defence); err != nil {
			t.Fatalf("save strengths: %v", err)
		}

		everton, err := repo.GetByCanonicalName(ctx, "TEAM_LEAGUE", "everton")
		if err != nil {
			t.Fatalf("get everton: %v", err)
		}
		if everton.Attack != 1.05 || everton.Defence != 0.95 {
			t.Errorf("expected strengths to be saved, got %+v", *everton)
		}

		fulham, err := repo.GetByCanonicalName(ctx, "TEAM_LEAGUE", "fulham")
		if err != nil {
			t.Fatalf("get fulham: %v", err)
		}
		if fulham.Attack != 0 || fulham.Defence != 0 {
			t.Errorf("expected fulham's strengths untouched, got %+v", *fulham)
		}
	})

	t.Run("GetByCanonicalName on an unknown team returns a NotFoundError", func(t *testing.T) {
		_, err := repo.GetByCanonicalName(ctx, "TEAM_LEAGUE", "does-not-exist")
		if !core.IsNotFound(err) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
	})
}
