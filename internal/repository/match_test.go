package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

func TestMatchRepository(t *testing.T) {
	seedLeague(t, "MATCH_LEAGUE")
	seedTeam(t, "match-home", "MATCH_LEAGUE", "home-fc", "Home FC")
	seedTeam(t, "match-away", "MATCH_LEAGUE", "away-fc", "Away FC")

	repo := NewMatchRepository(testDB)
	ctx := context.Background()

	matches := []core.Match{
		{
			League: "MATCH_LEAGUE", Season: "2023-24", Date: time.Date(2023, 9, 1, 15, 0, 0, 0, time.UTC),
			HomeTeam: "match-home", AwayTeam: "match-away", HomeGoals: 2, AwayGoals: 1,
			Odds: &core.MarketOdds{Home: 1.8, Draw: 3.6, Away: 4.2},
		},
		{
			League: "MATCH_LEAGUE", Season: "2024-25", Date: time.Date(2024, 9, 1, 15, 0, 0, 0, time.UTC),
			HomeTeam: "match-home", AwayTeam: "match-away", HomeGoals: 0, AwayGoals: 0,
		},
	}
	if err := repo.Insert(ctx, matches); err != nil {
		t.Fatalf("insert: %v", err)
	}

	t.Run("List filters by league and returns odds when present", func(t *testing.T) {
		got, err := repo.List(ctx, core.MatchFilter{League: "MATCH_LEAGUE"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(got))
		}

		var withOdds, withoutOdds int
		for _, m := range got {
			if m.Odds != nil {
				withOdds++
			} else {
				withoutOdds++
			}
		}
		if withOdds != 1 || withoutOdds != 1 {
			t.Errorf("expected one match with odds and one without, got %d/%d", withOdds, withoutOdds)
		}
	})

	t.Run("List filters by season", func(t *testing.T) {
		got, err := repo.List(ctx, core.MatchFilter{League: "MATCH_LEAGUE", Seasons: []string{"2023-24"}})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].Season != "2023-24" {
			t.Errorf("expected exactly the 2023-24 match, got %+v", got)
		}
	})

	t.Run("List filters by cutoff", func(t *testing.T) {
		cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		got, err := repo.List(ctx, core.MatchFilter{League: "MATCH_LEAGUE", Before: &cutoff})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].Season != "2023-24" {
			t.Errorf("expected only the match before cutoff, got %+v", got)
		}
	})

	t.Run("Count matches List length", func(t *testing.T) {
		count, err := repo.Count(ctx, core.MatchFilter{League: "MATCH_LEAGUE"})
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 2 {
			t.Errorf("expected count 2, got %d", count)
		}
	})
}
