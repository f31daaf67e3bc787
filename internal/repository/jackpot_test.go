package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

func TestJackpotRepository(t *testing.T) {
	seedLeague(t, "JACKPOT_LEAGUE")
	seedTeam(t, "jackpot-home", "JACKPOT_LEAGUE", "home-fc", "Home FC")
	seedTeam(t, "jackpot-away", "JACKPOT_LEAGUE", "away-fc", "Away FC")

	repo := NewJackpotRepository(testDB)
	ctx := context.Background()

	t.Run("Create, AddFixture and GetByID round-trip ordered legs", func(t *testing.T) {
		id, err := repo.Create(ctx, core.Jackpot{Owner: "alice", Status: core.JackpotDraft, CreatedAt: time.Now().UTC()})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		lat, lon := 51.5, -0.1
		fixture := core.Fixture{
			Position: 1, League: "JACKPOT_LEAGUE", HomeTeam: "jackpot-home", AwayTeam: "jackpot-away",
			ScheduledAt: time.Now().UTC().Add(24 * time.Hour), Lat: &lat, Lon: &lon,
			Odds: &core.MarketOdds{Home: 2.1, Draw: 3.3, Away: 3.6},
		}
		fixtureID, err := repo.AddFixture(ctx, id, fixture)
		if err != nil {
			t.Fatalf("add fixture: %v", err)
		}

		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("get by id: %v", err)
		}
		if got.Owner != "alice" || got.Status != core.JackpotDraft {
			t.Errorf("unexpected jackpot: %+v", *got)
		}
		if len(got.Fixtures) != 1 {
			t.Fatalf("expected 1 fixture, got %d", len(got.Fixtures))
		}
		leg := got.Fixtures[0]
		if leg.ID != fixtureID || leg.Odds == nil || leg.Odds.Home != 2.1 {
			t.Errorf("unexpected fixture: %+v", leg)
		}
		if leg.Lat == nil || *leg.Lat != 51.5 {
			t.Errorf("expected venue lat to round-trip, got %+v", leg.Lat)
		}
	})

	t.Run("UpdateStatus transitions the jackpot lifecycle", func(t *testing.T) {
		id, err := repo.Create(ctx, core.Jackpot{Owner: "bob", Status: core.JackpotDraft, CreatedAt: time.Now().UTC()})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := repo.UpdateStatus(ctx, id, core.JackpotSubmitted); err != nil {
			t.Fatalf("update status: %v", err)
		}
		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("get by id: %v", err)
		}
		if got.Status != core.JackpotSubmitted {
			t.Errorf("expected submitted status, got %s", got.Status)
		}
	})

	t.Run("UpdateStatus on an unknown jackpot returns a NotFoundError", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, "does-not-exist", core.JackpotSettled)
		if !core.IsNotFound(err) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
	})

	t.Run("SettleFixture records the terminal outcome", func(t *testing.T) {
		id, err := repo.Create(ctx, core.Jackpot{Owner: "carol", Status: core.JackpotSubmitted, CreatedAt: time.Now().UTC()})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		fixture := core.Fixture{
			Position: 1, League: "JACKPOT_LEAGUE", HomeTeam: "jackpot-home", AwayTeam: "jackpot-away",
			ScheduledAt: time.Now().UTC(),
		}
		fixtureID, err := repo.AddFixture(ctx, id, fixture)
		if err != nil {
			t.Fatalf("add fixture: %v", err)
		}

		if err := repo.SettleFixture(ctx, id, fixtureID, core.OutcomeHome); err != nil {
			t.Fatalf("settle fixture: %v", err)
		}

		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("get by id: %v", err)
		}
		if got.Fixtures[0].Outcome == nil || *got.Fixtures[0].Outcome != core.OutcomeHome {
			t.Errorf("expected settled outcome H, got %+v", got.Fixtures[0].Outcome)
		}
	})

	t.Run("GetByID on an unknown jackpot returns a NotFoundError", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "does-not-exist")
		if !core.IsNotFound(err) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
	})
}
