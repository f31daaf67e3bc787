package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

func seedPredictionFixture(t *testing.T) (fixtureID, modelVersionID string) {
	t.Helper()
	ctx := context.Background()

	seedLeague(t, "PRED_LEAGUE")
	seedTeam(t, "pred-home", "PRED_LEAGUE", "home-fc", "Home FC")
	seedTeam(t, "pred-away", "PRED_LEAGUE", "away-fc", "Away FC")

	jackpots := NewJackpotRepository(testDB)
	id, err := jackpots.Create(ctx, core.Jackpot{Owner: "pred-owner", Status: core.JackpotDraft, CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("create jackpot: %v", err)
	}
	fixtureID, err = jackpots.AddFixture(ctx, id, core.Fixture{
		Position: 1, League: "PRED_LEAGUE", HomeTeam: "pred-home", AwayTeam: "pred-away",
		ScheduledAt: time.Now().UTC().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("add fixture: %v", err)
	}

	models := NewModelRepository(testDB)
	mv := sampleModelVersion("pred-model-v1")
	mv.Type = "pred-test"
	if err := models.Save(ctx, mv); err != nil {
		t.Fatalf("save model version: %v", err)
	}

	return fixtureID, mv.VersionTag
}

func TestPredictionRepository(t *testing.T) {
	fixtureID, modelVersionID := seedPredictionFixture(t)
	repo := NewPredictionRepository(testDB)
	ctx := context.Background()

	prediction := core.Prediction{
		FixtureID:      fixtureID,
		ModelVersionID: modelVersionID,
		SetTag:         "A",
		Triplet:        core.Triplet{Home: 0.45, Draw: 0.28, Away: 0.27},
		ExpectedGoalsH: 1.6,
		ExpectedGoalsA: 1.1,
		MarketTriplet:  &core.Triplet{Home: 0.42, Draw: 0.3, Away: 0.28},
	}
	explain := core.Explain{
		Adjustments: &core.DrawComponents{
			LeaguePrior: core.Present(1.05),
			EloSymmetry: core.Missing(),
			RawProduct:  1.05,
			TotalProduct: 1.05,
		},
	}

	t.Run("Save then GetByFixtureAndSet round-trips probabilities and draw components", func(t *testing.T) {
		if err := repo.Save(ctx, fixtureID, prediction, explain); err != nil {
			t.Fatalf("save: %v", err)
		}

		got, err := repo.GetByFixtureAndSet(ctx, fixtureID, "A")
		if err != nil {
			t.Fatalf("get by fixture and set: %v", err)
		}
		if got.Triplet != prediction.Triplet {
			t.Errorf("expected triplet %+v, got %+v", prediction.Triplet, got.Triplet)
		}
		if got.MarketTriplet == nil || *got.MarketTriplet != *prediction.MarketTriplet {
			t.Errorf("expected market triplet to round-trip, got %+v", got.MarketTriplet)
		}
		if got.DrawComponents == nil {
			t.Fatal("expected draw components to be persisted")
		}
		if !got.DrawComponents.LeaguePrior.Present || got.DrawComponents.LeaguePrior.Value != 1.05 {
			t.Errorf("expected league prior to round-trip, got %+v", got.DrawComponents.LeaguePrior)
		}
		if got.DrawComponents.EloSymmetry.Present {
			t.Errorf("expected elo symmetry to be marked missing, got %+v", got.DrawComponents.EloSymmetry)
		}
	})

	t.Run("Save overwrites rather than duplicating on a repeat call", func(t *testing.T) {
		updated := prediction
		updated.Triplet = core.Triplet{Home: 0.5, Draw: 0.25, Away: 0.25}
		if err := repo.Save(ctx, fixtureID, updated, core.Explain{}); err != nil {
			t.Fatalf("save update: %v", err)
		}

		all, err := repo.ListByFixture(ctx, fixtureID)
		if err != nil {
			t.Fatalf("list by fixture: %v", err)
		}
		count := 0
		for _, p := range all {
			if p.SetTag == "A" {
				count++
				if p.Triplet.Home != 0.5 {
					t.Errorf("expected overwritten triplet, got %+v", p.Triplet)
				}
			}
		}
		if count != 1 {
			t.Errorf("expected exactly one row for set A, got %d", count)
		}
	})

	t.Run("GetByFixtureAndSet on a missing set returns a NotFoundError", func(t *testing.T) {
		_, err := repo.GetByFixtureAndSet(ctx, fixtureID, "Z")
		if !core.IsNotFound(err) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
	})
}
