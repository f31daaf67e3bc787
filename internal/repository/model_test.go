package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

func sampleModelVersion(tag string) core.ModelVersion {
	return core.ModelVersion{
		VersionTag:      tag,
		Type:            "1x2",
		Status:          core.ModelArchived,
		TrainedAt:       time.Now().UTC(),
		TrainingMatches: 100,
		TrainingLeagues: []core.LeagueCode{"MODEL_LEAGUE"},
		TrainingSeasons: []string{"2023-24"},
		DecayRate:       0.0018,
		BlendAlpha:      0.35,
		Parameters: core.TrainedParameters{
			HomeAdvantage: 0.32,
			Rho:           -0.1,
			Attack:        map[string]float64{"home-fc": 1.1},
			Defence:       map[string]float64{"home-fc": 0.9},
		},
		SetFormulaVersion: "v1",
	}
}

func TestModelRepository(t *testing.T) {
	repo := NewModelRepository(testDB)
	ctx := context.Background()

	t.Run("Save then GetByVersion round-trips attack/defence maps and leagues", func(t *testing.T) {
		mv := sampleModelVersion("model-v1")
		if err := repo.Save(ctx, mv); err != nil {
			t.Fatalf("save: %v", err)
		}

		got, err := repo.GetByVersion(ctx, "model-v1")
		if err != nil {
			t.Fatalf("get by version: %v", err)
		}
		if got.Parameters.Attack["home-fc"] != 1.1 {
			t.Errorf("expected attack strength to round-trip, got %+v", got.Parameters.Attack)
		}
		if len(got.TrainingLeagues) != 1 || got.TrainingLeagues[0] != "MODEL_LEAGUE" {
			t.Errorf("expected training leagues to round-trip, got %+v", got.TrainingLeagues)
		}
	})

	t.Run("GetActive returns ErrNoActiveModel when nothing is active", func(t *testing.T) {
		_, err := repo.GetActive(ctx, "no-such-model-type")
		if err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("Activate promotes a version and archives the previous active one", func(t *testing.T) {
		first := sampleModelVersion("model-activate-1")
		first.Type = "activation-test"
		second := sampleModelVersion("model-activate-2")
		second.Type = "activation-test"

		if err := repo.Save(ctx, first); err != nil {
			t.Fatalf("save first: %v", err)
		}
		if err := repo.Save(ctx, second); err != nil {
			t.Fatalf("save second: %v", err)
		}

		if err := repo.Activate(ctx, "activation-test", "model-activate-1"); err != nil {
			t.Fatalf("activate first: %v", err)
		}
		active, err := repo.GetActive(ctx, "activation-test")
		if err != nil {
			t.Fatalf("get active: %v", err)
		}
		if active.VersionTag != "model-activate-1" {
			t.Errorf("expected model-activate-1 active, got %s", active.VersionTag)
		}

		if err := repo.Activate(ctx, "activation-test", "model-activate-2"); err != nil {
			t.Fatalf("activate second: %v", err)
		}
		active, err = repo.GetActive(ctx, "activation-test")
		if err != nil {
			t.Fatalf("get active after second activation: %v", err)
		}
		if active.VersionTag != "model-activate-2" {
			t.Errorf("expected model-activate-2 active, got %s", active.VersionTag)
		}

		archived, err := repo.GetByVersion(ctx, "model-activate-1")
		if err != nil {
			t.Fatalf("get archived version: %v", err)
		}
		if archived.Status != core.ModelArchived {
			t.Errorf("expected model-activate-1 to be archived, got %s", archived.Status)
		}
	})

	t.Run("concurrent Activate calls for the same model_type leave exactly one winner", func(t *testing.T) {
		a := sampleModelVersion("model-race-a")
		a.Type = "race-test"
		b := sampleModelVersion("model-race-b")
		b.Type = "race-test"
		if err := repo.Save(ctx, a); err != nil {
			t.Fatalf("save a: %v", err)
		}
		if err := repo.Save(ctx, b); err != nil {
			t.Fatalf("save b: %v", err)
		}

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs[0] = repo.Activate(ctx, "race-test", "model-race-a")
		}()
		go func() {
			defer wg.Done()
			errs[1] = repo.Activate(ctx, "race-test", "model-race-b")
		}()
		wg.Wait()

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
			}
		}
		if successes != 1 {
			t.Errorf("expected exactly one winning activation, got %d (errs=%v)", successes, errs)
		}

		versions, err := repo.List(ctx, "race-test")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		activeCount := 0
		for _, v := range versions {
			if v.Status == core.ModelActive {
				activeCount++
			}
		}
		if activeCount != 1 {
			t.Errorf("expected exactly one active version after the race, got %d", activeCount)
		}
	})

	t.Run("Activate on an unknown version returns a NotFoundError", func(t *testing.T) {
		err := repo.Activate(ctx, "activation-test", "does-not-exist")
		if !core.IsNotFound(err) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
	})
}
