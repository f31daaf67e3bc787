package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stormlightlabs/fixtureline/internal/core"
)

// fakeJackpotRepository is a minimal in-memory core.JackpotRepository
// sufficient to exercise CreateJackpot without a database.
type fakeJackpotRepository struct {
	jackpots map[string]core.Jackpot
	fixtures map[string][]core.Fixture
}

func newFakeJackpotRepository() *fakeJackpotRepository {
	return &fakeJackpotRepository{jackpots: map[string]core.Jackpot{}, fixtures: map[string][]core.Fixture{}}
}

func (f *fakeJackpotRepository) GetByID(ctx context.Context, id string) (*core.Jackpot, error) {
	j, ok := f.jackpots[id]
	if !ok {
		return nil, core.NewNotFoundError("Jackpot", id)
	}
	j.Fixtures = f.fixtures[id]
	return &j, nil
}

func (f *fakeJackpotRepository) Create(ctx context.Context, j core.Jackpot) (string, error) {
	id := j.ID
	if id == "" {
		id = "jackpot-1"
	}
	f.jackpots[id] = j
	return id, nil
}

func (f *fakeJackpotRepository) AddFixture(ctx context.Context, jackpotID string, fx core.Fixture) (string, error) {
	f.fixtures[jackpotID] = append(f.fixtures[jackpotID], fx)
	return fx.ID, nil
}

func (f *fakeJackpotRepository) UpdateStatus(ctx context.Context, id string, status core.JackpotStatus) error {
	j := f.jackpots[id]
	j.Status = status
	f.jackpots[id] = j
	return nil
}

func (f *fakeJackpotRepository) SettleFixture(ctx context.Context, jackpotID, fixtureID string, outcome core.Outcome) error {
	return nil
}

// C7: CreateJackpot must compute and persist a jackpot-level fingerprint
// over the ordered fixture sequence, not leave it blank.
func TestCreateJackpot_PersistsFingerprint(t *testing.T) {
	jackpots := newFakeJackpotRepository()
	eng := New(Engine{Jackpots: jackpots})

	fixtures := []core.Fixture{
		{HomeTeam: "arsenal", AwayTeam: "chelsea", League: "ENG1", ScheduledAt: time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)},
		{HomeTeam: "liverpool", AwayTeam: "everton", League: "ENG1", ScheduledAt: time.Date(2025, 3, 2, 18, 0, 0, 0, time.UTC)},
	}

	id, err := eng.CreateJackpot(context.Background(), "owner-1", fixtures)
	if err != nil {
		t.Fatalf("CreateJackpot: %v", err)
	}

	stored := jackpots.jackpots[id]
	if stored.Fingerprint == "" {
		t.Fatal("expected CreateJackpot to persist a non-empty fingerprint")
	}

	want, err := core.FingerprintJackpot(fixtures)
	if err != nil {
		t.Fatalf("FingerprintJackpot: %v", err)
	}
	if stored.Fingerprint != want {
		t.Errorf("persisted fingerprint %q does not match FingerprintJackpot(fixtures) %q", stored.Fingerprint, want)
	}

	reordered := []core.Fixture{fixtures[1], fixtures[0]}
	id2, err := eng.CreateJackpot(context.Background(), "owner-1", reordered)
	if err != nil {
		t.Fatalf("CreateJackpot (reordered): %v", err)
	}
	if jackpots.jackpots[id2].Fingerprint == stored.Fingerprint {
		t.Error("permuting fixture order must change the persisted fingerprint")
	}
}

func TestCreateJackpot_RejectsEmptyFixtureList(t *testing.T) {
	eng := New(Engine{Jackpots: newFakeJackpotRepository()})
	if _, err := eng.CreateJackpot(context.Background(), "owner-1", nil); err == nil {
		t.Fatal("expected an error for an empty fixture list")
	}
}

// splitCalibrationHoldout must withhold the chronologically latest
// fraction of matches while still guaranteeing the fitter keeps at
// least minTrain matches.
func TestSplitCalibrationHoldout_CarvesLatestFractionWhenAboveMinTrain(t *testing.T) {
	matches := make([]core.Match, 0, 100)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		matches = append(matches, core.Match{Date: base.AddDate(0, 0, i), HomeGoals: 1, AwayGoals: 0})
	}

	train, holdout := splitCalibrationHoldout(matches, 40)
	if len(holdout) != 20 {
		t.Fatalf("expected a 20-match holdout (20%% of 100), got %d", len(holdout))
	}
	if len(train) != 80 {
		t.Fatalf("expected 80 training matches, got %d", len(train))
	}
	if !holdout[0].Date.After(train[len(train)-1].Date) {
		t.Error("holdout matches must be chronologically later than every training match")
	}
}

func TestSplitCalibrationHoldout_SkipsSplitWhenItWouldStarveTraining(t *testing.T) {
	matches := make([]core.Match, 0, 10)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		matches = append(matches, core.Match{Date: base.AddDate(0, 0, i)})
	}

	train, holdout := splitCalibrationHoldout(matches, 40)
	if len(holdout) != 0 {
		t.Errorf("expected no holdout when splitting would starve the fitter, got %d", len(holdout))
	}
	if len(train) != len(matches) {
		t.Errorf("expected every match to remain in the training set, got %d of %d", len(train), len(matches))
	}
}

func TestFitCalibration_EmptyHoldoutYieldsNilCurves(t *testing.T) {
	eng := New(Engine{})
	curves, drawCurve := eng.fitCalibration(core.TrainedParameters{}, nil)
	if curves != nil {
		t.Errorf("expected nil curves for an empty holdout, got %v", curves)
	}
	if drawCurve.Method != "" {
		t.Errorf("expected a zero-value draw curve for an empty holdout, got %+v", drawCurve)
	}
}

func TestObservedFloat(t *testing.T) {
	if observedFloat(core.OutcomeHome, core.OutcomeHome) != 1 {
		t.Error("observedFloat must report 1 when the outcomes match")
	}
	if observedFloat(core.OutcomeAway, core.OutcomeHome) != 0 {
		t.Error("observedFloat must report 0 when the outcomes differ")
	}
}
