package core

import (
	"context"
	"time"
)

// Pagination bounds a list query.
type Pagination struct {
	Limit  int
	Offset int
}

// LeagueRepository manages league metadata and structural priors.
type LeagueRepository interface {
	GetByCode(ctx context.Context, code LeagueCode) (*League, error)
	List(ctx context.Context, onlyActive bool) ([]League, error)
	Upsert(ctx context.Context, l League) error
}

// TeamRepository manages per-league team rosters and their fitted
// strengths.
type TeamRepository interface {
	GetByCanonicalName(ctx context.Context, league LeagueCode, canonical string) (*Team, error)
	Roster(ctx context.Context, league LeagueCode) (map[string]string, error) // canonical -> team id
	Upsert(ctx context.Context, t Team) error
	SaveStrengths(ctx context.Context, league LeagueCode, attack, defence map[string]float64) error
}

// MatchFilter constrains MatchRepository.List queries, most importantly
// by a cutoff date so training can enforce I4/P4 (no signal leakage).
type MatchFilter struct {
	League   LeagueCode
	Before   *time.Time
	Seasons  []string
	Pagination
}

// MatchRepository provides historical results for fitting.
type MatchRepository interface {
	List(ctx context.Context, filter MatchFilter) ([]Match, error)
	Count(ctx context.Context, filter MatchFilter) (int, error)
}

// ModelRepository manages trained model versions and their lifecycle.
type ModelRepository interface {
	GetActive(ctx context.Context, modelType string) (*ModelVersion, error)
	GetByVersion(ctx context.Context, versionTag string) (*ModelVersion, error)
	List(ctx context.Context, modelType string) ([]ModelVersion, error)
	Save(ctx context.Context, mv ModelVersion) error
	// Activate performs a compare-and-swap: it atomically demotes the
	// current active version of modelType (if any) to archived and
	// promotes versionTag to active, returning ErrActivationRaceLost if
	// a concurrent activation already won (I6).
	Activate(ctx context.Context, modelType, versionTag string) error
}

// JackpotRepository manages jackpot tickets and their fixtures.
type JackpotRepository interface {
	GetByID(ctx context.Context, id string) (*Jackpot, error)
	Create(ctx context.Context, j Jackpot) (string, error)
	AddFixture(ctx context.Context, jackpotID string, f Fixture) (string, error)
	UpdateStatus(ctx context.Context, id string, status JackpotStatus) error
	SettleFixture(ctx context.Context, jackpotID, fixtureID string, outcome Outcome) error
}

// PredictionRepository persists the derived, recomputable predictions
// and their explain-records (I7).
type PredictionRepository interface {
	Save(ctx context.Context, fixtureID string, p Prediction, explain Explain) error
	GetByFixtureAndSet(ctx context.Context, fixtureID string, tag SetTag) (*Prediction, error)
	ListByFixture(ctx context.Context, fixtureID string) ([]Prediction, error)
}

// CalibrationRepository persists fitted calibration curves and reports.
type CalibrationRepository interface {
	SaveCurves(ctx context.Context, modelVersionID string, curves map[Outcome]CalibrationCurve, drawCurve CalibrationCurve) error
	GetLatestReport(ctx context.Context, modelVersionID string) (*CalibrationReport, error)
}

// AuditRepository records audit-log entries for mutating operations
// (training runs, activations, jackpot settlement).
type AuditRepository interface {
	Record(ctx context.Context, action, actorID, subjectID string, detail map[string]any) error
}

// LeagueCoverage summarizes the span and volume of historical matches
// loaded for one league, used by the status surface to show how much
// training signal is on hand before a fit is attempted.
type LeagueCoverage struct {
	League        LeagueCode
	MatchCount    int
	EarliestMatch time.Time
	LatestMatch   time.Time
}

// MetaRepository reports dataset-level bookkeeping that is neither a
// league, a team, nor a match: coverage windows and applied schema
// migrations. It backs the CLI/HTTP status surface, not the fitting
// or prediction path.
type MetaRepository interface {
	SeasonCoverage(ctx context.Context) ([]LeagueCoverage, error)
	AppliedMigrations(ctx context.Context) ([]string, error)
}

// SideDataProvider is the external collaborator that resolves the
// structural side-information the draw adjuster (C4) consumes: Elo
// ratings, head-to-head history, weather forecasts, rest days, referee
// assignments, and odds-drift. Every method may return a SideData with
// some or all fields nil; the adjuster treats missing fields as neutral
// rather than erroring (spec.md §4.4).
type SideDataProvider interface {
	FetchSideData(ctx context.Context, league LeagueCode, home, away TeamID, kickoff time.Time) (SideData, error)
}
