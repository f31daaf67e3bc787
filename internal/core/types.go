// Package core implements the Dixon-Coles probability engine: the
// score-matrix model, time-decayed MLE fitter, draw-structural
// adjustment pipeline, set generator, isotonic calibrator, and the
// fingerprinting/validation layers that wrap them. The package performs
// no I/O; persistence, ingestion, and transport are external
// collaborators that implement the repository interfaces declared here.
package core

import "time"

// LeagueCode uniquely identifies a league (e.g. "ENG1", "ESP1").
type LeagueCode string

// TeamID is an opaque, league-scoped team identifier.
type TeamID string

// Outcome is one of the three mutually exclusive 1X2 results.
type Outcome string

const (
	OutcomeHome Outcome = "H"
	OutcomeDraw Outcome = "D"
	OutcomeAway Outcome = "A"
)

// SetTag identifies one of the canonical probability sets.
type SetTag string

const (
	SetPureModel         SetTag = "A"
	SetMarketBalanced    SetTag = "B"
	SetMarketDominant    SetTag = "C"
	SetDrawBoosted       SetTag = "D"
	SetEntropyPenalized  SetTag = "E"
	SetKellyWeighted     SetTag = "F"
	SetEnsemble          SetTag = "G"
	SetDrawMarket        SetTag = "H"
	SetDrawFormula       SetTag = "I"
	SetDrawSystem        SetTag = "J"
)

// HeuristicSets lists sets that are not calibration-meaningful and must
// never feed back into calibration training (spec.md §4.5).
var HeuristicSets = map[SetTag]bool{
	SetDrawBoosted:      true,
	SetEntropyPenalized: true,
	SetKellyWeighted:    true,
	SetDrawMarket:       true,
	SetDrawFormula:      true,
	SetDrawSystem:       true,
}

// League is a competition namespace with structural priors used by the
// draw adjuster and the fitter's home-advantage initialization.
type League struct {
	Code               LeagueCode
	Country            string
	Tier               int
	AverageDrawRate    float64
	HomeAdvantagePrior float64
	Active             bool
}

// Team carries the fitted Dixon-Coles attack/defence strengths. Attack
// and Defence are mutated only by the fitter (C2); every other field is
// set at ingestion time.
type Team struct {
	League        LeagueCode
	DisplayName   string
	CanonicalName string
	Attack        float64
	Defence       float64
}

// Match is an immutable historical result used as fitter training data.
type Match struct {
	League    LeagueCode
	Season    string
	Date      time.Time
	HomeTeam  TeamID
	AwayTeam  TeamID
	HomeGoals int
	AwayGoals int
	// Odds is nil when no closing market odds were recorded.
	Odds *MarketOdds
}

// Result derives the terminal H/D/A outcome from the recorded goals.
func (m Match) Result() Outcome {
	switch {
	case m.HomeGoals > m.AwayGoals:
		return OutcomeHome
	case m.HomeGoals < m.AwayGoals:
		return OutcomeAway
	default:
		return OutcomeDraw
	}
}

// MarketOdds are closing decimal odds, each constrained to [1.01, 100].
type MarketOdds struct {
	Home float64
	Draw float64
	Away float64
}

// ModelStatus is the lifecycle stage of a trained model version.
type ModelStatus string

const (
	ModelActive   ModelStatus = "active"
	ModelArchived ModelStatus = "archived"
	ModelFailed   ModelStatus = "failed"
)

// TrainedParameters is the immutable bundle produced by the fitter (C2)
// and consumed by the predictor (C3). Attack/Defence are keyed by the
// team's canonical name within its league, scoped by the map key
// "<league>/<canonical name>" to avoid cross-league collisions.
type TrainedParameters struct {
	HomeAdvantage float64
	Rho           float64
	Attack        map[string]float64
	Defence       map[string]float64
}

// ModelVersion is a named, versioned snapshot of trained parameters plus
// calibration curves, fitted under one decay rate and blend weight.
type ModelVersion struct {
	VersionTag       string
	Type             string
	Status           ModelStatus
	TrainedAt        time.Time
	TrainingMatches  int
	TrainingLeagues  []LeagueCode
	TrainingSeasons  []string
	DecayRate        float64
	BlendAlpha       float64
	Parameters       TrainedParameters
	Calibration      map[Outcome]CalibrationCurve
	DrawCalibration  CalibrationCurve
	SetFormulaVersion string
}

// JackpotStatus is the lifecycle stage of a jackpot ticket.
type JackpotStatus string

const (
	JackpotDraft     JackpotStatus = "draft"
	JackpotSubmitted JackpotStatus = "submitted"
	JackpotSettled   JackpotStatus = "settled"
)

// Jackpot is an ordered bundle of fixtures predicted as a single ticket.
type Jackpot struct {
	ID          string
	Owner       string
	Status      JackpotStatus
	CreatedAt   time.Time
	Fingerprint string
	Fixtures    []Fixture
}

// Fixture is one leg of a jackpot: a scheduled match plus optional
// venue coordinates, market odds, and (once settled) the final outcome.
type Fixture struct {
	ID         string
	Position   int
	HomeTeam   TeamID
	AwayTeam   TeamID
	League     LeagueCode
	ScheduledAt time.Time
	Lat        *float64
	Lon        *float64
	Odds       *MarketOdds
	Outcome    *Outcome
}

// Triplet is a 1X2 probability vector. Callers must maintain I1:
// |H+D+A - 1| < 1e-6 and each component in [0,1].
type Triplet struct {
	Home float64
	Draw float64
	Away float64
}

// Sum returns Home + Draw + Away.
func (t Triplet) Sum() float64 { return t.Home + t.Draw + t.Away }

// Argmax returns the outcome with maximum probability and that
// probability as the confidence value. Ties favour Home, then Draw.
func (t Triplet) Argmax() (Outcome, float64) {
	best, conf := OutcomeHome, t.Home
	if t.Draw > conf {
		best, conf = OutcomeDraw, t.Draw
	}
	if t.Away > conf {
		best, conf = OutcomeAway, t.Away
	}
	return best, conf
}

// DrawComponents records the seven multiplicative draw-structural
// factors plus their bounded product (spec.md §4.4). Present/Missing is
// tracked per field so neutral-by-default (1.0) is distinguishable from
// neutral-because-missing.
type DrawComponents struct {
	LeaguePrior  ComponentValue
	EloSymmetry  ComponentValue
	H2H          ComponentValue
	Weather      ComponentValue
	Fatigue      ComponentValue
	Referee      ComponentValue
	OddsDrift    ComponentValue
	RawProduct   float64 // product before the [0.75, 1.35] clamp
	TotalProduct float64 // product after the clamp
}

// ComponentValue is a tagged union: Present(x) or Missing (which maps
// to neutral 1.0 for computation but is preserved distinctly here).
type ComponentValue struct {
	Value   float64
	Present bool
}

// Present constructs a ComponentValue carrying an observed value.
func Present(v float64) ComponentValue { return ComponentValue{Value: v, Present: true} }

// Missing is the neutral, absent-data ComponentValue.
func Missing() ComponentValue { return ComponentValue{Value: 1.0, Present: false} }

// EffectiveValue returns the value used in the product: the observed
// value if present, else the neutral 1.0.
func (c ComponentValue) EffectiveValue() float64 {
	if c.Present {
		return c.Value
	}
	return 1.0
}

// SideData is the per-fixture structural side-information consumed by
// the draw adjuster (C4). Every field is optional; absence is treated
// as Missing (§4.4), never as an error.
type SideData struct {
	League          *League
	EloHome         *float64
	EloAway         *float64
	H2HDrawRate     *float64
	H2HMatchCount   int
	RainIndex       *float64
	WindIndex       *float64
	RestDaysHome    *int
	RestDaysAway    *int
	RefereeDrawRate *float64
	LeagueDrawMean  *float64
	OddsDrawNarrowing *float64 // normalized to [-1, 1]; positive = narrowing
}

// Prediction is the derived, recomputable artifact produced for one
// fixture under one model version and set tag.
type Prediction struct {
	FixtureID      string
	ModelVersionID string
	SetTag         SetTag
	Triplet        Triplet
	ExpectedGoalsH float64
	ExpectedGoalsA float64
	DrawComponents *DrawComponents
	MarketTriplet  *Triplet
	Heuristic      bool
	CreatedAt      time.Time
}

// Explain is the audit record required by I7: everything needed to
// reproduce a Prediction from (inputs, model_version).
type Explain struct {
	ExpectedGoalsH float64
	ExpectedGoalsA float64
	BaseTriplet    Triplet
	SetTriplet     Triplet
	Adjustments    *DrawComponents
	MarketTriplet  *Triplet
	ModelVersionID string
	CreatedAt      time.Time
}

// CalibrationCurve is an immutable, monotone non-decreasing step
// function fit by pool-adjacent-violators, spanning [0,1] -> [0,1].
type CalibrationCurve struct {
	Breakpoints []float64
	Values      []float64
	Method      string
	SampleCount int
}

// ReliabilityBin is one bucket of a reliability diagram.
type ReliabilityBin struct {
	MeanPredicted float64
	MeanActual    float64
	Count         int
}

// CalibrationReport bundles the per-outcome curves and evaluation
// metrics returned by get_calibration (spec.md §6).
type CalibrationReport struct {
	Curves          map[Outcome]CalibrationCurve
	Brier           float64
	LogLoss         float64
	ReliabilityBins []ReliabilityBin
}
