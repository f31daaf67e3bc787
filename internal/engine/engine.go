// Package engine orchestrates the pure internal/core algorithms against
// the repository interfaces and the cache layer, implementing the
// operations of spec.md §6: create_jackpot, predict_jackpot,
// get_prediction, get_calibration, train_model, activate_model_version,
// and resolve_team. The engine itself does no SQL or HTTP; it depends
// only on core.* interfaces so it can be tested against in-memory fakes.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/stormlightlabs/fixtureline/internal/cache"
	"github.com/stormlightlabs/fixtureline/internal/core"
)

// calibrationHoldoutFraction is the share of cutoff-respecting matches,
// chronologically latest first, withheld from the fitter and used only
// to generate calibration samples (TrainModel's holdout).
const calibrationHoldoutFraction = 0.2

// Config carries the tunables spec.md §6 exposes for model behavior.
type Config struct {
	FitConfig           core.FitConfig
	SetGenConfig        core.SetGenConfig
	PredictorConfig     core.PredictorConfig
	FuzzyMatchThreshold float64
	ModelType           string
}

// DefaultConfig returns the documented defaults for every tunable.
func DefaultConfig() Config {
	return Config{
		FitConfig:           core.DefaultFitConfig(),
		SetGenConfig:        core.DefaultSetGenConfig(),
		PredictorConfig:     core.PredictorConfig{MaxGoals: core.DefaultMaxGoals, FuzzyMatchThreshold: core.FuzzyMatchThreshold},
		FuzzyMatchThreshold: core.FuzzyMatchThreshold,
		ModelType:           "dixon-coles-1x2",
	}
}

// Engine wires the pure core package to its external collaborators.
type Engine struct {
	Leagues      core.LeagueRepository
	Teams        core.TeamRepository
	Matches      core.MatchRepository
	Models       core.ModelRepository
	Jackpots     core.JackpotRepository
	Predictions  core.PredictionRepository
	Calibrations core.CalibrationRepository
	Audit        core.AuditRepository
	Meta         core.MetaRepository
	SideData     core.SideDataProvider
	Cache        *cache.Client
	Config       Config
	Logger       *log.Logger
}

// New constructs an Engine. Cache and Logger may be nil; a nil Logger
// falls back to log.Default(), and with a nil Cache GetPrediction and
// the league-roster load read straight from the repositories.
func New(e Engine) *Engine {
	if e.Logger == nil {
		e.Logger = log.Default()
	}
	if e.Config.ModelType == "" {
		e.Config = DefaultConfig()
	}
	return &e
}

// CreateJackpot implements create_jackpot: validates and persists a new
// draft ticket with its ordered fixtures.
func (e *Engine) CreateJackpot(ctx context.Context, owner string, fixtures []core.Fixture) (string, error) {
	if len(fixtures) == 0 {
		return "", core.ValidationError{Field: "fixtures", Kind: "required", Message: "a jackpot requires at least one fixture"}
	}
	for i, f := range fixtures {
		if f.Odds != nil {
			if err := core.ValidateMarketOdds(*f.Odds); err != nil {
				return "", fmt.Errorf("fixture[%d]: %w", i, err)
			}
		}
	}

	fingerprint, err := core.FingerprintJackpot(fixtures)
	if err != nil {
		return "", fmt.Errorf("fingerprint jackpot: %w", err)
	}

	j := core.Jackpot{
		Owner:       owner,
		Status:      core.JackpotDraft,
		CreatedAt:   time.Now().UTC(),
		Fingerprint: fingerprint,
	}

	id, err := e.Jackpots.Create(ctx, j)
	if err != nil {
		return "", fmt.Errorf("create jackpot: %w", err)
	}

	for i, f := range fixtures {
		if _, err := e.Jackpots.AddFixture(ctx, id, f); err != nil {
			return "", fmt.Errorf("add fixture[%d]: %w", i, err)
		}
	}

	e.auditf(ctx, "create_jackpot", owner, id, map[string]any{"fixture_count": len(fixtures), "fingerprint": fingerprint})
	return id, nil
}

// ResolveTeam implements resolve_team (spec.md §4.3, §6): exact
// canonical lookup first, then Ratcliff-Obershelp fuzzy fallback scoped
// to one league's roster.
func (e *Engine) ResolveTeam(ctx context.Context, league core.LeagueCode, query string) (string, []string, error) {
	roster, err := e.roster(ctx, league)
	if err != nil {
		return "", nil, fmt.Errorf("load roster: %w", err)
	}
	threshold := e.Config.FuzzyMatchThreshold
	return core.ResolveTeam(query, roster, threshold)
}

// roster loads one league's canonical->team id map, list-cached by
// league since rosters change far less often than predictions.
func (e *Engine) roster(ctx context.Context, league core.LeagueCode) (map[string]string, error) {
	if e.Cache == nil {
		return e.Teams.Roster(ctx, league)
	}

	helper := cache.NewListCacheHelper(e.Cache, "roster")
	params := cache.NormalizeFilterParams(map[string]any{"league": string(league)})

	var roster map[string]string
	err := helper.GetOrCompute(ctx, params, &roster, func() (any, error) {
		return e.Teams.Roster(ctx, league)
	})
	return roster, err
}

// TrainModel implements train_model (spec.md §4.2, §6): loads matches
// up to cutoff (I4), fits Dixon-Coles parameters, fits calibration
// curves from the same cutoff-respecting holdout, and persists a new
// archived ModelVersion awaiting activation.
func (e *Engine) TrainModel(ctx context.Context, league core.LeagueCode, cutoff time.Time, seasons []string) (core.ModelVersion, error) {
	lg, err := e.Leagues.GetByCode(ctx, league)
	if err != nil {
		return core.ModelVersion{}, fmt.Errorf("load league: %w", err)
	}

	matches, err := e.Matches.List(ctx, core.MatchFilter{League: league, Before: &cutoff, Seasons: seasons})
	if err != nil {
		return core.ModelVersion{}, fmt.Errorf("load matches: %w", err)
	}

	trainMatches, holdoutMatches := splitCalibrationHoldout(matches, e.Config.FitConfig.MinTrainingMatches)

	params, err := core.Fit(ctx, trainMatches, lg, cutoff, e.Config.FitConfig)
	if err != nil {
		return core.ModelVersion{}, fmt.Errorf("fit: %w", err)
	}

	mv := core.ModelVersion{
		VersionTag:        uuid.NewString(),
		Type:              e.Config.ModelType,
		Status:            core.ModelArchived,
		TrainedAt:         time.Now().UTC(),
		TrainingMatches:   len(matches),
		TrainingLeagues:   []core.LeagueCode{league},
		TrainingSeasons:   seasons,
		DecayRate:         e.Config.FitConfig.DecayRate,
		BlendAlpha:        e.Config.SetGenConfig.BlendAlphaBalanced,
		Parameters:        params,
		SetFormulaVersion: "v1",
	}

	mv.Calibration, mv.DrawCalibration = e.fitCalibration(params, holdoutMatches)

	if err := e.Models.Save(ctx, mv); err != nil {
		return core.ModelVersion{}, fmt.Errorf("save model version: %w", err)
	}

	if err := e.Teams.SaveStrengths(ctx, league, params.Attack, params.Defence); err != nil {
		e.Logger.Warn("failed to persist fitted strengths", "league", league, "err", err)
	}

	e.auditf(ctx, "train_model", "system", mv.VersionTag, map[string]any{"league": league, "matches": len(matches)})
	return mv, nil
}

// ActivateModelVersion implements activate_model_version (I6): a
// single-writer compare-and-swap promotion handled entirely by the
// repository so concurrent activations race at the database, not here.
func (e *Engine) ActivateModelVersion(ctx context.Context, versionTag string) error {
	mv, err := e.Models.GetByVersion(ctx, versionTag)
	if err != nil {
		return fmt.Errorf("load model version: %w", err)
	}

	if err := e.Models.Activate(ctx, mv.Type, versionTag); err != nil {
		return fmt.Errorf("activate: %w", err)
	}

	e.auditf(ctx, "activate_model_version", "system", versionTag, nil)
	return nil
}

// PredictJackpot implements predict_jackpot (spec.md §6): predicts
// every fixture in the jackpot under the currently active model,
// generates the full set of canonical probability sets per fixture, and
// persists each as a Prediction with its Explain record (I7).
func (e *Engine) PredictJackpot(ctx context.Context, jackpotID string) ([]core.Prediction, error) {
	j, err := e.Jackpots.GetByID(ctx, jackpotID)
	if err != nil {
		return nil, fmt.Errorf("load jackpot: %w", err)
	}

	mv, err := e.Models.GetActive(ctx, e.Config.ModelType)
	if err != nil {
		return nil, fmt.Errorf("load active model: %w", core.ErrNoActiveModel)
	}

	var out []core.Prediction
	for _, f := range j.Fixtures {
		preds, err := e.predictFixture(ctx, mv, f)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", f.ID, err)
		}
		out = append(out, preds...)
	}

	e.auditf(ctx, "predict_jackpot", j.Owner, jackpotID, map[string]any{"fixture_count": len(j.Fixtures), "model_version": mv.VersionTag})
	return out, nil
}

func (e *Engine) predictFixture(ctx context.Context, mv core.ModelVersion, f core.Fixture) ([]core.Prediction, error) {
	homeTeam, err := e.Teams.GetByCanonicalName(ctx, f.League, string(f.HomeTeam))
	if err != nil {
		return nil, fmt.Errorf("resolve home team: %w", err)
	}
	awayTeam, err := e.Teams.GetByCanonicalName(ctx, f.League, string(f.AwayTeam))
	if err != nil {
		return nil, fmt.Errorf("resolve away team: %w", err)
	}

	out, err := core.Predict(f.League, homeTeam.CanonicalName, awayTeam.CanonicalName, mv.Parameters, mv.Calibration, e.Config.PredictorConfig)
	if err != nil {
		return nil, err
	}

	var market core.Triplet
	hasMarket := false
	if f.Odds != nil {
		market, err = core.MarketTriplet(*f.Odds)
		if err != nil {
			e.Logger.Warn("invalid market odds, skipping market-dependent sets", "fixture", f.ID, "err", err)
		} else {
			hasMarket = true
		}
	}

	sideData := core.SideData{}
	if e.SideData != nil {
		sideData, err = e.SideData.FetchSideData(ctx, f.League, f.HomeTeam, f.AwayTeam, f.ScheduledAt)
		if err != nil {
			e.Logger.Warn("side-data lookup failed, proceeding with neutral components", "fixture", f.ID, "err", err)
			sideData = core.SideData{}
		}
	}

	sets, heuristic, err := core.GenerateSets(out.BaseTriplet, market, hasMarket, core.SetContext{SideData: sideData}, e.Config.SetGenConfig)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	preds := make([]core.Prediction, 0, len(sets))
	for tag, triplet := range sets {
		var marketPtr *core.Triplet
		if hasMarket {
			marketPtr = &market
		}

		var comps *core.DrawComponents
		if tag == core.SetDrawBoosted {
			_, c, derr := core.AdjustDraw(out.BaseTriplet, sideData, nil)
			if derr == nil {
				comps = &c
			}
		}

		p := core.Prediction{
			FixtureID:      f.ID,
			ModelVersionID: mv.VersionTag,
			SetTag:         tag,
			Triplet:        triplet,
			ExpectedGoalsH: out.LambdaHome,
			ExpectedGoalsA: out.LambdaAway,
			DrawComponents: comps,
			MarketTriplet:  marketPtr,
			Heuristic:      heuristic[tag],
			CreatedAt:      now,
		}

		explain := core.BuildExplain(mv.VersionTag, out.LambdaHome, out.LambdaAway, out.BaseTriplet, triplet, comps, marketPtr)
		explain.CreatedAt = now

		if err := e.Predictions.Save(ctx, f.ID, p, explain); err != nil {
			return nil, fmt.Errorf("save prediction %s/%s: %w", f.ID, tag, err)
		}
		preds = append(preds, p)
	}

	return preds, nil
}

// predictionCache returns the entity cache helper for get_prediction, or
// nil when no cache client is configured.
func (e *Engine) predictionCache() *cache.EntityCacheHelper {
	if e.Cache == nil {
		return nil
	}
	return cache.NewCachedRepository(e.Cache, "prediction").Entity
}

// GetPrediction implements get_prediction with cache-aside memoization
// (C7): identical (fixture, set) inputs short-circuit to the cached
// Prediction without touching the repository.
func (e *Engine) GetPrediction(ctx context.Context, fixtureID string, tag core.SetTag) (*core.Prediction, error) {
	helper := e.predictionCache()
	if helper == nil {
		return e.Predictions.GetByFixtureAndSet(ctx, fixtureID, tag)
	}

	id := fmt.Sprintf("%s:%s", fixtureID, tag)
	var pred core.Prediction
	err := helper.GetOrCompute(ctx, id, &pred, func() (any, error) {
		return e.Predictions.GetByFixtureAndSet(ctx, fixtureID, tag)
	})
	if err != nil {
		return nil, err
	}
	return &pred, nil
}

// GetCalibration implements get_calibration: returns the most recently
// fitted calibration report for a model version.
func (e *Engine) GetCalibration(ctx context.Context, modelVersionID string) (*core.CalibrationReport, error) {
	return e.Calibrations.GetLatestReport(ctx, modelVersionID)
}

// StatusReport summarizes the operational state of one model type:
// which version is active (if any), how much historical signal each
// league has on hand, and which schema migrations have run.
type StatusReport struct {
	ActiveModel *core.ModelVersion
	Coverage    []core.LeagueCoverage
	Migrations  []string
}

// Status gathers the fields a CLI or health endpoint would surface
// about the system's readiness: active model, per-league match
// coverage, and applied migrations. Missing active model is not an
// error here, unlike PredictJackpot's GetActive call.
func (e *Engine) Status(ctx context.Context, modelType string) (StatusReport, error) {
	var report StatusReport

	if mv, err := e.Models.GetActive(ctx, modelType); err == nil {
		report.ActiveModel = mv
	} else if !core.IsNotFound(err) {
		return report, fmt.Errorf("load active model: %w", err)
	}

	if e.Meta != nil {
		coverage, err := e.Meta.SeasonCoverage(ctx)
		if err != nil {
			return report, fmt.Errorf("load season coverage: %w", err)
		}
		report.Coverage = coverage

		migrations, err := e.Meta.AppliedMigrations(ctx)
		if err != nil {
			return report, fmt.Errorf("load applied migrations: %w", err)
		}
		report.Migrations = migrations
	}

	return report, nil
}

// splitCalibrationHoldout carves the chronologically latest
// calibrationHoldoutFraction of matches out of the fitter's training
// set so calibration samples are generated out-of-sample. It falls
// back to an empty holdout when doing so would starve the fitter below
// minTrain, leaving TrainModel's curves at the nil/identity default.
func splitCalibrationHoldout(matches []core.Match, minTrain int) (train, holdout []core.Match) {
	sorted := make([]core.Match, len(matches))
	copy(sorted, matches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	holdoutSize := int(float64(len(sorted)) * calibrationHoldoutFraction)
	if holdoutSize == 0 || len(sorted)-holdoutSize < minTrain {
		return sorted, nil
	}
	return sorted[:len(sorted)-holdoutSize], sorted[len(sorted)-holdoutSize:]
}

// fitCalibration predicts each holdout match under the freshly fit
// parameters and pools the (predicted, observed) pairs per outcome into
// isotonic calibration curves (spec.md §4.6). It never returns an
// error: a failed or data-starved fit degrades to nil/identity curves
// rather than failing TrainModel, matching FitIsotonicCurve's own
// below-minimum-samples fallback.
func (e *Engine) fitCalibration(params core.TrainedParameters, holdout []core.Match) (map[core.Outcome]core.CalibrationCurve, core.CalibrationCurve) {
	if len(holdout) == 0 {
		return nil, core.CalibrationCurve{}
	}

	samples := map[core.Outcome][]core.CalibrationSample{
		core.OutcomeHome: nil,
		core.OutcomeDraw: nil,
		core.OutcomeAway: nil,
	}
	for _, m := range holdout {
		out, err := core.Predict(m.League, string(m.HomeTeam), string(m.AwayTeam), params, nil, e.Config.PredictorConfig)
		if err != nil {
			continue
		}
		actual := m.Result()
		samples[core.OutcomeHome] = append(samples[core.OutcomeHome], core.CalibrationSample{Predicted: out.BaseTriplet.Home, Observed: observedFloat(actual, core.OutcomeHome)})
		samples[core.OutcomeDraw] = append(samples[core.OutcomeDraw], core.CalibrationSample{Predicted: out.BaseTriplet.Draw, Observed: observedFloat(actual, core.OutcomeDraw)})
		samples[core.OutcomeAway] = append(samples[core.OutcomeAway], core.CalibrationSample{Predicted: out.BaseTriplet.Away, Observed: observedFloat(actual, core.OutcomeAway)})
	}

	report, err := core.BuildCalibrationReport(samples, 0)
	if err != nil {
		e.Logger.Warn("calibration fit failed", "err", err)
		return nil, core.CalibrationCurve{}
	}
	return report.Curves, report.Curves[core.OutcomeDraw]
}

func observedFloat(actual, want core.Outcome) float64 {
	if actual == want {
		return 1
	}
	return 0
}

func (e *Engine) auditf(ctx context.Context, action, actorID, subjectID string, detail map[string]any) {
	if e.Audit == nil {
		return
	}
	if err := e.Audit.Record(ctx, action, actorID, subjectID, detail); err != nil {
		e.Logger.Warn("audit record failed", "action", action, "err", err)
	}
}
