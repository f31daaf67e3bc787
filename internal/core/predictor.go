package core

// PredictorConfig carries the truncation bound and fuzzy-match
// threshold the predictor needs at call time (spec.md §4.3, §6).
type PredictorConfig struct {
	MaxGoals            int
	FuzzyMatchThreshold float64
}

// PredictionOutput is the predictor's return value: the expected goals
// plus the calibrated base triplet (spec.md §4.3).
type PredictionOutput struct {
	LambdaHome   float64
	LambdaAway   float64
	BaseTriplet  Triplet
}

// Predict resolves home/away strengths from trained parameters and
// computes the calibrated base triplet for one fixture. It is pure and
// safe for concurrent use across many goroutines sharing one
// TrainedParameters bundle (spec.md §5).
func Predict(league LeagueCode, homeCanonical, awayCanonical string, params TrainedParameters, calibration map[Outcome]CalibrationCurve, cfg PredictorConfig) (PredictionOutput, error) {
	homeKey := teamKey(league, homeCanonical)
	awayKey := teamKey(league, awayCanonical)

	alphaHome, okA := params.Attack[homeKey]
	betaHome, okB := params.Defence[homeKey]
	alphaAway, okC := params.Attack[awayKey]
	betaAway, okD := params.Defence[awayKey]
	if !okA || !okB || !okC || !okD {
		return PredictionOutput{}, wrapf(ErrTeamNotFound, "league=%s home=%s away=%s", league, homeCanonical, awayCanonical)
	}

	lambdaH := alphaHome * betaAway * params.HomeAdvantage
	lambdaA := alphaAway * betaHome

	nMax := cfg.MaxGoals
	if nMax < 8 {
		nMax = DefaultMaxGoals
	}

	base, err := ScoreTriplet(lambdaH, lambdaA, params.Rho, nMax)
	if err != nil {
		return PredictionOutput{}, err
	}

	calibrated, err := ApplyCalibration(base, calibration)
	if err != nil {
		return PredictionOutput{}, err
	}

	return PredictionOutput{LambdaHome: lambdaH, LambdaAway: lambdaA, BaseTriplet: calibrated}, nil
}

// ApplyCalibration applies per-outcome calibration curves to a triplet
// in the order H, D, A, then renormalizes to restore I1 (spec.md §4.3,
// §4.6). A nil or empty curve map is a no-op.
func ApplyCalibration(t Triplet, curves map[Outcome]CalibrationCurve) (Triplet, error) {
	if len(curves) == 0 {
		return t, nil
	}

	h := applyCurveOrIdentity(curves[OutcomeHome], t.Home)
	d := applyCurveOrIdentity(curves[OutcomeDraw], t.Draw)
	a := applyCurveOrIdentity(curves[OutcomeAway], t.Away)

	return Normalize(Triplet{Home: h, Draw: d, Away: a})
}

func applyCurveOrIdentity(c CalibrationCurve, p float64) float64 {
	if len(c.Breakpoints) == 0 {
		return p
	}
	return c.Apply(p)
}
