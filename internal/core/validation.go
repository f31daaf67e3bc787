package core

import "math"

// ProbabilitySumTolerance is the I1 tolerance on |H+D+A-1|.
const ProbabilitySumTolerance = 1e-6

// DrawLowerBound and DrawUpperBound are the I2 bounds on p_D after the
// draw-structural adjustment (spec.md §4.4).
const (
	DrawLowerBound = 0.12
	DrawUpperBound = 0.38
)

// OddsMin and OddsMax bound individual decimal odds (spec.md §4.8/§6).
const (
	OddsMin = 1.01
	OddsMax = 100.0
)

// OverroundMin and OverroundMax bound the sum of implied probabilities
// of a 3-way market (spec.md §4.8).
const (
	OverroundMin = 0.90
	OverroundMax = 1.30
)

// Normalize rescales a triplet to sum to 1 exactly, failing once if the
// sum is non-positive or already within tolerance's worth of being
// unrecoverable. This is the "single automatic remediation attempt" of
// spec.md §7 for numerical errors: callers invoke it once and treat a
// second failure as ProbabilityInvariantViolation.
func Normalize(t Triplet) (Triplet, error) {
	sum := t.Sum()
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return Triplet{}, wrapf(ErrProbabilityInvariantViolation, "non-positive or non-finite sum %.9f", sum)
	}
	out := Triplet{Home: t.Home / sum, Draw: t.Draw / sum, Away: t.Away / sum}
	if err := CheckTriplet(out); err != nil {
		return Triplet{}, err
	}
	return out, nil
}

// CheckTriplet verifies I1: the sum is within tolerance of 1 and every
// component lies in [0,1].
func CheckTriplet(t Triplet) error {
	if math.Abs(t.Sum()-1) > ProbabilitySumTolerance {
		return wrapf(ErrProbabilityInvariantViolation, "sum=%.9f", t.Sum())
	}
	for _, c := range []float64{t.Home, t.Draw, t.Away} {
		if c < 0 || c > 1 {
			return wrapf(ErrProbabilityInvariantViolation, "component %.9f out of [0,1]", c)
		}
	}
	return nil
}

// CheckDrawBounds verifies I2: a draw-adjusted p_D lies in
// [DrawLowerBound, DrawUpperBound].
func CheckDrawBounds(drawProb float64) error {
	if drawProb < DrawLowerBound || drawProb > DrawUpperBound {
		return wrapf(ErrProbabilityInvariantViolation, "p_D=%.6f outside [%.2f, %.2f]", drawProb, DrawLowerBound, DrawUpperBound)
	}
	return nil
}

// CheckOrderingPreserved verifies I3: sign(p_H - p_A) is unchanged
// between the base and the adjusted triplet.
func CheckOrderingPreserved(base, adjusted Triplet) error {
	baseSign := sign(base.Home - base.Away)
	adjustedSign := sign(adjusted.Home - adjusted.Away)
	if baseSign != adjustedSign {
		return wrapf(ErrProbabilityInvariantViolation, "home/away ordering flipped: base %+d adjusted %+d", baseSign, adjustedSign)
	}
	return nil
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// ValidateOdds checks an individual decimal odds value against
// [OddsMin, OddsMax].
func ValidateOdds(o float64, field string) error {
	if o < OddsMin || o > OddsMax {
		return ValidationError{Field: field, Kind: "OddsOutOfRange", Message: "decimal odds must be in [1.01, 100]"}
	}
	return nil
}

// ValidateMarketOdds checks each leg and the 3-way overround.
func ValidateMarketOdds(o MarketOdds) error {
	var errs []ValidationError
	for field, v := range map[string]float64{"home": o.Home, "draw": o.Draw, "away": o.Away} {
		if err := ValidateOdds(v, field); err != nil {
			errs = append(errs, err.(ValidationError))
		}
	}
	if len(errs) > 0 {
		return ValidationErrors{Errors: errs}
	}

	overround := 1/o.Home + 1/o.Draw + 1/o.Away
	if overround < OverroundMin || overround > OverroundMax {
		return ValidationError{Field: "overround", Kind: "OddsOutOfRange", Message: "market overround outside [0.90, 1.30]"}
	}
	return nil
}

// MarketTriplet derives the market-implied probability triplet from
// closing odds: q_k = (1/o_k) / sum(1/o_j) (spec.md §4.5).
func MarketTriplet(o MarketOdds) (Triplet, error) {
	if err := ValidateMarketOdds(o); err != nil {
		return Triplet{}, err
	}
	invH, invD, invA := 1/o.Home, 1/o.Draw, 1/o.Away
	return Normalize(Triplet{Home: invH, Draw: invD, Away: invA})
}
