package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// FingerprintInputs is the canonicalized, order-independent description
// of everything that determines a prediction's output: the model
// version, the two teams, and whatever market odds were present. Two
// calls with equal FingerprintInputs must produce an identical
// Fingerprint regardless of field ordering at the call site (I5).
type FingerprintInputs struct {
	ModelVersionID string
	League         LeagueCode
	HomeCanonical  string
	AwayCanonical  string
	SetTag         SetTag
	Odds           *MarketOdds
}

// Fingerprint computes a deterministic digest of FingerprintInputs
// (spec.md §4.7, I5). Canonicalization happens before hashing so that
// whitespace or casing differences in team names that ResolveTeam would
// already have normalized upstream can never produce a different
// fingerprint for what is semantically the same prediction.
func Fingerprint(in FingerprintInputs) (string, error) {
	if in.ModelVersionID == "" || in.HomeCanonical == "" || in.AwayCanonical == "" {
		return "", wrapf(ErrInvalidFingerprintInputs, "model_version, home, and away are required")
	}

	fields := []string{
		"mv=" + in.ModelVersionID,
		"league=" + string(in.League),
		"home=" + Canonicalize(in.HomeCanonical),
		"away=" + Canonicalize(in.AwayCanonical),
		"set=" + string(in.SetTag),
	}
	if in.Odds != nil {
		fields = append(fields, fmt.Sprintf("odds=%.4f,%.4f,%.4f", in.Odds.Home, in.Odds.Draw, in.Odds.Away))
	}
	sort.Strings(fields)

	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:]), nil
}

// FingerprintJackpot computes the jackpot-level identity hash required
// by spec.md §4.7: a stable digest over the canonicalized *sequence* of
// (home, away, scheduled_datetime_utc, odds) legs. Unlike Fingerprint,
// the legs are hashed in the order given rather than sorted, so
// permuting fixture order changes the result (P7) while cosmetic
// differences within a leg (casing, whitespace, odds precision) do not.
func FingerprintJackpot(fixtures []Fixture) (string, error) {
	if len(fixtures) == 0 {
		return "", wrapf(ErrInvalidFingerprintInputs, "a jackpot fingerprint requires at least one fixture")
	}

	var legs strings.Builder
	for i, f := range fixtures {
		if f.HomeTeam == "" || f.AwayTeam == "" {
			return "", wrapf(ErrInvalidFingerprintInputs, "fixture[%d]: home and away are required", i)
		}
		fmt.Fprintf(&legs, "leg=%d;home=%s;away=%s;at=%s",
			i, Canonicalize(string(f.HomeTeam)), Canonicalize(string(f.AwayTeam)), f.ScheduledAt.UTC().Format(time.RFC3339))
		if f.Odds != nil {
			fmt.Fprintf(&legs, ";odds=%.4f,%.4f,%.4f", f.Odds.Home, f.Odds.Draw, f.Odds.Away)
		}
		legs.WriteByte('|')
	}

	sum := sha256.Sum256([]byte(legs.String()))
	return hex.EncodeToString(sum[:]), nil
}

// BuildExplain assembles the audit record required by I7: everything
// needed to reproduce a Prediction from (inputs, model_version) without
// re-running the fitter. setTriplet is the post-adjustment,
// post-calibration triplet actually served; adjustments is nil when the
// requested set never runs the draw adjuster.
func BuildExplain(modelVersionID string, lambdaH, lambdaA float64, base, set Triplet, adjustments *DrawComponents, market *Triplet) Explain {
	return Explain{
		ExpectedGoalsH: lambdaH,
		ExpectedGoalsA: lambdaA,
		BaseTriplet:    base,
		SetTriplet:     set,
		Adjustments:    adjustments,
		MarketTriplet:  market,
		ModelVersionID: modelVersionID,
	}
}
