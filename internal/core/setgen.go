package core

import "math"

// SetGenConfig carries the configurable blend weights of spec.md §6.
type SetGenConfig struct {
	BlendAlphaBalanced float64 // Set B beta, default 0.60
	BlendAlphaDominant float64 // Set C beta, default 0.25
	WeatherMapper      WeatherIndexMapper
}

// DefaultSetGenConfig returns the documented defaults.
func DefaultSetGenConfig() SetGenConfig {
	return SetGenConfig{BlendAlphaBalanced: 0.60, BlendAlphaDominant: 0.25}
}

// SetContext carries the per-fixture inputs the generator needs beyond
// the base/market triplets: side-data for Set D, and whether a draw
// adjustment has already been applied upstream (to forbid a second
// pass, per spec.md's frozen Open Question decision).
type SetContext struct {
	SideData          SideData
	DrawAlreadyApplied bool
}

// GenerateSets implements C5: produces sets A-G (spec.md §4.5) from a
// single base triplet, an optional market triplet, and context.
// market may be the zero Triplet (absent) when no odds were recorded;
// callers check hasMarket.
func GenerateSets(base Triplet, market Triplet, hasMarket bool, ctx SetContext, cfg SetGenConfig) (map[SetTag]Triplet, map[SetTag]bool, error) {
	sets := map[SetTag]Triplet{}
	heuristic := map[SetTag]bool{}

	sets[SetPureModel] = base

	if hasMarket {
		b, err := blend(base, market, cfg.BlendAlphaBalanced)
		if err != nil {
			return nil, nil, err
		}
		sets[SetMarketBalanced] = b

		c, err := blend(base, market, cfg.BlendAlphaDominant)
		if err != nil {
			return nil, nil, err
		}
		sets[SetMarketDominant] = c
	} else {
		sets[SetMarketBalanced] = base
		sets[SetMarketDominant] = base
	}

	drawBoosted, err := drawBoostedSet(base, ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	sets[SetDrawBoosted] = drawBoosted
	heuristic[SetDrawBoosted] = true

	entropySet, err := entropyPenalizedSet(base)
	if err != nil {
		return nil, nil, err
	}
	sets[SetEntropyPenalized] = entropySet
	heuristic[SetEntropyPenalized] = true

	kellySet := base
	if hasMarket {
		kellySet, err = kellyWeightedSet(base, market)
		if err != nil {
			return nil, nil, err
		}
	}
	sets[SetKellyWeighted] = kellySet
	heuristic[SetKellyWeighted] = true

	ensemble, err := averageTriplets(sets[SetPureModel], sets[SetMarketBalanced], sets[SetDrawBoosted], sets[SetEntropyPenalized])
	if err != nil {
		return nil, nil, err
	}
	sets[SetEnsemble] = ensemble

	return sets, heuristic, nil
}

// blend forms a convex combination beta*base + (1-beta)*market, which
// already sums to 1 given two valid triplets, but is explicitly
// renormalized to guard floating-point drift (spec.md §4.5 Sets B, C).
func blend(base, market Triplet, beta float64) (Triplet, error) {
	t := Triplet{
		Home: beta*base.Home + (1-beta)*market.Home,
		Draw: beta*base.Draw + (1-beta)*market.Draw,
		Away: beta*base.Away + (1-beta)*market.Away,
	}
	return Normalize(t)
}

// drawBoostedSet implements Set D. If a draw adjustment was already
// applied upstream, a second pass is forbidden (spec.md's frozen
// decision on the double-application Open Question) and the input is
// passed through unchanged. Otherwise a minimum effective multiplier of
// 1.05 is applied to the draw outcome, still subject to the [0.75,
// 1.35] total cap.
func drawBoostedSet(base Triplet, ctx SetContext, cfg SetGenConfig) (Triplet, error) {
	if ctx.DrawAlreadyApplied {
		return base, nil
	}

	out, _, err := AdjustDraw(base, ctx.SideData, cfg.WeatherMapper)
	if err != nil {
		if err == ErrDegenerateBaseTriplet {
			return base, nil
		}
		return base, err
	}

	// Ensure at least the minimum 1.05 effective multiplier on draw even
	// when side-data produced a weaker (or absent) boost.
	if out.Draw < base.Draw*1.05 {
		comps := DrawComponents{
			LeaguePrior: Present(1.05), EloSymmetry: Present(1), H2H: Present(1),
			Weather: Present(1), Fatigue: Present(1), Referee: Present(1), OddsDrift: Present(1),
		}
		out, _, err = CombineDrawComponents(base, comps)
		if err != nil {
			return base, err
		}
	}

	return out, nil
}

// entropyOf returns Shannon entropy in nats.
func entropyOf(t Triplet) float64 {
	h := 0.0
	for _, p := range []float64{t.Home, t.Draw, t.Away} {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return h
}

// entropyPenalizedSet implements Set E: when the base triplet's entropy
// is below H_low = 0.85*log(3), the distribution is broadened (not
// sharpened) toward a target entropy of 0.95*log(3) via a temperature
// T found by bisection on T in [0.5, 2.0]. This set is explicitly
// heuristic (spec.md §4.5).
func entropyPenalizedSet(base Triplet) (Triplet, error) {
	const maxEntropy = 1.0986122886681098 // log(3)
	hLow := 0.85 * maxEntropy
	target := 0.95 * maxEntropy

	h := entropyOf(base)
	if h >= hLow {
		return base, nil
	}

	temper := func(t float64) Triplet {
		hp := math.Pow(base.Home, 1/t)
		dp := math.Pow(base.Draw, 1/t)
		ap := math.Pow(base.Away, 1/t)
		z := hp + dp + ap
		return Triplet{Home: hp / z, Draw: dp / z, Away: ap / z}
	}

	lo, hiT := 0.5, 2.0
	// entropyOf(temper(T)) is monotone increasing in T on [0.5, 2.0] for
	// a non-uniform base triplet; bisect for the T matching target.
	for i := 0; i < 60; i++ {
		mid := (lo + hiT) / 2
		if entropyOf(temper(mid)) < target {
			lo = mid
		} else {
			hiT = mid
		}
	}

	return Normalize(temper((lo + hiT) / 2))
}

// kellyWeightedSet implements Set F: weights proportional to
// max(0, p_base - q_market) * o_market, renormalized; falls back to the
// base triplet when every weight is zero.
func kellyWeightedSet(base, market Triplet) (Triplet, error) {
	// o_market_k = 1/q_market_k (since q was itself 1/o, normalized).
	weight := func(pBase, qMarket float64) float64 {
		edge := pBase - qMarket
		if edge <= 0 || qMarket <= 0 {
			return 0
		}
		oMarket := 1 / qMarket
		return edge * oMarket
	}

	wH := weight(base.Home, market.Home)
	wD := weight(base.Draw, market.Draw)
	wA := weight(base.Away, market.Away)

	total := wH + wD + wA
	if total <= 0 {
		return base, nil
	}

	return Normalize(Triplet{Home: wH, Draw: wD, Away: wA})
}

// averageTriplets uniformly averages any number of triplets and
// renormalizes, implementing Set G: ensemble = normalize(mean(...)).
func averageTriplets(ts ...Triplet) (Triplet, error) {
	if len(ts) == 0 {
		return Triplet{}, wrapf(ErrInvalidModelParameters, "no triplets to average")
	}
	var h, d, a float64
	for _, t := range ts {
		h += t.Home
		d += t.Draw
		a += t.Away
	}
	n := float64(len(ts))
	return Normalize(Triplet{Home: h / n, Draw: d / n, Away: a / n})
}

// OptionalDrawSet computes one of the optional H/I/J draw-focused
// variants (spec.md §4.5) using an alternative component weighting
// function supplied by the caller. Implementers may omit H/I/J
// entirely; when present they must obey I1 as enforced here.
func OptionalDrawSet(base Triplet, comps DrawComponents) (Triplet, DrawComponents, error) {
	return CombineDrawComponents(base, comps)
}
