package core

import "math"

// component clamp bounds (spec.md §4.4, §6).
const (
	componentMin  = 0.85
	componentMax  = 1.20
	totalProductMin = 0.75
	totalProductMax = 1.35
)

// GlobalReferenceDrawRate is the default reference against which a
// league's long-run draw rate is compared for the league_prior
// component (spec.md §4.4 item 1).
const GlobalReferenceDrawRate = 0.26

// MinH2HMatches is the minimum head-to-head history required before
// the h2h component uses observed data instead of neutral 1.0.
const MinH2HMatches = 6

// WeatherIndexMapper maps raw weather measurements to the [0,1]
// normalized indices the weather component consumes. spec.md §9 leaves
// this mapping configurable; the default is identity-with-caps.
type WeatherIndexMapper func(value float64) float64

// IdentityWeatherMapper clamps a value already expressed on [0,1].
func IdentityWeatherMapper(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampComponent bounds one multiplier to [0.85, 1.20].
func clampComponent(v float64) float64 { return clamp(v, componentMin, componentMax) }

// leaguePriorComponent is item 1: ratio of the league's long-run draw
// rate to a global reference.
func leaguePriorComponent(sd SideData) ComponentValue {
	if sd.League == nil {
		return Missing()
	}
	ratio := sd.League.AverageDrawRate / GlobalReferenceDrawRate
	return Present(clampComponent(ratio))
}

// eloSymmetryComponent is item 2: exp(-|delta elo| / 160) scaled to
// [0.9, 1.15].
func eloSymmetryComponent(sd SideData) ComponentValue {
	if sd.EloHome == nil || sd.EloAway == nil {
		return Missing()
	}
	delta := math.Abs(*sd.EloHome - *sd.EloAway)
	raw := math.Exp(-delta / 160)
	// raw is in (0,1]; rescale onto [0.9, 1.15].
	scaled := 0.9 + raw*0.25
	return Present(clamp(scaled, 0.9, 1.15))
}

// h2hComponent is item 3: observed draw rate over the last >=6 H2H
// matches, scaled to [0.9, 1.15]; fewer than 6 matches is neutral.
func h2hComponent(sd SideData) ComponentValue {
	if sd.H2HDrawRate == nil || sd.H2HMatchCount < MinH2HMatches {
		return Missing()
	}
	scaled := 0.9 + (*sd.H2HDrawRate)*0.25
	return Present(clamp(scaled, 0.9, 1.15))
}

// weatherComponent is item 4: 1 + 0.07*rain + 0.05*wind, both indices
// normalized to [0,1] by mapper.
func weatherComponent(sd SideData, mapper WeatherIndexMapper) ComponentValue {
	if sd.RainIndex == nil && sd.WindIndex == nil {
		return Missing()
	}
	if mapper == nil {
		mapper = IdentityWeatherMapper
	}
	rain, wind := 0.0, 0.0
	if sd.RainIndex != nil {
		rain = mapper(*sd.RainIndex)
	}
	if sd.WindIndex != nil {
		wind = mapper(*sd.WindIndex)
	}
	return Present(clampComponent(1 + 0.07*rain + 0.05*wind))
}

// fatigueComponent is item 5: each day of rest advantage raises draw by
// up to 2%, capped at +-10%.
func fatigueComponent(sd SideData) ComponentValue {
	if sd.RestDaysHome == nil || sd.RestDaysAway == nil {
		return Missing()
	}
	diff := float64(*sd.RestDaysHome - *sd.RestDaysAway)
	effect := clamp(diff*0.02, -0.10, 0.10)
	return Present(clampComponent(1 + effect))
}

// refereeComponent is item 6: referee's historical draw rate minus
// league mean, scaled to [0.9, 1.15].
func refereeComponent(sd SideData) ComponentValue {
	if sd.RefereeDrawRate == nil || sd.LeagueDrawMean == nil {
		return Missing()
	}
	delta := *sd.RefereeDrawRate - *sd.LeagueDrawMean
	scaled := 1 + delta*2 // modest scaling; clamped below
	return Present(clamp(scaled, 0.9, 1.15))
}

// oddsDriftComponent is item 7: 1 - 0.15*normalized narrowing of draw
// odds (narrowing increases draw probability).
func oddsDriftComponent(sd SideData) ComponentValue {
	if sd.OddsDrawNarrowing == nil {
		return Missing()
	}
	n := clamp(*sd.OddsDrawNarrowing, -1, 1)
	return Present(clampComponent(1 - 0.15*n))
}

// AdjustDraw implements C4: derives the seven components from raw
// side-data, then delegates to CombineDrawComponents for the bounded
// product and renormalization (spec.md §4.4).
func AdjustDraw(base Triplet, sd SideData, mapper WeatherIndexMapper) (Triplet, DrawComponents, error) {
	comps := DrawComponents{
		LeaguePrior: leaguePriorComponent(sd),
		EloSymmetry: eloSymmetryComponent(sd),
		H2H:         h2hComponent(sd),
		Weather:     weatherComponent(sd, mapper),
		Fatigue:     fatigueComponent(sd),
		Referee:     refereeComponent(sd),
		OddsDrift:   oddsDriftComponent(sd),
	}
	return CombineDrawComponents(base, comps)
}

// CombineDrawComponents forms the product M of the seven (already
// clamped-to-component-bounds) multipliers, records M as RawProduct and
// its [0.75, 1.35] clamp as TotalProduct, and renormalizes with the raw
// M (not the clamped TotalProduct):
//
//	p_D' = clamp(p_D * M, 0.12, 0.38)
//	s    = (1 - p_D') / (p_H + p_A)
//	p_H' = p_H * s,  p_A' = p_A * s
//
// This is the entry point spec.md §8's literal scenarios exercise
// directly, since those scenarios specify component values rather than
// the raw side-data that would produce them.
func CombineDrawComponents(base Triplet, comps DrawComponents) (Triplet, DrawComponents, error) {
	raw := comps.LeaguePrior.EffectiveValue() *
		comps.EloSymmetry.EffectiveValue() *
		comps.H2H.EffectiveValue() *
		comps.Weather.EffectiveValue() *
		comps.Fatigue.EffectiveValue() *
		comps.Referee.EffectiveValue() *
		comps.OddsDrift.EffectiveValue()

	comps.RawProduct = raw
	comps.TotalProduct = clamp(raw, totalProductMin, totalProductMax)

	if base.Home+base.Away == 0 {
		return base, comps, wrapf(ErrDegenerateBaseTriplet, "p_H + p_A == 0")
	}

	// p_D' is clamped from the raw product, not the recorded [0.75, 1.35]
	// total_product: TotalProduct above is the diagnostic figure P8
	// checks, kept separate from the draw-bound clamp that actually
	// shapes the triplet.
	drawAdjusted := clamp(base.Draw*raw, DrawLowerBound, DrawUpperBound)
	s := (1 - drawAdjusted) / (base.Home + base.Away)

	out := Triplet{
		Home: base.Home * s,
		Draw: drawAdjusted,
		Away: base.Away * s,
	}

	if err := CheckTriplet(out); err != nil {
		return base, comps, err
	}
	if err := CheckDrawBounds(out.Draw); err != nil {
		return base, comps, err
	}
	if err := CheckOrderingPreserved(base, out); err != nil {
		return base, comps, err
	}

	return out, comps, nil
}
