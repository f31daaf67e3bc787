package core

import "testing"

// Scenario 5: market blend.
func TestGenerateSets_MarketBlend(t *testing.T) {
	base := Triplet{Home: 0.50, Draw: 0.25, Away: 0.25}
	odds := MarketOdds{Home: 2.00, Draw: 3.50, Away: 3.50}

	market, err := MarketTriplet(odds)
	if err != nil {
		t.Fatalf("MarketTriplet: %v", err)
	}
	within(t, "market p_H", market.Home, 0.4516, 1e-3)
	within(t, "market p_D", market.Draw, 0.2581, 1e-3)
	within(t, "market p_A", market.Away, 0.2903, 1e-3)

	cfg := DefaultSetGenConfig()
	sets, heuristic, err := GenerateSets(base, market, true, SetContext{}, cfg)
	if err != nil {
		t.Fatalf("GenerateSets: %v", err)
	}

	b := sets[SetMarketBalanced]
	within(t, "Set B p_H", b.Home, 0.4806, 1e-3)
	within(t, "Set B p_D", b.Draw, 0.2532, 1e-3)
	within(t, "Set B p_A", b.Away, 0.2661, 1e-3)
	if err := CheckTriplet(b); err != nil {
		t.Errorf("P1 violated on Set B: %v", err)
	}

	if heuristic[SetPureModel] || heuristic[SetMarketBalanced] || heuristic[SetMarketDominant] {
		t.Error("Sets A, B, C must not be flagged heuristic")
	}
	if !heuristic[SetDrawBoosted] || !heuristic[SetEntropyPenalized] || !heuristic[SetKellyWeighted] {
		t.Error("Sets D, E, F must be flagged heuristic")
	}
}

// P9: Set A bitwise-equals base post-calibration.
func TestGenerateSets_SetAEqualsBase(t *testing.T) {
	base := Triplet{Home: 0.41, Draw: 0.27, Away: 0.32}
	sets, _, err := GenerateSets(base, Triplet{}, false, SetContext{}, DefaultSetGenConfig())
	if err != nil {
		t.Fatalf("GenerateSets: %v", err)
	}
	if sets[SetPureModel] != base {
		t.Errorf("Set A must equal base exactly, got %+v want %+v", sets[SetPureModel], base)
	}
}

// P9: Set G = normalize(mean(A,B,D,E)).
func TestGenerateSets_EnsembleIsMeanOfABDE(t *testing.T) {
	base := Triplet{Home: 0.50, Draw: 0.25, Away: 0.25}
	market := Triplet{Home: 0.4516, Draw: 0.2581, Away: 0.2903}

	sets, _, err := GenerateSets(base, market, true, SetContext{}, DefaultSetGenConfig())
	if err != nil {
		t.Fatalf("GenerateSets: %v", err)
	}

	want, err := averageTriplets(sets[SetPureModel], sets[SetMarketBalanced], sets[SetDrawBoosted], sets[SetEntropyPenalized])
	if err != nil {
		t.Fatalf("averageTriplets: %v", err)
	}

	got := sets[SetEnsemble]
	within(t, "ensemble p_H", got.Home, want.Home, 1e-9)
	within(t, "ensemble p_D", got.Draw, want.Draw, 1e-9)
	within(t, "ensemble p_A", got.Away, want.Away, 1e-9)
}

func TestGenerateSets_NoMarketFallsBackToBase(t *testing.T) {
	base := Triplet{Home: 0.40, Draw: 0.30, Away: 0.30}
	sets, _, err := GenerateSets(base, Triplet{}, false, SetContext{}, DefaultSetGenConfig())
	if err != nil {
		t.Fatalf("GenerateSets: %v", err)
	}
	if sets[SetMarketBalanced] != base || sets[SetMarketDominant] != base {
		t.Error("market-dependent sets must fall back to base when no market odds are present")
	}
	if sets[SetKellyWeighted] != base {
		t.Error("Kelly-weighted set must fall back to base when no market odds are present")
	}
}

func TestEntropyPenalizedSet_BroadensLowEntropyTriplet(t *testing.T) {
	base := Triplet{Home: 0.90, Draw: 0.05, Away: 0.05}
	out, err := entropyPenalizedSet(base)
	if err != nil {
		t.Fatalf("entropyPenalizedSet: %v", err)
	}
	if entropyOf(out) <= entropyOf(base) {
		t.Errorf("expected broadened entropy, got %.6f vs base %.6f", entropyOf(out), entropyOf(base))
	}
	if err := CheckTriplet(out); err != nil {
		t.Errorf("P1 violated: %v", err)
	}
}

func TestEntropyPenalizedSet_HighEntropyUnchanged(t *testing.T) {
	base := Triplet{Home: 0.34, Draw: 0.33, Away: 0.33}
	out, err := entropyPenalizedSet(base)
	if err != nil {
		t.Fatalf("entropyPenalizedSet: %v", err)
	}
	if out != base {
		t.Errorf("expected pass-through for already-high-entropy base, got %+v", out)
	}
}

func TestKellyWeightedSet_FallsBackWhenNoEdge(t *testing.T) {
	base := Triplet{Home: 0.30, Draw: 0.30, Away: 0.40}
	market := Triplet{Home: 0.35, Draw: 0.35, Away: 0.40} // base has no positive edge anywhere
	out, err := kellyWeightedSet(base, market)
	if err != nil {
		t.Fatalf("kellyWeightedSet: %v", err)
	}
	if out != base {
		t.Errorf("expected fallback to base, got %+v", out)
	}
}
