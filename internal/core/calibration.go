package core

import (
	"math"
	"sort"
)

// MinCalibrationSamples is the minimum number of (predicted, observed)
// pairs required to fit a curve; fewer yields the identity curve
// (spec.md §4.6, §7).
const MinCalibrationSamples = 50

// MinReliabilityBins is the minimum bin count a reliability diagram
// must produce before sparse bins are merged (spec.md §4.6).
const MinReliabilityBins = 10

// LogLossFloor keeps a single badly-miscalibrated prediction from
// dominating the aggregate log-loss (spec.md §4.6).
const LogLossFloor = 1e-3

// CalibrationSample is one historical (predicted probability, observed
// outcome) pair used to fit a curve for a single Outcome.
type CalibrationSample struct {
	Predicted float64
	Observed  float64 // 1 if the outcome occurred, else 0
}

// FitIsotonicCurve fits a monotone non-decreasing calibration curve via
// pool-adjacent-violators (spec.md §4.6). Samples are sorted by
// predicted probability with a stable tie-break on input order so the
// result is deterministic across repeated fits of the same dataset.
func FitIsotonicCurve(samples []CalibrationSample) (CalibrationCurve, error) {
	if len(samples) < MinCalibrationSamples {
		return IdentityCalibrationCurve(), nil
	}

	ordered := make([]CalibrationSample, len(samples))
	copy(ordered, samples)
	idx := make([]int, len(ordered))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return ordered[idx[i]].Predicted < ordered[idx[j]].Predicted
	})
	sortedPred := make([]float64, len(ordered))
	sortedObs := make([]float64, len(ordered))
	for i, j := range idx {
		sortedPred[i] = ordered[j].Predicted
		sortedObs[i] = ordered[j].Observed
	}

	// Pool-adjacent-violators: maintain a stack of blocks (sum of
	// predictions, sum of outcomes, count); merge the top two whenever
	// the newest block's mean outcome is below its predecessor's.
	type block struct {
		sumX, sumY float64
		n          int
	}
	var blocks []block
	for i := range sortedPred {
		blocks = append(blocks, block{sumX: sortedPred[i], sumY: sortedObs[i], n: 1})
		for len(blocks) > 1 {
			last := blocks[len(blocks)-1]
			prev := blocks[len(blocks)-2]
			if prev.sumY/float64(prev.n) <= last.sumY/float64(last.n) {
				break
			}
			merged := block{sumX: prev.sumX + last.sumX, sumY: prev.sumY + last.sumY, n: prev.n + last.n}
			blocks = append(blocks[:len(blocks)-2], merged)
		}
	}

	breakpoints := make([]float64, len(blocks))
	values := make([]float64, len(blocks))
	for i, b := range blocks {
		breakpoints[i] = b.sumX / float64(b.n)
		values[i] = b.sumY / float64(b.n)
	}

	return CalibrationCurve{
		Breakpoints: breakpoints,
		Values:      values,
		Method:      "isotonic-pav",
		SampleCount: len(samples),
	}, nil
}

// IdentityCalibrationCurve is the no-op curve returned when insufficient
// data exists to fit (spec.md §4.6, §7): Apply(p) == p.
func IdentityCalibrationCurve() CalibrationCurve {
	return CalibrationCurve{Method: "identity"}
}

// Apply maps a raw predicted probability through the fitted step
// function via nearest-breakpoint lookup (left-continuous: a query
// below the first breakpoint takes the first value, at/above the last
// breakpoint takes the last value). An empty curve is the identity.
func (c CalibrationCurve) Apply(p float64) float64 {
	if len(c.Breakpoints) == 0 {
		return p
	}
	i := sort.SearchFloat64s(c.Breakpoints, p)
	switch {
	case i == 0:
		return c.Values[0]
	case i >= len(c.Breakpoints):
		return c.Values[len(c.Values)-1]
	default:
		// p lies in (breakpoints[i-1], breakpoints[i]]; take the value of
		// the nearer breakpoint, the lower one on an exact midpoint.
		lo, hi := c.Breakpoints[i-1], c.Breakpoints[i]
		if p-lo <= hi-p {
			return c.Values[i-1]
		}
		return c.Values[i]
	}
}

// BrierScore computes the mean squared error between predicted
// probability and observed (0/1) outcome across samples (spec.md §4.6).
func BrierScore(samples []CalibrationSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		d := s.Predicted - s.Observed
		sum += d * d
	}
	return sum / float64(len(samples))
}

// LogLoss computes the mean negative log-likelihood, with each term
// floored to avoid a single near-zero/near-one miscalibrated sample
// producing an unbounded contribution (spec.md §4.6).
func LogLoss(samples []CalibrationSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		p := clamp(s.Predicted, LogLossFloor, 1-LogLossFloor)
		if s.Observed >= 0.5 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(samples))
}

// ReliabilityDiagram buckets samples into equal-width probability bins,
// merging bins forward into the following bins until each merged bin
// holds at least minCount samples; a short remainder at the top end is
// folded into the last merged bin. The report so never implies
// precision the data doesn't support (spec.md §4.6, §7).
func ReliabilityDiagram(samples []CalibrationSample, minCount int) []ReliabilityBin {
	if len(samples) == 0 {
		return nil
	}
	n := MinReliabilityBins
	width := 1.0 / float64(n)

	type acc struct {
		sumPred, sumObs float64
		count           int
	}
	bins := make([]acc, n)
	for _, s := range samples {
		idx := int(s.Predicted / width)
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].sumPred += s.Predicted
		bins[idx].sumObs += s.Observed
		bins[idx].count++
	}

	// Merge sparse bins forward into the next populated bin so ordering
	// by predicted probability is preserved.
	merged := make([]acc, 0, n)
	var carry acc
	for _, b := range bins {
		carry.sumPred += b.sumPred
		carry.sumObs += b.sumObs
		carry.count += b.count
		if carry.count >= minCount {
			merged = append(merged, carry)
			carry = acc{}
		}
	}
	if carry.count > 0 {
		if len(merged) > 0 {
			merged[len(merged)-1].sumPred += carry.sumPred
			merged[len(merged)-1].sumObs += carry.sumObs
			merged[len(merged)-1].count += carry.count
		} else {
			merged = append(merged, carry)
		}
	}

	out := make([]ReliabilityBin, 0, len(merged))
	for _, b := range merged {
		if b.count == 0 {
			continue
		}
		out = append(out, ReliabilityBin{
			MeanPredicted: b.sumPred / float64(b.count),
			MeanActual:    b.sumObs / float64(b.count),
			Count:         b.count,
		})
	}
	return out
}

// BuildCalibrationReport fits per-outcome curves and evaluates them
// against the same samples, implementing C6's get_calibration surface
// (spec.md §6). samples is keyed by Outcome; heuristic sets must never
// be included by the caller (spec.md §4.5).
func BuildCalibrationReport(samples map[Outcome][]CalibrationSample, minBinCount int) (CalibrationReport, error) {
	curves := make(map[Outcome]CalibrationCurve, len(samples))
	var allSamples []CalibrationSample
	for outcome, s := range samples {
		curve, err := FitIsotonicCurve(s)
		if err != nil {
			return CalibrationReport{}, err
		}
		curves[outcome] = curve
		allSamples = append(allSamples, s...)
	}

	if minBinCount <= 0 {
		minBinCount = 20
	}

	return CalibrationReport{
		Curves:          curves,
		Brier:           BrierScore(allSamples),
		LogLoss:         LogLoss(allSamples),
		ReliabilityBins: ReliabilityDiagram(allSamples, minBinCount),
	}, nil
}
