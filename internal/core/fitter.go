package core

import (
	"context"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/optimize"
)

// FitConfig configures the Dixon-Coles fitter (spec.md §4.2, §6).
type FitConfig struct {
	DecayRate             float64 // xi, default 0.0065 per day
	HomeAdvantagePrior    float64 // gamma0 on the log-gamma scale, default 0.35
	RhoMin, RhoMax        float64 // default (-0.25, 0.25)
	MinTrainingMatches    int     // per league, default 500
	ConvergenceTolerance  float64 // default 1e-6
	MaxIterations         int     // default 500
}

// DefaultFitConfig returns the documented defaults from spec.md §6.
func DefaultFitConfig() FitConfig {
	return FitConfig{
		DecayRate:            0.0065,
		HomeAdvantagePrior:   0.35,
		RhoMin:               -0.25,
		RhoMax:               0.25,
		MinTrainingMatches:   500,
		ConvergenceTolerance: 1e-6,
		MaxIterations:        500,
	}
}

// teamKey scopes a canonical team name to its league to avoid
// cross-league name collisions (spec.md §3: canonical name is unique
// within a league, not globally).
func teamKey(league LeagueCode, canonicalName string) string {
	return string(league) + "/" + canonicalName
}

// fitWorkspace holds the team index and packed-vector layout shared
// between log-likelihood evaluations during one Fit call.
type fitWorkspace struct {
	ctx         context.Context
	matches     []Match
	weights     []float64
	teamIndex   map[string]int
	teams       []string
	cutoffDate  time.Time
	decayRate   float64
}

// packedLen returns the parameter vector length: len(teams) log-alphas
// + len(teams) log-betas + 1 log-gamma + 1 rho (unconstrained, clamped
// in objective via a smooth barrier rather than hard bounds, since
// gonum's Nelder-Mead is unconstrained).
func (w *fitWorkspace) packedLen() int { return 2*len(w.teams) + 2 }

func (w *fitWorkspace) unpack(x []float64) (logAlpha, logBeta []float64, logGamma, rho float64) {
	n := len(w.teams)
	logAlpha = x[:n]
	logBeta = x[n : 2*n]
	logGamma = x[2*n]
	rho = x[2*n+1]
	return
}

// Fit estimates team attack/defence strengths, home advantage, and rho
// by time-decayed maximum likelihood over match history (spec.md §4.2).
// matches later than cutoffDate never enter the objective (I4/P4).
func Fit(ctx context.Context, matches []Match, league *League, cutoffDate time.Time, cfg FitConfig) (TrainedParameters, error) {
	training := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.Date.After(cutoffDate) {
			continue // I4: no signal leakage
		}
		training = append(training, m)
	}

	sort.Slice(training, func(i, j int) bool {
		if !training[i].Date.Equal(training[j].Date) {
			return training[i].Date.Before(training[j].Date)
		}
		if training[i].HomeTeam != training[j].HomeTeam {
			return training[i].HomeTeam < training[j].HomeTeam
		}
		return training[i].AwayTeam < training[j].AwayTeam
	})

	if len(training) < cfg.MinTrainingMatches {
		return TrainedParameters{}, wrapf(ErrInsufficientData, "%d matches < minimum %d", len(training), cfg.MinTrainingMatches)
	}

	latest := training[0].Date
	for _, m := range training {
		if m.Date.After(latest) {
			latest = m.Date
		}
	}

	teamSet := map[string]bool{}
	for _, m := range training {
		teamSet[teamKey(m.League, string(m.HomeTeam))] = true
		teamSet[teamKey(m.League, string(m.AwayTeam))] = true
	}
	teams := make([]string, 0, len(teamSet))
	for t := range teamSet {
		teams = append(teams, t)
	}
	sort.Strings(teams)

	idx := make(map[string]int, len(teams))
	for i, t := range teams {
		idx[t] = i
	}

	weights := make([]float64, len(training))
	for i, m := range training {
		days := latest.Sub(m.Date).Hours() / 24
		weights[i] = math.Exp(-cfg.DecayRate * days)
	}

	ws := &fitWorkspace{ctx: ctx, matches: training, weights: weights, teamIndex: idx, teams: teams, cutoffDate: cutoffDate, decayRate: cfg.DecayRate}

	homeAdvPrior := cfg.HomeAdvantagePrior
	if league != nil {
		homeAdvPrior = league.HomeAdvantagePrior
	}

	x0 := make([]float64, ws.packedLen())
	// alpha=beta=1 initial -> log 0; gamma = exp(homeAdvPrior) multiplicative, so on the log-gamma scale we seed log(exp(homeAdvPrior)) = homeAdvPrior.
	x0[2*len(teams)] = homeAdvPrior
	x0[2*len(teams)+1] = 0 // rho starts at 0

	negLL := negLogLikelihood(ws, cfg)

	problem := optimize.Problem{Func: negLL}

	settings := &optimize.Settings{
		FuncEvaluations: cfg.MaxIterations * 50,
		MajorIterations: cfg.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   cfg.ConvergenceTolerance,
			Iterations: 10,
		},
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})

	if ctxErr := ctx.Err(); ctxErr != nil {
		return TrainedParameters{}, wrapf(ErrTrainingFailed, "cancelled: %v", ctxErr)
	}
	if err != nil && result == nil {
		return TrainedParameters{}, wrapf(ErrOptimizerDiverged, "%v", err)
	}

	logAlpha, logBeta, logGamma, rho := ws.unpack(result.X)
	projectIdentifiability(logAlpha, logBeta)
	rho = clampRho(rho, cfg.RhoMin, cfg.RhoMax)
	gamma := math.Exp(logGamma)

	attack := make(map[string]float64, len(teams))
	defence := make(map[string]float64, len(teams))
	for i, t := range teams {
		a := math.Exp(logAlpha[i])
		b := math.Exp(logBeta[i])
		if a <= 0 || b <= 0 || math.IsNaN(a) || math.IsNaN(b) {
			return TrainedParameters{}, wrapf(ErrTrainingFailed, "team %s ended at a degenerate boundary", t)
		}
		attack[t] = a
		defence[t] = b
	}

	return TrainedParameters{
		HomeAdvantage: gamma,
		Rho:           rho,
		Attack:        attack,
		Defence:       defence,
	}, nil
}

// projectIdentifiability subtracts the mean of log-alpha and log-beta
// in place, enforcing sum(log alpha)=0, sum(log beta)=0 (spec.md §4.2).
func projectIdentifiability(logAlpha, logBeta []float64) {
	subtractMean(logAlpha)
	subtractMean(logBeta)
}

func subtractMean(xs []float64) {
	if len(xs) == 0 {
		return
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for i := range xs {
		xs[i] -= mean
	}
}

func clampRho(rho, lo, hi float64) float64 {
	if rho < lo {
		return lo
	}
	if rho > hi {
		return hi
	}
	return rho
}

// rhoBarrierPenalty softly penalizes rho leaving (rhoMin, rhoMax) so the
// unconstrained Nelder-Mead simplex is discouraged from the boundary
// without a hard clamp mid-optimization (which would break the
// algorithm's simplex geometry).
func rhoBarrierPenalty(rho, lo, hi float64) float64 {
	const k = 1e4
	penalty := 0.0
	if rho < lo {
		d := lo - rho
		penalty += k * d * d
	}
	if rho > hi {
		d := rho - hi
		penalty += k * d * d
	}
	return penalty
}

// negLogLikelihood returns the objective gonum's optimizer minimizes:
// the negated, time-decayed Dixon-Coles log-likelihood of spec.md §4.2,
// with the identifiability projection applied before every evaluation.
func negLogLikelihood(ws *fitWorkspace, cfg FitConfig) func([]float64) float64 {
	n := len(ws.teams)
	return func(x []float64) float64 {
		if ws.ctx != nil {
			select {
			case <-ws.ctx.Done():
				return math.Inf(1)
			default:
			}
		}

		logAlpha := append([]float64(nil), x[:n]...)
		logBeta := append([]float64(nil), x[n:2*n]...)
		logGamma := x[2*n]
		rho := x[2*n+1]

		projectIdentifiability(logAlpha, logBeta)
		gamma := math.Exp(logGamma)

		ll := 0.0
		for i, m := range ws.matches {
			hi := ws.teamIndex[teamKey(m.League, string(m.HomeTeam))]
			ai := ws.teamIndex[teamKey(m.League, string(m.AwayTeam))]

			lambdaH := math.Exp(logAlpha[hi]) * math.Exp(logBeta[ai]) * gamma
			lambdaA := math.Exp(logAlpha[ai]) * math.Exp(logBeta[hi])

			if lambdaH <= 0 || lambdaA <= 0 || math.IsInf(lambdaH, 1) || math.IsInf(lambdaA, 1) {
				return math.Inf(1)
			}

			logPH := float64(m.HomeGoals)*math.Log(lambdaH) - lambdaH - logFactorial(m.HomeGoals)
			logPA := float64(m.AwayGoals)*math.Log(lambdaA) - lambdaA - logFactorial(m.AwayGoals)
			tau := dixonColesTau(m.HomeGoals, m.AwayGoals, lambdaH, lambdaA, rho)
			if tau <= 0 {
				tau = 1e-10
			}

			ll += ws.weights[i] * (logPH + logPA + math.Log(tau))
		}

		ll -= rhoBarrierPenalty(rho, cfg.RhoMin, cfg.RhoMax)

		return -ll
	}
}
