package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/stormlightlabs/fixtureline/internal/core"
	"github.com/stormlightlabs/fixtureline/internal/engine"
)

type JackpotRoutes struct {
	eng *engine.Engine
}

func NewJackpotRoutes(eng *engine.Engine) *JackpotRoutes {
	return &JackpotRoutes{eng: eng}
}

func (jr *JackpotRoutes) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/jackpots", jr.handleCreateJackpot)
	mux.HandleFunc("POST /v1/jackpots/{id}/predict", jr.handlePredictJackpot)
	mux.HandleFunc("GET /v1/jackpots/{id}/fixtures/{fixtureID}/predictions/{set}", jr.handleGetPrediction)
}

type createFixtureRequest struct {
	Position    int              `json:"position"`
	League      string           `json:"league"`
	HomeTeam    string           `json:"home_team"`
	AwayTeam    string           `json:"away_team"`
	ScheduledAt time.Time        `json:"scheduled_at"`
	Lat         *float64         `json:"lat,omitempty"`
	Lon         *float64         `json:"lon,omitempty"`
	Odds        *core.MarketOdds `json:"odds,omitempty"`
}

type createJackpotRequest struct {
	Owner    string                 `json:"owner"`
	Fixtures []createFixtureRequest `json:"fixtures"`
}

type createJackpotResponse struct {
	ID string `json:"id"`
}

// handleCreateJackpot godoc
// @Summary Create a jackpot ticket
// @Description Creates a draft jackpot with its ordered fixture legs
// @Tags jackpots
// @Accept json
// @Produce json
// @Param body body createJackpotRequest true "Jackpot and fixtures"
// @Success 201 {object} createJackpotResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /jackpots [post]
func (jr *JackpotRoutes) handleCreateJackpot(w http.ResponseWriter, r *http.Request) {
	var req createJackpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	fixtures := make([]core.Fixture, len(req.Fixtures))
	for i, f := range req.Fixtures {
		fixtures[i] = core.Fixture{
			Position:    f.Position,
			League:      core.LeagueCode(f.League),
			HomeTeam:    core.TeamID(f.HomeTeam),
			AwayTeam:    core.TeamID(f.AwayTeam),
			ScheduledAt: f.ScheduledAt,
			Lat:         f.Lat,
			Lon:         f.Lon,
			Odds:        f.Odds,
		}
	}

	id, err := jr.eng.CreateJackpot(r.Context(), req.Owner, fixtures)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createJackpotResponse{ID: id})
}

// handlePredictJackpot godoc
// @Summary Predict every fixture in a jackpot
// @Description Runs the active model over every leg and persists each canonical set
// @Tags jackpots
// @Accept json
// @Produce json
// @Param id path string true "Jackpot ID"
// @Success 200 {object} PaginatedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /jackpots/{id}/predict [post]
func (jr *JackpotRoutes) handlePredictJackpot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	preds, err := jr.eng.PredictJackpot(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PaginatedResponse{Data: preds, Total: len(preds)})
}

// handleGetPrediction godoc
// @Summary Get one prediction
// @Description Returns a single fixture's prediction under a canonical set tag
// @Tags jackpots
// @Accept json
// @Produce json
// @Param id path string true "Jackpot ID"
// @Param fixtureID path string true "Fixture ID"
// @Param set path string true "Set tag (A-J)"
// @Success 200 {object} core.Prediction
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /jackpots/{id}/fixtures/{fixtureID}/predictions/{set} [get]
func (jr *JackpotRoutes) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	fixtureID := r.PathValue("fixtureID")
	setTag := core.SetTag(r.PathValue("set"))

	pred, err := jr.eng.GetPrediction(r.Context(), fixtureID, setTag)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}
