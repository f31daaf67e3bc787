package api

import (
	"net/http"

	"github.com/stormlightlabs/fixtureline/internal/core"
	"github.com/stormlightlabs/fixtureline/internal/engine"
)

type TeamRoutes struct {
	eng *engine.Engine
}

func NewTeamRoutes(eng *engine.Engine) *TeamRoutes {
	return &TeamRoutes{eng: eng}
}

func (tr *TeamRoutes) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/teams/resolve", tr.handleResolveTeam)
}

type resolveTeamResponse struct {
	Match      string   `json:"match,omitempty"`
	Resolved   bool     `json:"resolved"`
	Candidates []string `json:"candidates,omitempty"`
}

// handleResolveTeam godoc
// @Summary Resolve a free-text team name to a canonical roster entry
// @Description Exact canonical match first, then Ratcliff-Obershelp fuzzy fallback within one league
// @Tags teams
// @Accept json
// @Produce json
// @Param league query string true "League code"
// @Param q query string true "Free-text team name"
// @Success 200 {object} resolveTeamResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /teams/resolve [get]
func (tr *TeamRoutes) handleResolveTeam(w http.ResponseWriter, r *http.Request) {
	league := r.URL.Query().Get("league")
	query := r.URL.Query().Get("q")
	if league == "" || query == "" {
		writeBadRequest(w, "league and q are required")
		return
	}

	match, candidates, err := tr.eng.ResolveTeam(r.Context(), core.LeagueCode(league), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveTeamResponse{Match: match, Resolved: match != "", Candidates: candidates})
}
