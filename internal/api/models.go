package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/stormlightlabs/fixtureline/internal/core"
	"github.com/stormlightlabs/fixtureline/internal/engine"
)

type ModelRoutes struct {
	eng *engine.Engine
}

func NewModelRoutes(eng *engine.Engine) *ModelRoutes {
	return &ModelRoutes{eng: eng}
}

func (mr *ModelRoutes) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/models/train", mr.handleTrainModel)
	mux.HandleFunc("POST /v1/models/{version}/activate", mr.handleActivateModel)
}

type trainModelRequest struct {
	League  string    `json:"league"`
	Cutoff  time.Time `json:"cutoff"`
	Seasons []string  `json:"seasons"`
}

// handleTrainModel godoc
// @Summary Train a new model version
// @Description Fits Dixon-Coles parameters and calibration curves on matches before cutoff, and persists an archived ModelVersion
// @Tags models
// @Accept json
// @Produce json
// @Param body body trainModelRequest true "League, cutoff, season filter"
// @Success 201 {object} core.ModelVersion
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /models/train [post]
func (mr *ModelRoutes) handleTrainModel(w http.ResponseWriter, r *http.Request) {
	var req trainModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Cutoff.IsZero() {
		req.Cutoff = time.Now().UTC()
	}

	mv, err := mr.eng.TrainModel(r.Context(), core.LeagueCode(req.League), req.Cutoff, req.Seasons)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mv)
}

type activateModelResponse struct {
	VersionTag string `json:"version_tag"`
	Activated  bool   `json:"activated"`
}

// handleActivateModel godoc
// @Summary Activate a model version
// @Description Compare-and-swap promotion of a model version to active (I6): at most one active version per model type
// @Tags models
// @Accept json
// @Produce json
// @Param version path string true "Model version tag"
// @Success 200 {object} activateModelResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /models/{version}/activate [post]
func (mr *ModelRoutes) handleActivateModel(w http.ResponseWriter, r *http.Request) {
	versionTag := r.PathValue("version")

	if err := mr.eng.ActivateModelVersion(r.Context(), versionTag); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activateModelResponse{VersionTag: versionTag, Activated: true})
}
