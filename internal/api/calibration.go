package api

import (
	"net/http"

	"github.com/stormlightlabs/fixtureline/internal/engine"
)

type CalibrationRoutes struct {
	eng *engine.Engine
}

func NewCalibrationRoutes(eng *engine.Engine) *CalibrationRoutes {
	return &CalibrationRoutes{eng: eng}
}

func (cr *CalibrationRoutes) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/calibration", cr.handleGetCalibration)
}

// handleGetCalibration godoc
// @Summary Get the calibration report for a model version
// @Description Returns the per-outcome isotonic curves, Brier/log-loss, and reliability bins
// @Tags calibration
// @Accept json
// @Produce json
// @Param model_version_id query string true "Model version tag"
// @Success 200 {object} core.CalibrationReport
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /calibration [get]
func (cr *CalibrationRoutes) handleGetCalibration(w http.ResponseWriter, r *http.Request) {
	modelVersionID := r.URL.Query().Get("model_version_id")
	if modelVersionID == "" {
		writeBadRequest(w, "model_version_id is required")
		return
	}

	report, err := cr.eng.GetCalibration(r.Context(), modelVersionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
