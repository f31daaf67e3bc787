package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stormlightlabs/fixtureline/internal/core"
	"github.com/stormlightlabs/fixtureline/internal/repository"
)

func TestCalibrationEndpoint(t *testing.T) {
	t.Run("GET /v1/calibration without model_version_id returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/calibration", nil)
		w := httptest.NewRecorder()

		testServer.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("GET /v1/calibration for a model with no curves returns 404", func(t *testing.T) {
		models := repository.NewModelRepository(testDB)
		mv := core.ModelVersion{
			VersionTag:      "api-calib-no-curves",
			Type:            "api-calib-test",
			Status:          core.ModelArchived,
			TrainedAt:       time.Now().UTC(),
			TrainingMatches: 100,
			TrainingLeagues: []core.LeagueCode{"API_CALIB_LEAGUE"},
			TrainingSeasons: []string{"2023-24"},
			DecayRate:       0.0018,
			BlendAlpha:      0.35,
			Parameters: core.TrainedParameters{
				HomeAdvantage: 0.32,
				Rho:           -0.1,
				Attack:        map[string]float64{"home-fc": 1.1},
				Defence:       map[string]float64{"home-fc": 0.9},
			},
			SetFormulaVersion: "v1",
		}
		if err := models.Save(context.Background(), mv); err != nil {
			t.Fatalf("save model version: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/calibration?model_version_id="+mv.VersionTag, nil)
		w := httptest.NewRecorder()

		testServer.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}
