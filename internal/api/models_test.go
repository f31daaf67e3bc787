package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestModelEndpoints(t *testing.T) {
	seedLeague(t, "API_MODEL_LEAGUE")

	t.Run("POST /v1/models/train with too few matches fails with an internal error", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{"league": "API_MODEL_LEAGUE"})
		req := httptest.NewRequest(http.MethodPost, "/v1/models/train", bytes.NewReader(body))
		w := httptest.NewRecorder()

		testServer.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500 (insufficient training data), got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("POST /v1/models/train with an invalid body returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/models/train", bytes.NewReader([]byte("not json")))
		w := httptest.NewRecorder()

		testServer.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("POST /v1/models/{version}/activate on an unknown version returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/models/does-not-exist/activate", nil)
		req.SetPathValue("version", "does-not-exist")
		w := httptest.NewRecorder()

		testServer.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}
