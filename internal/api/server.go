package api

import (
	_ "expvar"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/stormlightlabs/fixtureline/internal/echo"
	"github.com/stormlightlabs/fixtureline/internal/engine"
)

type Server struct {
	mux *http.ServeMux
}

// NewServer wires the engine's operations into route registrars and
// returns a ready-to-serve http.Handler.
func NewServer(eng *engine.Engine) *Server {
	echo.Info("Registering routes...")

	return newServer(
		NewJackpotRoutes(eng),
		NewModelRoutes(eng),
		NewCalibrationRoutes(eng),
		NewTeamRoutes(eng),
	)
}

func newServer(registrars ...Registrar) *Server {
	mux := http.NewServeMux()

	for _, r := range registrars {
		r.RegisterRoutes(mux)
	}

	// Health check endpoint
	// @Summary Health check
	// @Description Check if the API server is running
	// @Tags health
	// @Accept json
	// @Produce json
	// @Success 200 {object} HealthResponse
	// @Router /health [get]
	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	})

	mux.HandleFunc("/docs/", httpSwagger.WrapHandler)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})

	mux.Handle("GET /debug/vars", http.DefaultServeMux)
	return &Server{mux: mux}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
