package api

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"

	"github.com/stormlightlabs/fixtureline/internal/db"
	"github.com/stormlightlabs/fixtureline/internal/engine"
	"github.com/stormlightlabs/fixtureline/internal/repository"
	"github.com/stormlightlabs/fixtureline/internal/testutils"
)

var (
	testServer *Server
	testDB     *sql.DB
	testEngine *engine.Engine
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	projectRoot, err := testutils.GetProjectRoot()
	if err != nil {
		panic("failed to get project root: " + err.Error())
	}

	originalDir, err := os.Getwd()
	if err != nil {
		panic("failed to get current directory: " + err.Error())
	}

	if err := os.Chdir(projectRoot); err != nil {
		panic("failed to change to project root: " + err.Error())
	}

	container, err := testutils.NewPostgresContainer(ctx)
	if err != nil {
		panic("failed to create postgres container: " + err.Error())
	}

	cleanup := func() {
		os.Chdir(originalDir)
		if err := container.Terminate(ctx); err != nil {
			panic("failed to terminate container: " + err.Error())
		}
	}

	database, err := db.Connect(container.ConnStr)
	if err != nil {
		cleanup()
		panic("failed to connect to database: " + err.Error())
	}

	if err := database.Migrate(ctx); err != nil {
		cleanup()
		panic("failed to run migrations: " + err.Error())
	}

	testDB = database.DB
	testEngine = engine.New(engine.Engine{
		Leagues:      repository.NewLeagueRepository(testDB),
		Teams:        repository.NewTeamRepository(testDB),
		Matches:      repository.NewMatchRepository(testDB),
		Models:       repository.NewModelRepository(testDB),
		Jackpots:     repository.NewJackpotRepository(testDB),
		Predictions:  repository.NewPredictionRepository(testDB),
		Calibrations: repository.NewCalibrationRepository(testDB),
		Audit:        repository.NewAuditRepository(testDB),
	})
	testServer = NewServer(testEngine)

	code := m.Run()

	cleanup()

	os.Exit(code)
}

func seedLeague(t *testing.T, code string) {
	t.Helper()
	_, err := testDB.Exec(
		`INSERT INTO leagues (code, name, country) VALUES ($1, $1, 'England') ON CONFLICT (code) DO NOTHING`,
		code,
	)
	if err != nil {
		t.Fatalf("seed league %s: %v", code, err)
	}
}

func seedTeam(t *testing.T, id, league, canonical, display string) {
	t.Helper()
	_, err := testDB.Exec(
		`INSERT INTO teams (id, league_code, canonical_name, display_name) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (league_code, canonical_name) DO NOTHING`,
		id, league, canonical, display,
	)
	if err != nil {
		t.Fatalf("seed team %s: %v", id, err)
	}
}
