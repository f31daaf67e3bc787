package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/fixtureline/internal/core"
	"github.com/stormlightlabs/fixtureline/internal/echo"
)

// JackpotCmd creates the jackpot command group
func JackpotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jackpot",
		Short: "Jackpot ticket operations",
		Long:  "Create jackpot tickets and run predictions against their fixtures.",
	}
	cmd.AddCommand(JackpotCreateCmd())
	cmd.AddCommand(JackpotPredictCmd())
	return cmd
}

type fixtureFile struct {
	Owner    string `json:"owner"`
	Fixtures []struct {
		Position    int              `json:"position"`
		League      string           `json:"league"`
		HomeTeam    string           `json:"home_team"`
		AwayTeam    string           `json:"away_team"`
		ScheduledAt time.Time        `json:"scheduled_at"`
		Lat         *float64         `json:"lat,omitempty"`
		Lon         *float64         `json:"lon,omitempty"`
		Odds        *core.MarketOdds `json:"odds,omitempty"`
	} `json:"fixtures"`
}

// JackpotCreateCmd creates the create command
func JackpotCreateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft jackpot ticket",
		Long:  "Create a draft jackpot ticket from a JSON file describing its owner and ordered fixture legs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return createJackpot(cmd, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to a JSON file with owner and fixtures (required)")
	cmd.MarkFlagRequired("file")
	return cmd
}

// JackpotPredictCmd creates the predict command
func JackpotPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict <jackpot-id>",
		Short: "Predict every fixture in a jackpot",
		Long:  "Run the active model over every leg of a jackpot and persist each canonical set of outcome probabilities.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return predictJackpot(cmd, args[0])
		},
	}
	return cmd
}

func createJackpot(cmd *cobra.Command, file string) error {
	echo.Header("Creating Jackpot")

	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("error: failed to read %s: %w", file, err)
	}

	var ff fixtureFile
	if err := json.Unmarshal(raw, &ff); err != nil {
		return fmt.Errorf("error: invalid fixture file: %w", err)
	}

	fixtures := make([]core.Fixture, len(ff.Fixtures))
	for i, f := range ff.Fixtures {
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

	eng, closeFn, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	id, err := eng.CreateJackpot(cmd.Context(), ff.Owner, fixtures)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	echo.Successf("✓ Created jackpot %s with %d fixtures", id, len(fixtures))
	return nil
}

func predictJackpot(cmd *cobra.Command, jackpotID string) error {
	echo.Header("Predicting Jackpot")

	eng, closeFn, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	predictions, err := eng.PredictJackpot(cmd.Context(), jackpotID)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	for _, p := range predictions {
		echo.Infof("fixture=%s set=%s H=%.3f D=%.3f A=%.3f", p.FixtureID, p.SetTag, p.Triplet.Home, p.Triplet.Draw, p.Triplet.Away)
	}
	echo.Successf("✓ Predicted %d fixture legs", len(predictions))
	return nil
}
