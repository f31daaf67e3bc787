package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/fixtureline/internal/core"
	"github.com/stormlightlabs/fixtureline/internal/db"
	"github.com/stormlightlabs/fixtureline/internal/echo"
	"github.com/stormlightlabs/fixtureline/internal/engine"
	"github.com/stormlightlabs/fixtureline/internal/repository"
)

// ModelCmd creates the model command group
func ModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Model training and activation",
		Long:  "Train, activate, and inspect Dixon-Coles model versions.",
	}
	cmd.AddCommand(ModelTrainCmd())
	cmd.AddCommand(ModelActivateCmd())
	cmd.AddCommand(ModelListCmd())
	cmd.AddCommand(ModelCalibrationCmd())
	return cmd
}

// ModelTrainCmd creates the train command
func ModelTrainCmd() *cobra.Command {
	var league string
	var cutoff string
	var seasons []string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a new model version",
		Long:  "Fit a new Dixon-Coles model version against historical matches for a league.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return trainModel(cmd, league, cutoff, seasons)
		},
	}

	cmd.Flags().StringVar(&league, "league", "", "League code to train against (required)")
	cmd.Flags().StringVar(&cutoff, "cutoff", "", "Training cutoff as RFC3339 timestamp (default: now)")
	cmd.Flags().StringSliceVar(&seasons, "seasons", nil, "Seasons to restrict training to, comma separated")
	cmd.MarkFlagRequired("league")
	return cmd
}

// ModelActivateCmd creates the activate command
func ModelActivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate <version-tag>",
		Short: "Activate a trained model version",
		Long:  "Promote a trained model version to active status for its model type, archiving the previously active version.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return activateModel(cmd, args[0])
		},
	}
	return cmd
}

// ModelListCmd creates the list command
func ModelListCmd() *cobra.Command {
	var modelType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List model versions",
		Long:  "List trained model versions of one model type.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listModels(cmd, modelType)
		},
	}
	cmd.Flags().StringVar(&modelType, "type", "dixon-coles-1x2", "Model type to list")
	return cmd
}

// ModelCalibrationCmd creates the calibration command
func ModelCalibrationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibration <model-version-id>",
		Short: "Show calibration curves for a model version",
		Long:  "Fetch the reliability curves recorded for a model version.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showCalibration(cmd, args[0])
		},
	}
	return cmd
}

func buildEngine(cmd *cobra.Command) (*engine.Engine, func(), error) {
	cfg, err := loadConfigForCmd(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	database, err := db.Connect(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("error: %w", err)
	}

	eng := engine.New(engine.Engine{
		Leagues:      repository.NewLeagueRepository(database.DB),
		Teams:        repository.NewTeamRepository(database.DB),
		Matches:      repository.NewMatchRepository(database.DB),
		Models:       repository.NewModelRepository(database.DB),
		Jackpots:     repository.NewJackpotRepository(database.DB),
		Predictions:  repository.NewPredictionRepository(database.DB),
		Calibrations: repository.NewCalibrationRepository(database.DB),
		Audit:        repository.NewAuditRepository(database.DB),
		Meta:         repository.NewMetaRepository(database.DB),
	})

	return eng, func() { database.Close() }, nil
}

func trainModel(cmd *cobra.Command, league, cutoffStr string, seasons []string) error {
	echo.Header("Training Model")

	eng, closeFn, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	cutoff := time.Now().UTC()
	if strings.TrimSpace(cutoffStr) != "" {
		parsed, err := time.Parse(time.RFC3339, cutoffStr)
		if err != nil {
			return fmt.Errorf("error: invalid --cutoff: %w", err)
		}
		cutoff = parsed
	}

	echo.Infof("Fitting model for league %s (cutoff %s)...", league, cutoff.Format(time.RFC3339))

	mv, err := eng.TrainModel(cmd.Context(), core.LeagueCode(league), cutoff, seasons)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	echo.Successf("✓ Trained model version %s", mv.VersionTag)
	echo.Infof("  trained on %d matches across %d seasons", mv.TrainingMatches, len(mv.TrainingSeasons))
	echo.Infof("  decay rate %.4f, blend alpha %.4f", mv.DecayRate, mv.BlendAlpha)
	return nil
}

func activateModel(cmd *cobra.Command, versionTag string) error {
	echo.Header("Activating Model")

	eng, closeFn, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := eng.ActivateModelVersion(cmd.Context(), versionTag); err != nil {
		return fmt.Errorf("error: %w", err)
	}

	echo.Successf("✓ Activated model version %s", versionTag)
	return nil
}

func listModels(cmd *cobra.Command, modelType string) error {
	echo.Header("Model Versions")

	eng, closeFn, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	versions, err := eng.Models.List(cmd.Context(), modelType)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	if len(versions) == 0 {
		echo.Info("No model versions found.")
		return nil
	}

	for _, v := range versions {
		echo.Infof("%-24s %-10s trained=%s matches=%s", v.VersionTag, v.Status, v.TrainedAt.Format(time.DateOnly), formatLargeNumber(int64(v.TrainingMatches)))
	}
	return nil
}

func showCalibration(cmd *cobra.Command, modelVersionID string) error {
	echo.Header("Calibration Report")

	eng, closeFn, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := eng.GetCalibration(cmd.Context(), modelVersionID)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	echo.Infof("brier=%.4f logloss=%.4f", report.Brier, report.LogLoss)
	for outcome, curve := range report.Curves {
		echo.Infof("outcome=%-5s method=%-8s samples=%d points=%d", outcome, curve.Method, curve.SampleCount, len(curve.Values))
	}
	return nil
}
