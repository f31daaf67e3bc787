package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/fixtureline/internal/echo"
)

// StatusCmd creates the status command
func StatusCmd() *cobra.Command {
	var modelType string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show active model, training coverage, and schema state",
		Long:  "Display the active model version, per-league match coverage, and applied migrations.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return status(cmd, modelType)
		},
	}
	cmd.Flags().StringVar(&modelType, "type", "dixon-coles-1x2", "Model type to report on")
	return cmd
}

func status(cmd *cobra.Command, modelType string) error {
	echo.Header("System Status")

	eng, closeFn, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := eng.Status(cmd.Context(), modelType)
	if err != nil {
		return err
	}

	echo.Info("Active model:")
	if report.ActiveModel == nil {
		echo.Infof("  %s: %s", modelType, echo.ErrorStyle().Render("none active"))
	} else {
		mv := report.ActiveModel
		echo.Successf("  %s active, trained %s on %s matches", mv.VersionTag, mv.TrainedAt.Format("2006-01-02"), formatLargeNumber(int64(mv.TrainingMatches)))
	}

	echo.Info("")
	echo.Info("Match coverage by league:")
	if len(report.Coverage) == 0 {
		echo.Info("  no matches loaded")
	}
	for _, c := range report.Coverage {
		echo.Infof("  %-10s %s matches, %s to %s", c.League, formatLargeNumber(int64(c.MatchCount)), c.EarliestMatch.Format("2006-01-02"), c.LatestMatch.Format("2006-01-02"))
	}

	echo.Info("")
	echo.Infof("Applied migrations: %d", len(report.Migrations))
	return nil
}
