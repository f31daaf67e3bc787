// Package main wires the fixtureline CLI's command tree.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/fixtureline/cmd"
	"github.com/stormlightlabs/fixtureline/internal/echo"
)

// RootCmd is the root command for the fixtureline CLI.
var RootCmd = &cobra.Command{
	Use:   "fixtureline",
	Short: "Football 1X2 probability prediction toolkit",
	Long: echo.HeaderStyle().Render("fixtureline") + "\n\n" +
		"Trains and serves Dixon-Coles 1X2 probability predictions for\n" +
		"football jackpot tickets: model fitting, activation, calibration,\n" +
		"and the HTTP API that exposes them.",
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Path to config file (default: ./conf.toml)")
	RootCmd.AddCommand(cmd.DbCmd())
	RootCmd.AddCommand(cmd.ModelCmd())
	RootCmd.AddCommand(cmd.JackpotCmd())
	RootCmd.AddCommand(cmd.ServerCmd())
	RootCmd.AddCommand(cmd.StatusCmd())
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
