package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskboard/core/cmd/api/commands"
)

// @title Taskboard API
// @version 1.0
// @description Boards, lists and cards with fractional positions and per-board roles.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	rootCmd := &cobra.Command{
		Use:           "taskboard",
		Short:         "Taskboard API server",
		Long:          `Taskboard serves boards, lists and cards to their members and manages the accounts that own them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		commands.NewServeCommand(),
		commands.NewMigrateCommand(),
		commands.NewUserCommand(),
		commands.NewTokensCommand(),
		commands.NewVersionCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
