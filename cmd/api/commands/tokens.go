package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskboard/core/internal/infrastructure/server"
)

// NewTokensCommand groups maintenance of refresh and activation tokens
func NewTokensCommand() *cobra.Command {
	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Token maintenance commands",
	}

	tokensCmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired refresh and activation tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			app := server.NewApp(e.cfg, e.db, nil, e.logger)
			refresh, activation, err := app.Auth.CleanupExpiredTokens(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d refresh and %d activation tokens\n", refresh, activation)
			return nil
		},
	})

	return tokensCmd
}
