package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/dte-api/internal/infrastructure/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica las migraciones SQL pendientes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if list, _ := cmd.Flags().GetBool("list"); list {
			for _, name := range postgres.MigrationNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}

		ctx := cmd.Context()
		_, log, pool, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := postgres.Migrate(ctx, pool, log.WithComponent("migrate"))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Migraciones aplicadas: %d\n", len(applied))
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("list", false, "solo listar las migraciones embebidas")
}
