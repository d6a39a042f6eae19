package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/dte-api/internal/domain/fiscal"
	"github.com/jhoicas/dte-api/internal/infrastructure/postgres"
	"github.com/jhoicas/dte-api/pkg/dte"
)

var nextNumberCmd = &cobra.Command{
	Use:   "next-number company-id tipo",
	Short: "Muestra el siguiente correlativo de la empresa para un tipo de documento",
	Long: `Consulta el correlativo máximo ya asignado y muestra el siguiente.
Es solo lectura: la asignación real ocurre al crear el documento, bajo bloqueo.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		docType, err := dte.ParseDocumentType(args[1])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		_, _, pool, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		max, err := postgres.NewDocumentRepository(pool).MaxNumber(ctx, args[0], docType)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), fiscal.NextFromMax(max))
		return nil
	},
}
