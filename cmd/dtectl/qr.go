package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/dte-api/pkg/dte"
)

var qrCmd = &cobra.Command{
	Use:     "qr codigo-generacion fecha-emision",
	Short:   "Arma la URL de consulta pública que va en el QR",
	Example: `  dtectl qr --ambiente 01 8F1C2A6B-4D1E-4B7A-9C3D-2E5F6A7B8C9D 2026-03-15`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ambiente, _ := cmd.Flags().GetString("ambiente")
		issued, err := time.ParseInLocation("2006-01-02", args[1], dte.ElSalvador)
		if err != nil {
			return fmt.Errorf("fecha de emisión (AAAA-MM-DD): %w", err)
		}
		url, err := dte.VerificationURL(ambiente, args[0], issued)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func init() {
	qrCmd.Flags().String("ambiente", dte.AmbientePruebas, "00 pruebas, 01 producción")
}
