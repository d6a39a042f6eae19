package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/fiscal"
	"github.com/jhoicas/dte-api/pkg/dte"
)

var totalsCmd = &cobra.Command{
	Use:   "totals cantidad:precio [cantidad:precio...]",
	Short: "Calcula los montos del resumen para un conjunto de líneas",
	Example: `  # Factura con dos líneas
  dtectl totals --type 01 2:11.30 1:5.65

  # Crédito fiscal a un gran contribuyente (retiene 1 % de IVA)
  dtectl totals --type 03 --retention 10:113`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTotals,
}

func init() {
	totalsCmd.Flags().String("type", string(dte.TipoFactura), "código del tipo de documento (01, 03, 05, 06, 14)")
	totalsCmd.Flags().Bool("retention", false, "el cliente es agente de retención")
	totalsCmd.Flags().String("tax-factor", fiscal.DefaultTaxFactor.String(), "1 + tasa de IVA")
}

func runTotals(cmd *cobra.Command, args []string) error {
	typeFlag, _ := cmd.Flags().GetString("type")
	retention, _ := cmd.Flags().GetBool("retention")
	factorFlag, _ := cmd.Flags().GetString("tax-factor")

	docType, err := dte.ParseDocumentType(typeFlag)
	if err != nil {
		return err
	}
	factor, err := decimal.NewFromString(factorFlag)
	if err != nil {
		return fmt.Errorf("tax-factor inválido: %w", err)
	}
	items, err := parseItems(args)
	if err != nil {
		return err
	}
	totals, err := fiscal.ComputeTotals(items, docType, retention, factor)
	if err != nil {
		return err
	}

	out := map[string]string{
		"tipo":              docType.Label(),
		"total_amount":      totals.TotalAmount.StringFixed(2),
		"sub_total":         totals.SubTotal.StringFixed(2),
		"tax":               totals.Tax.StringFixed(2),
		"rete_renta":        totals.ReteRenta.StringFixed(2),
		"iva_rete1":         totals.IvaRete1.StringFixed(2),
		"total_without_tax": totals.TotalWithoutTax.StringFixed(2),
		"total_pagar":       totals.TotalPagar.StringFixed(2),
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// parseItems interpreta argumentos "cantidad:precio" como líneas del documento.
func parseItems(args []string) ([]entity.LineItem, error) {
	items := make([]entity.LineItem, 0, len(args))
	for i, arg := range args {
		qtyStr, priceStr, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("línea %d: formato esperado cantidad:precio, recibido %q", i+1, arg)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(qtyStr))
		if err != nil {
			return nil, fmt.Errorf("línea %d: cantidad inválida %q", i+1, qtyStr)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(priceStr))
		if err != nil {
			return nil, fmt.Errorf("línea %d: precio inválido %q", i+1, priceStr)
		}
		items = append(items, entity.LineItem{
			Position:    i + 1,
			Description: fmt.Sprintf("línea %d", i+1),
			Quantity:    qty,
			UnitPrice:   price,
			LineTotal:   fiscal.LineTotal(qty, price),
		})
	}
	return items, nil
}
