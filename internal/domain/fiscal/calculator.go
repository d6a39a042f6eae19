// Package fiscal reúne las reglas puras de los DTE: cálculo de montos,
// correlativos, elegibilidad de anulación y transiciones de estado.
package fiscal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/pkg/dte"
)

var (
	// DefaultTaxFactor 1 + IVA 13 %.
	DefaultTaxFactor = decimal.RequireFromString("1.13")

	rentaRetentionRate = decimal.RequireFromString("0.10")
	ivaRetentionRate   = decimal.RequireFromString("0.01")
	one                = decimal.NewFromInt(1)
)

// round2 redondeo a 2 decimales, mitad alejándose de cero.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal cantidad × precio unitario redondeado a centavos.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return round2(decimal.NewFromInt(int64(quantity)).Mul(unitPrice))
}

// ComputeTotals calcula el resumen del documento a partir de las líneas.
// Los precios incluyen IVA; el impuesto se desglosa dividiendo entre taxFactor.
func ComputeTotals(items []entity.LineItem, docType dte.DocumentType, customerHasRetention bool, taxFactor decimal.Decimal) (entity.Totals, error) {
	if !docType.Valid() {
		return entity.Totals{}, fmt.Errorf("fiscal: tipo de documento desconocido %q", docType)
	}
	if !taxFactor.GreaterThan(one) {
		return entity.Totals{}, fmt.Errorf("fiscal: factor de impuesto inválido %s", taxFactor)
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(LineTotal(it.Quantity, it.UnitPrice))
	}

	t := entity.Totals{
		TotalAmount:     total,
		SubTotal:        total,
		Tax:             decimal.Zero,
		ReteRenta:       decimal.Zero,
		IvaRete1:        decimal.Zero,
		TotalWithoutTax: total,
		TotalPagar:      total,
	}

	switch docType {
	case dte.TipoFacturaExportacion:
		return t, nil
	case dte.TipoSujetoExcluido:
		t.ReteRenta = round2(total.Mul(rentaRetentionRate))
		t.TotalPagar = total.Sub(t.ReteRenta)
		return t, nil
	}

	t.Tax = round2(total.Sub(total.Div(taxFactor)))
	t.SubTotal = total.Sub(t.Tax)
	t.TotalWithoutTax = t.SubTotal

	if customerHasRetention {
		t.IvaRete1 = IVARetention(total, taxFactor)
		if docType.CreditFiscalFamily() {
			t.TotalPagar = total.Sub(t.IvaRete1)
		}
	}
	return t, nil
}

// IVARetention retención de IVA del 1 % sobre la base sin impuesto.
func IVARetention(totalAmount, taxFactor decimal.Decimal) decimal.Decimal {
	return round2(totalAmount.Div(taxFactor).Mul(ivaRetentionRate))
}
