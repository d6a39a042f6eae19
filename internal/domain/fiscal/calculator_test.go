package fiscal_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/fiscal"
	"github.com/jhoicas/dte-api/pkg/dte"
)

func item(qty int, price string) entity.LineItem {
	return entity.LineItem{Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// assertMoney compara montos ignorando la escala (20 == 20.00).
func assertMoney(t *testing.T, want string, got decimal.Decimal, campo string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: esperado %s, obtenido %s", campo, want, got.StringFixed(2))
}

func TestComputeTotals_Factura(t *testing.T) {
	totals, err := fiscal.ComputeTotals([]entity.LineItem{item(2, "10.00")}, dte.TipoFactura, false, fiscal.DefaultTaxFactor)
	require.NoError(t, err)

	assertMoney(t, "20.00", totals.TotalAmount, "total")
	assertMoney(t, "2.30", totals.Tax, "iva")
	assertMoney(t, "17.70", totals.SubTotal, "subtotal")
	assertMoney(t, "17.70", totals.TotalWithoutTax, "total sin impuesto")
	assertMoney(t, "20.00", totals.TotalPagar, "total a pagar")
	assert.True(t, totals.IvaRete1.IsZero())
	assert.True(t, totals.ReteRenta.IsZero())
}

func TestComputeTotals_CCFConRetencion(t *testing.T) {
	totals, err := fiscal.ComputeTotals([]entity.LineItem{item(1, "113.00")}, dte.TipoCCF, true, fiscal.DefaultTaxFactor)
	require.NoError(t, err)

	assertMoney(t, "13.00", totals.Tax, "iva")
	assertMoney(t, "100.00", totals.SubTotal, "subtotal")
	assertMoney(t, "1.00", totals.IvaRete1, "retención IVA")
	assertMoney(t, "112.00", totals.TotalPagar, "el CCF descuenta la retención")
}

func TestComputeTotals_FacturaConRetencionNoDescuenta(t *testing.T) {
	totals, err := fiscal.ComputeTotals([]entity.LineItem{item(1, "113.00")}, dte.TipoFactura, true, fiscal.DefaultTaxFactor)
	require.NoError(t, err)

	assertMoney(t, "1.00", totals.IvaRete1, "retención IVA")
	assertMoney(t, "113.00", totals.TotalPagar, "la factura no descuenta la retención")
}

func TestComputeTotals_SujetoExcluido(t *testing.T) {
	totals, err := fiscal.ComputeTotals([]entity.LineItem{item(3, "33.33")}, dte.TipoSujetoExcluido, true, fiscal.DefaultTaxFactor)
	require.NoError(t, err)

	assertMoney(t, "99.99", totals.TotalAmount, "total")
	assertMoney(t, "10.00", totals.ReteRenta, "retención renta")
	assertMoney(t, "89.99", totals.TotalPagar, "total a pagar")
	assert.True(t, totals.Tax.IsZero(), "sujeto excluido no lleva IVA")
	assert.True(t, totals.IvaRete1.IsZero())
}

func TestComputeTotals_Exportacion(t *testing.T) {
	totals, err := fiscal.ComputeTotals([]entity.LineItem{item(5, "20.00")}, dte.TipoFacturaExportacion, true, fiscal.DefaultTaxFactor)
	require.NoError(t, err)

	assertMoney(t, "100.00", totals.TotalAmount, "total")
	assertMoney(t, "100.00", totals.TotalPagar, "total a pagar")
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.IvaRete1.IsZero())
	assert.True(t, totals.ReteRenta.IsZero())
}

func TestComputeTotals_ListaVacia(t *testing.T) {
	for _, typ := range dte.DocumentTypes() {
		totals, err := fiscal.ComputeTotals(nil, typ.Type, true, fiscal.DefaultTaxFactor)
		require.NoError(t, err)
		assert.True(t, totals.TotalAmount.IsZero(), typ.Label)
		assert.True(t, totals.TotalPagar.IsZero(), typ.Label)
		assert.True(t, totals.Tax.IsZero(), typ.Label)
	}
}

func TestComputeTotals_PrecioCeroNoSeRechaza(t *testing.T) {
	totals, err := fiscal.ComputeTotals([]entity.LineItem{item(1, "0"), item(1, "10.00")}, dte.TipoFactura, false, fiscal.DefaultTaxFactor)
	require.NoError(t, err)
	assertMoney(t, "10.00", totals.TotalAmount, "total")
}

func TestComputeTotals_SubtotalMasIVAIgualTotal(t *testing.T) {
	prices := []string{"0.01", "0.99", "1.13", "3.33", "7.77", "10.50", "19.99", "45.67", "99.95", "250.01"}
	for _, typ := range []dte.DocumentType{dte.TipoFactura, dte.TipoCCF, dte.TipoNotaCredito} {
		var items []entity.LineItem
		for i, p := range prices {
			items = append(items, item(i%7+1, p))
			totals, err := fiscal.ComputeTotals(items, typ, false, fiscal.DefaultTaxFactor)
			require.NoError(t, err)
			assert.True(t, totals.SubTotal.Add(totals.Tax).Equal(totals.TotalAmount),
				"%s con %d líneas: %s + %s != %s", typ, len(items), totals.SubTotal, totals.Tax, totals.TotalAmount)
			assert.True(t, totals.Tax.Equal(totals.Tax.Round(2)), "el IVA se redondea a centavos")
		}
	}
}

func TestComputeTotals_OtroFactor(t *testing.T) {
	totals, err := fiscal.ComputeTotals([]entity.LineItem{item(1, "110.00")}, dte.TipoFactura, false, dec("1.10"))
	require.NoError(t, err)
	assertMoney(t, "10.00", totals.Tax, "iva con factor 1.10")
}

func TestComputeTotals_Errores(t *testing.T) {
	_, err := fiscal.ComputeTotals(nil, dte.DocumentType("99"), false, fiscal.DefaultTaxFactor)
	assert.Error(t, err, "tipo desconocido")

	_, err = fiscal.ComputeTotals(nil, dte.TipoFactura, false, dec("1"))
	assert.Error(t, err, "factor debe ser mayor que 1")
}

func TestLineTotal_RedondeoMitadLejosDeCero(t *testing.T) {
	assertMoney(t, "1.01", fiscal.LineTotal(3, dec("0.335")), "1.005 redondea hacia arriba")
	assertMoney(t, "0.00", fiscal.LineTotal(1, dec("0.004")), "0.004 redondea hacia abajo")
	assertMoney(t, "200.00", fiscal.LineTotal(100, dec("2")), "cantidad máxima")
}
