package fiscal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/fiscal"
	"github.com/jhoicas/dte-api/pkg/dte"
)

func numbered(company string, typ dte.DocumentType, number string) entity.NumberedDocument {
	return entity.NumberedDocument{CompanyID: company, TypeCode: typ, Number: number}
}

func TestNextNumber_SinDocumentos(t *testing.T) {
	assert.Equal(t, "00001", fiscal.NextNumber(nil, "c1", dte.TipoFactura))
}

func TestNextNumber_MaximoMasUno(t *testing.T) {
	existing := []entity.NumberedDocument{
		numbered("c1", dte.TipoFactura, "00001"),
		numbered("c1", dte.TipoFactura, "00007"),
		numbered("c1", dte.TipoFactura, "00002"),
	}
	assert.Equal(t, "00008", fiscal.NextNumber(existing, "c1", dte.TipoFactura))
}

func TestNextNumber_FiltraEmpresaYTipo(t *testing.T) {
	existing := []entity.NumberedDocument{
		numbered("c1", dte.TipoFactura, "00003"),
		numbered("c2", dte.TipoFactura, "00050"),
		numbered("c1", dte.TipoCCF, "00020"),
	}
	assert.Equal(t, "00004", fiscal.NextNumber(existing, "c1", dte.TipoFactura))
	assert.Equal(t, "00021", fiscal.NextNumber(existing, "c1", dte.TipoCCF))
	assert.Equal(t, "00001", fiscal.NextNumber(existing, "c2", dte.TipoCCF))
}

func TestNextNumber_IgnoraNoNumericos(t *testing.T) {
	existing := []entity.NumberedDocument{
		numbered("c1", dte.TipoFactura, "ABC"),
		numbered("c1", dte.TipoFactura, ""),
		numbered("c1", dte.TipoFactura, "00004"),
		numbered("c1", dte.TipoFactura, "12.5"),
	}
	assert.Equal(t, "00005", fiscal.NextNumber(existing, "c1", dte.TipoFactura))
}

func TestNextNumber_SecuenciaSinHuecos(t *testing.T) {
	var existing []entity.NumberedDocument
	for i := 1; i <= 120; i++ {
		n := fiscal.NextNumber(existing, "c1", dte.TipoCCF)
		assert.Equal(t, fiscal.FormatNumber(int64(i)), n)
		existing = append(existing, numbered("c1", dte.TipoCCF, n))
	}
	assert.Equal(t, "00120", existing[len(existing)-1].Number)
}

func TestNextFromMax(t *testing.T) {
	assert.Equal(t, "00001", fiscal.NextFromMax(0))
	assert.Equal(t, "00042", fiscal.NextFromMax(41))
	assert.Equal(t, "00001", fiscal.NextFromMax(-3))
}
