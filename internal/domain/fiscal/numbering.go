package fiscal

import (
	"fmt"
	"strconv"

	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/pkg/dte"
)

// NumberWidth dígitos del correlativo.
const NumberWidth = 5

// NextNumber siguiente correlativo para (empresa, tipo) a partir de los documentos existentes.
// Los números que no son enteros se ignoran.
func NextNumber(existing []entity.NumberedDocument, companyID string, docType dte.DocumentType) string {
	var max int64
	for _, d := range existing {
		if d.CompanyID != companyID || d.TypeCode != docType {
			continue
		}
		n, err := strconv.ParseInt(d.Number, 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return NextFromMax(max)
}

// NextFromMax formatea max+1 con ceros a la izquierda. max=0 significa que no hay documentos.
func NextFromMax(max int64) string {
	if max < 0 {
		max = 0
	}
	return FormatNumber(max + 1)
}

// FormatNumber correlativo con NumberWidth dígitos.
func FormatNumber(n int64) string {
	return fmt.Sprintf("%0*d", NumberWidth, n)
}
