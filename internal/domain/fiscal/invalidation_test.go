package fiscal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/fiscal"
	"github.com/jhoicas/dte-api/pkg/dte"
)

var now = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func completedDoc(age time.Duration) *entity.Document {
	return &entity.Document{
		ID:             "doc-1",
		Status:         entity.StatusCompletada,
		GenerationCode: "A1B2C3",
		ControlNumber:  "DTE-01-M001P001-000000000000001",
		ReceptionSeal:  "2024SELLO",
		IssueDate:      now.Add(-age),
	}
}

func TestCanInvalidate_DentroDelPlazo(t *testing.T) {
	res := fiscal.CanInvalidate(completedDoc(29*24*time.Hour), now)
	assert.True(t, res.Allowed)
	assert.Empty(t, res.Reason)
}

func TestCanInvalidate_FueraDelPlazo(t *testing.T) {
	res := fiscal.CanInvalidate(completedDoc(31*24*time.Hour), now)
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "30 días")
}

func TestCanInvalidate_CadaPrecondicion(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(d *entity.Document)
	}{
		{"estado nueva", func(d *entity.Document) { d.Status = entity.StatusNueva }},
		{"estado sincronizando", func(d *entity.Document) { d.Status = entity.StatusSincronizando }},
		{"estado modificada", func(d *entity.Document) { d.Status = entity.StatusModificada }},
		{"sin código de generación", func(d *entity.Document) { d.GenerationCode = "" }},
		{"sin número de control", func(d *entity.Document) { d.ControlNumber = "" }},
		{"ya anulado", func(d *entity.Document) { d.Invalidated = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := completedDoc(24 * time.Hour)
			assert.True(t, fiscal.CanInvalidate(doc, now).Allowed, "el documento base es elegible")

			tc.mutate(doc)
			res := fiscal.CanInvalidate(doc, now)
			assert.False(t, res.Allowed)
			assert.NotEmpty(t, res.Reason)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	cases := []struct {
		name      string
		reason    dte.InvalidationReason
		custom    string
		respName  string
		respDoc   string
		wantField string
		wantMsg   string
	}{
		{"válida", dte.MotivoErrorInformacion, "", "Ana Pérez", "12345678-4", "", ""},
		{"otro válido", dte.MotivoOtro, "Duplicado", "Ana", "12345678", "", ""},
		{"motivo desconocido", "capricho", "", "Ana", "12345678", "reason", ""},
		{"otro corto", dte.MotivoOtro, "ab", "Ana", "12345678", "custom_reason", "5 caracteres"},
		{"otro con espacios", dte.MotivoOtro, "  ab   ", "Ana", "12345678", "custom_reason", "5 caracteres"},
		{"otro multibyte corto", dte.MotivoOtro, "ñañá", "Ana", "12345678", "custom_reason", "5 caracteres"},
		{"nombre corto", dte.MotivoMutuoAcuerdo, "", "Al", "12345678", "responsible_name", "3 caracteres"},
		{"documento corto", dte.MotivoDevolucionProducto, "", "Ana", "1234567", "responsible_document", "8 caracteres"},
		{"documento en el máximo", dte.MotivoErrorInformacion, "", "Ana", "12345678901234567890", "", ""},
		{"documento largo", dte.MotivoErrorInformacion, "", "Ana", "123456789012345678901", "responsible_document", "20 caracteres"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := fiscal.ValidateRequest(tc.reason, tc.custom, tc.respName, tc.respDoc)
			if tc.wantField == "" {
				assert.True(t, res.Valid, res.Error)
				return
			}
			assert.False(t, res.Valid)
			assert.Equal(t, tc.wantField, res.Field)
			if tc.wantMsg != "" {
				assert.Contains(t, res.Error, tc.wantMsg)
			}
		})
	}
}

func TestReasonText(t *testing.T) {
	assert.Equal(t, "Duplicado por error", fiscal.ReasonText(dte.MotivoOtro, "  Duplicado por error "))
	assert.Equal(t, "Devolución de producto", fiscal.ReasonText(dte.MotivoDevolucionProducto, "ignorado"))
}
