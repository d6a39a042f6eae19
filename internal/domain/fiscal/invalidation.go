package fiscal

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/pkg/dte"
)

// InvalidationWindow plazo máximo desde la emisión para anular.
const InvalidationWindow = 30 * 24 * time.Hour

// Longitudes mínimas de los datos de la solicitud.
const (
	MinCustomReasonLength    = 5
	MinResponsibleNameLength = 3
	MinResponsibleDocLength  = 8
	MaxResponsibleDocLength  = 20
)

// Eligibility resultado de la verificación de elegibilidad.
type Eligibility struct {
	Allowed bool
	Reason  string
}

// CanInvalidate aplica las reglas en orden y devuelve la primera que falla.
func CanInvalidate(doc *entity.Document, now time.Time) Eligibility {
	if doc.Status != entity.StatusCompletada {
		return Eligibility{Reason: "solo se pueden anular documentos completados"}
	}
	if doc.GenerationCode == "" || doc.ControlNumber == "" {
		return Eligibility{Reason: "el documento no tiene código de generación o número de control de Hacienda"}
	}
	if doc.Invalidated {
		return Eligibility{Reason: "el documento ya fue anulado"}
	}
	if now.Sub(doc.IssueDate) > InvalidationWindow {
		return Eligibility{Reason: "el documento supera el plazo de 30 días para su anulación"}
	}
	return Eligibility{Allowed: true}
}

// RequestValidation resultado de validar los datos de la solicitud de anulación.
type RequestValidation struct {
	Valid bool
	Field string
	Error string
}

// ValidateRequest valida motivo y responsable. Las longitudes se cuentan en caracteres tras recortar espacios.
func ValidateRequest(reason dte.InvalidationReason, customReason, responsibleName, responsibleDocument string) RequestValidation {
	if !reason.Valid() {
		return RequestValidation{Field: "reason", Error: "el motivo de anulación no es válido"}
	}
	if reason == dte.MotivoOtro && charCount(customReason) < MinCustomReasonLength {
		return RequestValidation{Field: "custom_reason", Error: "el motivo personalizado debe tener al menos 5 caracteres"}
	}
	if charCount(responsibleName) < MinResponsibleNameLength {
		return RequestValidation{Field: "responsible_name", Error: "el nombre del responsable debe tener al menos 3 caracteres"}
	}
	if charCount(responsibleDocument) < MinResponsibleDocLength {
		return RequestValidation{Field: "responsible_document", Error: "el documento del responsable debe tener al menos 8 caracteres"}
	}
	if charCount(responsibleDocument) > MaxResponsibleDocLength {
		return RequestValidation{Field: "responsible_document", Error: "el documento del responsable admite como máximo 20 caracteres"}
	}
	return RequestValidation{Valid: true}
}

// ReasonText texto del motivo que se transmite: el personalizado para "otro", la etiqueta del catálogo en los demás.
func ReasonText(reason dte.InvalidationReason, customReason string) string {
	if reason == dte.MotivoOtro {
		return strings.TrimSpace(customReason)
	}
	info, _ := reason.Info()
	return info.Label
}

func charCount(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
