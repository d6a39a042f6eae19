package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// ErrCertificateRequired la empresa no tiene registrada la clave del certificado de firma.
	ErrCertificateRequired = errors.New("se requiere registrar el certificado de firma")
)

// Categorías para errors.Is sobre los errores tipados.
var (
	ErrValidation           = errors.New("datos inválidos")
	ErrState                = errors.New("transición de estado inválida")
	ErrSubmission           = errors.New("error al transmitir a Hacienda")
	ErrIncompleteAcceptance = errors.New("respuesta de Hacienda incompleta")
	ErrPolicy               = errors.New("operación no permitida por la política de anulación")
)

// ValidationError dato de entrada inválido; Field identifica el campo.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || target == ErrInvalidInput
}

// StateError transición no permitida por la máquina de estados.
type StateError struct {
	DocumentID string
	From       string
	To         string
	Detail     string
}

func (e *StateError) Error() string {
	msg := fmt.Sprintf("documento %s: no se puede pasar de %s a %s", e.DocumentID, e.From, e.To)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *StateError) Is(target error) bool { return target == ErrState }

// SubmissionError fallo del colaborador de transmisión o anulación.
// Rejected distingue un rechazo explícito de Hacienda de un fallo de red o timeout.
type SubmissionError struct {
	Op       string
	Cause    error
	Rejected bool
	Messages []string
}

func (e *SubmissionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Rejected {
		b.WriteString(": rechazado por Hacienda")
	}
	if len(e.Messages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, "; "))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *SubmissionError) Unwrap() error { return e.Cause }

func (e *SubmissionError) Is(target error) bool { return target == ErrSubmission }

// IncompleteAcceptanceError Hacienda respondió sin alguno de los identificadores.
type IncompleteAcceptanceError struct {
	Missing []string
}

func (e *IncompleteAcceptanceError) Error() string {
	return "respuesta de aceptación incompleta, faltan: " + strings.Join(e.Missing, ", ")
}

func (e *IncompleteAcceptanceError) Is(target error) bool {
	return target == ErrIncompleteAcceptance || target == ErrSubmission
}

// PolicyError el documento no es elegible para anulación.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }

func (e *PolicyError) Is(target error) bool { return target == ErrPolicy }
