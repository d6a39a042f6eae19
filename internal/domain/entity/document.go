package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/dte-api/pkg/dte"
)

// Status estado del DTE en su ciclo de vida.
type Status string

const (
	StatusNueva         Status = "Nueva"         // creada localmente, aún no transmitida
	StatusSincronizando Status = "Sincronizando" // transmisión en curso
	StatusCompletada    Status = "Completada"    // aceptada por Hacienda
	StatusAnulada       Status = "Anulada"       // invalidada ante Hacienda, terminal
	StatusModificada    Status = "Modificada"    // editada localmente
)

// Límites de cantidad por línea.
const (
	MinItemQuantity = 1
	MaxItemQuantity = 100
)

// Document representa un Documento Tributario Electrónico de una empresa.
type Document struct {
	ID                string
	CompanyID         string
	CustomerID        string
	TypeCode          dte.DocumentType
	Number            string // correlativo de 5 dígitos por empresa y tipo
	IssueDate         time.Time
	Status            Status
	GenerationCode    string // codigoGeneracion
	ControlNumber     string // numeroControl
	ReceptionSeal     string // selloRecibido
	Items             []LineItem
	Totals            Totals
	Invalidated       bool
	Delivery          Delivery
	Observations      string
	RelatedDocumentID string // CCF al que ajusta una nota de crédito o débito
	LastError         string // último motivo de fallo de transmisión
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Delivery datos de entrega y recepción (CCF, nota de remisión, comprobante de liquidación).
type Delivery struct {
	DeliveredBy         string
	DeliveredByDocument string
	ReceivedBy          string
	ReceivedByDocument  string
}

// LineItem línea del documento. LineTotal = Quantity × UnitPrice.
type LineItem struct {
	ID          string
	DocumentID  string
	Position    int
	ProductID   string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Observation string
	LineTotal   decimal.Decimal
}

// Totals montos del resumen del documento, siempre derivados de las líneas.
type Totals struct {
	TotalAmount     decimal.Decimal // suma de líneas
	SubTotal        decimal.Decimal
	Tax             decimal.Decimal // IVA
	ReteRenta       decimal.Decimal // retención de renta (sujeto excluido)
	IvaRete1        decimal.Decimal // retención de IVA 1%
	TotalWithoutTax decimal.Decimal
	TotalPagar      decimal.Decimal
}

// HasAcceptance true si los tres identificadores de Hacienda están presentes.
func (d *Document) HasAcceptance() bool {
	return d.GenerationCode != "" && d.ControlNumber != "" && d.ReceptionSeal != ""
}

// ClearAcceptance borra los identificadores de Hacienda.
func (d *Document) ClearAcceptance() {
	d.GenerationCode = ""
	d.ControlNumber = ""
	d.ReceptionSeal = ""
}

// Acceptance identificadores que devuelve Hacienda al aceptar un DTE.
type Acceptance struct {
	GenerationCode string
	ControlNumber  string
	ReceptionSeal  string
	ProcessedAt    time.Time
}

// Missing nombres de los identificadores ausentes; vacío si la aceptación está completa.
func (a *Acceptance) Missing() []string {
	var out []string
	if a == nil || a.GenerationCode == "" {
		out = append(out, "codigoGeneracion")
	}
	if a == nil || a.ControlNumber == "" {
		out = append(out, "numeroControl")
	}
	if a == nil || a.ReceptionSeal == "" {
		out = append(out, "selloRecibido")
	}
	return out
}

// NumberedDocument referencia mínima para calcular el siguiente correlativo.
type NumberedDocument struct {
	CompanyID string
	TypeCode  dte.DocumentType
	Number    string
}
