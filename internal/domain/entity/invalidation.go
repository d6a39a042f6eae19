package entity

import (
	"time"

	"github.com/jhoicas/dte-api/pkg/dte"
)

// Invalidation registro de una anulación aceptada por Hacienda.
type Invalidation struct {
	ID                   string
	DocumentID           string
	CompanyID            string
	Reason               dte.InvalidationReason
	ReasonText           string
	ResponsibleName      string
	ResponsibleDocType   string
	ResponsibleDocNumber string
	InvalidationCode     string // codigoGeneracion del evento de invalidación
	ReceptionSeal        string
	RequestedAt          time.Time
	CreatedAt            time.Time
}

// InvalidationRequest datos que se transmiten al servicio de anulación.
type InvalidationRequest struct {
	Identification InvalidationIdentification
	Issuer         InvalidationIssuer
	Document       InvalidatedDocument
	Motive         InvalidationMotive
}

// InvalidationIdentification bloque de identificación del evento.
type InvalidationIdentification struct {
	Version        int
	Ambiente       string
	GenerationCode string // código del evento de invalidación
	EmittedAt      time.Time
}

// InvalidationIssuer bloque del emisor.
type InvalidationIssuer struct {
	NIT           string
	NRC           string
	Name          string
	ActivityCode  string
	ActivityDesc  string
	Address       string
	Phone         string
	Email         string
	Establishment string
}

// InvalidatedDocument identificación del DTE que se anula.
type InvalidatedDocument struct {
	TypeCode        dte.DocumentType
	GenerationCode  string
	ControlNumber   string
	ReceptionSeal   string
	IssueDate       time.Time
	ModelType       int
	OperationType   int
	Currency        string
	Tax             string
	CustomerDocType string
	CustomerDocNum  string
	CustomerName    string
}

// InvalidationMotive bloque del motivo y responsable.
type InvalidationMotive struct {
	ReasonCode           int
	ReasonText           string
	ResponsibleName      string
	ResponsibleDocType   string
	ResponsibleDocNumber string
	RequesterName        string
	RequesterDocType     string
	RequesterDocNumber   string
	RequestedAt          time.Time
}

// InvalidationReceipt respuesta de Hacienda a una anulación exitosa.
type InvalidationReceipt struct {
	ReceptionSeal string
	ProcessedAt   time.Time
}
