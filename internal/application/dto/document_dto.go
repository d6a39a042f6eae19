package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateDocumentRequest body para POST /api/documents.
type CreateDocumentRequest struct {
	TypeCode          string              `json:"type_code"` // "01", "03", ... o el nombre del catálogo
	CustomerID        string              `json:"customer_id"`
	Items             []DocumentItemInput `json:"items"`
	Delivery          *DeliveryInput      `json:"delivery,omitempty"`
	Observations      string              `json:"observations,omitempty"`
	RelatedDocumentID string              `json:"related_document_id,omitempty"`
}

// DocumentItemInput línea del documento.
type DocumentItemInput struct {
	ProductID   string          `json:"product_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Observation string          `json:"observation,omitempty"`
}

// DeliveryInput datos de entrega y recepción.
type DeliveryInput struct {
	DeliveredBy         string `json:"delivered_by"`
	DeliveredByDocument string `json:"delivered_by_document"`
	ReceivedBy          string `json:"received_by"`
	ReceivedByDocument  string `json:"received_by_document"`
}

// UpdateDocumentRequest body para PATCH /api/documents/:id.
// Items y CustomerID solo se aceptan mientras el documento no haya sido aceptado por Hacienda.
type UpdateDocumentRequest struct {
	CustomerID   *string             `json:"customer_id,omitempty"`
	Items        []DocumentItemInput `json:"items,omitempty"`
	Delivery     *DeliveryInput      `json:"delivery,omitempty"`
	Observations *string             `json:"observations,omitempty"`
}

// InvalidateDocumentRequest body para POST /api/documents/:id/invalidate.
type InvalidateDocumentRequest struct {
	Reason              string `json:"reason"` // error_informacion | devolucion_producto | mutuo_acuerdo | otro
	CustomReason        string `json:"custom_reason,omitempty"`
	ResponsibleName     string `json:"responsible_name"`
	ResponsibleDocType  string `json:"responsible_doc_type,omitempty"` // CAT-022, por defecto DUI
	ResponsibleDocument string `json:"responsible_document"`
	RequesterName       string `json:"requester_name,omitempty"`
	RequesterDocType    string `json:"requester_doc_type,omitempty"`
	RequesterDocument   string `json:"requester_document,omitempty"`
}

// DocumentFilterRequest query de GET /api/documents.
type DocumentFilterRequest struct {
	PageRequest
	Status   string `query:"status"`
	TypeCode string `query:"type_code"`
}

// TotalsResponse resumen de montos.
type TotalsResponse struct {
	TotalAmount     decimal.Decimal `json:"total_amount"`
	SubTotal        decimal.Decimal `json:"sub_total"`
	Tax             decimal.Decimal `json:"tax"`
	ReteRenta       decimal.Decimal `json:"rete_renta"`
	IvaRete1        decimal.Decimal `json:"iva_rete1"`
	TotalWithoutTax decimal.Decimal `json:"total_without_tax"`
	TotalPagar      decimal.Decimal `json:"total_pagar"`
}

// DocumentItemResponse línea en la respuesta.
type DocumentItemResponse struct {
	Position    int             `json:"position"`
	ProductID   string          `json:"product_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Observation string          `json:"observation,omitempty"`
}

// DocumentResponse documento completo para GET /api/documents/:id.
type DocumentResponse struct {
	ID                string                 `json:"id"`
	CompanyID         string                 `json:"company_id"`
	CustomerID        string                 `json:"customer_id"`
	TypeCode          string                 `json:"type_code"`
	TypeLabel         string                 `json:"type_label"`
	Number            string                 `json:"number"`
	IssueDate         time.Time              `json:"issue_date"`
	Status            string                 `json:"status"`
	GenerationCode    string                 `json:"generation_code,omitempty"`
	ControlNumber     string                 `json:"control_number,omitempty"`
	ReceptionSeal     string                 `json:"reception_seal,omitempty"`
	Invalidated       bool                   `json:"invalidated"`
	Items             []DocumentItemResponse `json:"items"`
	Totals            TotalsResponse         `json:"totals"`
	Delivery          *DeliveryInput         `json:"delivery,omitempty"`
	Observations      string                 `json:"observations,omitempty"`
	RelatedDocumentID string                 `json:"related_document_id,omitempty"`
	LastError         string                 `json:"last_error,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// DocumentStatusResponse respuesta ligera para polling de GET /api/documents/:id/status.
type DocumentStatusResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"` // Nueva | Sincronizando | Completada | Anulada | Modificada
	GenerationCode string `json:"generation_code,omitempty"`
	ControlNumber  string `json:"control_number,omitempty"`
	ReceptionSeal  string `json:"reception_seal,omitempty"`
	LastError      string `json:"last_error,omitempty"`
}

// DocumentListResponse lista paginada de documentos.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// InvalidationResponse resultado de una anulación aceptada.
type InvalidationResponse struct {
	DocumentID       string    `json:"document_id"`
	Status           string    `json:"status"`
	Reason           string    `json:"reason"`
	ReasonCode       int       `json:"reason_code"`
	ReasonText       string    `json:"reason_text"`
	InvalidationCode string    `json:"invalidation_code"`
	ReceptionSeal    string    `json:"reception_seal,omitempty"`
	InvalidatedAt    time.Time `json:"invalidated_at"`
}

// VerificationResponse URL de consulta pública para el QR.
type VerificationResponse struct {
	DocumentID string `json:"document_id"`
	URL        string `json:"url"`
}
