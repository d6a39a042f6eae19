// Package dte contiene los catálogos del sistema de transmisión de Documentos
// Tributarios Electrónicos del Ministerio de Hacienda de El Salvador.
// Es la única tabla autoritativa de códigos: calculadora, política de anulación,
// DTOs y API la consumen desde aquí.
package dte

import "fmt"

// =============================================================================
// CAT-002 - Tipo de Documento
// =============================================================================

// DocumentType código de dos dígitos del tipo de DTE.
type DocumentType string

const (
	TipoFactura                DocumentType = "01" // Factura (consumidor final)
	TipoCCF                    DocumentType = "03" // Comprobante de Crédito Fiscal
	TipoNotaRemision           DocumentType = "04"
	TipoNotaCredito            DocumentType = "05"
	TipoNotaDebito             DocumentType = "06"
	TipoComprobanteLiquidacion DocumentType = "08"
	TipoFacturaExportacion     DocumentType = "11"
	TipoSujetoExcluido         DocumentType = "14" // Factura de Sujeto Excluido
)

// DocumentTypeInfo describe un tipo de documento: etiqueta para UI y versión del esquema JSON.
type DocumentTypeInfo struct {
	Type          DocumentType `json:"code"`
	Name          string       `json:"name"`
	Label         string       `json:"label"`
	SchemaVersion int          `json:"schema_version"`
}

var documentTypes = []DocumentTypeInfo{
	{TipoFactura, "Factura", "Factura Consumidor Final", 1},
	{TipoCCF, "CreditoFiscal", "Comprobante de Crédito Fiscal", 3},
	{TipoNotaRemision, "NotaRemision", "Nota de Remisión", 3},
	{TipoNotaCredito, "NotaCredito", "Nota de Crédito", 3},
	{TipoNotaDebito, "NotaDebito", "Nota de Débito", 3},
	{TipoComprobanteLiquidacion, "ComprobanteLiquidacion", "Comprobante de Liquidación", 1},
	{TipoFacturaExportacion, "FacturaExportacion", "Factura de Exportación", 1},
	{TipoSujetoExcluido, "SujetoExcluido", "Factura de Sujeto Excluido", 1},
}

// DocumentTypes devuelve una copia del catálogo de tipos de documento.
func DocumentTypes() []DocumentTypeInfo {
	out := make([]DocumentTypeInfo, len(documentTypes))
	copy(out, documentTypes)
	return out
}

// Info devuelve la ficha del tipo; ok=false si el código no existe.
func (t DocumentType) Info() (DocumentTypeInfo, bool) {
	for _, info := range documentTypes {
		if info.Type == t {
			return info, true
		}
	}
	return DocumentTypeInfo{}, false
}

// Valid indica si el código pertenece al catálogo.
func (t DocumentType) Valid() bool {
	_, ok := t.Info()
	return ok
}

// Label etiqueta legible; devuelve el código si no existe.
func (t DocumentType) Label() string {
	if info, ok := t.Info(); ok {
		return info.Label
	}
	return string(t)
}

// ParseDocumentType acepta el código ("03") o el nombre ("CreditoFiscal").
func ParseDocumentType(s string) (DocumentType, error) {
	for _, info := range documentTypes {
		if string(info.Type) == s || info.Name == s {
			return info.Type, nil
		}
	}
	return "", fmt.Errorf("dte: tipo de documento desconocido %q", s)
}

// CarriesVAT indica si el tipo desglosa IVA (los de exportación y sujeto excluido no).
func (t DocumentType) CarriesVAT() bool {
	switch t {
	case TipoFacturaExportacion, TipoSujetoExcluido:
		return false
	}
	return t.Valid()
}

// CreditFiscalFamily tipos que se liquidan como crédito fiscal: la retención de IVA
// se descuenta del total a pagar.
func (t DocumentType) CreditFiscalFamily() bool {
	switch t {
	case TipoCCF, TipoNotaCredito, TipoNotaDebito, TipoComprobanteLiquidacion:
		return true
	}
	return false
}

// RequiresRelatedDocument notas de crédito y débito deben referenciar un CCF.
func (t DocumentType) RequiresRelatedDocument() bool {
	return t == TipoNotaCredito || t == TipoNotaDebito
}

// =============================================================================
// CAT-001 - Ambiente de destino
// =============================================================================

const (
	AmbientePruebas    = "00"
	AmbienteProduccion = "01"
)

// =============================================================================
// CAT-024 - Tipo de invalidación
// =============================================================================

// InvalidationReason motivo de anulación tal como lo elige el usuario.
type InvalidationReason string

const (
	MotivoErrorInformacion   InvalidationReason = "error_informacion"
	MotivoDevolucionProducto InvalidationReason = "devolucion_producto"
	MotivoMutuoAcuerdo       InvalidationReason = "mutuo_acuerdo"
	MotivoOtro               InvalidationReason = "otro"
)

// InvalidationReasonInfo código numérico de Hacienda y texto del motivo.
type InvalidationReasonInfo struct {
	Reason InvalidationReason `json:"reason"`
	Code   int                `json:"code"`
	Label  string             `json:"label"`
}

// Devolución y mutuo acuerdo se transmiten ambos como rescisión de la operación (2).
var invalidationReasons = []InvalidationReasonInfo{
	{MotivoErrorInformacion, 1, "Error en la información del documento"},
	{MotivoDevolucionProducto, 2, "Devolución de producto"},
	{MotivoMutuoAcuerdo, 2, "Rescisión por mutuo acuerdo"},
	{MotivoOtro, 3, "Otro"},
}

// InvalidationReasons devuelve una copia del catálogo de motivos.
func InvalidationReasons() []InvalidationReasonInfo {
	out := make([]InvalidationReasonInfo, len(invalidationReasons))
	copy(out, invalidationReasons)
	return out
}

// Info devuelve la ficha del motivo.
func (r InvalidationReason) Info() (InvalidationReasonInfo, bool) {
	for _, info := range invalidationReasons {
		if info.Reason == r {
			return info, true
		}
	}
	return InvalidationReasonInfo{}, false
}

// Valid indica si el motivo pertenece al catálogo.
func (r InvalidationReason) Valid() bool {
	_, ok := r.Info()
	return ok
}

// =============================================================================
// CAT-022 - Tipo de documento de identificación
// =============================================================================

const (
	IDNIT             = "36"
	IDDUI             = "13"
	IDOtro            = "37"
	IDPasaporte       = "03"
	IDCarnetResidente = "02"
)

// ValidIdentityDocumentTypes códigos de documento de identificación aceptados.
var ValidIdentityDocumentTypes = map[string]string{
	IDNIT:             "NIT",
	IDDUI:             "DUI",
	IDOtro:            "Otro",
	IDPasaporte:       "Pasaporte",
	IDCarnetResidente: "Carnet de residente",
}

// =============================================================================
// CAT-014 - Unidad de medida (uso común) y CAT-011 - Tipo de ítem
// =============================================================================

const (
	UnidadMetro     = 1
	UnidadKilogramo = 34
	UnidadLitro     = 23
	UnidadUnidad    = 59
	UnidadOtra      = 99
)

var ValidUnitCodes = map[int]bool{
	UnidadMetro: true, UnidadKilogramo: true, UnidadLitro: true, UnidadUnidad: true, UnidadOtra: true,
}

const (
	ItemBienes    = 1
	ItemServicios = 2
	ItemAmbos     = 3
)

// =============================================================================
// Otros valores fijos del esquema
// =============================================================================

const (
	Moneda                    = "USD"
	ModeloFacturacionPrevio   = 1
	TransmisionNormal         = 1
	InvalidationSchemaVersion = 2
)
