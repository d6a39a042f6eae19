package dto

import "github.com/jhoicas/dte-api/pkg/dte"

// CodeLabel par código / etiqueta para selectores.
type CodeLabel struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// CataloguesResponse catálogos para la UI; los mismos códigos que viajan a Hacienda.
type CataloguesResponse struct {
	DocumentTypes       []dte.DocumentTypeInfo       `json:"document_types"`
	InvalidationReasons []dte.InvalidationReasonInfo `json:"invalidation_reasons"`
	IdentityDocuments   []CodeLabel                  `json:"identity_documents"`
	UnitMeasures        []int                        `json:"unit_measures"`
	Statuses            []string                     `json:"statuses"`
}

// ActivityResponse actividad económica (CAT-019).
type ActivityResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
