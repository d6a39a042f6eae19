package entity

import "time"

// Customer receptor de los documentos de una empresa.
type Customer struct {
	ID             string
	CompanyID      string
	Name           string
	DocumentType   string // CAT-022: 36 NIT, 13 DUI, ...
	DocumentNumber string
	NRC            string // requerido para CCF
	ActivityCode   string
	ActivityDesc   string
	Email          string
	Phone          string
	Address        string
	HasRetention   bool // agente de retención de IVA (gran contribuyente)
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
