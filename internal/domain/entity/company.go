package entity

import "time"

// Company emisor de DTE (tenant del sistema).
type Company struct {
	ID                string
	Name              string // nombre o razón social
	TradeName         string // nombre comercial
	NIT               string
	NRC               string
	ActivityCode      string // CAT-019
	ActivityDesc      string
	EstablishmentType string // CAT-009, "01" sucursal/agencia
	EstablishmentCode string // codEstableMH + codPuntoVentaMH, ej. "M001P001"
	Department        string // CAT-012
	Municipality      string // CAT-013
	Address           string
	Phone             string
	Email             string
	Status            string // active, suspended
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

const (
	CompanyStatusActive    = "active"
	CompanyStatusSuspended = "suspended"
)
