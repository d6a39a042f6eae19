package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto o servicio facturable.
type Product struct {
	ID          string
	CompanyID   string
	Code        string // único por empresa
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta con IVA incluido
	UnitMeasure int             // CAT-014
	ItemType    int             // CAT-011
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
