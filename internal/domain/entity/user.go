package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleFacturador = "facturador"
	RoleConsulta   = "consulta"
)

// User usuario de una empresa.
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt
	Name         string
	Role         string
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole indica si el rol existe.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleFacturador, RoleConsulta:
		return true
	}
	return false
}
