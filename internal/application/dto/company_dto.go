package dto

import "time"

// CreateCompanyRequest entrada para registrar un emisor.
type CreateCompanyRequest struct {
	Name              string `json:"name"`
	TradeName         string `json:"trade_name"`
	NIT               string `json:"nit"`
	NRC               string `json:"nrc"`
	ActivityCode      string `json:"activity_code"`
	ActivityDesc      string `json:"activity_desc"`
	EstablishmentType string `json:"establishment_type"`
	EstablishmentCode string `json:"establishment_code"` // ej. M001P001
	Department        string `json:"department"`
	Municipality      string `json:"municipality"`
	Address           string `json:"address"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
}

// UpdateCompanyRequest campos opcionales.
type UpdateCompanyRequest struct {
	TradeName         *string `json:"trade_name"`
	ActivityCode      *string `json:"activity_code"`
	ActivityDesc      *string `json:"activity_desc"`
	EstablishmentCode *string `json:"establishment_code"`
	Address           *string `json:"address"`
	Phone             *string `json:"phone"`
	Email             *string `json:"email"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	TradeName         string    `json:"trade_name"`
	NIT               string    `json:"nit"`
	NRC               string    `json:"nrc"`
	ActivityCode      string    `json:"activity_code"`
	ActivityDesc      string    `json:"activity_desc"`
	EstablishmentType string    `json:"establishment_type"`
	EstablishmentCode string    `json:"establishment_code"`
	Department        string    `json:"department"`
	Municipality      string    `json:"municipality"`
	Address           string    `json:"address"`
	Phone             string    `json:"phone"`
	Email             string    `json:"email"`
	Status            string    `json:"status"`
	HasCredentials    bool      `json:"has_credentials"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SetCredentialsRequest body para PUT /api/companies/me/credentials.
type SetCredentialsRequest struct {
	APIUser             string `json:"api_user"`
	APIPassword         string `json:"api_password"`
	CertificatePassword string `json:"certificate_password"`
}
