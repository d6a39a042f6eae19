package dto

// CreateCustomerRequest body para POST /api/customers.
type CreateCustomerRequest struct {
	Name           string `json:"name"`
	DocumentType   string `json:"document_type"` // CAT-022
	DocumentNumber string `json:"document_number"`
	NRC            string `json:"nrc,omitempty"`
	ActivityCode   string `json:"activity_code,omitempty"`
	ActivityDesc   string `json:"activity_desc,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
	HasRetention   bool   `json:"has_retention"`
}

// UpdateCustomerRequest campos opcionales.
type UpdateCustomerRequest struct {
	Name         *string `json:"name,omitempty"`
	NRC          *string `json:"nrc,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Address      *string `json:"address,omitempty"`
	HasRetention *bool   `json:"has_retention,omitempty"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID             string `json:"id"`
	CompanyID      string `json:"company_id"`
	Name           string `json:"name"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	NRC            string `json:"nrc,omitempty"`
	ActivityCode   string `json:"activity_code,omitempty"`
	ActivityDesc   string `json:"activity_desc,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
	HasRetention   bool   `json:"has_retention"`
}
