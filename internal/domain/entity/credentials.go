package entity

import "time"

// Credentials credenciales de una empresa ante Hacienda y el firmador.
type Credentials struct {
	CompanyID           string
	APIUser             string // usuario de la API de recepción (NIT)
	APIPassword         string
	CertificatePassword string // clave privada del certificado en el firmador
	UpdatedAt           time.Time
}

// CanSign true si hay clave del certificado.
func (c *Credentials) CanSign() bool {
	return c != nil && c.CertificatePassword != ""
}
