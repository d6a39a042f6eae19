package billing

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/dte-api/internal/application/dto"
	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/repository"
)

// CredentialService implementa CredentialProvider sobre el repositorio de credenciales.
type CredentialService struct {
	repo repository.CredentialRepository
}

// NewCredentialService construye el servicio.
func NewCredentialService(repo repository.CredentialRepository) *CredentialService {
	return &CredentialService{repo: repo}
}

// Credentials devuelve ErrCertificateRequired si la empresa no registró la clave del certificado.
func (s *CredentialService) Credentials(ctx context.Context, companyID string) (*entity.Credentials, error) {
	creds, err := s.repo.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !creds.CanSign() {
		return nil, domain.ErrCertificateRequired
	}
	return creds, nil
}

// Has indica si la empresa puede firmar.
func (s *CredentialService) Has(ctx context.Context, companyID string) (bool, error) {
	creds, err := s.repo.Get(ctx, companyID)
	if err != nil {
		return false, err
	}
	return creds.CanSign(), nil
}

// Set registra o reemplaza las credenciales de la empresa.
func (s *CredentialService) Set(ctx context.Context, companyID string, in dto.SetCredentialsRequest) error {
	if strings.TrimSpace(in.APIUser) == "" {
		return domain.NewValidationError("api_user", "el usuario de la API es obligatorio")
	}
	if in.APIPassword == "" {
		return domain.NewValidationError("api_password", "la contraseña de la API es obligatoria")
	}
	if in.CertificatePassword == "" {
		return domain.NewValidationError("certificate_password", "la clave del certificado es obligatoria")
	}
	return s.repo.Upsert(ctx, &entity.Credentials{
		CompanyID:           companyID,
		APIUser:             strings.TrimSpace(in.APIUser),
		APIPassword:         in.APIPassword,
		CertificatePassword: in.CertificatePassword,
		UpdatedAt:           time.Now(),
	})
}
