package repository

import (
	"context"

	"github.com/jhoicas/dte-api/internal/domain/entity"
)

// CompanyRepository puerto de persistencia para Company.
// La implementación vive en infrastructure.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByNIT(ctx context.Context, nit string) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
}

// CredentialRepository guarda las credenciales de Hacienda por empresa.
type CredentialRepository interface {
	Get(ctx context.Context, companyID string) (*entity.Credentials, error)
	Upsert(ctx context.Context, creds *entity.Credentials) error
}
