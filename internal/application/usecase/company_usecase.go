package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/dte-api/internal/application/dto"
	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/repository"
	"github.com/jhoicas/dte-api/pkg/dte"
)

// DefaultEstablishment casa matriz, punto de venta 001.
const DefaultEstablishment = "M001P001"

// CredentialChecker indica si una empresa puede firmar documentos.
type CredentialChecker interface {
	Has(ctx context.Context, companyID string) (bool, error)
}

// CompanyUseCase aplica reglas de negocio para empresas emisoras.
type CompanyUseCase struct {
	repo  repository.CompanyRepository
	creds CredentialChecker
}

// NewCompanyUseCase construye el caso de uso con el puerto de persistencia.
func NewCompanyUseCase(repo repository.CompanyRepository, creds CredentialChecker) *CompanyUseCase {
	return &CompanyUseCase{repo: repo, creds: creds}
}

// Create registra un emisor. Devuelve domain.ErrDuplicate si el NIT ya existe.
func (uc *CompanyUseCase) Create(ctx context.Context, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.NewValidationError("name", "el nombre es obligatorio")
	}
	if err := dte.ValidateNIT(in.NIT); err != nil {
		return nil, domain.NewValidationError("nit", err.Error())
	}
	if dte.NormalizeDigits(in.NRC) == "" {
		return nil, domain.NewValidationError("nrc", "el NRC es obligatorio para emitir DTE")
	}
	nit := dte.NormalizeDigits(in.NIT)
	existing, err := uc.repo.GetByNIT(ctx, nit)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	establishment := strings.ToUpper(strings.TrimSpace(in.EstablishmentCode))
	if establishment == "" {
		establishment = DefaultEstablishment
	}
	now := time.Now()
	company := &entity.Company{
		ID:                uuid.New().String(),
		Name:              strings.TrimSpace(in.Name),
		TradeName:         strings.TrimSpace(in.TradeName),
		NIT:               nit,
		NRC:               dte.NormalizeDigits(in.NRC),
		ActivityCode:      in.ActivityCode,
		ActivityDesc:      in.ActivityDesc,
		EstablishmentType: in.EstablishmentType,
		EstablishmentCode: establishment,
		Department:        in.Department,
		Municipality:      in.Municipality,
		Address:           in.Address,
		Phone:             in.Phone,
		Email:             in.Email,
		Status:            entity.CompanyStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	return toCompanyResponse(company, false), nil
}

// GetByID obtiene una empresa por ID con el indicador de credenciales.
func (uc *CompanyUseCase) GetByID(ctx context.Context, id string) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	has, err := uc.creds.Has(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCompanyResponse(company, has), nil
}

// Update aplica los campos presentes. NIT y NRC no cambian.
func (uc *CompanyUseCase) Update(ctx context.Context, id string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&company.TradeName, in.TradeName)
	set(&company.ActivityCode, in.ActivityCode)
	set(&company.ActivityDesc, in.ActivityDesc)
	set(&company.Address, in.Address)
	set(&company.Phone, in.Phone)
	set(&company.Email, in.Email)
	if in.EstablishmentCode != nil {
		code := strings.ToUpper(strings.TrimSpace(*in.EstablishmentCode))
		if len(code) != len(DefaultEstablishment) {
			return nil, domain.NewValidationError("establishment_code", "el código de establecimiento tiene 8 caracteres (ej. M001P001)")
		}
		company.EstablishmentCode = code
	}
	company.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	has, err := uc.creds.Has(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCompanyResponse(company, has), nil
}

func toCompanyResponse(c *entity.Company, hasCredentials bool) *dto.CompanyResponse {
	return &dto.CompanyResponse{
		ID:                c.ID,
		Name:              c.Name,
		TradeName:         c.TradeName,
		NIT:               c.NIT,
		NRC:               c.NRC,
		ActivityCode:      c.ActivityCode,
		ActivityDesc:      c.ActivityDesc,
		EstablishmentType: c.EstablishmentType,
		EstablishmentCode: c.EstablishmentCode,
		Department:        c.Department,
		Municipality:      c.Municipality,
		Address:           c.Address,
		Phone:             c.Phone,
		Email:             c.Email,
		Status:            c.Status,
		HasCredentials:    hasCredentials,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}
