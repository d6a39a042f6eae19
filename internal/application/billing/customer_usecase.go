package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/dte-api/internal/application/dto"
	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/repository"
	"github.com/jhoicas/dte-api/pkg/dte"
)

// CustomerUseCase casos de uso para receptores de documentos.
type CustomerUseCase struct {
	repo repository.CustomerRepository
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{repo: repo}
}

// Create registra un cliente. El DUI se valida con su dígito verificador.
func (uc *CustomerUseCase) Create(ctx context.Context, companyID string, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if err := validateCustomer(in); err != nil {
		return nil, err
	}
	number := strings.TrimSpace(in.DocumentNumber)
	if in.DocumentType == dte.IDNIT || in.DocumentType == dte.IDDUI {
		number = dte.NormalizeDigits(number)
	}
	existing, err := uc.repo.GetByCompanyAndDocument(ctx, companyID, number)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	customer := &entity.Customer{
		ID:             uuid.New().String(),
		CompanyID:      companyID,
		Name:           strings.TrimSpace(in.Name),
		DocumentType:   in.DocumentType,
		DocumentNumber: number,
		NRC:            dte.NormalizeDigits(in.NRC),
		ActivityCode:   in.ActivityCode,
		ActivityDesc:   in.ActivityDesc,
		Email:          in.Email,
		Phone:          in.Phone,
		Address:        in.Address,
		HasRetention:   in.HasRetention,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// validateCustomer reúne todos los errores de campo.
func validateCustomer(in dto.CreateCustomerRequest) error {
	var errs []error
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, domain.NewValidationError("name", "el nombre es obligatorio"))
	}
	if _, ok := dte.ValidIdentityDocumentTypes[in.DocumentType]; !ok {
		errs = append(errs, domain.NewValidationError("document_type", "tipo de documento de identificación inválido"))
	}
	switch in.DocumentType {
	case dte.IDDUI:
		if err := dte.ValidateDUI(in.DocumentNumber); err != nil {
			errs = append(errs, domain.NewValidationError("document_number", err.Error()))
		}
	case dte.IDNIT:
		if err := dte.ValidateNIT(in.DocumentNumber); err != nil {
			errs = append(errs, domain.NewValidationError("document_number", err.Error()))
		}
	default:
		if strings.TrimSpace(in.DocumentNumber) == "" {
			errs = append(errs, domain.NewValidationError("document_number", "el número de documento es obligatorio"))
		}
	}
	return errors.Join(errs...)
}

// Get devuelve un cliente de la empresa.
func (uc *CustomerUseCase) Get(ctx context.Context, companyID, id string) (*dto.CustomerResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if c.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toCustomerResponse(c), nil
}

// Update aplica los campos presentes.
func (uc *CustomerUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if c.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.NewValidationError("name", "el nombre es obligatorio")
		}
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.NRC != nil {
		c.NRC = dte.NormalizeDigits(*in.NRC)
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.HasRetention != nil {
		c.HasRetention = *in.HasRetention
	}
	c.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// List lista clientes de la empresa.
func (uc *CustomerUseCase) List(ctx context.Context, companyID string, page dto.PageRequest) ([]*dto.CustomerResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCustomerResponse(c))
	}
	return out, nil
}
