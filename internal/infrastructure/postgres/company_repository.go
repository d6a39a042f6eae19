package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/repository"
)

var (
	_ repository.CompanyRepository    = (*CompanyRepo)(nil)
	_ repository.CredentialRepository = (*CredentialRepo)(nil)
)

// CompanyRepo implementación de CompanyRepository.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

const companyColumns = `id, name, trade_name, nit, nrc, activity_code, activity_desc, establishment_type,
	establishment_code, department, municipality, address, phone, email, status, created_at, updated_at`

// Create persiste una nueva empresa. Devuelve domain.ErrDuplicate si el NIT ya existe.
func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	query := `INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.TradeName, c.NIT, c.NRC, c.ActivityCode, c.ActivityDesc, c.EstablishmentType,
		c.EstablishmentCode, c.Department, c.Municipality, c.Address, c.Phone, c.Email, c.Status,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	return r.getOne(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
}

// GetByNIT obtiene una empresa por NIT normalizado.
func (r *CompanyRepo) GetByNIT(ctx context.Context, nit string) (*entity.Company, error) {
	return r.getOne(ctx, `SELECT `+companyColumns+` FROM companies WHERE nit = $1`, nit)
}

func (r *CompanyRepo) getOne(ctx context.Context, query string, arg string) (*entity.Company, error) {
	var c entity.Company
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.Name, &c.TradeName, &c.NIT, &c.NRC, &c.ActivityCode, &c.ActivityDesc, &c.EstablishmentType,
		&c.EstablishmentCode, &c.Department, &c.Municipality, &c.Address, &c.Phone, &c.Email, &c.Status,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// Update actualiza los datos editables del emisor.
func (r *CompanyRepo) Update(ctx context.Context, c *entity.Company) error {
	const query = `
		UPDATE companies
		SET trade_name = $2, activity_code = $3, activity_desc = $4, establishment_code = $5,
		    address = $6, phone = $7, email = $8, status = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, c.ID, c.TradeName, c.ActivityCode, c.ActivityDesc, c.EstablishmentCode,
		c.Address, c.Phone, c.Email, c.Status, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CredentialRepo credenciales de Hacienda por empresa.
type CredentialRepo struct {
	q Querier
}

// NewCredentialRepository construye el adaptador.
func NewCredentialRepository(q Querier) *CredentialRepo {
	return &CredentialRepo{q: q}
}

// Get devuelve (nil, nil) si la empresa no registró credenciales.
func (r *CredentialRepo) Get(ctx context.Context, companyID string) (*entity.Credentials, error) {
	const query = `
		SELECT company_id, api_user, api_password, certificate_password, updated_at
		FROM company_credentials WHERE company_id = $1`
	var c entity.Credentials
	err := r.q.QueryRow(ctx, query, companyID).Scan(&c.CompanyID, &c.APIUser, &c.APIPassword, &c.CertificatePassword, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	return &c, nil
}

// Upsert registra o reemplaza las credenciales.
func (r *CredentialRepo) Upsert(ctx context.Context, c *entity.Credentials) error {
	const query = `
		INSERT INTO company_credentials (company_id, api_user, api_password, certificate_password, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id) DO UPDATE
		SET api_user = EXCLUDED.api_user,
		    api_password = EXCLUDED.api_password,
		    certificate_password = EXCLUDED.certificate_password,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.q.Exec(ctx, query, c.CompanyID, c.APIUser, c.APIPassword, c.CertificatePassword, c.UpdatedAt); err != nil {
		return fmt.Errorf("upsert credentials: %w", err)
	}
	return nil
}
