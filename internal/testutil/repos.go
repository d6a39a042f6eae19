package testutil

import (
	"context"
	"sync"

	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
)

// CustomerRepo repositorio de clientes en memoria.
type CustomerRepo struct {
	mu   sync.Mutex
	data map[string]entity.Customer
}

func NewCustomerRepo(customers ...*entity.Customer) *CustomerRepo {
	r := &CustomerRepo{data: make(map[string]entity.Customer)}
	for _, c := range customers {
		r.data[c.ID] = *c
	}
	return r
}

func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[c.ID]; ok {
		return domain.ErrDuplicate
	}
	r.data[c.ID] = *c
	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CustomerRepo) GetByCompanyAndDocument(ctx context.Context, companyID, number string) (*entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.data {
		if c.CompanyID == companyID && c.DocumentNumber == number {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *CustomerRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Customer
	for _, c := range r.data {
		if c.CompanyID == companyID {
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *CustomerRepo) Update(ctx context.Context, c *entity.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.data[c.ID] = *c
	return nil
}

// CompanyRepo repositorio de empresas en memoria.
type CompanyRepo struct {
	mu   sync.Mutex
	data map[string]entity.Company
}

func NewCompanyRepo(companies ...*entity.Company) *CompanyRepo {
	r := &CompanyRepo{data: make(map[string]entity.Company)}
	for _, c := range companies {
		r.data[c.ID] = *c
	}
	return r
}

func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[c.ID] = *c
	return nil
}

func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CompanyRepo) GetByNIT(ctx context.Context, nit string) (*entity.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.data {
		if c.NIT == nit {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *CompanyRepo) Update(ctx context.Context, c *entity.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[c.ID] = *c
	return nil
}

// ProductRepo repositorio de productos en memoria.
type ProductRepo struct {
	mu   sync.Mutex
	data map[string]entity.Product
}

func NewProductRepo(products ...*entity.Product) *ProductRepo {
	r := &ProductRepo{data: make(map[string]entity.Product)}
	for _, p := range products {
		r.data[p.ID] = *p
	}
	return r
}

func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = *p
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepo) GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if p.CompanyID == companyID && p.Code == code {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = *p
	return nil
}

func (r *ProductRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.data {
		if p.CompanyID == companyID {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

// CredentialRepo credenciales en memoria.
type CredentialRepo struct {
	mu   sync.Mutex
	data map[string]entity.Credentials
}

func NewCredentialRepo(creds ...*entity.Credentials) *CredentialRepo {
	r := &CredentialRepo{data: make(map[string]entity.Credentials)}
	for _, c := range creds {
		r.data[c.CompanyID] = *c
	}
	return r
}

func (r *CredentialRepo) Get(ctx context.Context, companyID string) (*entity.Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[companyID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CredentialRepo) Upsert(ctx context.Context, c *entity.Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[c.CompanyID] = *c
	return nil
}

// UserRepo usuarios en memoria.
type UserRepo struct {
	mu   sync.Mutex
	data map[string]entity.User
}

func NewUserRepo(users ...*entity.User) *UserRepo {
	r := &UserRepo{data: make(map[string]entity.User)}
	for _, u := range users {
		r.data[u.ID] = *u
	}
	return r
}

func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	r.data[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.data {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, u := range r.data {
		if u.CompanyID == companyID {
			u := u
			out = append(out, &u)
		}
	}
	return out, nil
}
