package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/internal/application/dto"
	"github.com/jhoicas/dte-api/internal/application/usecase"
	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/testutil"
	"github.com/jhoicas/dte-api/pkg/dte"
)

func TestCompanyCreate(t *testing.T) {
	creds := testutil.NewCredentialRepo()
	uc := usecase.NewCompanyUseCase(testutil.NewCompanyRepo(), billing.NewCredentialService(creds))
	ctx := context.Background()

	in := dto.CreateCompanyRequest{Name: "Tienda El Sol", NIT: "0614-010190-101-0", NRC: "123-4"}
	got, err := uc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "06140101901010", got.NIT)
	assert.Equal(t, "1234", got.NRC)
	assert.Equal(t, usecase.DefaultEstablishment, got.EstablishmentCode)
	assert.False(t, got.HasCredentials)

	_, err = uc.Create(ctx, in)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, dto.CreateCompanyRequest{Name: "X", NIT: "123", NRC: "1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, billing.NewCredentialService(creds).Set(ctx, got.ID, dto.SetCredentialsRequest{
		APIUser: "06140101901010", APIPassword: "api", CertificatePassword: "firma",
	}))
	loaded, err := uc.GetByID(ctx, got.ID)
	require.NoError(t, err)
	assert.True(t, loaded.HasCredentials)
}

func TestProductCreateYUpdate(t *testing.T) {
	uc := usecase.NewProductUseCase(testutil.NewProductRepo())
	ctx := context.Background()

	p, err := uc.Create(ctx, "company-1", dto.CreateProductRequest{Code: "CAF-01", Name: "Café", Price: decimal.RequireFromString("3.456")})
	require.NoError(t, err)
	assert.Equal(t, "3.46", p.Price.StringFixed(2))
	assert.Equal(t, dte.UnidadUnidad, p.UnitMeasure)
	assert.Equal(t, dte.ItemBienes, p.ItemType)

	_, err = uc.Create(ctx, "company-1", dto.CreateProductRequest{Code: "CAF-01", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, "company-1", dto.CreateProductRequest{Code: "X", Name: "X", UnitMeasure: 7})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.GetByID(ctx, "company-2", p.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	price := decimal.RequireFromString("4.00")
	updated, err := uc.Update(ctx, "company-1", p.ID, dto.UpdateProductRequest{Price: &price})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
}
