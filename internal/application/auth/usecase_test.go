package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dte-api/internal/application/auth"
	"github.com/jhoicas/dte-api/internal/application/dto"
	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/testutil"
	"github.com/jhoicas/dte-api/pkg/jwt"
)

const secret = "test-secret"

func newAuth() *auth.AuthUseCase {
	companies := testutil.NewCompanyRepo(&entity.Company{ID: "company-1", Name: "Tienda El Sol"})
	return auth.NewAuthUseCase(testutil.NewUserRepo(), companies, auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "dte-api"})
}

func TestRegisterYLogin(t *testing.T) {
	uc := newAuth()
	ctx := context.Background()

	user, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "Ana@Example.com", Password: "secreto123", CompanyID: "company-1"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, entity.RoleFacturador, user.Role, "rol por defecto")

	resp, err := uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)

	claims, err := jwt.Parse(secret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "company-1", claims.CompanyID)
	assert.Equal(t, entity.RoleFacturador, claims.Role)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "otra-clave"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@example.com", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegister_Validaciones(t *testing.T) {
	uc := newAuth()
	ctx := context.Background()

	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "a@b.com", Password: "corta", CompanyID: "company-1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "a@b.com", Password: "secreto123", CompanyID: "company-1", Role: "vendedor"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "a@b.com", Password: "secreto123", CompanyID: "no-existe"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "a@b.com", Password: "secreto123", CompanyID: "company-1"})
	require.NoError(t, err)
	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "a@b.com", Password: "secreto123", CompanyID: "company-1"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}
