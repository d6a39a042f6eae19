package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dte-api/internal/application/dto"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	apphttp "github.com/jhoicas/dte-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/dte-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "dte-api-test"
	testExpMin    = 60
)

// tokenForRole genera un header Authorization para testUserID en testCompanyID.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// rbacApp replica los grupos de permisos del router con handlers vacíos:
// lectura para cualquier rol, emisión para admin y facturador, administración solo admin.
func rbacApp() *fiber.App {
	app := fiber.New()
	ok := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"role": apphttp.GetRole(c), "company_id": apphttp.GetCompanyID(c)})
	}
	api := app.Group("/api", apphttp.AuthMiddleware(testJWTSecret))
	api.Get("/documents", ok)
	api.Post("/documents", apphttp.RequireRole(entity.RoleAdmin, entity.RoleFacturador), ok)
	api.Put("/companies/me/credentials", apphttp.RequireRole(entity.RoleAdmin), ok)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, authHeader string) (*http.Response, dto.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body dto.ErrorResponse
	if resp.StatusCode >= 400 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func TestRequireRole_MatrizDePermisos(t *testing.T) {
	cases := []struct {
		role   string
		method string
		path   string
		want   int
	}{
		{entity.RoleConsulta, http.MethodGet, "/api/documents", http.StatusOK},
		{entity.RoleConsulta, http.MethodPost, "/api/documents", http.StatusForbidden},
		{entity.RoleConsulta, http.MethodPut, "/api/companies/me/credentials", http.StatusForbidden},
		{entity.RoleFacturador, http.MethodGet, "/api/documents", http.StatusOK},
		{entity.RoleFacturador, http.MethodPost, "/api/documents", http.StatusOK},
		{entity.RoleFacturador, http.MethodPut, "/api/companies/me/credentials", http.StatusForbidden},
		{entity.RoleAdmin, http.MethodPost, "/api/documents", http.StatusOK},
		{entity.RoleAdmin, http.MethodPut, "/api/companies/me/credentials", http.StatusOK},
	}
	app := rbacApp()
	for _, tc := range cases {
		t.Run(tc.role+" "+tc.method+" "+tc.path, func(t *testing.T) {
			resp, body := call(t, app, tc.method, tc.path, tokenForRole(t, tc.role))
			assert.Equal(t, tc.want, resp.StatusCode)
			if tc.want == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", body.Code)
			}
		})
	}
}

func TestRequireRole_TokenSinRol(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, "", testIssuer, testExpMin)
	require.NoError(t, err)

	resp, body := call(t, rbacApp(), http.MethodPost, "/api/documents", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_ROLE", body.Code)
}

func TestAuthMiddleware_RechazaTokens(t *testing.T) {
	expired, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, entity.RoleAdmin, testIssuer, -1)
	require.NoError(t, err)
	otherSecret, err := pkgjwt.Generate("otro-secret", testUserID, testCompanyID, entity.RoleAdmin, testIssuer, testExpMin)
	require.NoError(t, err)
	noCompany, err := pkgjwt.Generate(testJWTSecret, testUserID, "", entity.RoleAdmin, testIssuer, testExpMin)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"sin esquema Bearer", expired, "INVALID_TOKEN"},
		{"malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"expirado", "Bearer " + expired, "INVALID_TOKEN"},
		{"otro secreto", "Bearer " + otherSecret, "INVALID_TOKEN"},
		{"sin empresa", "Bearer " + noCompany, "INVALID_TOKEN"},
	}
	app := rbacApp()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := call(t, app, http.MethodGet, "/api/documents", tc.header)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestAuthMiddleware_CargaEmpresaYRol(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", tokenForRole(t, entity.RoleFacturador))
	resp, err := rbacApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testCompanyID, body["company_id"])
	assert.Equal(t, entity.RoleFacturador, body["role"])
}

func TestJWT_ClaimsDelEmisor(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, entity.RoleConsulta, testIssuer, testExpMin)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(testJWTSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, testUserID, claims.Subject)
	assert.Equal(t, testCompanyID, claims.CompanyID)
	assert.Equal(t, entity.RoleConsulta, claims.Role)
	assert.Equal(t, testIssuer, claims.Issuer)

	_, err = pkgjwt.Generate("", testUserID, testCompanyID, entity.RoleAdmin, testIssuer, testExpMin)
	assert.Error(t, err)
}
