package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dte-api/internal/application/auth"
	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/internal/application/dto"
	"github.com/jhoicas/dte-api/internal/application/usecase"
	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	apphttp "github.com/jhoicas/dte-api/internal/interfaces/http"
	"github.com/jhoicas/dte-api/internal/testutil"
	"github.com/jhoicas/dte-api/pkg/dte"
	pkgjwt "github.com/jhoicas/dte-api/pkg/jwt"
)

const otherCompanyID = "00000000-0000-0000-0000-000000000003"

type apiFixture struct {
	app   *fiber.App
	mgr   *billing.LifecycleManager
	gw    *testutil.FakeGateway
	creds *testutil.CredentialRepo
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := testutil.NewDocumentStore()
	gw := &testutil.FakeGateway{}
	creds := testutil.NewCredentialRepo(&entity.Credentials{
		CompanyID: testCompanyID, APIUser: "06140101901011", APIPassword: "api", CertificatePassword: "secreto",
	})
	companies := testutil.NewCompanyRepo(
		&entity.Company{ID: testCompanyID, Name: "Tienda El Sol", NIT: "06140101901011", NRC: "54321", EstablishmentCode: "M001P001"},
		&entity.Company{ID: otherCompanyID, Name: "Otra", NIT: "06140101901029", NRC: "11111", EstablishmentCode: "M001P001"},
	)
	customers := testutil.NewCustomerRepo(
		&entity.Customer{ID: "cust-1", CompanyID: testCompanyID, Name: "Juan Pérez", DocumentType: dte.IDDUI, DocumentNumber: "123456784"},
	)
	products := testutil.NewProductRepo(
		&entity.Product{ID: "prod-1", CompanyID: testCompanyID, Code: "P1", Name: "Café molido", Price: decimal.RequireFromString("10.00")},
	)
	users := testutil.NewUserRepo()
	credSvc := billing.NewCredentialService(creds)

	mgr := billing.NewLifecycleManager(billing.LifecycleDeps{
		TxRunner:      store,
		Documents:     store,
		Invalidations: store.Invalidations(),
		Customers:     customers,
		Companies:     companies,
		Products:      products,
		Submitter:     gw,
		Invalidator:   gw,
		Credentials:   credSvc,
	}, billing.LifecycleConfig{Ambiente: dte.AmbientePruebas, SubmitTimeout: 200 * time.Millisecond}, zerolog.Nop())
	t.Cleanup(mgr.Wait)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:      auth.NewAuthUseCase(users, companies, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		CompanyUC:   usecase.NewCompanyUseCase(companies, credSvc),
		Credentials: credSvc,
		CustomerUC:  billing.NewCustomerUseCase(customers),
		ProductUC:   usecase.NewProductUseCase(products),
		Lifecycle:   mgr,
		JWTSecret:   testJWTSecret,
	})
	return &apiFixture{app: app, mgr: mgr, gw: gw, creds: creds}
}

func (f *apiFixture) do(t *testing.T, method, path, role string, body any) (*http.Response, []byte) {
	t.Helper()
	return f.doAs(t, method, path, testCompanyID, role, body)
}

func (f *apiFixture) doAs(t *testing.T, method, path, companyID, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		tok, err := pkgjwt.Generate(testJWTSecret, testUserID, companyID, role, testIssuer, testExpMin)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func factura() dto.CreateDocumentRequest {
	return dto.CreateDocumentRequest{
		TypeCode:   "01",
		CustomerID: "cust-1",
		Items:      []dto.DocumentItemInput{{ProductID: "prod-1", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")}},
	}
}

func (f *apiFixture) createDocument(t *testing.T) dto.DocumentResponse {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/api/documents", "facturador", factura())
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var doc dto.DocumentResponse
	require.NoError(t, json.Unmarshal(body, &doc))
	return doc
}

func decodeError(t *testing.T, body []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

func TestDocuments_CrearYConsultar(t *testing.T) {
	f := newAPI(t)
	doc := f.createDocument(t)

	assert.Equal(t, "00001", doc.Number)
	assert.Equal(t, "Nueva", doc.Status)
	assert.True(t, decimal.RequireFromString("20.00").Equal(doc.Totals.TotalPagar))
	assert.True(t, decimal.RequireFromString("2.30").Equal(doc.Totals.Tax))

	resp, body := f.do(t, http.MethodGet, "/api/documents/"+doc.ID, "consulta", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got dto.DocumentResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, doc.ID, got.ID)
	assert.Len(t, got.Items, 1)

	resp, body = f.do(t, http.MethodGet, "/api/documents?status=Nueva&type_code=01", "consulta", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.DocumentListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 20, list.Page.Limit)
}

func TestDocuments_ConsultaNoPuedeCrear(t *testing.T) {
	f := newAPI(t)
	resp, body := f.do(t, http.MethodPost, "/api/documents", "consulta", factura())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeError(t, body).Code)
}

func TestDocuments_ErrorDeValidacionIndicaCampo(t *testing.T) {
	f := newAPI(t)
	req := factura()
	req.Items = nil
	resp, body := f.do(t, http.MethodPost, "/api/documents", "admin", req)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Equal(t, "items", e.Field)
}

func TestDocuments_OtraEmpresaNoVeElDocumento(t *testing.T) {
	f := newAPI(t)
	doc := f.createDocument(t)

	resp, body := f.doAs(t, http.MethodGet, "/api/documents/"+doc.ID, otherCompanyID, "admin", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeError(t, body).Code)
}

func TestDocuments_SubmitAsincronoYPolling(t *testing.T) {
	f := newAPI(t)
	doc := f.createDocument(t)

	resp, body := f.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/submit", "facturador", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))
	assert.Equal(t, "/api/documents/"+doc.ID+"/status", resp.Header.Get("Location"))

	f.mgr.Wait()
	resp, body = f.do(t, http.MethodGet, "/api/documents/"+doc.ID+"/status", "consulta", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st dto.DocumentStatusResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "Completada", st.Status)
	assert.NotEmpty(t, st.ReceptionSeal)

	resp, body = f.do(t, http.MethodGet, "/api/documents/"+doc.ID+"/qr", "consulta", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var qr dto.VerificationResponse
	require.NoError(t, json.Unmarshal(body, &qr))
	assert.Contains(t, qr.URL, "codGen="+st.GenerationCode)
}

func TestDocuments_SubmitConEspera(t *testing.T) {
	f := newAPI(t)
	doc := f.createDocument(t)

	resp, body := f.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/submit?wait=true", "facturador", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var got dto.DocumentResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Completada", got.Status)
	assert.NotEmpty(t, got.ControlNumber)
}

func TestDocuments_SubmitRechazado(t *testing.T) {
	f := newAPI(t)
	f.gw.SubmitFn = func(ctx context.Context, req billing.SubmissionRequest) (*entity.Acceptance, error) {
		return nil, &domain.SubmissionError{Op: "recepcion", Rejected: true, Messages: []string{"NRC inválido"}}
	}
	doc := f.createDocument(t)

	resp, body := f.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/submit?wait=true", "facturador", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "REJECTED", e.Code)
	assert.Contains(t, e.Message, "NRC inválido")

	// Volvió a Nueva con el motivo registrado.
	_, body = f.do(t, http.MethodGet, "/api/documents/"+doc.ID+"/status", "consulta", nil)
	var st dto.DocumentStatusResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "Nueva", st.Status)
	assert.Contains(t, st.LastError, "NRC inválido")
}

func TestDocuments_SubmitSinCertificado(t *testing.T) {
	f := newAPI(t)
	doc := f.createDocument(t)
	require.NoError(t, f.creds.Upsert(context.Background(), &entity.Credentials{CompanyID: testCompanyID, APIUser: "x", APIPassword: "y"}))

	resp, body := f.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/submit", "admin", nil)
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
	assert.Equal(t, "CERTIFICATE_REQUIRED", decodeError(t, body).Code)
}

func TestDocuments_AnularDesdeNuevaEsConflicto(t *testing.T) {
	f := newAPI(t)
	doc := f.createDocument(t)

	in := dto.InvalidateDocumentRequest{Reason: "error_informacion", ResponsibleName: "Ana Martínez", ResponsibleDocument: "12345678-4"}
	resp, body := f.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/invalidate", "admin", in)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_STATE", decodeError(t, body).Code)
	assert.Zero(t, f.gw.Invalidations())
}

func TestDocuments_AnularCompletada(t *testing.T) {
	f := newAPI(t)
	doc := f.createDocument(t)
	resp, _ := f.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/submit?wait=true", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	in := dto.InvalidateDocumentRequest{Reason: "otro", CustomReason: "a", ResponsibleName: "Ana Martínez", ResponsibleDocument: "12345678-4"}
	resp, body := f.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/invalidate", "admin", in)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "custom_reason", decodeError(t, body).Field)

	in.Reason = "error_informacion"
	in.CustomReason = ""
	resp, body = f.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/invalidate", "admin", in)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out dto.InvalidationResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Anulada", out.Status)
	assert.Equal(t, 1, out.ReasonCode)
}

func TestCatalogues_Publico(t *testing.T) {
	f := newAPI(t)
	resp, body := f.do(t, http.MethodGet, "/api/catalogues", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.CataloguesResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.DocumentTypes, 8)
	assert.Len(t, out.InvalidationReasons, 4)
	assert.Equal(t, "02", out.IdentityDocuments[0].Code)
	assert.Contains(t, out.Statuses, "Sincronizando")
}

func TestAuth_RegistroInicialYLogin(t *testing.T) {
	f := newAPI(t)
	reg := dto.RegisterRequest{Email: "Admin@Sol.com.sv", Password: "supersegura", CompanyID: testCompanyID, Name: "Admin", Role: "consulta"}

	resp, body := f.do(t, http.MethodPost, "/api/auth/register", "", reg)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var user dto.UserResponse
	require.NoError(t, json.Unmarshal(body, &user))
	assert.Equal(t, "admin", user.Role, "el primer usuario siempre es administrador")
	assert.Equal(t, "admin@sol.com.sv", user.Email)

	// La empresa ya tiene usuarios: el registro público se cierra.
	reg.Email = "otro@sol.com.sv"
	resp, _ = f.do(t, http.MethodPost, "/api/auth/register", "", reg)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "admin@sol.com.sv", Password: "supersegura"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	assert.NotEmpty(t, login.Token)

	resp, _ = f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "admin@sol.com.sv", Password: "incorrecta"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCompanies_CredencialesSoloAdmin(t *testing.T) {
	f := newAPI(t)
	in := dto.SetCredentialsRequest{APIUser: "06140101901011", APIPassword: "api", CertificatePassword: "nueva"}

	resp, _ := f.do(t, http.MethodPut, "/api/companies/me/credentials", "facturador", in)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := f.do(t, http.MethodPut, "/api/companies/me/credentials", "admin", in)
	require.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

	resp, body = f.do(t, http.MethodGet, "/api/companies/me", "consulta", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var company dto.CompanyResponse
	require.NoError(t, json.Unmarshal(body, &company))
	assert.True(t, company.HasCredentials)
}
