package hacienda

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/pkg/dte"
)

// fakeMH simula firmador y API de Hacienda.
type fakeMH struct {
	mu             sync.Mutex
	authCalls      int
	signCalls      int
	receptionCalls int
	lastSign       map[string]any
	lastReception  map[string]any

	signStatus      string
	receptionStatus int    // código HTTP; 0 = 200
	receptionEstado string // PROCESADO por defecto
	unauthorizedN   int    // cuántas recepciones devuelven 401 antes de aceptar

	// la autenticación de holdUser espera a que se cierre hold
	holdUser string
	hold     chan struct{}
}

func (f *fakeMH) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/seguridad/auth", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.authCalls++
		f.mu.Unlock()
		_ = r.ParseForm()
		if f.hold != nil && r.PostForm.Get("user") == f.holdUser {
			select {
			case <-f.hold:
			case <-r.Context().Done():
				return
			}
		}
		if r.PostForm.Get("user") == "" || r.PostForm.Get("pwd") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"ERROR"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"OK","body":{"user":"06140101901011","token":"Bearer tok"}}`))
	})
	mux.HandleFunc("/firmardocumento", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.signCalls++
		f.lastSign = body
		status := f.signStatus
		f.mu.Unlock()
		if status == "ERROR" {
			_, _ = w.Write([]byte(`{"status":"ERROR","body":{"codigo":"809","mensaje":["clave privada incorrecta"]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"OK","body":"eyJhbGciOiJSUzUxMiJ9.cGF5bG9hZA.firma"}`))
	})
	reply := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.receptionCalls++
		f.lastReception = body
		status, estado := f.receptionStatus, f.receptionEstado
		unauthorized := f.unauthorizedN > 0
		if unauthorized {
			f.unauthorizedN--
		}
		f.mu.Unlock()

		if unauthorized || r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if status >= 500 {
			w.WriteHeader(status)
			return
		}
		if estado == estadoRechazado {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"estado":"RECHAZADO","codigoGeneracion":"X","selloRecibido":null,
				"descripcionMsg":"[identificacion.numeroControl] YA EXISTE UN REGISTRO CON ESE VALOR",
				"observaciones":["Campo receptor.nrc no cumple el formato"]}`))
			return
		}
		_, _ = w.Write([]byte(`{"estado":"PROCESADO","codigoGeneracion":"` + str(body["codigoGeneracion"]) + `",
			"selloRecibido":"2026ABCDEF0123456789ABCDEF0123456789ABCD","fhProcesamiento":"16/10/2026 10:15:00",
			"descripcionMsg":"RECIBIDO","observaciones":[]}`))
	}
	mux.HandleFunc("/fesv/recepciondte", reply)
	mux.HandleFunc("/fesv/anulardte", reply)
	return mux
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func newTestClient(t *testing.T, f *fakeMH, breakerFailures int) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:         srv.URL,
		FirmadorURL:     srv.URL + "/firmardocumento",
		Ambiente:        dte.AmbientePruebas,
		Timeout:         2 * time.Second,
		RatePerSecond:   1000,
		RateBurst:       100,
		BreakerFailures: breakerFailures,
		BreakerCooldown: time.Minute,
	}, zerolog.Nop())
}

func testCreds() *entity.Credentials {
	return &entity.Credentials{CompanyID: "company-1", APIUser: "06140101901011", APIPassword: "api", CertificatePassword: "secreto"}
}

func submissionRequest() billing.SubmissionRequest {
	issued := time.Date(2026, 10, 16, 16, 0, 0, 0, time.UTC)
	return billing.SubmissionRequest{
		Ambiente: dte.AmbientePruebas,
		Document: &entity.Document{
			ID: "doc-1", CompanyID: "company-1", CustomerID: "cust-1",
			TypeCode: dte.TipoFactura, Number: "00007", IssueDate: issued,
			Items: []entity.LineItem{{
				Position: 1, ProductID: "prod-1", Description: "Café molido", Quantity: 2,
				UnitPrice: decimal.RequireFromString("10.00"), LineTotal: decimal.RequireFromString("20.00"),
			}},
			Totals: entity.Totals{
				TotalAmount: decimal.RequireFromString("20.00"), SubTotal: decimal.RequireFromString("17.70"),
				Tax: decimal.RequireFromString("2.30"), TotalPagar: decimal.RequireFromString("20.00"),
			},
		},
		Company: &entity.Company{
			ID: "company-1", Name: "Tienda El Sol", NIT: "06140101901011", NRC: "54321",
			EstablishmentType: "01", EstablishmentCode: "M001P001",
		},
		Customer: &entity.Customer{ID: "cust-1", Name: "Juan Pérez", DocumentType: dte.IDDUI, DocumentNumber: "123456784"},
	}
}

func TestControlNumber(t *testing.T) {
	n, err := ControlNumber(dte.TipoCCF, "m001p001", "00042")
	require.NoError(t, err)
	assert.Equal(t, "DTE-03-M001P001-000000000000042", n)
	assert.Len(t, n, 31)

	_, err = ControlNumber(dte.TipoFactura, "M001", "00001")
	assert.Error(t, err)
	_, err = ControlNumber(dte.TipoFactura, "M001P001", "abc")
	assert.Error(t, err)
}

func TestBuildDTE_FechaYFactorDeImpuesto(t *testing.T) {
	req := submissionRequest()
	req.Document.IssueDate = time.Date(2026, 10, 10, 2, 0, 0, 0, time.UTC)

	doc, err := buildDTE(req, "GEN-1", "DTE-01-M001P001-000000000000007")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-09", doc.Identificacion.FecEmi)
	assert.Equal(t, "20:00:00", doc.Identificacion.HorEmi)
	require.NotNil(t, doc.CuerpoDocumento[0].IvaItem)
	assert.Equal(t, 2.30, *doc.CuerpoDocumento[0].IvaItem)

	url, err := dte.VerificationURL(req.Ambiente, "GEN-1", req.Document.IssueDate)
	require.NoError(t, err)
	assert.Contains(t, url, "&fechaEmi=09-10-2026", "el QR lleva la misma fecha que el DTE transmitido")

	req.TaxFactor = decimal.RequireFromString("1.10")
	doc, err = buildDTE(req, "GEN-1", "DTE-01-M001P001-000000000000007")
	require.NoError(t, err)
	assert.Equal(t, 1.82, *doc.CuerpoDocumento[0].IvaItem)
}

func TestToken_AutenticacionLentaNoBloqueaOtrasEmpresas(t *testing.T) {
	f := &fakeMH{holdUser: "lento", hold: make(chan struct{})}
	c := newTestClient(t, f, 5)

	slow := testCreds()
	slow.CompanyID = "company-lenta"
	slow.APIUser = "lento"
	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		_, _ = c.token(context.Background(), slow.CompanyID, slow)
	}()
	defer func() {
		close(f.hold)
		<-slowDone
	}()
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.authCalls == 1
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	tok, err := c.token(ctx, "company-1", testCreds())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", tok)
}

func TestSubmit_Procesado(t *testing.T) {
	f := &fakeMH{}
	c := newTestClient(t, f, 5)

	acc, err := c.Submit(context.Background(), submissionRequest(), testCreds())
	require.NoError(t, err)
	assert.Empty(t, acc.Missing())
	assert.Equal(t, "DTE-01-M001P001-000000000000007", acc.ControlNumber)
	assert.Equal(t, "2026ABCDEF0123456789ABCDEF0123456789ABCD", acc.ReceptionSeal)
	assert.Len(t, acc.GenerationCode, 36)
	assert.Equal(t, 2026, acc.ProcessedAt.Year())

	f.mu.Lock()
	assert.Equal(t, "secreto", f.lastSign["passwordPri"])
	assert.Equal(t, true, f.lastSign["activo"])
	dteJSON := f.lastSign["dteJson"].(map[string]any)
	ident := dteJSON["identificacion"].(map[string]any)
	assert.Equal(t, "DTE-01-M001P001-000000000000007", ident["numeroControl"])
	assert.Equal(t, "2026-10-16", ident["fecEmi"])
	assert.Equal(t, "10:00:00", ident["horEmi"])
	receptor := dteJSON["receptor"].(map[string]any)
	assert.Equal(t, "123456784", receptor["numDocumento"])
	assert.NotContains(t, receptor, "nit")

	assert.Equal(t, "01", f.lastReception["tipoDte"])
	assert.Equal(t, float64(1), f.lastReception["version"])
	assert.Equal(t, "eyJhbGciOiJSUzUxMiJ9.cGF5bG9hZA.firma", f.lastReception["documento"])
	f.mu.Unlock()

	// El token queda en caché para la siguiente transmisión.
	_, err = c.Submit(context.Background(), submissionRequest(), testCreds())
	require.NoError(t, err)
	f.mu.Lock()
	assert.Equal(t, 1, f.authCalls)
	assert.Equal(t, 2, f.receptionCalls)
	f.mu.Unlock()
}

func TestSubmit_CreditoFiscalUsaNIT(t *testing.T) {
	f := &fakeMH{}
	c := newTestClient(t, f, 5)
	req := submissionRequest()
	req.Document.TypeCode = dte.TipoCCF
	req.Customer = &entity.Customer{ID: "cust-2", Name: "Cliente S.A.", DocumentType: dte.IDNIT, DocumentNumber: "06140101901010", NRC: "12345"}

	_, err := c.Submit(context.Background(), req, testCreds())
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	receptor := f.lastSign["dteJson"].(map[string]any)["receptor"].(map[string]any)
	assert.Equal(t, "06140101901010", receptor["nit"])
	assert.Equal(t, "12345", receptor["nrc"])
	assert.NotContains(t, receptor, "numDocumento")
	assert.Equal(t, float64(3), f.lastReception["version"])
}

func TestSubmit_Rechazado(t *testing.T) {
	f := &fakeMH{receptionEstado: estadoRechazado}
	c := newTestClient(t, f, 1)

	_, err := c.Submit(context.Background(), submissionRequest(), testCreds())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSubmission)

	var se *domain.SubmissionError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Rejected)
	assert.Len(t, se.Messages, 2)
	assert.Contains(t, se.Messages[0], "YA EXISTE")

	// Un rechazo no es un fallo del servicio.
	assert.Equal(t, BreakerClosed, c.BreakerState())
}

func TestSubmit_RenuevaTokenTras401(t *testing.T) {
	f := &fakeMH{unauthorizedN: 1}
	c := newTestClient(t, f, 5)

	_, err := c.Submit(context.Background(), submissionRequest(), testCreds())
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, 2, f.authCalls)
	assert.Equal(t, 2, f.receptionCalls)
}

func TestSubmit_AbreCircuitoTrasFallos(t *testing.T) {
	f := &fakeMH{receptionStatus: http.StatusServiceUnavailable}
	c := newTestClient(t, f, 2)

	for i := 0; i < 2; i++ {
		_, err := c.Submit(context.Background(), submissionRequest(), testCreds())
		require.Error(t, err)
		var se *domain.SubmissionError
		require.True(t, errors.As(err, &se))
		assert.False(t, se.Rejected)
	}
	assert.Equal(t, BreakerOpen, c.BreakerState())

	_, err := c.Submit(context.Background(), submissionRequest(), testCreds())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	f.mu.Lock()
	assert.Equal(t, 2, f.receptionCalls)
	f.mu.Unlock()
}

func TestSubmit_SinCertificado(t *testing.T) {
	f := &fakeMH{}
	c := newTestClient(t, f, 5)
	creds := testCreds()
	creds.CertificatePassword = ""

	_, err := c.Submit(context.Background(), submissionRequest(), creds)
	assert.ErrorIs(t, err, domain.ErrCertificateRequired)
	assert.Zero(t, f.signCalls)
}

func TestSubmit_ErrorDelFirmador(t *testing.T) {
	f := &fakeMH{signStatus: "ERROR"}
	c := newTestClient(t, f, 5)

	_, err := c.Submit(context.Background(), submissionRequest(), testCreds())
	var se *domain.SubmissionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "firma", se.Op)
	assert.True(t, se.Rejected)
	assert.Contains(t, se.Messages[0], "809")
	assert.Zero(t, f.receptionCalls)
}

func TestInvalidate_Procesado(t *testing.T) {
	f := &fakeMH{}
	c := newTestClient(t, f, 5)

	req := entity.InvalidationRequest{
		Identification: entity.InvalidationIdentification{
			Version: dte.InvalidationSchemaVersion, Ambiente: dte.AmbientePruebas,
			GenerationCode: "EVT-1", EmittedAt: time.Date(2026, 10, 16, 18, 30, 0, 0, time.UTC),
		},
		Issuer: entity.InvalidationIssuer{NIT: "06140101901011", Name: "Tienda El Sol", Establishment: "M001P001"},
		Document: entity.InvalidatedDocument{
			TypeCode: dte.TipoFactura, GenerationCode: "GEN-1", ControlNumber: "DTE-01-M001P001-000000000000001",
			ReceptionSeal: "SELLO", IssueDate: time.Date(2026, 10, 10, 15, 0, 0, 0, time.UTC), Tax: "2.30",
			CustomerName: "Juan Pérez",
		},
		Motive: entity.InvalidationMotive{
			ReasonCode: 1, ResponsibleName: "Ana Martínez", ResponsibleDocType: dte.IDDUI, ResponsibleDocNumber: "123456784",
			RequesterName: "Juan Pérez", RequesterDocType: dte.IDDUI, RequesterDocNumber: "123456784",
		},
	}
	receipt, err := c.Invalidate(context.Background(), req, testCreds())
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.ReceptionSeal)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, float64(2), f.lastReception["version"])
	anul := f.lastSign["dteJson"].(map[string]any)
	assert.Equal(t, "12:30:00", anul["identificacion"].(map[string]any)["horAnula"])
	doc := anul["documento"].(map[string]any)
	assert.Equal(t, 2.3, doc["montoIva"])
	assert.Equal(t, "M001", anul["emisor"].(map[string]any)["codEstableMH"])
}

func TestSimulatedGateway(t *testing.T) {
	g := NewSimulatedGateway(0, zerolog.Nop())
	acc, err := g.Submit(context.Background(), submissionRequest(), testCreds())
	require.NoError(t, err)
	assert.Empty(t, acc.Missing())
	assert.Len(t, acc.ReceptionSeal, 40)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewSimulatedGateway(time.Second, zerolog.Nop())
	_, err = slow.Submit(ctx, submissionRequest(), testCreds())
	assert.ErrorIs(t, err, context.Canceled)
}
