// Package hacienda integra el servicio de firma y la API de recepción de DTE
// del Ministerio de Hacienda de El Salvador.
package hacienda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/pkg/dte"
)

const (
	estadoProcesado = "PROCESADO"
	estadoRechazado = "RECHAZADO"

	// El token de la API dura 24 h en pruebas; se renueva antes.
	tokenTTL = 23 * time.Hour
)

// Config parámetros del cliente.
type Config struct {
	BaseURL         string
	FirmadorURL     string
	Ambiente        string
	Timeout         time.Duration
	RatePerSecond   float64
	RateBurst       int
	BreakerFailures int
	BreakerCooldown time.Duration
}

// Client transmite DTE y eventos de invalidación. Implementa billing.Submitter y billing.Invalidator.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *CompanyLimiter
	breaker *CircuitBreaker
	log     zerolog.Logger

	mu        sync.Mutex
	tokens    map[string]cachedToken // por empresa
	authLocks *billing.KeyedMutex    // una autenticación en curso por empresa

	envios atomic.Int64
	now    func() time.Time
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

var (
	_ billing.Submitter   = (*Client)(nil)
	_ billing.Invalidator = (*Client)(nil)
)

// NewClient construye el cliente. Timeout por defecto 30 s.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Ambiente == "" {
		cfg.Ambiente = dte.AmbientePruebas
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   NewCompanyLimiter(cfg.RatePerSecond, cfg.RateBurst),
		breaker:   NewCircuitBreaker(cfg.BreakerFailures, cfg.BreakerCooldown),
		log:       log.With().Str("component", "hacienda").Logger(),
		tokens:    make(map[string]cachedToken),
		authLocks: billing.NewKeyedMutex(),
		now:       time.Now,
	}
}

// BreakerState estado del circuit breaker (para /health).
func (c *Client) BreakerState() BreakerState {
	return c.breaker.State()
}

// ── Transmisión ──────────────────────────────────────────────────────────────

type recepcionRequest struct {
	Ambiente         string `json:"ambiente"`
	IDEnvio          int64  `json:"idEnvio"`
	Version          int    `json:"version"`
	TipoDte          string `json:"tipoDte"`
	Documento        string `json:"documento"`
	CodigoGeneracion string `json:"codigoGeneracion"`
}

type anulacionRequest struct {
	Ambiente  string `json:"ambiente"`
	IDEnvio   int64  `json:"idEnvio"`
	Version   int    `json:"version"`
	Documento string `json:"documento"`
}

// mhResponse respuesta común de recepción y anulación.
type mhResponse struct {
	Estado           string   `json:"estado"`
	CodigoGeneracion string   `json:"codigoGeneracion"`
	SelloRecibido    *string  `json:"selloRecibido"`
	FhProcesamiento  string   `json:"fhProcesamiento"`
	CodigoMsg        string   `json:"codigoMsg"`
	DescripcionMsg   string   `json:"descripcionMsg"`
	Observaciones    []string `json:"observaciones"`
}

func (r *mhResponse) seal() string {
	if r.SelloRecibido == nil {
		return ""
	}
	return *r.SelloRecibido
}

func (r *mhResponse) messages() []string {
	var out []string
	if r.DescripcionMsg != "" {
		out = append(out, r.DescripcionMsg)
	}
	return append(out, r.Observaciones...)
}

func (r *mhResponse) processedAt(fallback time.Time) time.Time {
	t, err := time.ParseInLocation("02/01/2006 15:04:05", r.FhProcesamiento, dte.ElSalvador)
	if err != nil {
		return fallback
	}
	return t
}

// Submit firma y transmite el DTE.
func (c *Client) Submit(ctx context.Context, req billing.SubmissionRequest, creds *entity.Credentials) (*entity.Acceptance, error) {
	if !creds.CanSign() {
		return nil, domain.ErrCertificateRequired
	}
	doc := req.Document
	if err := c.limiter.Wait(ctx, doc.CompanyID); err != nil {
		return nil, &domain.SubmissionError{Op: "recepcion", Cause: err}
	}

	generationCode := strings.ToUpper(uuid.NewString())
	controlNumber, err := ControlNumber(doc.TypeCode, req.Company.EstablishmentCode, doc.Number)
	if err != nil {
		return nil, &domain.SubmissionError{Op: "recepcion", Cause: err}
	}
	payload, err := buildDTE(req, generationCode, controlNumber)
	if err != nil {
		return nil, &domain.SubmissionError{Op: "recepcion", Cause: err}
	}
	signed, err := c.sign(ctx, req.Company.NIT, creds, payload)
	if err != nil {
		return nil, err
	}

	ambiente := req.Ambiente
	if ambiente == "" {
		ambiente = c.cfg.Ambiente
	}
	info, _ := doc.TypeCode.Info()
	body := recepcionRequest{
		Ambiente:         ambiente,
		IDEnvio:          c.envios.Add(1),
		Version:          info.SchemaVersion,
		TipoDte:          string(doc.TypeCode),
		Documento:        signed,
		CodigoGeneracion: generationCode,
	}

	resp, err := c.send(ctx, doc.CompanyID, creds, "/fesv/recepciondte", body)
	if err != nil {
		return nil, &domain.SubmissionError{Op: "recepcion", Cause: err}
	}
	c.log.Info().
		Str("document_id", doc.ID).
		Str("codigo_generacion", generationCode).
		Str("estado", resp.Estado).
		Msg("respuesta de recepción")

	if resp.Estado != estadoProcesado {
		return nil, &domain.SubmissionError{Op: "recepcion", Rejected: true, Messages: resp.messages()}
	}
	code := resp.CodigoGeneracion
	if code == "" {
		code = generationCode
	}
	return &entity.Acceptance{
		GenerationCode: code,
		ControlNumber:  controlNumber,
		ReceptionSeal:  resp.seal(),
		ProcessedAt:    resp.processedAt(c.now()),
	}, nil
}

// Invalidate firma y transmite el evento de invalidación.
func (c *Client) Invalidate(ctx context.Context, req entity.InvalidationRequest, creds *entity.Credentials) (*entity.InvalidationReceipt, error) {
	if !creds.CanSign() {
		return nil, domain.ErrCertificateRequired
	}
	if err := c.limiter.Wait(ctx, creds.CompanyID); err != nil {
		return nil, &domain.SubmissionError{Op: "anulacion", Cause: err}
	}
	payload, err := buildAnulacion(req)
	if err != nil {
		return nil, &domain.SubmissionError{Op: "anulacion", Cause: err}
	}
	signed, err := c.sign(ctx, req.Issuer.NIT, creds, payload)
	if err != nil {
		return nil, err
	}
	ambiente := req.Identification.Ambiente
	if ambiente == "" {
		ambiente = c.cfg.Ambiente
	}
	body := anulacionRequest{
		Ambiente:  ambiente,
		IDEnvio:   c.envios.Add(1),
		Version:   dte.InvalidationSchemaVersion,
		Documento: signed,
	}
	resp, err := c.send(ctx, creds.CompanyID, creds, "/fesv/anulardte", body)
	if err != nil {
		return nil, &domain.SubmissionError{Op: "anulacion", Cause: err}
	}
	c.log.Info().
		Str("codigo_generacion", req.Document.GenerationCode).
		Str("estado", resp.Estado).
		Msg("respuesta de anulación")

	if resp.Estado != estadoProcesado {
		return nil, &domain.SubmissionError{Op: "anulacion", Rejected: true, Messages: resp.messages()}
	}
	return &entity.InvalidationReceipt{
		ReceptionSeal: resp.seal(),
		ProcessedAt:   resp.processedAt(c.now()),
	}, nil
}

// send publica en la API de Hacienda. Un 401 renueva el token y reintenta una vez.
func (c *Client) send(ctx context.Context, companyID string, creds *entity.Credentials, path string, body any) (*mhResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("serializar solicitud: %w", err)
	}
	for attempt := 0; ; attempt++ {
		token, err := c.token(ctx, companyID, creds)
		if err != nil {
			return nil, err
		}
		var (
			status int
			data   []byte
		)
		err = c.breaker.Execute(func() error {
			var callErr error
			status, data, callErr = c.post(ctx, c.cfg.BaseURL+path, "application/json", token, bytes.NewReader(raw))
			return callErr
		})
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized && attempt == 0 {
			c.log.Warn().Str("company_id", companyID).Msg("token de Hacienda rechazado, renovando")
			c.dropToken(companyID)
			continue
		}
		var resp mhResponse
		if err := json.Unmarshal(data, &resp); err != nil || resp.Estado == "" {
			return nil, fmt.Errorf("respuesta inesperada de Hacienda (HTTP %d): %s", status, truncate(data))
		}
		return &resp, nil
	}
}

// post devuelve error solo por fallos de transporte o 5xx; el resto lo interpreta quien llama.
func (c *Client) post(ctx context.Context, endpoint, contentType, token string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("crear solicitud: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "dte-api")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("leer respuesta: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return resp.StatusCode, data, fmt.Errorf("hacienda respondió HTTP %d", resp.StatusCode)
	}
	return resp.StatusCode, data, nil
}

// ── Autenticación ────────────────────────────────────────────────────────────

type authResponse struct {
	Status string `json:"status"`
	Body   struct {
		Token string `json:"token"`
	} `json:"body"`
}

func (c *Client) token(ctx context.Context, companyID string, creds *entity.Credentials) (string, error) {
	unlock := c.authLocks.Lock(companyID)
	defer unlock()
	if t, ok := c.cached(companyID); ok {
		return t, nil
	}

	form := url.Values{"user": {creds.APIUser}, "pwd": {creds.APIPassword}}
	var (
		status int
		data   []byte
	)
	err := c.breaker.Execute(func() error {
		var callErr error
		status, data, callErr = c.post(ctx, c.cfg.BaseURL+"/seguridad/auth", "application/x-www-form-urlencoded", "", strings.NewReader(form.Encode()))
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("autenticación: %w", err)
	}
	var resp authResponse
	if err := json.Unmarshal(data, &resp); err != nil || status != http.StatusOK || resp.Body.Token == "" {
		return "", fmt.Errorf("autenticación rechazada (HTTP %d): %s", status, truncate(data))
	}
	c.mu.Lock()
	c.tokens[companyID] = cachedToken{value: resp.Body.Token, expiresAt: c.now().Add(tokenTTL)}
	c.mu.Unlock()
	c.log.Debug().Str("company_id", companyID).Msg("token de Hacienda renovado")
	return resp.Body.Token, nil
}

func (c *Client) cached(companyID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tokens[companyID]
	if !ok || !c.now().Before(t.expiresAt) {
		return "", false
	}
	return t.value, true
}

func (c *Client) dropToken(companyID string) {
	c.mu.Lock()
	delete(c.tokens, companyID)
	c.mu.Unlock()
}

// ── Firma ────────────────────────────────────────────────────────────────────

type firmaRequest struct {
	NIT         string `json:"nit"`
	Activo      bool   `json:"activo"`
	PasswordPri string `json:"passwordPri"`
	DteJSON     any    `json:"dteJson"`
}

type firmaResponse struct {
	Status string          `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type firmaError struct {
	Codigo  string `json:"codigo"`
	Mensaje any    `json:"mensaje"`
}

// sign envía el JSON al firmador y devuelve el JWS compacto.
func (c *Client) sign(ctx context.Context, nit string, creds *entity.Credentials, payload any) (string, error) {
	raw, err := json.Marshal(firmaRequest{NIT: nit, Activo: true, PasswordPri: creds.CertificatePassword, DteJSON: payload})
	if err != nil {
		return "", &domain.SubmissionError{Op: "firma", Cause: err}
	}
	status, data, err := c.post(ctx, c.cfg.FirmadorURL, "application/json", "", bytes.NewReader(raw))
	if err != nil {
		return "", &domain.SubmissionError{Op: "firma", Cause: err}
	}
	var resp firmaResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", &domain.SubmissionError{Op: "firma", Cause: fmt.Errorf("HTTP %d: %s", status, truncate(data))}
	}
	if resp.Status != "OK" {
		var fe firmaError
		_ = json.Unmarshal(resp.Body, &fe)
		return "", &domain.SubmissionError{Op: "firma", Rejected: true, Messages: []string{fmt.Sprintf("%s %v", fe.Codigo, fe.Mensaje)}}
	}
	var jws string
	if err := json.Unmarshal(resp.Body, &jws); err != nil || jws == "" {
		return "", &domain.SubmissionError{Op: "firma", Cause: errors.New("el firmador no devolvió el documento firmado")}
	}
	return jws, nil
}

func truncate(b []byte) string {
	const limit = 300
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
