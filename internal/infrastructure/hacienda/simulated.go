package hacienda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
)

// SimulatedGateway acepta todo sin salir a la red. Se usa con HACIENDA_APP_ENV=dev.
type SimulatedGateway struct {
	Latency time.Duration
	log     zerolog.Logger
}

var (
	_ billing.Submitter   = (*SimulatedGateway)(nil)
	_ billing.Invalidator = (*SimulatedGateway)(nil)
)

func NewSimulatedGateway(latency time.Duration, log zerolog.Logger) *SimulatedGateway {
	return &SimulatedGateway{Latency: latency, log: log.With().Str("component", "hacienda_simulada").Logger()}
}

func (g *SimulatedGateway) Submit(ctx context.Context, req billing.SubmissionRequest, creds *entity.Credentials) (*entity.Acceptance, error) {
	if !creds.CanSign() {
		return nil, domain.ErrCertificateRequired
	}
	if err := g.wait(ctx); err != nil {
		return nil, &domain.SubmissionError{Op: "recepcion", Cause: err}
	}
	control, err := ControlNumber(req.Document.TypeCode, req.Company.EstablishmentCode, req.Document.Number)
	if err != nil {
		return nil, &domain.SubmissionError{Op: "recepcion", Cause: err}
	}
	// Se arma el JSON igual que en producción para detectar datos faltantes.
	code := strings.ToUpper(uuid.NewString())
	if _, err := buildDTE(req, code, control); err != nil {
		return nil, &domain.SubmissionError{Op: "recepcion", Cause: err}
	}
	g.log.Info().Str("document_id", req.Document.ID).Str("numero_control", control).Msg("DTE aceptado (simulado)")
	return &entity.Acceptance{
		GenerationCode: code,
		ControlNumber:  control,
		ReceptionSeal:  simulatedSeal(),
		ProcessedAt:    time.Now(),
	}, nil
}

func (g *SimulatedGateway) Invalidate(ctx context.Context, req entity.InvalidationRequest, creds *entity.Credentials) (*entity.InvalidationReceipt, error) {
	if !creds.CanSign() {
		return nil, domain.ErrCertificateRequired
	}
	if err := g.wait(ctx); err != nil {
		return nil, &domain.SubmissionError{Op: "anulacion", Cause: err}
	}
	if _, err := buildAnulacion(req); err != nil {
		return nil, &domain.SubmissionError{Op: "anulacion", Cause: err}
	}
	g.log.Info().Str("codigo_generacion", req.Document.GenerationCode).Msg("anulación aceptada (simulada)")
	return &entity.InvalidationReceipt{ReceptionSeal: simulatedSeal(), ProcessedAt: time.Now()}, nil
}

func (g *SimulatedGateway) wait(ctx context.Context) error {
	if g.Latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(g.Latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// simulatedSeal sello con el formato de Hacienda: año + 36 caracteres alfanuméricos.
func simulatedSeal() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", ""))
	return fmt.Sprintf("%d%s", time.Now().Year(), raw[:36])
}
