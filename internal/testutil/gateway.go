package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/internal/domain/entity"
)

// FakeGateway doble de Hacienda configurable. Sin funciones definidas acepta todo.
type FakeGateway struct {
	mu           sync.Mutex
	SubmitFn     func(ctx context.Context, req billing.SubmissionRequest) (*entity.Acceptance, error)
	InvalidateFn func(ctx context.Context, req entity.InvalidationRequest) (*entity.InvalidationReceipt, error)

	submissions      int
	invalidations    int
	lastInvalidation entity.InvalidationRequest
}

var (
	_ billing.Submitter   = (*FakeGateway)(nil)
	_ billing.Invalidator = (*FakeGateway)(nil)
)

func (g *FakeGateway) Submit(ctx context.Context, req billing.SubmissionRequest, creds *entity.Credentials) (*entity.Acceptance, error) {
	g.mu.Lock()
	g.submissions++
	fn := g.SubmitFn
	g.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return &entity.Acceptance{
		GenerationCode: "GEN-" + req.Document.ID,
		ControlNumber:  "DTE-" + string(req.Document.TypeCode) + "-M001P001-0000000000" + req.Document.Number,
		ReceptionSeal:  "SELLO-" + req.Document.Number,
		ProcessedAt:    time.Now(),
	}, nil
}

func (g *FakeGateway) Invalidate(ctx context.Context, req entity.InvalidationRequest, creds *entity.Credentials) (*entity.InvalidationReceipt, error) {
	g.mu.Lock()
	g.invalidations++
	g.lastInvalidation = req
	fn := g.InvalidateFn
	g.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return &entity.InvalidationReceipt{ReceptionSeal: "SELLO-ANULACION", ProcessedAt: time.Now()}, nil
}

// Submissions número de llamadas a Submit.
func (g *FakeGateway) Submissions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submissions
}

// Invalidations número de llamadas a Invalidate.
func (g *FakeGateway) Invalidations() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.invalidations
}

// LastInvalidation última solicitud de anulación recibida.
func (g *FakeGateway) LastInvalidation() entity.InvalidationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastInvalidation
}
