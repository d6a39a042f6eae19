package billing

import (
	"context"

	"github.com/jhoicas/dte-api/internal/domain/entity"
)

// Outcome resultado de una transmisión.
type Outcome int

const (
	OutcomeAccepted Outcome = iota + 1
	OutcomeRolledBack
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRolledBack:
		return "rolled_back"
	}
	return "unknown"
}

// SubmissionResult unión etiquetada: Accepted con los identificadores o RolledBack con la causa.
type SubmissionResult struct {
	DocumentID string
	Outcome    Outcome
	Acceptance *entity.Acceptance // solo si Outcome == OutcomeAccepted
	Cause      error              // solo si Outcome == OutcomeRolledBack
	// PersistErr error al guardar el resultado; el estado en base puede quedar en Sincronizando.
	PersistErr error
}

// Accepted indica si Hacienda aceptó el documento.
func (r SubmissionResult) Accepted() bool { return r.Outcome == OutcomeAccepted }

func accepted(docID string, acc *entity.Acceptance) SubmissionResult {
	return SubmissionResult{DocumentID: docID, Outcome: OutcomeAccepted, Acceptance: acc}
}

func rolledBack(docID string, cause error) SubmissionResult {
	return SubmissionResult{DocumentID: docID, Outcome: OutcomeRolledBack, Cause: cause}
}

// SubmissionTask transmisión en segundo plano. El resultado está disponible al cerrarse Done.
type SubmissionTask struct {
	DocumentID string
	done       chan struct{}
	result     SubmissionResult
}

func newSubmissionTask(docID string) *SubmissionTask {
	return &SubmissionTask{DocumentID: docID, done: make(chan struct{})}
}

func (t *SubmissionTask) resolve(r SubmissionResult) {
	t.result = r
	close(t.done)
}

// Done se cierra cuando el resultado ya fue aplicado al documento.
func (t *SubmissionTask) Done() <-chan struct{} { return t.done }

// Wait espera el resultado o la cancelación de ctx. Cancelar ctx no detiene la transmisión.
func (t *SubmissionTask) Wait(ctx context.Context) (SubmissionResult, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return SubmissionResult{}, ctx.Err()
	}
}
