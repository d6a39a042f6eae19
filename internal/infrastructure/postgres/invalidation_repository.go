package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/repository"
	"github.com/jhoicas/dte-api/pkg/dte"
)

var _ repository.InvalidationRepository = (*InvalidationRepo)(nil)

// InvalidationRepo anulaciones aceptadas por Hacienda.
type InvalidationRepo struct {
	q Querier
}

// NewInvalidationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvalidationRepository(q Querier) *InvalidationRepo {
	return &InvalidationRepo{q: q}
}

// Create persiste la anulación; un documento se anula una sola vez.
func (r *InvalidationRepo) Create(ctx context.Context, inv *entity.Invalidation) error {
	const query = `
		INSERT INTO invalidations (id, document_id, company_id, reason, reason_text, responsible_name,
		                           responsible_doc_type, responsible_doc_number, invalidation_code,
		                           reception_seal, requested_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.DocumentID, inv.CompanyID, string(inv.Reason), inv.ReasonText, inv.ResponsibleName,
		inv.ResponsibleDocType, inv.ResponsibleDocNumber, inv.InvalidationCode,
		inv.ReceptionSeal, inv.RequestedAt, inv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invalidation: %w", err)
	}
	return nil
}

// GetByDocumentID devuelve (nil, nil) si el documento no fue anulado.
func (r *InvalidationRepo) GetByDocumentID(ctx context.Context, documentID string) (*entity.Invalidation, error) {
	const query = `
		SELECT id, document_id, company_id, reason, reason_text, responsible_name,
		       responsible_doc_type, responsible_doc_number, invalidation_code,
		       reception_seal, requested_at, created_at
		FROM invalidations WHERE document_id = $1`
	var inv entity.Invalidation
	var reason string
	err := r.q.QueryRow(ctx, query, documentID).Scan(
		&inv.ID, &inv.DocumentID, &inv.CompanyID, &reason, &inv.ReasonText, &inv.ResponsibleName,
		&inv.ResponsibleDocType, &inv.ResponsibleDocNumber, &inv.InvalidationCode,
		&inv.ReceptionSeal, &inv.RequestedAt, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invalidation: %w", err)
	}
	inv.Reason = dte.InvalidationReason(reason)
	return &inv, nil
}
