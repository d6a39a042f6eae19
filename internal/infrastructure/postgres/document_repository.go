package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/repository"
	"github.com/jhoicas/dte-api/pkg/dte"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación de DocumentRepository (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `
	id, company_id, customer_id, type_code, number, issue_date, status,
	generation_code, control_number, reception_seal,
	total_amount, sub_total, tax, rete_renta, iva_rete1, total_without_tax, total_pagar,
	invalidated, delivered_by, delivered_by_document, received_by, received_by_document,
	observations, related_document_id, last_error, created_at, updated_at`

// Create inserta la cabecera y las líneas. Si el correlativo ya existe devuelve domain.ErrDuplicate.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	query := `INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		        $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`
	t, d := doc.Totals, doc.Delivery
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.CompanyID, doc.CustomerID, string(doc.TypeCode), doc.Number, doc.IssueDate, string(doc.Status),
		nullIfEmpty(doc.GenerationCode), nullIfEmpty(doc.ControlNumber), nullIfEmpty(doc.ReceptionSeal),
		t.TotalAmount, t.SubTotal, t.Tax, t.ReteRenta, t.IvaRete1, t.TotalWithoutTax, t.TotalPagar,
		doc.Invalidated, d.DeliveredBy, d.DeliveredByDocument, d.ReceivedBy, d.ReceivedByDocument,
		doc.Observations, nullIfEmpty(doc.RelatedDocumentID), doc.LastError, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("documento %s-%s: %w", doc.TypeCode, doc.Number, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return r.insertItems(ctx, doc.ID, doc.Items)
}

func (r *DocumentRepo) insertItems(ctx context.Context, documentID string, items []entity.LineItem) error {
	query := `
		INSERT INTO document_items (id, document_id, position, product_id, description, quantity, unit_price, observation, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, it := range items {
		_, err := r.q.Exec(ctx, query,
			it.ID, documentID, it.Position, nullIfEmpty(it.ProductID), it.Description,
			it.Quantity, it.UnitPrice, it.Observation, it.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("insert document item %d: %w", it.Position, err)
		}
	}
	return nil
}

// GetByID obtiene el documento con sus líneas.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	row := r.q.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Items = items
	return doc, nil
}

func (r *DocumentRepo) items(ctx context.Context, documentID string) ([]entity.LineItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, document_id, position, COALESCE(product_id::text, ''), description, quantity, unit_price, observation, line_total
		FROM document_items WHERE document_id = $1 ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document items: %w", err)
	}
	defer rows.Close()
	var list []entity.LineItem
	for rows.Next() {
		var it entity.LineItem
		if err := rows.Scan(&it.ID, &it.DocumentID, &it.Position, &it.ProductID, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.Observation, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan document item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// MaxNumber mayor correlativo numérico; los números no numéricos se ignoran.
func (r *DocumentRepo) MaxNumber(ctx context.Context, companyID string, typeCode dte.DocumentType) (int64, error) {
	const query = `
		SELECT COALESCE(MAX(CASE WHEN number ~ '^[0-9]{1,18}$' THEN number::bigint END), 0)
		FROM documents WHERE company_id = $1 AND type_code = $2`
	var max int64
	if err := r.q.QueryRow(ctx, query, companyID, string(typeCode)).Scan(&max); err != nil {
		return 0, fmt.Errorf("max document number: %w", err)
	}
	return max, nil
}

// UpdateStatus actualiza estado e identificadores solo si el estado guardado sigue siendo expected.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, doc *entity.Document, expected entity.Status) error {
	const query = `
		UPDATE documents
		SET status          = $3,
		    generation_code = $4,
		    control_number  = $5,
		    reception_seal  = $6,
		    invalidated     = $7,
		    last_error      = $8,
		    updated_at      = $9
		WHERE id = $1 AND status = $2`
	tag, err := r.q.Exec(ctx, query,
		doc.ID, string(expected), string(doc.Status),
		nullIfEmpty(doc.GenerationCode), nullIfEmpty(doc.ControlNumber), nullIfEmpty(doc.ReceptionSeal),
		doc.Invalidated, doc.LastError, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documento %s ya no está en %s: %w", doc.ID, expected, domain.ErrConflict)
	}
	return nil
}

// UpdateContent reemplaza cabecera editable y líneas con la misma condición de estado.
func (r *DocumentRepo) UpdateContent(ctx context.Context, doc *entity.Document, expected entity.Status) error {
	const query = `
		UPDATE documents
		SET customer_id           = $3,
		    status                = $4,
		    total_amount          = $5,
		    sub_total             = $6,
		    tax                   = $7,
		    rete_renta            = $8,
		    iva_rete1             = $9,
		    total_without_tax     = $10,
		    total_pagar           = $11,
		    delivered_by          = $12,
		    delivered_by_document = $13,
		    received_by           = $14,
		    received_by_document  = $15,
		    observations          = $16,
		    updated_at            = $17
		WHERE id = $1 AND status = $2`
	t, d := doc.Totals, doc.Delivery
	tag, err := r.q.Exec(ctx, query,
		doc.ID, string(expected), doc.CustomerID, string(doc.Status),
		t.TotalAmount, t.SubTotal, t.Tax, t.ReteRenta, t.IvaRete1, t.TotalWithoutTax, t.TotalPagar,
		d.DeliveredBy, d.DeliveredByDocument, d.ReceivedBy, d.ReceivedByDocument,
		doc.Observations, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documento %s ya no está en %s: %w", doc.ID, expected, domain.ErrConflict)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM document_items WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("delete document items: %w", err)
	}
	return r.insertItems(ctx, doc.ID, doc.Items)
}

// List documentos de la empresa, más recientes primero. No carga las líneas.
func (r *DocumentRepo) List(ctx context.Context, filter repository.DocumentFilter) ([]*entity.Document, error) {
	where := []string{"company_id = $1"}
	args := []any{filter.CompanyID}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.TypeCode != "" {
		args = append(args, string(filter.TypeCode))
		where = append(where, fmt.Sprintf("type_code = $%d", len(args)))
	}
	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		documentColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var list []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		list = append(list, doc)
	}
	return list, rows.Err()
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var doc entity.Document
	var typeCode, status string
	var genCode, controlNumber, seal, relatedID *string
	t, d := &doc.Totals, &doc.Delivery
	err := row.Scan(
		&doc.ID, &doc.CompanyID, &doc.CustomerID, &typeCode, &doc.Number, &doc.IssueDate, &status,
		&genCode, &controlNumber, &seal,
		&t.TotalAmount, &t.SubTotal, &t.Tax, &t.ReteRenta, &t.IvaRete1, &t.TotalWithoutTax, &t.TotalPagar,
		&doc.Invalidated, &d.DeliveredBy, &d.DeliveredByDocument, &d.ReceivedBy, &d.ReceivedByDocument,
		&doc.Observations, &relatedID, &doc.LastError, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.TypeCode = dte.DocumentType(typeCode)
	doc.Status = entity.Status(status)
	doc.GenerationCode = derefStr(genCode)
	doc.ControlNumber = derefStr(controlNumber)
	doc.ReceptionSeal = derefStr(seal)
	doc.RelatedDocumentID = derefStr(relatedID)
	return &doc, nil
}
