package repository

import (
	"context"

	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/pkg/dte"
)

// DocumentFilter filtros del listado de documentos de una empresa.
type DocumentFilter struct {
	CompanyID string
	Status    entity.Status    // vacío = todos
	TypeCode  dte.DocumentType // vacío = todos
	Limit     int
	Offset    int
}

// DocumentRepository puerto de persistencia para DTE y sus líneas.
// GetByID devuelve (nil, nil) si no existe.
type DocumentRepository interface {
	// Create inserta cabecera y líneas.
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	// MaxNumber mayor correlativo numérico de (empresa, tipo); 0 si no hay documentos.
	MaxNumber(ctx context.Context, companyID string, typeCode dte.DocumentType) (int64, error)
	// UpdateStatus persiste estado, identificadores de Hacienda, bandera de anulación y último error
	// solo si el estado guardado sigue siendo expected. Devuelve domain.ErrConflict si cambió.
	UpdateStatus(ctx context.Context, doc *entity.Document, expected entity.Status) error
	// UpdateContent reemplaza líneas, totales, cliente y textos libres con la misma condición de estado.
	UpdateContent(ctx context.Context, doc *entity.Document, expected entity.Status) error
	List(ctx context.Context, filter DocumentFilter) ([]*entity.Document, error)
}

// InvalidationRepository puerto de persistencia de anulaciones.
type InvalidationRepository interface {
	Create(ctx context.Context, inv *entity.Invalidation) error
	GetByDocumentID(ctx context.Context, documentID string) (*entity.Invalidation, error)
}
