package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/repository"
	"github.com/jhoicas/dte-api/pkg/dte"
)

// DocumentStores repositorios ligados a una misma transacción.
type DocumentStores struct {
	Documents     repository.DocumentRepository
	Invalidations repository.InvalidationRepository
}

// DocumentTxRunner ejecuta funciones dentro de una transacción de base de datos.
type DocumentTxRunner interface {
	// RunNumbering serializa por (empresa, tipo) la lectura del correlativo máximo
	// y la inserción del documento: nadie más puede asignar número hasta el commit.
	RunNumbering(ctx context.Context, companyID string, typeCode dte.DocumentType, fn func(stores DocumentStores) error) error
	RunDocuments(ctx context.Context, fn func(stores DocumentStores) error) error
}

// SubmissionRequest todo lo que necesita el transmisor para armar el DTE.
type SubmissionRequest struct {
	Document *entity.Document
	Company  *entity.Company
	Customer *entity.Customer
	Related  *entity.Document // CCF referenciado por notas de crédito o débito
	Ambiente string

	// TaxFactor factor con el que se calcularon los montos; el IVA por línea se desglosa con el mismo.
	TaxFactor decimal.Decimal
}

// Submitter transmite un DTE a Hacienda. Devuelve los identificadores de aceptación
// o un error (rechazo, red, timeout).
type Submitter interface {
	Submit(ctx context.Context, req SubmissionRequest, creds *entity.Credentials) (*entity.Acceptance, error)
}

// Invalidator transmite un evento de invalidación.
type Invalidator interface {
	Invalidate(ctx context.Context, req entity.InvalidationRequest, creds *entity.Credentials) (*entity.InvalidationReceipt, error)
}

// CredentialProvider entrega las credenciales de firma de la empresa.
// Devuelve domain.ErrCertificateRequired si no hay clave del certificado.
type CredentialProvider interface {
	Credentials(ctx context.Context, companyID string) (*entity.Credentials, error)
}
