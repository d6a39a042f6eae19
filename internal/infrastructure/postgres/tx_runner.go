package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/pkg/dte"
)

var _ billing.DocumentTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunNumbering toma un advisory lock de transacción por (empresa, tipo) antes de ejecutar fn.
// El lock se libera con el commit o el rollback.
func (r *TxRunner) RunNumbering(ctx context.Context, companyID string, typeCode dte.DocumentType, fn func(billing.DocumentStores) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		key := "dte-number:" + companyID + ":" + string(typeCode)
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
		return fn(stores(tx))
	})
}

// RunDocuments transacción simple sobre documentos y anulaciones.
func (r *TxRunner) RunDocuments(ctx context.Context, fn func(billing.DocumentStores) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(stores(tx))
	})
}

func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func stores(tx pgx.Tx) billing.DocumentStores {
	return billing.DocumentStores{
		Documents:     NewDocumentRepository(tx),
		Invalidations: NewInvalidationRepository(tx),
	}
}
