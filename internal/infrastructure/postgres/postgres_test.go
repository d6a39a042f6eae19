package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/internal/domain"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/fiscal"
	"github.com/jhoicas/dte-api/internal/infrastructure/postgres"
	"github.com/jhoicas/dte-api/pkg/config"
	"github.com/jhoicas/dte-api/pkg/dte"
)

func TestMigrationNames_Ordenados(t *testing.T) {
	names := postgres.MigrationNames()
	require.Len(t, names, 3)
	assert.Equal(t, "migrations/0001_init.sql", names[0])
	assert.Equal(t, "migrations/0003_economic_activities.sql", names[2])
}

// Las pruebas contra PostgreSQL solo corren con TEST_DATABASE_URL definido.
func testPool(t *testing.T) (*postgres.TxRunner, string) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = postgres.Migrate(ctx, pool, zerolog.Nop())
	require.NoError(t, err)

	now := time.Now()
	companyID := uuid.New().String()
	require.NoError(t, postgres.NewCompanyRepository(pool).Create(ctx, &entity.Company{
		ID: companyID, Name: "Prueba", NIT: companyID[:14], NRC: "1", Status: entity.CompanyStatusActive, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, postgres.NewCustomerRepository(pool).Create(ctx, &entity.Customer{
		ID: companyID, CompanyID: companyID, Name: "Cliente", DocumentType: dte.IDDUI, DocumentNumber: "123456784", CreatedAt: now, UpdatedAt: now,
	}))
	return postgres.NewTxRunner(pool), companyID
}

func TestRunNumbering_CorrelativosUnicosBajoConcurrencia(t *testing.T) {
	runner, companyID := testPool(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc := &entity.Document{
				ID: uuid.New().String(), CompanyID: companyID, CustomerID: companyID,
				TypeCode: dte.TipoFactura, IssueDate: time.Now(), Status: entity.StatusNueva,
				Totals: entity.Totals{TotalAmount: decimal.NewFromInt(1), SubTotal: decimal.NewFromInt(1), TotalPagar: decimal.NewFromInt(1)},
				CreatedAt: time.Now(), UpdatedAt: time.Now(),
			}
			err := runner.RunNumbering(ctx, companyID, dte.TipoFactura, func(s billing.DocumentStores) error {
				max, err := s.Documents.MaxNumber(ctx, companyID, dte.TipoFactura)
				if err != nil {
					return err
				}
				doc.Number = fiscal.NextFromMax(max)
				return s.Documents.Create(ctx, doc)
			})
			if assert.NoError(t, err) {
				numbers <- doc.Number
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "correlativo duplicado %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestUpdateStatus_ConflictoSiCambioElEstado(t *testing.T) {
	runner, companyID := testPool(t)
	ctx := context.Background()

	doc := &entity.Document{
		ID: uuid.New().String(), CompanyID: companyID, CustomerID: companyID, TypeCode: dte.TipoCCF,
		Number: "00001", IssueDate: time.Now(), Status: entity.StatusNueva, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	err := runner.RunDocuments(ctx, func(s billing.DocumentStores) error {
		if err := s.Documents.Create(ctx, doc); err != nil {
			return err
		}
		doc.Status = entity.StatusSincronizando
		if err := s.Documents.UpdateStatus(ctx, doc, entity.StatusNueva); err != nil {
			return err
		}
		return s.Documents.UpdateStatus(ctx, doc, entity.StatusNueva)
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
