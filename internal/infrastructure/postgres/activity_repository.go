package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/dte-api/internal/domain/entity"
)

// ActivityRepo catálogo de actividades económicas.
type ActivityRepo struct {
	q Querier
}

// NewActivityRepository construye el adaptador.
func NewActivityRepository(q Querier) *ActivityRepo {
	return &ActivityRepo{q: q}
}

// Upsert inserta o actualiza las actividades en un solo batch.
func (r *ActivityRepo) Upsert(ctx context.Context, activities []entity.EconomicActivity) (int, error) {
	batch := &pgx.Batch{}
	for _, a := range activities {
		batch.Queue(`
			INSERT INTO economic_activities (code, description) VALUES ($1, $2)
			ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description`, a.Code, a.Description)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for i := range activities {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("upsert actividad %s: %w", activities[i].Code, err)
		}
	}
	return len(activities), nil
}

// Search busca por código o descripción (para el selector de la UI).
func (r *ActivityRepo) Search(ctx context.Context, term string, limit int) ([]entity.EconomicActivity, error) {
	rows, err := r.q.Query(ctx, `
		SELECT code, description FROM economic_activities
		WHERE code LIKE $1 || '%' OR description ILIKE '%' || $1 || '%'
		ORDER BY code LIMIT $2`, term, limit)
	if err != nil {
		return nil, fmt.Errorf("search activities: %w", err)
	}
	defer rows.Close()
	var list []entity.EconomicActivity
	for rows.Next() {
		var a entity.EconomicActivity
		if err := rows.Scan(&a.Code, &a.Description); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
