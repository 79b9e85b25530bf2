package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"lekha/internal/domain"
	"lekha/internal/port"
)

type engineRunRepo struct {
	db *sqlx.DB
}

// NewEngineRunRepo creates a new PostgreSQL-backed EngineRunRepository.
func NewEngineRunRepo(db *sqlx.DB) port.EngineRunRepository {
	return &engineRunRepo{db: db}
}

func (r *engineRunRepo) ListByPage(ctx context.Context, projectID, pageRef string) ([]domain.EngineRun, error) {
	var runs []domain.EngineRun
	err := r.db.SelectContext(ctx, &runs,
		`SELECT * FROM engine_runs WHERE project_id = $1 AND page_ref = $2
		 ORDER BY run_order, run_id`,
		projectID, pageRef)
	if err != nil {
		return nil, fmt.Errorf("engineRunRepo.ListByPage: %w", err)
	}
	return runs, nil
}
