package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"lekha/internal/domain"
	"lekha/internal/port"
)

type projectRepo struct {
	db *sqlx.DB
}

// NewProjectRepo creates a new PostgreSQL-backed ProjectRepository.
func NewProjectRepo(db *sqlx.DB) port.ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) Upsert(ctx context.Context, p *domain.Project) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.LastView == "" {
		p.LastView = domain.ViewLine
	}

	query := `INSERT INTO projects (
		project_id, label, source, languages, engines,
		last_view, last_segment_id, last_opened_at, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (project_id) DO UPDATE SET
		label = EXCLUDED.label,
		source = EXCLUDED.source,
		languages = EXCLUDED.languages,
		engines = EXCLUDED.engines,
		updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		p.ProjectID, p.Label, p.Source, p.Languages, p.Engines,
		p.LastView, p.LastSegmentID, p.LastOpenedAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("projectRepo.Upsert: %w", err)
	}
	return nil
}

func (r *projectRepo) GetByID(ctx context.Context, projectID string) (*domain.Project, error) {
	var p domain.Project
	err := r.db.GetContext(ctx, &p, "SELECT * FROM projects WHERE project_id = $1", projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("projectRepo.GetByID: %w", err)
	}
	return &p, nil
}

func (r *projectRepo) List(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.SelectContext(ctx, &projects, "SELECT * FROM projects ORDER BY label, project_id")
	if err != nil {
		return nil, fmt.Errorf("projectRepo.List: %w", err)
	}
	return projects, nil
}

func (r *projectRepo) MostRecent(ctx context.Context) (*domain.Project, error) {
	var p domain.Project
	err := r.db.GetContext(ctx, &p,
		`SELECT * FROM projects WHERE last_opened_at IS NOT NULL
		 ORDER BY last_opened_at DESC LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("projectRepo.MostRecent: %w", err)
	}
	return &p, nil
}

func (r *projectRepo) UpdateState(ctx context.Context, projectID string, view domain.View, segmentID string) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET last_view = $1, last_segment_id = $2, last_opened_at = $3, updated_at = $3
		 WHERE project_id = $4`,
		view, segmentID, now, projectID)
	if err != nil {
		return fmt.Errorf("projectRepo.UpdateState: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("projectRepo.UpdateState rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *projectRepo) Delete(ctx context.Context, projectID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE project_id = $1", projectID)
	if err != nil {
		return fmt.Errorf("projectRepo.Delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("projectRepo.Delete rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}
