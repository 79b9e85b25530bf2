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

type pageRepo struct {
	db *sqlx.DB
}

// NewPageRepo creates a new PostgreSQL-backed PageRepository.
func NewPageRepo(db *sqlx.DB) port.PageRepository {
	return &pageRepo{db: db}
}

func (r *pageRepo) Upsert(ctx context.Context, page *domain.Page) error {
	if page.CreatedAt.IsZero() {
		page.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO pages (
		project_id, page_ref, page_index, image_key, content_type, width, height, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (project_id, page_ref) DO UPDATE SET
		page_index = EXCLUDED.page_index,
		image_key = EXCLUDED.image_key,
		content_type = EXCLUDED.content_type,
		width = EXCLUDED.width,
		height = EXCLUDED.height`

	_, err := r.db.ExecContext(ctx, query,
		page.ProjectID, page.PageRef, page.PageIndex, page.ImageKey,
		page.ContentType, page.Width, page.Height, page.CreatedAt)
	if err != nil {
		return fmt.Errorf("pageRepo.Upsert: %w", err)
	}
	return nil
}

func (r *pageRepo) GetByRef(ctx context.Context, projectID, pageRef string) (*domain.Page, error) {
	var page domain.Page
	err := r.db.GetContext(ctx, &page,
		"SELECT * FROM pages WHERE project_id = $1 AND page_ref = $2", projectID, pageRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPageNotFound
		}
		return nil, fmt.Errorf("pageRepo.GetByRef: %w", err)
	}
	return &page, nil
}

func (r *pageRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Page, error) {
	var pages []domain.Page
	err := r.db.SelectContext(ctx, &pages,
		"SELECT * FROM pages WHERE project_id = $1 ORDER BY page_index", projectID)
	if err != nil {
		return nil, fmt.Errorf("pageRepo.ListByProject: %w", err)
	}
	return pages, nil
}
