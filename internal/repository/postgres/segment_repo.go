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

// insertChunk keeps batched inserts well below the PostgreSQL parameter limit.
const insertChunk = 500

type segmentRepo struct {
	db *sqlx.DB
}

// NewSegmentRepo creates a new PostgreSQL-backed SegmentRepository.
func NewSegmentRepo(db *sqlx.DB) port.SegmentRepository {
	return &segmentRepo{db: db}
}

func (r *segmentRepo) ReplacePage(ctx context.Context, content *port.PageContent) error {
	now := time.Now().UTC()
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Links cascade with their segments.
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM segments WHERE project_id = $1 AND page_ref = $2",
			content.ProjectID, content.PageRef); err != nil {
			return fmt.Errorf("deleting segments: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM engine_runs WHERE project_id = $1 AND page_ref = $2",
			content.ProjectID, content.PageRef); err != nil {
			return fmt.Errorf("deleting engine runs: %w", err)
		}

		for i := range content.Runs {
			run := &content.Runs[i]
			run.CreatedAt = now
			if _, err := tx.NamedExecContext(ctx,
				`INSERT INTO engine_runs (project_id, page_ref, run_id, engine_id, run_order, status, error, boxes, created_at)
				 VALUES (:project_id, :page_ref, :run_id, :engine_id, :run_order, :status, :error, :boxes, :created_at)`,
				run); err != nil {
				return fmt.Errorf("inserting engine run %s: %w", run.RunID, err)
			}
		}

		for i := range content.Segments {
			content.Segments[i].CreatedAt = now
			content.Segments[i].UpdatedAt = now
		}
		for start := 0; start < len(content.Segments); start += insertChunk {
			end := min(start+insertChunk, len(content.Segments))
			if _, err := tx.NamedExecContext(ctx,
				`INSERT INTO segments (
					project_id, segment_id, view, page_ref, page_index, line_index, word_index,
					order_index, bbox, text, base_text, has_conflict, edited,
					alternatives, source_groups, created_at, updated_at
				) VALUES (
					:project_id, :segment_id, :view, :page_ref, :page_index, :line_index, :word_index,
					:order_index, :bbox, :text, :base_text, :has_conflict, :edited,
					:alternatives, :source_groups, :created_at, :updated_at
				)`,
				content.Segments[start:end]); err != nil {
				return fmt.Errorf("inserting segments: %w", err)
			}
		}

		for start := 0; start < len(content.Links); start += insertChunk {
			end := min(start+insertChunk, len(content.Links))
			if _, err := tx.NamedExecContext(ctx,
				`INSERT INTO segment_links (project_id, word_segment_id, line_segment_id)
				 VALUES (:project_id, :word_segment_id, :line_segment_id)`,
				content.Links[start:end]); err != nil {
				return fmt.Errorf("inserting segment links: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("segmentRepo.ReplacePage: %w", err)
	}
	return nil
}

func (r *segmentRepo) GetByID(ctx context.Context, projectID, segmentID string) (*domain.Segment, error) {
	var seg domain.Segment
	err := r.db.GetContext(ctx, &seg,
		"SELECT * FROM segments WHERE project_id = $1 AND segment_id = $2", projectID, segmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSegmentNotFound
		}
		return nil, fmt.Errorf("segmentRepo.GetByID: %w", err)
	}
	return &seg, nil
}

// getOptional runs a single-row query where no row is a valid answer.
func (r *segmentRepo) getOptional(ctx context.Context, op, query string, args ...interface{}) (*domain.Segment, error) {
	var seg domain.Segment
	err := r.db.GetContext(ctx, &seg, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("segmentRepo.%s: %w", op, err)
	}
	return &seg, nil
}

func (r *segmentRepo) First(ctx context.Context, projectID string, view domain.View) (*domain.Segment, error) {
	return r.getOptional(ctx, "First",
		`SELECT * FROM segments WHERE project_id = $1 AND view = $2
		 ORDER BY order_index LIMIT 1`,
		projectID, view)
}

func (r *segmentRepo) Neighbor(ctx context.Context, projectID string, view domain.View, orderIndex int64, dir domain.Direction) (*domain.Segment, error) {
	query := `SELECT * FROM segments WHERE project_id = $1 AND view = $2 AND order_index > $3
		ORDER BY order_index ASC LIMIT 1`
	if dir == domain.DirectionPrev {
		query = `SELECT * FROM segments WHERE project_id = $1 AND view = $2 AND order_index < $3
		ORDER BY order_index DESC LIMIT 1`
	}
	return r.getOptional(ctx, "Neighbor", query, projectID, view, orderIndex)
}

func (r *segmentRepo) NextConflict(ctx context.Context, projectID string, view domain.View, orderIndex int64) (*domain.Segment, error) {
	return r.getOptional(ctx, "NextConflict",
		`SELECT * FROM segments
		 WHERE project_id = $1 AND view = $2 AND order_index > $3 AND has_conflict
		 ORDER BY order_index LIMIT 1`,
		projectID, view, orderIndex)
}

func (r *segmentRepo) Navigation(ctx context.Context, projectID string, view domain.View, orderIndex int64) (*domain.Navigation, error) {
	var nav domain.Navigation
	err := r.db.GetContext(ctx, &nav,
		`SELECT
			EXISTS (SELECT 1 FROM segments WHERE project_id = $1 AND view = $2 AND order_index < $3) AS can_prev,
			EXISTS (SELECT 1 FROM segments WHERE project_id = $1 AND view = $2 AND order_index > $3) AS can_next,
			EXISTS (SELECT 1 FROM segments WHERE project_id = $1 AND view = $2 AND order_index > $3 AND has_conflict) AS has_next_issue`,
		projectID, view, orderIndex)
	if err != nil {
		return nil, fmt.Errorf("segmentRepo.Navigation: %w", err)
	}
	return &nav, nil
}

func (r *segmentRepo) ListByView(ctx context.Context, projectID string, view domain.View) ([]domain.Segment, error) {
	var segs []domain.Segment
	err := r.db.SelectContext(ctx, &segs,
		"SELECT * FROM segments WHERE project_id = $1 AND view = $2 ORDER BY order_index",
		projectID, view)
	if err != nil {
		return nil, fmt.Errorf("segmentRepo.ListByView: %w", err)
	}
	return segs, nil
}

func (r *segmentRepo) ListByPage(ctx context.Context, projectID, pageRef string, view domain.View) ([]domain.Segment, error) {
	var segs []domain.Segment
	err := r.db.SelectContext(ctx, &segs,
		`SELECT * FROM segments WHERE project_id = $1 AND page_ref = $2 AND view = $3
		 ORDER BY order_index`,
		projectID, pageRef, view)
	if err != nil {
		return nil, fmt.Errorf("segmentRepo.ListByPage: %w", err)
	}
	return segs, nil
}

func (r *segmentRepo) LineForWord(ctx context.Context, projectID, wordSegmentID string) (*domain.Segment, error) {
	return r.getOptional(ctx, "LineForWord",
		`SELECT s.* FROM segments s
		 INNER JOIN segment_links l ON l.project_id = s.project_id AND l.line_segment_id = s.segment_id
		 WHERE l.project_id = $1 AND l.word_segment_id = $2`,
		projectID, wordSegmentID)
}

func (r *segmentRepo) WordsForLine(ctx context.Context, projectID, lineSegmentID string) ([]domain.Segment, error) {
	var segs []domain.Segment
	err := r.db.SelectContext(ctx, &segs,
		`SELECT s.* FROM segments s
		 INNER JOIN segment_links l ON l.project_id = s.project_id AND l.word_segment_id = s.segment_id
		 WHERE l.project_id = $1 AND l.line_segment_id = $2
		 ORDER BY s.order_index`,
		projectID, lineSegmentID)
	if err != nil {
		return nil, fmt.Errorf("segmentRepo.WordsForLine: %w", err)
	}
	return segs, nil
}

func (r *segmentRepo) SaveTexts(ctx context.Context, projectID string, updates []domain.TextUpdate) error {
	now := time.Now().UTC()
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, u := range updates {
			result, err := tx.ExecContext(ctx,
				`UPDATE segments SET text = $1, has_conflict = $2, edited = TRUE, updated_at = $3
				 WHERE project_id = $4 AND segment_id = $5`,
				u.Text, u.HasConflict, now, projectID, u.SegmentID)
			if err != nil {
				return err
			}
			rows, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if rows == 0 {
				return domain.ErrSegmentNotFound
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("segmentRepo.SaveTexts: %w", err)
	}
	return nil
}
