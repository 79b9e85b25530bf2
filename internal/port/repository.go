package port

import (
	"context"

	"lekha/internal/domain"
)

// ProjectRepository defines the contract for project persistence.
type ProjectRepository interface {
	Upsert(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, projectID string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	// MostRecent returns the project opened last, or ErrProjectNotFound
	// when no project has been opened.
	MostRecent(ctx context.Context) (*domain.Project, error)
	UpdateState(ctx context.Context, projectID string, view domain.View, segmentID string) error
	Delete(ctx context.Context, projectID string) error
}

// PageRepository defines the contract for page metadata persistence.
type PageRepository interface {
	Upsert(ctx context.Context, page *domain.Page) error
	GetByRef(ctx context.Context, projectID, pageRef string) (*domain.Page, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Page, error)
}

// EngineRunRepository reads archived engine output.
type EngineRunRepository interface {
	ListByPage(ctx context.Context, projectID, pageRef string) ([]domain.EngineRun, error)
}

// PageContent is everything produced by ingesting one page.
type PageContent struct {
	ProjectID string
	PageRef   string
	Runs      []domain.EngineRun
	Segments  []domain.Segment
	Links     []domain.SegmentLink
}

// SegmentRepository defines the contract for segment persistence.
// Every method is scoped by project id.
type SegmentRepository interface {
	// ReplacePage swaps the runs, segments and links of one page in a
	// single transaction.
	ReplacePage(ctx context.Context, content *PageContent) error
	GetByID(ctx context.Context, projectID, segmentID string) (*domain.Segment, error)
	First(ctx context.Context, projectID string, view domain.View) (*domain.Segment, error)
	// Neighbor returns the adjacent segment in order, or nil at a boundary.
	Neighbor(ctx context.Context, projectID string, view domain.View, orderIndex int64, dir domain.Direction) (*domain.Segment, error)
	// NextConflict returns the first conflicting segment strictly after
	// orderIndex, or nil.
	NextConflict(ctx context.Context, projectID string, view domain.View, orderIndex int64) (*domain.Segment, error)
	Navigation(ctx context.Context, projectID string, view domain.View, orderIndex int64) (*domain.Navigation, error)
	ListByView(ctx context.Context, projectID string, view domain.View) ([]domain.Segment, error)
	ListByPage(ctx context.Context, projectID, pageRef string, view domain.View) ([]domain.Segment, error)
	// LineForWord follows the word to line link, or returns nil.
	LineForWord(ctx context.Context, projectID, wordSegmentID string) (*domain.Segment, error)
	// WordsForLine follows the links of a line, ordered by order index.
	WordsForLine(ctx context.Context, projectID, lineSegmentID string) ([]domain.Segment, error)
	// SaveTexts applies all updates in one transaction and marks them edited.
	SaveTexts(ctx context.Context, projectID string, updates []domain.TextUpdate) error
}
