package service_test

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lekha/internal/config"
	"lekha/internal/consensus"
	"lekha/internal/domain"
	"lekha/internal/port"
	"lekha/internal/service"
	"lekha/mocks"
)

type ingestFixture struct {
	projects *mocks.MockProjectRepo
	pages    *mocks.MockPageRepo
	runs     *mocks.MockEngineRunRepo
	segments *mocks.MockSegmentRepo
	storage  *mocks.MockObjectStorage
	engines  []*mocks.MockOCREngine
	cfg      *config.Config
}

func newIngestFixture(engineNames ...string) *ingestFixture {
	f := &ingestFixture{
		projects: new(mocks.MockProjectRepo),
		pages:    new(mocks.MockPageRepo),
		runs:     new(mocks.MockEngineRunRepo),
		segments: new(mocks.MockSegmentRepo),
		storage:  new(mocks.MockObjectStorage),
		cfg: &config.Config{
			S3:        config.S3Config{Bucket: "pages", MaxPageSizeMB: 1},
			Alignment: config.AlignmentConfig{LineOverlap: 0.5, WordOverlap: 0.5},
			Consensus: config.ConsensusConfig{TieBreak: consensus.TieBreakPrimary},
			OCR:       config.OCRConfig{Engines: engineNames, Languages: []string{"eng"}},
		},
	}
	for _, name := range engineNames {
		f.engines = append(f.engines, &mocks.MockOCREngine{EngineName: name})
	}
	return f
}

func (f *ingestFixture) service() service.IngestService {
	engines := make([]port.OCREngine, len(f.engines))
	for i, e := range f.engines {
		engines[i] = e
	}
	return service.NewIngestService(f.projects, f.pages, f.runs, f.segments, f.storage, engines, f.cfg, discardLogger())
}

// captureReplace records the content passed to ReplacePage.
func (f *ingestFixture) captureReplace() *[]*port.PageContent {
	var captured []*port.PageContent
	f.segments.On("ReplacePage", mock.Anything, mock.AnythingOfType("*port.PageContent")).
		Run(func(args mock.Arguments) {
			captured = append(captured, args.Get(1).(*port.PageContent))
		}).Return(nil)
	return &captured
}

func words(engine string, texts ...string) []domain.WordBox {
	out := make([]domain.WordBox, len(texts))
	for i, text := range texts {
		out[i] = domain.WordBox{Text: text, Left: 10 + i*100, Top: 10, Width: 80, Height: 20, EngineID: engine}
	}
	return out
}

func segmentByID(content *port.PageContent, id string) *domain.Segment {
	for i := range content.Segments {
		if content.Segments[i].SegmentID == id {
			return &content.Segments[i]
		}
	}
	return nil
}

func TestIngestService_IngestPage_EndToEnd(t *testing.T) {
	f := newIngestFixture("good", "typo")
	f.cfg.Consensus.PrimaryEngine = "good"
	ctx := context.Background()

	f.storage.On("Upload", ctx, mock.AnythingOfType("port.UploadInput")).Return(&port.UploadOutput{}, nil)
	f.pages.On("Upsert", ctx, mock.AnythingOfType("*domain.Page")).Return(nil)
	f.engines[0].On("Recognize", mock.Anything, mock.Anything).Return(words("", "Hello", "world"), nil)
	f.engines[1].On("Recognize", mock.Anything, mock.Anything).Return(words("", "Helo", "world"), nil)
	captured := f.captureReplace()

	project := &domain.Project{ProjectID: "book", Languages: domain.StringList{"eng"}}
	err := f.service().IngestPage(ctx, project, service.PageInput{
		PageRef:     "001.png",
		PageIndex:   0,
		Data:        pngBytes(t, 300, 60),
		ContentType: "image/png",
	})
	require.NoError(t, err)
	require.Len(t, *captured, 1)
	content := (*captured)[0]

	assert.Len(t, content.Runs, 2)
	assert.Len(t, content.Links, 2)

	line := segmentByID(content, "p0000_l0000")
	require.NotNil(t, line)
	assert.Equal(t, "Hello world", line.Text)
	assert.True(t, line.HasConflict)
	assert.Equal(t, "Helo world", line.Alternatives["typo"])

	hello := segmentByID(content, "p0000_l0000_w0000")
	require.NotNil(t, hello)
	assert.Equal(t, "Hello", hello.Text)
	assert.Equal(t, "Hello", hello.BaseText)
	assert.True(t, hello.HasConflict)
	assert.Equal(t, domain.OrderIndex(0, 0, hello.WordIndex), hello.OrderIndex)

	world := segmentByID(content, "p0000_l0000_w0001")
	require.NotNil(t, world)
	assert.Equal(t, "world", world.Text)
	assert.False(t, world.HasConflict)

	for _, run := range content.Runs {
		for _, b := range run.Boxes {
			assert.Equal(t, run.EngineID, b.EngineID)
			assert.Equal(t, run.RunID, b.RunID)
		}
	}
}

func TestIngestService_IngestPage_TieWithoutPrimaryFollowsEngineOrder(t *testing.T) {
	for _, tieBreak := range []consensus.TieBreak{consensus.TieBreakPrimary, consensus.TieBreakRunOrder} {
		t.Run(string(tieBreak), func(t *testing.T) {
			f := newIngestFixture("tesseract", "kraken", "hocr")
			f.cfg.Consensus.TieBreak = tieBreak
			ctx := context.Background()

			f.storage.On("Upload", ctx, mock.Anything).Return(&port.UploadOutput{}, nil)
			f.pages.On("Upsert", ctx, mock.Anything).Return(nil)
			f.engines[0].On("Recognize", mock.Anything, mock.Anything).Return(words("", "Hello"), nil)
			f.engines[1].On("Recognize", mock.Anything, mock.Anything).Return(words("", "Hello", "KRAKEN"), nil)
			f.engines[2].On("Recognize", mock.Anything, mock.Anything).Return(words("", "Hello", "HOCR"), nil)
			captured := f.captureReplace()

			err := f.service().IngestPage(ctx, &domain.Project{ProjectID: "book"}, service.PageInput{PageRef: "001.png", Data: pngBytes(t, 300, 60)})
			require.NoError(t, err)
			require.Len(t, *captured, 1)
			content := (*captured)[0]

			second := segmentByID(content, "p0000_l0000_w0001")
			require.NotNil(t, second)
			assert.Equal(t, "KRAKEN", second.Text)
			assert.True(t, second.HasConflict)
			assert.Equal(t, "Hello KRAKEN", segmentByID(content, "p0000_l0000").Text)
		})
	}
}

func TestIngestService_IngestPage_SkipsFailedEngine(t *testing.T) {
	f := newIngestFixture("good", "broken")
	ctx := context.Background()

	f.storage.On("Upload", ctx, mock.Anything).Return(&port.UploadOutput{}, nil)
	f.pages.On("Upsert", ctx, mock.Anything).Return(nil)
	f.engines[0].On("Recognize", mock.Anything, mock.Anything).Return(words("", "solo"), nil)
	f.engines[1].On("Recognize", mock.Anything, mock.Anything).Return(nil, errors.New("model missing"))
	captured := f.captureReplace()

	err := f.service().IngestPage(ctx, &domain.Project{ProjectID: "book"}, service.PageInput{PageRef: "001.png", Data: pngBytes(t, 200, 50)})
	require.NoError(t, err)

	content := (*captured)[0]
	require.Len(t, content.Runs, 2)
	assert.Equal(t, domain.EngineRunFailed, content.Runs[1].Status)
	assert.Equal(t, "model missing", content.Runs[1].Error)
	word := segmentByID(content, "p0000_l0000_w0000")
	require.NotNil(t, word)
	assert.False(t, word.HasConflict)
}

func TestIngestService_IngestPage_AllEnginesFail(t *testing.T) {
	f := newIngestFixture("broken")
	ctx := context.Background()

	f.storage.On("Upload", ctx, mock.Anything).Return(&port.UploadOutput{}, nil)
	f.pages.On("Upsert", ctx, mock.Anything).Return(nil)
	f.engines[0].On("Recognize", mock.Anything, mock.Anything).Return(nil, errors.New("no tessdata"))

	err := f.service().IngestPage(ctx, &domain.Project{ProjectID: "book"}, service.PageInput{PageRef: "001.png", Data: pngBytes(t, 200, 50)})
	assert.ErrorIs(t, err, domain.ErrIngestionFailed)
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)

	var pageErr *domain.PageError
	require.ErrorAs(t, err, &pageErr)
	assert.Equal(t, "001.png", pageErr.PageRef)
	f.segments.AssertNotCalled(t, "ReplacePage", mock.Anything, mock.Anything)
}

func TestIngestService_IngestPage_UndecodableImage(t *testing.T) {
	f := newIngestFixture("good")
	err := f.service().IngestPage(context.Background(), &domain.Project{ProjectID: "book"}, service.PageInput{PageRef: "bad.png", Data: []byte("nope")})
	assert.ErrorIs(t, err, domain.ErrIngestionFailed)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestIngestService_IngestPage_PageRowFailureRemovesImage(t *testing.T) {
	f := newIngestFixture("good")
	ctx := context.Background()

	f.storage.On("Upload", ctx, mock.Anything).Return(&port.UploadOutput{}, nil)
	f.pages.On("Upsert", ctx, mock.Anything).Return(errors.New("db down"))
	f.storage.On("Delete", ctx, "pages", "projects/book/pages/001.png").Return(nil)

	err := f.service().IngestPage(ctx, &domain.Project{ProjectID: "book"}, service.PageInput{PageRef: "001.png", Data: pngBytes(t, 200, 50)})
	assert.ErrorIs(t, err, domain.ErrIngestionFailed)
	f.storage.AssertExpectations(t)
	f.engines[0].AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
}

func TestIngestService_IngestPage_CancelledKeepsPreviousState(t *testing.T) {
	f := newIngestFixture("good")
	ctx, cancel := context.WithCancel(context.Background())

	f.storage.On("Upload", ctx, mock.Anything).Return(&port.UploadOutput{}, nil)
	f.pages.On("Upsert", ctx, mock.Anything).Return(nil)
	f.engines[0].On("Recognize", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(words("", "late"), nil)

	err := f.service().IngestPage(ctx, &domain.Project{ProjectID: "book"}, service.PageInput{PageRef: "001.png", Data: pngBytes(t, 200, 50)})
	assert.ErrorIs(t, err, context.Canceled)
	f.segments.AssertNotCalled(t, "ReplacePage", mock.Anything, mock.Anything)
}

func TestIngestService_Reingest_IsIdempotent(t *testing.T) {
	f := newIngestFixture("good", "typo")
	f.cfg.Consensus.PrimaryEngine = "good"
	ctx := context.Background()

	page := &domain.Page{ProjectID: "book", PageRef: "001.png", PageIndex: 3}
	a := words("good", "Hello", "world")
	b := words("typo", "Helo", "world")
	for i := range a {
		a[i].RunID = "run-a"
		b[i].RunID = "run-b"
	}
	runs := []domain.EngineRun{
		{ProjectID: "book", PageRef: "001.png", RunID: "run-a", EngineID: "good", RunOrder: 0, Status: domain.EngineRunOK, Boxes: a},
		{ProjectID: "book", PageRef: "001.png", RunID: "run-b", EngineID: "typo", RunOrder: 1, Status: domain.EngineRunOK, Boxes: b},
	}
	f.pages.On("GetByRef", ctx, "book", "001.png").Return(page, nil)
	f.runs.On("ListByPage", ctx, "book", "001.png").Return(runs, nil)
	captured := f.captureReplace()

	svc := f.service()
	require.NoError(t, svc.Reingest(ctx, "book", "001.png"))
	require.NoError(t, svc.Reingest(ctx, "book", "001.png"))

	require.Len(t, *captured, 2)
	assert.Equal(t, (*captured)[0].Segments, (*captured)[1].Segments)
	assert.NotNil(t, segmentByID((*captured)[0], "p0003_l0000_w0001"))
	f.engines[0].AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
}

func TestIngestService_IngestProject_IsolatesPages(t *testing.T) {
	f := newIngestFixture("good")
	ctx := context.Background()

	dir := filepath.Join(t.TempDir(), "My Book")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001.png"), pngBytes(t, 200, 50), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "002.png"), []byte("corrupt"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	f.projects.On("Upsert", ctx, mock.AnythingOfType("*domain.Project")).Return(nil)
	f.storage.On("Upload", ctx, mock.Anything).Return(&port.UploadOutput{}, nil)
	f.pages.On("Upsert", ctx, mock.Anything).Return(nil)
	f.engines[0].On("Recognize", mock.Anything, mock.Anything).Return(words("", "text"), nil)
	captured := f.captureReplace()

	report, err := f.service().IngestProject(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pages)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "002.png", report.Failed[0].PageRef)
	require.Len(t, *captured, 1)

	sum := sha1.Sum([]byte(dir))
	assert.Equal(t, "my-book-"+hex.EncodeToString(sum[:])[:8], report.Project.ProjectID)
	assert.Equal(t, "My Book", report.Project.Label)
	assert.Equal(t, domain.StringList{"good"}, report.Project.Engines)
}

func TestIngestService_IngestProject_NoImages(t *testing.T) {
	f := newIngestFixture("good")
	_, err := f.service().IngestProject(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, domain.ErrUnsupportedPage)
}

func TestProjectID(t *testing.T) {
	sum := sha1.Sum([]byte("/scans/Gita 1923.v2"))
	digest := hex.EncodeToString(sum[:])[:8]
	assert.Equal(t, "gita-1923-"+digest, service.ProjectID("/scans/Gita 1923.v2"))

	sum = sha1.Sum([]byte("/scans/+++"))
	assert.Equal(t, hex.EncodeToString(sum[:])[:8], service.ProjectID("/scans/+++"))
}
