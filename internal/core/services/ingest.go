package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/sheetrag/internal/core/async"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// cleanupTimeout bounds the delete issued after a failed store stage.
const cleanupTimeout = 30 * time.Second

// IngestService coordinates the load, split and store stages for an upload.
type IngestService struct {
	loaders  driven.LoaderRegistry
	splitter driven.Splitter
	docs     driving.DocumentStore
	events   driven.EventPublisher
	now      func() time.Time

	// Status tracking
	mu     sync.Mutex
	active map[string]time.Time
}

// NewIngestService creates an ingest service. events may be nil.
func NewIngestService(
	loaders driven.LoaderRegistry,
	splitter driven.Splitter,
	docs driving.DocumentStore,
	events driven.EventPublisher,
) *IngestService {
	return &IngestService{
		loaders:  loaders,
		splitter: splitter,
		docs:     docs,
		events:   events,
		now:      time.Now,
		active:   make(map[string]time.Time),
	}
}

// Ingest loads the file, splits it and stores the chunks under req.UploadID.
// An upload id that already has chunks is refused unless req.Replace is
// set. Failures are *domain.StageError naming the stage that failed. A
// failed store stage deletes whatever part of the upload was written.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*domain.IngestReport, error) {
	if err := domain.ValidateUploadID(req.UploadID); err != nil {
		return nil, err
	}
	if req.Filename == "" {
		req.Filename = filepath.Base(req.Path)
	}
	if req.Filename == "" || req.Filename == "." {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrInvalidInput)
	}

	if !s.begin(req.UploadID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIngestInProgress, req.UploadID)
	}
	defer s.end(req.UploadID)

	exists, err := s.docs.Exists(ctx, req.UploadID)
	if err != nil {
		return nil, domain.NewStageError(domain.StageStore, req.UploadID, err)
	}
	if exists && !req.Replace {
		return nil, fmt.Errorf("%w: %s", domain.ErrUploadExists, req.UploadID)
	}

	started := s.now()
	log := logger.With("upload_id", req.UploadID, "file", req.Filename)

	// 1. Load
	format, err := domain.ParseFormat(req.Filename)
	if err != nil {
		return nil, s.fail(ctx, req, domain.StageLoad, err)
	}
	docs, err := s.load(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, req, domain.StageLoad, err)
	}
	log.Debugw("loaded", "documents", len(docs))

	// 2. Split
	chunks, err := s.splitter.Process(ctx, docs)
	if err != nil {
		return nil, s.fail(ctx, req, domain.StageSplit, err)
	}
	log.Debugw("split", "chunks", len(chunks))

	// 3. Store
	if exists {
		if err := s.docs.Delete(ctx, req.UploadID); err != nil {
			return nil, s.fail(ctx, req, domain.StageStore, err)
		}
		log.Debugw("replaced previous chunks")
	}
	if err := s.docs.Add(ctx, chunks, req.UploadID); err != nil {
		s.cleanup(ctx, req.UploadID)
		return nil, s.fail(ctx, req, domain.StageStore, err)
	}

	report := &domain.IngestReport{
		UploadID:  req.UploadID,
		Filename:  req.Filename,
		Format:    format,
		Documents: len(docs),
		Chunks:    len(chunks),
		Duration:  s.now().Sub(started),
	}
	log.Infow("upload indexed", "documents", report.Documents, "chunks", report.Chunks, "duration", report.Duration)

	s.publish(ctx, domain.UploadEvent{
		Type:     domain.EventUploadIndexed,
		UploadID: req.UploadID,
		Filename: req.Filename,
		Chunks:   len(chunks),
	})
	return report, nil
}

func (s *IngestService) load(ctx context.Context, req driving.IngestRequest) ([]domain.RawDocument, error) {
	if req.Data == nil && req.Path != "" {
		return s.loaders.LoadFile(ctx, req.Path)
	}
	return s.loaders.Load(ctx, req.Data, req.Filename)
}

// IngestAsync runs Ingest in the background.
func (s *IngestService) IngestAsync(
	ctx context.Context,
	req driving.IngestRequest,
) *async.Task[*domain.IngestReport] {
	return async.Go(ctx, func(ctx context.Context) (*domain.IngestReport, error) {
		return s.Ingest(ctx, req)
	})
}

// DeleteUpload removes every chunk of the upload.
func (s *IngestService) DeleteUpload(ctx context.Context, uploadID string) error {
	if err := domain.ValidateUploadID(uploadID); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, uploadID); err != nil {
		return err
	}
	logger.Info("deleted upload %s", uploadID)
	s.publish(ctx, domain.UploadEvent{Type: domain.EventUploadDeleted, UploadID: uploadID})
	return nil
}

// Status reports whether an ingest for uploadID is running.
func (s *IngestService) Status(uploadID string) driving.IngestStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, running := s.active[uploadID]
	return driving.IngestStatus{UploadID: uploadID, Running: running}
}

func (s *IngestService) begin(uploadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.active[uploadID]; running {
		return false
	}
	s.active[uploadID] = s.now()
	return true
}

func (s *IngestService) end(uploadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, uploadID)
}

// cleanup removes partial state. It runs even when ctx is already cancelled.
func (s *IngestService) cleanup(ctx context.Context, uploadID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := s.docs.Delete(ctx, uploadID); err != nil {
		logger.Error("cleanup of upload %s failed: %v", uploadID, err)
	}
}

func (s *IngestService) fail(ctx context.Context, req driving.IngestRequest, stage domain.Stage, err error) error {
	logger.Warn("ingest %s (%s) failed at %s: %v", req.UploadID, req.Filename, stage, err)
	s.publish(ctx, domain.UploadEvent{
		Type:     domain.EventUploadFailed,
		UploadID: req.UploadID,
		Filename: req.Filename,
		Stage:    stage,
		Error:    err.Error(),
	})
	return domain.NewStageError(stage, req.UploadID, err)
}

// publish sends event. Delivery problems never fail the pipeline.
func (s *IngestService) publish(ctx context.Context, event domain.UploadEvent) {
	if s.events == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("publish %s for %s: %v", event.Type, event.UploadID, err)
	}
}
