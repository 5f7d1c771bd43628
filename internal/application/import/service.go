package importapp

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasapos/backend/internal/domain/shared"
	"github.com/kasapos/backend/internal/infrastructure/config"
	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
	"github.com/kasapos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// cleanupInterval is how often expired sessions are swept
const cleanupInterval = time.Minute

// Service owns the worker pool and the open import sessions
type Service struct {
	pool        *WorkerPool
	reconciler  *Reconciler
	maxFileSize int64
	metrics     *telemetry.CatalogMetrics
	history     HistoryLog
	logger      *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Coordinator
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithServiceLogger sets the logger
func WithServiceLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithServiceMetrics records import outcomes and synchronous fallbacks
func WithServiceMetrics(m *telemetry.CatalogMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates the import service and starts its session sweeper
func NewService(store Catalog, cfg config.ImportConfig, opts ...ServiceOption) *Service {
	s := &Service{
		maxFileSize: cfg.MaxFileSize,
		logger:      zap.NewNop(),
		sessions:    make(map[uuid.UUID]*Coordinator),
		ttl:         cfg.SessionTTL,
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pool = NewWorkerPool(cfg.BackgroundWorkers, Limits{
		PreviewRows: cfg.PreviewRows,
		MaxRows:     cfg.MaxRows,
		MaxErrors:   cfg.MaxErrors,
	}, s.logger)
	s.reconciler = NewReconciler(store, s.logger, cfg.MaxErrors)
	if s.ttl > 0 {
		go s.cleanupLoop()
	}
	return s
}

// Open starts a session for an uploaded file and reads its headers
func (s *Service) Open(ctx context.Context, fileName string, data []byte) (*Coordinator, *HeaderPreview, error) {
	fileType, err := csvimport.DetectFileType(fileName)
	if err != nil {
		return nil, nil, err
	}
	return s.OpenTyped(ctx, fileName, fileType, data)
}

// OpenTyped is Open with an explicit file type
func (s *Service) OpenTyped(ctx context.Context, fileName string, fileType csvimport.FileType, data []byte) (*Coordinator, *HeaderPreview, error) {
	c := newCoordinator(s, fileName, fileType, int64(len(data)))
	preview, err := c.ReadHeaders(ctx, fileType, data)
	if err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	s.sessions[c.ID()] = c
	s.mu.Unlock()
	return c, preview, nil
}

// Get returns an open session
func (s *Service) Get(id uuid.UUID) (*Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sessions[id]
	if !ok || s.expired(c) {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

// Discard cancels and forgets a session
func (s *Service) Discard(id uuid.UUID) {
	s.mu.Lock()
	c, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		c.Cancel()
	}
}

// Len returns the number of open sessions
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) expired(c *Coordinator) bool {
	return s.ttl > 0 && time.Since(c.session.CreatedAt()) > s.ttl
}

// Cleanup cancels and removes expired sessions
func (s *Service) Cleanup() {
	s.mu.Lock()
	var expired []*Coordinator
	for id, c := range s.sessions {
		if s.expired(c) {
			expired = append(expired, c)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
	for _, c := range expired {
		c.Cancel()
	}
	if len(expired) > 0 {
		s.logger.Debug("expired import sessions removed", zap.Int("count", len(expired)))
	}
}

func (s *Service) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// Close stops the sweeper and cancels every open session
func (s *Service) Close() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[uuid.UUID]*Coordinator)
	s.mu.Unlock()
	for _, c := range sessions {
		c.Cancel()
	}
}

// dispatch runs req on a background worker, or on the caller when no worker is
// free or the worker crashed. Progress messages go to progress; the final message is returned.
func (s *Service) dispatch(ctx context.Context, req Request, attach func(*Job), progress func(Progress)) Response {
	if progress == nil {
		progress = func(Progress) {}
	}

	job, err := s.pool.Start(ctx, req)
	if err == nil {
		attach(job)
		final := drain(job, progress)
		attach(nil)
		if !final.crashed && final.Kind != "" {
			return final
		}
		s.logger.Warn("import worker failed, running synchronously",
			zap.String("request", string(req.Kind)), zap.String("error", final.Message))
	} else {
		s.logger.Debug("no import worker free, running synchronously", zap.String("request", string(req.Kind)))
	}
	s.metrics.RecordSyncFallback(ctx)

	var final Response
	handleRequest(ctx, req, s.pool.Limits(), func(r Response) {
		if r.Kind == ResponseProgress {
			progress(*r.Progress)
			return
		}
		final = r
	})
	return final
}

// drain forwards progress until the job closes its channel and returns the final message
func drain(job *Job, progress func(Progress)) Response {
	var final Response
	for r := range job.Responses() {
		if r.Kind == ResponseProgress {
			progress(*r.Progress)
			continue
		}
		final = r
	}
	return final
}
