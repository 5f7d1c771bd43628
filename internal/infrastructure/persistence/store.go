package persistence

import (
	"context"
	"fmt"
	"sync"

	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/domain/shared"
	"github.com/kasapos/backend/internal/infrastructure/config"
	"github.com/kasapos/backend/internal/infrastructure/event"
	"github.com/kasapos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CatalogStore is the transactional product catalog.
// Every operation runs in its own transaction; mutations are serialized
// through a single writer lock while reads run concurrently.
type CatalogStore struct {
	db           *Database
	scope        *GormTransactionScope
	reads        catalog.Repositories
	caps         IndexCapabilities
	degradations *DegradationRecorder
	history      *GormImportHistoryRepository
	bus          *event.InMemoryEventBus
	metrics      *telemetry.CatalogMetrics
	logger       *zap.Logger

	writeMu sync.Mutex
}

// StoreOption configures OpenCatalogStore
type StoreOption func(*storeOptions)

type storeOptions struct {
	logger           *zap.Logger
	metrics          *telemetry.CatalogMetrics
	tracing          telemetry.DBTracingConfig
	skipIndexes      []string
	degradationLimit int
}

// WithLogger sets the store logger
func WithLogger(l *zap.Logger) StoreOption {
	return func(o *storeOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records fallback scans and stock changes on the given instruments
func WithMetrics(m *telemetry.CatalogMetrics) StoreOption {
	return func(o *storeOptions) {
		o.metrics = m
	}
}

// WithTracing enables otelgorm query spans
func WithTracing(cfg telemetry.DBTracingConfig) StoreOption {
	return func(o *storeOptions) {
		o.tracing = cfg
	}
}

// WithSkippedIndexes opens the store with the named indexes absent (legacy schema profile)
func WithSkippedIndexes(names ...string) StoreOption {
	return func(o *storeOptions) {
		o.skipIndexes = append(o.skipIndexes, names...)
	}
}

// WithDegradationLimit bounds the retained degradation log
func WithDegradationLimit(n int) StoreOption {
	return func(o *storeOptions) {
		o.degradationLimit = n
	}
}

// OpenCatalogStore opens the database, detects index capabilities and seeds
// the sentinel category and default group.
func OpenCatalogStore(ctx context.Context, cfg *config.DatabaseConfig, opts ...StoreOption) (*CatalogStore, error) {
	o := &storeOptions{
		logger:  zap.NewNop(),
		tracing: telemetry.DefaultDBTracingConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	log := o.logger.Named("catalog")

	db, err := NewDatabase(cfg,
		WithDatabaseLogger(o.logger),
		WithDatabaseTracing(o.tracing),
		WithDroppedIndexes(o.skipIndexes...),
	)
	if err != nil {
		return nil, err
	}

	caps := DetectCapabilities(db.DB)
	if caps.Degraded() {
		log.Warn("Catalog opened without some indexes, lookups will scan",
			zap.Strings("missing_indexes", caps.Missing()))
	}

	if err := seedCatalog(ctx, db.DB, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}

	recorder := NewDegradationRecorder(log, o.metrics, o.degradationLimit)
	return &CatalogStore{
		db:           db,
		scope:        NewGormTransactionScope(db.DB, caps, recorder),
		reads:        NewRepositories(db.DB, caps, recorder),
		caps:         caps,
		degradations: recorder,
		history:      NewGormImportHistoryRepository(db.DB),
		bus:          event.NewInMemoryEventBus(log),
		metrics:      o.metrics,
		logger:       log,
	}, nil
}

// Close closes the underlying database
func (s *CatalogStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *CatalogStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Capabilities returns the index descriptor detected at open time
func (s *CatalogStore) Capabilities() IndexCapabilities {
	return s.caps
}

// Degradations returns the retained fallback-scan log, oldest first
func (s *CatalogStore) Degradations() []Degradation {
	return s.degradations.Entries()
}

// EventBus exposes the store-owned bus for wildcard consumers such as stream handlers
func (s *CatalogStore) EventBus() shared.EventBus {
	return s.bus
}

// write serializes a mutating unit of work and wraps it in a span
func (s *CatalogStore) write(ctx context.Context, op string, fn func(repos catalog.Repositories) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "catalog."+op)
	defer span.End()

	if err := s.scope.Execute(ctx, fn); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

// StockChangeFunc receives committed stock changes
type StockChangeFunc func(ctx context.Context, evt *catalog.StockChangedEvent)

// Subscription identifies a stock change listener for OffStockChange
type Subscription struct {
	handler *shared.EventHandlerFunc
}

// OnStockChange registers fn for stock changes; fn runs on the mutating goroutine after commit
func (s *CatalogStore) OnStockChange(fn StockChangeFunc) *Subscription {
	h := s.bus.SubscribeFunc(func(ctx context.Context, e shared.DomainEvent) error {
		if evt, ok := e.(*catalog.StockChangedEvent); ok {
			fn(ctx, evt)
		}
		return nil
	}, catalog.EventTypeStockChanged)
	return &Subscription{handler: h}
}

// OffStockChange removes a listener; removing it twice has no effect
func (s *CatalogStore) OffStockChange(sub *Subscription) {
	if sub == nil || sub.handler == nil {
		return
	}
	s.bus.Unsubscribe(sub.handler)
}
