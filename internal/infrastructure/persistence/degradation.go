package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/kasapos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultDegradationLimit bounds the in-memory degradation log
const DefaultDegradationLimit = 100

// Degradation records one lookup that ran as a full table scan
type Degradation struct {
	Store  string    `json:"store"`
	Index  string    `json:"index"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// DegradationRecorder keeps a bounded log of fallback scans.
// The first scan per index is logged as a warning, later ones at debug level.
type DegradationRecorder struct {
	mu      sync.Mutex
	entries []Degradation
	counts  map[string]int64
	limit   int
	logger  *zap.Logger
	metrics *telemetry.CatalogMetrics
}

// NewDegradationRecorder creates a recorder; a nil metrics value disables the counter
func NewDegradationRecorder(logger *zap.Logger, metrics *telemetry.CatalogMetrics, limit int) *DegradationRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = DefaultDegradationLimit
	}
	return &DegradationRecorder{
		counts:  make(map[string]int64),
		limit:   limit,
		logger:  logger,
		metrics: metrics,
	}
}

// Record appends a degradation entry
func (r *DegradationRecorder) Record(ctx context.Context, store, index, reason string) {
	if r == nil {
		return
	}
	d := Degradation{Store: store, Index: index, Reason: reason, At: time.Now()}

	r.mu.Lock()
	if len(r.entries) >= r.limit {
		copy(r.entries, r.entries[1:])
		r.entries = r.entries[:len(r.entries)-1]
	}
	r.entries = append(r.entries, d)
	r.counts[index]++
	first := r.counts[index] == 1
	r.mu.Unlock()

	fields := []zap.Field{
		zap.String("store", store),
		zap.String("index", index),
		zap.String("reason", reason),
	}
	if first {
		r.logger.Warn("Index unavailable, falling back to table scan", fields...)
	} else {
		r.logger.Debug("Fallback table scan", fields...)
	}
	r.metrics.RecordFallbackScan(ctx, store, index)
}

// Entries returns the retained degradations, oldest first
func (r *DegradationRecorder) Entries() []Degradation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Degradation, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many scans were recorded for an index since open
func (r *DegradationRecorder) Count(index string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[index]
}
