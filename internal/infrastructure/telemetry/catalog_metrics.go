package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Metric names
const (
	MetricFallbackScans   = "catalog.index.fallback_scans"
	MetricStockChanges    = "catalog.stock.changes"
	MetricImportRows      = "catalog.import.rows"
	MetricImportDuration  = "catalog.import.duration"
	MetricImportFallbacks = "catalog.import.sync_fallbacks"
)

// CatalogMetrics holds the instruments recorded by the catalog store and the import pipeline.
// A nil *CatalogMetrics is valid and records nothing.
type CatalogMetrics struct {
	fallbackScans   metric.Int64Counter
	stockChanges    metric.Int64Counter
	importRows      metric.Int64Counter
	importFallbacks metric.Int64Counter
	importDuration  metric.Float64Histogram
}

// NewCatalogMetrics creates the catalog instruments on the given meter.
func NewCatalogMetrics(meter metric.Meter) (*CatalogMetrics, error) {
	in := NewInstruments(meter)
	m := &CatalogMetrics{
		fallbackScans: in.Counter(MetricFallbackScans,
			"Lookups served by a full table scan because an expected index was missing", "{scan}"),
		stockChanges: in.Counter(MetricStockChanges, "Committed stock adjustments", "{change}"),
		importRows:   in.Counter(MetricImportRows, "Import rows processed, by outcome", "{row}"),
		importFallbacks: in.Counter(MetricImportFallbacks,
			"Import jobs that ran on the caller because no background worker was available", "{job}"),
		importDuration: in.Seconds(MetricImportDuration, "Time spent normalizing import rows", ImportDurationBuckets),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordFallbackScan counts one scan-backed lookup.
func (m *CatalogMetrics) RecordFallbackScan(ctx context.Context, store, index string) {
	if m == nil {
		return
	}
	m.fallbackScans.Add(ctx, 1, metric.WithAttributes(AttrStore.String(store), AttrIndex.String(index)))
}

// RecordStockChange counts one committed stock adjustment.
func (m *CatalogMetrics) RecordStockChange(ctx context.Context) {
	if m == nil {
		return
	}
	m.stockChanges.Add(ctx, 1)
}

// RecordImport records the outcome of one processing run.
func (m *CatalogMetrics) RecordImport(ctx context.Context, fileType, state string, success, skipped int, elapsed time.Duration) {
	if m == nil {
		return
	}
	ft := AttrFileType.String(fileType)
	m.importRows.Add(ctx, int64(success), metric.WithAttributes(ft, AttrImportState.String("success")))
	m.importRows.Add(ctx, int64(skipped), metric.WithAttributes(ft, AttrImportState.String("skipped")))
	m.importDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(ft, AttrImportState.String(state)))
}

// RecordSyncFallback counts one import job that ran synchronously.
func (m *CatalogMetrics) RecordSyncFallback(ctx context.Context) {
	if m == nil {
		return
	}
	m.importFallbacks.Add(ctx, 1)
}
