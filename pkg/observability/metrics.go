package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesScanned  = "todoscope.files.scanned"
	metricFilesSkipped  = "todoscope.files.skipped"
	metricTodosFound    = "todoscope.todos.found"
	metricBlameFailures = "todoscope.blame.failures"
	metricScanDuration  = "todoscope.scan.duration.seconds"
	metricScansTotal    = "todoscope.scans.total"
	attrScanMode        = "scan_mode"
	attrAttribution     = "attribution"
	attrStatus          = "status"
	statusOK            = "ok"
	statusError         = "error"
)

// durationBucketBoundaries covers 10ms to 10min scans.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// ScanMetrics holds the instruments recorded by a scan. A nil *ScanMetrics records nothing.
type ScanMetrics struct {
	filesScanned  metric.Int64Counter
	filesSkipped  metric.Int64Counter
	todosFound    metric.Int64Counter
	blameFailures metric.Int64Counter
	scansTotal    metric.Int64Counter
	scanDuration  metric.Float64Histogram
}

// NewScanMetrics creates the scan instruments from mt.
func NewScanMetrics(mt metric.Meter) (*ScanMetrics, error) {
	var (
		sm  ScanMetrics
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&sm.filesScanned, metricFilesScanned, "Files parsed for annotations", "{file}"},
		{&sm.filesSkipped, metricFilesSkipped, "Candidate files skipped after a read failure", "{file}"},
		{&sm.todosFound, metricTodosFound, "Annotations emitted", "{todo}"},
		{&sm.blameFailures, metricBlameFailures, "Files whose attribution failed", "{file}"},
		{&sm.scansTotal, metricScansTotal, "Completed scans", "{scan}"},
	}

	for _, c := range counters {
		*c.dst, err = mt.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
	}

	sm.scanDuration, err = mt.Float64Histogram(metricScanDuration,
		metric.WithDescription("Scan duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricScanDuration, err)
	}

	return &sm, nil
}

// RecordFile records one parsed file and how it was attributed.
func (sm *ScanMetrics) RecordFile(ctx context.Context, attribution string, todos int) {
	if sm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrAttribution, attribution))

	sm.filesScanned.Add(ctx, 1, attrs)
	sm.todosFound.Add(ctx, int64(todos), attrs)
}

// RecordSkip records a candidate that could not be read.
func (sm *ScanMetrics) RecordSkip(ctx context.Context) {
	if sm == nil {
		return
	}

	sm.filesSkipped.Add(ctx, 1)
}

// RecordBlameFailure records a file whose attribution failed.
func (sm *ScanMetrics) RecordBlameFailure(ctx context.Context) {
	if sm == nil {
		return
	}

	sm.blameFailures.Add(ctx, 1)
}

// RecordScan records a finished scan.
func (sm *ScanMetrics) RecordScan(ctx context.Context, mode string, duration time.Duration, err error) {
	if sm == nil {
		return
	}

	status := statusOK
	if err != nil {
		status = statusError
	}

	attrs := metric.WithAttributes(
		attribute.String(attrScanMode, mode),
		attribute.String(attrStatus, status),
	)

	sm.scansTotal.Add(ctx, 1, attrs)
	sm.scanDuration.Record(ctx, duration.Seconds(), attrs)
}
