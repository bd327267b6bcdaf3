// Package stats keeps process-lifetime scan counters and mirrors them to
// OpenTelemetry instruments.
package stats

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Sample describes one finished scan.
type Sample struct {
	Duration  time.Duration
	Issues    int
	Blocked   bool
	Fallback  bool
	Failures  int
	Malformed bool
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	TotalScans          int64   `json:"total_scans"`
	IssuesFound         int64   `json:"issues_found"`
	BlockedRequests     int64   `json:"blocked_requests"`
	AvgScanTime         float64 `json:"avg_scan_time"`
	AvgScanTimeMs       float64 `json:"avg_scan_time_ms"`
	RecognizerFallbacks int64   `json:"recognizer_fallbacks"`
	DetectorFailures    int64   `json:"detector_failures"`
	MalformedInputs     int64   `json:"malformed_inputs"`
	RecognizerState     string  `json:"recognizer_state"`
	DetectorCount       int     `json:"detector_count"`
}

type instruments struct {
	scans     metric.Int64Counter
	issues    metric.Int64Counter
	blocked   metric.Int64Counter
	fallbacks metric.Int64Counter
	failures  metric.Int64Counter
	malformed metric.Int64Counter
	latency   metric.Float64Histogram
}

// Aggregator accumulates Samples. Safe for concurrent use.
type Aggregator struct {
	mu    sync.Mutex
	snap  Snapshot
	timed int64
	inst  instruments
}

// New builds an aggregator. A nil meter disables instrument export.
func New(meter metric.Meter) (*Aggregator, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("promptscan")
	}
	inst, err := newInstruments(meter)
	if err != nil {
		return nil, err
	}
	return &Aggregator{inst: inst}, nil
}

func newInstruments(meter metric.Meter) (instruments, error) {
	var (
		in  instruments
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&in.scans, "promptscan.scans", "Number of completed scans"},
		{&in.issues, "promptscan.issues", "Number of issues reported after deduplication"},
		{&in.blocked, "promptscan.blocked", "Number of scans whose verdict was block"},
		{&in.fallbacks, "promptscan.recognizer.fallbacks", "Number of scans that ran without the recognizer"},
		{&in.failures, "promptscan.detector.failures", "Number of detector runs that panicked"},
		{&in.malformed, "promptscan.malformed_inputs", "Number of inputs rejected as invalid UTF-8"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return instruments{}, fmt.Errorf("create %s counter: %w", c.name, err)
		}
	}
	in.latency, err = meter.Float64Histogram(
		"promptscan.scan.duration",
		metric.WithDescription("Wall time of a scan"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return instruments{}, fmt.Errorf("create promptscan.scan.duration histogram: %w", err)
	}
	return in, nil
}

// Record folds one scan into the counters. Negative durations are counted as
// scans but left out of the running average.
func (a *Aggregator) Record(ctx context.Context, s Sample) {
	secs := s.Duration.Seconds()
	timed := s.Duration >= 0 && !math.IsNaN(secs) && !math.IsInf(secs, 0)

	a.mu.Lock()
	a.snap.TotalScans++
	a.snap.IssuesFound += int64(max(s.Issues, 0))
	if s.Blocked {
		a.snap.BlockedRequests++
	}
	if s.Fallback {
		a.snap.RecognizerFallbacks++
	}
	a.snap.DetectorFailures += int64(max(s.Failures, 0))
	if s.Malformed {
		a.snap.MalformedInputs++
	}
	if timed {
		a.timed++
		n := float64(a.timed)
		a.snap.AvgScanTime = (a.snap.AvgScanTime*(n-1) + secs) / n
		a.snap.AvgScanTimeMs = a.snap.AvgScanTime * 1000
	}
	a.mu.Unlock()

	a.inst.scans.Add(ctx, 1)
	if s.Issues > 0 {
		a.inst.issues.Add(ctx, int64(s.Issues))
	}
	if s.Blocked {
		a.inst.blocked.Add(ctx, 1)
	}
	if s.Fallback {
		a.inst.fallbacks.Add(ctx, 1)
	}
	if s.Failures > 0 {
		a.inst.failures.Add(ctx, int64(s.Failures))
	}
	if s.Malformed {
		a.inst.malformed.Add(ctx, 1)
	}
	if timed {
		a.inst.latency.Record(ctx, secs)
	}
}

// Snapshot returns a copy of the counters. RecognizerState and DetectorCount
// are left for the owner to fill in.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap
}
