package api

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RequestTrace tracks timing for a single request
type RequestTrace struct {
	RequestID     string         `json:"requestId"`
	Method        string         `json:"method"`
	Path          string         `json:"path"`
	Status        int            `json:"status"`
	StartTime     time.Time      `json:"startTime"`
	EndTime       time.Time      `json:"endTime"`
	TotalDuration time.Duration  `json:"totalDuration"`
	DBQueries     []DBQueryTrace `json:"dbQueries"`
	DBTotalTime   time.Duration  `json:"dbTotalTime"`
	Error         string         `json:"error,omitempty"`
}

// DBQueryTrace tracks a single database query
type DBQueryTrace struct {
	Operation  string        `json:"operation"`
	Collection string        `json:"collection"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// RouteMetrics aggregates metrics for a specific route
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsCollector collects and aggregates request metrics
type MetricsCollector struct {
	mu           sync.RWMutex
	traces       []RequestTrace
	maxTraces    int
	routeMetrics map[string]*RouteMetrics
}

// NewMetricsCollector creates a collector retaining the most recent maxTraces requests
func NewMetricsCollector(maxTraces int) *MetricsCollector {
	return &MetricsCollector{
		maxTraces:    maxTraces,
		routeMetrics: make(map[string]*RouteMetrics),
	}
}

// Collector is the process-wide metrics collector
var Collector = NewMetricsCollector(1000)

// RecordTrace folds a finished request trace into the aggregates
func (mc *MetricsCollector) RecordTrace(trace RequestTrace) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.traces = append(mc.traces, trace)
	if len(mc.traces) > mc.maxTraces {
		mc.traces = mc.traces[len(mc.traces)-mc.maxTraces:]
	}

	key := trace.Method + " " + trace.Path
	rm, ok := mc.routeMetrics[key]
	if !ok {
		rm = &RouteMetrics{Method: trace.Method, Path: trace.Path}
		mc.routeMetrics[key] = rm
	}

	rm.Count++
	if trace.Status >= 400 {
		rm.ErrorCount++
	}
	rm.TotalTime += trace.TotalDuration
	rm.AvgTime = time.Duration(int64(rm.TotalTime) / rm.Count)
	if trace.TotalDuration > rm.MaxTime {
		rm.MaxTime = trace.TotalDuration
	}
	rm.LastRequest = trace.EndTime
}

// Routes returns the aggregated per-route metrics, busiest first
func (mc *MetricsCollector) Routes() []RouteMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	out := make([]RouteMetrics, 0, len(mc.routeMetrics))
	for _, rm := range mc.routeMetrics {
		out = append(out, *rm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// SlowQueries returns recorded db queries slower than threshold, slowest first
func (mc *MetricsCollector) SlowQueries(threshold time.Duration) []DBQueryTrace {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	var out []DBQueryTrace
	for _, trace := range mc.traces {
		for _, q := range trace.DBQueries {
			if q.Duration >= threshold {
				out = append(out, q)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Duration > out[j].Duration })
	return out
}

type traceContextKey struct{}

// WithRequestTrace attaches a trace to the context
func WithRequestTrace(ctx context.Context, trace *RequestTrace) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// TraceFromContext returns the request trace, or nil when untraced
func TraceFromContext(ctx context.Context) *RequestTrace {
	trace, _ := ctx.Value(traceContextKey{}).(*RequestTrace)
	return trace
}
