package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

const (
	statusSuccess = "success"
	statusError   = "error"
)

func outcomeLabel(err error) string {
	if err != nil {
		return statusError
	}
	return statusSuccess
}

// ExpvarMetricsRecorder publishes process-local counters through expvar:
// per-operation wall time and outcome counts, and solver attempts by status.
type ExpvarMetricsRecorder struct {
	name string

	mu       sync.Mutex
	opMS     map[string]float64
	outcomes map[string]map[string]int64
	attempts map[string]int64
	improved int64
	solveMS  float64
}

// ExpvarMetricsSnapshot is the JSON document published under the recorder name.
type ExpvarMetricsSnapshot struct {
	DurationsMS       map[string]float64          `json:"durations_ms_total"`
	Results           map[string]map[string]int64 `json:"results_total"`
	Solves            map[string]int64            `json:"solves_total"`
	SolveImprovements int64                       `json:"solve_improvements_total"`
	SolveMS           float64                     `json:"solve_ms_total"`
	RecordedAt        time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder publishes a recorder under name. An empty or
// already published name gets a numbered rotacore_service_metrics_N name.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" || expvar.Get(name) != nil {
		name = fmt.Sprintf("rotacore_service_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	r := &ExpvarMetricsRecorder{
		name:     name,
		opMS:     make(map[string]float64),
		outcomes: make(map[string]map[string]int64),
		attempts: make(map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any { return r.Snapshot() }))
	return r
}

// Name is the expvar key the recorder is published under.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Snapshot copies the current counters.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	results := make(map[string]map[string]int64, len(r.outcomes))
	for op, counts := range r.outcomes {
		results[op] = maps.Clone(counts)
	}
	return ExpvarMetricsSnapshot{
		DurationsMS:       maps.Clone(r.opMS),
		Results:           results,
		Solves:            maps.Clone(r.attempts),
		SolveImprovements: r.improved,
		SolveMS:           r.solveMS,
		RecordedAt:        time.Now().UTC(),
	}
}

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// Observe implements MetricsRecorder. Unnamed operations are dropped.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	label := statusError
	if success {
		label = statusSuccess
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opMS[operation] += millis(duration)
	counts := r.outcomes[operation]
	if counts == nil {
		counts = make(map[string]int64, 2)
		r.outcomes[operation] = counts
	}
	counts[label]++
}

// ObserveSolve implements SolveObserver.
func (r *ExpvarMetricsRecorder) ObserveSolve(_ context.Context, status string, improvements int64, wall time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[status]++
	r.improved += improvements
	r.solveMS += millis(wall)
}

// JSONTraceEntry is one finished span as written by JSONTraceTracer.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer writes each finished span as a JSON line and keeps a copy.
// A nil writer only keeps the copies.
type JSONTraceTracer struct {
	mu      sync.Mutex
	w       io.Writer
	entries []JSONTraceEntry
	now     func() time.Time
}

// NewJSONTracer returns a tracer writing to w.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	return &JSONTraceTracer{w: w, now: func() time.Time { return time.Now().UTC() }}
}

// Entries returns the finished spans in completion order.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]JSONTraceEntry(nil), t.entries...)
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, entry: JSONTraceEntry{Operation: operation, StartedAt: t.now()}}
}

func (t *JSONTraceTracer) finish(entry JSONTraceEntry) {
	line, err := json.Marshal(entry)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	if t.w != nil && err == nil {
		_, _ = t.w.Write(append(line, '\n'))
	}
}

type jsonTraceSpan struct {
	tracer *JSONTraceTracer
	entry  JSONTraceEntry
}

func (s *jsonTraceSpan) End(err error) {
	e := s.entry
	e.EndedAt = s.tracer.now()
	e.DurationMS = millis(e.EndedAt.Sub(e.StartedAt))
	e.Status = outcomeLabel(err)
	if err != nil {
		e.Error = err.Error()
	}
	s.tracer.finish(e)
}
