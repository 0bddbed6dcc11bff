package solver

import (
	"context"
	"fmt"
	"time"

	pbsat "github.com/crillab/gophersat/solver"
)

// Status is the terminal state of a single Solve call.
type Status int

// Solve outcomes. Infeasible is a proof; Timeout only means the budget ran out
// before any solution was found.
const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name produced by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusUnknown, StatusOptimal, StatusFeasible, StatusInfeasible, StatusTimeout} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("solver: unknown status %q", text)
}

// HasSolution reports whether a response with this status carries values.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Params tunes a single solve. Zero limits mean unbounded. ImprovementLimit
// stops the search after that many successively better solutions.
type Params struct {
	Seed             int64
	TimeLimit        time.Duration
	ImprovementLimit int64
}

// Response captures the outcome of one solve.
type Response struct {
	Status       Status
	Objective    int64
	Seed         int64
	Improvements int64
	WallTime     time.Duration
	values       []int64
}

// HasSolution reports whether Value may be called.
func (r *Response) HasSolution() bool {
	return r != nil && r.values != nil
}

// Value returns the solved value of v. It panics when the response has no solution.
func (r *Response) Value(v Var) int64 {
	if r.values == nil {
		panic("solver: no solution available for status " + r.Status.String())
	}
	return r.values[v]
}

// BoolValue returns Value(v) != 0.
func (r *Response) BoolValue(v Var) bool {
	return r.Value(v) != 0
}

// Solve encodes m as a pseudo-boolean optimisation problem and minimises it.
// The context and the limits in p are the only ways to interrupt the search;
// an interrupted search keeps its best solution as StatusFeasible.
func Solve(ctx context.Context, m *Model, p Params) *Response {
	started := time.Now()
	resp := &Response{Seed: p.Seed}
	defer func() { resp.WallTime = time.Since(started) }()

	if ctx.Err() != nil {
		resp.Status = StatusTimeout
		return resp
	}
	enc := encode(m, p.Seed)
	switch {
	case enc.infeasible:
		resp.Status = StatusInfeasible
		return resp
	case len(enc.rows) == 0:
		resp.Status = StatusOptimal
		resp.setValues(m, enc.values(nil))
		return resp
	}

	s := pbsat.New(enc.problem())
	results := make(chan pbsat.Result)
	done := make(chan pbsat.Result, 1)
	stop := make(chan struct{})
	go func() { done <- s.Optimal(results, stop) }()

	var expired <-chan time.Time
	if p.TimeLimit > 0 {
		timer := time.NewTimer(p.TimeLimit)
		defer timer.Stop()
		expired = timer.C
	}
	cancelled := ctx.Done()
	stopped := false
	halt := func() {
		if !stopped {
			stopped = true
			close(stop)
		}
	}

	var best []bool
	for {
		select {
		case r, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			if r.Status != pbsat.Sat {
				continue
			}
			best = append(best[:0:0], r.Model...)
			resp.Improvements++
			if p.ImprovementLimit > 0 && resp.Improvements >= p.ImprovementLimit {
				halt()
			}
		case <-expired:
			expired = nil
			halt()
		case <-cancelled:
			cancelled = nil
			halt()
		case final := <-done:
			resp.classify(m, enc, final, best, stopped)
			halt()
			return resp
		}
	}
}

// classify turns the solver's final result into a status. Unsat with no
// solution is a proof of infeasibility; Unsat after a solution means the last
// bound could not be improved.
func (r *Response) classify(m *Model, enc *encoding, final pbsat.Result, best []bool, stopped bool) {
	model := best
	if final.Status == pbsat.Sat {
		model = final.Model
	}
	switch {
	case model == nil && final.Status == pbsat.Unsat:
		r.Status = StatusInfeasible
		return
	case model == nil:
		r.Status = StatusTimeout
		return
	case stopped:
		r.Status = StatusFeasible
	case final.Status == pbsat.Indet:
		r.Status = StatusFeasible
	default:
		r.Status = StatusOptimal
	}
	r.setValues(m, enc.values(model))
}

func (r *Response) setValues(m *Model, values []int64) {
	r.values = values
	r.Objective = Evaluate(LinearExpr{Terms: m.objective, Offset: m.objOffset}, func(v Var) int64 { return values[v] })
}
