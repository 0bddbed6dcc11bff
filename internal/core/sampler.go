package core

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"rotacore/internal/solver"
	"rotacore/pkg/domain"
)

// SampleOptions controls how many independent solves are run and how long each
// may take. Zero limits mean unbounded.
type SampleOptions struct {
	Count            int           `json:"count" yaml:"count"`
	Concurrency      int           `json:"concurrency" yaml:"concurrency"`
	TimeLimit        time.Duration `json:"time_limit" yaml:"time_limit"`
	ImprovementLimit int64         `json:"improvement_limit" yaml:"improvement_limit"`
	AcceptFeasible   bool          `json:"accept_feasible" yaml:"accept_feasible"`
}

// Attempt records the outcome of one seeded solve, accepted or not.
type Attempt struct {
	Seed         int64         `json:"seed"`
	Status       solver.Status `json:"status"`
	Objective    int64         `json:"objective"`
	Improvements int64         `json:"improvements"`
	WallTime     time.Duration `json:"wall_time"`
}

// Sample is one accepted solution with its table and diagnostics.
type Sample struct {
	Seed        int64              `json:"seed"`
	Status      solver.Status      `json:"status"`
	Objective   int64              `json:"objective"`
	Schedule    domain.Schedule    `json:"schedule"`
	Diagnostics domain.Diagnostics `json:"diagnostics"`
}

// Outcome summarises a sampling run.
type Outcome string

// Sampling outcomes.
const (
	OutcomeNone       Outcome = "none"
	OutcomeSolved     Outcome = "solved"
	OutcomeInfeasible Outcome = "infeasible"
	OutcomeTimedOut   Outcome = "timed_out"
	OutcomeRejected   Outcome = "rejected"
)

// SampleReport lists accepted solutions in seed order plus every attempt.
type SampleReport struct {
	Requested int       `json:"requested"`
	Solutions []Sample  `json:"solutions"`
	Attempts  []Attempt `json:"attempts"`
}

// Outcome classifies the report. Rejected means solutions were found but none
// met the acceptance policy.
func (r SampleReport) Outcome() Outcome {
	if len(r.Solutions) > 0 {
		return OutcomeSolved
	}
	if len(r.Attempts) == 0 {
		return OutcomeNone
	}
	var timedOut, found bool
	for _, a := range r.Attempts {
		switch {
		case a.Status == solver.StatusTimeout:
			timedOut = true
		case a.Status.HasSolution():
			found = true
		}
	}
	switch {
	case found:
		return OutcomeRejected
	case timedOut:
		return OutcomeTimedOut
	default:
		return OutcomeInfeasible
	}
}

func (o SampleOptions) accepts(status solver.Status) bool {
	if status == solver.StatusOptimal {
		return true
	}
	return o.AcceptFeasible && status == solver.StatusFeasible
}

// Sample runs opts.Count independent solves seeded 0..Count-1 and keeps the
// solutions the acceptance policy admits. Solves run concurrently against the
// shared model; results are reported in seed order regardless of completion
// order. A cancelled context aborts the run and is returned as the error.
func (p *Problem) Sample(ctx context.Context, opts SampleOptions) (SampleReport, error) {
	report := SampleReport{Requested: opts.Count}
	if p.penalties == nil {
		return report, errNotPenalized
	}
	if opts.Count <= 0 {
		return report, nil
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	responses := make([]*solver.Response, opts.Count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for seed := range opts.Count {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			responses[seed] = solver.Solve(gctx, p.model, solver.Params{
				Seed:             int64(seed),
				TimeLimit:        opts.TimeLimit,
				ImprovementLimit: opts.ImprovementLimit,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	for _, resp := range responses {
		report.Attempts = append(report.Attempts, Attempt{
			Seed:         resp.Seed,
			Status:       resp.Status,
			Objective:    resp.Objective,
			Improvements: resp.Improvements,
			WallTime:     resp.WallTime,
		})
		if !opts.accepts(resp.Status) {
			continue
		}
		report.Solutions = append(report.Solutions, Sample{
			Seed:        resp.Seed,
			Status:      resp.Status,
			Objective:   resp.Objective,
			Schedule:    p.ScheduleOf(resp),
			Diagnostics: p.Diagnose(resp),
		})
	}
	return report, nil
}
