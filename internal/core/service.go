package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rotacore/pkg/domain"
)

// Operation names reported to loggers, metrics and tracers.
const (
	OpGenerate        = "generate"
	OpListRows        = "list_rows"
	OpImportRows      = "import_rows"
	OpDeleteRow       = "delete_row"
	OpSetLeaders      = "set_leaders"
	OpLoadGeneration  = "load_generation"
	OpListGenerations = "list_generations"
)

// DefaultSampleOptions mirrors the admin view: five proven-optimal options.
func DefaultSampleOptions() SampleOptions {
	return SampleOptions{Count: 5, TimeLimit: 30 * time.Second}
}

var (
	errNoRowStore = errors.New("core: row store not configured")
	errNoArchive  = errors.New("core: generation archive not configured")
)

// Service runs the generation pipeline (normalize, build, penalise, sample,
// audit) and the row administration around it.
type Service struct {
	rows     domain.RowStore
	archive  *Archive
	engine   *domain.RulesEngine
	logger   Logger
	metrics  MetricsRecorder
	tracer   Tracer
	clock    Clock
	weights  Weights
	horizon  int
	sampling SampleOptions
	newID    func() string
}

// Option configures a Service.
type Option func(*Service)

// WithRowStore sets the store GenerateFromStore and the row operations use.
func WithRowStore(store domain.RowStore) Option {
	return func(s *Service) { s.rows = store }
}

// WithArchive enables archiving of every generation.
func WithArchive(archive *Archive) Option {
	return func(s *Service) { s.archive = archive }
}

// WithRulesEngine replaces the default schedule audit rules.
func WithRulesEngine(engine *domain.RulesEngine) Option {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the operation metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer sets the span factory.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithWeights sets the objective weights.
func WithWeights(w Weights) Option {
	return func(s *Service) { s.weights = w }
}

// WithHorizon sets how many weeks are scheduled.
func WithHorizon(weeks int) Option {
	return func(s *Service) { s.horizon = weeks }
}

// WithSampling sets the sampler options.
func WithSampling(opts SampleOptions) Option {
	return func(s *Service) { s.sampling = opts }
}

// WithIDGenerator overrides generation id allocation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService constructs a service with the default rules, weights, horizon and
// sampling and noop observability.
func NewService(opts ...Option) *Service {
	s := &Service{
		engine:   NewDefaultRulesEngine(),
		logger:   noopLogger{},
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
		clock:    ClockFunc(time.Now),
		weights:  DefaultWeights(),
		horizon:  domain.HorizonWeeks,
		sampling: DefaultSampleOptions(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RowStore returns the configured row store, or nil.
func (s *Service) RowStore() domain.RowStore { return s.rows }

// Archive returns the configured generation archive, or nil.
func (s *Service) Archive() *Archive { return s.archive }

func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	err := fn(ctx)
	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "duration", duration, "error", err)
		return err
	}
	s.logger.Debug("operation complete", "operation", op, "duration", duration)
	return nil
}

// Generate samples schedules for rows, audits each one and archives the
// result when an archive is configured. An empty solution list is not an
// error; Generation.Outcome tells why nothing was returned.
func (s *Service) Generate(ctx context.Context, rows []domain.Row) (Generation, error) {
	var gen Generation
	err := s.run(ctx, OpGenerate, func(ctx context.Context) error {
		var err error
		gen, err = s.generate(ctx, rows)
		return err
	})
	return gen, err
}

func (s *Service) generate(ctx context.Context, rows []domain.Row) (Generation, error) {
	if err := s.weights.Validate(); err != nil {
		return Generation{}, err
	}
	roster, err := Normalize(rows)
	if err != nil {
		return Generation{}, err
	}
	problem, err := BuildModel(roster, s.horizon)
	if err != nil {
		return Generation{}, err
	}
	if err := problem.ApplyPenalties(s.weights); err != nil {
		return Generation{}, err
	}
	s.logger.Info("model built",
		"people", roster.Len(),
		"leaders", problem.NumLeaders(),
		"horizon", s.horizon,
		"variables", problem.Model().NumVars(),
		"constraints", problem.Model().NumConstraints(),
	)

	report, err := problem.Sample(ctx, s.sampling)
	if err != nil {
		return Generation{}, err
	}
	if observer, ok := s.metrics.(SolveObserver); ok {
		for _, a := range report.Attempts {
			observer.ObserveSolve(ctx, a.Status.String(), a.Improvements, a.WallTime)
		}
	}
	for _, a := range report.Attempts {
		s.logger.Debug("solve attempt", "seed", a.Seed, "status", a.Status.String(), "objective", a.Objective, "improvements", a.Improvements, "wall_time", a.WallTime)
	}
	for _, sample := range report.Solutions {
		res, err := s.engine.Evaluate(ctx, NewScheduleView(roster, s.horizon, sample.Schedule))
		if err != nil {
			return Generation{}, fmt.Errorf("audit seed %d: %w", sample.Seed, err)
		}
		if res.HasBlocking() {
			return Generation{}, domain.RuleViolationError{Result: res}
		}
		for _, v := range res.Violations {
			s.logger.Debug("schedule finding", "seed", sample.Seed, "rule", v.Rule, "severity", string(v.Severity), "person", v.Person, "message", v.Message)
		}
	}

	gen := Generation{
		ID:        s.newID(),
		CreatedAt: s.clock.Now().UTC(),
		Horizon:   s.horizon,
		Weights:   s.weights,
		Requested: report.Requested,
		Samples:   report.Solutions,
		Attempts:  report.Attempts,
	}
	if gen.Samples == nil {
		gen.Samples = []Sample{}
	}
	if s.archive != nil {
		if err := s.archive.Save(ctx, gen); err != nil {
			return Generation{}, err
		}
	}
	s.logger.Info("generation complete", "id", gen.ID, "outcome", string(gen.Outcome()), "solutions", len(gen.Samples), "requested", gen.Requested)
	return gen, nil
}

// GenerateFromStore generates from every row in the configured row store.
func (s *Service) GenerateFromStore(ctx context.Context) (Generation, error) {
	if s.rows == nil {
		return Generation{}, errNoRowStore
	}
	rows, err := s.ListRows(ctx)
	if err != nil {
		return Generation{}, err
	}
	return s.Generate(ctx, rows)
}

// ListRows returns stored rows in insertion order.
func (s *Service) ListRows(ctx context.Context) ([]domain.Row, error) {
	if s.rows == nil {
		return nil, errNoRowStore
	}
	var rows []domain.Row
	err := s.run(ctx, OpListRows, func(ctx context.Context) error {
		var err error
		rows, err = s.rows.ListRows(ctx)
		return err
	})
	return rows, err
}

// ImportRows upserts rows in order, stopping at the first failure.
func (s *Service) ImportRows(ctx context.Context, rows []domain.Row) error {
	if s.rows == nil {
		return errNoRowStore
	}
	return s.run(ctx, OpImportRows, func(ctx context.Context) error {
		for _, row := range rows {
			if err := s.rows.UpsertRow(ctx, row); err != nil {
				return fmt.Errorf("import %q: %w", row.Name, err)
			}
		}
		return nil
	})
}

// DeleteRow removes the named row. Deleting a missing row is an error.
func (s *Service) DeleteRow(ctx context.Context, name string) error {
	if s.rows == nil {
		return errNoRowStore
	}
	return s.run(ctx, OpDeleteRow, func(ctx context.Context) error {
		removed, err := s.rows.DeleteRow(ctx, name)
		if err != nil {
			return err
		}
		if !removed {
			return domain.ErrNotFound{Entity: "row", ID: name}
		}
		return nil
	})
}

// SetLeaders flags exactly the named rows as leaders. With exclusive set,
// every other stored row is cleared in the same step.
func (s *Service) SetLeaders(ctx context.Context, names []string, exclusive bool) error {
	if s.rows == nil {
		return errNoRowStore
	}
	return s.run(ctx, OpSetLeaders, func(ctx context.Context) error {
		flags := make(map[string]bool, len(names))
		if exclusive {
			rows, err := s.rows.ListRows(ctx)
			if err != nil {
				return err
			}
			for _, row := range rows {
				flags[row.Name] = false
			}
		}
		for _, name := range names {
			flags[name] = true
		}
		return s.rows.SetLeaders(ctx, flags)
	})
}

// LoadGeneration reads an archived generation.
func (s *Service) LoadGeneration(ctx context.Context, id string) (Generation, error) {
	if s.archive == nil {
		return Generation{}, errNoArchive
	}
	var gen Generation
	err := s.run(ctx, OpLoadGeneration, func(ctx context.Context) error {
		var err error
		gen, err = s.archive.Load(ctx, id)
		return err
	})
	return gen, err
}

// ListGenerations lists archived generations, newest first.
func (s *Service) ListGenerations(ctx context.Context) ([]GenerationInfo, error) {
	if s.archive == nil {
		return nil, errNoArchive
	}
	var infos []GenerationInfo
	err := s.run(ctx, OpListGenerations, func(ctx context.Context) error {
		var err error
		infos, err = s.archive.List(ctx)
		return err
	})
	return infos, err
}
