package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rotacore/internal/blob"
	"rotacore/internal/config"
	"rotacore/internal/core"
	"rotacore/internal/logging"
)

// app holds what the persistent pre-run opened for the executing command.
type app struct {
	configPath string

	cfg      *config.Config
	logger   *zap.Logger
	rows     core.RowStore
	archive  *core.Archive
	metrics  core.MetricsRecorder
	registry *prometheus.Registry
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	a.logger = logger

	switch cfg.Metrics.Driver {
	case "expvar":
		a.metrics = core.NewExpvarMetricsRecorder("rota")
	case "prometheus":
		a.registry = prometheus.NewRegistry()
		rec, err := core.NewPrometheusMetricsRecorder(a.registry)
		if err != nil {
			return err
		}
		a.metrics = rec
	}
	return nil
}

// openRows opens the configured row store on first use.
func (a *app) openRows(ctx context.Context) (core.RowStore, error) {
	if a.rows != nil {
		return a.rows, nil
	}
	store, err := core.OpenRowStore(ctx, a.cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open row store: %w", err)
	}
	a.rows = store
	return store, nil
}

// openArchive opens the configured blob store on first use.
func (a *app) openArchive(ctx context.Context) (*core.Archive, error) {
	if a.archive != nil {
		return a.archive, nil
	}
	store, err := blob.Open(ctx, a.cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("open generation archive: %w", err)
	}
	a.archive = core.NewArchive(store)
	return a.archive, nil
}

// service builds a core.Service from the loaded configuration. Commands adjust
// a.cfg from their flags before calling it.
func (a *app) service(ctx context.Context, needRows, needArchive bool) (*core.Service, error) {
	opts := []core.Option{
		core.WithLogger(logging.Adapt(a.logger)),
		core.WithMetricsRecorder(a.metrics),
		core.WithWeights(a.cfg.Weights()),
		core.WithHorizon(a.cfg.Schedule.HorizonWeeks),
		core.WithSampling(a.cfg.SampleOptions()),
	}
	if needRows {
		rows, err := a.openRows(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithRowStore(rows))
	}
	if needArchive {
		archive, err := a.openArchive(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithArchive(archive))
	}
	return core.NewService(opts...), nil
}

func (a *app) close() error {
	var errs []error
	if a.rows != nil {
		errs = append(errs, a.rows.Close())
		a.rows = nil
	}
	if a.registry != nil && a.cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.Metrics.Textfile, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics textfile: %w", err))
		}
	}
	if a.logger != nil {
		// stderr sync fails with EINVAL on some terminals.
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "rota",
		Short: "Generate weekly music rosters from availability rows",
		Long: `rota turns availability, instrument and frequency answers into weekly
rosters: one leader, three vocalists, one acoustic guitarist and one pianist per
week, plus optional cajon, strings and electric guitar. Every generation is
archived so its options can be paged through later.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file (ROTACORE_* variables override it)")

	root.AddCommand(
		newGenerateCmd(a),
		newRowsCmd(a),
		newLeadersCmd(a),
		newShowCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
	)
	return root
}
