package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lostfound/internal/adapters/exports"
	"lostfound/internal/blob"
	"lostfound/internal/config"
	"lostfound/internal/core"
	"lostfound/internal/infra/persistence/memory"
	"lostfound/internal/printer"
)

// app holds the collaborators one command invocation needs.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath  string
	showMetrics bool

	cfg      config.Config
	logger   *zap.Logger
	printer  *printer.Printer
	store    core.PersistentStore
	svc      *core.Service
	registry *prometheus.Registry
	expvar   *core.ExpvarMetricsRecorder
	exporter *exports.Exporter
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:  stdout,
		stderr:  stderr,
		logger:  zap.NewNop(),
		printer: printer.New(stdout, stderr),
	}
}

// open loads configuration and opens the store and service.
func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	a.logger = newLogger(a.stderr, level, cfg.Log.Development)

	store, err := core.OpenPersistentStore(ctx, cfg.StorageConfig(), core.NewDefaultRulesEngine(),
		memory.WithLocation(loc),
		memory.WithLogger(a.logger),
	)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	a.store = store

	opts := []core.ServiceOption{
		core.WithLogger(a.logger),
		core.WithNotifier(a.printer),
		core.WithLocation(loc),
	}
	recorder := cfg.Metrics.Recorder
	if a.showMetrics && recorder != config.MetricsExpvar {
		recorder = config.MetricsPrometheus
	}
	switch recorder {
	case config.MetricsPrometheus:
		a.registry = prometheus.NewRegistry()
		rec, err := core.NewPrometheusMetricsRecorder(a.registry)
		if err != nil {
			return err
		}
		opts = append(opts, core.WithMetricsRecorder(rec))
	case config.MetricsExpvar:
		a.expvar = core.NewExpvarMetricsRecorder("")
		opts = append(opts, core.WithMetricsRecorder(a.expvar))
	}
	a.svc = core.NewService(store, opts...)
	a.logger.Debug("lostfound ready",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("timezone", loc.String()))
	return nil
}

// exportsFor lazily opens the blob store used for exports.
func (a *app) exportsFor(ctx context.Context) (*exports.Exporter, error) {
	if a.exporter != nil {
		return a.exporter, nil
	}
	blobs, err := blob.Open(ctx, a.cfg.BlobStoreConfig())
	if err != nil {
		return nil, err
	}
	e, err := exports.NewExporter(blobs, exports.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.exporter = e
	return e, nil
}

// close releases database handles and flushes the logger.
func (a *app) close() error {
	var errs []error
	if closer, ok := a.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	a.store = nil
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// newLogger writes console-encoded entries at level and above to w.
func newLogger(w io.Writer, level zapcore.Level, development bool) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	if development {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level))
}
