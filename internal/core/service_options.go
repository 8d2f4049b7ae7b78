package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lostfound/pkg/domain"
)

// Clock supplies the current time to the service.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// AuditStatus is the outcome recorded for an audited operation.
type AuditStatus string

// Audit outcomes.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one completed service operation.
type AuditEntry struct {
	Operation string
	Entity    EntityType
	Action    Action
	EntityID  string
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives an entry for every mutating operation.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes operation outcomes and latency.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts a span around each service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended with the operation error, nil on success.
type TraceSpan interface {
	End(err error)
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	logger   *zap.Logger
	clock    Clock
	audit    AuditRecorder
	metrics  MetricsRecorder
	tracer   Tracer
	notifier domain.Notifier
	location *time.Location
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		logger:   zap.NewNop(),
		audit:    noopAuditRecorder{},
		metrics:  noopMetricsRecorder{},
		tracer:   noopTracer{},
		notifier: noopNotifier{},
	}
}

// WithLogger sets the structured logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source used for audit timestamps and claim defaults.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithAuditRecorder installs an audit sink.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.audit = recorder
		}
	}
}

// WithMetricsRecorder installs a metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithNotifier installs the user-facing notification callback.
func WithNotifier(notifier domain.Notifier) ServiceOption {
	return func(o *serviceOptions) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// WithLocation sets the zone used to render label times. It defaults to the
// store's zone when the store exposes one.
func WithLocation(loc *time.Location) ServiceOption {
	return func(o *serviceOptions) {
		if loc != nil {
			o.location = loc
		}
	}
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

type noopNotifier struct{}

func (noopNotifier) Notify(domain.NotificationSeverity, string) {}
