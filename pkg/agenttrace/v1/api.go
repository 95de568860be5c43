// Package v1 is the public entry point for recording agent execution traces.
// A Client wraps the core tracer with its storage backend, hooks, and
// configuration; spans are started from a Client and flow through
// context.Context.
package v1

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zoobzio/clockz"

	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/hooks"
	tracelog "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/log"
	tracestorage "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/storage"

	"github.com/agenttrace-labs/agenttrace/internal/config"
	"github.com/agenttrace-labs/agenttrace/internal/events"
	"github.com/agenttrace-labs/agenttrace/internal/logger"
	"github.com/agenttrace-labs/agenttrace/internal/metrics"
	"github.com/agenttrace-labs/agenttrace/internal/otelbridge"
	"github.com/agenttrace-labs/agenttrace/internal/serializer"
	"github.com/agenttrace-labs/agenttrace/internal/storage"
	"github.com/agenttrace-labs/agenttrace/internal/tracer"
)

// Span is a live recording of one execution step.
type Span = tracer.Span

// Config controls capture behavior, redaction, and payload limits.
type Config = config.Config

// DefaultConfig returns the default capture configuration.
func DefaultConfig() *Config { return config.Default() }

// LoadConfigFile parses and validates a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) { return config.LoadFromFile(path) }

// Event is a flattened snapshot of one span lifecycle transition.
type Event = events.Event

// EventBus carries lifecycle events to asynchronous in-process consumers.
// Emission never blocks span bookkeeping; events are dropped with a warning
// when the buffer is full.
type EventBus = events.ChannelEventBus

// NewEventBus creates an event bus with the given buffer size (a default is
// used when non-positive). Attach it to a Client with WithEventBus and read
// from bus.GetChannel().
func NewEventBus(bufferSize int, log tracelog.Logger) *EventBus {
	return events.NewChannelEventBus(bufferSize, log)
}

// Client owns a configured tracer and its collaborators.
type Client struct {
	log       tracelog.Logger
	cfg       *config.Config
	store     tracestorage.Store
	storeSpec string
	hookList  []hooks.Hook
	clock     clockz.Clock

	metricsRegistry *prometheus.Registry
	eventBus        *events.ChannelEventBus
	otelCtx         context.Context
	otelProvider    *otelbridge.Provider

	tracer *tracer.Tracer
}

// Option configures a Client at creation.
type Option func(*Client) error

// WithLogger supplies the logger used for diagnostics.
func WithLogger(log tracelog.Logger) Option {
	return func(c *Client) error {
		if log == nil {
			return traceerrors.NewConfigError("logger cannot be nil", nil)
		}
		c.log = log
		return nil
	}
}

// WithConfig supplies a capture configuration.
func WithConfig(cfg *Config) Option {
	return func(c *Client) error {
		if cfg == nil {
			return traceerrors.NewConfigError("config cannot be nil", nil)
		}
		c.cfg = cfg
		return nil
	}
}

// WithStorage supplies a concrete storage backend.
func WithStorage(store tracestorage.Store) Option {
	return func(c *Client) error {
		if store == nil {
			return traceerrors.NewConfigError("storage backend cannot be nil", nil)
		}
		c.store = store
		c.storeSpec = ""
		return nil
	}
}

// WithStorageSpec selects a storage backend from a spec string: "memory",
// "file://<dir>" or "sqlite://<path>".
func WithStorageSpec(spec string) Option {
	return func(c *Client) error {
		if spec == "" {
			return traceerrors.NewConfigError("storage spec cannot be empty", nil)
		}
		c.store = nil
		c.storeSpec = spec
		return nil
	}
}

// WithHooks registers lifecycle hooks, appended in order.
func WithHooks(hookList ...hooks.Hook) Option {
	return func(c *Client) error {
		for _, h := range hookList {
			if h == nil {
				return traceerrors.NewConfigError("hook cannot be nil", nil)
			}
		}
		c.hookList = append(c.hookList, hookList...)
		return nil
	}
}

// WithMetricsRegistry registers span lifecycle counters and a node duration
// histogram with the given Prometheus registry and records into them for the
// lifetime of the Client. Collector name collisions surface as a construction
// error.
func WithMetricsRegistry(registry *prometheus.Registry) Option {
	return func(c *Client) error {
		if registry == nil {
			return traceerrors.NewConfigError("metrics registry cannot be nil", nil)
		}
		c.metricsRegistry = registry
		return nil
	}
}

// WithEventBus publishes every span lifecycle transition onto bus.
func WithEventBus(bus *EventBus) Option {
	return func(c *Client) error {
		if bus == nil {
			return traceerrors.NewConfigError("event bus cannot be nil", nil)
		}
		c.eventBus = bus
		return nil
	}
}

// WithOTelExport mirrors spans into OpenTelemetry, configured from the
// standard OTEL_* environment variables. Without an exporter configured in
// the environment the bridge stays inert. ctx bounds exporter setup and is
// reused for shutdown on Close.
func WithOTelExport(ctx context.Context) Option {
	return func(c *Client) error {
		if ctx == nil {
			return traceerrors.NewConfigError("otel export context cannot be nil", nil)
		}
		c.otelCtx = ctx
		return nil
	}
}

// WithClock overrides the wall clock, used by tests for deterministic
// timestamps.
func WithClock(clock clockz.Clock) Option {
	return func(c *Client) error {
		if clock == nil {
			return traceerrors.NewConfigError("clock cannot be nil", nil)
		}
		c.clock = clock
		return nil
	}
}

// New builds a Client. Without options it records with default configuration
// into an in-memory store, logging diagnostics at info level to stderr.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		storeSpec: "memory",
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.log == nil {
		c.log = logger.NewDefaultLogger("info")
	}
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	if c.store == nil {
		codec := serializer.New(c.log, c.cfg.StrictSchema)
		store, err := storage.Resolve(c.storeSpec, codec)
		if err != nil {
			return nil, err
		}
		c.store = store
	}

	if c.metricsRegistry != nil {
		metricsHook, err := metrics.NewHook(c.metricsRegistry)
		if err != nil {
			return nil, traceerrors.NewConfigError("registering metrics collectors", err)
		}
		c.hookList = append(c.hookList, metricsHook)
	}
	if c.eventBus != nil {
		c.hookList = append(c.hookList, events.NewBusHook(c.eventBus))
	}
	if c.otelCtx != nil {
		provider, err := otelbridge.NewProviderFromEnv(c.otelCtx, c.log)
		if err != nil {
			return nil, err
		}
		c.otelProvider = provider
		c.hookList = append(c.hookList, otelbridge.NewHook(provider))
	}

	t, err := tracer.New(c.log, c.cfg, c.store, c.hookList, c.clock)
	if err != nil {
		return nil, err
	}
	c.tracer = t
	return c, nil
}

// NewFromConfig builds a Client entirely from a configuration, taking the
// logger settings and storage spec from the config itself. Additional options
// apply on top.
func NewFromConfig(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, traceerrors.NewConfigError("config cannot be nil", nil)
	}
	base := []Option{
		WithConfig(cfg),
		WithLogger(logger.NewLogger(cfg.LogLevel, cfg.LogFormat, nil)),
	}
	if cfg.Storage != "" {
		base = append(base, WithStorageSpec(cfg.Storage))
	}
	return New(append(base, opts...)...)
}

// StartTrace opens a new trace with a root span and returns a context carrying
// both. Ending the returned span finalizes and persists the trace.
func (c *Client) StartTrace(ctx context.Context, name string, metadata map[string]any) (context.Context, *Span) {
	return c.tracer.StartTrace(ctx, name, metadata)
}

// StartSpan opens a child span under the ambient trace in ctx. Without an
// ambient trace it returns a no-op span, so instrumented code needs no
// is-tracing-active branches.
func (c *Client) StartSpan(ctx context.Context, name, nodeType string) (context.Context, *Span) {
	return c.tracer.StartSpan(ctx, name, nodeType)
}

// Storage exposes the backend, mainly for loading traces back in tooling.
func (c *Client) Storage() tracestorage.Store { return c.store }

// Config returns the active capture configuration.
func (c *Client) Config() *Config { return c.tracer.Config() }

// Close flushes the OpenTelemetry exporter, if one is attached, and releases
// the storage backend.
func (c *Client) Close() error {
	if c.otelProvider != nil {
		if err := c.otelProvider.Shutdown(c.otelCtx); err != nil {
			c.log.Warnf("otel provider shutdown failed: %v", err)
		}
	}
	return c.store.Close()
}

// Instrument wraps fn so each invocation runs inside its own span. The span
// fails with fn's error and the error is still returned to the caller.
func Instrument(c *Client, name, nodeType string, fn func(context.Context) error) func(context.Context) error {
	return tracer.Instrument(c.tracer, name, nodeType, fn)
}

// InstrumentFunc is Instrument for functions that return a value. The value is
// recorded as the span's output on success.
func InstrumentFunc[T any](c *Client, name, nodeType string, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return tracer.InstrumentFunc(c.tracer, name, nodeType, fn)
}

// RetryConfig bounds a retried operation wrapped by Retry.
type RetryConfig = tracer.RetryConfig

// Retry wraps op so each call is attempted up to the configured number of
// times, one span per attempt, with successive attempts linked by retry_of
// edges.
func Retry(c *Client, cfg RetryConfig, name, nodeType string, op func(context.Context) error) func(context.Context) error {
	return tracer.Retry(c.tracer, cfg, name, nodeType, op)
}

// Parallel runs branches concurrently under the ambient trace and returns the
// first error. Each branch receives the shared context, so spans started
// inside a branch attach to the caller's span.
func Parallel(ctx context.Context, branches ...func(context.Context) error) error {
	return tracer.Parallel(ctx, branches...)
}
