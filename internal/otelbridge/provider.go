package otelbridge

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/encoding/gzip"

	tracelog "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/log"
)

const defaultGRPCEndpoint = "localhost:4317"
const defaultHTTPEndpoint = "localhost:4318"

// Provider wraps either a configured OpenTelemetry SDK tracer provider or the
// official NoOp provider. The NoOp form is used whenever exporting is disabled
// or misconfigured, so callers never have to branch on tracing availability.
type Provider struct {
	provider    trace.TracerProvider
	exporter    sdktrace.SpanExporter
	sdkProvider *sdktrace.TracerProvider
	log         tracelog.Logger
}

// NewNoOpProvider returns a Provider that discards all spans.
func NewNoOpProvider(log tracelog.Logger) *Provider {
	return &Provider{
		provider: trace.NewNoopTracerProvider(),
		log:      log,
	}
}

// NewProviderFromEnv builds a Provider from the standard OTEL_* environment
// variables. It falls back to the NoOp provider when OTEL_SDK_DISABLED is set,
// when no endpoint is configured, or when exporter construction fails. The
// global OTel provider is never touched.
func NewProviderFromEnv(ctx context.Context, log tracelog.Logger) (*Provider, error) {
	if strings.ToLower(os.Getenv("OTEL_SDK_DISABLED")) == "true" {
		log.Debugf("otel export disabled via OTEL_SDK_DISABLED")
		return NewNoOpProvider(log), nil
	}

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName())),
		resource.WithProcess(), resource.WithOS(), resource.WithContainer(), resource.WithHost(),
	)
	if err != nil {
		res = resource.Default()
		log.Warnf("failed to build otel resource, using default: %v", err)
	}

	exporter, err := createExporter(ctx)
	if err != nil {
		log.Warnf("failed to create otlp exporter from environment, using noop tracer: %v", err)
		return NewNoOpProvider(log), nil
	}
	if exporter == nil {
		log.Debugf("otlp endpoint not configured, using noop tracer")
		return NewNoOpProvider(log), nil
	}

	bsp := sdktrace.NewBatchSpanProcessor(exporter)
	sdkTP := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
	)

	log.Infof("otel sdk provider configured from environment")
	return &Provider{
		provider:    sdkTP,
		exporter:    exporter,
		sdkProvider: sdkTP,
		log:         log,
	}, nil
}

// createExporter builds a gRPC or HTTP OTLP exporter from OTEL_EXPORTER_OTLP_*
// environment variables. Returns (nil, nil) when no exporter is wanted.
func createExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	protocol := strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"))
	if protocol == "" {
		protocol = "grpc"
	}

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		// Without an explicit endpoint, only export when the SDK is clearly
		// wanted. OTEL_TRACES_EXPORTER=otlp is the standard opt-in.
		if strings.ToLower(os.Getenv("OTEL_TRACES_EXPORTER")) != "otlp" {
			return nil, nil
		}
		switch protocol {
		case "grpc":
			endpoint = defaultGRPCEndpoint
		case "http", "http/protobuf":
			endpoint = defaultHTTPEndpoint
		default:
			return nil, nil
		}
	}

	headers := parseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	timeout := parseTimeout(os.Getenv("OTEL_EXPORTER_OTLP_TIMEOUT"), 10*time.Second)
	compression := strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_COMPRESSION"))
	insecure := isInsecure(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"), os.Getenv("OTEL_EXPORTER_OTLP_TRACES_INSECURE"))

	switch protocol {
	case "grpc":
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithHeaders(headers),
			otlptracegrpc.WithTimeout(timeout),
		}
		if insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
		}
		if compression == "gzip" {
			opts = append(opts, otlptracegrpc.WithCompressor(gzip.Name))
		}
		return otlptracegrpc.New(ctx, opts...)

	case "http", "http/protobuf":
		httpPath := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
		if httpPath == "" {
			httpPath = "/v1/traces"
		}
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithURLPath(httpPath),
			otlptracehttp.WithHeaders(headers),
			otlptracehttp.WithTimeout(timeout),
		}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if compression == "gzip" {
			opts = append(opts, otlptracehttp.WithCompression(otlptracehttp.GzipCompression))
		}
		return otlptracehttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unsupported otlp protocol: %s", protocol)
	}
}

// Tracer returns a named tracer from the wrapped provider.
func (p *Provider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p.provider == nil {
		return trace.NewNoopTracerProvider().Tracer(name, opts...)
	}
	return p.provider.Tracer(name, opts...)
}

// IsNoOp reports whether this provider was initialized without an SDK backend.
func (p *Provider) IsNoOp() bool {
	return p.sdkProvider == nil
}

// Shutdown flushes buffered spans and stops the SDK provider and exporter.
// A no-op provider shuts down without error.
func (p *Provider) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.sdkProvider != nil {
		if err := p.sdkProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.exporter != nil {
		if err := p.exporter.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func serviceName() string {
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		return name
	}
	return "agenttrace"
}

func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	if headerStr == "" {
		return headers
	}
	for _, pair := range strings.Split(headerStr, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) == 2 && strings.TrimSpace(kv[0]) != "" {
			headers[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}
	return headers
}

// parseTimeout accepts either integer milliseconds (the OTLP convention) or a
// Go duration string.
func parseTimeout(timeoutStr string, fallback time.Duration) time.Duration {
	if timeoutStr == "" {
		return fallback
	}
	if ms, err := strconv.ParseInt(timeoutStr, 10, 64); err == nil {
		if ms < 0 {
			return fallback
		}
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(timeoutStr); err == nil && d >= 0 {
		return d
	}
	return fallback
}

func isInsecure(flags ...string) bool {
	for _, flag := range flags {
		if strings.ToLower(strings.TrimSpace(flag)) == "true" {
			return true
		}
	}
	return false
}
