package tracer

import (
	"context"
	"fmt"
	"io"

	attr "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktr "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	ExporterDummy  = "dummy"
	ExporterStdout = "stdout"
	ExporterGRPC   = "grpc"
)

type ExporterOptions struct {
	Kind     string
	Endpoint string
	Insecure bool
	Writer   io.Writer
}

// Init builds a TracerProvider for opts.Kind. The returned provider must be
// shut down by the caller.
func Init(ctx context.Context, opts ExporterOptions) (*sdktr.TracerProvider, error) {
	switch opts.Kind {
	case "", ExporterDummy:
		return InitDummyExporter(), nil
	case ExporterStdout:
		return InitStdoutExporter(opts.Writer)
	case ExporterGRPC:
		return InitGRPCExporter(ctx, opts.Endpoint, opts.Insecure)
	}
	return nil, fmt.Errorf("unknown exporter %q", opts.Kind)
}

func InitGRPCExporter(ctx context.Context, endpoint string, plaintext bool) (*sdktr.TracerProvider, error) {
	grpcOpts := make([]otlptracegrpc.Option, 0)
	if endpoint != "" {
		grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpoint(endpoint))
	}
	if plaintext {
		grpcOpts = append(grpcOpts,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	}
	exporter, err := otlptracegrpc.New(ctx, grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating gRPC exporter: %w", err)
	}

	return sdktr.NewTracerProvider(
		sdktr.WithBatcher(exporter),
		sdktr.WithResource(resource.Empty())), nil
}

func InitStdoutExporter(w io.Writer) (*sdktr.TracerProvider, error) {
	opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
	if w != nil {
		opts = append(opts, stdouttrace.WithWriter(w))
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating stdout exporter: %w", err)
	}

	return sdktr.NewTracerProvider(
		sdktr.WithSyncer(exporter),
		sdktr.WithResource(resource.Empty())), nil
}

// InitDummyExporter only for testing purposes
func InitDummyExporter() *sdktr.TracerProvider {
	return sdktr.NewTracerProvider(
		sdktr.WithResource(resource.NewSchemaless(attr.Bool("debug", true))),
	)
}
