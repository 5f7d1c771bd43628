package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// ServiceInfo identifies the process in exported spans, metrics and logs.
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
}

func (s ServiceInfo) name() string {
	if s.Name == "" {
		return "kasapos"
	}
	return s.Name
}

// buildResource describes the service. OTEL_RESOURCE_ATTRIBUTES may add to it.
// Detectors that fail leave a partial resource, which is still used.
func (s ServiceInfo) buildResource(ctx context.Context) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(s.attributes()...),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
		resource.WithFromEnv(),
	)
	if err != nil && !errors.Is(err, resource.ErrPartialResource) {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}
	return res, nil
}

func (s ServiceInfo) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{semconv.ServiceName(s.name())}
	if s.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(s.Version))
	}
	if s.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentName(s.Environment))
	}
	return attrs
}
