package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/credit-castor/internal/platform/otel"
)

func TestSetupNoop(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		enabled  string
	}{
		{name: "endpoint empty", endpoint: "", enabled: ""},
		{name: "endpoint blank", endpoint: "   ", enabled: "true"},
		{name: "explicitly disabled", endpoint: "http://localhost:4318/v1/traces", enabled: "false"},
		{name: "disabled any case", endpoint: "http://localhost:4318/v1/traces", enabled: "FALSE"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("CREDIT_CASTOR_OTEL_ENDPOINT", tc.endpoint)
			t.Setenv("CREDIT_CASTOR_OTEL_ENABLED", tc.enabled)

			shutdown, err := otel.Setup(context.Background(), "ledger")
			if err != nil {
				t.Fatalf("Setup() error = %v, want nil", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown() = %v, want nil", err)
			}
		})
	}
}

func TestTracerStartsSpanWithoutSetup(t *testing.T) {
	ctx, span := otel.Tracer().Start(context.Background(), "ledger.test")
	defer span.End()
	if ctx == nil {
		t.Fatal("expected span context")
	}
}
