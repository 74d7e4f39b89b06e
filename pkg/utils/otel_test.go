// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var otelEnvVars = []string{
	"OTEL_SERVICE_NAME",
	"OTEL_SERVICE_VERSION",
	"OTEL_EXPORTER_OTLP_PROTOCOL",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"OTEL_EXPORTER_OTLP_INSECURE",
	"OTEL_TRACES_EXPORTER",
	"OTEL_TRACES_SAMPLE_RATIO",
	"OTEL_METRICS_EXPORTER",
	"OTEL_LOGS_EXPORTER",
}

func clearOTelEnv(t *testing.T) {
	t.Helper()
	for _, env := range otelEnvVars {
		t.Setenv(env, "")
	}
}

func disabledConfig() OTelConfig {
	return OTelConfig{
		ServiceName:       "agenda-test",
		ServiceVersion:    "1.0.0",
		Protocol:          OTelProtocolGRPC,
		TracesExporter:    OTelExporterNone,
		TracesSampleRatio: 1.0,
		MetricsExporter:   OTelExporterNone,
		LogsExporter:      OTelExporterNone,
	}
}

func TestOTelConfigFromEnv_Defaults(t *testing.T) {
	clearOTelEnv(t)

	cfg := OTelConfigFromEnv()

	assert.Equal(t, "lfx-v2-agenda-service", cfg.ServiceName)
	assert.Empty(t, cfg.ServiceVersion)
	assert.Equal(t, OTelProtocolGRPC, cfg.Protocol)
	assert.Empty(t, cfg.Endpoint)
	assert.False(t, cfg.Insecure)
	assert.Equal(t, OTelExporterNone, cfg.TracesExporter)
	assert.Equal(t, 1.0, cfg.TracesSampleRatio)
	assert.Equal(t, OTelExporterNone, cfg.MetricsExporter)
	assert.Equal(t, OTelExporterNone, cfg.LogsExporter)
}

func TestOTelConfigFromEnv_CustomValues(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "agenda-api")
	t.Setenv("OTEL_SERVICE_VERSION", "2.1.0")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("OTEL_TRACES_EXPORTER", "otlp")
	t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "0.25")
	t.Setenv("OTEL_METRICS_EXPORTER", "otlp")
	t.Setenv("OTEL_LOGS_EXPORTER", "otlp")

	cfg := OTelConfigFromEnv()

	assert.Equal(t, OTelConfig{
		ServiceName:       "agenda-api",
		ServiceVersion:    "2.1.0",
		Protocol:          OTelProtocolHTTP,
		Endpoint:          "collector:4318",
		Insecure:          true,
		TracesExporter:    OTelExporterOTLP,
		TracesSampleRatio: 0.25,
		MetricsExporter:   OTelExporterOTLP,
		LogsExporter:      OTelExporterOTLP,
	}, cfg)
}

func TestOTelConfigFromEnv_TracesSampleRatio(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected float64
	}{
		{"zero", "0", 0},
		{"half", "0.5", 0.5},
		{"one", "1.0", 1.0},
		{"negative falls back", "-0.1", 1.0},
		{"above one falls back", "1.5", 1.0},
		{"garbage falls back", "often", 1.0},
		{"empty", "", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_TRACES_SAMPLE_RATIO", tt.value)
			assert.Equal(t, tt.expected, OTelConfigFromEnv().TracesSampleRatio)
		})
	}
}

func TestOTelConfigFromEnv_InsecureOnlyForLiteralTrue(t *testing.T) {
	for value, expected := range map[string]bool{"true": true, "TRUE": false, "1": false, "": false} {
		t.Run("value="+value, func(t *testing.T) {
			t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", value)
			assert.Equal(t, expected, OTelConfigFromEnv().Insecure)
		})
	}
}

func TestSetupOTelSDKWithConfig_AllDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := SetupOTelSDKWithConfig(ctx, disabledConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.NoError(t, shutdown(ctx), "shutdown is safe to repeat")
}

func TestSetupOTelSDK_FromEnv(t *testing.T) {
	clearOTelEnv(t)
	ctx := context.Background()

	shutdown, err := SetupOTelSDK(ctx)
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))
}

func TestNewResource(t *testing.T) {
	for _, cfg := range []OTelConfig{
		{ServiceName: "agenda", ServiceVersion: "1.0.0"},
		{ServiceName: "agenda"},
		{ServiceName: "日程服务", ServiceVersion: "0.1.0-rc.1"},
	} {
		t.Run(cfg.ServiceName+"@"+cfg.ServiceVersion, func(t *testing.T) {
			res, err := newResource(cfg)
			require.NoError(t, err)

			values := map[string]string{}
			for _, attr := range res.Attributes() {
				values[string(attr.Key)] = attr.Value.AsString()
			}
			assert.Equal(t, cfg.ServiceName, values["service.name"])
			if cfg.ServiceVersion != "" {
				assert.Equal(t, cfg.ServiceVersion, values["service.version"])
			}
		})
	}
}

func TestNewPropagator(t *testing.T) {
	fields := newPropagator().Fields()

	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "tracestate")
	assert.Contains(t, fields, "baggage")
	assert.Contains(t, fields, "uber-trace-id")
}

func TestOTelConfig_ZeroValueEnablesExporters(t *testing.T) {
	cfg := OTelConfig{}

	assert.NotEqual(t, OTelExporterNone, cfg.TracesExporter)
	assert.NotEqual(t, OTelExporterNone, cfg.MetricsExporter)
	assert.NotEqual(t, OTelExporterNone, cfg.LogsExporter)
}
