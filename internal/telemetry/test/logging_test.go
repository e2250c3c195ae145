// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
	"github.com/jaycherian/gcp-go-media-transform/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decode(t *testing.T, line []byte) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, model.JSON.Unmarshal(line, &out))
	return out
}

func TestLoggerUsesCloudLoggingKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := telemetry.NewLogger(&buf, true)

	logger.Warn("skipping file", "file", "a.txt")

	entry := decode(t, buf.Bytes())
	assert.Equal(t, "WARNING", entry["severity"])
	assert.Equal(t, "skipping file", entry["message"])
	assert.Equal(t, "a.txt", entry["file"])
	assert.Contains(t, entry, "timestamp")
}

func TestQuietLoggerDropsProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := telemetry.NewLogger(&buf, false)

	logger.Info("processing file")
	assert.Zero(t, buf.Len())

	logger.Error("task group failed", "group", "movies")
	entry := decode(t, buf.Bytes())
	assert.Equal(t, "ERROR", entry["severity"])
	assert.Equal(t, slog.LevelWarn, telemetry.Level(false))
	assert.Equal(t, slog.LevelInfo, telemetry.Level(true))
}

func TestLoggerAddsTraceFields(t *testing.T) {
	var buf bytes.Buffer
	logger := telemetry.NewLogger(&buf, true).With("run", "r1")

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	logger.InfoContext(ctx, "file has been processed")

	entry := decode(t, buf.Bytes())
	assert.Equal(t, sc.TraceID().String(), entry["logging.googleapis.com/trace"])
	assert.Equal(t, sc.SpanID().String(), entry["logging.googleapis.com/spanId"])
	assert.Equal(t, true, entry["logging.googleapis.com/trace_sampled"])
	assert.Equal(t, "r1", entry["run"])
}

func TestTelemetryDisabledInstallsNothing(t *testing.T) {
	shutdown, err := telemetry.SetupOpenTelemetry(context.Background(), cloud.NewConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
