package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/livehike/livehike/internal/api/middleware"
)

func setupTestMeter(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
		_ = provider.Shutdown(context.Background())
	})
	return reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics_RecordsByRoutePattern(t *testing.T) {
	reader := setupTestMeter(t)
	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Post("/v1/pins/{pinId}/verify", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/pins/"+id+"/verify", http.NoBody))
	}

	got := collect(t, reader)
	total, ok := got["http.server.request.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, total.DataPoints, 1, "pin ids must not create separate series")
	assert.Equal(t, int64(3), total.DataPoints[0].Value)

	route, ok := total.DataPoints[0].Attributes.Value(attribute.Key("http.route"))
	require.True(t, ok)
	assert.Equal(t, "/v1/pins/{pinId}/verify", route.AsString())
}

func TestMetrics_MarksErrors(t *testing.T) {
	reader := setupTestMeter(t)
	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)

	handler := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/pins/missing", http.NoBody))

	total := collect(t, reader)["http.server.request.total"].Data.(metricdata.Sum[int64])
	require.Len(t, total.DataPoints, 1)
	isErr, ok := total.DataPoints[0].Attributes.Value(attribute.Key("error"))
	require.True(t, ok)
	assert.True(t, isErr.AsBool())
}

func TestMetrics_TrackStream(t *testing.T) {
	reader := setupTestMeter(t)
	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)

	release := metrics.TrackStream(context.Background(), "Big C Trail")
	open := collect(t, reader)["livehike.stream.connections"].Data.(metricdata.Sum[int64])
	require.Len(t, open.DataPoints, 1)
	assert.Equal(t, int64(1), open.DataPoints[0].Value)

	release()
	closed := collect(t, reader)["livehike.stream.connections"].Data.(metricdata.Sum[int64])
	assert.Equal(t, int64(0), closed.DataPoints[0].Value)
}

func TestMetrics_TrackStream_NilReceiver(t *testing.T) {
	var metrics *middleware.Metrics
	assert.NotPanics(t, func() { metrics.TrackStream(context.Background(), "Big C Trail")() })
}
