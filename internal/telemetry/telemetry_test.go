package telemetry

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMiddleware_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	traced := Middleware("printshop-test", tp, "/api/health")(handler)

	for _, path := range []string{"/api/orders", "/api/health"} {
		rec := httptest.NewRecorder()
		traced.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP GET /api/orders", spans[0].Name())
}

func TestSetup(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Setup(ctx, Options{Exporter: ExporterNone}, nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))

	var buf bytes.Buffer
	shutdown, err = Setup(ctx, Options{ServiceName: "printshop-test", Exporter: ExporterStdout}, &buf)
	require.NoError(t, err)

	_, span := Tracer().Start(ctx, "unit")
	span.End()
	require.NoError(t, shutdown(ctx))
	assert.Contains(t, buf.String(), `"Name":"unit"`)

	_, err = Setup(ctx, Options{Exporter: "zipkin"}, nil)
	assert.Error(t, err)
}
