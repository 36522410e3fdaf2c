package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/anoideaopen/custody/core/config"
	"github.com/anoideaopen/custody/core/telemetry"
	"github.com/anoideaopen/custody/mock/stub"
)

const traceparent = "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"

func TestTraceHeaders(t *testing.T) {
	transient := telemetry.TraceHeaders(propagation.MapCarrier{
		"traceparent": traceparent,
		"tracestate":  "vendor=1",
	})

	require.Equal(t, map[string][]byte{
		"traceparent": []byte(traceparent),
		"tracestate":  []byte("vendor=1"),
	}, transient)
}

func TestSpanContinuesRemoteTrace(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	th := &telemetry.TracingHandler{
		Tracer:      sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test"),
		Propagators: propagation.TraceContext{},
	}

	s := stub.NewMockStub("vault", nil)
	s.MockTransactionStart("tx1")
	transient := telemetry.TraceHeaders(propagation.MapCarrier{"traceparent": traceparent})
	// a bare transfer carries its value next to the trace headers
	transient["value"] = []byte("1000")
	s.SetTransient(transient)

	traceCtx := th.ContextFromStub(s)
	_, span := th.StartNewSpan(traceCtx, "vault.depositNative")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "0af7651916cd43dd8448eb211c80319c", spans[0].SpanContext().TraceID().String())
	require.Equal(t, "b7ad6b7169203331", spans[0].Parent().SpanID().String())
}

func TestInstallNoopProvider(t *testing.T) {
	telemetry.InstallTraceProvider(nil, "chaincode-test")

	th := telemetry.NewTracingHandler("chaincode-test")
	traceCtx, span := th.StartNewSpan(telemetry.TraceContext{}, "noop")
	defer span.End()

	require.False(t, span.SpanContext().IsValid())
	require.NotNil(t, traceCtx.Context())
	require.Equal(t, context.Background(), telemetry.TraceContext{}.Context())
}

func TestInstallRejectsBadCABundle(t *testing.T) {
	// "not pem" in base64
	telemetry.InstallTraceProvider(&config.Tracing{
		Endpoint: "localhost:4318",
		TLSCA:    "bm90IHBlbQ==",
	}, "chaincode-test")

	_, span := telemetry.NewTracingHandler("chaincode-test").StartNewSpan(telemetry.TraceContext{}, "noop")
	defer span.End()

	require.False(t, span.SpanContext().IsValid())
}
