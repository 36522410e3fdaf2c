package telemetry

import (
	"context"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type TraceContext struct {
	ctx context.Context
}

// Context returns the context carrying the current span.
func (tc TraceContext) Context() context.Context {
	if tc.ctx == nil {
		return context.Background()
	}
	return tc.ctx
}

type TracingHandler struct {
	Tracer      trace.Tracer
	Propagators propagation.TextMapPropagator
}

// NewTracingHandler returns a handler using the globally installed provider.
func NewTracingHandler(serviceName string) *TracingHandler {
	return &TracingHandler{
		Tracer:      otel.Tracer(serviceName),
		Propagators: otel.GetTextMapPropagator(),
	}
}

// StartNewSpan starts new span
func (th *TracingHandler) StartNewSpan(traceCtx TraceContext, spanName string, opts ...trace.SpanStartOption) (TraceContext, trace.Span) {
	ctx, span := th.Tracer.Start(traceCtx.Context(), spanName, opts...)
	return TraceContext{ctx: ctx}, span
}

// ContextFromStub extracts a remote trace context from the transient map of
// the proposal, if the client put one there.
func (th *TracingHandler) ContextFromStub(stub shim.ChaincodeStubInterface) TraceContext {
	traceCtx := TraceContext{ctx: context.Background()}

	transientMap, err := stub.GetTransient()
	if err != nil {
		return traceCtx
	}

	carrier := carrierFromTransient(transientMap, th.Propagators)
	traceCtx.ctx = th.Propagators.Extract(context.Background(), carrier)
	return traceCtx
}
