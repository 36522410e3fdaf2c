package telemetry

import (
	"go.opentelemetry.io/otel/propagation"
)

// TraceHeaders packs the trace headers of carrier into transient map entries,
// the way a client attaches them to a proposal.
func TraceHeaders(carrier propagation.MapCarrier) map[string][]byte {
	transient := make(map[string][]byte, len(carrier))
	for _, k := range carrier.Keys() {
		transient[k] = []byte(carrier.Get(k))
	}
	return transient
}

// carrierFromTransient picks the fields known to propagator out of a transient
// map. The rest, like the value of a bare transfer, stays out of the carrier.
func carrierFromTransient(transient map[string][]byte, propagator propagation.TextMapPropagator) propagation.MapCarrier {
	carrier := propagation.MapCarrier{}
	for _, field := range propagator.Fields() {
		if v, ok := transient[field]; ok {
			carrier.Set(field, string(v))
		}
	}
	return carrier
}
