package rangecoder

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'rangecoder'. Only lifecycle operations
// (init, expand, scale, flush, restore) call it; the per-symbol
// EncodeSymbol/DecodeSymbol hot path never does.
func tracer() tracing.Trace {
	return tracing.Select("rangecoder")
}
