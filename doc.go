// Package rangecoder implements a scalable adaptive range coder: a
// carry-less arithmetic coder with E1/E2/E3 underflow expansion, coupled to
// an order-0 adaptive cumulative-frequency model.
//
// The coder is generic over two unsigned integer type parameters: P, the
// probability/cumulative-table word, and R, the range register, which must
// be wide enough to hold the product of a range and a cumulative frequency
// (R's bit width ≥ P's bit width + 2; typically R is twice as wide as P).
// Typical instantiations are Encoder[uint16, uint32] and
// Encoder[uint32, uint64].
//
// The coder does not perform bit or file I/O itself; callers supply a
// BitWriter/BitReader (see bitio for a concrete implementation) and are
// responsible for framing the stream (an EOF symbol, a length prefix, or
// both — see cmd/arcode and static for two worked conventions).
package rangecoder
