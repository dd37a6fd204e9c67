package rangecoder

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/dvlachos/rangecoder/bitio"
)

func encodeSymbols[P Unsigned, R Unsigned](t *testing.T, n int, symbols []int) []byte {
	t.Helper()
	var buf bytes.Buffer
	bw := bitio.NewWriter(&buf)
	var enc Encoder[P, R]
	if err := enc.Init(n, bw); err != nil {
		t.Fatalf("encoder Init: %v", err)
	}
	for _, s := range symbols {
		if err := enc.EncodeSymbol(s); err != nil {
			t.Fatalf("EncodeSymbol(%d): %v", s, err)
		}
	}
	if err := enc.Flush(false); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func decodeSymbols[P Unsigned, R Unsigned](t *testing.T, n int, data []byte, count int) []int {
	t.Helper()
	br := bitio.NewReader(bytes.NewReader(data))
	var dec Decoder[P, R]
	if err := dec.Init(n, br); err != nil {
		t.Fatalf("decoder Init: %v", err)
	}
	out := make([]int, count)
	for i := range out {
		s, err := dec.DecodeSymbol()
		if err != nil {
			t.Fatalf("DecodeSymbol: %v", err)
		}
		out[i] = s
	}
	return out
}

// TestRoundTripSingletonAlphabet is spec.md §8 boundary scenario 1: a
// single-symbol alphabet degenerates to an interval that never narrows
// below the whole window.
func TestRoundTripSingletonAlphabet(t *testing.T) {
	symbols := []int{0, 0, 0, 0}
	data := encodeSymbols[uint16, uint32](t, 1, symbols)
	got := decodeSymbols[uint16, uint32](t, 1, data, len(symbols))
	if !reflect.DeepEqual(got, symbols) {
		t.Fatalf("got %v, want %v", got, symbols)
	}
}

// TestRoundTripUniformBinaryAlternating is scenario 2: a binary alphabet
// with an alternating sequence, the minimal case that exercises both
// halves of the interval repeatedly.
func TestRoundTripUniformBinaryAlternating(t *testing.T) {
	symbols := make([]int, 16)
	for i := range symbols {
		symbols[i] = i % 2
	}
	data := encodeSymbols[uint16, uint32](t, 2, symbols)
	got := decodeSymbols[uint16, uint32](t, 2, data, len(symbols))
	if !reflect.DeepEqual(got, symbols) {
		t.Fatalf("got %v, want %v", got, symbols)
	}
}

// TestRoundTripEOFFramedByteStream is scenario 3: a byte alphabet plus a
// dedicated EOF symbol, the convention cmd/arcode uses for streaming.
func TestRoundTripEOFFramedByteStream(t *testing.T) {
	const eof = 256
	msg := []byte("Hello")
	symbols := make([]int, 0, len(msg)+1)
	for _, b := range msg {
		symbols = append(symbols, int(b))
	}
	symbols = append(symbols, eof)

	data := encodeSymbols[uint16, uint32](t, eof+1, symbols)

	br := bitio.NewReader(bytes.NewReader(data))
	var dec Decoder[uint16, uint32]
	if err := dec.Init(eof+1, br); err != nil {
		t.Fatal(err)
	}
	var got []byte
	for {
		s, err := dec.DecodeSymbol()
		if err != nil {
			t.Fatal(err)
		}
		if s == eof {
			break
		}
		got = append(got, byte(s))
	}
	if string(got) != "Hello" {
		t.Fatalf("got %q, want %q", got, "Hello")
	}
}

// TestRoundTripScalingFires is scenario 4: enough repetitions of one
// symbol to cross MAX_TOTAL (16384 for a 16-bit probability word) and
// force at least one halve-and-repair pass mid-stream.
func TestRoundTripScalingFires(t *testing.T) {
	const n = 4
	const reps = 16384 + 100
	symbols := make([]int, reps)
	for i := range symbols {
		symbols[i] = 0
	}
	data := encodeSymbols[uint16, uint32](t, n, symbols)
	got := decodeSymbols[uint16, uint32](t, n, data, len(symbols))
	if !reflect.DeepEqual(got, symbols) {
		t.Fatal("round trip mismatch after scaling fired")
	}
}

// TestRoundTripExpandMidStream is scenario 6: the alphabet grows partway
// through the stream, and both sides must apply the identical expand.
func TestRoundTripExpandMidStream(t *testing.T) {
	var buf bytes.Buffer
	bw := bitio.NewWriter(&buf)
	var enc Encoder[uint16, uint32]
	if err := enc.Init(4, bw); err != nil {
		t.Fatal(err)
	}
	for _, s := range []int{0, 1, 2, 3} {
		if err := enc.EncodeSymbol(s); err != nil {
			t.Fatal(err)
		}
	}
	if err := enc.Expand(8); err != nil {
		t.Fatal(err)
	}
	for _, s := range []int{4, 5, 6, 7} {
		if err := enc.EncodeSymbol(s); err != nil {
			t.Fatal(err)
		}
	}
	if err := enc.Flush(false); err != nil {
		t.Fatal(err)
	}
	if err := bw.Close(); err != nil {
		t.Fatal(err)
	}

	br := bitio.NewReader(&buf)
	var dec Decoder[uint16, uint32]
	if err := dec.Init(4, br); err != nil {
		t.Fatal(err)
	}
	got := make([]int, 0, 8)
	for i := 0; i < 4; i++ {
		s, err := dec.DecodeSymbol()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, s)
	}
	if err := dec.Expand(8); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		s, err := dec.DecodeSymbol()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, s)
	}

	want := []int{0, 1, 2, 3, 4, 5, 6, 7}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// TestRoundTripWide32Bit checks the Encoder[uint32, uint64]/Decoder[uint32,
// uint64] instantiation cmd/arcode uses for -width=32.
func TestRoundTripWide32Bit(t *testing.T) {
	symbols := []int{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8, 9, 7, 9}
	data := encodeSymbols[uint32, uint64](t, 10, symbols)
	got := decodeSymbols[uint32, uint64](t, 10, data, len(symbols))
	if !reflect.DeepEqual(got, symbols) {
		t.Fatalf("got %v, want %v", got, symbols)
	}
}
