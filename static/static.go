// Package static implements the fixed-frequency-table variant of the range
// coder that spec.md §1 calls out of scope as "a trivial variation of the
// adaptive mode": the symbol distribution is counted once up front and
// transmitted in a header, instead of starting from the uniform adaptive
// weights. Coding itself still goes through the ordinary adaptive
// Encoder/Decoder path and keeps adapting as symbols are coded — only the
// starting point differs.
//
// Grounded on original_source/example_static.cpp's counting pass and
// 32-bit header layout.
package static

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// AlphabetSize is the byte alphabet the static header counts over, matching
// example_static.cpp's fixed 256-entry probs array.
const AlphabetSize = 256

// Header is the fixed preamble written before the coded payload: the
// uncoded payload length, followed by one occurrence count per byte value.
type Header struct {
	Count  uint32
	Counts [AlphabetSize]uint32
}

// CountFrequencies builds a Header from a byte payload, mirroring
// example_static.cpp's counting pass over the input before encoding.
func CountFrequencies(payload []byte) Header {
	var h Header
	h.Count = uint32(len(payload))
	for _, b := range payload {
		h.Counts[b]++
	}
	return h
}

// WriteHeader writes Count followed by the 256 counts, big-endian, so a
// decoder can seed an identical starting model before decoding.
func WriteHeader(w io.Writer, h Header) error {
	if err := binary.Write(w, binary.BigEndian, h.Count); err != nil {
		return errors.Wrap(err, "static: write payload length")
	}
	if err := binary.Write(w, binary.BigEndian, h.Counts); err != nil {
		return errors.Wrap(err, "static: write frequency table")
	}
	return nil
}

// ReadHeader reads a Header written by WriteHeader.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.BigEndian, &h.Count); err != nil {
		return h, errors.Wrap(err, "static: read payload length")
	}
	if err := binary.Read(r, binary.BigEndian, &h.Counts); err != nil {
		return h, errors.Wrap(err, "static: read frequency table")
	}
	return h, nil
}
