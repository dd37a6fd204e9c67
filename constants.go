package rangecoder

import (
	"unsafe"

	"github.com/pkg/errors"
)

// Unsigned constrains both of the coder's integer type parameters: P, the
// probability/cumulative-table word, and R, the range register.
type Unsigned interface {
	~uint16 | ~uint32 | ~uint64
}

// widths holds the constants derived from the probability width W, per
// spec.md §3. They are computed once per Init/InitWithFrequencies call from
// the bit width of P, mirroring the C++ source's sizeof(probability_type_t).
type widths struct {
	w          uint
	hiBitPos   uint
	hiBit      uint64
	lowBitPos  uint
	lowBit     uint64
	windowMask uint64
	lowBitMask uint64
	maxTotal   uint64
}

func deriveWidths[P Unsigned]() widths {
	var zero P
	w := uint(unsafe.Sizeof(zero)) * 8
	hiBitPos := w - 1
	lowBitPos := w - 2
	hiBit := uint64(1) << hiBitPos
	lowBit := uint64(1) << lowBitPos
	windowMask := uint64(1)<<w - 1
	return widths{
		w:          w,
		hiBitPos:   hiBitPos,
		hiBit:      hiBit,
		lowBitPos:  lowBitPos,
		lowBit:     lowBit,
		windowMask: windowMask,
		lowBitMask: lowBit - 1,
		maxTotal:   lowBit,
	}
}

// checkWidths derives the constants for P and asserts that R is wide enough
// to hold a range-by-frequency product, per the design note in spec.md §9
// ("Runtime checks can assert R ≥ W + 2").
func checkWidths[P Unsigned, R Unsigned]() (widths, error) {
	w := deriveWidths[P]()
	if w.w < 3 {
		return widths{}, errors.Wrapf(ErrInvalidArgument, "probability width %d bits is too narrow (need ≥ 3)", w.w)
	}

	var rzero R
	rbits := uint(unsafe.Sizeof(rzero)) * 8
	if rbits < w.w+2 {
		return widths{}, errors.Wrapf(ErrInvalidArgument, "range register width %d bits is too narrow for probability width %d bits (need ≥ %d)", rbits, w.w, w.w+2)
	}

	return w, nil
}
