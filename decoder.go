package rangecoder

import "github.com/pkg/errors"

// BitReader is the range coder's external bit-source capability (spec.md
// §6): consume nbits bits, MSB-first, and return them right-aligned. A
// conforming implementation must accept nbits = 1 for refill, and return
// zero bits past EOF rather than an error; bitio.Reader is one.
type BitReader interface {
	ReadBits(nbits uint) (uint64, error)
}

// Decoder mirrors Encoder: it pre-loads a code register from a BitReader,
// identifies the symbol whose sub-interval contains the code, narrows the
// interval, and refills bits, per spec.md §4.4.
type Decoder[P Unsigned, R Unsigned] struct {
	w         widths
	model     *FrequencyModel[P]
	low, high R
	code      R
	tmpRange  R
	reader    BitReader
}

// DecoderSnapshot is a deep copy of a Decoder's state, produced by
// SaveState and consumed by RestoreState.
type DecoderSnapshot[P Unsigned, R Unsigned] struct {
	model     *FrequencyModel[P]
	low, high R
	code      R
	tmpRange  R
}

// Init allocates the adaptive model for an n-symbol alphabet, resets the
// interval, binds the reader, and pre-loads the W-bit code window.
func (d *Decoder[P, R]) Init(n int, r BitReader) error {
	if n <= 0 {
		return errors.Wrap(ErrInvalidArgument, "init: alphabet size must be positive")
	}
	if r == nil {
		return errors.Wrap(ErrInvalidArgument, "init: reader must not be nil")
	}
	ws, err := checkWidths[P, R]()
	if err != nil {
		return errors.Wrap(err, "init")
	}

	d.w = ws
	d.model = newFrequencyModel[P](n, ws.maxTotal)
	d.low = 0
	d.high = R(ws.windowMask)
	d.tmpRange = 0
	d.reader = r

	code, err := d.preloadCode(ws)
	if err != nil {
		return errors.Wrap(err, "init")
	}
	d.code = code

	tracer().Infof("decoder init n=%d w=%d", n, ws.w)
	return nil
}

// InitWithFrequencies is the static-table mirror of
// Encoder.InitWithFrequencies: both sides must seed the same counts,
// transmitted out-of-band (see static.Header).
func (d *Decoder[P, R]) InitWithFrequencies(counts []uint32, r BitReader) error {
	if len(counts) == 0 {
		return errors.Wrap(ErrInvalidArgument, "init: counts must not be empty")
	}
	if r == nil {
		return errors.Wrap(ErrInvalidArgument, "init: reader must not be nil")
	}
	ws, err := checkWidths[P, R]()
	if err != nil {
		return errors.Wrap(err, "init")
	}

	d.w = ws
	d.model = newFrequencyModelFromCounts[P](counts, ws.maxTotal)
	d.low = 0
	d.high = R(ws.windowMask)
	d.tmpRange = 0
	d.reader = r

	code, err := d.preloadCode(ws)
	if err != nil {
		return errors.Wrap(err, "init")
	}
	d.code = code

	tracer().Infof("decoder init (static) n=%d w=%d", len(counts), ws.w)
	return nil
}

func (d *Decoder[P, R]) preloadCode(ws widths) (R, error) {
	var code uint64
	for i := uint(0); i < ws.w; i++ {
		bit, err := d.reader.ReadBits(1)
		if err != nil {
			return 0, errors.Wrap(ErrStreamFault, err.Error())
		}
		code = (code << 1) | bit
	}
	return R(code), nil
}

// Expand grows the alphabet to newN symbols; newN must exceed the current
// alphabet size. It mirrors the encoder's fill scheme rather than the
// source decoder's restart-from-zero fill (SPEC_FULL.md §9, decision 1).
func (d *Decoder[P, R]) Expand(newN int) error {
	if d.model == nil {
		return errors.Wrap(ErrInvalidArgument, "expand: decoder not initialized")
	}
	if err := d.model.expand(newN); err != nil {
		if errors.Is(err, ErrOutOfMemory) {
			return errors.Wrap(err, "expand")
		}
		return errors.Wrap(ErrInvalidArgument, err.Error())
	}
	tracer().Infof("decoder expand n=%d", newN)
	return nil
}

// DecodeSymbol identifies the symbol whose sub-interval contains the
// current code, narrows the interval, refills consumed bits, and updates
// the model, returning the decoded symbol.
func (d *Decoder[P, R]) DecodeSymbol() (int, error) {
	if d.model == nil {
		return 0, errors.Wrap(ErrInvalidArgument, "decoder not initialized")
	}

	tot := d.model.Total()
	rng := uint64(d.high-d.low) + 1
	d.tmpRange = R(rng)
	q := (((uint64(d.code-d.low) + 1) * tot) - 1) / rng

	s := d.model.lookup(q)

	lo := d.model.FreqLow(s)
	hi := d.model.FreqHigh(s)
	d.high = d.low + R(rng*hi/tot) - 1
	d.low = d.low + R(rng*lo/tot)

	for {
		if uint64(d.high)&d.w.hiBit == uint64(d.low)&d.w.hiBit {
			// no output on the decode side
		} else if uint64(d.low)&d.w.lowBit != 0 && uint64(d.high)&d.w.lowBit == 0 {
			d.code ^= R(d.w.lowBit)
			d.low &= R(d.w.lowBitMask)
			d.high |= R(d.w.lowBit)
		} else {
			break
		}

		d.low = (d.low << 1) & R(d.w.windowMask)
		d.high = ((d.high << 1) | 1) & R(d.w.windowMask)

		bit, err := d.reader.ReadBits(1)
		if err != nil {
			return s, errors.Wrap(ErrStreamFault, err.Error())
		}
		d.code = ((d.code << 1) | R(bit)) & R(d.w.windowMask)
	}

	d.model.update(s)
	d.model.maybeScale()

	return s, nil
}

// SaveState returns a deep copy of the decoder's state.
func (d *Decoder[P, R]) SaveState() *DecoderSnapshot[P, R] {
	if d.model == nil {
		return nil
	}
	return &DecoderSnapshot[P, R]{
		model:    d.model.clone(),
		low:      d.low,
		high:     d.high,
		code:     d.code,
		tmpRange: d.tmpRange,
	}
}

// RestoreState restores the decoder from a snapshot produced by SaveState.
// Restoring with a mismatched alphabet size reallocates the model table.
func (d *Decoder[P, R]) RestoreState(state *DecoderSnapshot[P, R], cleanup bool) error {
	if state == nil {
		return errors.Wrap(ErrInvalidArgument, "restore_state: state must not be nil")
	}

	if d.model == nil || d.model.N() != state.model.N() {
		d.model = state.model.clone()
	} else {
		copy(d.model.table, state.model.table)
	}
	d.low = state.low
	d.high = state.high
	d.code = state.code
	d.tmpRange = state.tmpRange

	tracer().Debugf("decoder restore_state cleanup=%v", cleanup)
	return nil
}
