package rangecoder

import "github.com/pkg/errors"

// BitWriter is the range coder's external bit-sink capability (spec.md
// §6): append the low nbits of value, MSB-first within the field. A
// conforming implementation must accept nbits up to 64; bitio.Writer is one.
type BitWriter interface {
	WriteBits(value uint64, nbits uint) error
}

// Encoder narrows [low, high) for each symbol and emits the stabilized
// leading bits to a BitWriter, per spec.md §4.2-§4.3.
type Encoder[P Unsigned, R Unsigned] struct {
	w         widths
	model     *FrequencyModel[P]
	low, high R
	underflow R
	tmpRange  R
	flushed   bool
	writer    BitWriter
}

// EncoderSnapshot is a deep copy of an Encoder's state, produced by
// SaveState and consumed by RestoreState.
type EncoderSnapshot[P Unsigned, R Unsigned] struct {
	model     *FrequencyModel[P]
	low, high R
	underflow R
	tmpRange  R
	flushed   bool
}

// Init allocates the adaptive model for an n-symbol alphabet, resets the
// interval and underflow counter, and binds the writer. It must be called
// before any other Encoder method.
func (e *Encoder[P, R]) Init(n int, w BitWriter) error {
	if n <= 0 {
		return errors.Wrap(ErrInvalidArgument, "init: alphabet size must be positive")
	}
	if w == nil {
		return errors.Wrap(ErrInvalidArgument, "init: writer must not be nil")
	}
	ws, err := checkWidths[P, R]()
	if err != nil {
		return errors.Wrap(err, "init")
	}

	e.w = ws
	e.model = newFrequencyModel[P](n, ws.maxTotal)
	e.low = 0
	e.high = R(ws.windowMask)
	e.underflow = 0
	e.tmpRange = 0
	e.flushed = false
	e.writer = w

	tracer().Infof("encoder init n=%d w=%d", n, ws.w)
	return nil
}

// InitWithFrequencies is the static-table variant (SPEC_FULL.md §7): it
// seeds the cumulative table from per-symbol occurrence counts instead of
// the uniform adaptive start. Coding still adapts the table further as
// symbols are coded, matching original_source/example_static.cpp's reuse of
// the adaptive encode_symbol against a pre-seeded table.
func (e *Encoder[P, R]) InitWithFrequencies(counts []uint32, w BitWriter) error {
	if len(counts) == 0 {
		return errors.Wrap(ErrInvalidArgument, "init: counts must not be empty")
	}
	if w == nil {
		return errors.Wrap(ErrInvalidArgument, "init: writer must not be nil")
	}
	ws, err := checkWidths[P, R]()
	if err != nil {
		return errors.Wrap(err, "init")
	}

	e.w = ws
	e.model = newFrequencyModelFromCounts[P](counts, ws.maxTotal)
	e.low = 0
	e.high = R(ws.windowMask)
	e.underflow = 0
	e.tmpRange = 0
	e.flushed = false
	e.writer = w

	tracer().Infof("encoder init (static) n=%d w=%d", len(counts), ws.w)
	return nil
}

// Expand grows the alphabet to newN symbols; newN must exceed the current
// alphabet size.
func (e *Encoder[P, R]) Expand(newN int) error {
	if e.model == nil {
		return errors.Wrap(ErrInvalidArgument, "expand: encoder not initialized")
	}
	if err := e.model.expand(newN); err != nil {
		if errors.Is(err, ErrOutOfMemory) {
			return errors.Wrap(err, "expand")
		}
		return errors.Wrap(ErrInvalidArgument, err.Error())
	}
	tracer().Infof("encoder expand n=%d", newN)
	return nil
}

// EncodeSymbol narrows the interval for s, runs renormalization (emitting
// bits to the bound writer), and updates the model. s must be in [0, N).
func (e *Encoder[P, R]) EncodeSymbol(s int) error {
	_, err := e.rangeCode(s, false)
	return err
}

// EstimateCost simulates encoding s: it runs the identical renormalization
// steps and returns the number of bits that would have been emitted,
// without writing. The model is still updated, exactly as encode_symbol
// would; callers that want to keep the model unchanged must bracket the
// call with SaveState/RestoreState (or use EstimateCostSafe).
func (e *Encoder[P, R]) EstimateCost(s int) (uint64, error) {
	return e.rangeCode(s, true)
}

// EstimateCostBuffer simulates encoding a sequence of symbols, stopping
// early once the accumulated cost exceeds limit.
func (e *Encoder[P, R]) EstimateCostBuffer(symbols []int, limit uint64) (uint64, error) {
	var cost uint64
	for _, s := range symbols {
		c, err := e.rangeCode(s, true)
		if err != nil {
			return cost, err
		}
		cost += c
		if cost > limit {
			break
		}
	}
	return cost, nil
}

// EstimateCostSafe simulates encoding s and reverts the model afterward,
// removing the foot-gun in EstimateCost's contract (SPEC_FULL.md §7).
func (e *Encoder[P, R]) EstimateCostSafe(s int) (uint64, error) {
	snapshot := e.SaveState()
	cost, err := e.rangeCode(s, true)
	if restoreErr := e.RestoreState(snapshot, true); restoreErr != nil {
		if err == nil {
			err = restoreErr
		}
	}
	return cost, err
}

// Flush emits the terminating bits exactly once: it increments underflow
// by one, emits the second-MSB of low (the bit that uniquely identifies
// the final interval at half precision), then emits underflow copies of
// the complementary bit. Calling it again is a no-op unless force is true.
func (e *Encoder[P, R]) Flush(force bool) error {
	if e.model == nil {
		return errors.Wrap(ErrInvalidArgument, "flush: encoder not initialized")
	}
	if e.flushed && !force {
		return nil
	}

	e.underflow++
	bit := (uint64(e.low) >> e.w.lowBitPos) & 1
	if err := e.writer.WriteBits(bit, 1); err != nil {
		return errors.Wrap(ErrStreamFault, err.Error())
	}
	if err := e.emitUnderflowTail(bit ^ 1); err != nil {
		return err
	}
	e.underflow = 0
	e.flushed = true

	tracer().Debugf("encoder flush")
	return nil
}

// SaveState returns a deep copy of the encoder's state.
func (e *Encoder[P, R]) SaveState() *EncoderSnapshot[P, R] {
	if e.model == nil {
		return nil
	}
	return &EncoderSnapshot[P, R]{
		model:     e.model.clone(),
		low:       e.low,
		high:      e.high,
		underflow: e.underflow,
		tmpRange:  e.tmpRange,
		flushed:   e.flushed,
	}
}

// RestoreState restores the encoder from a snapshot produced by SaveState.
// cleanup is accepted for parity with the source's explicit delete_state
// contract and does not change the snapshot, which stays intact and can be
// restored again; Go's GC reclaims it once it is unreferenced. Restoring
// with a mismatched alphabet size reallocates the model table.
func (e *Encoder[P, R]) RestoreState(state *EncoderSnapshot[P, R], cleanup bool) error {
	if state == nil {
		return errors.Wrap(ErrInvalidArgument, "restore_state: state must not be nil")
	}

	if e.model == nil || e.model.N() != state.model.N() {
		e.model = state.model.clone()
	} else {
		copy(e.model.table, state.model.table)
	}
	e.low = state.low
	e.high = state.high
	e.underflow = state.underflow
	e.tmpRange = state.tmpRange
	e.flushed = state.flushed

	tracer().Debugf("encoder restore_state cleanup=%v", cleanup)
	return nil
}

// rangeCode narrows the interval for symbol s and runs the shared
// renormalization loop (spec.md §4.2). When simulate is true, no bits are
// written; the returned cost is the number of bits that would have been.
func (e *Encoder[P, R]) rangeCode(s int, simulate bool) (uint64, error) {
	if e.model == nil {
		return 0, errors.Wrap(ErrInvalidArgument, "encoder not initialized")
	}
	if s < 0 || s >= e.model.N() {
		return 0, errors.Wrapf(ErrSymbolOutOfRange, "symbol %d not in [0,%d)", s, e.model.N())
	}

	lo := e.model.FreqLow(s)
	hi := e.model.FreqHigh(s)
	tot := e.model.Total()

	rng := uint64(e.high-e.low) + 1
	e.tmpRange = R(rng)
	e.high = e.low + R(rng*hi/tot) - 1
	e.low = e.low + R(rng*lo/tot)

	var cost uint64
	for {
		if uint64(e.high)&e.w.hiBit == uint64(e.low)&e.w.hiBit {
			cost += uint64(e.underflow) + 1
			if !simulate {
				bit := uint64(e.high) >> e.w.hiBitPos
				if err := e.writer.WriteBits(bit, 1); err != nil {
					return cost, errors.Wrap(ErrStreamFault, err.Error())
				}
				if err := e.emitUnderflowTail(bit ^ 1); err != nil {
					return cost, err
				}
			}
			e.underflow = 0
		} else if uint64(e.low)&e.w.lowBit != 0 && uint64(e.high)&e.w.lowBit == 0 {
			e.underflow++
			e.low &= R(e.w.lowBitMask)
			e.high |= R(e.w.lowBit)
		} else {
			break
		}

		e.low = (e.low << 1) & R(e.w.windowMask)
		e.high = ((e.high << 1) | 1) & R(e.w.windowMask)
	}

	e.model.update(s)
	e.model.maybeScale()

	return cost, nil
}

// emitUnderflowTail writes underflow copies of bit, batched up to 64 at a
// time the way scalable_ac.hpp's flush/range_code do, instead of one
// WriteBits(1) call per pending bit.
func (e *Encoder[P, R]) emitUnderflowTail(bit uint64) error {
	var mask uint64
	if bit != 0 {
		mask = ^uint64(0)
	}
	remaining := uint64(e.underflow)
	for remaining >= 64 {
		if err := e.writer.WriteBits(mask, 64); err != nil {
			return errors.Wrap(ErrStreamFault, err.Error())
		}
		remaining -= 64
	}
	if remaining > 0 {
		if err := e.writer.WriteBits(mask, uint(remaining)); err != nil {
			return errors.Wrap(ErrStreamFault, err.Error())
		}
	}
	return nil
}
