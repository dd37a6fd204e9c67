package rangecoder

import "github.com/pkg/errors"

// FrequencyModel is the cumulative-frequency table of spec.md §3-§4.1:
// table[0] == 0, table[i] < table[i+1] for every i in [0, n), and table[n]
// is the current total. Valid symbols are 0..n-1; indices 0..n are table
// slots.
type FrequencyModel[P Unsigned] struct {
	table    []P
	n        int
	maxTotal uint64
}

// newFrequencyModel builds the adaptive initial model: table[i] = i, so
// every symbol starts with weight 1 and total = n.
func newFrequencyModel[P Unsigned](n int, maxTotal uint64) *FrequencyModel[P] {
	table := make([]P, n+1)
	for i := range table {
		table[i] = P(i)
	}
	return &FrequencyModel[P]{table: table, n: n, maxTotal: maxTotal}
}

// newFrequencyModelFromCounts seeds the cumulative table from per-symbol
// occurrence counts, for the static-table variant (SPEC_FULL.md §7). A
// symbol with a zero count is given weight 1 so the strict-monotone
// invariant still holds; the source never specifies this case. If the raw
// counts sum to maxTotal or more — possible for a uint16 instantiation fed
// a large payload — every weight is halved, with a floor of 1, until they
// fit, so the seeded table still satisfies P[n] < maxTotal before a single
// symbol is coded.
func newFrequencyModelFromCounts[P Unsigned](counts []uint32, maxTotal uint64) *FrequencyModel[P] {
	n := len(counts)
	weights := make([]uint64, n)
	var total uint64
	for i, c := range counts {
		w := uint64(c)
		if w == 0 {
			w = 1
		}
		weights[i] = w
		total += w
	}

	for total >= maxTotal {
		total = 0
		for i, w := range weights {
			w >>= 1
			if w == 0 {
				w = 1
			}
			weights[i] = w
			total += w
		}
	}

	table := make([]P, n+1)
	var cum uint64
	for i, w := range weights {
		table[i] = P(cum)
		cum += w
	}
	table[n] = P(cum)
	return &FrequencyModel[P]{table: table, n: n, maxTotal: maxTotal}
}

// N returns the alphabet size.
func (m *FrequencyModel[P]) N() int { return m.n }

// FreqLow returns P[s].
func (m *FrequencyModel[P]) FreqLow(s int) uint64 { return uint64(m.table[s]) }

// FreqHigh returns P[s+1].
func (m *FrequencyModel[P]) FreqHigh(s int) uint64 { return uint64(m.table[s+1]) }

// Total returns P[n], the current sum of all symbol weights.
func (m *FrequencyModel[P]) Total() uint64 { return uint64(m.table[m.n]) }

// update adds 1 to table[s+1..n], widening s's own interval and shifting
// every subsequent symbol's cumulative bound up by one.
func (m *FrequencyModel[P]) update(s int) {
	for i := s + 1; i <= m.n; i++ {
		m.table[i]++
	}
}

// maybeScale halves the table when the total has reached maxTotal, per
// spec.md's MAX_TOTAL scale threshold.
func (m *FrequencyModel[P]) maybeScale() {
	if m.Total() >= m.maxTotal {
		tracer().Debugf("model scale total=%d", m.Total())
		m.scale()
	}
}

// scale is the halve-and-repair pass: each new value is the old value
// halved, but must remain strictly greater than its already-rewritten
// predecessor. table[0] stays 0.
func (m *FrequencyModel[P]) scale() {
	prev := m.table[0]
	for i := 1; i <= m.n; i++ {
		curr := m.table[i] >> 1
		if curr <= prev {
			curr = prev + 1
		}
		m.table[i] = curr
		prev = curr
	}
}

// expand grows the alphabet to newN symbols. Existing weights, and the
// preserved total at table[n], are left untouched; new slots are stacked
// above that total at weight 1 each (table[i] = table[i-1] + 1), so the
// table stays strictly monotone regardless of how far coding has already
// pushed the total above n. Used for both encoder and decoder per
// SPEC_FULL.md §9's Open Question decision.
func (m *FrequencyModel[P]) expand(newN int) error {
	if newN <= m.n {
		return errors.Errorf("new alphabet size %d must exceed current size %d", newN, m.n)
	}
	if newN+1 <= newN {
		return errors.Wrap(ErrOutOfMemory, "expand: alphabet size overflows int")
	}
	table := make([]P, newN+1)
	copy(table, m.table)
	for i := m.n + 1; i <= newN; i++ {
		table[i] = table[i-1] + 1
	}
	m.table = table
	m.n = newN
	return nil
}

// lookup finds the unique s with table[s] <= q < table[s+1], scanning down
// from the top the way scalable_adc.hpp::decode_symbol does.
func (m *FrequencyModel[P]) lookup(q uint64) int {
	s := m.n - 1
	if s < 0 {
		s = 0
	}
	for s > 0 && uint64(m.table[s]) > q {
		s--
	}
	return s
}

// clone deep-copies the table for save_state/restore_state snapshots.
func (m *FrequencyModel[P]) clone() *FrequencyModel[P] {
	table := make([]P, len(m.table))
	copy(table, m.table)
	return &FrequencyModel[P]{table: table, n: m.n, maxTotal: m.maxTotal}
}
