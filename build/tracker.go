package build

import "math/bits"

// initTracker is a fixed-width bitset recording which direct sub-slots of a
// frame have been initialized. It answers "is slot i set?" and "are all n
// slots set?"; the frame keeps the initialization order separately.
type initTracker struct {
	words []uint64
	n     int
}

func newTracker(n int) initTracker {
	return initTracker{words: make([]uint64, (n+63)/64), n: n}
}

func (t *initTracker) reset(n int) {
	*t = newTracker(n)
}

func (t *initTracker) set(i int) {
	t.words[i/64] |= 1 << (uint(i) % 64)
}

func (t *initTracker) clear(i int) {
	t.words[i/64] &^= 1 << (uint(i) % 64)
}

func (t *initTracker) isSet(i int) bool {
	if i < 0 || i >= t.n {
		return false
	}
	return t.words[i/64]&(1<<(uint(i)%64)) != 0
}

func (t *initTracker) allSet() bool {
	return t.firstUnset() == -1
}

// firstUnset returns the lowest unset slot index, or -1 when every slot is
// set.
func (t *initTracker) firstUnset() int {
	for w := 0; w < len(t.words); w++ {
		inv := ^t.words[w]
		if w == len(t.words)-1 {
			// Mask the bits beyond n so padding never reads as unset.
			if rem := uint(t.n % 64); rem != 0 {
				inv &= (1 << rem) - 1
			}
		}
		if inv != 0 {
			i := w*64 + bits.TrailingZeros64(inv)
			if i < t.n {
				return i
			}
		}
	}
	return -1
}

func (t *initTracker) countSet() int {
	total := 0
	for _, w := range t.words {
		total += bits.OnesCount64(w)
	}
	return total
}
