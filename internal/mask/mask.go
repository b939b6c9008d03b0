// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mask implements the [0..M] peer bitset used for each
// module's rx/tx masks (spec §3), guarded by its own reader/writer
// lock as the spec requires.
package mask

import (
	"math/bits"
	"sync"
)

const wordBits = 64

// Set is a thread-safe bitset over module identifiers [0..M].
type Set struct {
	mu    sync.RWMutex
	words []uint64
}

// New creates a Set able to hold identifiers in [0..maxID].
func New(maxID int) *Set {
	return &Set{words: make([]uint64, maxID/wordBits+1)}
}

// Contains reports whether id is a member of the set.
func (s *Set) Contains(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.containsLocked(id)
}

func (s *Set) containsLocked(id uint32) bool {
	w := int(id) / wordBits
	if w >= len(s.words) {
		return false
	}
	return s.words[w]&(1<<(uint(id)%wordBits)) != 0
}

// Add inserts id into the set. Returns true if it was newly added.
func (s *Set) Add(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := int(id) / wordBits
	if w >= len(s.words) {
		grown := make([]uint64, w+1)
		copy(grown, s.words)
		s.words = grown
	}
	bit := uint64(1) << (uint(id) % wordBits)
	if s.words[w]&bit != 0 {
		return false
	}
	s.words[w] |= bit
	return true
}

// Union ORs delta's bits into s, returning the identifiers newly set.
func (s *Set) Union(delta *Set) []uint32 {
	delta.mu.RLock()
	deltaWords := make([]uint64, len(delta.words))
	copy(deltaWords, delta.words)
	delta.mu.RUnlock()

	var added []uint32
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(deltaWords) > len(s.words) {
		grown := make([]uint64, len(deltaWords))
		copy(grown, s.words)
		s.words = grown
	}
	for w, word := range deltaWords {
		for word != 0 {
			b := word & -word
			bit := bits.TrailingZeros64(b)
			id := uint32(w*wordBits + bit)
			if s.words[w]&b == 0 {
				s.words[w] |= b
				added = append(added, id)
			}
			word &^= b
		}
	}
	return added
}

// Members returns every identifier currently in the set.
func (s *Set) Members() []uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []uint32
	for w, word := range s.words {
		for word != 0 {
			b := word & -word
			bit := bits.TrailingZeros64(b)
			out = append(out, uint32(w*wordBits+bit))
			word &^= b
		}
	}
	return out
}

// Clear empties the set.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.words {
		s.words[i] = 0
	}
}

