// Package bitmap tracks which blocks of a mounted image are free.
//
// The free-block set has a fixed, known-at-mount size and never touches
// disk itself, so it is kept as a single packed bitset entirely in
// memory, discarded at unmount.
package bitmap

import (
	"math/bits"

	"github.com/chzyer/logex"
)

const wordBits = 64

var (
	// ErrOutOfRange is returned by Release when the block index falls
	// outside the bitmap's range.
	ErrOutOfRange = logex.Define("bitmap: block index out of range")
)

// Bitmap is a set of free block indices in [0, N).
type Bitmap struct {
	words []uint64
	n     int
}

// New returns a bitmap over n blocks with every block marked free.
func New(n int) *Bitmap {
	b := &Bitmap{
		words: make([]uint64, (n+wordBits-1)/wordBits),
		n:     n,
	}
	for i := range b.words {
		b.words[i] = ^uint64(0)
	}
	b.clearTail()
	return b
}

// clearTail zeroes bits beyond n in the last word so Allocate never
// returns an out-of-range index.
func (b *Bitmap) clearTail() {
	if b.n%wordBits == 0 {
		return
	}
	last := len(b.words) - 1
	valid := uint(b.n % wordBits)
	b.words[last] &= (uint64(1) << valid) - 1
}

// Len returns the number of blocks tracked.
func (b *Bitmap) Len() int { return b.n }

// Free reports whether block i is currently free.
func (b *Bitmap) Free(i int) bool {
	return b.words[i/wordBits]&(uint64(1)<<uint(i%wordBits)) != 0
}

func (b *Bitmap) set(i int, free bool) {
	word, bit := i/wordBits, uint(i%wordBits)
	if free {
		b.words[word] |= uint64(1) << bit
	} else {
		b.words[word] &^= uint64(1) << bit
	}
}

// Reserve marks block i as used without requiring it to have been free,
// used while reconstructing the bitmap from the on-disk inode graph and
// while marking the superblock/inode-table region used at mount.
func (b *Bitmap) Reserve(i int) {
	b.set(i, false)
}

// Allocate returns the lowest-indexed free block, marks it used, and
// returns its index. It returns -1 if no block is free.
func (b *Bitmap) Allocate() int {
	for w, word := range b.words {
		if word == 0 {
			continue
		}
		bit := bits.TrailingZeros64(word)
		idx := w*wordBits + bit
		if idx >= b.n {
			return -1
		}
		b.words[w] &^= uint64(1) << uint(bit)
		return idx
	}
	return -1
}

// Release marks block i as free again. Callers must not release a block
// that is reserved (superblock/inode table) or already free — the
// result in that case is undefined.
func (b *Bitmap) Release(i int) error {
	if i < 0 || i >= b.n {
		return ErrOutOfRange.Trace(i)
	}
	b.set(i, true)
	return nil
}
