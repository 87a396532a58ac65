// Package arena provides a typed bulk allocator for mesh elements. Elements live in
// fixed-size blocks that are never relocated, so handles (and pointers obtained through
// them) stay valid for the lifetime of the arena. Deletion only tombstones a slot; the
// slot is queued for reuse and handed out again, zeroed, by a later allocation.
package arena

import (
	"fmt"
	"iter"
)

// DefaultBlockSize is the number of slots added each time an arena grows.
const DefaultBlockSize = 1024

// Arena stores values of type T addressed by handles of type H.
type Arena[H ~int32, T any] struct {
	blockSize int
	blocks    [][]T
	deleted   [][]bool

	// next is the high-water mark: slots [0, next) have been handed out at least once.
	next int
	size int

	// freed is a FIFO of tombstoned slots waiting to be reused.
	freed     []H
	freedHead int
}

// New returns an empty arena using DefaultBlockSize.
func New[H ~int32, T any]() *Arena[H, T] {
	return NewWithBlockSize[H, T](DefaultBlockSize)
}

// NewWithBlockSize returns an empty arena that grows by blockSize slots at a time.
func NewWithBlockSize[H ~int32, T any](blockSize int) *Arena[H, T] {
	if blockSize <= 0 {
		panic(fmt.Sprintf("arena: invalid block size %d", blockSize))
	}
	return &Arena[H, T]{blockSize: blockSize}
}

// Allocate returns a handle to a zero-valued slot along with a pointer to it.
func (a *Arena[H, T]) Allocate() (H, *T) {
	if a.freedHead < len(a.freed) {
		h := a.freed[a.freedHead]
		a.freedHead++
		if a.freedHead == len(a.freed) {
			a.freed = a.freed[:0]
			a.freedHead = 0
		}
		b, i := a.locate(int(h))
		var zero T
		a.blocks[b][i] = zero
		a.deleted[b][i] = false
		a.size++
		return h, &a.blocks[b][i]
	}

	if a.next == a.Cap() {
		a.grow()
	}
	if a.next > int(^uint32(0)>>1) {
		panic("arena: handle space exhausted")
	}
	h := H(a.next)
	a.next++
	a.size++
	b, i := a.locate(int(h))
	return h, &a.blocks[b][i]
}

// AllocateWith allocates a slot and stores v in it.
func (a *Arena[H, T]) AllocateWith(v T) (H, *T) {
	h, p := a.Allocate()
	*p = v
	return h, p
}

func (a *Arena[H, T]) grow() {
	a.blocks = append(a.blocks, make([]T, a.blockSize))
	a.deleted = append(a.deleted, make([]bool, a.blockSize))
}

func (a *Arena[H, T]) locate(idx int) (int, int) {
	return idx / a.blockSize, idx % a.blockSize
}

func (a *Arena[H, T]) checkRange(h H) {
	if h < 0 || int(h) >= a.next {
		panic(fmt.Sprintf("arena: handle %d out of range [0, %d)", h, a.next))
	}
}

// Get returns a pointer to the live element addressed by h. It panics if h is out of
// range or refers to a tombstoned slot.
func (a *Arena[H, T]) Get(h H) *T {
	a.checkRange(h)
	b, i := a.locate(int(h))
	if a.deleted[b][i] {
		panic(fmt.Sprintf("arena: access to deleted handle %d", h))
	}
	return &a.blocks[b][i]
}

// Delete tombstones h and queues its slot for reuse. It returns false if h was already
// deleted.
func (a *Arena[H, T]) Delete(h H) bool {
	a.checkRange(h)
	b, i := a.locate(int(h))
	if a.deleted[b][i] {
		return false
	}
	a.deleted[b][i] = true
	a.freed = append(a.freed, h)
	a.size--
	return true
}

// IsDeleted reports whether h refers to a tombstoned slot.
func (a *Arena[H, T]) IsDeleted(h H) bool {
	a.checkRange(h)
	b, i := a.locate(int(h))
	return a.deleted[b][i]
}

// Valid reports whether h addresses a live element. Unlike Get it never panics.
func (a *Arena[H, T]) Valid(h H) bool {
	if h < 0 || int(h) >= a.next {
		return false
	}
	b, i := a.locate(int(h))
	return !a.deleted[b][i]
}

// Len returns the number of live elements.
func (a *Arena[H, T]) Len() int {
	return a.size
}

// Cap returns the number of slots currently backed by blocks.
func (a *Arena[H, T]) Cap() int {
	return len(a.blocks) * a.blockSize
}

// Slots returns the number of slots ever handed out, live or tombstoned.
func (a *Arena[H, T]) Slots() int {
	return a.next
}

// All yields every live handle together with its element, in slot order. Elements
// allocated or deleted while iterating may or may not be observed.
func (a *Arena[H, T]) All() iter.Seq2[H, *T] {
	return func(yield func(H, *T) bool) {
		for idx := 0; idx < a.next; idx++ {
			b, i := a.locate(idx)
			if a.deleted[b][i] {
				continue
			}
			if !yield(H(idx), &a.blocks[b][i]) {
				return
			}
		}
	}
}

// Handles yields every live handle in slot order.
func (a *Arena[H, T]) Handles() iter.Seq[H] {
	return func(yield func(H) bool) {
		for h := range a.All() {
			if !yield(h) {
				return
			}
		}
	}
}
