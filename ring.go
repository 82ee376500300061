//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package mpc

// Ring implements a FIFO queue as push/pop cursors over a
// contiguous arena. Results of batched protocol operations are
// drained from it in strict insertion order.
type Ring[T any] struct {
	buf  []T
	head int
	tail int
}

// Push appends v to the queue.
func (r *Ring[T]) Push(v T) {
	if r.tail == len(r.buf) {
		r.grow()
	}
	r.buf[r.tail] = v
	r.tail++
}

func (r *Ring[T]) grow() {
	n := len(r.buf) - r.head
	if r.head > 0 && n*2 <= len(r.buf) {
		// Reclaim popped slots.
		copy(r.buf, r.buf[r.head:r.tail])
	} else {
		size := len(r.buf) * 2
		if size < 64 {
			size = 64
		}
		buf := make([]T, size)
		copy(buf, r.buf[r.head:r.tail])
		r.buf = buf
	}
	r.head = 0
	r.tail = n
}

// Pop removes and returns the oldest queued value. The second
// return value is false if the queue is empty.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T
	if r.head == r.tail {
		return zero, false
	}
	v := r.buf[r.head]
	r.buf[r.head] = zero
	r.head++
	return v, true
}

// Len returns the number of queued values.
func (r *Ring[T]) Len() int {
	return r.tail - r.head
}

// Reset empties the queue keeping the arena.
func (r *Ring[T]) Reset() {
	var zero T
	for i := r.head; i < r.tail; i++ {
		r.buf[i] = zero
	}
	r.head = 0
	r.tail = 0
}
