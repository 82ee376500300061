//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package prep implements the consumer side of correlated
// randomness preprocessing: tagged buffers of pre-generated items
// that protocol instances drain on demand and a producer contract
// for the engines that generate them. Buffers are refilled before
// exhaustion with batch sizes derived from forecast usage. A buffer
// belongs to a single consuming thread; producers may run on a
// separate worker goroutine behind a bounded work queue.
package prep

import (
	"fmt"
	"math/big"

	mpc "github.com/viethuyvu/MP-SPDZ"
	"github.com/viethuyvu/MP-SPDZ/field"
	"github.com/viethuyvu/MP-SPDZ/prss"
	"github.com/viethuyvu/MP-SPDZ/share"
)

// Kind identifies a correlated randomness item kind.
type Kind int

// Correlated randomness kinds.
const (
	// Triple is a multiplication triple a, b, ab.
	Triple Kind = iota

	// Bit is a random shared bit.
	Bit

	// TruncPair is a truncation mask pair r, r>>shift.
	TruncPair
)

func (k Kind) String() string {
	switch k {
	case Triple:
		return "triple"
	case Bit:
		return "bit"
	case TruncPair:
		return "truncpair"
	default:
		return fmt.Sprintf("{Kind %d}", k)
	}
}

// Tag identifies one buffer: the item kind and, for truncation
// pairs, the mask parameters.
type Tag struct {
	Kind  Kind
	Bits  int
	Shift int
}

func (t Tag) String() string {
	if t.Kind == TruncPair {
		return fmt.Sprintf("%v(%d>>%d)", t.Kind, t.Bits, t.Shift)
	}
	return t.Kind.String()
}

// Item is one correlated randomness item. Triples use all three
// components, truncation pairs A and B, bits only A.
type Item struct {
	A share.Vector
	B share.Vector
	C share.Vector
}

// Producer generates correlated randomness items. The consumed and
// produced shares must be consistent across all parties; how the
// producer achieves that (homomorphic encryption, oblivious
// transfer, a trusted dealer) is outside this contract.
type Producer interface {
	Refill(tag Tag, d *field.Domain, n int) ([]Item, error)
}

type result struct {
	items []Item
	err   error
}

type request struct {
	tag  Tag
	n    int
	resp chan result
}

// Buffer holds the local stock of correlated randomness for one
// consuming thread and one algebraic structure. It is not safe for
// concurrent consumers; every (thread, structure) pair owns its own
// Buffer.
type Buffer struct {
	d        *field.Domain
	producer Producer
	minBatch int

	stocks   map[Tag]*mpc.Ring[Item]
	usage    map[Tag]int64
	sinceRef map[Tag]int64
	forecast map[Tag]int64
	pending  map[Tag]chan result

	reqs chan request
}

// NewBuffer creates a buffer over the argument producer.
func NewBuffer(d *field.Domain, producer Producer, conf *mpc.Config) *Buffer {
	minBatch := conf.MinBatch
	if minBatch < 1 {
		minBatch = 1
	}
	return &Buffer{
		d:        d,
		producer: producer,
		minBatch: minBatch,
		stocks:   make(map[Tag]*mpc.Ring[Item]),
		usage:    make(map[Tag]int64),
		sinceRef: make(map[Tag]int64),
		forecast: make(map[Tag]int64),
		pending:  make(map[Tag]chan result),
	}
}

// StartWorker starts a background refill worker behind a bounded
// work queue. The consumer blocks only when its local stock is
// empty and the outstanding refill has not completed.
func (b *Buffer) StartWorker() {
	if b.reqs != nil {
		return
	}
	b.reqs = make(chan request, 1)
	go b.worker()
}

func (b *Buffer) worker() {
	for req := range b.reqs {
		items, err := b.producer.Refill(req.tag, b.d, req.n)
		req.resp <- result{
			items: items,
			err:   err,
		}
	}
}

// Close stops the refill worker.
func (b *Buffer) Close() {
	if b.reqs != nil {
		close(b.reqs)
		b.reqs = nil
	}
}

// SetForecast sets the forecast total usage of the argument tag, as
// supplied by an external usage profiler over the instruction
// stream. Refill batches are sized to the forecast remainder.
func (b *Buffer) SetForecast(tag Tag, n int64) {
	b.forecast[tag] = n
}

// Usage returns the number of consumed items of the argument tag.
func (b *Buffer) Usage(tag Tag) int64 {
	return b.usage[tag]
}

func (b *Buffer) stock(tag Tag) *mpc.Ring[Item] {
	s, ok := b.stocks[tag]
	if !ok {
		s = new(mpc.Ring[Item])
		b.stocks[tag] = s
	}
	return s
}

// batch returns the refill batch size for tag.
func (b *Buffer) batch(tag Tag) int {
	n := int64(b.minBatch)

	if f, ok := b.forecast[tag]; ok && f > b.usage[tag] {
		if remain := f - b.usage[tag]; remain > n {
			n = remain
		}
	} else if used := b.sinceRef[tag]; used*2 > n {
		// No forecast: assume the observed rate doubles.
		n = used * 2
	}
	return int(n)
}

func (b *Buffer) refill(tag Tag, stock *mpc.Ring[Item]) error {
	// Collect an outstanding asynchronous refill first.
	if resp, ok := b.pending[tag]; ok {
		delete(b.pending, tag)
		res := <-resp
		if res.err != nil {
			return fmt.Errorf("%w: %v", mpc.ErrExhausted, res.err)
		}
		for _, item := range res.items {
			stock.Push(item)
		}
		if stock.Len() > 0 {
			return nil
		}
	}

	n := b.batch(tag)
	var items []Item
	var err error
	if b.reqs != nil {
		resp := make(chan result, 1)
		b.reqs <- request{
			tag:  tag,
			n:    n,
			resp: resp,
		}
		res := <-resp
		items, err = res.items, res.err
	} else {
		items, err = b.producer.Refill(tag, b.d, n)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", mpc.ErrExhausted, err)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: %v", mpc.ErrExhausted, tag)
	}
	for _, item := range items {
		stock.Push(item)
	}
	b.sinceRef[tag] = 0
	return nil
}

// prefetch fires an asynchronous refill when the stock runs low.
func (b *Buffer) prefetch(tag Tag, stock *mpc.Ring[Item]) {
	if b.reqs == nil {
		return
	}
	if _, ok := b.pending[tag]; ok {
		return
	}
	if stock.Len() > b.minBatch/4 {
		return
	}
	resp := make(chan result, 1)
	select {
	case b.reqs <- request{tag: tag, n: b.batch(tag), resp: resp}:
		b.pending[tag] = resp
	default:
		// Work queue full; the next empty stock blocks instead.
	}
}

func (b *Buffer) get(tag Tag) (Item, error) {
	stock := b.stock(tag)
	if stock.Len() == 0 {
		if err := b.refill(tag, stock); err != nil {
			return Item{}, err
		}
	}
	item, ok := stock.Pop()
	if !ok {
		return Item{}, fmt.Errorf("%w: %v", mpc.ErrExhausted, tag)
	}
	b.usage[tag]++
	b.sinceRef[tag]++
	b.prefetch(tag, stock)
	return item, nil
}

// GetTriple returns the next multiplication triple a, b, ab.
func (b *Buffer) GetTriple() (a, bb, c share.Vector, err error) {
	item, err := b.get(Tag{Kind: Triple})
	if err != nil {
		return share.Vector{}, share.Vector{}, share.Vector{}, err
	}
	return item.A, item.B, item.C, nil
}

// GetBit returns the next random shared bit.
func (b *Buffer) GetBit() (share.Vector, error) {
	item, err := b.get(Tag{Kind: Bit})
	if err != nil {
		return share.Vector{}, err
	}
	return item.A, nil
}

// GetTruncPair returns the next truncation mask pair r, r>>shift
// where r has bits random bits.
func (b *Buffer) GetTruncPair(bits, shift int) (r, rs share.Vector, err error) {
	item, err := b.get(Tag{Kind: TruncPair, Bits: bits, Shift: shift})
	if err != nil {
		return share.Vector{}, share.Vector{}, err
	}
	return item.A, item.B, nil
}

// Sum is a helper for producers: it returns the additive
// decomposition of v into n parts drawn from the generator g.
func Sum(d *field.Domain, g *prss.Gen, v *big.Int, n int) []*big.Int {
	parts := make([]*big.Int, n)
	rest := new(big.Int).Set(v)
	for i := 1; i < n; i++ {
		parts[i] = g.Element(d)
		rest = d.Sub(rest, parts[i])
	}
	parts[0] = rest
	return parts
}
