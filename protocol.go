//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package mpc defines the protocol contract of the secret-sharing
// engine: the state machine every sharing scheme must implement,
// the opening and private-input contracts, the error taxonomy, and
// the register-level processor consumed by external instruction
// decoders. Concrete schemes live in the replicated and semi
// packages.
package mpc

import (
	"math/big"

	"github.com/viethuyvu/MP-SPDZ/field"
	"github.com/viethuyvu/MP-SPDZ/share"
)

// Counters holds per-protocol diagnostic counters. All counters are
// monotonically increasing over the protocol lifetime.
type Counters struct {
	Rounds     int64
	Mults      int64
	DotProds   int64
	Truncs     int64
	Randoms    int64
	Opens      int64
	Inputs     int64
	BoundFails int64
}

// Protocol is the multiplication, dot-product, randomness, and
// truncation state machine a sharing scheme implements. Operations
// follow a queue, exchange, finalize discipline: prepared operand
// pairs cause no network traffic until Exchange performs exactly
// one network round for the whole batch, and finalize calls drain
// results in strict preparation order. Schemes return
// ErrNotSupported for operations they do not implement.
type Protocol interface {
	// Domain returns the algebraic structure of the shared values.
	Domain() *field.Domain

	// Constant returns the public value v as a sharing following
	// the scheme's fixed assignment rule.
	Constant(v *big.Int) share.Vector

	// InitMul initializes a multiplication batch, clearing the
	// pending queue.
	InitMul()

	// PrepareMul enqueues the operand pair x, y.
	PrepareMul(x, y share.Vector) error

	// Exchange runs the single network round of the batch.
	Exchange() error

	// FinalizeMul dequeues the next product.
	FinalizeMul() (share.Vector, error)

	// InitDotprod initializes a dot-product batch.
	InitDotprod()

	// PrepareDotprod adds the operand pair x, y to the current
	// dot product.
	PrepareDotprod(x, y share.Vector) error

	// NextDotprod closes the current dot product; the whole sum
	// occupies one queue slot.
	NextDotprod()

	// FinalizeDotprod dequeues the next dot product after
	// Exchange.
	FinalizeDotprod() (share.Vector, error)

	// Randoms produces a fresh random shared value of at most
	// nbits bits without communication.
	Randoms(nbits int) (share.Vector, error)

	// GetRandom produces a fresh uniformly random shared value
	// without communication.
	GetRandom() (share.Vector, error)

	// InitTrunc initializes a truncation batch.
	InitTrunc()

	// PrepareTrunc enqueues the value x of at most bits bits to
	// be right-shifted by shift.
	PrepareTrunc(x share.Vector, bits, shift int) error

	// ExchangeTrunc runs the single network round of the
	// truncation batch.
	ExchangeTrunc() error

	// FinalizeTrunc dequeues the next truncated value.
	FinalizeTrunc() (share.Vector, error)

	// Counters returns the protocol diagnostic counters.
	Counters() *Counters
}

// Opener converts shares to cleartext values, following the same
// queue, exchange, finalize discipline as Protocol. A failed
// verification aborts the run; once any opening fails the remaining
// protocol state is considered compromised.
type Opener interface {
	// Prepare queues the share s for opening.
	Prepare(s share.Vector)

	// Exchange exchanges the queued shares with the relevant
	// parties in one round.
	Exchange() error

	// Finalize dequeues the next reconstructed cleartext value.
	Finalize() (*big.Int, error)
}

// Input converts parties' cleartext inputs into sharings. All
// parties must declare the same input sequence; finalize calls
// drain results in declaration order.
type Input interface {
	// AddMine declares this party's next input value.
	AddMine(v *big.Int) error

	// AddOther declares that the argument party inputs the next
	// value.
	AddOther(party int) error

	// Exchange distributes all pending inputs in one round.
	Exchange() error

	// FinalizeMine dequeues the sharing of this party's next
	// input.
	FinalizeMine() (share.Vector, error)

	// FinalizeOther dequeues the sharing of the argument party's
	// next input.
	FinalizeOther(party int) (share.Vector, error)
}

// Mul multiplies two shared values as a single-element batch.
func Mul(p Protocol, x, y share.Vector) (share.Vector, error) {
	p.InitMul()
	if err := p.PrepareMul(x, y); err != nil {
		return share.Vector{}, err
	}
	if err := p.Exchange(); err != nil {
		return share.Vector{}, err
	}
	return p.FinalizeMul()
}

// DotProd computes the dot product of x and y as a single-slot
// batch.
func DotProd(p Protocol, x, y []share.Vector) (share.Vector, error) {
	p.InitDotprod()
	for i := range x {
		if err := p.PrepareDotprod(x[i], y[i]); err != nil {
			return share.Vector{}, err
		}
	}
	p.NextDotprod()
	if err := p.Exchange(); err != nil {
		return share.Vector{}, err
	}
	return p.FinalizeDotprod()
}

// TruncPr right-shifts a shared value of at most bits bits by
// shift as a single-element batch.
func TruncPr(p Protocol, x share.Vector, bits, shift int) (
	share.Vector, error) {

	p.InitTrunc()
	if err := p.PrepareTrunc(x, bits, shift); err != nil {
		return share.Vector{}, err
	}
	if err := p.ExchangeTrunc(); err != nil {
		return share.Vector{}, err
	}
	return p.FinalizeTrunc()
}

// Open reconstructs the cleartext value of the share s.
func Open(mc Opener, s share.Vector) (*big.Int, error) {
	mc.Prepare(s)
	if err := mc.Exchange(); err != nil {
		return nil, err
	}
	return mc.Finalize()
}
