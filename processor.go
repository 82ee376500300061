//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package mpc

import (
	"fmt"
	"math/big"

	"github.com/viethuyvu/MP-SPDZ/share"
)

// Processor exposes the engine's entry points addressed by register
// indices. An external instruction decoder is responsible for
// opcode parsing and dispatch ordering; the processor only batches
// and executes share operations.
type Processor struct {
	party int
	proto Protocol
	mc    Opener
	in    Input

	// S holds secret shared registers, C clear registers.
	S []share.Vector
	C []*big.Int
}

// NewProcessor creates a processor for the argument party with
// numRegs secret and clear registers.
func NewProcessor(party int, proto Protocol, mc Opener, in Input,
	numRegs int) *Processor {

	p := &Processor{
		party: party,
		proto: proto,
		mc:    mc,
		in:    in,
		S:     make([]share.Vector, numRegs),
		C:     make([]*big.Int, numRegs),
	}
	for i := 0; i < numRegs; i++ {
		p.C[i] = new(big.Int)
	}
	return p
}

// LdI loads the immediate value v into the clear register dst.
func (p *Processor) LdI(dst int, v int64) {
	p.C[dst] = p.proto.Domain().Int(v)
}

// Adds adds the secret registers x and y into res.
func (p *Processor) Adds(res, x, y int) {
	p.S[res] = p.S[x].Add(p.proto.Domain(), p.S[y])
}

// Subs subtracts the secret register y from x into res.
func (p *Processor) Subs(res, x, y int) {
	p.S[res] = p.S[x].Sub(p.proto.Domain(), p.S[y])
}

// AddM adds the clear register y to the secret register x into res.
func (p *Processor) AddM(res, x, y int) {
	p.S[res] = p.S[x].Add(p.proto.Domain(), p.proto.Constant(p.C[y]))
}

// MulM multiplies the secret register x by the clear register y
// into res.
func (p *Processor) MulM(res, x, y int) {
	p.S[res] = p.S[x].MulScalar(p.proto.Domain(), p.C[y])
}

// Muls multiplies the secret register pairs x[i], y[i] into res[i]
// as one batch with a single network round.
func (p *Processor) Muls(res, x, y []int) error {
	if len(res) != len(x) || len(res) != len(y) {
		return fmt.Errorf("mpc: register count mismatch: %d/%d/%d",
			len(res), len(x), len(y))
	}
	p.proto.InitMul()
	for i := range x {
		if err := p.proto.PrepareMul(p.S[x[i]], p.S[y[i]]); err != nil {
			return err
		}
	}
	if err := p.proto.Exchange(); err != nil {
		return err
	}
	for i := range res {
		v, err := p.proto.FinalizeMul()
		if err != nil {
			return err
		}
		p.S[res[i]] = v
	}
	return nil
}

// DotProds computes the dot product of the secret register vectors
// x and y into res, consuming one queue slot and one round.
func (p *Processor) DotProds(res int, x, y []int) error {
	if len(x) != len(y) {
		return fmt.Errorf("mpc: register count mismatch: %d/%d",
			len(x), len(y))
	}
	p.proto.InitDotprod()
	for i := range x {
		if err := p.proto.PrepareDotprod(p.S[x[i]], p.S[y[i]]); err != nil {
			return err
		}
	}
	p.proto.NextDotprod()
	if err := p.proto.Exchange(); err != nil {
		return err
	}
	v, err := p.proto.FinalizeDotprod()
	if err != nil {
		return err
	}
	p.S[res] = v
	return nil
}

// Inputs shares the private inputs of the argument parties into the
// secret registers dst. The values of this party's own inputs are
// taken from mine in order; other parties' entries are ignored.
func (p *Processor) Inputs(dst, parties []int, mine []*big.Int) error {
	if len(dst) != len(parties) {
		return fmt.Errorf("mpc: register count mismatch: %d/%d",
			len(dst), len(parties))
	}
	var next int
	for _, party := range parties {
		if party == p.party {
			if next >= len(mine) {
				return fmt.Errorf("mpc: missing input value %d", next)
			}
			if err := p.in.AddMine(mine[next]); err != nil {
				return err
			}
			next++
		} else {
			if err := p.in.AddOther(party); err != nil {
				return err
			}
		}
	}
	if err := p.in.Exchange(); err != nil {
		return err
	}
	for i, party := range parties {
		var v share.Vector
		var err error
		if party == p.party {
			v, err = p.in.FinalizeMine()
		} else {
			v, err = p.in.FinalizeOther(party)
		}
		if err != nil {
			return err
		}
		p.S[dst[i]] = v
	}
	return nil
}

// POpen opens the secret registers src into the clear registers
// dst in one round.
func (p *Processor) POpen(dst, src []int) error {
	if len(dst) != len(src) {
		return fmt.Errorf("mpc: register count mismatch: %d/%d",
			len(dst), len(src))
	}
	for _, r := range src {
		p.mc.Prepare(p.S[r])
	}
	if err := p.mc.Exchange(); err != nil {
		return err
	}
	for _, r := range dst {
		v, err := p.mc.Finalize()
		if err != nil {
			return err
		}
		p.C[r] = v
	}
	return nil
}

// TruncPr right-shifts the secret registers src of at most bits
// bits by shift into dst as one batch.
func (p *Processor) TruncPr(dst, src []int, bits, shift int) error {
	if len(dst) != len(src) {
		return fmt.Errorf("mpc: register count mismatch: %d/%d",
			len(dst), len(src))
	}
	p.proto.InitTrunc()
	for _, r := range src {
		if err := p.proto.PrepareTrunc(p.S[r], bits, shift); err != nil {
			return err
		}
	}
	if err := p.proto.ExchangeTrunc(); err != nil {
		return err
	}
	for _, r := range dst {
		v, err := p.proto.FinalizeTrunc()
		if err != nil {
			return err
		}
		p.S[r] = v
	}
	return nil
}
