//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package replicated

import (
	"math/big"

	mpc "github.com/viethuyvu/MP-SPDZ"
	"github.com/viethuyvu/MP-SPDZ/prss"
	"github.com/viethuyvu/MP-SPDZ/share"
)

// Input converts parties' private inputs into replicated sharings.
// The inputting party masks its value with the PRSS stream it
// shares with the previous party and sends the masked value to the
// next party; the previous party derives its component from the
// same stream without communication. One message per input, one
// round per batch.
type Input struct {
	p    *Protocol
	pair *prss.Pair

	mineQ      mpc.Ring[share.Vector]
	otherQ     [NumParties]mpc.Ring[share.Vector]
	sendBuf    []byte
	expectPrev int
	exchanged  bool
}

var (
	_ mpc.Input = &Input{}
)

// NewInput creates a private input instance for the argument
// protocol.
func NewInput(p *Protocol) *Input {
	return &Input{
		p:    p,
		pair: p.seeds.Pair("replicated-input"),
	}
}

func (in *Input) reset() {
	if in.exchanged {
		in.sendBuf = in.sendBuf[:0]
		in.expectPrev = 0
		in.exchanged = false
	}
}

// AddMine declares this party's next input value. The mask comes
// from the stream shared with the previous party; the masked value
// goes to the next party.
func (in *Input) AddMine(v *big.Int) error {
	in.reset()
	d := in.p.d

	r := in.pair.Prev.Element(d)
	s := d.Sub(v, r)

	in.mineQ.Push(share.Vector{
		E: []*big.Int{s, r},
	})
	in.sendBuf = d.Encode(in.sendBuf, s)
	in.p.counters.Inputs++
	return nil
}

// AddOther declares that the argument party inputs the next value.
// For the next party this draws the shared mask stream in lockstep
// with the inputter; for the previous party it records the
// expectation of one masked value.
func (in *Input) AddOther(party int) error {
	in.reset()
	me := in.p.nw.ID()
	if party == me || party < 0 || party >= NumParties {
		return mpc.Violationf("invalid input party %d", party)
	}
	d := in.p.d

	switch party {
	case (me + 1) % NumParties:
		// The inputter masks with the stream it shares with us.
		r := in.pair.Next.Element(d)
		in.otherQ[party].Push(share.Vector{
			E: []*big.Int{r, new(big.Int)},
		})

	default:
		// Previous party: its masked value arrives in Exchange.
		in.expectPrev++
	}
	in.p.counters.Inputs++
	return nil
}

// Exchange distributes all pending masked values in one round.
func (in *Input) Exchange() error {
	d := in.p.d

	if len(in.sendBuf) > 0 {
		next := in.p.nw.Next()
		if err := next.SendRaw(in.sendBuf); err != nil {
			return mpc.Violationf("send to next party: %v", err)
		}
		if err := next.Flush(); err != nil {
			return mpc.Violationf("send to next party: %v", err)
		}
	}
	if in.expectPrev > 0 {
		prev := (in.p.nw.ID() + NumParties - 1) % NumParties
		data, err := in.p.nw.Prev().ReceiveRaw(in.expectPrev * d.Size())
		if err != nil {
			return mpc.Violationf("receive from previous party: %v", err)
		}
		for i := 0; i < in.expectPrev; i++ {
			s, err := d.Decode(data[i*d.Size() : (i+1)*d.Size()])
			if err != nil {
				return mpc.Violationf("%v", err)
			}
			in.otherQ[prev].Push(share.Vector{
				E: []*big.Int{new(big.Int), s},
			})
		}
	}
	if len(in.sendBuf) > 0 || in.expectPrev > 0 {
		in.p.counters.Rounds++
	}
	in.exchanged = true
	return nil
}

// FinalizeMine dequeues the sharing of this party's next input.
func (in *Input) FinalizeMine() (share.Vector, error) {
	if !in.exchanged {
		return share.Vector{}, mpc.ErrContract
	}
	s, ok := in.mineQ.Pop()
	if !ok {
		return share.Vector{}, mpc.ErrContract
	}
	return s, nil
}

// FinalizeOther dequeues the sharing of the argument party's next
// input.
func (in *Input) FinalizeOther(party int) (share.Vector, error) {
	if !in.exchanged {
		return share.Vector{}, mpc.ErrContract
	}
	if party < 0 || party >= NumParties || party == in.p.nw.ID() {
		return share.Vector{}, mpc.Violationf("invalid input party %d", party)
	}
	s, ok := in.otherQ[party].Pop()
	if !ok {
		return share.Vector{}, mpc.ErrContract
	}
	return s, nil
}
