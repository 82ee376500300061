//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package semi

import (
	"crypto/rand"
	"math/big"

	mpc "github.com/viethuyvu/MP-SPDZ"
	"github.com/viethuyvu/MP-SPDZ/share"
)

// Input converts parties' private inputs into additive sharings.
// The inputting party keeps a locally sampled mask as its own
// component and distributes a decomposition of the remainder to the
// other parties in one round.
type Input struct {
	p *Protocol

	mineQ     mpc.Ring[share.Vector]
	otherQ    []mpc.Ring[share.Vector]
	sendBufs  [][]byte
	expect    []int
	exchanged bool
}

var (
	_ mpc.Input = &Input{}
)

// NewInput creates a private input instance for the argument
// protocol.
func NewInput(p *Protocol) *Input {
	n := p.nw.NumParties()
	return &Input{
		p:        p,
		otherQ:   make([]mpc.Ring[share.Vector], n),
		sendBufs: make([][]byte, n),
		expect:   make([]int, n),
	}
}

func (in *Input) reset() {
	if in.exchanged {
		for i := range in.sendBufs {
			in.sendBufs[i] = nil
			in.expect[i] = 0
		}
		in.exchanged = false
	}
}

// AddMine declares this party's next input value. The mask stays
// local; the other parties receive an additive decomposition of
// value minus mask.
func (in *Input) AddMine(v *big.Int) error {
	in.reset()
	d := in.p.d
	me := in.p.nw.ID()
	n := in.p.nw.NumParties()

	mask, err := d.Sample(rand.Reader)
	if err != nil {
		return err
	}
	in.mineQ.Push(share.Vector{
		E: []*big.Int{mask},
	})

	rest := d.Sub(v, mask)
	last := -1
	for j := n - 1; j >= 0; j-- {
		if j != me {
			last = j
			break
		}
	}
	for j := 0; j < n; j++ {
		if j == me {
			continue
		}
		var part *big.Int
		if j == last {
			part = rest
		} else {
			part, err = d.Sample(rand.Reader)
			if err != nil {
				return err
			}
			rest = d.Sub(rest, part)
		}
		in.sendBufs[j] = d.Encode(in.sendBufs[j], part)
	}
	in.p.counters.Inputs++
	return nil
}

// AddOther declares that the argument party inputs the next value.
func (in *Input) AddOther(party int) error {
	in.reset()
	if party == in.p.nw.ID() || party < 0 || party >= in.p.nw.NumParties() {
		return mpc.Violationf("invalid input party %d", party)
	}
	in.expect[party]++
	in.p.counters.Inputs++
	return nil
}

// Exchange distributes all pending input components in one round.
func (in *Input) Exchange() error {
	me := in.p.nw.ID()

	var active bool
	for j := 0; j < in.p.nw.NumParties(); j++ {
		if j == me {
			continue
		}
		if len(in.sendBufs[j]) == 0 && in.expect[j] == 0 {
			continue
		}
		active = true
		if me < j {
			if err := in.send(j); err != nil {
				return err
			}
			if err := in.receive(j); err != nil {
				return err
			}
		} else {
			if err := in.receive(j); err != nil {
				return err
			}
			if err := in.send(j); err != nil {
				return err
			}
		}
	}
	in.exchanged = true
	if active {
		in.p.counters.Rounds++
	}
	return nil
}

func (in *Input) send(j int) error {
	if len(in.sendBufs[j]) == 0 {
		return nil
	}
	conn := in.p.nw.Conn(j)
	if err := conn.SendRaw(in.sendBufs[j]); err != nil {
		return mpc.Violationf("send to party %d: %v", j, err)
	}
	if err := conn.Flush(); err != nil {
		return mpc.Violationf("send to party %d: %v", j, err)
	}
	return nil
}

func (in *Input) receive(j int) error {
	if in.expect[j] == 0 {
		return nil
	}
	d := in.p.d
	data, err := in.p.nw.Conn(j).ReceiveRaw(in.expect[j] * d.Size())
	if err != nil {
		return mpc.Violationf("receive from party %d: %v", j, err)
	}
	for i := 0; i < in.expect[j]; i++ {
		v, err := d.Decode(data[i*d.Size() : (i+1)*d.Size()])
		if err != nil {
			return mpc.Violationf("%v", err)
		}
		in.otherQ[j].Push(share.Vector{
			E: []*big.Int{v},
		})
	}
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
	if party < 0 || party >= in.p.nw.NumParties() ||
		party == in.p.nw.ID() {
		return share.Vector{}, mpc.Violationf("invalid input party %d", party)
	}
	s, ok := in.otherQ[party].Pop()
	if !ok {
		return share.Vector{}, mpc.ErrContract
	}
	return s, nil
}
