//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package replicated

import (
	"math/big"

	mpc "github.com/viethuyvu/MP-SPDZ"
	"github.com/viethuyvu/MP-SPDZ/share"
)

// Opener reconstructs cleartext values from replicated shares.
// Every party sends its own additive component to the previous
// party and receives the missing component from the next party, so
// a batch of openings takes exactly one round. The scheme carries
// no authentication tags; the opening is correct only against
// semi-honest peers.
type Opener struct {
	p         *Protocol
	queue     mpc.Ring[share.Vector]
	sendBuf   []byte
	recvBuf   []byte
	exchanged bool
}

var (
	_ mpc.Opener = &Opener{}
)

// NewOpener creates an opener for the argument protocol instance.
func NewOpener(p *Protocol) *Opener {
	return &Opener{
		p: p,
	}
}

func newOpener(p *Protocol) *Opener {
	return NewOpener(p)
}

// Prepare queues the share s for opening.
func (mc *Opener) Prepare(s share.Vector) {
	if mc.exchanged && mc.queue.Len() == 0 {
		// Previous batch fully drained; start a new one.
		mc.sendBuf = mc.sendBuf[:0]
		mc.recvBuf = nil
		mc.exchanged = false
	}
	mc.queue.Push(s)
	mc.sendBuf = mc.p.d.Encode(mc.sendBuf, s.E[0])
}

// Exchange exchanges the queued components with the ring neighbours
// in one round.
func (mc *Opener) Exchange() error {
	n := mc.queue.Len()
	if n == 0 {
		mc.exchanged = true
		return nil
	}
	prev := mc.p.nw.Prev()
	if err := prev.SendRaw(mc.sendBuf); err != nil {
		return mpc.Violationf("send to previous party: %v", err)
	}
	if err := prev.Flush(); err != nil {
		return mpc.Violationf("send to previous party: %v", err)
	}
	data, err := mc.p.nw.Next().ReceiveRaw(n * mc.p.d.Size())
	if err != nil {
		return mpc.Violationf("receive from next party: %v", err)
	}
	mc.recvBuf = data
	mc.exchanged = true
	mc.p.counters.Rounds++
	return nil
}

// Finalize dequeues the next reconstructed cleartext value: the sum
// of the two local components and the received third component.
func (mc *Opener) Finalize() (*big.Int, error) {
	if !mc.exchanged {
		return nil, mpc.ErrContract
	}
	s, ok := mc.queue.Pop()
	if !ok {
		return nil, mpc.ErrContract
	}
	size := mc.p.d.Size()
	if len(mc.recvBuf) < size {
		return nil, mpc.Violationf("truncated peer message")
	}
	v, err := mc.p.d.Decode(mc.recvBuf[:size])
	if err != nil {
		return nil, mpc.Violationf("%v", err)
	}
	mc.recvBuf = mc.recvBuf[size:]

	c := mc.p.d.Add(mc.p.d.Add(s.E[0], s.E[1]), v)
	mc.p.counters.Opens++
	return c, nil
}
