//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package semi

import (
	"math/big"

	mpc "github.com/viethuyvu/MP-SPDZ"
	"github.com/viethuyvu/MP-SPDZ/share"
)

// Opener reconstructs cleartext values from additive shares. Every
// party broadcasts its components to all other parties in one
// round; the lower-index party of each pair sends first to keep the
// exchange deadlock free.
type Opener struct {
	p         *Protocol
	queue     mpc.Ring[share.Vector]
	sendBuf   []byte
	recvBufs  [][]byte
	exchanged bool
}

var (
	_ mpc.Opener = &Opener{}
)

// NewOpener creates an opener for the argument protocol instance.
func NewOpener(p *Protocol) *Opener {
	return &Opener{
		p:        p,
		recvBufs: make([][]byte, p.nw.NumParties()),
	}
}

// Prepare queues the share s for opening.
func (mc *Opener) Prepare(s share.Vector) {
	if mc.exchanged && mc.queue.Len() == 0 {
		mc.sendBuf = mc.sendBuf[:0]
		for i := range mc.recvBufs {
			mc.recvBufs[i] = nil
		}
		mc.exchanged = false
	}
	mc.queue.Push(s)
	mc.sendBuf = mc.p.d.Encode(mc.sendBuf, s.E[0])
}

// Exchange broadcasts the queued components to all parties in one
// round.
func (mc *Opener) Exchange() error {
	n := mc.queue.Len()
	if n == 0 {
		mc.exchanged = true
		return nil
	}
	me := mc.p.nw.ID()
	for j := 0; j < mc.p.nw.NumParties(); j++ {
		if j == me {
			continue
		}
		conn := mc.p.nw.Conn(j)
		if me < j {
			if err := conn.SendRaw(mc.sendBuf); err != nil {
				return mpc.Violationf("send to party %d: %v", j, err)
			}
			if err := conn.Flush(); err != nil {
				return mpc.Violationf("send to party %d: %v", j, err)
			}
			data, err := conn.ReceiveRaw(n * mc.p.d.Size())
			if err != nil {
				return mpc.Violationf("receive from party %d: %v", j, err)
			}
			mc.recvBufs[j] = data
		} else {
			data, err := conn.ReceiveRaw(n * mc.p.d.Size())
			if err != nil {
				return mpc.Violationf("receive from party %d: %v", j, err)
			}
			mc.recvBufs[j] = data
			if err := conn.SendRaw(mc.sendBuf); err != nil {
				return mpc.Violationf("send to party %d: %v", j, err)
			}
			if err := conn.Flush(); err != nil {
				return mpc.Violationf("send to party %d: %v", j, err)
			}
		}
	}
	mc.exchanged = true
	mc.p.counters.Rounds++
	return nil
}

// Finalize dequeues the next reconstructed cleartext value: the sum
// of all parties' components.
func (mc *Opener) Finalize() (*big.Int, error) {
	if !mc.exchanged {
		return nil, mpc.ErrContract
	}
	s, ok := mc.queue.Pop()
	if !ok {
		return nil, mpc.ErrContract
	}
	size := mc.p.d.Size()
	c := new(big.Int).Set(s.E[0])
	for j := 0; j < mc.p.nw.NumParties(); j++ {
		if j == mc.p.nw.ID() {
			continue
		}
		if len(mc.recvBufs[j]) < size {
			return nil, mpc.Violationf("truncated peer message")
		}
		v, err := mc.p.d.Decode(mc.recvBufs[j][:size])
		if err != nil {
			return nil, mpc.Violationf("%v", err)
		}
		mc.recvBufs[j] = mc.recvBufs[j][size:]
		c = mc.p.d.Add(c, v)
	}
	mc.p.counters.Opens++
	return c, nil
}
