//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package replicated implements the semi-honest three-party
// honest-majority protocol over replicated 2-of-3 sharing. A secret
// x is the sum of three additive components x0+x1+x2; party i holds
// the component pair (x[i], x[i-1]), so any two parties together
// hold all three components. Multiplication reshares locally
// computed partial cross products, rerandomized with pairwise PRSS
// streams, in a single pass-around round per batch.
package replicated

import (
	"math/big"

	mpc "github.com/viethuyvu/MP-SPDZ"
	"github.com/viethuyvu/MP-SPDZ/field"
	"github.com/viethuyvu/MP-SPDZ/p2p"
	"github.com/viethuyvu/MP-SPDZ/prep"
	"github.com/viethuyvu/MP-SPDZ/prss"
	"github.com/viethuyvu/MP-SPDZ/share"
)

// NumParties is the party count of the replicated scheme.
const NumParties = 3

// ShareLen is the number of components in a replicated share.
const ShareLen = 2

type truncOp struct {
	maskBits int
	shift    int
	rs       share.Vector
}

// Protocol implements the replicated three-party multiplication
// protocol.
type Protocol struct {
	conf  *mpc.Config
	nw    *p2p.Network
	d     *field.Domain
	seeds *prss.Seeds
	mul   *prss.Pair
	rand  *prss.Pair

	counters mpc.Counters

	// Multiplication batch state.
	queue     mpc.Ring[*big.Int]
	sendBuf   []byte
	recvBuf   []byte
	exchanged bool
	dot       *big.Int

	// Truncation batch state.
	prep   *prep.Buffer
	truncQ mpc.Ring[truncOp]
	mc     *Opener
}

var (
	_ mpc.Protocol = &Protocol{}
)

// New creates a replicated protocol instance for this party. The
// network must connect exactly three parties; the constructor
// performs the PRSS seed pass-around with the ring neighbours.
func New(nw *p2p.Network, d *field.Domain, conf *mpc.Config) (
	*Protocol, error) {

	if nw.NumParties() != NumParties {
		return nil, mpc.Setupf("%d-party network: replicated needs %d",
			nw.NumParties(), NumParties)
	}
	seeds, err := prss.Setup(nw.Next(), nw.Prev())
	if err != nil {
		return nil, mpc.Setupf("PRSS seed exchange: %v", err)
	}
	p := &Protocol{
		conf:  conf,
		nw:    nw,
		d:     d,
		seeds: seeds,
		mul:   seeds.Pair("replicated-mul"),
		rand:  seeds.Pair("replicated-rand"),
	}
	p.mc = newOpener(p)
	return p, nil
}

// SetPrep attaches the preprocessing buffer supplying truncation
// mask pairs.
func (p *Protocol) SetPrep(b *prep.Buffer) {
	p.prep = b
}

// Domain returns the algebraic structure of the shared values.
func (p *Protocol) Domain() *field.Domain {
	return p.d
}

// Counters returns the protocol diagnostic counters.
func (p *Protocol) Counters() *mpc.Counters {
	return &p.counters
}

// Constant returns the public value v as a replicated sharing: the
// additive component x0 is v and the others are zero on every
// party.
func (p *Protocol) Constant(v *big.Int) share.Vector {
	s := share.New(ShareLen)
	switch p.nw.ID() {
	case 0:
		s.E[0] = new(big.Int).Set(v)
	case 1:
		s.E[1] = new(big.Int).Set(v)
	}
	return s
}

// Secret returns a replicated sharing of v for testing and local
// setup: the component views of all three parties, indexed by
// party.
func Secret(d *field.Domain, g *prss.Gen, v *big.Int) [NumParties]share.Vector {
	parts := prep.Sum(d, g, v, NumParties)
	var res [NumParties]share.Vector
	for i := 0; i < NumParties; i++ {
		res[i] = share.Vector{
			E: []*big.Int{parts[i], parts[(i+NumParties-1)%NumParties]},
		}
	}
	return res
}

// cross computes this party's partial cross product of x and y: the
// sum of the component products no other single party can compute.
func (p *Protocol) cross(x, y share.Vector) *big.Int {
	v := p.d.Mul(x.E[0], p.d.Add(y.E[0], y.E[1]))
	return p.d.Add(v, p.d.Mul(x.E[1], y.E[0]))
}

// reshare rerandomizes the partial product v with the pairwise PRSS
// contributions and queues it for the pass-around round. The added
// term from the next-party stream cancels against the value the
// next party independently subtracts from the same stream, so the
// sent message carries no information beyond the committed product.
func (p *Protocol) reshare(v *big.Int) {
	t0 := p.mul.Next.Element(p.d)
	t1 := p.mul.Prev.Element(p.d)
	w := p.d.Sub(p.d.Add(v, t0), t1)
	p.queue.Push(w)
	p.sendBuf = p.d.Encode(p.sendBuf, w)
}

func (p *Protocol) checkOperands(x, y share.Vector) error {
	if x.Len() != ShareLen || y.Len() != ShareLen {
		return mpc.Violationf("share length %d/%d: expected %d",
			x.Len(), y.Len(), ShareLen)
	}
	return nil
}

// InitMul initializes a multiplication batch.
func (p *Protocol) InitMul() {
	p.queue.Reset()
	p.sendBuf = p.sendBuf[:0]
	p.recvBuf = nil
	p.exchanged = false
	p.dot = nil
}

// PrepareMul enqueues the multiplication of x and y.
func (p *Protocol) PrepareMul(x, y share.Vector) error {
	if err := p.checkOperands(x, y); err != nil {
		return err
	}
	p.reshare(p.cross(x, y))
	p.counters.Mults++
	return nil
}

// Exchange performs the single pass-around round of the batch:
// every party sends its rerandomized values to the next party and
// receives the previous party's values.
func (p *Protocol) Exchange() error {
	n := p.queue.Len()
	if n == 0 {
		p.exchanged = true
		return nil
	}
	next := p.nw.Next()
	if err := next.SendRaw(p.sendBuf); err != nil {
		return mpc.Violationf("send to next party: %v", err)
	}
	if err := next.Flush(); err != nil {
		return mpc.Violationf("send to next party: %v", err)
	}
	data, err := p.nw.Prev().ReceiveRaw(n * p.d.Size())
	if err != nil {
		return mpc.Violationf("receive from previous party: %v", err)
	}
	p.recvBuf = data
	p.exchanged = true
	p.counters.Rounds++
	return nil
}

// FinalizeMul dequeues the next product: this party's own
// rerandomized partial product and the one received from the
// previous party.
func (p *Protocol) FinalizeMul() (share.Vector, error) {
	if !p.exchanged {
		return share.Vector{}, mpc.ErrContract
	}
	w, ok := p.queue.Pop()
	if !ok {
		return share.Vector{}, mpc.ErrContract
	}
	size := p.d.Size()
	if len(p.recvBuf) < size {
		return share.Vector{}, mpc.Violationf("truncated peer message")
	}
	wPrev, err := p.d.Decode(p.recvBuf[:size])
	if err != nil {
		return share.Vector{}, mpc.Violationf("%v", err)
	}
	p.recvBuf = p.recvBuf[size:]
	return share.Vector{
		E: []*big.Int{w, wPrev},
	}, nil
}

// InitDotprod initializes a dot-product batch.
func (p *Protocol) InitDotprod() {
	p.InitMul()
	p.dot = new(big.Int)
}

// PrepareDotprod adds x*y to the current dot product. The running
// sum stays local; only the closed slot is reshared.
func (p *Protocol) PrepareDotprod(x, y share.Vector) error {
	if err := p.checkOperands(x, y); err != nil {
		return err
	}
	if p.dot == nil {
		p.dot = new(big.Int)
	}
	p.dot = p.d.Add(p.dot, p.cross(x, y))
	return nil
}

// NextDotprod closes the current dot product into one queue slot.
func (p *Protocol) NextDotprod() {
	if p.dot == nil {
		p.dot = new(big.Int)
	}
	p.reshare(p.dot)
	p.dot = new(big.Int)
	p.counters.DotProds++
}

// FinalizeDotprod dequeues the next dot product.
func (p *Protocol) FinalizeDotprod() (share.Vector, error) {
	return p.FinalizeMul()
}

// Randoms produces a fresh random shared value of at most nbits
// bits from the PRSS streams without communication.
func (p *Protocol) Randoms(nbits int) (share.Vector, error) {
	if nbits < 1 || nbits > p.d.Bits() {
		return share.Vector{}, mpc.Violationf("%d random bits in %v",
			nbits, p.d)
	}
	p.counters.Randoms++
	return share.Vector{
		E: []*big.Int{
			p.rand.Next.ElementBits(p.d, nbits),
			p.rand.Prev.ElementBits(p.d, nbits),
		},
	}, nil
}

// GetRandom produces a fresh uniformly random shared value from the
// PRSS streams without communication.
func (p *Protocol) GetRandom() (share.Vector, error) {
	p.counters.Randoms++
	return share.Vector{
		E: []*big.Int{
			p.rand.Next.Element(p.d),
			p.rand.Prev.Element(p.d),
		},
	}, nil
}

// InitTrunc initializes a truncation batch.
func (p *Protocol) InitTrunc() {
	p.truncQ.Reset()
}

// PrepareTrunc enqueues the right shift of x by shift bits. The
// value must be at most bits bits long; the consumed mask adds the
// configured statistical hiding slack on top of that.
func (p *Protocol) PrepareTrunc(x share.Vector, bits, shift int) error {
	if p.prep == nil {
		return mpc.ErrNotSupported
	}
	if x.Len() != ShareLen {
		return mpc.Violationf("share length %d: expected %d",
			x.Len(), ShareLen)
	}
	if shift < 1 || shift > bits {
		return mpc.Violationf("truncation %d>>%d", bits, shift)
	}
	maskBits := bits + p.conf.SecurityBits
	// x + r must not wrap: 2^bits + 2^maskBits <= modulus.
	if maskBits+2 > p.d.Bits() {
		return mpc.Violationf("%d-bit truncation mask in %v", maskBits, p.d)
	}
	r, rs, err := p.prep.GetTruncPair(maskBits, shift)
	if err != nil {
		return err
	}
	masked := x.Add(p.d, r)
	if p.conf.Rounding == mpc.Nearest {
		half := new(big.Int).Lsh(big.NewInt(1), uint(shift-1))
		masked = masked.Add(p.d, p.Constant(half))
	}
	p.mc.Prepare(masked)
	p.truncQ.Push(truncOp{
		maskBits: maskBits,
		shift:    shift,
		rs:       rs,
	})
	return nil
}

// ExchangeTrunc opens all queued masked values in one round.
func (p *Protocol) ExchangeTrunc() error {
	return p.mc.Exchange()
}

// FinalizeTrunc dequeues the next truncated value: the opened
// masked value is shifted in clear and corrected with the shifted
// mask shares.
func (p *Protocol) FinalizeTrunc() (share.Vector, error) {
	op, ok := p.truncQ.Pop()
	if !ok {
		return share.Vector{}, mpc.ErrContract
	}
	c, err := p.mc.Finalize()
	if err != nil {
		return share.Vector{}, err
	}

	// Self-test: the opened intermediate must fit the declared
	// bit length plus the hiding slack. Not a security check.
	if c.BitLen() > op.maskBits+1 {
		p.counters.BoundFails++
		if p.counters.BoundFails > p.conf.MaxTruncFail {
			return share.Vector{}, mpc.ErrBound
		}
	}

	res := p.Constant(p.d.Rsh(c, op.shift)).Sub(p.d, op.rs)
	p.counters.Truncs++
	return res, nil
}
