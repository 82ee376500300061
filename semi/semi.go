//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package semi implements a semi-honest dishonest-majority scheme
// over plain additive sharing: a secret is the sum of one component
// per party. Multiplication consumes Beaver triples from the
// preprocessing buffer and opens the masked differences in one
// broadcast round per batch. The package exists both as a protocol
// in its own right and as the proof that the contract in package
// mpc is scheme-agnostic.
package semi

import (
	"crypto/rand"
	"math/big"

	mpc "github.com/viethuyvu/MP-SPDZ"
	"github.com/viethuyvu/MP-SPDZ/field"
	"github.com/viethuyvu/MP-SPDZ/p2p"
	"github.com/viethuyvu/MP-SPDZ/prep"
	"github.com/viethuyvu/MP-SPDZ/prss"
	"github.com/viethuyvu/MP-SPDZ/share"
)

// ShareLen is the number of components in an additive share.
const ShareLen = 1

type term struct {
	a share.Vector
	b share.Vector
	c share.Vector
}

type truncOp struct {
	maskBits int
	shift    int
	rs       share.Vector
}

// Protocol implements the additive-sharing multiplication protocol
// on Beaver triples.
type Protocol struct {
	conf *mpc.Config
	nw   *p2p.Network
	d    *field.Domain
	prep *prep.Buffer

	counters mpc.Counters
	mc       *Opener

	queue     mpc.Ring[[]term]
	cur       []term
	dotActive bool
	exchanged bool

	truncQ mpc.Ring[truncOp]
}

var (
	_ mpc.Protocol = &Protocol{}
)

// New creates an additive protocol instance for this party. The
// preprocessing buffer supplies the multiplication triples and
// truncation masks.
func New(nw *p2p.Network, d *field.Domain, buffer *prep.Buffer,
	conf *mpc.Config) (*Protocol, error) {

	if nw.NumParties() < 2 {
		return nil, mpc.Setupf("%d-party network", nw.NumParties())
	}
	p := &Protocol{
		conf: conf,
		nw:   nw,
		d:    d,
		prep: buffer,
	}
	p.mc = NewOpener(p)
	return p, nil
}

// Domain returns the algebraic structure of the shared values.
func (p *Protocol) Domain() *field.Domain {
	return p.d
}

// Counters returns the protocol diagnostic counters.
func (p *Protocol) Counters() *mpc.Counters {
	return &p.counters
}

// Constant returns the public value v as an additive sharing:
// party 0 holds v, the others zero.
func (p *Protocol) Constant(v *big.Int) share.Vector {
	s := share.New(ShareLen)
	if p.nw.ID() == 0 {
		s.E[0] = new(big.Int).Set(v)
	}
	return s
}

// Secret returns an additive sharing of v for testing and local
// setup: one component view per party, drawn from the generator g.
func Secret(d *field.Domain, g *prss.Gen, v *big.Int, n int) []share.Vector {
	parts := prep.Sum(d, g, v, n)
	res := make([]share.Vector, n)
	for i := 0; i < n; i++ {
		res[i] = share.Vector{
			E: []*big.Int{parts[i]},
		}
	}
	return res
}

func (p *Protocol) checkOperands(x, y share.Vector) error {
	if x.Len() != ShareLen || y.Len() != ShareLen {
		return mpc.Violationf("share length %d/%d: expected %d",
			x.Len(), y.Len(), ShareLen)
	}
	return nil
}

// prepare consumes one triple and queues the two masked openings of
// the Beaver identity.
func (p *Protocol) prepare(x, y share.Vector) (term, error) {
	if p.prep == nil {
		return term{}, mpc.ErrNotSupported
	}
	a, b, c, err := p.prep.GetTriple()
	if err != nil {
		return term{}, err
	}
	p.mc.Prepare(x.Sub(p.d, a))
	p.mc.Prepare(y.Sub(p.d, b))
	return term{
		a: a,
		b: b,
		c: c,
	}, nil
}

// InitMul initializes a multiplication batch.
func (p *Protocol) InitMul() {
	p.queue.Reset()
	p.cur = nil
	p.dotActive = false
	p.exchanged = false
}

// PrepareMul enqueues the multiplication of x and y, consuming one
// Beaver triple.
func (p *Protocol) PrepareMul(x, y share.Vector) error {
	if err := p.checkOperands(x, y); err != nil {
		return err
	}
	t, err := p.prepare(x, y)
	if err != nil {
		return err
	}
	p.queue.Push([]term{t})
	p.counters.Mults++
	return nil
}

// Exchange opens all queued masked differences in one broadcast
// round.
func (p *Protocol) Exchange() error {
	if err := p.mc.Exchange(); err != nil {
		return err
	}
	p.exchanged = true
	return nil
}

// FinalizeMul dequeues the next product by assembling the Beaver
// identity c + eps*b + delta*a + eps*delta from the opened masked
// differences.
func (p *Protocol) FinalizeMul() (share.Vector, error) {
	if !p.exchanged {
		return share.Vector{}, mpc.ErrContract
	}
	terms, ok := p.queue.Pop()
	if !ok {
		return share.Vector{}, mpc.ErrContract
	}
	res := share.New(ShareLen)
	for _, t := range terms {
		eps, err := p.mc.Finalize()
		if err != nil {
			return share.Vector{}, err
		}
		delta, err := p.mc.Finalize()
		if err != nil {
			return share.Vector{}, err
		}
		res = res.Add(p.d, t.c)
		res = res.Add(p.d, t.b.MulScalar(p.d, eps))
		res = res.Add(p.d, t.a.MulScalar(p.d, delta))
		res = res.Add(p.d, p.Constant(p.d.Mul(eps, delta)))
	}
	return res, nil
}

// InitDotprod initializes a dot-product batch.
func (p *Protocol) InitDotprod() {
	p.InitMul()
	p.dotActive = true
}

// PrepareDotprod adds x*y to the current dot product. Every term
// consumes one triple but the whole sum occupies one queue slot.
func (p *Protocol) PrepareDotprod(x, y share.Vector) error {
	if err := p.checkOperands(x, y); err != nil {
		return err
	}
	t, err := p.prepare(x, y)
	if err != nil {
		return err
	}
	p.cur = append(p.cur, t)
	return nil
}

// NextDotprod closes the current dot product into one queue slot.
func (p *Protocol) NextDotprod() {
	p.queue.Push(p.cur)
	p.cur = nil
	p.counters.DotProds++
}

// FinalizeDotprod dequeues the next dot product.
func (p *Protocol) FinalizeDotprod() (share.Vector, error) {
	return p.FinalizeMul()
}

// Randoms produces a fresh random shared value of at most nbits
// bits: every party contributes a local random component, so the
// sum is unknown to any strict subset of parties.
func (p *Protocol) Randoms(nbits int) (share.Vector, error) {
	if nbits < 1 || nbits > p.d.Bits() {
		return share.Vector{}, mpc.Violationf("%d random bits in %v",
			nbits, p.d)
	}
	v, err := p.d.SampleBits(rand.Reader, nbits)
	if err != nil {
		return share.Vector{}, err
	}
	p.counters.Randoms++
	return share.Vector{
		E: []*big.Int{v},
	}, nil
}

// GetRandom produces a fresh uniformly random shared value.
func (p *Protocol) GetRandom() (share.Vector, error) {
	v, err := p.d.Sample(rand.Reader)
	if err != nil {
		return share.Vector{}, err
	}
	p.counters.Randoms++
	return share.Vector{
		E: []*big.Int{v},
	}, nil
}

// InitTrunc initializes a truncation batch.
func (p *Protocol) InitTrunc() {
	p.truncQ.Reset()
}

// PrepareTrunc enqueues the right shift of x by shift bits,
// consuming one truncation mask pair.
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

// FinalizeTrunc dequeues the next truncated value.
func (p *Protocol) FinalizeTrunc() (share.Vector, error) {
	op, ok := p.truncQ.Pop()
	if !ok {
		return share.Vector{}, mpc.ErrContract
	}
	c, err := p.mc.Finalize()
	if err != nil {
		return share.Vector{}, err
	}
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
