//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package field implements scalar arithmetic in prime fields, rings
// modulo a power of two, and binary extension fields. All operations
// go through an explicit Domain handle; there is no global modulus
// state. Elements are canonical non-negative big.Int representatives.
package field

import (
	"fmt"
	"io"
	"math/big"
)

// Kind specifies the algebraic structure of a Domain.
type Kind int

// Domain kinds.
const (
	// Prime is the field of integers modulo a prime.
	Prime Kind = iota

	// PowerOfTwo is the ring of integers modulo 2^k.
	PowerOfTwo

	// Char2 is the binary extension field GF(2^n).
	Char2
)

func (k Kind) String() string {
	switch k {
	case Prime:
		return "gfp"
	case PowerOfTwo:
		return "ring"
	case Char2:
		return "gf2n"
	default:
		return fmt.Sprintf("{Kind %d}", k)
	}
}

// Reduction polynomials for supported GF(2^n) widths, encoded without
// the leading x^n term.
var gf2nPolys = map[int]uint64{
	8:   0x1b, // x^8+x^4+x^3+x+1
	28:  0x3,  // x^28+x+1
	40:  0x38, // x^40+x^5+x^4+x^3+1
	64:  0x1b, // x^64+x^4+x^3+x+1
	128: 0x87, // x^128+x^7+x^2+x+1
}

// Domain defines an algebraic structure: the structure kind, its
// modulus, and the fixed serialization width of its elements. A
// Domain is immutable after construction and safe for concurrent
// use.
type Domain struct {
	kind Kind
	mod  *big.Int // prime modulus or 2^k; reduction poly for Char2
	bits int      // bit length of the canonical representative
	size int      // serialized element width in bytes
	mask *big.Int // 2^bits-1
}

// NewPrime creates the field of integers modulo the prime p.
func NewPrime(p *big.Int) (*Domain, error) {
	if p == nil || p.Sign() <= 0 || p.Cmp(big.NewInt(2)) < 0 {
		return nil, fmt.Errorf("field: invalid prime modulus %v", p)
	}
	if !p.ProbablyPrime(20) {
		return nil, fmt.Errorf("field: modulus %v is not prime", p)
	}
	bits := p.BitLen()
	return &Domain{
		kind: Prime,
		mod:  new(big.Int).Set(p),
		bits: bits,
		size: (bits + 7) / 8,
		mask: mask(bits),
	}, nil
}

// NewRing creates the ring of integers modulo 2^k.
func NewRing(k int) (*Domain, error) {
	if k < 1 || k > 4096 {
		return nil, fmt.Errorf("field: invalid ring width %d", k)
	}
	return &Domain{
		kind: PowerOfTwo,
		mod:  new(big.Int).Lsh(big.NewInt(1), uint(k)),
		bits: k,
		size: (k + 7) / 8,
		mask: mask(k),
	}, nil
}

// NewChar2 creates the binary extension field GF(2^n) for a
// supported width n.
func NewChar2(n int) (*Domain, error) {
	poly, ok := gf2nPolys[n]
	if !ok {
		return nil, fmt.Errorf("field: unsupported GF(2^n) width %d", n)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(n))
	mod.Or(mod, new(big.Int).SetUint64(poly))
	return &Domain{
		kind: Char2,
		mod:  mod,
		bits: n,
		size: (n + 7) / 8,
		mask: mask(n),
	}, nil
}

func mask(bits int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return m.Sub(m, big.NewInt(1))
}

// Kind returns the structure kind of the domain.
func (d *Domain) Kind() Kind {
	return d.kind
}

// Bits returns the bit length of canonical representatives.
func (d *Domain) Bits() int {
	return d.bits
}

// Size returns the fixed serialized element width in bytes.
func (d *Domain) Size() int {
	return d.size
}

// Modulus returns a copy of the domain modulus. For Char2 domains
// this is the reduction polynomial including the leading term.
func (d *Domain) Modulus() *big.Int {
	return new(big.Int).Set(d.mod)
}

func (d *Domain) String() string {
	switch d.kind {
	case PowerOfTwo, Char2:
		return fmt.Sprintf("%v(%d)", d.kind, d.bits)
	default:
		return fmt.Sprintf("%v(%v)", d.kind, d.mod)
	}
}

// reduce maps v to its canonical representative.
func (d *Domain) reduce(v *big.Int) *big.Int {
	switch d.kind {
	case Prime:
		return v.Mod(v, d.mod)
	case PowerOfTwo:
		return v.And(v, d.mask)
	default:
		// Polynomial reduction for GF(2^n).
		for v.BitLen() > d.bits {
			shift := uint(v.BitLen() - d.mod.BitLen())
			v.Xor(v, new(big.Int).Lsh(d.mod, shift))
		}
		return v
	}
}

// Int creates a domain element from the integer v. Negative values
// map to their additive inverses.
func (d *Domain) Int(v int64) *big.Int {
	x := big.NewInt(v)
	if x.Sign() < 0 {
		if d.kind == Char2 {
			x.Neg(x)
		} else {
			x.Add(x, d.mod)
		}
	}
	return d.reduce(x)
}

// Add returns a+b.
func (d *Domain) Add(a, b *big.Int) *big.Int {
	if d.kind == Char2 {
		return new(big.Int).Xor(a, b)
	}
	return d.reduce(new(big.Int).Add(a, b))
}

// Sub returns a-b.
func (d *Domain) Sub(a, b *big.Int) *big.Int {
	if d.kind == Char2 {
		return new(big.Int).Xor(a, b)
	}
	return d.reduce(new(big.Int).Sub(new(big.Int).Add(a, d.mod), b))
}

// Neg returns -a.
func (d *Domain) Neg(a *big.Int) *big.Int {
	if d.kind == Char2 {
		return new(big.Int).Set(a)
	}
	return d.reduce(new(big.Int).Sub(d.mod, a))
}

// Mul returns a*b.
func (d *Domain) Mul(a, b *big.Int) *big.Int {
	if d.kind == Char2 {
		return d.reduce(clmul(a, b))
	}
	return d.reduce(new(big.Int).Mul(a, b))
}

// clmul is the carry-less product of a and b.
func clmul(a, b *big.Int) *big.Int {
	res := new(big.Int)
	tmp := new(big.Int)
	for i := 0; i < b.BitLen(); i++ {
		if b.Bit(i) == 1 {
			res.Xor(res, tmp.Lsh(a, uint(i)))
		}
	}
	return res
}

// Inv returns the multiplicative inverse of a. For PowerOfTwo
// domains only odd elements are invertible.
func (d *Domain) Inv(a *big.Int) (*big.Int, error) {
	if a.Sign() == 0 {
		return nil, fmt.Errorf("field: zero has no inverse in %v", d)
	}
	switch d.kind {
	case Prime:
		return new(big.Int).ModInverse(a, d.mod), nil

	case PowerOfTwo:
		inv := new(big.Int).ModInverse(a, d.mod)
		if inv == nil {
			return nil, fmt.Errorf("field: %v has no inverse in %v", a, d)
		}
		return inv, nil

	default:
		// a^(2^n-2) by square and multiply.
		res := big.NewInt(1)
		sq := new(big.Int).Set(a)
		for i := 0; i < d.bits-1; i++ {
			sq = d.Mul(sq, sq)
			res = d.Mul(res, sq)
		}
		return res, nil
	}
}

// Equal tests a and b for equality.
func (d *Domain) Equal(a, b *big.Int) bool {
	return a.Cmp(b) == 0
}

// Contains tests if v is a canonical representative of the domain.
func (d *Domain) Contains(v *big.Int) bool {
	if v.Sign() < 0 {
		return false
	}
	if d.kind == Char2 {
		return v.BitLen() <= d.bits
	}
	return v.Cmp(d.mod) < 0
}

// Sample draws a uniformly random element from rand.
func (d *Domain) Sample(rand io.Reader) (*big.Int, error) {
	buf := make([]byte, d.size)
	for {
		if _, err := io.ReadFull(rand, buf); err != nil {
			return nil, err
		}
		v := new(big.Int).SetBytes(buf)
		v.And(v, d.mask)
		if d.Contains(v) {
			return v, nil
		}
	}
}

// SampleBits draws a random element of at most nbits bits from
// rand. The result is not reduced beyond masking and is always a
// canonical representative when nbits <= Bits().
func (d *Domain) SampleBits(rand io.Reader, nbits int) (*big.Int, error) {
	if nbits > d.bits {
		return nil, fmt.Errorf("field: %d bits exceeds %v", nbits, d)
	}
	buf := make([]byte, (nbits+7)/8)
	if _, err := io.ReadFull(rand, buf); err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(buf)
	v.And(v, mask(nbits))
	return d.reduce(v), nil
}

// Encode appends the fixed-width big-endian serialization of v to
// data and returns the extended buffer.
func (d *Domain) Encode(data []byte, v *big.Int) []byte {
	buf := make([]byte, d.size)
	v.FillBytes(buf)
	return append(data, buf...)
}

// Decode deserializes one element from data. The input must be
// exactly Size() bytes and must encode a canonical representative.
func (d *Domain) Decode(data []byte) (*big.Int, error) {
	if len(data) != d.size {
		return nil, fmt.Errorf("field: %d-byte element for %v: expected %d",
			len(data), d, d.size)
	}
	v := new(big.Int).SetBytes(data)
	if !d.Contains(v) {
		return nil, fmt.Errorf("field: element %v out of range for %v", v, d)
	}
	return v, nil
}

// Rsh right-shifts the canonical representative of v by m bits.
func (d *Domain) Rsh(v *big.Int, m int) *big.Int {
	return new(big.Int).Rsh(v, uint(m))
}

// MaskBits masks v to its nbits low bits.
func (d *Domain) MaskBits(v *big.Int, nbits int) *big.Int {
	return new(big.Int).And(v, mask(nbits))
}

// Convert maps the canonical representative of v from domain o into
// d. Non-canonical inputs are first reduced in o; values that do not
// fit d are reduced.
func (d *Domain) Convert(o *Domain, v *big.Int) *big.Int {
	return d.reduce(o.reduce(new(big.Int).Set(v)))
}
