//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package share implements fixed-length vectors of field elements
// holding one party's share components. Arithmetic is componentwise
// and commutes with reconstruction; the reconstruction rule itself
// belongs to the consuming scheme, not to this package.
package share

import (
	"fmt"
	"math/big"

	"github.com/viethuyvu/MP-SPDZ/field"
)

// Vector holds L share components.
type Vector struct {
	E []*big.Int
}

// New creates a zero vector of length l.
func New(l int) Vector {
	v := Vector{
		E: make([]*big.Int, l),
	}
	for i := range v.E {
		v.E[i] = new(big.Int)
	}
	return v
}

// FromInts creates a vector from the argument components.
func FromInts(d *field.Domain, vals ...int64) Vector {
	v := Vector{
		E: make([]*big.Int, len(vals)),
	}
	for i, val := range vals {
		v.E[i] = d.Int(val)
	}
	return v
}

// Len returns the number of components.
func (v Vector) Len() int {
	return len(v.E)
}

func (v Vector) String() string {
	return fmt.Sprintf("%v", v.E)
}

// Add returns the componentwise sum v+o.
func (v Vector) Add(d *field.Domain, o Vector) Vector {
	return v.componentwise(o, d.Add)
}

// Sub returns the componentwise difference v-o.
func (v Vector) Sub(d *field.Domain, o Vector) Vector {
	return v.componentwise(o, d.Sub)
}

// Neg returns the componentwise negation of v.
func (v Vector) Neg(d *field.Domain) Vector {
	res := Vector{
		E: make([]*big.Int, len(v.E)),
	}
	for i, e := range v.E {
		res.E[i] = d.Neg(e)
	}
	return res
}

// MulScalar returns v with every component multiplied by the public
// scalar c.
func (v Vector) MulScalar(d *field.Domain, c *big.Int) Vector {
	res := Vector{
		E: make([]*big.Int, len(v.E)),
	}
	for i, e := range v.E {
		res.E[i] = d.Mul(e, c)
	}
	return res
}

func (v Vector) componentwise(o Vector, op func(a, b *big.Int) *big.Int) Vector {
	if len(v.E) != len(o.E) {
		panic(fmt.Sprintf("share: vector length mismatch: %d vs %d",
			len(v.E), len(o.E)))
	}
	res := Vector{
		E: make([]*big.Int, len(v.E)),
	}
	for i, e := range v.E {
		res.E[i] = op(e, o.E[i])
	}
	return res
}

// Encode appends the fixed-width serialization of all components in
// order to data and returns the extended buffer.
func (v Vector) Encode(d *field.Domain, data []byte) []byte {
	for _, e := range v.E {
		data = d.Encode(data, e)
	}
	return data
}

// Decode deserializes a vector of length l from data. The input
// must be exactly l*d.Size() bytes.
func Decode(d *field.Domain, data []byte, l int) (Vector, error) {
	if len(data) != l*d.Size() {
		return Vector{}, fmt.Errorf(
			"share: %d-byte vector: expected %d", len(data), l*d.Size())
	}
	v := Vector{
		E: make([]*big.Int, l),
	}
	for i := 0; i < l; i++ {
		e, err := d.Decode(data[i*d.Size() : (i+1)*d.Size()])
		if err != nil {
			return Vector{}, err
		}
		v.E[i] = e
	}
	return v, nil
}
