//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package semi

import (
	"math/big"

	"github.com/viethuyvu/MP-SPDZ/field"
	"github.com/viethuyvu/MP-SPDZ/prep"
	"github.com/viethuyvu/MP-SPDZ/prss"
	"github.com/viethuyvu/MP-SPDZ/share"
)

// SeededPrep produces correlated randomness for the additive scheme
// from a shared seed. Every party runs the same deterministic
// generator and keeps its own component. Insecure against any party
// knowing the seed; a stand-in for the oblivious-transfer triple
// generators in tests and demos.
type SeededPrep struct {
	party int
	n     int
	gen   *prss.Gen
}

var (
	_ prep.Producer = &SeededPrep{}
)

// NewSeededPrep creates a seeded producer for the argument party in
// an n-party network. All parties must use the same seed.
func NewSeededPrep(seed [prss.SeedSize]byte, party, n int) *SeededPrep {
	return &SeededPrep{
		party: party,
		n:     n,
		gen:   prss.NewGen(seed),
	}
}

func (sp *SeededPrep) shared(d *field.Domain, v *big.Int) share.Vector {
	parts := prep.Sum(d, sp.gen, v, sp.n)
	return share.Vector{
		E: []*big.Int{parts[sp.party]},
	}
}

// Refill implements the prep.Producer contract.
func (sp *SeededPrep) Refill(tag prep.Tag, d *field.Domain, n int) (
	[]prep.Item, error) {

	items := make([]prep.Item, n)
	for i := 0; i < n; i++ {
		switch tag.Kind {
		case prep.Triple:
			a := sp.gen.Element(d)
			b := sp.gen.Element(d)
			items[i] = prep.Item{
				A: sp.shared(d, a),
				B: sp.shared(d, b),
				C: sp.shared(d, d.Mul(a, b)),
			}

		case prep.Bit:
			bit := sp.gen.ElementBits(d, 1)
			items[i] = prep.Item{
				A: sp.shared(d, bit),
			}

		case prep.TruncPair:
			r := sp.gen.ElementBits(d, tag.Bits)
			items[i] = prep.Item{
				A: sp.shared(d, r),
				B: sp.shared(d, d.Rsh(r, tag.Shift)),
			}
		}
	}
	return items, nil
}
