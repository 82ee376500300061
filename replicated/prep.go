//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package replicated

import (
	"math/big"

	"github.com/viethuyvu/MP-SPDZ/field"
	"github.com/viethuyvu/MP-SPDZ/prep"
	"github.com/viethuyvu/MP-SPDZ/prss"
	"github.com/viethuyvu/MP-SPDZ/share"
)

// SeededPrep produces correlated randomness from a shared seed:
// every party runs the same deterministic generator and keeps its
// own component view. This plays the dealer and is therefore
// insecure against any party that knows the seed; it stands in for
// the homomorphic-encryption or oblivious-transfer engines in
// tests, demos, and benchmarks.
type SeededPrep struct {
	party int
	gen   *prss.Gen
}

var (
	_ prep.Producer = &SeededPrep{}
)

// NewSeededPrep creates a seeded producer for the argument party.
// All parties must use the same seed.
func NewSeededPrep(seed [prss.SeedSize]byte, party int) *SeededPrep {
	return &SeededPrep{
		party: party,
		gen:   prss.NewGen(seed),
	}
}

// view returns this party's replicated component pair of the
// argument additive decomposition.
func (sp *SeededPrep) view(parts []*big.Int) share.Vector {
	return share.Vector{
		E: []*big.Int{
			parts[sp.party],
			parts[(sp.party+NumParties-1)%NumParties],
		},
	}
}

func (sp *SeededPrep) shared(d *field.Domain, v *big.Int) share.Vector {
	return sp.view(prep.Sum(d, sp.gen, v, NumParties))
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
