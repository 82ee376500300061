//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package replicated

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	mpc "github.com/viethuyvu/MP-SPDZ"
	"github.com/viethuyvu/MP-SPDZ/field"
	"github.com/viethuyvu/MP-SPDZ/p2p"
	"github.com/viethuyvu/MP-SPDZ/prep"
	"github.com/viethuyvu/MP-SPDZ/prss"
	"github.com/viethuyvu/MP-SPDZ/share"
)

func testSeed(s string) [prss.SeedSize]byte {
	var seed [prss.SeedSize]byte
	copy(seed[:], []byte(s))
	return seed
}

func prime(t *testing.T, s string) *field.Domain {
	p, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("invalid prime '%s'", s)
	}
	d, err := field.NewPrime(p)
	if err != nil {
		t.Fatalf("NewPrime: %v", err)
	}
	return d
}

// run3errs runs fn as all three parties over in-memory pipes and
// returns the per-party results.
func run3errs(nws []*p2p.Network, d *field.Domain, conf *mpc.Config,
	fn func(p *Protocol) error) []error {

	errs := make([]error, NumParties)
	var wg sync.WaitGroup
	for i := 0; i < NumParties; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := New(nws[i], d, conf)
			if err != nil {
				errs[i] = err
				return
			}
			errs[i] = fn(p)
		}(i)
	}
	wg.Wait()
	return errs
}

func run3(t *testing.T, d *field.Domain, conf *mpc.Config,
	fn func(p *Protocol) error) {

	t.Helper()
	errs := run3errs(p2p.PipeNetwork(NumParties), d, conf, fn)
	for i, err := range errs {
		if err != nil {
			t.Fatalf("party %d: %v", i, err)
		}
	}
}

func TestConstantOpen(t *testing.T) {
	d := prime(t, "101")

	run3(t, d, mpc.NewConfig(), func(p *Protocol) error {
		c, err := mpc.Open(NewOpener(p), p.Constant(p.d.Int(5)))
		if err != nil {
			return err
		}
		if c.Int64() != 5 {
			return fmt.Errorf("opened %v, expected 5", c)
		}
		return nil
	})
}

func TestReconstruct(t *testing.T) {
	d := prime(t, "101")
	seed := testSeed("replicated test seed aaaaaaaaaaaaaa")

	run3(t, d, mpc.NewConfig(), func(p *Protocol) error {
		gen := prss.NewGen(seed)
		mc := NewOpener(p)

		values := []*big.Int{d.Int(0), d.Int(1), d.Int(100)}
		for _, v := range values {
			mc.Prepare(Secret(d, gen, v)[p.nw.ID()])
		}
		if err := mc.Exchange(); err != nil {
			return err
		}
		for _, v := range values {
			c, err := mc.Finalize()
			if err != nil {
				return err
			}
			if c.Cmp(v) != 0 {
				return fmt.Errorf("opened %v, expected %v", c, v)
			}
		}
		return nil
	})
}

// TestMul multiplies 2 and 5 modulo 7 and then a batch of 1000
// random pairs, checking every product against the cleartext.
func TestMul(t *testing.T) {
	const trials = 1000

	d := prime(t, "7")
	seed := testSeed("replicated test seed bbbbbbbbbbbbbb")

	run3(t, d, mpc.NewConfig(), func(p *Protocol) error {
		gen := prss.NewGen(seed)
		me := p.nw.ID()

		x := Secret(d, gen, d.Int(2))[me]
		y := Secret(d, gen, d.Int(5))[me]
		z, err := mpc.Mul(p, x, y)
		if err != nil {
			return err
		}
		c, err := mpc.Open(NewOpener(p), z)
		if err != nil {
			return err
		}
		if c.Int64() != 3 {
			return fmt.Errorf("2*5 opened %v, expected 3", c)
		}

		// Batched random trials. All parties draw the same
		// cleartext values from the shared generator.
		as := make([]*big.Int, trials)
		bs := make([]*big.Int, trials)
		p.InitMul()
		for i := 0; i < trials; i++ {
			as[i] = gen.Element(d)
			bs[i] = gen.Element(d)
			err = p.PrepareMul(Secret(d, gen, as[i])[me],
				Secret(d, gen, bs[i])[me])
			if err != nil {
				return err
			}
		}
		if err := p.Exchange(); err != nil {
			return err
		}
		mc := NewOpener(p)
		for i := 0; i < trials; i++ {
			z, err := p.FinalizeMul()
			if err != nil {
				return err
			}
			mc.Prepare(z)
		}
		if err := mc.Exchange(); err != nil {
			return err
		}
		for i := 0; i < trials; i++ {
			c, err := mc.Finalize()
			if err != nil {
				return err
			}
			if expect := d.Mul(as[i], bs[i]); c.Cmp(expect) != 0 {
				return fmt.Errorf("trial %d: %v*%v opened %v, expected %v",
					i, as[i], bs[i], c, expect)
			}
		}
		return nil
	})
}

// TestMulOrder checks that finalized products drain in strict
// preparation order.
func TestMulOrder(t *testing.T) {
	d := prime(t, "101")
	seed := testSeed("replicated test seed cccccccccccccc")

	run3(t, d, mpc.NewConfig(), func(p *Protocol) error {
		gen := prss.NewGen(seed)
		me := p.nw.ID()

		p.InitMul()
		for i := 0; i < 10; i++ {
			err := p.PrepareMul(Secret(d, gen, d.Int(int64(i+2)))[me],
				Secret(d, gen, d.Int(int64(i+3)))[me])
			if err != nil {
				return err
			}
		}
		if err := p.Exchange(); err != nil {
			return err
		}
		mc := NewOpener(p)
		for i := 0; i < 10; i++ {
			z, err := p.FinalizeMul()
			if err != nil {
				return err
			}
			mc.Prepare(z)
		}
		if err := mc.Exchange(); err != nil {
			return err
		}
		for i := 0; i < 10; i++ {
			c, err := mc.Finalize()
			if err != nil {
				return err
			}
			expect := d.Int(int64((i + 2) * (i + 3)))
			if c.Cmp(expect) != 0 {
				return fmt.Errorf("slot %d opened %v, expected %v",
					i, c, expect)
			}
		}
		return nil
	})
}

// TestMulBatchRounds checks that a multiplication batch costs one
// network round and one flush regardless of its size.
func TestMulBatchRounds(t *testing.T) {
	d := prime(t, "101")
	seed := testSeed("replicated test seed dddddddddddddd")

	run3(t, d, mpc.NewConfig(), func(p *Protocol) error {
		gen := prss.NewGen(seed)
		me := p.nw.ID()

		for _, k := range []int{1, 2, 100} {
			flushed := p.nw.Next().Stats.Flushed.Load()
			rounds := p.counters.Rounds

			vals := make([]*big.Int, k)
			p.InitMul()
			for i := 0; i < k; i++ {
				vals[i] = gen.Element(d)
				err := p.PrepareMul(Secret(d, gen, vals[i])[me],
					Secret(d, gen, vals[i])[me])
				if err != nil {
					return err
				}
			}
			if err := p.Exchange(); err != nil {
				return err
			}
			if got := p.counters.Rounds - rounds; got != 1 {
				return fmt.Errorf("batch %d: %d rounds, expected 1", k, got)
			}
			if got := p.nw.Next().Stats.Flushed.Load() - flushed; got != 1 {
				return fmt.Errorf("batch %d: %d flushes, expected 1", k, got)
			}

			mc := NewOpener(p)
			for i := 0; i < k; i++ {
				z, err := p.FinalizeMul()
				if err != nil {
					return err
				}
				mc.Prepare(z)
			}
			if err := mc.Exchange(); err != nil {
				return err
			}
			for i := 0; i < k; i++ {
				c, err := mc.Finalize()
				if err != nil {
					return err
				}
				if expect := d.Mul(vals[i], vals[i]); c.Cmp(expect) != 0 {
					return fmt.Errorf("batch %d slot %d: got %v, expected %v",
						k, i, c, expect)
				}
			}
		}
		return nil
	})
}

func TestDotProd(t *testing.T) {
	const vecLen = 5

	d := prime(t, "101")
	seed := testSeed("replicated test seed eeeeeeeeeeeeee")

	run3(t, d, mpc.NewConfig(), func(p *Protocol) error {
		gen := prss.NewGen(seed)
		me := p.nw.ID()

		// Two dot products in one batch, one queue slot each.
		expects := make([]*big.Int, 2)
		rounds := p.counters.Rounds

		p.InitDotprod()
		for slot := 0; slot < 2; slot++ {
			expect := new(big.Int)
			for i := 0; i < vecLen; i++ {
				a := gen.Element(d)
				b := gen.Element(d)
				expect = d.Add(expect, d.Mul(a, b))
				err := p.PrepareDotprod(Secret(d, gen, a)[me],
					Secret(d, gen, b)[me])
				if err != nil {
					return err
				}
			}
			p.NextDotprod()
			expects[slot] = expect
		}
		if err := p.Exchange(); err != nil {
			return err
		}
		if got := p.counters.Rounds - rounds; got != 1 {
			return fmt.Errorf("%d rounds, expected 1", got)
		}

		mc := NewOpener(p)
		for slot := 0; slot < 2; slot++ {
			z, err := p.FinalizeDotprod()
			if err != nil {
				return err
			}
			mc.Prepare(z)
		}
		if err := mc.Exchange(); err != nil {
			return err
		}
		for slot := 0; slot < 2; slot++ {
			c, err := mc.Finalize()
			if err != nil {
				return err
			}
			if c.Cmp(expects[slot]) != 0 {
				return fmt.Errorf("slot %d opened %v, expected %v",
					slot, c, expects[slot])
			}
		}
		return nil
	})
}

// TestRandoms checks that PRSS randomness is a consistent replicated
// sharing and costs no communication.
func TestRandoms(t *testing.T) {
	d := prime(t, "2305843009213693951")

	var m sync.Mutex
	views := make(map[int][]*big.Int)

	run3(t, d, mpc.NewConfig(), func(p *Protocol) error {
		rounds := p.counters.Rounds

		s, err := p.Randoms(16)
		if err != nil {
			return err
		}
		if s.E[0].BitLen() > 16 || s.E[1].BitLen() > 16 {
			return fmt.Errorf("oversized components %v", s)
		}
		g, err := p.GetRandom()
		if err != nil {
			return err
		}
		if p.counters.Rounds != rounds {
			return fmt.Errorf("randomness cost %d rounds",
				p.counters.Rounds-rounds)
		}
		m.Lock()
		views[p.nw.ID()] = []*big.Int{s.E[0], s.E[1], g.E[0], g.E[1]}
		m.Unlock()
		return nil
	})

	// Party i's second component replicates party i-1's first, for
	// both draws.
	for i := 0; i < NumParties; i++ {
		prev := (i + NumParties - 1) % NumParties
		if views[i][1].Cmp(views[prev][0]) != 0 {
			t.Errorf("party %d: Randoms component not replicated", i)
		}
		if views[i][3].Cmp(views[prev][2]) != 0 {
			t.Errorf("party %d: GetRandom component not replicated", i)
		}
	}
}

// TestInput shares one private input per party and opens all of
// them.
func TestInput(t *testing.T) {
	d := prime(t, "101")

	run3(t, d, mpc.NewConfig(), func(p *Protocol) error {
		me := p.nw.ID()
		in := NewInput(p)
		mc := NewOpener(p)

		// Two rounds of inputs exercise the batch reset.
		for round := 0; round < 2; round++ {
			for j := 0; j < NumParties; j++ {
				var err error
				if j == me {
					err = in.AddMine(d.Int(int64(10*round + me)))
				} else {
					err = in.AddOther(j)
				}
				if err != nil {
					return err
				}
			}
			if err := in.Exchange(); err != nil {
				return err
			}
			for j := 0; j < NumParties; j++ {
				var s share.Vector
				var err error
				if j == me {
					s, err = in.FinalizeMine()
				} else {
					s, err = in.FinalizeOther(j)
				}
				if err != nil {
					return err
				}
				mc.Prepare(s)
			}
			if err := mc.Exchange(); err != nil {
				return err
			}
			for j := 0; j < NumParties; j++ {
				c, err := mc.Finalize()
				if err != nil {
					return err
				}
				if expect := int64(10*round + j); c.Int64() != expect {
					return fmt.Errorf("input %d opened %v, expected %v",
						j, c, expect)
				}
			}
		}
		return nil
	})
}

func TestTrunc(t *testing.T) {
	const trials = 50

	d := prime(t, "2305843009213693951") // 2^61-1
	seed := testSeed("replicated test seed ffffffffffffff")

	for _, rounding := range []mpc.Rounding{mpc.Probabilistic, mpc.Nearest} {
		conf := mpc.NewConfig()
		conf.Rounding = rounding
		conf.SecurityBits = 20
		conf.MinBatch = 8

		run3(t, d, conf, func(p *Protocol) error {
			gen := prss.NewGen(seed)
			me := p.nw.ID()

			buffer := prep.NewBuffer(d, NewSeededPrep(seed, me), conf)
			p.SetPrep(buffer)

			const bits = 30
			const shift = 8

			vals := make([]*big.Int, trials)
			p.InitTrunc()
			for i := 0; i < trials; i++ {
				vals[i] = gen.ElementBits(d, bits)
				err := p.PrepareTrunc(Secret(d, gen, vals[i])[me],
					bits, shift)
				if err != nil {
					return err
				}
			}
			if err := p.ExchangeTrunc(); err != nil {
				return err
			}
			mc := NewOpener(p)
			for i := 0; i < trials; i++ {
				s, err := p.FinalizeTrunc()
				if err != nil {
					return err
				}
				mc.Prepare(s)
			}
			if err := mc.Exchange(); err != nil {
				return err
			}
			for i := 0; i < trials; i++ {
				c, err := mc.Finalize()
				if err != nil {
					return err
				}
				base := new(big.Int).Rsh(vals[i], shift)
				if rounding == mpc.Nearest {
					half := new(big.Int).Lsh(big.NewInt(1), shift-1)
					base = new(big.Int).Rsh(
						new(big.Int).Add(vals[i], half), shift)
				}
				baseUp := d.Add(base, d.Int(1))
				if c.Cmp(base) != 0 && c.Cmp(baseUp) != 0 {
					return fmt.Errorf(
						"trial %d: %v>>%d opened %v, expected %v or %v",
						i, vals[i], shift, c, base, baseUp)
				}
			}

			// Single-element convenience path.
			v := gen.ElementBits(d, bits)
			s, err := mpc.TruncPr(p, Secret(d, gen, v)[me], bits, shift)
			if err != nil {
				return err
			}
			c, err := mpc.Open(mc, s)
			if err != nil {
				return err
			}
			base := new(big.Int).Rsh(v, shift)
			if rounding == mpc.Nearest {
				half := new(big.Int).Lsh(big.NewInt(1), shift-1)
				base = new(big.Int).Rsh(new(big.Int).Add(v, half), shift)
			}
			baseUp := d.Add(base, d.Int(1))
			if c.Cmp(base) != 0 && c.Cmp(baseUp) != 0 {
				return fmt.Errorf("%v>>%d opened %v, expected %v or %v",
					v, shift, c, base, baseUp)
			}
			return nil
		})
	}
}

func TestTruncErrors(t *testing.T) {
	d := prime(t, "7")
	seed := testSeed("replicated test seed gggggggggggggg")

	run3(t, d, mpc.NewConfig(), func(p *Protocol) error {
		gen := prss.NewGen(seed)
		x := Secret(d, gen, d.Int(2))[p.nw.ID()]

		// Without preprocessing truncation is unsupported.
		p.InitTrunc()
		if err := p.PrepareTrunc(x, 2, 1); !errors.Is(err, mpc.ErrNotSupported) {
			return fmt.Errorf("no prep: got %v", err)
		}

		// The mask does not fit a 3-bit modulus.
		p.SetPrep(prep.NewBuffer(d, NewSeededPrep(seed, p.nw.ID()),
			mpc.NewConfig()))
		if err := p.PrepareTrunc(x, 2, 1); !errors.Is(err, mpc.ErrViolation) {
			return fmt.Errorf("oversized mask: got %v", err)
		}
		if err := p.PrepareTrunc(x, 2, 0); !errors.Is(err, mpc.ErrViolation) {
			return fmt.Errorf("zero shift: got %v", err)
		}
		if err := p.PrepareTrunc(x, 2, 3); !errors.Is(err, mpc.ErrViolation) {
			return fmt.Errorf("shift over bits: got %v", err)
		}
		return nil
	})
}

func TestContract(t *testing.T) {
	d := prime(t, "101")

	run3(t, d, mpc.NewConfig(), func(p *Protocol) error {
		p.InitMul()
		if _, err := p.FinalizeMul(); !errors.Is(err, mpc.ErrContract) {
			return fmt.Errorf("finalize before exchange: got %v", err)
		}
		if err := p.Exchange(); err != nil {
			return err
		}
		if _, err := p.FinalizeMul(); !errors.Is(err, mpc.ErrContract) {
			return fmt.Errorf("finalize past queue: got %v", err)
		}

		mc := NewOpener(p)
		if _, err := mc.Finalize(); !errors.Is(err, mpc.ErrContract) {
			return fmt.Errorf("open before exchange: got %v", err)
		}
		return nil
	})
}

// TestCorrupt flips one byte of the first multiplication message
// between parties 1 and 2 and checks that the receiver aborts with a
// protocol violation while producing no result.
func TestCorrupt(t *testing.T) {
	d := prime(t, "7")
	seed := testSeed("replicated test seed hhhhhhhhhhhhhh")

	nws := p2p.PipeNetwork(NumParties)

	// The seed pass-around occupies the first 36 bytes of the
	// stream from party 1 to party 2; offset 36 is the first
	// reshared element byte.
	ca, cb := p2p.CorruptPipe(36)
	nws[1].SetConn(2, ca)
	nws[2].SetConn(1, cb)

	errs := run3errs(nws, d, mpc.NewConfig(), func(p *Protocol) error {
		gen := prss.NewGen(seed)
		me := p.nw.ID()

		x := Secret(d, gen, d.Int(2))[me]
		y := Secret(d, gen, d.Int(5))[me]
		_, err := mpc.Mul(p, x, y)
		return err
	})

	if !errors.Is(errs[2], mpc.ErrViolation) {
		t.Errorf("party 2: got %v, expected protocol violation", errs[2])
	}
	for _, i := range []int{0, 1} {
		if errs[i] != nil {
			t.Errorf("party %d: %v", i, errs[i])
		}
	}
}

func TestNewBadPartyCount(t *testing.T) {
	d := prime(t, "101")

	nws := p2p.PipeNetwork(2)
	_, err := New(nws[0], d, mpc.NewConfig())
	if !errors.Is(err, mpc.ErrSetup) {
		t.Fatalf("got %v, expected setup error", err)
	}
}
