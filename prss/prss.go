//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package prss implements pseudo-random secret sharing: pairwise
// shared pseudorandom element streams that the owning parties
// advance in lockstep without communication. Divergent call
// sequences between owners of one stream break protocol
// correctness, so every stream is labeled by purpose and owners
// draw from it at identical points of the instruction stream.
package prss

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/sha3"

	"github.com/viethuyvu/MP-SPDZ/field"
	"github.com/viethuyvu/MP-SPDZ/p2p"
)

// SeedSize is the size of a pairwise seed in bytes.
const SeedSize = 32

// Gen generates a pseudorandom stream shared by a party subset. It
// implements io.Reader over the raw key stream.
type Gen struct {
	cipher *chacha20.Cipher
}

// NewGen creates a generator from a 32-byte seed.
func NewGen(seed [SeedSize]byte) *Gen {
	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		panic(err)
	}
	return &Gen{
		cipher: cipher,
	}
}

// Read fills p with key stream bytes. It never fails.
func (g *Gen) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	g.cipher.XORKeyStream(p, p)
	return len(p), nil
}

// Element draws a uniformly random domain element.
func (g *Gen) Element(d *field.Domain) *big.Int {
	v, err := d.Sample(g)
	if err != nil {
		panic(err)
	}
	return v
}

// ElementBits draws a random element of at most nbits bits.
func (g *Gen) ElementBits(d *field.Domain, nbits int) *big.Int {
	v, err := d.SampleBits(g, nbits)
	if err != nil {
		panic(err)
	}
	return v
}

// Seeds holds the pairwise seeds this party shares with its ring
// neighbours: one with the next party and one with the previous
// party. Purpose-labeled generator pairs are derived from them.
type Seeds struct {
	next [SeedSize]byte
	prev [SeedSize]byte
}

// Setup establishes the pairwise seeds over the ring: every party
// draws fresh entropy, sends it to the next party, and receives the
// previous party's entropy. After setup this party's next seed
// equals the next party's prev seed.
func Setup(next, prev *p2p.Conn) (*Seeds, error) {
	var entropy [SeedSize]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		return nil, err
	}
	if err := next.SendData(entropy[:]); err != nil {
		return nil, err
	}
	if err := next.Flush(); err != nil {
		return nil, err
	}
	data, err := prev.ReceiveData()
	if err != nil {
		return nil, err
	}
	if len(data) != SeedSize {
		return nil, fmt.Errorf("prss: %d-byte seed: expected %d",
			len(data), SeedSize)
	}
	s := &Seeds{
		next: entropy,
	}
	copy(s.prev[:], data)
	return s, nil
}

// Pair holds the two generators derived for one purpose label:
// Next is shared with the next party, Prev with the previous
// party. This party's Next stream is bit-identical to the next
// party's Prev stream.
type Pair struct {
	Next *Gen
	Prev *Gen
}

// Pair derives a purpose-labeled generator pair. Distinct labels
// yield independent streams, so protocol phases that draw at
// different rates cannot desynchronize each other.
func (s *Seeds) Pair(label string) *Pair {
	return &Pair{
		Next: NewGen(derive(s.next, label)),
		Prev: NewGen(derive(s.prev, label)),
	}
}

func derive(seed [SeedSize]byte, label string) [SeedSize]byte {
	h := sha3.New256()
	h.Write(seed[:])
	h.Write([]byte(label))
	var key [SeedSize]byte
	copy(key[:], h.Sum(nil))
	return key
}
