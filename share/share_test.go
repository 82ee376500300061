//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package share

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/viethuyvu/MP-SPDZ/field"
)

func TestArithmetic(t *testing.T) {
	d, err := field.NewPrime(big.NewInt(11))
	require.NoError(t, err)

	x := FromInts(d, 3, 7)
	y := FromInts(d, 9, 5)

	sum := x.Add(d, y)
	require.Equal(t, int64(1), sum.E[0].Int64())
	require.Equal(t, int64(1), sum.E[1].Int64())

	diff := x.Sub(d, y)
	require.Equal(t, int64(5), diff.E[0].Int64())
	require.Equal(t, int64(2), diff.E[1].Int64())

	neg := x.Neg(d)
	require.Equal(t, int64(8), neg.E[0].Int64())
	require.Equal(t, int64(4), neg.E[1].Int64())

	scaled := x.MulScalar(d, d.Int(2))
	require.Equal(t, int64(6), scaled.E[0].Int64())
	require.Equal(t, int64(3), scaled.E[1].Int64())

	// Addition commutes with reconstruction.
	recon := func(v Vector) *big.Int {
		return d.Add(v.E[0], v.E[1])
	}
	require.Equal(t, d.Add(recon(x), recon(y)), recon(sum))
}

func TestZero(t *testing.T) {
	v := New(2)
	require.Equal(t, 2, v.Len())
	for _, e := range v.E {
		require.Equal(t, 0, e.Sign())
	}
}

func TestLengthMismatch(t *testing.T) {
	d, err := field.NewPrime(big.NewInt(11))
	require.NoError(t, err)

	defer func() {
		require.NotNil(t, recover())
	}()
	FromInts(d, 1, 2).Add(d, FromInts(d, 1))
}

func TestCodec(t *testing.T) {
	d, err := field.NewPrime(big.NewInt(257))
	require.NoError(t, err)

	v := FromInts(d, 42, 256, 0)
	data := v.Encode(d, nil)
	require.Equal(t, 3*d.Size(), len(data))

	got, err := Decode(d, data, 3)
	require.NoError(t, err)
	for i := range v.E {
		require.Zero(t, v.E[i].Cmp(got.E[i]),
			"component %d: %v != %v", i, v.E[i], got.E[i])
	}

	_, err = Decode(d, data, 2)
	require.Error(t, err)
	_, err = Decode(d, data[:len(data)-1], 3)
	require.Error(t, err)
}
