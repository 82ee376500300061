//
// main.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Command mpcnode runs one party of a joint computation over a
// TCP mesh. The built-in demo program shares every party's input,
// computes the sum and the product of the first two inputs, and
// opens the results.
package main

import (
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/markkurossi/text/superscript"

	mpc "github.com/viethuyvu/MP-SPDZ"
	"github.com/viethuyvu/MP-SPDZ/field"
	"github.com/viethuyvu/MP-SPDZ/p2p"
	"github.com/viethuyvu/MP-SPDZ/prep"
	"github.com/viethuyvu/MP-SPDZ/prss"
	"github.com/viethuyvu/MP-SPDZ/replicated"
	"github.com/viethuyvu/MP-SPDZ/semi"
)

func main() {
	party := flag.Int("p", 0, "Party index")
	numParties := flag.Int("n", 3, "Number of parties")
	leader := flag.String("leader", "localhost:8100", "Leader address")
	addr := flag.String("addr", "localhost:8100", "Listen address")
	scheme := flag.String("scheme", "replicated",
		"Sharing scheme (replicated, semi)")
	modulus := flag.String("modulus", "170141183460469231731687303715884105727",
		"Prime modulus")
	input := flag.Int64("i", 0, "Private input")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	mod, ok := new(big.Int).SetString(*modulus, 10)
	if !ok {
		fmt.Printf("invalid modulus '%s'\n", *modulus)
		os.Exit(1)
	}
	d, err := field.NewPrime(mod)
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}

	var nw *p2p.Network
	if *party == 0 {
		nw, err = p2p.CreateNetwork(*addr, *numParties)
	} else {
		nw, err = p2p.JoinNetwork(*leader, *addr, *party, *numParties)
	}
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}
	defer nw.Close()
	nw.Verbose = *verbose

	err = nw.Connect()
	if err != nil {
		fmt.Printf("connect: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("party%s connected: %d-party %s over %v\n",
		superscript.Itoa(*party), *numParties, *scheme, d)

	conf := mpc.NewConfig()
	conf.Verbose = *verbose

	// The demo preprocessing seed is fixed and shared; see
	// SeededPrep for why this is not secure provisioning.
	var seed [prss.SeedSize]byte
	copy(seed[:], []byte("mpcnode demo preprocessing seed."))

	var proto mpc.Protocol
	var mc mpc.Opener
	var in mpc.Input

	switch *scheme {
	case "replicated":
		p, err := replicated.New(nw, d, conf)
		if err != nil {
			fmt.Printf("%s\n", err)
			os.Exit(1)
		}
		buffer := prep.NewBuffer(d, replicated.NewSeededPrep(seed, *party),
			conf)
		buffer.StartWorker()
		defer buffer.Close()
		p.SetPrep(buffer)
		proto, mc, in = p, replicated.NewOpener(p), replicated.NewInput(p)

	case "semi":
		buffer := prep.NewBuffer(d,
			semi.NewSeededPrep(seed, *party, *numParties), conf)
		buffer.StartWorker()
		defer buffer.Close()
		p, err := semi.New(nw, d, buffer, conf)
		if err != nil {
			fmt.Printf("%s\n", err)
			os.Exit(1)
		}
		proto, mc, in = p, semi.NewOpener(p), semi.NewInput(p)

	default:
		fmt.Printf("unknown scheme '%s'\n", *scheme)
		os.Exit(1)
	}

	stats := mpc.NewStats(proto.Counters())

	err = run(nw, proto, mc, in, *input)
	if err != nil {
		fmt.Printf("run: %s\n", err)
		os.Exit(1)
	}

	if *verbose {
		stats.Print(nw.Stats())
	}
}

// run shares every party's input, opens the sum of all inputs and
// the product of the first two.
func run(nw *p2p.Network, proto mpc.Protocol, mc mpc.Opener, in mpc.Input,
	input int64) error {

	d := proto.Domain()
	n := nw.NumParties()

	proc := mpc.NewProcessor(nw.ID(), proto, mc, in, n+8)

	// Registers 0..n-1: the shared inputs.
	dst := make([]int, n)
	parties := make([]int, n)
	for i := 0; i < n; i++ {
		dst[i] = i
		parties[i] = i
	}
	err := proc.Inputs(dst, parties, []*big.Int{d.Int(input)})
	if err != nil {
		return err
	}

	// Register n: sum of all inputs.
	proc.S[n] = proc.S[0]
	for i := 1; i < nw.NumParties(); i++ {
		proc.Adds(n, n, i)
	}

	// Register n+1: product of the first two inputs.
	err = proc.Muls([]int{n + 1}, []int{0}, []int{1})
	if err != nil {
		return err
	}

	err = proc.POpen([]int{0, 1}, []int{n, n + 1})
	if err != nil {
		return err
	}
	fmt.Printf("sum     = %v\n", proc.C[0])
	fmt.Printf("product = %v\n", proc.C[1])

	return nil
}
