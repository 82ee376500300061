//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/viethuyvu/MP-SPDZ/field"
)

func TestConn(t *testing.T) {
	c0, c1 := Pipe()

	d, err := field.NewPrime(big.NewInt(2147483647))
	if err != nil {
		t.Fatalf("NewPrime: %v", err)
	}
	raw := []byte{1, 2, 3, 4, 5, 6, 7}

	go func() {
		c0.SendByte(42)
		c0.SendUint32(0xdeadbeef)
		c0.SendData([]byte("hello"))
		c0.SendString("world")
		c0.SendRaw(raw)
		c0.SendElement(d, big.NewInt(123456789))
		c0.Flush()
	}()

	b, err := c1.ReceiveByte()
	if err != nil || b != 42 {
		t.Fatalf("ReceiveByte: %v, %v", b, err)
	}
	v, err := c1.ReceiveUint32()
	if err != nil || uint32(v) != 0xdeadbeef {
		t.Fatalf("ReceiveUint32: %x, %v", v, err)
	}
	data, err := c1.ReceiveData()
	if err != nil || !bytes.Equal(data, []byte("hello")) {
		t.Fatalf("ReceiveData: %q, %v", data, err)
	}
	str, err := c1.ReceiveString()
	if err != nil || str != "world" {
		t.Fatalf("ReceiveString: %q, %v", str, err)
	}
	data, err = c1.ReceiveRaw(len(raw))
	if err != nil || !bytes.Equal(data, raw) {
		t.Fatalf("ReceiveRaw: %x, %v", data, err)
	}
	e, err := c1.ReceiveElement(d)
	if err != nil || e.Int64() != 123456789 {
		t.Fatalf("ReceiveElement: %v, %v", e, err)
	}
	if got := c1.Stats.Recvd.Load(); got == 0 {
		t.Fatalf("Recvd: got %d", got)
	}
}

func TestConnFlushCount(t *testing.T) {
	c0, c1 := Pipe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			c0.SendByte(byte(i))
		}
		c0.Flush()
	}()

	data, err := c1.ReceiveRaw(10)
	if err != nil {
		t.Fatalf("ReceiveRaw: %v", err)
	}
	<-done
	for i, b := range data {
		if b != byte(i) {
			t.Fatalf("byte %d: got %d", i, b)
		}
	}
	// The whole batch goes out in one flush.
	if got := c0.Stats.Flushed.Load(); got != 1 {
		t.Fatalf("Flushed: got %d, expected 1", got)
	}
}

func TestConnMalformedElement(t *testing.T) {
	c0, c1 := Pipe()

	d, err := field.NewPrime(big.NewInt(11))
	if err != nil {
		t.Fatalf("NewPrime: %v", err)
	}
	go func() {
		c0.SendRaw([]byte{0xff})
		c0.Flush()
	}()

	_, err = c1.ReceiveElement(d)
	if err == nil {
		t.Fatalf("ReceiveElement accepted out-of-range element")
	}
}

func TestCorruptPipe(t *testing.T) {
	const ofs = 5

	c0, c1 := CorruptPipe(ofs)

	msg := make([]byte, 16)
	for i := range msg {
		msg[i] = byte(i)
	}
	go func() {
		c0.SendRaw(msg)
		c0.Flush()
	}()

	data, err := c1.ReceiveRaw(len(msg))
	if err != nil {
		t.Fatalf("ReceiveRaw: %v", err)
	}
	for i, b := range data {
		expect := byte(i)
		if i == ofs {
			expect ^= 0xff
		}
		if b != expect {
			t.Fatalf("byte %d: got %#x, expected %#x", i, b, expect)
		}
	}

	// The reverse direction stays clean.
	go func() {
		c1.SendRaw(msg)
		c1.Flush()
	}()
	data, err = c0.ReceiveRaw(len(msg))
	if err != nil {
		t.Fatalf("ReceiveRaw: %v", err)
	}
	if !bytes.Equal(data, msg) {
		t.Fatalf("reverse direction corrupted: %x", data)
	}
}

func TestPipeNetwork(t *testing.T) {
	nws := PipeNetwork(3)

	for i, nw := range nws {
		if nw.ID() != i {
			t.Fatalf("ID: got %d, expected %d", nw.ID(), i)
		}
		if nw.NumParties() != 3 {
			t.Fatalf("NumParties: got %d", nw.NumParties())
		}
		if nw.Conn(i) != nil {
			t.Fatalf("party %d has a connection to itself", i)
		}
		if nw.Next() == nil || nw.Prev() == nil {
			t.Fatalf("party %d missing neighbour connection", i)
		}
	}

	// Party 0's next connection reaches party 1.
	go func() {
		nws[0].Next().SendByte(7)
		nws[0].Next().Flush()
	}()
	b, err := nws[1].Prev().ReceiveByte()
	if err != nil || b != 7 {
		t.Fatalf("ReceiveByte: %v, %v", b, err)
	}
}
