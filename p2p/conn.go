//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package p2p implements the point-to-point transport between
// protocol parties: a buffered framing connection with background
// writes, an in-memory pipe for tests, and the full-mesh party
// network. Channels are assumed reliable, ordered, and private to
// one peer pair.
package p2p

import (
	"fmt"
	"io"
	"math/big"
	"sync/atomic"

	"github.com/viethuyvu/MP-SPDZ/field"
)

const (
	numBuffers   = 3
	writeBufSize = 64 * 1024
	readBufSize  = 1024 * 1024
)

// Conn implements a protocol connection.
type Conn struct {
	conn      io.ReadWriter
	writeBuf  []byte
	writePos  int
	readBuf   []byte
	readStart int
	readEnd   int
	Stats     IOStats

	fromWriter chan []byte
	toWriter   chan []byte
	writerErr  error
}

// IOStats implements I/O statistics.
type IOStats struct {
	Sent    *atomic.Uint64
	Recvd   *atomic.Uint64
	Flushed *atomic.Uint64
}

// NewIOStats creates a new I/O statistics object.
func NewIOStats() IOStats {
	return IOStats{
		Sent:    new(atomic.Uint64),
		Recvd:   new(atomic.Uint64),
		Flushed: new(atomic.Uint64),
	}
}

// Add adds the argument stats to this IOStats and returns the sum.
func (stats IOStats) Add(o IOStats) IOStats {
	sum := NewIOStats()
	sum.Sent.Store(stats.Sent.Load() + o.Sent.Load())
	sum.Recvd.Store(stats.Recvd.Load() + o.Recvd.Load())
	sum.Flushed.Store(stats.Flushed.Load() + o.Flushed.Load())
	return sum
}

// Sum returns sum of sent and received bytes.
func (stats IOStats) Sum() uint64 {
	return stats.Sent.Load() + stats.Recvd.Load()
}

// NewConn creates a new connection around the argument connection.
func NewConn(conn io.ReadWriter) *Conn {
	c := &Conn{
		conn:       conn,
		readBuf:    make([]byte, readBufSize),
		fromWriter: make(chan []byte, numBuffers),
		toWriter:   make(chan []byte, numBuffers),
		Stats:      NewIOStats(),
	}

	go c.writer()

	c.writeBuf = <-c.fromWriter

	return c
}

func (c *Conn) writer() {
	for i := 0; i < numBuffers; i++ {
		c.fromWriter <- make([]byte, writeBufSize)
	}

	for buf := range c.toWriter {
		_, err := c.conn.Write(buf)
		if err != nil {
			c.writerErr = err
		}
		c.fromWriter <- buf[0:cap(buf)]
	}
	close(c.fromWriter)
}

// Flush flushes any pending data in the connection.
func (c *Conn) Flush() error {
	if c.writePos > 0 {
		c.Stats.Sent.Add(uint64(c.writePos))
		c.toWriter <- c.writeBuf[0:c.writePos]

		next := <-c.fromWriter
		if c.writerErr != nil {
			return c.writerErr
		}

		c.writeBuf = next
		c.writePos = 0
		c.Stats.Flushed.Add(1)
	}
	return nil
}

// fill fills the input buffer from the connection. Any unused data
// in the buffer is moved to the beginning of the buffer.
func (c *Conn) fill(n int) error {
	if c.readStart < c.readEnd {
		copy(c.readBuf[0:], c.readBuf[c.readStart:c.readEnd])
		c.readEnd -= c.readStart
		c.readStart = 0
	} else {
		c.readStart = 0
		c.readEnd = 0
	}
	for c.readStart+n > c.readEnd {
		got, err := c.conn.Read(c.readBuf[c.readEnd:])
		if err != nil {
			return err
		}
		c.Stats.Recvd.Add(uint64(got))
		c.readEnd += got
	}
	return nil
}

// Close flushes any pending data and closes the connection.
func (c *Conn) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	// Wait that flush completes.
	close(c.toWriter)
	for range <-c.fromWriter {
	}
	if c.writerErr != nil {
		return c.writerErr
	}
	closer, ok := c.conn.(io.Closer)
	if ok {
		return closer.Close()
	}
	return nil
}

// SendByte sends a byte value.
func (c *Conn) SendByte(val byte) error {
	if c.writePos+1 > len(c.writeBuf) {
		if err := c.Flush(); err != nil {
			return err
		}
	}
	c.writeBuf[c.writePos] = val
	c.writePos++
	return nil
}

// SendUint32 sends an uint32 value.
func (c *Conn) SendUint32(val int) error {
	if c.writePos+4 > len(c.writeBuf) {
		if err := c.Flush(); err != nil {
			return err
		}
	}
	c.writeBuf[c.writePos+0] = byte((uint32(val) >> 24) & 0xff)
	c.writeBuf[c.writePos+1] = byte((uint32(val) >> 16) & 0xff)
	c.writeBuf[c.writePos+2] = byte((uint32(val) >> 8) & 0xff)
	c.writeBuf[c.writePos+3] = byte(uint32(val) & 0xff)
	c.writePos += 4
	return nil
}

// SendData sends length-prefixed binary data. It is used only
// during connection setup; protocol rounds use the raw fixed-width
// element encoding.
func (c *Conn) SendData(val []byte) error {
	if c.writePos+4+len(val) > len(c.writeBuf) {
		if err := c.Flush(); err != nil {
			return err
		}
	}
	err := c.SendUint32(len(val))
	if err != nil {
		return err
	}
	return c.SendRaw(val)
}

// SendRaw sends binary data without a length prefix.
func (c *Conn) SendRaw(val []byte) error {
	for len(val) > 0 {
		if c.writePos >= len(c.writeBuf) {
			if err := c.Flush(); err != nil {
				return err
			}
		}
		n := copy(c.writeBuf[c.writePos:], val)
		c.writePos += n
		val = val[n:]
	}
	return nil
}

// SendString sends a string value.
func (c *Conn) SendString(val string) error {
	return c.SendData([]byte(val))
}

// SendElement sends one field element in the domain's fixed-width
// encoding.
func (c *Conn) SendElement(d *field.Domain, v *big.Int) error {
	buf := make([]byte, d.Size())
	v.FillBytes(buf)
	return c.SendRaw(buf)
}

// ReceiveByte receives a byte value.
func (c *Conn) ReceiveByte() (byte, error) {
	if c.readStart+1 > c.readEnd {
		if err := c.fill(1); err != nil {
			return 0, err
		}
	}
	val := c.readBuf[c.readStart]
	c.readStart++
	return val, nil
}

// ReceiveUint32 receives an uint32 value.
func (c *Conn) ReceiveUint32() (int, error) {
	if c.readStart+4 > c.readEnd {
		if err := c.fill(4); err != nil {
			return 0, err
		}
	}
	val := uint32(c.readBuf[c.readStart+0])
	val <<= 8
	val |= uint32(c.readBuf[c.readStart+1])
	val <<= 8
	val |= uint32(c.readBuf[c.readStart+2])
	val <<= 8
	val |= uint32(c.readBuf[c.readStart+3])
	c.readStart += 4

	return int(val), nil
}

// ReceiveData receives length-prefixed binary data.
func (c *Conn) ReceiveData() ([]byte, error) {
	len, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	return c.ReceiveRaw(len)
}

// ReceiveRaw receives exactly n bytes of binary data without a
// length prefix.
func (c *Conn) ReceiveRaw(n int) ([]byte, error) {
	result := make([]byte, 0, n)
	for len(result) < n {
		if c.readStart >= c.readEnd {
			want := n - len(result)
			if want > len(c.readBuf) {
				want = len(c.readBuf)
			}
			if err := c.fill(want); err != nil {
				return nil, err
			}
		}
		take := c.readEnd - c.readStart
		if take > n-len(result) {
			take = n - len(result)
		}
		result = append(result, c.readBuf[c.readStart:c.readStart+take]...)
		c.readStart += take
	}
	return result, nil
}

// ReceiveString receives a string value.
func (c *Conn) ReceiveString() (string, error) {
	data, err := c.ReceiveData()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReceiveElement receives one field element in the domain's
// fixed-width encoding.
func (c *Conn) ReceiveElement(d *field.Domain) (*big.Int, error) {
	data, err := c.ReceiveRaw(d.Size())
	if err != nil {
		return nil, err
	}
	v, err := d.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("p2p: malformed element: %w", err)
	}
	return v, nil
}
