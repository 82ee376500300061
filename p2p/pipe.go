//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"io"
)

// Pipe implements the Conn interface as a bidirectional communication
// pipe. Anything sent to the first endpoint can be received from the
// second and vice versa.
func Pipe() (*Conn, *Conn) {
	var p0, p1 pipe

	p0.r, p1.w = io.Pipe()
	p1.r, p0.w = io.Pipe()

	return NewConn(&p0), NewConn(&p1)
}

// CorruptPipe is like Pipe but flips the bits of the byte at offset
// ofs in the stream written by the first endpoint. It is used to
// test that receivers abort on malformed peer messages.
func CorruptPipe(ofs int) (*Conn, *Conn) {
	var p0, p1 pipe

	p0.r, p1.w = io.Pipe()
	p1.r, p0.w = io.Pipe()

	c := &corrupter{
		pipe: &p0,
		ofs:  ofs,
	}
	return NewConn(c), NewConn(&p1)
}

type pipe struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipe) Close() error {
	if err := p.r.Close(); err != nil {
		return err
	}
	return p.w.Close()
}

func (p *pipe) Read(data []byte) (n int, err error) {
	return p.r.Read(data)
}

func (p *pipe) Write(data []byte) (n int, err error) {
	return p.w.Write(data)
}

type corrupter struct {
	*pipe
	pos int
	ofs int
}

func (c *corrupter) Write(data []byte) (n int, err error) {
	if c.pos <= c.ofs && c.ofs < c.pos+len(data) {
		buf := make([]byte, len(data))
		copy(buf, data)
		buf[c.ofs-c.pos] ^= 0xff
		data = buf
	}
	c.pos += len(data)
	return c.pipe.Write(data)
}
