//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/markkurossi/text/superscript"
)

// Network implements the full-mesh peer-to-peer network between
// protocol parties. Parties are addressed by their stable index
// 0..n-1; party 0 acts as the connection leader.
type Network struct {
	Verbose bool

	m        sync.Mutex
	id       int
	n        int
	listener net.Listener
	peers    []*Peer
}

// Peer implements a peer in the network.
type Peer struct {
	ID   int
	Addr string
	Conn *Conn
}

func (p *Peer) String() string {
	return fmt.Sprintf("%d[%v]", p.ID, p.Addr)
}

// Close closes the peer.
func (p *Peer) Close() {
	if p.Conn != nil {
		p.Conn.Close()
	}
}

// CreateNetwork creates the network for the leader party 0.
func CreateNetwork(addr string, numParties int) (*Network, error) {
	if numParties < 2 {
		return nil, fmt.Errorf("p2p: invalid number of parties %d", numParties)
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	nw := &Network{
		n:        numParties,
		listener: l,
		peers:    make([]*Peer, numParties),
	}
	nw.peers[0] = &Peer{
		Addr: addr,
	}
	return nw, nil
}

// JoinNetwork joins the leader's network as party id.
func JoinNetwork(leader, addr string, id, numParties int) (*Network, error) {
	if id < 1 || id >= numParties {
		return nil, fmt.Errorf("p2p: invalid ID %v: expected [1...%v[",
			id, numParties)
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	c, err := net.Dial("tcp", leader)
	if err != nil {
		l.Close()
		return nil, err
	}
	nw := &Network{
		id:       id,
		n:        numParties,
		listener: l,
		peers:    make([]*Peer, numParties),
	}
	nw.peers[id] = &Peer{
		ID:   id,
		Addr: addr,
	}
	nw.peers[0] = &Peer{
		Addr: leader,
		Conn: NewConn(c),
	}
	return nw, nil
}

// Connect completes the full mesh. The leader collects all party
// endpoints and distributes them; the remaining connections are made
// pairwise with the lower-index party dialing.
func (nw *Network) Connect() error {
	if nw.id == 0 {
		return nw.connectLeader()
	}
	return nw.connectPeer()
}

func (nw *Network) connectLeader() error {
	var count int
	for _, p := range nw.peers {
		if p != nil {
			count++
		}
	}
	for count < nw.n {
		c, err := nw.listener.Accept()
		if err != nil {
			return err
		}
		conn := NewConn(c)
		id, err := conn.ReceiveUint32()
		if err != nil {
			conn.Close()
			return err
		}
		addr, err := conn.ReceiveString()
		if err != nil {
			conn.Close()
			return err
		}
		if id < 1 || id >= nw.n || nw.peers[id] != nil {
			conn.Close()
			return fmt.Errorf("p2p: invalid peer ID %v", id)
		}
		nw.peers[id] = &Peer{
			ID:   id,
			Addr: addr,
			Conn: conn,
		}
		nw.Debugf("New peer %v\n", nw.peers[id])
		count++
	}

	// Send network info to all peers.
	for _, peer := range nw.peers[1:] {
		err := peer.Conn.SendUint32(nw.n)
		if err != nil {
			return err
		}
		for _, i := range nw.peers[1:] {
			if i.ID == peer.ID {
				continue
			}
			err = peer.Conn.SendUint32(i.ID)
			if err != nil {
				return err
			}
			err = peer.Conn.SendString(i.Addr)
			if err != nil {
				return err
			}
		}
		err = peer.Conn.Flush()
		if err != nil {
			return err
		}
	}
	return nil
}

func (nw *Network) connectPeer() error {
	leader := nw.peers[0]

	err := leader.Conn.SendUint32(nw.id)
	if err != nil {
		return err
	}
	err = leader.Conn.SendString(nw.peers[nw.id].Addr)
	if err != nil {
		return err
	}
	err = leader.Conn.Flush()
	if err != nil {
		return err
	}

	// Get other peers' connection endpoints.
	n, err := leader.Conn.ReceiveUint32()
	if err != nil {
		return err
	}
	if n != nw.n {
		return fmt.Errorf("p2p: leader runs %d-party network, expected %d",
			n, nw.n)
	}
	type endpoint struct {
		id   int
		addr string
	}
	var endpoints []endpoint
	for i := 0; i < nw.n-2; i++ {
		id, err := leader.Conn.ReceiveUint32()
		if err != nil {
			return err
		}
		addr, err := leader.Conn.ReceiveString()
		if err != nil {
			return err
		}
		endpoints = append(endpoints, endpoint{
			id:   id,
			addr: addr,
		})
	}
	sort.Slice(endpoints, func(i, j int) bool {
		return endpoints[i].id < endpoints[j].id
	})

	// Connect the mesh: the lower-index party dials.
	for _, ep := range endpoints {
		if ep.id > nw.id {
			continue
		}
		c, err := net.Dial("tcp", ep.addr)
		if err != nil {
			return err
		}
		conn := NewConn(c)
		err = conn.SendUint32(nw.id)
		if err != nil {
			conn.Close()
			return err
		}
		err = conn.Flush()
		if err != nil {
			conn.Close()
			return err
		}
		nw.peers[ep.id] = &Peer{
			ID:   ep.id,
			Addr: ep.addr,
			Conn: conn,
		}
		nw.Debugf("New peer %v\n", nw.peers[ep.id])
	}
	for _, ep := range endpoints {
		if ep.id < nw.id {
			continue
		}
		c, err := nw.listener.Accept()
		if err != nil {
			return err
		}
		conn := NewConn(c)
		id, err := conn.ReceiveUint32()
		if err != nil {
			conn.Close()
			return err
		}
		if id < 0 || id >= nw.n || nw.peers[id] != nil {
			conn.Close()
			return fmt.Errorf("p2p: invalid peer ID %v", id)
		}
		nw.peers[id] = &Peer{
			ID:   id,
			Conn: conn,
		}
		nw.Debugf("New peer %v\n", nw.peers[id])
	}
	return nil
}

// PipeNetwork creates n fully connected in-memory networks, one per
// party. It is used in tests and single-process demos.
func PipeNetwork(n int) []*Network {
	nws := make([]*Network, n)
	for i := 0; i < n; i++ {
		nws[i] = &Network{
			id:    i,
			n:     n,
			peers: make([]*Peer, n),
		}
		nws[i].peers[i] = &Peer{
			ID: i,
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ci, cj := Pipe()
			nws[i].peers[j] = &Peer{
				ID:   j,
				Conn: ci,
			}
			nws[j].peers[i] = &Peer{
				ID:   i,
				Conn: cj,
			}
		}
	}
	return nws
}

// ID returns this party's index.
func (nw *Network) ID() int {
	return nw.id
}

// IDString returns the party index as a superscript label.
func (nw *Network) IDString() string {
	return superscript.Itoa(nw.id)
}

// NumParties returns the number of parties in the network.
func (nw *Network) NumParties() int {
	return nw.n
}

// Conn returns the connection to the argument party.
func (nw *Network) Conn(id int) *Conn {
	nw.m.Lock()
	defer nw.m.Unlock()

	p := nw.peers[id]
	if p == nil {
		return nil
	}
	return p.Conn
}

// Next returns the connection to party id+1 mod n.
func (nw *Network) Next() *Conn {
	return nw.Conn((nw.id + 1) % nw.n)
}

// Prev returns the connection to party id-1 mod n.
func (nw *Network) Prev() *Conn {
	return nw.Conn((nw.id + nw.n - 1) % nw.n)
}

// SetConn overrides the connection to the argument party. It is
// used by tests to inject faulty transports.
func (nw *Network) SetConn(id int, conn *Conn) {
	nw.m.Lock()
	defer nw.m.Unlock()

	nw.peers[id] = &Peer{
		ID:   id,
		Conn: conn,
	}
}

// Stats returns the sum of I/O statistics over all peer
// connections.
func (nw *Network) Stats() IOStats {
	nw.m.Lock()
	defer nw.m.Unlock()

	stats := NewIOStats()
	for _, p := range nw.peers {
		if p != nil && p.Conn != nil {
			stats = stats.Add(p.Conn.Stats)
		}
	}
	return stats
}

// Close closes the network and all its peer connections.
func (nw *Network) Close() {
	nw.m.Lock()
	defer nw.m.Unlock()

	for _, p := range nw.peers {
		if p != nil {
			p.Close()
		}
	}
	if nw.listener != nil {
		nw.listener.Close()
	}
}

// Debugf prints a debugging message if verbose output is enabled.
func (nw *Network) Debugf(format string, a ...interface{}) {
	if !nw.Verbose {
		return
	}
	fmt.Printf("%s: ", superscript.Itoa(nw.id))
	fmt.Printf(format, a...)
}
