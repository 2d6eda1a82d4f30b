package netif

import (
	"errors"
	"log/slog"
	"net/netip"
	"time"

	"github.com/jpillora/backoff"
)

// MaxSockets is the capacity of an Interface's connection table.
const MaxSockets = 8

// closeMaxRetries bounds the close handshake. The stack refuses a
// close only while it lacks memory for the FIN, which clears within a
// few timer ticks.
const closeMaxRetries = 8

// SocketState is the lifecycle state of one socket slot.
type SocketState uint8

const (
	SocketUnused SocketState = iota
	SocketDisconnected
	SocketListening
	SocketAccepting
	SocketWaitingAccept
	SocketConnected
)

func (s SocketState) String() string {
	switch s {
	case SocketUnused:
		return "unused"
	case SocketDisconnected:
		return "disconnected"
	case SocketListening:
		return "listening"
	case SocketAccepting:
		return "accepting"
	case SocketWaitingAccept:
		return "waiting-accept"
	case SocketConnected:
		return "connected"
	default:
		return "invalid"
	}
}

// Handle identifies a socket slot. Handles are generation tagged: a
// slot's generation increments when it returns to the unused state, so
// a handle kept across a close fails with ErrStaleHandle instead of
// touching whatever connection reuses the slot.
type Handle struct {
	idx uint16
	gen uint16
}

type socket struct {
	state SocketState
	gen   uint16
	conn  TCPConn
	rxq   segQueue
}

// slot resolves a handle, rejecting stale generations and released
// slots.
func (nif *Interface) slot(h Handle) (*socket, error) {
	if int(h.idx) >= MaxSockets {
		return nil, ErrStaleHandle
	}
	s := &nif.socks[h.idx]
	if s.gen != h.gen || s.state == SocketUnused {
		return nil, ErrStaleHandle
	}
	return s, nil
}

// Open allocates a socket slot backed by a fresh stack connection.
// This is the only transition out of the unused state.
func (nif *Interface) Open() (Handle, error) {
	nif.mu.Lock()
	defer nif.mu.Unlock()
	for i := range nif.socks {
		s := &nif.socks[i]
		if s.state != SocketUnused {
			continue
		}
		conn := nif.stack.NewConn()
		if conn == nil {
			return Handle{}, ErrTryAgain
		}
		s.state = SocketDisconnected
		s.conn = conn
		return Handle{idx: uint16(i), gen: s.gen}, nil
	}
	return Handle{}, ErrNoFreeSocket
}

// Bind binds the socket to a local TCP port.
func (nif *Interface) Bind(h Handle, port uint16) error {
	nif.mu.Lock()
	defer nif.mu.Unlock()
	s, err := nif.slot(h)
	if err != nil {
		return err
	}
	if s.state != SocketDisconnected {
		return errBadState
	}
	return s.conn.Bind(port)
}

// Listen moves a bound socket into the listening state.
func (nif *Interface) Listen(h Handle, backlog int) error {
	nif.mu.Lock()
	defer nif.mu.Unlock()
	s, err := nif.slot(h)
	if err != nil {
		return err
	}
	if s.state != SocketDisconnected {
		return errBadState
	}
	ln, err := s.conn.Listen(backlog)
	if err != nil {
		return err
	}
	s.conn = ln
	s.state = SocketListening
	return nil
}

// Accept polls for an inbound connection on a listening socket. The
// first call installs the accept callback; every call then scans the
// table for a connection waiting to be accepted and promotes it to
// connected. No waiter yields ErrTryAgain: accept is a poll, not a
// block.
func (nif *Interface) Accept(h Handle) (Handle, error) {
	nif.mu.Lock()
	defer nif.mu.Unlock()
	s, err := nif.slot(h)
	if err != nil {
		return Handle{}, err
	}
	switch s.state {
	case SocketListening:
		s.conn.OnAccepted(nif.accepted)
		s.state = SocketAccepting
	case SocketAccepting:
	default:
		return Handle{}, errBadState
	}
	for i := range nif.socks {
		w := &nif.socks[i]
		if w.state == SocketWaitingAccept {
			w.state = SocketConnected
			return Handle{idx: uint16(i), gen: w.gen}, nil
		}
	}
	return Handle{}, ErrTryAgain
}

// accepted is the inbound-connection callback shared by all listening
// sockets. It runs inside stack processing driven by Poll, which
// already holds the interface mutex. A full table fails loudly: the
// new connection is aborted rather than silently dropped.
func (nif *Interface) accepted(newConn TCPConn) error {
	for i := range nif.socks {
		s := &nif.socks[i]
		if s.state != SocketUnused {
			continue
		}
		s.state = SocketWaitingAccept
		s.conn = newConn
		newConn.SetNoDelay(true)
		nif.watch(i, newConn)
		return nil
	}
	nif.error("netif:accept-table-full", slog.Int("maxSockets", MaxSockets))
	newConn.Abort()
	return ErrNoFreeSocket
}

// watch installs the receive and error callbacks tying conn to slot i.
func (nif *Interface) watch(i int, conn TCPConn) {
	conn.OnReceived(func(seg Segment) {
		s := &nif.socks[i]
		if seg == nil {
			// Peer closed its side. The slot holds until the
			// application closes the socket; queued data is
			// acknowledged back to the stack at that point.
			s.state = SocketDisconnected
			s.conn.OnReceived(nil)
			return
		}
		s.rxq.push(seg)
	})
	conn.OnError(func(err error) {
		// The control block is gone already; drop the slot without
		// touching the connection.
		s := &nif.socks[i]
		nif.error("netif:conn-error",
			slog.Int("socket", i),
			slog.String("state", s.state.String()),
			slog.String("err", err.Error()),
		)
		s.rxq.flush(nil)
		s.conn = nil
		s.state = SocketUnused
		s.gen++
	})
}

// Send queues data for transmission. When the stack's send buffer
// cannot take all of it, only the available amount is written and
// flagged as having more data follow, so the stack holds off flushing;
// the short count tells the caller to retry with the rest. A full
// write flushes immediately.
func (nif *Interface) Send(h Handle, data []byte) (int, error) {
	nif.mu.Lock()
	defer nif.mu.Unlock()
	s, err := nif.slot(h)
	if err != nil {
		return 0, err
	}
	if s.state != SocketConnected {
		return 0, ErrNotConnected
	}
	avail := s.conn.SendBufferSpace()
	if avail <= 0 {
		return 0, ErrTryAgain
	}
	n := len(data)
	more := false
	if avail < n {
		n = avail
		more = true
	}
	err = s.conn.Write(data[:n], more)
	if errors.Is(err, ErrOutOfMemory) {
		return 0, ErrTryAgain
	} else if err != nil {
		return 0, err
	}
	if !more {
		if err := s.conn.Output(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Recv copies queued received data into dst, spanning as many stack
// segments as needed and acknowledging each one back to the stack as
// it is fully consumed. A partial read resumes from the stored cursor
// on the next call. An empty queue yields ErrTryAgain.
func (nif *Interface) Recv(h Handle, dst []byte) (int, error) {
	nif.mu.Lock()
	defer nif.mu.Unlock()
	s, err := nif.slot(h)
	if err != nil {
		return 0, err
	}
	if s.state != SocketConnected {
		return 0, ErrNotConnected
	}
	if s.rxq.empty() {
		return 0, ErrTryAgain
	}
	n := s.rxq.read(dst, s.conn.Acknowledge)
	return n, nil
}

// CloseSocket drains the socket's receive queue, unregisters its
// callbacks and runs the close handshake with a bounded retry. When
// the stack still refuses the close after the retry budget, the
// connection is aborted and ErrCloseTimeout reported; either way the
// slot returns to the unused state and the handle goes stale.
func (nif *Interface) CloseSocket(h Handle) error {
	nif.mu.Lock()
	defer nif.mu.Unlock()
	s, err := nif.slot(h)
	if err != nil {
		return err
	}
	conn := s.conn
	conn.OnAccepted(nil)
	conn.OnReceived(nil)
	conn.OnError(nil)
	s.rxq.flush(conn.Acknowledge)
	s.conn = nil
	s.state = SocketUnused
	s.gen++

	b := backoff.Backoff{
		Min:    time.Millisecond,
		Max:    50 * time.Millisecond,
		Factor: 2,
	}
	for try := 0; try < closeMaxRetries; try++ {
		if err := conn.Close(); err == nil {
			return nil
		}
		// The stack frees the memory the close waits on from its timer
		// path, so Poll must be able to take the lock between attempts.
		nif.mu.Unlock()
		time.Sleep(b.Duration())
		nif.mu.Lock()
	}
	nif.error("netif:close-timeout", slog.Int("socket", int(h.idx)))
	conn.Abort()
	return ErrCloseTimeout
}

// Connect is reserved: the multiplexer is accept-oriented and outbound
// connections are not implemented.
func (nif *Interface) Connect(h Handle, to netip.AddrPort) error {
	return ErrUnsupported
}

// SendTo is reserved: the multiplexer is connection oriented.
func (nif *Interface) SendTo(h Handle, data []byte, to netip.AddrPort) (int, error) {
	return 0, ErrUnsupported
}

// RecvFrom is reserved: the multiplexer is connection oriented.
func (nif *Interface) RecvFrom(h Handle, dst []byte) (int, netip.AddrPort, error) {
	return 0, netip.AddrPort{}, ErrUnsupported
}

// SocketState reports the lifecycle state of the slot h refers to.
// Stale handles report the unused state.
func (nif *Interface) SocketState(h Handle) SocketState {
	nif.mu.Lock()
	defer nif.mu.Unlock()
	s, err := nif.slot(h)
	if err != nil {
		return SocketUnused
	}
	return s.state
}
