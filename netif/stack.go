package netif

// Stack is the host TCP/IP protocol stack the interface bridges to.
// The stack owns all TCP semantics: segmentation, windows,
// retransmission. This package only moves frames between the stack and
// the device and maps a fixed connection table onto the stack's
// callback model.
//
// Implementations invoke registered callbacks from within Input and
// CheckTimeouts only. The multiplexer relies on that: callbacks run on
// the goroutine driving [Interface.Poll] and never take locks.
type Stack interface {
	// NewConn allocates a connection control block. Returns nil when
	// the stack has none free.
	NewConn() TCPConn
	// Input hands one received link-layer frame to the stack. The
	// stack must not retain frame past the call.
	Input(frame []byte) error
	// SetLinkOutput installs the hook the stack calls to transmit a
	// link-layer frame.
	SetLinkOutput(output func(frame []byte) error)
	SetHardwareAddr(addr [6]byte)
	// CheckTimeouts drives the stack's timers (retransmission, delayed
	// ACK). Called once per poll pass.
	CheckTimeouts()
	MTU() int
}

// DHCPStarter is implemented by stacks that can acquire their own
// address lease once the link is bound.
type DHCPStarter interface {
	StartDHCP() error
}

// TCPConn is one of the stack's connection control blocks, exposed
// through the stack's raw callback API. Callback setters accept nil to
// unregister.
type TCPConn interface {
	Bind(port uint16) error
	// Listen moves the connection into the listening state. The stack
	// may return a different control block for the listener.
	Listen(backlog int) (TCPConn, error)
	// OnAccepted registers the inbound-connection callback of a
	// listener. A non-nil error return tells the stack to drop the new
	// connection.
	OnAccepted(fn func(newConn TCPConn) error)
	// OnReceived registers the receive callback. A nil segment signals
	// a peer-initiated close. Segment ownership transfers to the
	// callback.
	OnReceived(fn func(seg Segment))
	// OnError registers the fatal-error callback. When it fires the
	// control block is already gone and must not be used again.
	OnError(fn func(err error))
	// Write copies data into the send buffer. more indicates further
	// data follows immediately, letting the stack coalesce segments.
	// Returns ErrOutOfMemory when buffer space cannot be allocated.
	Write(data []byte, more bool) error
	// Output flushes buffered send data onto the wire.
	Output() error
	// SendBufferSpace returns the bytes currently available for Write.
	SendBufferSpace() int
	// Acknowledge reopens n bytes of the receive window after the
	// application consumed them.
	Acknowledge(n int)
	SetNoDelay(on bool)
	// Close starts the close handshake. May fail transiently while the
	// stack lacks resources to send the FIN; callers retry.
	Close() error
	// Abort tears the connection down with a reset, never fails.
	Abort()
}

// Segment is one received buffer handed to the multiplexer by the
// stack's receive callback. The multiplexer owns it until Release
// returns the storage to the stack.
type Segment interface {
	Bytes() []byte
	Release()
}
