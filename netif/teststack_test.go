package netif

import (
	"errors"

	"github.com/soypat/lneto/ethernet"

	"github.com/netdrivers/adin1110"
)

// testSegment is a received buffer with release tracking.
type testSegment struct {
	data     []byte
	released bool
}

func (s *testSegment) Bytes() []byte { return s.data }
func (s *testSegment) Release()      { s.released = true }

// testConn scripts one stack connection control block.
type testConn struct {
	bound      uint16
	backlog    int
	onAccepted func(TCPConn) error
	onReceived func(Segment)
	onError    func(error)

	space     int
	written   []byte
	moreFlags []bool
	outputs   int
	acked     int
	noDelay   bool

	writeErr   error
	closeFails int
	closeGate  func() bool
	closed     bool
	aborted    bool
}

func (c *testConn) Bind(port uint16) error { c.bound = port; return nil }

func (c *testConn) Listen(backlog int) (TCPConn, error) {
	c.backlog = backlog
	return c, nil
}

func (c *testConn) OnAccepted(fn func(TCPConn) error) { c.onAccepted = fn }
func (c *testConn) OnReceived(fn func(Segment))       { c.onReceived = fn }
func (c *testConn) OnError(fn func(error))            { c.onError = fn }

func (c *testConn) Write(data []byte, more bool) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	if len(data) > c.space {
		return ErrOutOfMemory
	}
	c.space -= len(data)
	c.written = append(c.written, data...)
	c.moreFlags = append(c.moreFlags, more)
	return nil
}

func (c *testConn) Output() error        { c.outputs++; return nil }
func (c *testConn) SendBufferSpace() int { return c.space }
func (c *testConn) Acknowledge(n int)    { c.acked += n }
func (c *testConn) SetNoDelay(on bool)   { c.noDelay = on }

func (c *testConn) Close() error {
	if c.closeGate != nil && !c.closeGate() {
		return errors.New("stack busy")
	}
	if c.closeFails > 0 {
		c.closeFails--
		return errors.New("stack busy")
	}
	c.closed = true
	return nil
}

func (c *testConn) Abort() { c.aborted = true }

// testStack hands out scripted connections and records link traffic.
type testStack struct {
	conns  []*testConn
	next   int
	inputs [][]byte
	output func(frame []byte) error
	hwaddr [6]byte
	ticks  int
	mtu    int

	inputErr error
}

func (s *testStack) NewConn() TCPConn {
	if s.next >= len(s.conns) {
		return nil
	}
	c := s.conns[s.next]
	s.next++
	return c
}

func (s *testStack) Input(frame []byte) error {
	s.inputs = append(s.inputs, append([]byte(nil), frame...))
	return s.inputErr
}

func (s *testStack) SetLinkOutput(output func(frame []byte) error) { s.output = output }
func (s *testStack) SetHardwareAddr(addr [6]byte)                  { s.hwaddr = addr }
func (s *testStack) CheckTimeouts()                                { s.ticks++ }

func (s *testStack) MTU() int {
	if s.mtu == 0 {
		return 1500
	}
	return s.mtu
}

// newTestStack returns a stack with n scripted connections, each with
// ample send space.
func newTestStack(n int) *testStack {
	s := &testStack{}
	for i := 0; i < n; i++ {
		s.conns = append(s.conns, &testConn{space: 4096})
	}
	return s
}

type dhcpStack struct {
	testStack
	dhcpStarted bool
	dhcpErr     error
}

func (s *dhcpStack) StartDHCP() error {
	s.dhcpStarted = true
	return s.dhcpErr
}

// rxFrame is one frame queued for delivery by testDevice.
type rxFrame struct {
	dst, src  [6]byte
	etherType uint16
	payload   []byte
}

type txFrame struct {
	port int
	frm  rxFrame
}

// testDevice scripts the driver side of the interface.
type testDevice struct {
	ports      int
	mac        [6]byte
	rxq        map[int][]rxFrame
	written    []txFrame
	wouldBlock int
}

func newTestDevice(ports int) *testDevice {
	return &testDevice{
		ports: ports,
		mac:   [6]byte{0x02, 0, 0, 0, 0, 0x0A},
		rxq:   make(map[int][]rxFrame),
	}
}

func (d *testDevice) WriteFrame(port int, frm *adin1110.FrameBuffer) error {
	if d.wouldBlock > 0 {
		d.wouldBlock--
		return adin1110.ErrWouldBlock
	}
	d.written = append(d.written, txFrame{port: port, frm: rxFrame{
		dst:       frm.Destination,
		src:       frm.Source,
		etherType: uint16(frm.EtherType),
		payload:   append([]byte(nil), frm.Payload...),
	}})
	return nil
}

func (d *testDevice) ReadFrame(port int, frm *adin1110.FrameBuffer) (bool, error) {
	q := d.rxq[port]
	if len(q) == 0 {
		return false, nil
	}
	f := q[0]
	d.rxq[port] = q[1:]
	frm.Destination = f.dst
	frm.Source = f.src
	frm.EtherType = ethernet.Type(f.etherType)
	frm.Payload = frm.Payload[:len(f.payload)]
	copy(frm.Payload, f.payload)
	return true, nil
}

func (d *testDevice) MACAddr() [6]byte { return d.mac }
func (d *testDevice) Ports() int       { return d.ports }
