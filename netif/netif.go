// Package netif bridges an ADIN1110/ADIN2111 device to a host TCP/IP
// protocol stack: it wires the stack's link-layer hooks to the device
// FIFOs and multiplexes a small fixed table of logical connections
// onto the stack's callback API.
package netif

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/soypat/lneto/ethernet"

	"github.com/netdrivers/adin1110"
	"github.com/netdrivers/adin1110/internal"
)

const (
	ethHeaderLen = 14
	// maxFrame matches the largest frame the device transport moves in
	// one bus transaction.
	maxFrame = 2048

	defaultOutputRetries = 8
)

// FrameDevice is the slice of the driver the interface consumes.
// *adin1110.Device satisfies it.
type FrameDevice interface {
	WriteFrame(port int, frm *adin1110.FrameBuffer) error
	ReadFrame(port int, frm *adin1110.FrameBuffer) (bool, error)
	MACAddr() [6]byte
	Ports() int
}

var _ FrameDevice = (*adin1110.Device)(nil)

// Config holds the parameters for [Attach].
type Config struct {
	// Port selects the device port the stack transmits on. Receive
	// drains every port.
	Port int
	// OutputRetries bounds the would-block retries of the link output
	// hook. Zero selects a small default.
	OutputRetries int
	// StartDHCP starts the stack's DHCP client during Attach. The
	// stack must implement [DHCPStarter].
	StartDHCP bool
	Logger    *slog.Logger
}

// Interface couples one device to one host-stack instance and owns the
// socket table. The interface mutex serializes the socket operations
// and Poll; the stack invokes its callbacks inside that serialization,
// so callbacks mutate the table without locking.
type Interface struct {
	mu            sync.Mutex
	dev           FrameDevice
	stack         Stack
	port          int
	outputRetries int
	socks         [MaxSockets]socket
	logger

	// frame is the receive assembly buffer: Ethernet header rebuilt at
	// the front, payload read directly behind it.
	frame [maxFrame]byte
}

// Attach binds dev to stack: programs the stack's hardware address
// from the device, installs the link output hook and optionally starts
// DHCP.
func Attach(dev FrameDevice, stack Stack, cfg Config) (*Interface, error) {
	switch {
	case dev == nil:
		return nil, errNilDevice
	case stack == nil:
		return nil, errNilStack
	case cfg.Port < 0 || cfg.Port >= dev.Ports():
		return nil, errBadPort
	case stack.MTU() > maxFrame-ethHeaderLen:
		return nil, errBadMTU
	}
	retries := cfg.OutputRetries
	if retries <= 0 {
		retries = defaultOutputRetries
	}
	nif := &Interface{
		dev:           dev,
		stack:         stack,
		port:          cfg.Port,
		outputRetries: retries,
		logger:        logger{log: cfg.Logger},
	}
	stack.SetHardwareAddr(dev.MACAddr())
	stack.SetLinkOutput(nif.linkOutput)
	if cfg.StartDHCP {
		d, ok := stack.(DHCPStarter)
		if !ok {
			return nil, errNoDHCP
		}
		if err := d.StartDHCP(); err != nil {
			return nil, err
		}
	}
	nif.info("netif:attach",
		slog.Int("port", cfg.Port),
		slog.Int("mtu", stack.MTU()),
	)
	return nif, nil
}

// linkOutput is the transmit hook handed to the stack. It runs inside
// stack processing, which may itself run inside Poll, so it takes no
// interface lock; the device serializes bus access internally. FIFO
// backpressure is retried a bounded number of times before the
// would-block condition surfaces to the stack.
func (nif *Interface) linkOutput(frame []byte) error {
	if len(frame) < ethHeaderLen {
		return errShortFrame
	}
	efrm, err := ethernet.NewFrame(frame)
	if err != nil {
		return err
	}
	frm := adin1110.FrameBuffer{
		Destination: *efrm.DestinationHardwareAddr(),
		Source:      *efrm.SourceHardwareAddr(),
		EtherType:   efrm.EtherTypeOrSize(),
		Payload:     frame[ethHeaderLen:],
	}
	b := backoff.Backoff{
		Min:    100 * time.Microsecond,
		Max:    5 * time.Millisecond,
		Factor: 2,
	}
	for try := 0; ; try++ {
		err = nif.dev.WriteFrame(nif.port, &frm)
		if !errors.Is(err, adin1110.ErrWouldBlock) || try == nif.outputRetries {
			break
		}
		time.Sleep(b.Duration())
	}
	if err != nil {
		nif.debug("netif:output", slog.String("err", err.Error()))
	}
	return err
}

// Poll drains every port's RX FIFO into the stack, then drives the
// stack's timers. Call it from the interrupt-edge handler or a plain
// poll loop; it serializes against the socket operations through the
// interface mutex.
func (nif *Interface) Poll() error {
	nif.mu.Lock()
	defer nif.mu.Unlock()
	for port := 0; port < nif.dev.Ports(); port++ {
		for {
			frm := adin1110.FrameBuffer{Payload: nif.frame[ethHeaderLen:ethHeaderLen]}
			ok, err := nif.dev.ReadFrame(port, &frm)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			// Payload landed at frame[14:]; rebuild the header in
			// front of it and hand the stack one contiguous frame.
			efrm, err := ethernet.NewFrame(nif.frame[:])
			if err != nil {
				return err
			}
			*efrm.DestinationHardwareAddr() = frm.Destination
			*efrm.SourceHardwareAddr() = frm.Source
			efrm.SetEtherType(frm.EtherType)
			err = nif.stack.Input(nif.frame[:ethHeaderLen+len(frm.Payload)])
			if err != nil {
				nif.error("netif:input",
					slog.Int("port", port),
					slog.String("err", err.Error()),
				)
			}
		}
	}
	nif.stack.CheckTimeouts()
	return nil
}

type logger struct {
	log *slog.Logger
}

func (l logger) error(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, slog.LevelError, msg, attrs...)
}
func (l logger) info(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, slog.LevelInfo, msg, attrs...)
}
func (l logger) debug(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(l.log, slog.LevelDebug, msg, attrs...)
}
