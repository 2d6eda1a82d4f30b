package netif

import "errors"

// Errors returned by the socket multiplexer. ErrTryAgain marks
// expected transient conditions a caller resolves by retrying; the
// rest are terminal for the operation that returned them.
var (
	ErrTryAgain     = errors.New("netif: try again")
	ErrNotConnected = errors.New("netif: socket not connected")
	ErrStaleHandle  = errors.New("netif: stale socket handle")
	ErrNoFreeSocket = errors.New("netif: no free socket slot")
	ErrCloseTimeout = errors.New("netif: close handshake did not complete")
	ErrUnsupported  = errors.New("netif: operation not supported")

	// ErrOutOfMemory is returned by TCPConn.Write implementations when
	// the stack cannot allocate send-buffer space. The multiplexer maps
	// it to ErrTryAgain.
	ErrOutOfMemory = errors.New("netif: stack out of memory")

	errBadState   = errors.New("netif: socket in wrong state for operation")
	errNilDevice  = errors.New("netif: nil device")
	errNilStack   = errors.New("netif: nil stack")
	errBadPort    = errors.New("netif: device port out of range")
	errBadMTU     = errors.New("netif: stack MTU exceeds device frame limit")
	errNoDHCP     = errors.New("netif: stack does not implement DHCP")
	errShortFrame = errors.New("netif: link output frame too short")
)
