package adin1110

import "errors"

// Errors returned by the driver. ErrWouldBlock is an expected
// steady-state condition, not a failure: callers retry the operation
// once the device has drained its FIFO.
var (
	ErrWouldBlock  = errors.New("adin1110: would block, retry later")
	ErrBadDeviceID = errors.New("adin1110: identification register does not match chip variant")
	ErrMDIOTimeout = errors.New("adin1110: MDIO transaction did not complete")

	errBadPort         = errors.New("adin1110: invalid port")
	errNilFrame        = errors.New("adin1110: nil frame buffer")
	errFrameTooLong    = errors.New("adin1110: frame exceeds transport buffer")
	errMACResetPending = errors.New("adin1110: MAC reset did not complete")
	errResetIncomplete = errors.New("adin1110: reset-complete bit not set")
	errPHYPowerDown    = errors.New("adin1110: PHY stuck in software power-down")
	errConfigBus       = errors.New("adin1110: nil SPI bus")
	errConfigReset     = errors.New("adin1110: nil reset pin")
	errConfigMAC       = errors.New("adin1110: zero MAC address")
)
