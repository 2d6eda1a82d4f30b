// Package adin1110 implements a driver for the Analog Devices ADIN1110
// and ADIN2111 10BASE-T1L SPI MAC-PHY devices: register access over the
// SPI control-frame protocol, MDIO access to the embedded PHYs, frame
// transfer through the device FIFOs and the bring-up sequence.
package adin1110

import (
	"encoding/binary"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/netdrivers/adin1110/internal"
)

// SPI is the bus primitive the driver runs on. Transfer performs one
// full-duplex transaction under a single chip-select assertion. rx may
// be nil for write-only transfers; when non-nil it must be at least as
// long as tx.
type SPI interface {
	Transfer(tx, rx []byte) error
}

// Pin is a single GPIO line.
type Pin interface {
	Set(high bool) error
	Get() (bool, error)
}

// Config holds the parameters for [New]. MAC and Reset are required.
type Config struct {
	Chip Chip
	// MAC is programmed into the device's destination address filter.
	MAC [6]byte
	// AppendCRC protects SPI control frames with a CRC8 byte.
	AppendCRC bool
	// CRCPoly overrides the control-frame CRC polynomial. Zero selects
	// DefaultCRCPoly.
	CRCPoly byte
	// Reset drives the active-low hardware reset line.
	Reset Pin
	// Interrupt is the device's interrupt line. Optional; the driver
	// works fully polled without it.
	Interrupt Pin
	Logger    *slog.Logger
}

// Device is a single ADIN1110 or ADIN2111 on a SPI bus. Methods
// serialize bus access through the device mutex; frame transfer entry
// points additionally share the scratch buffers and document their own
// serialization requirements.
type Device struct {
	mu  sync.Mutex
	bus SPI
	rst Pin
	irq Pin

	chip      Chip
	mac       [6]byte
	appendCRC bool
	crcTab    *[256]byte
	logger

	tx [maxFrameBuf]byte
	rx [maxFrameBuf]byte
}

// New initializes a device: hardware PHY reset with identification
// check, MAC soft reset, MAC and PHY setup, and the reset-complete
// handshake. On failure no partially initialized Device escapes and
// any closable resources are released.
func New(bus SPI, cfg Config) (*Device, error) {
	switch {
	case bus == nil:
		return nil, errConfigBus
	case cfg.Reset == nil:
		return nil, errConfigReset
	case cfg.MAC == [6]byte{}:
		return nil, errConfigMAC
	}
	poly := cfg.CRCPoly
	if poly == 0 {
		poly = DefaultCRCPoly
	}
	d := &Device{
		bus:       bus,
		rst:       cfg.Reset,
		irq:       cfg.Interrupt,
		chip:      cfg.Chip,
		mac:       cfg.MAC,
		appendCRC: cfg.AppendCRC,
		crcTab:    MakeCRC8Table(poly),
		logger:    logger{log: cfg.Logger},
	}
	err := d.bringup()
	if err != nil {
		d.releaseResources()
		return nil, err
	}
	d.info("adin1110:up",
		slog.String("chip", d.chip.String()),
		slog.Bool("crc", d.appendCRC),
	)
	return d, nil
}

func (d *Device) bringup() error {
	if err := d.PHYReset(); err != nil {
		return err
	}
	if err := d.MACSoftReset(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setupMAC(); err != nil {
		return err
	}
	if err := d.setupPHY(); err != nil {
		return err
	}
	if err := d.checkReset(); err != nil {
		return err
	}
	return d.writeReg(regVendorInit, vendorInitVal)
}

// Close releases the device's resources in reverse acquisition order.
// Pins and bus are closed when their implementations support it.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.releaseResources()
}

func (d *Device) releaseResources() (err error) {
	closeIf := func(v any) {
		c, ok := v.(io.Closer)
		if ok && err == nil {
			err = c.Close()
		} else if ok {
			c.Close()
		}
	}
	closeIf(d.irq)
	closeIf(d.rst)
	closeIf(d.bus)
	return err
}

// MACAddr returns the address programmed into the MAC filter.
func (d *Device) MACAddr() [6]byte { return d.mac }

// Ports returns the number of Ethernet ports of the device.
func (d *Device) Ports() int { return d.chip.Ports() }

// PHYReset performs the hardware reset sequence: reset line low,
// settle, line high, boot wait, then checks the identification
// register against the configured chip variant.
func (d *Device) PHYReset() error {
	if err := d.rst.Set(false); err != nil {
		return err
	}
	time.Sleep(resetSettleMillis * time.Millisecond)
	if err := d.rst.Set(true); err != nil {
		return err
	}
	time.Sleep(resetBootMillis * time.Millisecond)

	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.readReg(regPhyID)
	if err != nil {
		return err
	}
	if id != d.chip.phyID() {
		d.error("adin1110:bad-id",
			slog.Uint64("got", uint64(id)),
			slog.Uint64("want", uint64(d.chip.phyID())),
		)
		return ErrBadDeviceID
	}
	return nil
}

// MACSoftReset resets the MAC through the keyed soft-reset sequence.
// The four key writes are fire-and-forget; completion is checked
// through the MAC reset status register afterwards.
func (d *Device) MACSoftReset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, key := range [4]uint32{swResetKey1, swResetKey2, swReleaseKey1, swReleaseKey2} {
		if err := d.writeReg(regSoftReset, key); err != nil {
			return err
		}
	}
	status, err := d.readReg(regMACRstStatus)
	if err != nil {
		return err
	}
	if status == 0 {
		return errMACResetPending
	}
	return nil
}

// Reset resets both the MAC and PHY through the reset register.
func (d *Device) Reset() error {
	return d.WriteReg(regReset, resetSWReset)
}

func (d *Device) setupMAC() error {
	err := d.updateReg(regConfig2, config2CRCAppend, config2CRCAppend)
	if err != nil {
		return err
	}
	mask := uint32(imask1LinkChange | imask1TxRdy | imask1RxRdy | imask1SPIErr)
	if d.chip == ADIN2111 {
		mask |= imask1P2RxRdy
	}
	if err := d.writeReg(regIMask1, mask); err != nil {
		return err
	}
	return d.setAddrFilter(regAddrFilterUpr, regAddrFilterLwr, d.mac)
}

// setupPHY releases each port's PHY from software power-down so
// autonegotiation can start. The clear is retried a bounded number of
// times; some silicon revisions need more than one write after reset.
func (d *Device) setupPHY() error {
	for port := 0; port < d.chip.Ports(); port++ {
		phyAddr := mdioPhyAddr(port)
		ctl, err := d.mdioReadC22(phyAddr, phyRegMIControl)
		if err != nil {
			return err
		}
		for try := 0; ctl&miSoftPowerDown != 0; try++ {
			if try == 3 {
				return errPHYPowerDown
			}
			err = d.mdioWriteC22(phyAddr, phyRegMIControl, ctl&^miSoftPowerDown)
			if err != nil {
				return err
			}
			ctl, err = d.mdioReadC22(phyAddr, phyRegMIControl)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// checkReset completes the bring-up: the reset-complete status bit must
// be set, after which the configuration is latched through CONFIG1 SYNC.
func (d *Device) checkReset() error {
	status, err := d.readReg(regStatus0)
	if err != nil {
		return err
	}
	if status&status0ResetC == 0 {
		return errResetIncomplete
	}
	return d.updateReg(regConfig1, config1Sync, config1Sync)
}

// SetMACAddr reprograms the interface address filter.
func (d *Device) SetMACAddr(mac [6]byte) error {
	if mac == [6]byte{} {
		return errConfigMAC
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.setAddrFilter(regAddrFilterUpr, regAddrFilterLwr, mac)
	if err != nil {
		return err
	}
	d.mac = mac
	return nil
}

// SetBroadcastFilter forwards broadcast frames to the host through the
// second address filter slot.
func (d *Device) SetBroadcastFilter(enable bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !enable {
		if err := d.writeReg(regBcastFilterUpr, 0); err != nil {
			return err
		}
		return d.writeReg(regBcastFilterLwr, 0)
	}
	bcast := [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	return d.setAddrFilter(regBcastFilterUpr, regBcastFilterLwr, bcast)
}

func (d *Device) setAddrFilter(uprReg, lwrReg uint16, mac [6]byte) error {
	flags := uint32(macFilterToHost | macFilterApplyPort1)
	if d.chip == ADIN2111 {
		flags |= macFilterApplyPort2
	}
	upr := flags | uint32(binary.BigEndian.Uint16(mac[:2]))
	if err := d.writeReg(uprReg, upr); err != nil {
		return err
	}
	return d.writeReg(lwrReg, binary.BigEndian.Uint32(mac[2:]))
}

// SetPromiscuous forwards frames with unknown destinations to the host
// on the given port, bypassing the MAC filters.
func (d *Device) SetPromiscuous(port int, promisc bool) error {
	if port < 0 || port >= d.chip.Ports() {
		return errBadPort
	}
	mask := uint32(config2FwdUnk2Host)
	if port == 1 {
		mask = config2P2FwdUnk2Host
	}
	var val uint32
	if promisc {
		val = mask
	}
	return d.UpdateReg(regConfig2, mask, val)
}

// LinkUp reports whether the given port's link is established.
func (d *Device) LinkUp(port int) (bool, error) {
	if port < 0 || port >= d.chip.Ports() {
		return false, errBadPort
	}
	status, err := d.ReadReg(regStatus1)
	if err != nil {
		return false, err
	}
	bit := uint32(status1P1LinkUp)
	if port == 1 {
		bit = status1P2LinkUp
	}
	return status&bit != 0, nil
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
