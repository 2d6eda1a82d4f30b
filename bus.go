package adin1110

import "encoding/binary"

//
// SPI control-frame codec.
//

// putCommandHeader encodes the 16-bit big-endian command header into
// dst: control-frame marker, read/write direction and 13-bit register
// address. dst must be at least 2 bytes long.
func putCommandHeader(dst []byte, addr uint16, write bool) {
	binary.BigEndian.PutUint16(dst, addr&addrMask)
	dst[0] |= spiCD
	if write {
		dst[0] |= spiRW
	}
}

// parseCommandHeader decodes a command header previously encoded with
// [putCommandHeader].
func parseCommandHeader(hdr []byte) (addr uint16, write bool) {
	addr = binary.BigEndian.Uint16(hdr) & addrMask
	write = hdr[0]&spiRW != 0
	return addr, write
}

// WriteReg writes a 32-bit value to a MAC register.
func (d *Device) WriteReg(addr uint16, val uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(addr, val)
}

// ReadReg reads a 32-bit MAC register.
func (d *Device) ReadReg(addr uint16) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readReg(addr)
}

// UpdateReg rewrites the bits of a MAC register selected by mask with
// the corresponding bits of val. The read and write hold the bus for
// their own duration only; the sequence is not atomic with respect to
// the device's internal state machine.
func (d *Device) UpdateReg(addr uint16, mask, val uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateReg(addr, mask, val)
}

func (d *Device) writeReg(addr uint16, val uint32) error {
	buf := d.tx[:wrFrameSize]
	putCommandHeader(buf, addr, true)
	binary.BigEndian.PutUint32(buf[wrHeaderLen:], val)
	if d.appendCRC {
		buf = d.tx[:wrFrameSize+1]
		buf[wrFrameSize] = CRC8(d.crcTab, buf[wrHeaderLen:wrFrameSize])
	}
	return d.bus.Transfer(buf, nil)
}

func (d *Device) readReg(addr uint16) (uint32, error) {
	tx := d.tx[:rdFrameSize]
	rx := d.rx[:rdFrameSize]
	clear(tx[wrHeaderLen:])
	putCommandHeader(tx, addr, false)
	err := d.bus.Transfer(tx, rx)
	if err != nil {
		return 0, err
	}
	// The response carries a turnaround byte after the header echo.
	return binary.BigEndian.Uint32(rx[rdHeaderLen:]), nil
}

func (d *Device) updateReg(addr uint16, mask, val uint32) error {
	v, err := d.readReg(addr)
	if err != nil {
		return err
	}
	v &^= mask
	v |= mask & val
	return d.writeReg(addr, v)
}
