package adin1110

import (
	"encoding/binary"

	"github.com/soypat/lneto/ethernet"
)

// FrameBuffer holds one Ethernet frame moved through the device FIFOs.
// Payload is caller-owned storage; [Device.ReadFrame] reslices it to
// the received length, so callers hand in a slice with enough capacity
// for a full frame.
type FrameBuffer struct {
	Destination [6]byte
	Source      [6]byte
	EtherType   ethernet.Type
	Payload     []byte
}

// WriteFrame queues frm for transmission on port. Frames shorter than
// the Ethernet minimum are zero padded; the device appends the FCS
// itself. Returns ErrWouldBlock when the TX FIFO lacks space or the
// device flags a transmit protocol error, in which case the caller
// retries later.
//
// WriteFrame shares the device's scratch buffers with ReadFrame;
// transfers serialize on the device mutex.
func (d *Device) WriteFrame(port int, frm *FrameBuffer) error {
	if port < 0 || port >= d.chip.Ports() {
		return errBadPort
	} else if frm == nil {
		return errNilFrame
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	// The MAC appends the frame check sequence, so padding accounts
	// for it without writing it.
	body := ethHeaderLen + len(frm.Payload)
	padding := 0
	if body+fcsLen < minFrameLen {
		padding = minFrameLen - fcsLen - body
	}
	frameLen := frameHeaderLen + body + padding

	hdrLen := wrHeaderLen
	if d.appendCRC {
		hdrLen++
	}
	if hdrLen+align4(frameLen) > len(d.tx) {
		return errFrameTooLong
	}

	space, err := d.readReg(regTxSpace)
	if err != nil {
		return err
	}
	// TX_SPACE counts 16-bit words.
	if frameLen > 2*(int(space)-frameHeaderLen) {
		return ErrWouldBlock
	}

	if err := d.writeReg(regTxFrameSize, uint32(frameLen)); err != nil {
		return err
	}

	total := hdrLen + align4(frameLen)
	buf := d.tx[:total]
	clear(buf)
	putCommandHeader(buf, regTx, true)
	if d.appendCRC {
		buf[wrHeaderLen] = CRC8(d.crcTab, buf[:wrHeaderLen])
	}
	binary.BigEndian.PutUint16(buf[hdrLen:], uint16(port))

	efrm, err := ethernet.NewFrame(buf[hdrLen+frameHeaderLen:])
	if err != nil {
		return err
	}
	copy(efrm.DestinationHardwareAddr()[:], frm.Destination[:])
	copy(efrm.SourceHardwareAddr()[:], frm.Source[:])
	efrm.SetEtherType(frm.EtherType)
	copy(buf[hdrLen+frameHeaderLen+ethHeaderLen:], frm.Payload)

	if err := d.bus.Transfer(buf, nil); err != nil {
		return err
	}

	status, err := d.readReg(regStatus0)
	if err != nil {
		return err
	}
	if status&status0TxProtoErr != 0 {
		// The frame never made it out. Flush the TX FIFO, clear the
		// sticky status bit and let the caller retry.
		if err := d.writeReg(regFifoClear, fifoClearTx); err != nil {
			return err
		}
		if err := d.writeReg(regStatus0, status0TxProtoErr); err != nil {
			return err
		}
		return ErrWouldBlock
	}
	return nil
}

// ReadFrame pops the next frame from port's RX FIFO into frm. It
// returns false with no error when the FIFO holds nothing to consume.
//
// ReadFrame shares the device's scratch buffers with WriteFrame;
// transfers serialize on the device mutex.
func (d *Device) ReadFrame(port int, frm *FrameBuffer) (bool, error) {
	if port < 0 || port >= d.chip.Ports() {
		return false, errBadPort
	} else if frm == nil {
		return false, errNilFrame
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	fsizeReg, fifoReg := rxFIFORegs(port)
	fsize, err := d.readReg(fsizeReg)
	if err != nil {
		return false, err
	}
	// Sizes below the port selector plus Ethernet header are an empty
	// FIFO or a runt the MAC never completed; nothing to decode.
	if fsize < frameHeaderLen+ethHeaderLen {
		return false, nil
	}
	payloadLen := int(fsize) - frameHeaderLen - ethHeaderLen

	hdrLen := rdHeaderLen
	if d.appendCRC {
		hdrLen++
	}
	total := hdrLen + align4(int(fsize))
	if total > len(d.rx) {
		return false, errFrameTooLong
	}
	if payloadLen > cap(frm.Payload) {
		return false, errFrameTooLong
	}

	tx := d.tx[:total]
	rx := d.rx[:total]
	clear(tx)
	putCommandHeader(tx, fifoReg, false)
	if d.appendCRC {
		tx[wrHeaderLen] = CRC8(d.crcTab, tx[:wrHeaderLen])
	}
	binary.BigEndian.PutUint16(tx[hdrLen:], uint16(port))

	if err := d.bus.Transfer(tx, rx); err != nil {
		return false, err
	}

	efrm, err := ethernet.NewFrame(rx[hdrLen+frameHeaderLen:])
	if err != nil {
		return false, err
	}
	frm.Destination = *efrm.DestinationHardwareAddr()
	frm.Source = *efrm.SourceHardwareAddr()
	frm.EtherType = efrm.EtherTypeOrSize()
	frm.Payload = frm.Payload[:payloadLen]
	copy(frm.Payload, rx[hdrLen+frameHeaderLen+ethHeaderLen:])
	return true, nil
}

// rxFIFORegs selects the per-port RX register pair. Port 1 exists on
// the ADIN2111 only.
func rxFIFORegs(port int) (fsizeReg, fifoReg uint16) {
	if port == 1 {
		return regRxFrameSizeP2, regRxP2
	}
	return regRxFrameSize, regRx
}
