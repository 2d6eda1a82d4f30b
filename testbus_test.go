package adin1110

import (
	"encoding/binary"
	"testing"
)

// busOp is one decoded register access observed by the mock bus.
type busOp struct {
	addr  uint16
	write bool
	val   uint32
}

// mockBus emulates the device side of the SPI control-frame protocol:
// a register file with read/write hooks, a capture of burst FIFO
// writes and a prepared burst FIFO read. Every transfer is decoded and
// appended to the op log so tests can assert exact register traces.
type mockBus struct {
	t         *testing.T
	appendCRC bool
	crcTab    *[256]byte

	regs      map[uint16]uint32
	ops       []busOp
	onWrite   map[uint16]func(val uint32)
	onRead    map[uint16]func(cur uint32) uint32
	burstTx   []byte // frame region of the last burst write
	burstRx   []byte // frame region returned by burst reads
	transfers int
}

func newMockBus(t *testing.T, appendCRC bool) *mockBus {
	return &mockBus{
		t:         t,
		appendCRC: appendCRC,
		crcTab:    MakeCRC8Table(DefaultCRCPoly),
		regs:      make(map[uint16]uint32),
		onWrite:   make(map[uint16]func(uint32)),
		onRead:    make(map[uint16]func(uint32) uint32),
	}
}

func (b *mockBus) hdrLen(write bool) int {
	n := wrHeaderLen
	if !write {
		n = rdHeaderLen
	}
	if b.appendCRC {
		n++
	}
	return n
}

func (b *mockBus) Transfer(tx, rx []byte) error {
	b.t.Helper()
	b.transfers++
	if len(tx) < wrHeaderLen {
		b.t.Fatalf("short transfer of %d bytes", len(tx))
	}
	addr, write := parseCommandHeader(tx)
	if tx[0]&spiCD == 0 {
		b.t.Fatalf("transfer to %#x without control-frame marker", addr)
	}
	if write {
		b.handleWrite(addr, tx)
	} else {
		b.handleRead(addr, tx, rx)
	}
	return nil
}

func (b *mockBus) handleWrite(addr uint16, tx []byte) {
	regFrame := wrFrameSize
	if b.appendCRC {
		regFrame++
	}
	if len(tx) > regFrame {
		// Burst write into the TX FIFO.
		if addr != regTx {
			b.t.Fatalf("burst write to register %#x, want %#x", addr, regTx)
		}
		if b.appendCRC && tx[wrHeaderLen] != CRC8(b.crcTab, tx[:wrHeaderLen]) {
			b.t.Errorf("burst write header CRC mismatch")
		}
		b.burstTx = append(b.burstTx[:0], tx[b.hdrLen(true):]...)
		b.ops = append(b.ops, busOp{addr: addr, write: true})
		return
	}
	val := binary.BigEndian.Uint32(tx[wrHeaderLen:])
	if b.appendCRC && tx[wrFrameSize] != CRC8(b.crcTab, tx[wrHeaderLen:wrFrameSize]) {
		b.t.Errorf("register write CRC mismatch for %#x", addr)
	}
	b.regs[addr] = val
	b.ops = append(b.ops, busOp{addr: addr, write: true, val: val})
	if fn := b.onWrite[addr]; fn != nil {
		fn(val)
	}
}

func (b *mockBus) handleRead(addr uint16, tx, rx []byte) {
	hdr := b.hdrLen(false)
	if len(tx) > rdFrameSize+1 {
		// Burst read from a RX FIFO.
		if addr != regRx && addr != regRxP2 {
			b.t.Fatalf("burst read from register %#x", addr)
		}
		copy(rx[hdr:], b.burstRx)
		b.ops = append(b.ops, busOp{addr: addr})
		return
	}
	val := b.regs[addr]
	if fn := b.onRead[addr]; fn != nil {
		val = fn(val)
		b.regs[addr] = val
	}
	binary.BigEndian.PutUint32(rx[rdHeaderLen:], val)
	b.ops = append(b.ops, busOp{addr: addr, val: val})
}

// writesTo returns the logged writes to addr in issue order.
func (b *mockBus) writesTo(addr uint16) (vals []uint32) {
	for _, op := range b.ops {
		if op.write && op.addr == addr {
			vals = append(vals, op.val)
		}
	}
	return vals
}

// mockPin records the levels driven onto a GPIO line.
type mockPin struct {
	levels []bool
}

func (p *mockPin) Set(high bool) error {
	p.levels = append(p.levels, high)
	return nil
}

func (p *mockPin) Get() (bool, error) {
	if len(p.levels) == 0 {
		return false, nil
	}
	return p.levels[len(p.levels)-1], nil
}

// newTestDevice builds a Device over the mock bus without running the
// bring-up sequence, for tests targeting a single component.
func newTestDevice(b *mockBus, chip Chip) *Device {
	return &Device{
		bus:       b,
		rst:       &mockPin{},
		chip:      chip,
		mac:       [6]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01},
		appendCRC: b.appendCRC,
		crcTab:    MakeCRC8Table(DefaultCRCPoly),
	}
}

// primeReady primes the registers the bring-up sequence checks.
func (b *mockBus) primeReady(chip Chip) {
	b.regs[regPhyID] = chip.phyID()
	b.regs[regMACRstStatus] = 1
	b.regs[regStatus0] = status0ResetC
	// The PHYs answer MDIO immediately with power-down clear.
	ack := func(acc uint16) func(uint32) {
		return func(ctl uint32) {
			b.regs[acc] = ctl | mdioTRDone
		}
	}
	b.onWrite[regMDIOAcc0] = ack(regMDIOAcc0)
	b.onWrite[regMDIOAcc1] = ack(regMDIOAcc1)
}
