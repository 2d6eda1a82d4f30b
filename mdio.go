package adin1110

import (
	"time"

	"github.com/jpillora/backoff"
	"github.com/soypat/lneto/phy"
)

// mdioMaxPolls bounds the TRDONE wait. With the exponential pacing
// below this allows well over the worst-case Clause 45 turnaround
// before giving up with ErrMDIOTimeout.
const mdioMaxPolls = 64

// MDIO returns an accessor to the device's MDIO master, suitable for
// driving the embedded PHY registers with [phy.Device] helpers.
// devaddr 0 selects Clause 22 framing; devaddr 1 and above selects
// Clause 45 with devaddr as the MMD device.
func (d *Device) MDIO() phy.MDIOBus { return mdioBus{d} }

type mdioBus struct {
	d *Device
}

func (m mdioBus) Read(phyAddr, devaddr uint8, regAddr uint16) (uint16, error) {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	if devaddr == 0 {
		return m.d.mdioReadC22(phyAddr, regAddr)
	}
	return m.d.mdioReadC45(phyAddr, devaddr, regAddr)
}

func (m mdioBus) Write(phyAddr, devaddr uint8, regAddr, value uint16) error {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	if devaddr == 0 {
		return m.d.mdioWriteC22(phyAddr, regAddr, value)
	}
	return m.d.mdioWriteC45(phyAddr, devaddr, regAddr, value)
}

// mdioCtl composes a MDIOACC control word. For Clause 22 the devad
// field carries the register address, for Clause 45 the MMD device.
func mdioCtl(st, op uint32, phyAddr, devad uint8, data uint16) uint32 {
	return st<<mdioSTShift | op<<mdioOPShift |
		uint32(phyAddr&0x1F)<<mdioPrtadShift |
		uint32(devad&0x1F)<<mdioDevadShift |
		uint32(data)
}

// mdioWait polls acc until the PHY raises TRDONE and returns the final
// register value. The wait is bounded; an unresponsive PHY yields
// ErrMDIOTimeout rather than a spin.
func (d *Device) mdioWait(acc uint16) (uint32, error) {
	b := backoff.Backoff{
		Min:    10 * time.Microsecond,
		Max:    time.Millisecond,
		Factor: 2,
	}
	for i := 0; i < mdioMaxPolls; i++ {
		val, err := d.readReg(acc)
		if err != nil {
			return 0, err
		}
		if val&mdioTRDone != 0 {
			return val, nil
		}
		time.Sleep(b.Duration())
	}
	return 0, ErrMDIOTimeout
}

func (d *Device) mdioReadC22(phyAddr uint8, reg uint16) (uint16, error) {
	ctl := mdioCtl(mdioSTClause22, mdioOpRead, phyAddr, uint8(reg), 0)
	if err := d.writeReg(regMDIOAcc0, ctl); err != nil {
		return 0, err
	}
	val, err := d.mdioWait(regMDIOAcc0)
	return uint16(val & mdioDataMask), err
}

func (d *Device) mdioWriteC22(phyAddr uint8, reg uint16, data uint16) error {
	ctl := mdioCtl(mdioSTClause22, mdioOpWrite, phyAddr, uint8(reg), data)
	if err := d.writeReg(regMDIOAcc0, ctl); err != nil {
		return err
	}
	_, err := d.mdioWait(regMDIOAcc0)
	return err
}

// mdioAddrC45 performs the Clause 45 address phase, latching reg into
// the PHY's address register for the MMD device. It must complete
// before the data phase is issued.
func (d *Device) mdioAddrC45(phyAddr, dev uint8, reg uint16) error {
	ctl := mdioCtl(mdioSTClause45, mdioOpAddr, phyAddr, dev, reg)
	if err := d.writeReg(regMDIOAcc0, ctl); err != nil {
		return err
	}
	_, err := d.mdioWait(regMDIOAcc0)
	return err
}

func (d *Device) mdioReadC45(phyAddr, dev uint8, reg uint16) (uint16, error) {
	if err := d.mdioAddrC45(phyAddr, dev, reg); err != nil {
		return 0, err
	}
	ctl := mdioCtl(mdioSTClause45, mdioOpRead, phyAddr, dev, 0)
	if err := d.writeReg(regMDIOAcc1, ctl); err != nil {
		return 0, err
	}
	val, err := d.mdioWait(regMDIOAcc1)
	return uint16(val & mdioDataMask), err
}

func (d *Device) mdioWriteC45(phyAddr, dev uint8, reg uint16, data uint16) error {
	if err := d.mdioAddrC45(phyAddr, dev, reg); err != nil {
		return err
	}
	ctl := mdioCtl(mdioSTClause45, mdioOpWrite, phyAddr, dev, data)
	if err := d.writeReg(regMDIOAcc1, ctl); err != nil {
		return err
	}
	_, err := d.mdioWait(regMDIOAcc1)
	return err
}
