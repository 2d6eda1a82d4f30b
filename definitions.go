package adin1110

// MAC register map of the ADIN1110/ADIN2111, accessed over the SPI
// control-frame protocol. Register addresses are 13 bits wide.
const (
	regPhyID        = 0x01 // identification register, checked after hardware reset
	regReset        = 0x03
	regConfig1      = 0x04
	regConfig2      = 0x06
	regStatus0      = 0x08
	regStatus1      = 0x09
	regIMask1       = 0x0D
	regMDIOAcc0     = 0x20
	regMDIOAcc1     = 0x21
	regTxFrameSize  = 0x30
	regTx           = 0x31
	regTxSpace      = 0x32
	regFifoClear    = 0x36
	regMACRstStatus = 0x3B
	regSoftReset    = 0x3C

	// MAC destination-address filter slots. Slot 0 holds the interface
	// address, slot 1 is used for the broadcast filter.
	regAddrFilterUpr  = 0x50
	regAddrFilterLwr  = 0x51
	regBcastFilterUpr = 0x52
	regBcastFilterLwr = 0x53

	regRxFrameSize   = 0x90
	regRx            = 0x91
	regRxFrameSizeP2 = 0xC0
	regRxP2          = 0xC1
)

// SPI control-frame layout. The 16-bit big-endian header carries the
// control/data marker, the read/write direction and the 13-bit address.
const (
	addrMask = 0x1FFF // addresses are 13 bits wide
	spiCD    = 0x80   // control-frame marker, top bit of header byte 0
	spiRW    = 0x20   // write direction, bit 13 of the header

	wrFrameSize = 6 // 2 header + 4 data, +1 when CRC is appended
	rdFrameSize = 7 // 2 header + 1 turnaround + 4 data
	wrHeaderLen = 2
	rdHeaderLen = 3 // read responses carry a turnaround byte after the header
)

// FIFO frame layout constants.
const (
	frameHeaderLen = 2  // port selector preceding each FIFO frame
	ethHeaderLen   = 14 // destination + source + ethertype
	macLen         = 6
	fcsLen         = 4
	minFrameLen    = 64 // minimum Ethernet frame length including FCS

	// maxFrameBuf sizes the scratch buffers to the largest frame the
	// transport moves in one bus transaction.
	maxFrameBuf = 2048
)

// Config1 fields.
const config1Sync = 1 << 15

// Config2 fields.
const (
	config2CRCAppend     = 1 << 5
	config2FwdUnk2Host   = 1 << 2  // port 1 promiscuous forwarding
	config2P2FwdUnk2Host = 1 << 12 // port 2 promiscuous forwarding (ADIN2111)
)

// Status0 fields.
const (
	status0TxProtoErr = 1 << 0
	status0ResetC     = 1 << 6
)

// Status1 link-state bits, one per port.
const (
	status1P1LinkUp = 1 << 0
	status1P2LinkUp = 1 << 1
)

// IMask1 interrupt sources.
const (
	imask1LinkChange = 1 << 1
	imask1TxRdy      = 1 << 3
	imask1RxRdy      = 1 << 4
	imask1SPIErr     = 1 << 10
	imask1P2RxRdy    = 1 << 17 // ADIN2111 only
)

// FifoClear fields.
const (
	fifoClearRx = 1 << 0
	fifoClearTx = 1 << 1
)

// MDIOACC control-word fields. The DEVAD field carries the register
// address for Clause 22 transactions and the MMD device for Clause 45.
const (
	mdioTRDone     = 1 << 31
	mdioSTShift    = 28
	mdioSTMask     = 0x3 << mdioSTShift
	mdioOPShift    = 26
	mdioOPMask     = 0x3 << mdioOPShift
	mdioPrtadShift = 21
	mdioPrtadMask  = 0x1F << mdioPrtadShift
	mdioDevadShift = 16
	mdioDevadMask  = 0x1F << mdioDevadShift
	mdioDataMask   = 0xFFFF

	mdioSTClause22 = 0x1
	mdioSTClause45 = 0x0

	mdioOpAddr  = 0x0
	mdioOpWrite = 0x1
	mdioOpRead  = 0x3
)

// Soft reset key sequence, written to regSoftReset in this exact order.
// No acknowledgement is read back between writes.
const (
	swResetKey1   = 0x4F50
	swResetKey2   = 0x454E
	swReleaseKey1 = 0x5043
	swReleaseKey2 = 0x5749
)

const resetSWReset = 1 << 0 // regReset: reset both MAC and PHY

// Vendor initialization ends with this write. The register is absent
// from the datasheet's register map; the value is carried as is.
const (
	regVendorInit = 0x3E
	vendorInitVal = 0x77
)

// Embedded PHY MI_CONTROL register, reached through Clause 22 MDIO.
const (
	phyRegMIControl = 0x00
	miSoftPowerDown = 1 << 11
)

// MAC address filter flags, OR-ed into the upper filter register.
const (
	macFilterToHost     = 1 << 16
	macFilterApplyPort1 = 1 << 30
	macFilterApplyPort2 = 1 << 31 // ADIN2111 only
)

// Hardware reset timing, datasheet constants.
const (
	resetSettleMillis = 10
	resetBootMillis   = 90
)

// Chip selects the device variant, which determines the port count and
// the identification value expected after reset.
type Chip uint8

const (
	ADIN1110 Chip = iota // ADIN1110
	ADIN2111             // ADIN2111
)

// Ports returns the number of Ethernet ports of the chip variant.
func (c Chip) Ports() int {
	if c == ADIN2111 {
		return 2
	}
	return 1
}

func (c Chip) phyID() uint32 {
	if c == ADIN2111 {
		return 0x0283BCA1
	}
	return 0x0283BC91
}

// mdioPhyAddr returns the MDIO address of the embedded PHY serving port.
func mdioPhyAddr(port int) uint8 { return uint8(port) + 1 }

func (c Chip) String() string {
	switch c {
	case ADIN1110:
		return "ADIN1110"
	case ADIN2111:
		return "ADIN2111"
	default:
		return "unknown chip"
	}
}

func align4(n int) int { return (n + 3) &^ 3 }
