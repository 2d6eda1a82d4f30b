package adin1110

//
// CRC8 API.
//

// DefaultCRCPoly is the CRC8 polynomial the device computes over SPI
// control frames when CRC protection is enabled.
const DefaultCRCPoly byte = 0x07

// MakeCRC8Table builds the 256-entry lookup table for a MSB-first CRC8
// with the given polynomial and no reflection or final XOR.
func MakeCRC8Table(poly byte) *[256]byte {
	var tab [256]byte
	for i := 0; i < 256; i++ {
		crc := byte(i)
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		tab[i] = crc
	}
	return &tab
}

// CRC8 calculates the checksum of data using tab, starting from a zero
// initial value.
func CRC8(tab *[256]byte, data []byte) byte {
	var crc byte
	for _, b := range data {
		crc = tab[crc^b]
	}
	return crc
}
