package adin1110

import "testing"

func TestCRC8KnownVectors(t *testing.T) {
	tab := MakeCRC8Table(DefaultCRCPoly)
	vectors := []struct {
		data []byte
		want byte
	}{
		{data: nil, want: 0x00},
		{data: []byte{0x00}, want: 0x00},
		{data: []byte{0x01}, want: 0x07},
		{data: []byte("123456789"), want: 0xF4}, // standard check value for poly 0x07
	}
	for _, v := range vectors {
		got := CRC8(tab, v.data)
		if got != v.want {
			t.Errorf("CRC8(%q) = %#02x, want %#02x", v.data, got, v.want)
		}
	}
}

func TestCRC8Incremental(t *testing.T) {
	// Feeding the table byte by byte must match the one-shot checksum.
	tab := MakeCRC8Table(DefaultCRCPoly)
	data := []byte{0xA0, 0x30, 0x00, 0x04, 0xFF, 0x13}
	var crc byte
	for _, b := range data {
		crc = tab[crc^b]
	}
	if want := CRC8(tab, data); crc != want {
		t.Errorf("incremental CRC %#02x, want %#02x", crc, want)
	}
}

func TestCRC8DetectsCorruption(t *testing.T) {
	tab := MakeCRC8Table(DefaultCRCPoly)
	data := []byte{0x12, 0x34, 0x56, 0x78}
	crc := CRC8(tab, data)
	for i := range data {
		for bit := 0; bit < 8; bit++ {
			corrupted := make([]byte, len(data))
			copy(corrupted, data)
			corrupted[i] ^= 1 << bit
			if CRC8(tab, corrupted) == crc {
				t.Errorf("flip of byte %d bit %d not detected", i, bit)
			}
		}
	}
}
