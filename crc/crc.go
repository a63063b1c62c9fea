package crc

// CRC-16/X-25: poly 0x1021 reflected, init 0xffff, refin/refout, xorout 0xffff.
// Also known as CRC-16/IBM-SDLC, used by HDLC-like framing.
const (
	CRC16_X25_POLY_REFLECTED uint16 = 0x8408
	CRC16_X25_INIT           uint16 = 0xffff
	CRC16_X25_XOROUT         uint16 = 0xffff
	CRC16_X25_CHECK          uint16 = 0x906e // of "123456789"
)

var table16x25 = makeTable16(CRC16_X25_POLY_REFLECTED)

func makeTable16(poly uint16) *[256]uint16 {
	t := new([256]uint16)
	for i := range t {
		t[i] = CRC16_reflected_reference(0, byte(i), poly)
	}
	return t
}

// Bitwise, one byte. Slow but obviously correct, used to build the table.
func CRC16_reflected_reference(crc uint16, data byte, poly uint16) uint16 {
	crc ^= uint16(data)
	for i := 0; i < 8; i++ {
		if crc&1 != 0 {
			crc = (crc >> 1) ^ poly
		} else {
			crc >>= 1
		}
	}
	return crc
}

// Raw register update without init/xorout, allows incremental use.
func CRC16_X25_next(crc uint16, data byte) uint16 {
	return (crc >> 8) ^ table16x25[byte(crc)^data]
}

func CRC16_X25_update(crc uint16, bs []byte) uint16 {
	for _, b := range bs {
		crc = CRC16_X25_next(crc, b)
	}
	return crc
}

// Complete checksum of bs.
func CRC16_X25(bs []byte) uint16 {
	return CRC16_X25_update(CRC16_X25_INIT, bs) ^ CRC16_X25_XOROUT
}
