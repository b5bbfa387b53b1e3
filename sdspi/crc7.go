package sdspi

// CRC7Poly is the polynomial used for CSD CRCs (x^7 + x^3 + 1).
const CRC7Poly = 0x89

// crc7Table holds the remainder for every possible byte value. It is a pure
// function of the polynomial, computed once and read-only afterwards.
var crc7Table [256]byte

func init() {
	for i := 0; i < 256; i++ {
		c := byte(i)
		if c&0x80 != 0 {
			c ^= CRC7Poly
		}
		for j := 1; j < 8; j++ {
			c <<= 1
			if c&0x80 != 0 {
				c ^= CRC7Poly
			}
		}
		crc7Table[i] = c
	}
}

// crc7Add folds one byte into a running CRC7 value.
func crc7Add(crc, b byte) byte {
	return crc7Table[(crc<<1)^b]
}

// CRC7 returns the CRC7 remainder of buf.
func CRC7(buf []byte) byte {
	var crc byte
	for _, b := range buf {
		crc = crc7Add(crc, b)
	}
	return crc
}

// WireCRC7 formats a CRC7 remainder for the wire. SD framing shifts the
// 7-bit value up and sets the low stop bit.
func WireCRC7(crc byte) byte {
	return crc<<1 | 1
}
