package simcard

import "github.com/nephiel/go-sdlocker/sdspi"

// DefaultCSD builds a plausible CSD register for the given personality,
// with the temporary write-protect bit optionally set and a valid CRC7 in
// the final byte.
func DefaultCSD(sdhc, locked bool) [sdspi.RegisterSize]byte {
	var csd [sdspi.RegisterSize]byte
	if sdhc {
		// CSD version 2.0, 16 GB class card.
		csd = [sdspi.RegisterSize]byte{
			0x40, 0x0E, 0x00, 0x32, 0x5B, 0x59, 0x00, 0x00,
			0x76, 0xB2, 0x7F, 0x80, 0x0A, 0x40, 0x00, 0x00,
		}
	} else {
		// CSD version 1.0, 2 GB class card.
		csd = [sdspi.RegisterSize]byte{
			0x00, 0x26, 0x00, 0x32, 0x5F, 0x59, 0x83, 0xC8,
			0xBE, 0xFB, 0xCF, 0xFF, 0x92, 0x80, 0x40, 0x00,
		}
	}
	if locked {
		csd[sdspi.LockByteIndex] |= sdspi.LockBitMask
	} else {
		csd[sdspi.LockByteIndex] &^= sdspi.LockBitMask
	}
	csd[sdspi.RegisterSize-1] = sdspi.WireCRC7(sdspi.CRC7(csd[:sdspi.RegisterSize-1]))
	return csd
}

// DefaultCID builds a plausible CID register: manufacturer, OEM, a product
// name, revision, serial, and manufacturing date, with a valid CRC7.
func DefaultCID() [sdspi.RegisterSize]byte {
	cid := [sdspi.RegisterSize]byte{
		0x03,                         // manufacturer ID
		'S', 'D',                     // OEM ID
		'S', 'L', '1', '6', 'G',      // product name
		0x80,                         // revision 8.0
		0x1B, 0x2C, 0x3D, 0x4E,      // serial
		0x01, 0x6A,                   // date: June 2022
		0x00,
	}
	cid[sdspi.RegisterSize-1] = sdspi.WireCRC7(sdspi.CRC7(cid[:sdspi.RegisterSize-1]))
	return cid
}
