package sdspi

// R1 response conventions.
const (
	// R1InIdle is the in-idle-state response returned while the card is
	// still initializing (and the expected answer to GoIdle)
	R1InIdle = 0x01

	// R1NoResponse is what an absent card "answers": the bus idles high
	R1NoResponse = 0xFF
)

// TokenData is the start token preceding every data block in SPI mode.
const TokenData = 0xFE

// Polling ceilings. These are the externally visible timing contracts of
// the engine and match real card firmware behavior; do not tune them.
const (
	// PowerOnClocks is the number of idle bytes clocked out, deselected,
	// before initialization to let card power stabilize
	PowerOnClocks = 10

	// ResponseAttempts is the maximum number of idle exchanges polled for
	// an R1 response after a command frame
	ResponseAttempts = 10

	// DataTokenAttempts is the maximum number of idle exchanges polled for
	// the data start token before a block read
	DataTokenAttempts = 100

	// InitAttempts is the maximum number of initialization commands sent
	// while waiting for the card to leave the idle state
	InitAttempts = 20000

	// BusyAttempts is the maximum number of idle exchanges polled while
	// waiting out the card's busy signal after programming the CSD
	BusyAttempts = 0xFFFF
)

// BlockLength is the block size negotiated with legacy cards. SDHC cards
// are fixed at 512 and do not need the command.
const BlockLength = 512

// RegisterSize is the size of the CSD and CID registers in bytes.
const RegisterSize = 16

// Lock bit location within the CSD: the temporary write-protect flag is
// bit 4 of byte 14. All other CSD bytes are opaque to this package.
const (
	LockByteIndex = 14
	LockBitMask   = 0x10
)
