package simcard

import (
	"github.com/nephiel/go-sdlocker/sdspi"
)

// phase tracks where the card is in the command/data conversation.
type phase uint8

const (
	phaseCommand phase = iota // waiting for a command byte
	phaseArgument             // collecting argument and CRC bytes
	phaseToken                // waiting for the CSD program data token
	phaseData                 // collecting CSD program payload
)

// Opcodes the card answers. Same numbering as the host side; kept as raw
// bytes because this is the wire view.
const (
	cmdGoIdle      = 0
	cmdInit        = 1
	cmdSendIfCond  = 8
	cmdSendCSD     = 9
	cmdSendCID     = 10
	cmdSendStatus  = 13
	cmdSetBlockLen = 16
	cmdProgramCSD  = 27
	cmdAdvInit     = 41
	cmdPrefix      = 55
	cmdReadOCR     = 58
)

// R1 responses.
const (
	r1Ready   = 0x00
	r1Idle    = 0x01
	r1Illegal = 0x05 // illegal command while in idle state
)

// Data response tokens after a write block.
const (
	dataAccepted = 0x05
	dataCRCError = 0x0B
)

// Card is a card-side simulation of the SD SPI protocol. It implements
// sdspi.Bus, answering commands the way a real card does: R1 responses
// after a one-byte latency, token-delimited register reads, CRC7-checked
// CSD programming with a busy tail, and the v1/v2 initialization split.
//
// Card is not safe for concurrent use, matching the bus it simulates.
type Card struct {
	csd    [sdspi.RegisterSize]byte
	cid    [sdspi.RegisterSize]byte
	sdhc   bool
	locked bool // lock bit for the default CSD; ignored with WithCSD

	// fault switches
	absent        bool
	neverReady    bool
	rejectProgram bool
	busyForever   bool
	starveToken   bool

	initPolls int // initialization commands left before leaving idle
	busyBytes int // busy bytes clocked out after a CSD program

	selected bool
	idle     bool
	stuck    bool // programming never finishes (busyForever tripped)

	ph       phase
	cmd      byte
	arg      uint32
	argLeft  int
	data     []byte
	out      []byte // bytes queued for the host to shift in
	programs int    // accepted CSD programs, for tests
}

// New creates a simulated card. By default it is a present, responsive
// SDHC card with an unlocked CSD that initializes on the first poll.
func New(opts ...Option) *Card {
	c := &Card{
		sdhc:      true,
		idle:      true,
		busyBytes: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.csd == [sdspi.RegisterSize]byte{} {
		c.csd = DefaultCSD(c.sdhc, c.locked)
	}
	if c.cid == [sdspi.RegisterSize]byte{} {
		c.cid = DefaultCID()
	}
	return c
}

// Select asserts chip select.
func (c *Card) Select() { c.selected = true }

// Deselect releases chip select.
func (c *Card) Deselect() { c.selected = false }

// Exchange shifts one byte each way. The returned byte is whatever the
// card had queued; an absent or deselected card idles the line high.
func (c *Card) Exchange(tx byte) byte {
	if c.absent || !c.selected {
		return 0xFF
	}
	if c.stuck {
		return 0x00 // busy forever
	}

	rx := c.pop()
	c.consume(tx)
	return rx
}

func (c *Card) pop() byte {
	if len(c.out) == 0 {
		return 0xFF
	}
	b := c.out[0]
	c.out = c.out[1:]
	return b
}

func (c *Card) push(bs ...byte) {
	c.out = append(c.out, bs...)
}

// consume feeds one host byte into the card's state machine.
func (c *Card) consume(tx byte) {
	switch c.ph {
	case phaseCommand:
		if tx&0xC0 == 0x40 {
			// New command frame: drop whatever the host left unread.
			c.out = nil
			c.cmd = tx & 0x3F
			c.arg = 0
			c.argLeft = 5 // 4 argument bytes + CRC
			c.ph = phaseArgument
		}

	case phaseArgument:
		c.argLeft--
		if c.argLeft > 0 {
			c.arg = c.arg<<8 | uint32(tx)
			return
		}
		// Last byte is the CRC; only the reset and interface-condition
		// commands carry a real one and we accept those blindly here.
		c.respond()

	case phaseToken:
		if tx&0xC0 == 0x40 {
			// Host gave up on the data phase and issued a new command.
			c.out = nil
			c.cmd = tx & 0x3F
			c.arg = 0
			c.argLeft = 5
			c.ph = phaseArgument
			return
		}
		if tx == sdspi.TokenData {
			c.data = c.data[:0]
			c.ph = phaseData
		}

	case phaseData:
		c.data = append(c.data, tx)
		if len(c.data) == sdspi.RegisterSize {
			c.finishProgram()
			c.ph = phaseCommand
		}
	}
}

// respond queues the card's answer to the command just received. The
// leading 0xFF models the one-byte response latency of real cards.
func (c *Card) respond() {
	c.ph = phaseCommand
	c.push(0xFF)

	switch c.cmd {
	case cmdGoIdle:
		c.idle = true
		c.push(r1Idle)

	case cmdSendIfCond:
		if !c.sdhc {
			c.push(r1Illegal) // v1 cards do not know CMD8
			return
		}
		// R7: R1 plus the echoed voltage range and check pattern.
		c.push(r1Idle, 0x00, 0x00, byte(c.arg>>8), byte(c.arg))

	case cmdReadOCR:
		ocr := byte(0x00)
		if c.sdhc {
			ocr = 0x40 // CCS
		}
		c.push(c.r1(), ocr, 0xFF, 0x80, 0x00)

	case cmdInit, cmdAdvInit:
		if c.neverReady {
			c.push(r1Idle)
			return
		}
		if c.initPolls > 0 {
			c.initPolls--
			c.push(r1Idle)
			return
		}
		c.idle = false
		c.push(r1Ready)

	case cmdPrefix:
		c.push(c.r1())

	case cmdSetBlockLen, cmdSendStatus:
		c.push(r1Ready)

	case cmdSendCSD:
		c.push(r1Ready)
		if !c.starveToken {
			c.pushDataBlock(c.csd[:])
		}

	case cmdSendCID:
		c.push(r1Ready)
		if !c.starveToken {
			c.pushDataBlock(c.cid[:])
		}

	case cmdProgramCSD:
		if c.rejectProgram {
			c.push(r1Illegal &^ r1Idle)
			return
		}
		c.push(r1Ready)
		c.ph = phaseToken

	default:
		c.push(r1Illegal)
	}
}

// r1 is the plain R1 answer for commands without payload: idle bit while
// initializing, ready afterwards.
func (c *Card) r1() byte {
	if c.idle {
		return r1Idle
	}
	return r1Ready
}

// pushDataBlock queues a register read: a short token delay, the start
// token, the payload, and a CRC the host ignores in SPI mode.
func (c *Card) pushDataBlock(payload []byte) {
	c.push(0xFF, 0xFF, sdspi.TokenData)
	c.push(payload...)
	c.push(0x00, 0x00)
}

// finishProgram validates and applies a completed CSD program. The final
// payload byte is the host's CRC7 in wire format; a mismatch rejects the
// block and leaves the stored CSD untouched.
func (c *Card) finishProgram() {
	payload := c.data[:sdspi.RegisterSize-1]
	wireCRC := c.data[sdspi.RegisterSize-1]

	if sdspi.WireCRC7(sdspi.CRC7(payload)) != wireCRC {
		c.push(dataCRCError, 0xFF)
		return
	}

	copy(c.csd[:sdspi.RegisterSize-1], payload)
	c.csd[sdspi.RegisterSize-1] = sdspi.WireCRC7(sdspi.CRC7(payload))
	c.programs++

	c.push(dataAccepted)
	if c.busyForever {
		c.stuck = true
		return
	}
	for i := 0; i < c.busyBytes; i++ {
		c.push(0x00)
	}
	c.push(0xFF)
}

// CSD returns the card's stored CSD register.
func (c *Card) CSD() [sdspi.RegisterSize]byte { return c.csd }

// CID returns the card's stored CID register.
func (c *Card) CID() [sdspi.RegisterSize]byte { return c.cid }

// SDHC reports the card's personality.
func (c *Card) SDHC() bool { return c.sdhc }

// Locked reports whether the stored CSD carries the temporary
// write-protect bit.
func (c *Card) Locked() bool {
	return c.csd[sdspi.LockByteIndex]&sdspi.LockBitMask != 0
}

// Programs returns how many CSD programs the card has accepted.
func (c *Card) Programs() int { return c.programs }
