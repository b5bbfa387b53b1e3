package sdspi

// Command identifies one SD SPI-mode command known to the engine.
type Command uint8

// The closed set of commands the engine can issue.
const (
	// GoIdle resets the card into the idle state (CMD0)
	GoIdle Command = iota

	// Init starts legacy-card initialization (CMD1)
	Init

	// SendIfCond probes for a v2/SDHC card (CMD8)
	SendIfCond

	// SendCSD reads the 16-byte CSD register (CMD9)
	SendCSD

	// SendCID reads the 16-byte CID register (CMD10)
	SendCID

	// SendStatus reads the card status (CMD13)
	SendStatus

	// SetBlockLen sets the block length for legacy cards (CMD16)
	SetBlockLen

	// ReadBlock reads a single data block (CMD17)
	ReadBlock

	// ProgramCSD writes the CSD register (CMD27)
	ProgramCSD

	// AdvancedInit starts SDHC initialization (ACMD41)
	AdvancedInit

	// LockUnlock drives the card's lock/unlock data command (CMD42)
	LockUnlock

	// Prefix is the application-command preface (CMD55)
	Prefix

	// ReadOCR reads the operating conditions register (CMD58)
	ReadOCR
)

// commandDesc describes a command's wire behavior: its opcode, whether it
// needs the Prefix preface, the fixed CRC byte to send, and whether the
// card stays selected afterwards for a data phase.
type commandDesc struct {
	code       byte
	advanced   bool
	crc        byte
	holdSelect bool
}

// commands is the fixed dispatch table, indexed by Command. CRC bytes are
// constant per command: only GoIdle and SendIfCond are CRC-checked by the
// card in SPI mode, the rest just need a well-formed final byte.
var commands = [...]commandDesc{
	GoIdle:       {code: 0, crc: 0x95},
	Init:         {code: 1, crc: 0x01},
	SendIfCond:   {code: 8, crc: 0x87, holdSelect: true},
	SendCSD:      {code: 9, crc: 0x01, holdSelect: true},
	SendCID:      {code: 10, crc: 0x01, holdSelect: true},
	SendStatus:   {code: 13, crc: 0x01, holdSelect: true},
	SetBlockLen:  {code: 16, crc: 0x01},
	ReadBlock:    {code: 17, crc: 0x01, holdSelect: true},
	ProgramCSD:   {code: 27, crc: 0x01, holdSelect: true},
	AdvancedInit: {code: 41, crc: 0x01, advanced: true},
	LockUnlock:   {code: 42, crc: 0x01, holdSelect: true},
	Prefix:       {code: 55, crc: 0x01},
	ReadOCR:      {code: 58, crc: 0x01, holdSelect: true},
}

// Session is one card conversation: the bus it runs on, the register
// buffers, and the card kind detected by the last initialization. A Session
// is not safe for concurrent use; the protocol is strictly sequential.
type Session struct {
	bus Bus

	// CSD is the Card-Specific Data register as last read from (or about
	// to be written to) the card. Byte 14 bit 4 is the temporary
	// write-protect bit; everything else is preserved verbatim.
	CSD [RegisterSize]byte

	// CID is the read-only card identification register.
	CID [RegisterSize]byte

	// Kind is the card generation detected by Init. It may remain
	// KindUnknown even after a successful Init; see Init.
	Kind CardKind
}

// NewSession creates a Session over the given bus.
func NewSession(bus Bus) *Session {
	if bus == nil {
		panic("bus cannot be nil")
	}
	return &Session{bus: bus}
}

// SendCommand issues one command with a 32-bit argument and returns the
// card's R1 response byte.
//
// Advanced commands automatically send the Prefix command first; if the
// prefix response is above R1InIdle the target command is skipped and that
// response is returned as-is.
//
// Possible responses:
//
//	0xFF  no response; the card might be missing
//	0x01  in idle state, OK for most commands during initialization
//	0x00  ready
//	0x??  other responses are command-specific
//
// Commands whose descriptor holds the selection (register reads, data
// transfers) leave the card selected so the caller can run the data phase;
// all others deselect and clock one trailing idle byte.
func (s *Session) SendCommand(cmd Command, arg uint32) byte {
	d := commands[cmd]

	if d.advanced {
		if r := s.SendCommand(Prefix, 0); r > R1InIdle {
			return r
		}
	}

	s.bus.Deselect()
	s.bus.Exchange(0xFF)
	s.bus.Select()
	s.bus.Exchange(0xFF)

	s.bus.Exchange(0x40 | d.code)
	s.bus.Exchange(byte(arg >> 24)) // argument goes out MSB first
	s.bus.Exchange(byte(arg >> 16))
	s.bus.Exchange(byte(arg >> 8))
	s.bus.Exchange(byte(arg))
	s.bus.Exchange(d.crc)

	response := byte(R1NoResponse)
	for i := 0; i < ResponseAttempts; i++ {
		response = s.bus.Exchange(0xFF)
		if response&0x80 == 0 {
			break // high bit cleared means we got a response
		}
	}

	if !d.holdSelect {
		s.bus.Deselect()
		s.bus.Exchange(0xFF) // close with eight more clocks
	}

	return response
}

// waitForData polls for the data start token. Returns the last byte read,
// which is TokenData on success and typically 0xFF on a starved bus.
func (s *Session) waitForData() byte {
	r := byte(R1NoResponse)
	for i := 0; i < DataTokenAttempts; i++ {
		r = s.bus.Exchange(0xFF)
		if r != 0xFF {
			break
		}
	}
	return r
}

// discard clocks out and drops n bytes, e.g. the echoed OCR after an
// interface-condition probe.
func (s *Session) discard(n int) {
	for i := 0; i < n; i++ {
		s.bus.Exchange(0xFF)
	}
}
