package sdspi

// CardKind is the card generation reported by the initialization handshake.
// It decides which optional commands a card needs (legacy cards are
// byte-addressed and want SetBlockLen).
type CardKind uint8

const (
	// KindUnknown means the detection branches never completed
	KindUnknown CardKind = iota

	// KindLegacySD is an SD v1 card (1 MB to 2 GB)
	KindLegacySD

	// KindSDHC is a high-capacity v2 card (4 GB to 32 GB)
	KindSDHC
)

func (k CardKind) String() string {
	switch k {
	case KindLegacySD:
		return "SD"
	case KindSDHC:
		return "SDHC"
	default:
		return "unknown"
	}
}

// Init drives the card power-up handshake and card-specific initialization.
//
// The sequence is: clock the card deselected until power stabilizes, reset
// it into idle state, then probe the interface condition. A card that
// answers the probe with R1InIdle is initialized down the SDHC path
// (AdvancedInit with the HCS bit); anything else falls back to the legacy
// path (ReadOCR, then Init polling and a 512-byte block length).
//
// Init returns ErrNotDetected if the card never acknowledges GoIdle.
// Otherwise it returns nil based on that handshake alone: the per-type
// polling loops are best-effort, and Kind stays KindUnknown when neither
// branch completes within its ceiling. Callers must not assume a nil
// return implies a determined Kind.
func (s *Session) Init() error {
	s.Kind = KindUnknown

	s.bus.Deselect() // always make sure card was not selected
	for i := 0; i < PowerOnClocks; i++ {
		s.bus.Exchange(0xFF)
	}

	response := byte(R1NoResponse)
	for i := 0; i < ResponseAttempts; i++ {
		response = s.SendCommand(GoIdle, 0)
		if response == R1InIdle {
			break
		}
	}
	if response != R1InIdle {
		return ErrNotDetected
	}

	if s.SendCommand(SendIfCond, 0x1AA) == R1InIdle {
		// v2 card: burn the 4-byte echo, then poll the advanced
		// initialization with the host-capacity bit set
		s.discard(4)
		for i := 0; i < InitAttempts; i++ {
			if s.SendCommand(AdvancedInit, 1<<30) == 0 {
				break
			}
		}
		s.Kind = KindSDHC
	} else if s.SendCommand(ReadOCR, 0) == R1InIdle {
		s.discard(4) // burn the 4-byte OCR
		for i := 0; i < InitAttempts; i++ {
			if s.SendCommand(Init, 0) == 0 {
				break
			}
		}
		s.SendCommand(SetBlockLen, BlockLength)
		s.Kind = KindLegacySD
	}

	s.bus.Exchange(0xFF) // send 8 final clocks

	// The card is initialized as far as we care. A host with a real SPI
	// peripheral could now raise the clock rate to the card's maximum.
	return nil
}
