package sdspi

// ReadCSD reads the CSD register from the card into s.CSD.
//
// The buffer is zeroed first, so a failed read never leaves stale register
// bytes behind. Returns ErrReadWriteFail if the data start token does not
// appear within DataTokenAttempts polls.
func (s *Session) ReadCSD() error {
	return s.readRegister(SendCSD, &s.CSD)
}

// ReadCID reads the CID register from the card into s.CID.
func (s *Session) ReadCID() error {
	return s.readRegister(SendCID, &s.CID)
}

func (s *Session) readRegister(cmd Command, dst *[RegisterSize]byte) error {
	for i := range dst {
		dst[i] = 0
	}

	s.SendCommand(cmd, 0)
	if s.waitForData() != TokenData {
		return ErrReadWriteFail
	}

	for i := range dst {
		dst[i] = s.bus.Exchange(0xFF)
	}
	s.bus.Exchange(0xFF) // burn the CRC

	return nil
}

// WriteCSD programs s.CSD back to the card.
//
// Only the first 15 bytes are payload; the final wire byte is a freshly
// computed CRC7 in the stop-bit format, which the card checks before
// accepting the block. Returns ErrReadWriteFail if the program command is
// rejected (no data bytes are sent in that case), or ErrTimeout if the
// card's busy signal never clears within BusyAttempts exchanges.
func (s *Session) WriteCSD() error {
	if s.SendCommand(ProgramCSD, 0) != 0 {
		return ErrReadWriteFail
	}

	s.bus.Exchange(TokenData) // data token marking start of data block

	var crc byte
	for _, b := range s.CSD[:RegisterSize-1] {
		s.bus.Exchange(b)
		crc = crc7Add(crc, b)
	}
	s.bus.Exchange(WireCRC7(crc))

	s.bus.Exchange(0xFF) // ignore the card's data response
	s.bus.Exchange(0xFF)

	// The card may take an unbounded (in practice short) time to program
	// the register; cap the wait so a wedged card cannot hang us forever.
	for i := BusyAttempts; i > 0; i-- {
		if s.bus.Exchange(0xFF) != 0 {
			return nil
		}
	}
	return ErrTimeout
}

// Locked reports whether the temporary write-protect bit is set in the
// in-memory CSD copy.
func (s *Session) Locked() bool {
	return s.CSD[LockByteIndex]&LockBitMask != 0
}

// ToggleLock flips the temporary write-protect bit in the in-memory CSD
// copy, leaving every other byte untouched. The card itself is unchanged
// until WriteCSD.
func (s *Session) ToggleLock() {
	s.CSD[LockByteIndex] ^= LockBitMask
}
