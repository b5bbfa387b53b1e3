package simcard

import (
	"testing"

	"github.com/nephiel/go-sdlocker/sdspi"
)

// sendFrame drives one raw command conversation against the card and
// returns its R1 response, the way the host engine frames it.
func sendFrame(c *Card, opcode byte, arg uint32) byte {
	c.Deselect()
	c.Exchange(0xFF)
	c.Select()
	c.Exchange(0xFF)

	c.Exchange(0x40 | opcode)
	c.Exchange(byte(arg >> 24))
	c.Exchange(byte(arg >> 16))
	c.Exchange(byte(arg >> 8))
	c.Exchange(byte(arg))
	c.Exchange(0x01)

	r := byte(0xFF)
	for i := 0; i < 10; i++ {
		r = c.Exchange(0xFF)
		if r&0x80 == 0 {
			break
		}
	}
	return r
}

func TestDefaultCSDCarriesValidCRC(t *testing.T) {
	tests := []struct {
		name   string
		sdhc   bool
		locked bool
	}{
		{"sdhc unlocked", true, false},
		{"sdhc locked", true, true},
		{"legacy unlocked", false, false},
		{"legacy locked", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csd := DefaultCSD(tt.sdhc, tt.locked)

			if got := csd[sdspi.LockByteIndex]&sdspi.LockBitMask != 0; got != tt.locked {
				t.Errorf("lock bit = %t, want %t", got, tt.locked)
			}
			want := sdspi.WireCRC7(sdspi.CRC7(csd[:sdspi.RegisterSize-1]))
			if csd[sdspi.RegisterSize-1] != want {
				t.Errorf("CRC byte = 0x%02X, want 0x%02X", csd[sdspi.RegisterSize-1], want)
			}
		})
	}
}

func TestLegacyCardRejectsInterfaceCondition(t *testing.T) {
	c := New(WithSDHC(false))

	if r := sendFrame(c, 8, 0x1AA); r != r1Illegal {
		t.Errorf("CMD8 response = 0x%02X, want 0x%02X", r, r1Illegal)
	}
}

func TestCardRejectsBadProgramCRC(t *testing.T) {
	c := New(WithLocked(false))
	before := c.CSD()

	if r := sendFrame(c, cmdProgramCSD, 0); r != r1Ready {
		t.Fatalf("ProgramCSD response = 0x%02X, want 0x%02X", r, r1Ready)
	}

	// Data phase with a deliberately wrong CRC byte.
	c.Exchange(sdspi.TokenData)
	payload := before
	payload[sdspi.LockByteIndex] |= sdspi.LockBitMask
	for _, b := range payload[:sdspi.RegisterSize-1] {
		c.Exchange(b)
	}
	c.Exchange(0xFF) // not a valid wire CRC for this payload

	if r := c.Exchange(0xFF); r != dataCRCError {
		t.Errorf("data response = 0x%02X, want 0x%02X", r, dataCRCError)
	}
	if c.CSD() != before {
		t.Error("card CSD changed despite the CRC rejection")
	}
	if c.Programs() != 0 {
		t.Errorf("card counted %d programs, want 0", c.Programs())
	}
}

func TestCardDropsStaleOutputOnNewCommand(t *testing.T) {
	c := New()

	// Ask for the CSD but never drain the data block.
	if r := sendFrame(c, cmdSendCSD, 0); r != r1Ready {
		t.Fatalf("SendCSD response = 0x%02X, want 0x%02X", r, r1Ready)
	}

	// The next command must answer cleanly, not replay leftover CSD bytes.
	if r := sendFrame(c, cmdSetBlockLen, 512); r != r1Ready {
		t.Errorf("SetBlockLen response = 0x%02X, want 0x%02X", r, r1Ready)
	}
}

func TestCardIgnoresTrafficWhileDeselected(t *testing.T) {
	c := New()
	c.Deselect()

	// A full frame clocked out deselected must neither answer nor disturb
	// the card's state machine.
	for _, b := range []byte{0x40, 0, 0, 0, 0, 0x95, 0xFF, 0xFF} {
		if r := c.Exchange(b); r != 0xFF {
			t.Fatalf("deselected exchange returned 0x%02X, want 0xFF", r)
		}
	}

	if r := sendFrame(c, cmdGoIdle, 0); r != r1Idle {
		t.Errorf("GoIdle response = 0x%02X, want 0x%02X", r, r1Idle)
	}
}

func TestCardInitDelayCountsDown(t *testing.T) {
	c := New(WithSDHC(false), WithInitDelay(2))

	if r := sendFrame(c, cmdInit, 0); r != r1Idle {
		t.Fatalf("first init poll = 0x%02X, want idle", r)
	}
	if r := sendFrame(c, cmdInit, 0); r != r1Idle {
		t.Fatalf("second init poll = 0x%02X, want idle", r)
	}
	if r := sendFrame(c, cmdInit, 0); r != r1Ready {
		t.Fatalf("third init poll = 0x%02X, want ready", r)
	}
}
