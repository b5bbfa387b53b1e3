package sdspi

import (
	"bytes"
	"testing"
)

// scriptBus is a transport with scripted responses keyed by exchange
// index. Everything else reads as an idle bus (0xFF).
type scriptBus struct {
	responses map[int]byte

	sent      []byte
	exchanges int
	selects   int
	deselects int
	selected  bool
}

func (b *scriptBus) Exchange(tx byte) byte {
	idx := b.exchanges
	b.exchanges++
	b.sent = append(b.sent, tx)
	if r, ok := b.responses[idx]; ok {
		return r
	}
	return 0xFF
}

func (b *scriptBus) Select() {
	b.selects++
	b.selected = true
}

func (b *scriptBus) Deselect() {
	b.deselects++
	b.selected = false
}

// A simple command's exchange layout:
//
//	#0    idle byte, deselected
//	#1    idle byte, selected
//	#2-7  command frame
//	#8+   response polls
const firstPollIndex = 8

func TestSendCommandFraming(t *testing.T) {
	bus := &scriptBus{responses: map[int]byte{firstPollIndex: 0x00}}
	s := NewSession(bus)

	resp := s.SendCommand(SetBlockLen, 512)

	if resp != 0x00 {
		t.Errorf("response = 0x%02X, want 0x00", resp)
	}

	frame := bus.sent[2:8]
	want := []byte{0x50, 0x00, 0x00, 0x02, 0x00, 0x01}
	if !bytes.Equal(frame, want) {
		t.Errorf("frame = % X, want % X", frame, want)
	}

	// Non-data command: deselected again with one trailing idle byte.
	if bus.selected {
		t.Error("bus still selected after a command without data phase")
	}
	if bus.exchanges != firstPollIndex+2 {
		t.Errorf("exchanges = %d, want %d", bus.exchanges, firstPollIndex+2)
	}
}

func TestSendCommandCRCBytes(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		crc  byte
	}{
		{"go idle", GoIdle, 0x95},
		{"interface condition", SendIfCond, 0x87},
		{"send CSD", SendCSD, 0x01},
		{"program CSD", ProgramCSD, 0x01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &scriptBus{responses: map[int]byte{firstPollIndex: 0x00}}
			NewSession(bus).SendCommand(tt.cmd, 0)
			if got := bus.sent[7]; got != tt.crc {
				t.Errorf("CRC byte = 0x%02X, want 0x%02X", got, tt.crc)
			}
		})
	}
}

func TestSendCommandHoldsSelectForDataCommands(t *testing.T) {
	bus := &scriptBus{responses: map[int]byte{firstPollIndex: 0x00}}
	s := NewSession(bus)

	s.SendCommand(SendCSD, 0)

	if !bus.selected {
		t.Error("bus deselected after SendCSD; data phase needs it selected")
	}
	if bus.exchanges != firstPollIndex+1 {
		t.Errorf("exchanges = %d, want %d (no trailing idle byte)", bus.exchanges, firstPollIndex+1)
	}
}

func TestSendCommandPollCeiling(t *testing.T) {
	bus := &scriptBus{responses: map[int]byte{}}
	s := NewSession(bus)

	resp := s.SendCommand(GoIdle, 0)

	if resp != 0xFF {
		t.Errorf("response = 0x%02X, want 0xFF for a silent card", resp)
	}
	// 2 idles + 6 frame bytes + full poll budget + trailing idle.
	if want := 2 + 6 + ResponseAttempts + 1; bus.exchanges != want {
		t.Errorf("exchanges = %d, want %d", bus.exchanges, want)
	}
}

func TestSendCommandStopsPollingOnResponse(t *testing.T) {
	// Answer on the fifth poll; polling must stop there.
	bus := &scriptBus{responses: map[int]byte{firstPollIndex + 4: R1InIdle}}
	s := NewSession(bus)

	resp := s.SendCommand(GoIdle, 0)

	if resp != R1InIdle {
		t.Errorf("response = 0x%02X, want 0x%02X", resp, R1InIdle)
	}
	if want := 2 + 6 + 5 + 1; bus.exchanges != want {
		t.Errorf("exchanges = %d, want %d", bus.exchanges, want)
	}
}

func TestSendCommandAdvancedPrefix(t *testing.T) {
	bus := &scriptBus{responses: map[int]byte{
		firstPollIndex:      R1InIdle, // prefix answered on first poll
		10 + firstPollIndex: 0x00,     // target command ready
	}}
	s := NewSession(bus)

	resp := s.SendCommand(AdvancedInit, 1<<30)

	if resp != 0x00 {
		t.Errorf("response = 0x%02X, want 0x00", resp)
	}

	// Prefix frame first, target frame after it, argument intact.
	prefix := bus.sent[2:8]
	if !bytes.Equal(prefix, []byte{0x77, 0x00, 0x00, 0x00, 0x00, 0x01}) {
		t.Errorf("prefix frame = % X", prefix)
	}
	target := bus.sent[12:18]
	if !bytes.Equal(target, []byte{0x69, 0x40, 0x00, 0x00, 0x00, 0x01}) {
		t.Errorf("target frame = % X", target)
	}
}

func TestSendCommandAdvancedShortCircuit(t *testing.T) {
	// Prefix rejected: the target command must never hit the wire.
	bus := &scriptBus{responses: map[int]byte{firstPollIndex: 0x05}}
	s := NewSession(bus)

	resp := s.SendCommand(AdvancedInit, 1<<30)

	if resp != 0x05 {
		t.Errorf("response = 0x%02X, want the prefix response 0x05", resp)
	}
	if bytes.Contains(bus.sent, []byte{0x69}) {
		t.Error("target command was sent despite prefix rejection")
	}
}

func TestCommandTableCovered(t *testing.T) {
	// Every command must carry an in-range opcode and a CRC byte with the
	// stop bit set.
	for cmd := GoIdle; cmd <= ReadOCR; cmd++ {
		d := commands[cmd]
		if d.crc&1 != 1 {
			t.Errorf("command %d CRC byte 0x%02X has no stop bit", cmd, d.crc)
		}
		if d.code > 63 {
			t.Errorf("command %d opcode %d out of range", cmd, d.code)
		}
	}
}
