package sdspi_test

import (
	"errors"
	"testing"

	"github.com/nephiel/go-sdlocker/sdspi"
	"github.com/nephiel/go-sdlocker/simcard"
)

func TestInitAgainstSimulatedCard(t *testing.T) {
	tests := []struct {
		name string
		sdhc bool
		want sdspi.CardKind
	}{
		{"sdhc card", true, sdspi.KindSDHC},
		{"legacy card", false, sdspi.KindLegacySD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := simcard.New(simcard.WithSDHC(tt.sdhc), simcard.WithInitDelay(3))
			s := sdspi.NewSession(card)

			if err := s.Init(); err != nil {
				t.Fatalf("Init() = %v", err)
			}
			if s.Kind != tt.want {
				t.Errorf("Kind = %v, want %v", s.Kind, tt.want)
			}
		})
	}
}

func TestInitAbsentCard(t *testing.T) {
	card := simcard.New(simcard.WithAbsent())
	s := sdspi.NewSession(card)

	if err := s.Init(); !errors.Is(err, sdspi.ErrNotDetected) {
		t.Fatalf("Init() = %v, want ErrNotDetected", err)
	}
}

func TestReadCSD(t *testing.T) {
	card := simcard.New(simcard.WithLocked(true))
	s := sdspi.NewSession(card)

	if err := s.ReadCSD(); err != nil {
		t.Fatalf("ReadCSD() = %v", err)
	}
	if s.CSD != card.CSD() {
		t.Errorf("CSD = % X, want % X", s.CSD, card.CSD())
	}
	if !s.Locked() {
		t.Error("Locked() = false for a locked card")
	}
}

func TestReadCID(t *testing.T) {
	card := simcard.New()
	s := sdspi.NewSession(card)

	if err := s.ReadCID(); err != nil {
		t.Fatalf("ReadCID() = %v", err)
	}
	if s.CID != card.CID() {
		t.Errorf("CID = % X, want % X", s.CID, card.CID())
	}
}

func TestReadCSDStarvedToken(t *testing.T) {
	card := simcard.New(simcard.WithStarvedToken())
	s := sdspi.NewSession(card)
	s.CSD[0] = 0xAA // stale garbage that must not survive a failed read

	if err := s.ReadCSD(); !errors.Is(err, sdspi.ErrReadWriteFail) {
		t.Fatalf("ReadCSD() = %v, want ErrReadWriteFail", err)
	}
	if s.CSD != [sdspi.RegisterSize]byte{} {
		t.Errorf("CSD not zeroed after failed read: % X", s.CSD)
	}
}

func TestWriteCSDRoundTrip(t *testing.T) {
	card := simcard.New(simcard.WithLocked(false))
	s := sdspi.NewSession(card)

	if err := s.ReadCSD(); err != nil {
		t.Fatalf("ReadCSD() = %v", err)
	}

	s.ToggleLock()
	if err := s.WriteCSD(); err != nil {
		t.Fatalf("WriteCSD() = %v", err)
	}

	if !card.Locked() {
		t.Error("card not locked after programming the lock bit")
	}
	if card.Programs() != 1 {
		t.Errorf("card accepted %d programs, want 1", card.Programs())
	}

	// Re-read and compare: the card must hold exactly what we sent, with
	// the CRC byte it re-derived itself.
	if err := s.ReadCSD(); err != nil {
		t.Fatalf("verifying ReadCSD() = %v", err)
	}
	if !s.Locked() {
		t.Error("re-read CSD lost the lock bit")
	}
	payload := s.CSD[:sdspi.RegisterSize-1]
	if want := sdspi.WireCRC7(sdspi.CRC7(payload)); s.CSD[sdspi.RegisterSize-1] != want {
		t.Errorf("card stored CRC 0x%02X, want 0x%02X", s.CSD[sdspi.RegisterSize-1], want)
	}
}

func TestWriteCSDRejected(t *testing.T) {
	card := simcard.New(simcard.WithLocked(true), simcard.WithRejectProgram())
	s := sdspi.NewSession(card)

	if err := s.ReadCSD(); err != nil {
		t.Fatalf("ReadCSD() = %v", err)
	}

	s.ToggleLock()
	if err := s.WriteCSD(); !errors.Is(err, sdspi.ErrReadWriteFail) {
		t.Fatalf("WriteCSD() = %v, want ErrReadWriteFail", err)
	}

	// Rejection happens at the command phase: no data bytes, no program.
	if card.Programs() != 0 {
		t.Errorf("card accepted %d programs, want 0", card.Programs())
	}
	if !card.Locked() {
		t.Error("card CSD changed despite the rejected program")
	}
}

func TestWriteCSDBusyTimeout(t *testing.T) {
	card := simcard.New(simcard.WithBusyForever())
	s := sdspi.NewSession(card)

	if err := s.ReadCSD(); err != nil {
		t.Fatalf("ReadCSD() = %v", err)
	}

	s.ToggleLock()
	if err := s.WriteCSD(); !errors.Is(err, sdspi.ErrTimeout) {
		t.Fatalf("WriteCSD() = %v, want ErrTimeout", err)
	}
}

func TestToggleLockIdempotent(t *testing.T) {
	card := simcard.New(simcard.WithLocked(true))
	s := sdspi.NewSession(card)

	if err := s.ReadCSD(); err != nil {
		t.Fatalf("ReadCSD() = %v", err)
	}

	before := s.CSD
	s.ToggleLock()
	if s.Locked() {
		t.Error("still locked after one toggle")
	}
	s.ToggleLock()
	if s.CSD != before {
		t.Errorf("CSD = % X after double toggle, want % X", s.CSD, before)
	}
}
