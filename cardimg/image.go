package cardimg

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nephiel/go-sdlocker/sdspi"
)

// Constants for the card image file format.
const (
	// FormatVersion is the image format version written in the header
	FormatVersion = 0x01

	// HeaderLength is the length of the header line in hex characters
	HeaderLength = 4

	// RowLength is the length of a register row in hex characters:
	// tag(2) + register(32) + checksum(2)
	RowLength = 2 + 2*sdspi.RegisterSize + 2
)

// Register row tags.
const (
	TagCSD = 0x01
	TagCID = 0x02
)

// Card kinds as stored in the header.
const (
	kindLegacy = 0x01
	kindSDHC   = 0x02
)

// Image is a persisted card: its personality and both 16-byte registers.
// The simulator loads one to resume a card across runs and saves it back
// after a toggle.
type Image struct {
	// SDHC selects the card personality
	SDHC bool

	// CSD is the card-specific data register, lock bit included
	CSD [sdspi.RegisterSize]byte

	// CID is the card identification register
	CID [sdspi.RegisterSize]byte
}

// Locked reports whether the stored CSD carries the temporary
// write-protect bit.
func (img *Image) Locked() bool {
	return img.CSD[sdspi.LockByteIndex]&sdspi.LockBitMask != 0
}

// Load parses a card image from the given file path.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses a card image from any io.Reader. Useful for testing
// and reading from non-file sources.
func ParseReader(r io.Reader) (*Image, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
		return nil, fmt.Errorf("empty image")
	}

	img, err := parseHeader(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	var haveCSD, haveCID bool
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tag, reg, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		switch tag {
		case TagCSD:
			img.CSD = reg
			haveCSD = true
		case TagCID:
			img.CID = reg
			haveCID = true
		default:
			return nil, fmt.Errorf("line %d: unknown row tag 0x%02X", lineNum, tag)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	if !haveCSD || !haveCID {
		return nil, fmt.Errorf("incomplete image: CSD present=%t, CID present=%t", haveCSD, haveCID)
	}

	return img, nil
}

// parseHeader parses the image header line.
//
// Header format (4 hex characters):
//
//	[Version(2)][Kind(2)]
func parseHeader(line string) (*Image, error) {
	if len(line) != HeaderLength {
		return nil, fmt.Errorf("header must be %d hex characters, got %d", HeaderLength, len(line))
	}

	raw, err := hex.DecodeString(line)
	if err != nil {
		return nil, fmt.Errorf("invalid hex in header: %w", err)
	}

	if raw[0] != FormatVersion {
		return nil, fmt.Errorf("unsupported image version 0x%02X", raw[0])
	}

	img := &Image{}
	switch raw[1] {
	case kindLegacy:
		img.SDHC = false
	case kindSDHC:
		img.SDHC = true
	default:
		return nil, fmt.Errorf("unknown card kind 0x%02X", raw[1])
	}

	return img, nil
}

// parseRow parses one register row.
//
// Row format (36 hex characters):
//
//	[Tag(2)][Register(32)][Checksum(2)]
//
// The checksum is the 2's complement of the byte sum over tag and register.
func parseRow(line string) (byte, [sdspi.RegisterSize]byte, error) {
	var reg [sdspi.RegisterSize]byte

	if len(line) != RowLength {
		return 0, reg, fmt.Errorf("row must be %d hex characters, got %d", RowLength, len(line))
	}

	raw, err := hex.DecodeString(line)
	if err != nil {
		return 0, reg, fmt.Errorf("invalid hex in row: %w", err)
	}

	tag := raw[0]
	sum := Checksum(raw[:len(raw)-1])
	if sum != raw[len(raw)-1] {
		return 0, reg, fmt.Errorf("row checksum mismatch: expected 0x%02X, got 0x%02X", sum, raw[len(raw)-1])
	}

	copy(reg[:], raw[1:1+sdspi.RegisterSize])
	return tag, reg, nil
}

// Save writes the image to the given file path, replacing any existing
// file.
func (img *Image) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}

	if err := img.Encode(f); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

// Encode writes the image in its textual form to w.
func (img *Image) Encode(w io.Writer) error {
	kind := byte(kindLegacy)
	if img.SDHC {
		kind = kindSDHC
	}

	if _, err := fmt.Fprintf(w, "%02X%02X\n", FormatVersion, kind); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writeRow(w, TagCSD, img.CSD); err != nil {
		return err
	}
	return writeRow(w, TagCID, img.CID)
}

func writeRow(w io.Writer, tag byte, reg [sdspi.RegisterSize]byte) error {
	row := make([]byte, 0, 1+sdspi.RegisterSize)
	row = append(row, tag)
	row = append(row, reg[:]...)

	_, err := fmt.Fprintf(w, "%s%02X\n", strings.ToUpper(hex.EncodeToString(row)), Checksum(row))
	if err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

// Checksum computes the 2's complement of the byte sum over data: sum all
// bytes, invert, add one.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}
