// Package sdspi implements the SD card SPI-mode command protocol.
//
// This package provides the byte-level command/response engine used to talk
// to an SD card over SPI: command framing, CRC7 handling, card-type
// detection, and CSD/CID register access.
//
// # Protocol Overview
//
// Every command is a fixed 6-byte frame:
//
//	[0x40|OPCODE][ARG3][ARG2][ARG1][ARG0][CRC]
//
// Where:
//   - OPCODE = 6-bit command index (CMD0-CMD58)
//   - ARG = 32-bit argument, big-endian (MSB first)
//   - CRC = CRC7 with stop bit; fixed per command, since SPI mode only
//     verifies it during the initialization handshake
//
// After the frame, the card answers with an R1 response byte (high bit
// clear) within a bounded number of idle exchanges. Commands that carry a
// data phase keep the card selected so the caller can continue; all others
// deselect immediately.
//
// Data blocks are delimited by the start token (0xFE) and carry no stop
// token:
//
//	Read:  [0xFE][DATA(16)][CRC]
//	Write: [0xFE][DATA(15)][CRC7<<1|1]
//
// # Session
//
// All card state (register buffers, detected card kind) lives in a Session
// bound to a Bus:
//
//	sess := sdspi.NewSession(bus)
//	if err := sess.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := sess.ReadCSD(); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("locked:", sess.Locked())
//
// # Hardware Independence
//
// This package does NOT implement SPI hardware access. Users provide a Bus
// implementation for their transport: bit-banged GPIO, a hardware SPI
// peripheral, or a simulated card for testing (see package simcard).
//
// # Error Handling
//
// Protocol-level failures are reported through three sentinel errors:
//   - ErrNotDetected: no card answered the idle handshake
//   - ErrTimeout: a bounded busy-wait expired without success
//   - ErrReadWriteFail: a data token or command response indicated rejection
//
// Use errors.Is to classify them. There is no error return at the byte
// level: the Bus always exchanges a byte, and failure is detected from
// response content and polling ceilings.
package sdspi
