// Package simcard simulates the card side of the SD SPI protocol.
//
// A Card implements sdspi.Bus, so the whole engine and the lock controller
// can run against it unchanged: commands get R1 responses after a one-byte
// latency, register reads are token-delimited, and CSD programming checks
// the CRC7 and clocks out a busy tail before the register takes effect.
//
// # Basic Usage
//
//	card := simcard.New(simcard.WithSDHC(true), simcard.WithLocked(true))
//	sess := sdspi.NewSession(card)
//	_ = sess.Init()
//	_ = sess.ReadCSD()
//
// # Fault Injection
//
// Options reproduce the failure modes a host must survive:
//
//	simcard.WithAbsent()        // empty slot, bus idles high
//	simcard.WithNeverReady()    // init polling never completes
//	simcard.WithStarvedToken()  // register reads never produce a token
//	simcard.WithRejectProgram() // ProgramCSD refused before the data phase
//	simcard.WithBusyForever()   // busy signal never clears after a program
//
// The package backs both the test suites and the sdlocker CLI.
package simcard
