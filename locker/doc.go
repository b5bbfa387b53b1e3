// Package locker implements the lock-toggle controller for SD cards.
//
// # Overview
//
// This package orchestrates the complete toggle cycle on top of the sdspi
// protocol engine:
//   - Initializing the card and reading its CSD, retrying forever
//   - Displaying the lock state through an indicator
//   - Debouncing a physical button
//   - Flipping the temporary write-protect bit and writing the CSD back
//   - Re-reading to verify, and signaling failures
//
// # Basic Usage
//
//	// User provides the byte transport (sdspi.Bus)
//	bus := myboard.OpenSPI()
//
//	lk := locker.New(bus,
//	    locker.WithIndicator(led),
//	    locker.WithButton(btn),
//	)
//
//	err := lk.Run(context.Background())
//
// Run blocks for the life of the device; the only error it returns is the
// context's when cancelled.
//
// # Error Policy
//
// Card absence and read failures during the become-ready path are never
// terminal: the controller retries forever with a distinct indicator
// pattern, because a powered device with no working card has nothing
// better to do. Write failures are signaled once per user action and the
// loop continues. Nothing crashes or halts the cycle.
//
// # Timing
//
// Debounce sampling, release polling, and pattern rendering all pace
// themselves through an injectable SleepFunc, so tests substitute a fast
// clock without touching control logic. The controller never renders a
// pattern while a button sample is being taken; the two may share one
// physical line.
//
// # Logging
//
// Integrate with any logging framework through the Logger interface:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	lk := locker.New(bus, locker.WithLogger(&StdLogger{}))
package locker
