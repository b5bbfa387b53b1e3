package locker

import "time"

// Pattern is a 32-bit LED blink pattern, rendered MSB first: a set bit
// turns the LED on for the on-duration, a clear bit leaves it off for the
// off-duration. Rendering may stop early once no set bits remain.
type Pattern uint32

// Indicator patterns. The values are the device's established signal
// vocabulary; changing them changes what users see.
const (
	// PatternLocked is a steady ON: card is locked (write-protected)
	PatternLocked Pattern = 0x80000000

	// PatternUnlocked is a steady OFF: card is unlocked
	PatternUnlocked Pattern = 0x00000000

	// PatternBooting greets on power-up
	PatternBooting Pattern = 0x844B0000

	// PatternLoading is a fast blink while waiting for a card to initialize
	PatternLoading Pattern = 0xA0000000

	// PatternReading is a fast double blink while reading card registers
	PatternReading Pattern = 0xA5000000

	// PatternFailed is a slow blink: lock state did not change
	PatternFailed Pattern = 0x00030003

	// PatternWriteError is a slow double blink: register write rejected
	PatternWriteError Pattern = 0x000F000F
)

// Indicator renders status patterns for the user. Implementations own the
// physical output (an LED, a terminal, a log line) and block until the
// pattern is fully shown; the controller relies on that blocking to pace
// its retry loops.
type Indicator interface {
	// Signal renders the given pattern once. Set bits display for on,
	// clear bits for off.
	Signal(pattern Pattern, on, off time.Duration)
}

// Button samples the user input line. Pressed returns one raw sample with
// no debouncing; the controller applies its own debounce window.
//
// When the indicator and the button share one physical line (the reference
// hardware multiplexes them), the implementation must switch the line to
// input mode for the sample and restore output mode before returning. The
// controller guarantees Signal and Pressed are never in flight at once.
type Button interface {
	Pressed() bool
}

// SleepFunc is the blocking wait primitive used between debounce samples.
// Injectable so tests can run on a fast clock without altering control
// logic.
type SleepFunc func(time.Duration)

// Logger is an optional logging interface that can be provided to the
// controller. This allows integration with any logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// nopIndicator discards every pattern. Used when no indicator is wired.
type nopIndicator struct{}

func (nopIndicator) Signal(Pattern, time.Duration, time.Duration) {}

// nopButton is never pressed.
type nopButton struct{}

func (nopButton) Pressed() bool { return false }
