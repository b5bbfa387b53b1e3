package locker

import "time"

// Config holds the controller configuration.
type Config struct {
	// Indicator renders status patterns (optional; discarded if nil)
	Indicator Indicator

	// Button samples the user input line (optional; never pressed if nil)
	Button Button

	// Logger is used for logging operations (optional)
	Logger Logger

	// Sleep is the blocking wait primitive used for debounce pacing
	Sleep SleepFunc

	// BlinkOn is how long a set pattern bit keeps the indicator on
	BlinkOn time.Duration

	// BlinkOff is how long a clear pattern bit keeps the indicator off
	BlinkOff time.Duration

	// DebounceSamples is the number of confirming samples a button state
	// must survive before it is trusted
	DebounceSamples int

	// DebounceInterval is the pause between confirming samples
	DebounceInterval time.Duration

	// ReleasePoll is the pause between release checks after a toggle
	ReleasePoll time.Duration
}

// defaultConfig returns the default configuration. The timing values match
// the reference hardware: 35ms per pattern bit, a 500ms debounce window
// (5 samples, 100ms apart), 25ms release polling.
func defaultConfig() Config {
	return Config{
		Indicator:        nopIndicator{},
		Button:           nopButton{},
		Sleep:            time.Sleep,
		BlinkOn:          35 * time.Millisecond,
		BlinkOff:         35 * time.Millisecond,
		DebounceSamples:  5,
		DebounceInterval: 100 * time.Millisecond,
		ReleasePoll:      25 * time.Millisecond,
	}
}

// Option is a functional option for configuring the Locker.
type Option func(*Config)

// WithIndicator sets the status indicator.
//
// Example:
//
//	lk := locker.New(bus, locker.WithIndicator(led))
func WithIndicator(ind Indicator) Option {
	return func(c *Config) {
		if ind != nil {
			c.Indicator = ind
		}
	}
}

// WithButton sets the user input source.
func WithButton(btn Button) Option {
	return func(c *Config) {
		if btn != nil {
			c.Button = btn
		}
	}
}

// WithLogger sets a logger for controller operations.
//
// Example:
//
//	lk := locker.New(bus, locker.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithSleep replaces the blocking wait primitive. Tests use this to run
// the debounce and retry pacing on a fast clock.
func WithSleep(sleep SleepFunc) Option {
	return func(c *Config) {
		if sleep != nil {
			c.Sleep = sleep
		}
	}
}

// WithBlinkDurations sets the per-bit on and off durations for pattern
// rendering.
func WithBlinkDurations(on, off time.Duration) Option {
	return func(c *Config) {
		if on > 0 {
			c.BlinkOn = on
		}
		if off > 0 {
			c.BlinkOff = off
		}
	}
}

// WithDebounce sets the debounce window: the button state must hold for
// samples confirmations taken interval apart before it is trusted.
func WithDebounce(samples int, interval time.Duration) Option {
	return func(c *Config) {
		if samples >= 0 {
			c.DebounceSamples = samples
		}
		if interval > 0 {
			c.DebounceInterval = interval
		}
	}
}

// WithReleasePoll sets the pause between release checks while waiting for
// the button to be let go.
func WithReleasePoll(interval time.Duration) Option {
	return func(c *Config) {
		if interval > 0 {
			c.ReleasePoll = interval
		}
	}
}
