package simcard

import "github.com/nephiel/go-sdlocker/sdspi"

// Option is a functional option for configuring the simulated card.
type Option func(*Card)

// WithSDHC selects the card personality: a v2/SDHC card answers the
// interface-condition probe, a legacy card rejects it as illegal.
func WithSDHC(sdhc bool) Option {
	return func(c *Card) {
		c.sdhc = sdhc
	}
}

// WithCSD installs a specific CSD register. The last byte should carry the
// register's own CRC7 in wire format; DefaultCSD builds one.
func WithCSD(csd [sdspi.RegisterSize]byte) Option {
	return func(c *Card) {
		c.csd = csd
	}
}

// WithCID installs a specific CID register.
func WithCID(cid [sdspi.RegisterSize]byte) Option {
	return func(c *Card) {
		c.cid = cid
	}
}

// WithLocked sets the temporary write-protect bit in the default CSD.
// Ignored when WithCSD supplies a register.
func WithLocked(locked bool) Option {
	return func(c *Card) {
		c.locked = locked
	}
}

// WithInitDelay makes the card answer n initialization polls with the idle
// bit before reporting ready.
func WithInitDelay(n int) Option {
	return func(c *Card) {
		if n >= 0 {
			c.initPolls = n
		}
	}
}

// WithBusyBytes sets how many busy bytes the card clocks out after
// accepting a CSD program.
func WithBusyBytes(n int) Option {
	return func(c *Card) {
		if n >= 0 {
			c.busyBytes = n
		}
	}
}

// WithAbsent simulates an empty card slot: every exchange reads 0xFF.
func WithAbsent() Option {
	return func(c *Card) {
		c.absent = true
	}
}

// WithNeverReady makes initialization polling never complete: the card
// answers every Init/AdvancedInit with the idle bit.
func WithNeverReady() Option {
	return func(c *Card) {
		c.neverReady = true
	}
}

// WithRejectProgram makes the card refuse the ProgramCSD command outright,
// before any data phase.
func WithRejectProgram() Option {
	return func(c *Card) {
		c.rejectProgram = true
	}
}

// WithBusyForever wedges the card after it accepts a CSD program: the busy
// signal never clears.
func WithBusyForever() Option {
	return func(c *Card) {
		c.busyForever = true
	}
}

// WithStarvedToken makes register reads answer their command but never
// produce the data start token.
func WithStarvedToken() Option {
	return func(c *Card) {
		c.starveToken = true
	}
}
