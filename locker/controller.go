package locker

import (
	"context"

	"github.com/nephiel/go-sdlocker/sdspi"
)

// failSignalRepeats is how many times failure patterns are replayed so the
// user cannot miss them.
const failSignalRepeats = 3

// Locker drives the lock-toggle control flow over one SD card: initialize,
// read the CSD, display the lock state, and flip the temporary
// write-protect bit on demand, verifying every change with a re-read.
//
// Locker is single-threaded by design; the bus and the shared status/input
// line are exclusively owned by the calling goroutine.
type Locker struct {
	session *sdspi.Session
	config  Config
}

// New creates a Locker over the given bus.
//
// Example:
//
//	lk := locker.New(bus,
//	    locker.WithIndicator(led),
//	    locker.WithButton(btn),
//	    locker.WithLogger(myLogger),
//	)
//	err := lk.Run(context.Background())
func New(bus sdspi.Bus, opts ...Option) *Locker {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Locker{
		session: sdspi.NewSession(bus),
		config:  cfg,
	}
}

// Session exposes the underlying protocol session: register buffers and
// the detected card kind.
func (l *Locker) Session() *sdspi.Session {
	return l.session
}

// Locked reports the lock state from the last CSD read.
func (l *Locker) Locked() bool {
	return l.session.Locked()
}

// EnsureReady blocks until the card is initialized and its CSD has been
// read. It retries indefinitely, signaling the loading pattern while the
// card fails to initialize and the reading pattern while the CSD read
// fails: with no card there is nothing more useful to do than keep trying.
//
// The only way out short of success is ctx cancellation, in which case the
// context's error is returned.
func (l *Locker) EnsureReady(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := l.session.Init()
		if err == nil {
			break
		}
		l.logDebug("card init failed", "err", err)
		l.signal(PatternLoading)
	}

	l.logDebug("card initialized", "kind", l.session.Kind.String())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := l.session.ReadCSD()
		if err == nil {
			break
		}
		l.logDebug("CSD read failed", "err", err)
		l.signal(PatternReading)
	}

	return nil
}

// ShowState signals the current lock state: steady on for locked, off for
// unlocked.
func (l *Locker) ShowState() {
	if l.Locked() {
		l.signal(PatternLocked)
	} else {
		l.signal(PatternUnlocked)
	}
}

// Toggle flips the lock bit in the in-memory CSD and writes the register
// back to the card.
//
// The in-memory bit is flipped before the write is attempted; on a write
// failure the cached state diverges from the card until the next ReadCSD.
// Callers must follow Toggle with EnsureReady to re-verify — Run does.
func (l *Locker) Toggle() error {
	l.session.ToggleLock()

	if err := l.session.WriteCSD(); err != nil {
		l.logError("CSD write failed", "err", err)
		for i := 0; i < failSignalRepeats; i++ {
			l.signal(PatternWriteError)
		}
		return err
	}

	return nil
}

// Run is the top-level control cycle: become ready, display the lock
// state, and on every debounced button press toggle the lock bit, re-read
// to verify, and report the outcome. It loops until ctx is cancelled.
//
// Write and verify failures are signaled and absorbed; they never stop the
// loop. The only error Run returns is the context's.
func (l *Locker) Run(ctx context.Context) error {
	l.signal(PatternBooting)

	if err := l.EnsureReady(ctx); err != nil {
		return err
	}
	l.logInfo("card ready",
		"kind", l.session.Kind.String(),
		"locked", l.Locked(),
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.ShowState()

		if !l.buttonIs(true) {
			continue
		}

		prev := l.Locked()
		_ = l.Toggle() // write errors already signaled; verify below catches them

		if err := l.EnsureReady(ctx); err != nil {
			return err
		}

		if l.Locked() == prev {
			l.logError("lock state unchanged", "locked", prev)
			for i := 0; i < failSignalRepeats; i++ {
				l.signal(PatternFailed)
			}
		} else {
			l.logInfo("lock state changed", "locked", l.Locked())
		}

		l.ShowState()

		// Debounce the release too, so one long press cannot retrigger.
		for !l.buttonIs(false) {
			if err := ctx.Err(); err != nil {
				return err
			}
			l.config.Sleep(l.config.ReleasePoll)
		}
	}
}

// buttonIs reports whether the button matches the wanted state through the
// whole debounce window. A single disagreeing sample aborts the check.
func (l *Locker) buttonIs(pressed bool) bool {
	if l.config.Button.Pressed() != pressed {
		return false
	}
	for i := 0; i < l.config.DebounceSamples; i++ {
		l.config.Sleep(l.config.DebounceInterval)
		if l.config.Button.Pressed() != pressed {
			return false
		}
	}
	return true
}

func (l *Locker) signal(p Pattern) {
	l.config.Indicator.Signal(p, l.config.BlinkOn, l.config.BlinkOff)
}

func (l *Locker) logDebug(msg string, keysAndValues ...interface{}) {
	if l.config.Logger != nil {
		l.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (l *Locker) logInfo(msg string, keysAndValues ...interface{}) {
	if l.config.Logger != nil {
		l.config.Logger.Info(msg, keysAndValues...)
	}
}

func (l *Locker) logError(msg string, keysAndValues ...interface{}) {
	if l.config.Logger != nil {
		l.config.Logger.Error(msg, keysAndValues...)
	}
}
