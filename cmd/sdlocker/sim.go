package main

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/eiannone/keyboard"

	"github.com/nephiel/go-sdlocker/locker"
)

// pressHold is how long one spacebar hit keeps the virtual button pressed.
// Long enough to survive the controller's full debounce window, short
// enough that the release debounce follows promptly.
const pressHold = 900 * time.Millisecond

// keyButton turns keyboard events into a momentary button. A spacebar hit
// latches the button pressed for pressHold; the controller's debounced
// sampling sees a clean press-and-release.
type keyButton struct {
	pressedUntil atomic.Int64 // unix nanos
}

func newKeyButton() (*keyButton, func(), error) {
	if err := keyboard.Open(); err != nil {
		return nil, nil, err
	}
	return &keyButton{}, func() { _ = keyboard.Close() }, nil
}

// Pressed samples the virtual button state.
func (b *keyButton) Pressed() bool {
	return time.Now().UnixNano() < b.pressedUntil.Load()
}

// watch consumes keyboard events until quit, then cancels the run.
func (b *keyButton) watch(cancel func()) {
	for {
		ch, key, err := keyboard.GetKey()
		if err != nil {
			cancel()
			return
		}
		switch {
		case key == keyboard.KeySpace || ch == ' ':
			b.pressedUntil.Store(time.Now().Add(pressHold).UnixNano())
		case ch == 'q' || key == keyboard.KeyEsc || key == keyboard.KeyCtrlC:
			cancel()
			return
		}
	}
}

// termIndicator renders LED patterns on the terminal, one character per
// pattern bit, redrawing in place.
type termIndicator struct {
	w io.Writer
}

func newTermIndicator(w io.Writer) *termIndicator {
	return &termIndicator{w: w}
}

// Signal plays the pattern MSB first. Like the reference LED renderer, it
// stops early once no set bits remain, so a steady-off pattern costs one
// frame instead of thirty-two.
func (t *termIndicator) Signal(pattern locker.Pattern, on, off time.Duration) {
	label := patternLabel(pattern)
	for i := 0; i < 32; i++ {
		if pattern&0x80000000 != 0 {
			fmt.Fprintf(t.w, "\r(*) %-8s", label)
			time.Sleep(on)
		} else {
			fmt.Fprintf(t.w, "\r( ) %-8s", label)
			time.Sleep(off)
		}
		pattern <<= 1
		if pattern == 0 {
			break
		}
	}
}

func patternLabel(p locker.Pattern) string {
	switch p {
	case locker.PatternLocked:
		return "locked"
	case locker.PatternUnlocked:
		return "unlocked"
	case locker.PatternBooting:
		return "booting"
	case locker.PatternLoading:
		return "loading"
	case locker.PatternReading:
		return "reading"
	case locker.PatternFailed:
		return "failed"
	case locker.PatternWriteError:
		return "werror"
	default:
		return ""
	}
}
