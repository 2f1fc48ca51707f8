// Package scanner tells barcode-scanner bursts apart from human typing in a
// stream of key presses.
//
// A scanner types the whole code within a few milliseconds per key and ends
// with Enter. The classifier accumulates characters while the gap between
// keys stays within TimeThreshold and emits the buffer on Enter once it holds
// at least MinLength characters. A person typing faster than the threshold is
// indistinguishable from a scanner and will be reported as a scan.
package scanner

import (
	"time"
	"unicode/utf8"
)

// Terminator is the key that completes a scan.
const Terminator = "Enter"

const (
	DefaultMinLength     = 3
	DefaultTimeThreshold = 100 * time.Millisecond
)

// KeyEvent is one key press. Key uses KeyboardEvent.key naming: a single
// character for printable keys, a word ("Enter", "Shift", "ArrowUp") otherwise.
type KeyEvent struct {
	Key string
	At  time.Time
}

type Config struct {
	MinLength     int
	TimeThreshold time.Duration
}

// Classifier is not safe for concurrent use; feed it from one goroutine.
type Classifier struct {
	cfg     Config
	buf     []rune
	lastKey time.Time
}

// New returns a Classifier; zero config fields fall back to the defaults.
func New(cfg Config) *Classifier {
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}
	if cfg.TimeThreshold <= 0 {
		cfg.TimeThreshold = DefaultTimeThreshold
	}
	return &Classifier{cfg: cfg}
}

// Feed processes one key press. It returns the completed code and true when
// ev is a terminator that closes a long enough burst; the caller must then
// suppress the terminator's default action. Any other outcome returns false.
func (c *Classifier) Feed(ev KeyEvent) (string, bool) {
	isTerminator := ev.Key == Terminator
	if !isTerminator && utf8.RuneCountInString(ev.Key) != 1 {
		// Modifiers, arrows, function keys: no effect on buffer or timing.
		return "", false
	}

	elapsed := ev.At.Sub(c.lastKey)
	c.lastKey = ev.At

	if isTerminator {
		code := string(c.buf)
		c.buf = c.buf[:0]
		if utf8.RuneCountInString(code) >= c.cfg.MinLength {
			return code, true
		}
		return "", false
	}

	r, _ := utf8.DecodeRuneInString(ev.Key)
	if elapsed <= c.cfg.TimeThreshold {
		c.buf = append(c.buf, r)
	} else {
		c.buf = append(c.buf[:0], r)
	}
	return "", false
}

// pending returns the buffered characters not yet terminated.
func (c *Classifier) pending() string { return string(c.buf) }
