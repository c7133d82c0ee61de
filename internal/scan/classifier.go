// Package scan tells barcode scanner reads apart from people typing, using nothing but
// the time between keystrokes and the terminator key a scanner sends after each code.
//
// The Classifier holds no timers. Whatever owns the input stream (a terminal program,
// an HTTP endpoint replaying captured keys, a test) passes every event with its own
// timestamp.
package scan

import (
	"time"
	"unicode"
)

const (
	DefaultGapThreshold = 100 * time.Millisecond
	DefaultMinLength    = 2
)

// Kind classifies a raw input event.
type Kind int

const (
	// KindChar is a single printable character.
	KindChar Kind = iota
	// KindTerminator is the Enter key.
	KindTerminator
	// KindControl is any other non-printable key (arrows, modifiers, function keys).
	KindControl
)

// Event is one keystroke.
type Event struct {
	Kind Kind
	Char rune
	At   time.Time
}

// Token is a recognized scanner read.
type Token struct {
	Code string
	At   time.Time
}

type Classifier struct {
	gap    time.Duration
	minLen int

	buf  []rune
	last time.Time
}

// New returns a classifier. Non-positive arguments fall back to the defaults.
func New(gap time.Duration, minLen int) *Classifier {
	if gap <= 0 {
		gap = DefaultGapThreshold
	}

	if minLen <= 0 {
		minLen = DefaultMinLength
	}

	return &Classifier{gap: gap, minLen: minLen}
}

// OnChar appends r to the buffer. If more than the gap threshold elapsed since the
// previous event, the buffer is cleared first: whatever was in it was typed by hand.
// Non-printable runes are ignored and leave the timer untouched.
func (c *Classifier) OnChar(r rune, at time.Time) {
	if !unicode.IsPrint(r) {
		return
	}

	if c.last.IsZero() || at.Sub(c.last) > c.gap {
		c.buf = c.buf[:0]
	}

	c.buf = append(c.buf, r)
	c.last = at
}

// OnTerminator ends the current burst. It returns a token when the buffer holds at
// least the minimum scan length; the buffer is cleared either way.
func (c *Classifier) OnTerminator(at time.Time) (Token, bool) {
	defer func() {
		c.buf = c.buf[:0]
		c.last = at
	}()

	if len(c.buf) < c.minLen {
		return Token{}, false
	}

	return Token{Code: string(c.buf), At: at}, true
}

// Feed dispatches an event. The boolean reports whether a token was emitted, in which
// case the caller must suppress the terminator's default effect for this event.
func (c *Classifier) Feed(ev Event) (Token, bool) {
	switch ev.Kind {
	case KindChar:
		c.OnChar(ev.Char, ev.At)
	case KindTerminator:
		return c.OnTerminator(ev.At)
	}

	return Token{}, false
}

// Pending returns the characters buffered so far.
func (c *Classifier) Pending() string {
	return string(c.buf)
}

// Reset drops the buffer and forgets the last event time.
func (c *Classifier) Reset() {
	c.buf = c.buf[:0]
	c.last = time.Time{}
}
