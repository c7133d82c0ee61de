package order

import (
	"fmt"
	"slices"
	"strings"
)

const (
	entryPrefix = "Entry at sector "
	exitPrefix  = "Exit from sector "
)

func EntryAction(sector string) string { return entryPrefix + sector }

func ExitAction(sector string) string { return exitPrefix + sector }

// IsEntryAt reports whether the event records an entry at the given sector.
func (e Event) IsEntryAt(sector string) bool {
	return e.Sector == sector && e.Action == EntryAction(sector)
}

// IsExit reports whether the event records an exit from any sector.
func (e Event) IsExit() bool {
	return e.Sector != "" && strings.HasPrefix(e.Action, exitPrefix)
}

// History is the append-only audit trail of an order. Order is append order; event
// timestamps are informational.
type History []Event

// Append returns a history with e at the end. The receiver is never modified, not even
// through a shared backing array.
func (h History) Append(e Event) History {
	return append(slices.Clip(h), e)
}

func (h History) Last() (Event, bool) {
	if len(h) == 0 {
		return Event{}, false
	}

	return h[len(h)-1], true
}

// LastWithSector returns the most recent event that carries a sector.
func (h History) LastWithSector() (Event, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Sector != "" {
			return h[i], true
		}
	}

	return Event{}, false
}

// DeriveSector recomputes an order's location from its history alone.
func DeriveSector(h History) string {
	e, _ := h.LastWithSector()
	return e.Sector
}

// VerifySector checks the denormalized CurrentSector against a fresh derivation.
func VerifySector(o *Order) error {
	if derived := DeriveSector(o.History); derived != o.CurrentSector {
		return fmt.Errorf("%w: order %s has %q, history says %q", ErrSectorMismatch, o.ID, o.CurrentSector, derived)
	}

	return nil
}

// IsPrefixOf reports whether h is an unchanged prefix of next. Every transition must
// leave the previous history as a prefix of the new one.
func (h History) IsPrefixOf(next History) bool {
	return len(h) <= len(next) && slices.Equal(h, next[:len(h)])
}
