package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/labtrack/internal/identity"
)

// Stamp carries what every appended event needs: a fresh id, the time and who did it.
type Stamp struct {
	EventID uuid.UUID
	At      time.Time
	Actor   identity.Actor
}

// ScanKind is the classification of a scan before it is confirmed.
type ScanKind string

const (
	ScanEntry    ScanKind = "entry"
	ScanExit     ScanKind = "exit"
	ScanTracking ScanKind = "tracking"
)

const (
	ActionFinalized = "Finalized"
	ActionReopened  = "Reopened"
	ActionDelivered = "Delivered"
	ActionApproved  = "Approved"
	ActionTracked   = "Tracking scan"
)

// ClassifyScan decides what a scan by actor means for o. Only the last history event is
// considered: if it is an entry at the actor's sector the scan is an exit, otherwise an
// entry. Actors without a sector always produce a tracking scan.
func ClassifyScan(o *Order, actor identity.Actor) ScanKind {
	if !actor.Bound() {
		return ScanTracking
	}

	if last, ok := o.History.Last(); ok && last.IsEntryAt(actor.Sector) {
		return ScanExit
	}

	return ScanEntry
}

// ApplyScan performs the transition for a classified scan.
func ApplyScan(o *Order, st Stamp, kind ScanKind) (*Order, error) {
	switch kind {
	case ScanEntry:
		return Enter(o, st, st.Actor.Sector)
	case ScanExit:
		return Exit(o, st, st.Actor.Sector)
	case ScanTracking:
		return Track(o, st), nil
	}

	return nil, invalid("kind", fmt.Sprintf("unknown scan kind %q", kind))
}

// Enter moves the order into sector and puts it in production. Used both for entry
// scans and for a manual start.
func Enter(o *Order, st Stamp, sector string) (*Order, error) {
	sector = strings.TrimSpace(sector)
	if sector == "" {
		return nil, invalid("sector", "required")
	}

	next := appendEvent(o, st, EntryAction(sector), sector)
	next.Status = StatusInProgress

	return next, nil
}

// Exit records that the order is ready to leave sector. Status and CurrentSector are
// left as they are: the order is still nominally located there.
func Exit(o *Order, st Stamp, sector string) (*Order, error) {
	sector = strings.TrimSpace(sector)
	if sector == "" {
		return nil, invalid("sector", "required")
	}

	return appendEvent(o, st, ExitAction(sector), sector), nil
}

// Track records a sighting by an actor with no sector.
func Track(o *Order, st Stamp) *Order {
	return appendEvent(o, st, ActionTracked, "")
}

// Finalize completes the order and parks it at the dispatch sector.
func Finalize(o *Order, st Stamp, dispatchSector string) *Order {
	next := appendEvent(o, st, ActionFinalized, dispatchSector)
	next.Status = StatusCompleted

	return next
}

// Reopen puts a finished order back in production without moving it.
func Reopen(o *Order, st Stamp) *Order {
	next := appendEvent(o, st, ActionReopened, "")
	next.Status = StatusInProgress

	return next
}

func Deliver(o *Order, st Stamp) *Order {
	next := appendEvent(o, st, ActionDelivered, "")
	next.Status = StatusDelivered

	return next
}

// Approve accepts a web intake order. Only orders waiting for approval qualify.
func Approve(o *Order, st Stamp) (*Order, error) {
	if o.Status != StatusWaitingApproval {
		return nil, fmt.Errorf("%w: cannot approve a %s order", ErrInvalidTransition, o.Status)
	}

	next := appendEvent(o, st, ActionApproved, "")
	next.Status = StatusPending

	return next, nil
}

// Reject turns down a web intake order.
func Reject(o *Order, st Stamp, reason string) (*Order, error) {
	if o.Status != StatusWaitingApproval {
		return nil, fmt.Errorf("%w: cannot reject a %s order", ErrInvalidTransition, o.Status)
	}

	action := "Rejected"
	if reason = strings.TrimSpace(reason); reason != "" {
		action += ": " + reason
	}

	next := appendEvent(o, st, action, "")
	next.Status = StatusRejected

	return next, nil
}

// LogisticsPatch holds the logistics fields to change. Nil fields are left alone.
type LogisticsPatch struct {
	DueDate        *time.Time
	Urgency        *Urgency
	ContainerRef   *string
	ContainerColor *string
	Notes          *string
	InternalNotes  *string
}

// UpdateLogistics edits logistics fields and records which ones changed. TotalValue is
// never touched.
func UpdateLogistics(o *Order, st Stamp, p LogisticsPatch) (*Order, error) {
	if p.Urgency != nil && !p.Urgency.Valid() {
		return nil, invalid("urgency", fmt.Sprintf("unknown urgency %q", *p.Urgency))
	}

	next := o.Clone()

	var changed []string

	if p.DueDate != nil && !p.DueDate.Equal(next.DueDate) {
		next.DueDate = *p.DueDate
		changed = append(changed, "due date "+p.DueDate.Format(time.DateOnly))
	}

	if p.Urgency != nil && *p.Urgency != next.Urgency {
		next.Urgency = *p.Urgency
		changed = append(changed, "urgency "+string(*p.Urgency))
	}

	if p.ContainerRef != nil && *p.ContainerRef != next.ContainerRef {
		next.ContainerRef = *p.ContainerRef
		changed = append(changed, "container "+*p.ContainerRef)
	}

	if p.ContainerColor != nil && *p.ContainerColor != next.ContainerColor {
		next.ContainerColor = *p.ContainerColor
		changed = append(changed, "container color "+*p.ContainerColor)
	}

	if p.Notes != nil && *p.Notes != next.Notes {
		next.Notes = *p.Notes
		changed = append(changed, "notes")
	}

	if p.InternalNotes != nil && *p.InternalNotes != next.InternalNotes {
		next.InternalNotes = *p.InternalNotes
		changed = append(changed, "internal notes")
	}

	if len(changed) == 0 {
		return nil, invalid("logistics", "no changes")
	}

	return appendEvent(next, st, "Logistics updated: "+strings.Join(changed, ", "), ""), nil
}

// appendEvent is the only place history grows. CurrentSector follows every event that
// carries a sector, which keeps it equal to DeriveSector(History).
func appendEvent(o *Order, st Stamp, action, sector string) *Order {
	next := o.Clone()

	next.History = next.History.Append(Event{
		ID:        st.EventID,
		At:        st.At,
		Action:    action,
		ActorID:   st.Actor.ID,
		ActorName: st.Actor.Name,
		Sector:    sector,
	})

	if sector != "" {
		next.CurrentSector = sector
	}

	next.UpdatedAt = new(st.At)

	return next
}
