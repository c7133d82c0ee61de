package order

import (
	"cmp"
	"slices"
	"time"
)

// byPriority sorts urgent orders first, then by due date, then by reference.
func byPriority(a, b *Order) int {
	if a.Urgency != b.Urgency {
		if a.Urgency == UrgencyUrgent {
			return -1
		}

		if b.Urgency == UrgencyUrgent {
			return 1
		}
	}

	return cmp.Or(a.DueDate.Compare(b.DueDate), cmp.Compare(a.ExternalRef, b.ExternalRef))
}

func selectOrders(orders []*Order, keep func(*Order) bool) []*Order {
	out := make([]*Order, 0, len(orders))

	for _, o := range orders {
		if keep(o) {
			out = append(out, o)
		}
	}

	slices.SortStableFunc(out, byPriority)

	return out
}

// Pending lists orders that have not entered production yet.
func Pending(orders []*Order) []*Order {
	return selectOrders(orders, func(o *Order) bool {
		return o.Status == StatusPending || o.Status == StatusWaitingApproval
	})
}

// Overdue lists orders past their due date that are still in the lab.
func Overdue(orders []*Order, now time.Time) []*Order {
	return selectOrders(orders, func(o *Order) bool { return o.Overdue(now) })
}

// InSector lists orders in production currently located at sector.
func InSector(orders []*Order, sector string) []*Order {
	return selectOrders(orders, func(o *Order) bool {
		return o.Status == StatusInProgress && o.CurrentSector == sector
	})
}

// LastExit returns the most recent exit event, if any.
func LastExit(o *Order) (Event, bool) {
	for i := len(o.History) - 1; i >= 0; i-- {
		if o.History[i].IsExit() {
			return o.History[i], true
		}
	}

	return Event{}, false
}

// ReadyForHandoff reports whether the order's last event is an exit from its current
// sector.
func ReadyForHandoff(o *Order) bool {
	last, ok := o.History.Last()
	return ok && last.IsExit() && last.Sector == o.CurrentSector
}
