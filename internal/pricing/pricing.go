// Package pricing computes line item prices from a catalog entry and a set of
// selected variation options, and keeps selections consistent with the
// "disables" constraints declared between options.
//
// Selections are ordered: the slice reflects the order in which options were
// picked, oldest first. Which options survive depends only on which ids are
// selected; the order matters only for options that disable each other, where the
// earlier pick wins.
package pricing

import (
	"slices"

	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
)

// ComputePrice returns the base price plus the modifiers of every selected option that
// exists in the entry. Unknown option ids contribute nothing.
func ComputePrice(entry *catalog.Entry, selected []string) int64 {
	total := entry.BasePrice

	seen := make(map[string]struct{}, len(selected))

	for _, id := range selected {
		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}

		if opt, _, ok := entry.Option(id); ok {
			total += opt.PriceModifier
		}
	}

	return total
}

// Reconciliation is the outcome of Reconcile.
type Reconciliation struct {
	Valid    []string
	Disabled []string
}

// Reconcile drops every selected option disabled by another surviving selection and
// reports the disabled ids for the UI to grey out.
//
// Disabling is one level deep: an option removed because something disabled it does
// not disable anything itself, so the outcome depends only on the set of selected ids.
// Options that disable each other are the exception: the one selected first wins.
// The result is a fixed point: reconciling Valid again yields the same Reconciliation.
func Reconcile(entry *catalog.Entry, selected []string) Reconciliation {
	ids := distinct(selected)

	// disablers[id] lists the selected options whose Disables names id.
	disablers := make(map[string][]string, len(ids))

	for _, by := range ids {
		opt, _, ok := entry.Option(by)
		if !ok {
			continue
		}

		for _, d := range opt.Disables {
			if d != by && slices.Contains(ids, d) {
				disablers[d] = append(disablers[d], by)
			}
		}
	}

	state := make(map[string]verdict, len(ids))

	for {
		settle(ids, disablers, state)

		i := slices.IndexFunc(ids, func(id string) bool { return state[id] == undecided })
		if i < 0 {
			break
		}

		// Only cycles are left undecided. The earliest pick survives and its
		// undecided disablers go.
		state[ids[i]] = kept
		for _, by := range disablers[ids[i]] {
			if state[by] == undecided {
				state[by] = dropped
			}
		}
	}

	valid := slices.DeleteFunc(ids, func(id string) bool { return state[id] != kept })

	return Reconciliation{
		Valid:    valid,
		Disabled: sortedKeys(disabledBy(entry, valid)),
	}
}

type verdict int

const (
	undecided verdict = iota
	kept
	dropped
)

// settle decides every id it can: an id survives once all its disablers are dropped
// and is dropped as soon as one of them survives.
func settle(ids []string, disablers map[string][]string, state map[string]verdict) {
	for changed := true; changed; {
		changed = false

		for _, id := range ids {
			if state[id] != undecided {
				continue
			}

			next := kept

			for _, by := range disablers[id] {
				if state[by] == kept {
					next = dropped
					break
				}

				if state[by] == undecided {
					next = undecided
				}
			}

			if next != undecided {
				state[id] = next
				changed = true
			}
		}
	}
}

func distinct(ids []string) []string {
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}

	return out
}

// disabledBy is the union of the Disables lists of the given options.
func disabledBy(entry *catalog.Entry, ids []string) map[string]struct{} {
	out := make(map[string]struct{})

	for _, id := range ids {
		opt, _, ok := entry.Option(id)
		if !ok {
			continue
		}

		for _, d := range opt.Disables {
			out[d] = struct{}{}
		}
	}

	return out
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
