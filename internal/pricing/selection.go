package pricing

import (
	"maps"
	"slices"

	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
)

// Selection is the editable state of one line item's variations.
type Selection struct {
	OptionIDs []string
	// FreeText holds values for options of TEXT groups, keyed by option id.
	FreeText map[string]string
}

func (s Selection) clone() Selection {
	c := Selection{
		OptionIDs: slices.Clone(s.OptionIDs),
		FreeText:  maps.Clone(s.FreeText),
	}
	if c.FreeText == nil {
		c.FreeText = make(map[string]string)
	}

	return c
}

// Toggle applies a click on optionID following its group's cardinality and then
// reconciles the result:
//   - SINGLE: the option replaces any other selection from the same group; picking the
//     selected option again keeps it selected.
//   - MULTIPLE: membership is flipped.
//   - TEXT: selecting adds an (initially empty) free text value, deselecting drops it.
//
// Options that are currently disabled stay unselected. Unknown ids are ignored.
func Toggle(entry *catalog.Entry, sel Selection, optionID string) (Selection, []string) {
	next := sel.clone()

	_, group, ok := entry.Option(optionID)
	if !ok {
		return finish(entry, next)
	}

	selected := slices.Contains(next.OptionIDs, optionID)

	switch group.SelectionType {
	case catalog.SelectionSingle:
		if selected {
			return finish(entry, next)
		}

		next.OptionIDs = slices.DeleteFunc(next.OptionIDs, func(id string) bool {
			return groupHas(group, id)
		})
		next.OptionIDs = append(next.OptionIDs, optionID)
	case catalog.SelectionMultiple:
		if selected {
			next.OptionIDs = slices.DeleteFunc(next.OptionIDs, func(id string) bool { return id == optionID })
		} else {
			next.OptionIDs = append(next.OptionIDs, optionID)
		}
	case catalog.SelectionText:
		if selected {
			next.OptionIDs = slices.DeleteFunc(next.OptionIDs, func(id string) bool { return id == optionID })
			delete(next.FreeText, optionID)
		} else {
			next.OptionIDs = append(next.OptionIDs, optionID)
			if _, has := next.FreeText[optionID]; !has {
				next.FreeText[optionID] = ""
			}
		}
	}

	return finish(entry, next)
}

// SetText selects a TEXT option with the given value. Empty values are allowed.
func SetText(entry *catalog.Entry, sel Selection, optionID, value string) (Selection, []string) {
	next := sel.clone()

	_, group, ok := entry.Option(optionID)
	if !ok || group.SelectionType != catalog.SelectionText {
		return finish(entry, next)
	}

	if !slices.Contains(next.OptionIDs, optionID) {
		next.OptionIDs = append(next.OptionIDs, optionID)
	}

	next.FreeText[optionID] = value

	return finish(entry, next)
}

// Normalize replays a stored selection click by click so single-choice groups hold
// at most one option, then drops disabled options. Free text values of options
// that did not survive are discarded.
func Normalize(entry *catalog.Entry, sel Selection) (Selection, []string) {
	next := Selection{FreeText: make(map[string]string)}

	for _, id := range sel.OptionIDs {
		if slices.Contains(next.OptionIDs, id) {
			continue
		}

		_, group, ok := entry.Option(id)
		if ok && group.SelectionType == catalog.SelectionSingle {
			next.OptionIDs = slices.DeleteFunc(next.OptionIDs, func(other string) bool {
				return groupHas(group, other)
			})
		}

		next.OptionIDs = append(next.OptionIDs, id)
	}

	for id, v := range sel.FreeText {
		if _, group, ok := entry.Option(id); ok && group.SelectionType == catalog.SelectionText && slices.Contains(next.OptionIDs, id) {
			next.FreeText[id] = v
		}
	}

	for _, id := range next.OptionIDs {
		if _, group, ok := entry.Option(id); ok && group.SelectionType == catalog.SelectionText {
			if _, has := next.FreeText[id]; !has {
				next.FreeText[id] = ""
			}
		}
	}

	return finish(entry, next)
}

// finish reconciles the option ids and drops free text for options that fell out.
func finish(entry *catalog.Entry, sel Selection) (Selection, []string) {
	r := Reconcile(entry, sel.OptionIDs)
	sel.OptionIDs = r.Valid

	for id := range sel.FreeText {
		if !slices.Contains(sel.OptionIDs, id) {
			delete(sel.FreeText, id)
		}
	}

	return sel, r.Disabled
}

func groupHas(g *catalog.Group, id string) bool {
	return slices.ContainsFunc(g.Options, func(o catalog.Option) bool { return o.ID == id })
}

// Quote is the priced view of a selection.
type Quote struct {
	Selection Selection
	Disabled  []string
	UnitPrice int64
}

// QuoteSelection normalizes a selection and prices it.
func QuoteSelection(entry *catalog.Entry, sel Selection) Quote {
	normalized, disabled := Normalize(entry, sel)

	return Quote{
		Selection: normalized,
		Disabled:  disabled,
		UnitPrice: ComputePrice(entry, normalized.OptionIDs),
	}
}
