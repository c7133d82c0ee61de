package catalog

import (
	"errors"
	"slices"
)

var ErrNotFound = errors.New("catalog entry not found")

// SelectionType controls how many options of a group can be selected at once.
type SelectionType string

const (
	SelectionSingle   SelectionType = "single"
	SelectionMultiple SelectionType = "multiple"
	SelectionText     SelectionType = "text"
)

// Option is a selectable variation. Prices are in cents.
type Option struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	PriceModifier int64    `json:"price_modifier"`
	Disables      []string `json:"disables,omitempty"`
}

// Group is an ordered set of options sharing a selection type.
type Group struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	SelectionType SelectionType `json:"selection_type"`
	Options       []Option      `json:"options"`
}

// Entry is a purchasable job type.
type Entry struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	BasePrice int64   `json:"base_price"` // Amount in cents
	Groups    []Group `json:"groups"`
}

// Option finds an option anywhere in the entry along with the group that owns it.
func (e *Entry) Option(id string) (*Option, *Group, bool) {
	for gi := range e.Groups {
		g := &e.Groups[gi]
		for oi := range g.Options {
			if g.Options[oi].ID == id {
				return &g.Options[oi], g, true
			}
		}
	}

	return nil, nil, false
}

// Clone returns a deep copy so callers can't alter the catalog's own entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Groups = make([]Group, len(e.Groups))

	for i, g := range e.Groups {
		g.Options = make([]Option, len(e.Groups[i].Options))
		for j, o := range e.Groups[i].Options {
			o.Disables = slices.Clone(o.Disables)
			g.Options[j] = o
		}

		c.Groups[i] = g
	}

	return &c
}
