package order

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
	"github.com/MrJamesThe3rd/labtrack/internal/pricing"
)

// splitRef splits "0007-3" into ("0007", 7, 3). A reference without a suffix has
// suffix 0. ok is false when the base is not numeric.
func splitRef(ref string) (base string, num, suffix int, ok bool) {
	base, rest, hasSuffix := strings.Cut(strings.TrimSpace(ref), "-")

	n, err := strconv.Atoi(base)
	if err != nil || n < 0 {
		return "", 0, 0, false
	}

	if hasSuffix {
		s, err := strconv.Atoi(rest)
		if err != nil || s < 0 {
			return "", 0, 0, false
		}

		suffix = s
	}

	return base, n, suffix, true
}

// NextSequenceNumber returns the human readable reference for a new order.
//
// A fresh order gets the highest numeric base among existing references plus one, zero
// padded to four digits. A continuation of parent gets the parent's base with the next
// free suffix; the first continuation is "-2".
func NextSequenceNumber(existing []*Order, channel Channel, parent string) (string, error) {
	if channel != ChannelContinuation {
		highest := 0

		for _, o := range existing {
			if _, n, _, ok := splitRef(o.ExternalRef); ok && n > highest {
				highest = n
			}
		}

		return fmt.Sprintf("%04d", highest+1), nil
	}

	parentBase, parentNum, _, ok := splitRef(parent)
	if !ok {
		return "", invalid("parent", fmt.Sprintf("%q is not an order reference", parent))
	}

	highest := 1

	for _, o := range existing {
		if _, n, s, ok := splitRef(o.ExternalRef); ok && n == parentNum && s > highest {
			highest = s
		}
	}

	return fmt.Sprintf("%s-%d", parentBase, highest+1), nil
}

// NewLineItem prices a selection against the catalog entry as it is right now. Later
// catalog edits never change the returned UnitPrice.
func NewLineItem(id uuid.UUID, entry *catalog.Entry, sel pricing.Selection, quantity int, commissionExempt bool) LineItem {
	q := pricing.QuoteSelection(entry, sel)

	return LineItem{
		ID:                id,
		CatalogEntryID:    entry.ID,
		Name:              entry.Name,
		Quantity:          quantity,
		UnitPrice:         q.UnitPrice,
		SelectedOptionIDs: q.Selection.OptionIDs,
		FreeTextValues:    q.Selection.FreeText,
		CommissionExempt:  commissionExempt,
	}
}

// Draft is everything needed to author an order apart from its priced items.
type Draft struct {
	Channel        Channel
	ExternalRef    string
	Parent         string
	PatientRef     string
	CustomerID     string
	CustomerName   string
	Urgency        Urgency
	DueDate        time.Time
	ContainerRef   string
	ContainerColor string
	Notes          string
	InternalNotes  string
	Attachments    []Attachment
}

func (d Draft) validate(items []LineItem) error {
	var errs []error

	if !d.Channel.Valid() {
		errs = append(errs, invalid("channel", fmt.Sprintf("unknown channel %q", d.Channel)))
	}

	if d.Channel == ChannelContinuation && strings.TrimSpace(d.Parent) == "" {
		errs = append(errs, invalid("parent", "required for a continuation"))
	}

	if strings.TrimSpace(d.CustomerID) == "" {
		errs = append(errs, invalid("customer_id", "required"))
	}

	if strings.TrimSpace(d.PatientRef) == "" {
		errs = append(errs, invalid("patient_ref", "required"))
	}

	if d.DueDate.IsZero() {
		errs = append(errs, invalid("due_date", "required"))
	}

	if d.Urgency != "" && !d.Urgency.Valid() {
		errs = append(errs, invalid("urgency", fmt.Sprintf("unknown urgency %q", d.Urgency)))
	}

	if len(items) == 0 {
		errs = append(errs, invalid("items", "at least one line item is required"))
	}

	for i, li := range items {
		if li.Quantity < 1 {
			errs = append(errs, invalid(fmt.Sprintf("items[%d].quantity", i), "must be at least 1"))
		}
	}

	return errors.Join(errs...)
}

func seedAction(d Draft) string {
	switch d.Channel {
	case ChannelContinuation:
		return "Continuation of order " + d.Parent + " created"
	case ChannelIntake:
		return "Order received from web intake"
	}

	return "Order created at front desk"
}

// Build assembles a new order. On invalid input it returns the joined validation errors
// and no order.
func Build(id uuid.UUID, d Draft, items []LineItem, st Stamp) (*Order, error) {
	if err := d.validate(items); err != nil {
		return nil, err
	}

	var total int64
	for _, li := range items {
		total += li.Subtotal()
	}

	status := StatusPending
	if d.Channel == ChannelIntake {
		status = StatusWaitingApproval
	}

	urgency := d.Urgency
	if urgency == "" {
		urgency = UrgencyNormal
	}

	o := &Order{
		ID:             id,
		ExternalRef:    d.ExternalRef,
		PatientRef:     strings.TrimSpace(d.PatientRef),
		CustomerID:     strings.TrimSpace(d.CustomerID),
		CustomerName:   strings.TrimSpace(d.CustomerName),
		Channel:        d.Channel,
		Status:         status,
		Urgency:        urgency,
		CreatedAt:      st.At,
		DueDate:        d.DueDate,
		ContainerRef:   d.ContainerRef,
		ContainerColor: d.ContainerColor,
		TotalValue:     total,
		Notes:          d.Notes,
		InternalNotes:  d.InternalNotes,
	}

	o.Items = append(o.Items, items...)
	o.Attachments = append(o.Attachments, d.Attachments...)
	o.History = o.History.Append(Event{
		ID:        st.EventID,
		At:        st.At,
		Action:    seedAction(d),
		ActorID:   st.Actor.ID,
		ActorName: st.Actor.Name,
	})

	return o, nil
}
