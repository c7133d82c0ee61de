package export

import (
	"time"

	"github.com/MrJamesThe3rd/labtrack/internal/order"
)

// Projection is every field of an order as plain data. Amounts are formatted strings
// next to their cent values so renderers never do arithmetic.
type Projection struct {
	ID             string              `json:"id"`
	Reference      string              `json:"reference"`
	PatientRef     string              `json:"patient_ref"`
	CustomerID     string              `json:"customer_id"`
	CustomerName   string              `json:"customer_name"`
	Channel        string              `json:"channel"`
	Status         string              `json:"status"`
	Urgency        string              `json:"urgency"`
	CreatedAt      time.Time           `json:"created_at"`
	DueDate        time.Time           `json:"due_date"`
	ContainerRef   string              `json:"container_ref,omitempty"`
	ContainerColor string              `json:"container_color,omitempty"`
	CurrentSector  string              `json:"current_sector,omitempty"`
	TotalCents     int64               `json:"total_cents"`
	Total          string              `json:"total"`
	Notes          string              `json:"notes,omitempty"`
	InternalNotes  string              `json:"internal_notes,omitempty"`
	Items          []ItemProjection    `json:"items"`
	History        []EventProjection   `json:"history"`
	Attachments    []AttachmentSummary `json:"attachments"`
}

type ItemProjection struct {
	CatalogEntryID   string            `json:"catalog_entry_id"`
	Name             string            `json:"name"`
	Quantity         int               `json:"quantity"`
	UnitPriceCents   int64             `json:"unit_price_cents"`
	UnitPrice        string            `json:"unit_price"`
	Subtotal         string            `json:"subtotal"`
	Options          []string          `json:"options"`
	FreeText         map[string]string `json:"free_text,omitempty"`
	CommissionExempt bool              `json:"commission_exempt"`
}

type EventProjection struct {
	At     time.Time `json:"at"`
	Action string    `json:"action"`
	Actor  string    `json:"actor"`
	Sector string    `json:"sector,omitempty"`
}

type AttachmentSummary struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Kind       string    `json:"kind"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func Project(o *order.Order) Projection {
	p := Projection{
		ID:             o.ID.String(),
		Reference:      o.ExternalRef,
		PatientRef:     o.PatientRef,
		CustomerID:     o.CustomerID,
		CustomerName:   o.CustomerName,
		Channel:        string(o.Channel),
		Status:         string(o.Status),
		Urgency:        string(o.Urgency),
		CreatedAt:      o.CreatedAt,
		DueDate:        o.DueDate,
		ContainerRef:   o.ContainerRef,
		ContainerColor: o.ContainerColor,
		CurrentSector:  o.CurrentSector,
		TotalCents:     o.TotalValue,
		Total:          money(o.TotalValue),
		Notes:          o.Notes,
		InternalNotes:  o.InternalNotes,
		Items:          make([]ItemProjection, 0, len(o.Items)),
		History:        make([]EventProjection, 0, len(o.History)),
		Attachments:    make([]AttachmentSummary, 0, len(o.Attachments)),
	}

	for _, li := range o.Items {
		options := li.SelectedOptionIDs
		if options == nil {
			options = []string{}
		}

		p.Items = append(p.Items, ItemProjection{
			CatalogEntryID:   li.CatalogEntryID,
			Name:             li.Name,
			Quantity:         li.Quantity,
			UnitPriceCents:   li.UnitPrice,
			UnitPrice:        money(li.UnitPrice),
			Subtotal:         money(li.Subtotal()),
			Options:          options,
			FreeText:         li.FreeTextValues,
			CommissionExempt: li.CommissionExempt,
		})
	}

	for _, e := range o.History {
		p.History = append(p.History, EventProjection{At: e.At, Action: e.Action, Actor: e.ActorName, Sector: e.Sector})
	}

	for _, a := range o.Attachments {
		p.Attachments = append(p.Attachments, AttachmentSummary{
			Name:       a.Name,
			URL:        a.URL,
			Kind:       string(a.Kind()),
			UploadedAt: a.UploadedAt,
		})
	}

	return p
}
