package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/labtrack/internal/order"
)

type lineItemResponse struct {
	ID                uuid.UUID         `json:"id"`
	CatalogEntryID    string            `json:"catalog_entry_id"`
	Name              string            `json:"name"`
	Quantity          int               `json:"quantity"`
	UnitPrice         int64             `json:"unit_price"`
	SelectedOptionIDs []string          `json:"selected_option_ids"`
	FreeTextValues    map[string]string `json:"free_text_values,omitempty"`
	CommissionExempt  bool              `json:"commission_exempt"`
}

type eventResponse struct {
	ID        uuid.UUID `json:"id"`
	At        time.Time `json:"at"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Sector    string    `json:"sector,omitempty"`
}

type attachmentResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Kind       string    `json:"kind"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type orderResponse struct {
	ID             uuid.UUID            `json:"id"`
	ExternalRef    string               `json:"external_ref"`
	PatientRef     string               `json:"patient_ref"`
	CustomerID     string               `json:"customer_id"`
	CustomerName   string               `json:"customer_name"`
	Channel        order.Channel        `json:"channel"`
	Status         order.Status         `json:"status"`
	Urgency        order.Urgency        `json:"urgency"`
	Items          []lineItemResponse   `json:"items"`
	History        []eventResponse      `json:"history"`
	Attachments    []attachmentResponse `json:"attachments"`
	CreatedAt      time.Time            `json:"created_at"`
	DueDate        time.Time            `json:"due_date"`
	ContainerRef   string               `json:"container_ref,omitempty"`
	ContainerColor string               `json:"container_color,omitempty"`
	CurrentSector  string               `json:"current_sector,omitempty"`
	TotalValue     int64                `json:"total_value"`
	Notes          string               `json:"notes,omitempty"`
	InternalNotes  string               `json:"internal_notes,omitempty"`
	Overdue        bool                 `json:"overdue"`
	UpdatedAt      *time.Time           `json:"updated_at,omitempty"`
}

func toResponse(o *order.Order, now time.Time) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		ExternalRef:    o.ExternalRef,
		PatientRef:     o.PatientRef,
		CustomerID:     o.CustomerID,
		CustomerName:   o.CustomerName,
		Channel:        o.Channel,
		Status:         o.Status,
		Urgency:        o.Urgency,
		Items:          make([]lineItemResponse, 0, len(o.Items)),
		History:        make([]eventResponse, 0, len(o.History)),
		Attachments:    make([]attachmentResponse, 0, len(o.Attachments)),
		CreatedAt:      o.CreatedAt,
		DueDate:        o.DueDate,
		ContainerRef:   o.ContainerRef,
		ContainerColor: o.ContainerColor,
		CurrentSector:  o.CurrentSector,
		TotalValue:     o.TotalValue,
		Notes:          o.Notes,
		InternalNotes:  o.InternalNotes,
		Overdue:        o.Overdue(now),
		UpdatedAt:      o.UpdatedAt,
	}

	for _, li := range o.Items {
		resp.Items = append(resp.Items, lineItemResponse(li))
	}

	for _, e := range o.History {
		resp.History = append(resp.History, eventResponse(e))
	}

	for _, a := range o.Attachments {
		resp.Attachments = append(resp.Attachments, attachmentResponse{
			ID:         a.ID,
			Name:       a.Name,
			URL:        a.URL,
			Kind:       string(a.Kind()),
			UploadedAt: a.UploadedAt,
		})
	}

	return resp
}

func toResponseList(orders []*order.Order, now time.Time) []orderResponse {
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toResponse(o, now))
	}

	return resp
}
