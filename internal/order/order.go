package order

import (
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusWaitingApproval Status = "waiting_approval"
	StatusPending         Status = "pending"
	StatusInProgress      Status = "in_progress"
	StatusCompleted       Status = "completed"
	StatusDelivered       Status = "delivered"
	StatusRejected        Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaitingApproval, StatusPending, StatusInProgress, StatusCompleted, StatusDelivered, StatusRejected:
		return true
	}

	return false
}

// Terminal reports whether the status normally ends the order's life. Nothing enforces
// it: a terminal order can still be reopened.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusDelivered || s == StatusRejected
}

type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyUrgent Urgency = "urgent"
)

func (u Urgency) Valid() bool {
	return u == UrgencyNormal || u == UrgencyUrgent
}

// Channel is how an order entered the lab.
type Channel string

const (
	ChannelFrontDesk    Channel = "front_desk"
	ChannelContinuation Channel = "continuation"
	ChannelIntake       Channel = "intake"
)

func (c Channel) Valid() bool {
	return c == ChannelFrontDesk || c == ChannelContinuation || c == ChannelIntake
}

// LineItem is a priced job. UnitPrice is frozen when the item is created.
type LineItem struct {
	ID                uuid.UUID         `json:"id"`
	CatalogEntryID    string            `json:"catalog_entry_id"`
	Name              string            `json:"name"`
	Quantity          int               `json:"quantity"`
	UnitPrice         int64             `json:"unit_price"` // Amount in cents
	SelectedOptionIDs []string          `json:"selected_option_ids"`
	FreeTextValues    map[string]string `json:"free_text_values,omitempty"`
	CommissionExempt  bool              `json:"commission_exempt"`
}

func (li LineItem) Subtotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// Event is an immutable history record.
type Event struct {
	ID        uuid.UUID `json:"id"`
	At        time.Time `json:"at"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Sector    string    `json:"sector,omitempty"`
}

type AttachmentKind string

const (
	KindMesh     AttachmentKind = "mesh"
	KindImage    AttachmentKind = "image"
	KindDocument AttachmentKind = "document"
	KindOther    AttachmentKind = "other"
)

// Attachment is opaque file metadata. Contents live in an external store.
type Attachment struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Kind classifies the attachment by filename extension.
func (a Attachment) Kind() AttachmentKind {
	switch strings.ToLower(filepath.Ext(a.Name)) {
	case ".stl", ".ply", ".obj":
		return KindMesh
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic":
		return KindImage
	case ".pdf", ".doc", ".docx", ".txt":
		return KindDocument
	}

	return KindOther
}

// Order represents a work order moving through the workshop.
type Order struct {
	ID             uuid.UUID
	ExternalRef    string
	PatientRef     string
	CustomerID     string
	CustomerName   string
	Channel        Channel
	Status         Status
	Urgency        Urgency
	Items          []LineItem
	History        History
	Attachments    []Attachment
	CreatedAt      time.Time
	DueDate        time.Time
	ContainerRef   string
	ContainerColor string
	CurrentSector  string
	TotalValue     int64 // Amount in cents
	Notes          string
	InternalNotes  string
	UpdatedAt      *time.Time
}

// Clone returns a deep copy. Transitions work on clones so the caller's snapshot stays
// valid if persisting the next one fails.
func (o *Order) Clone() *Order {
	c := *o

	c.Items = make([]LineItem, len(o.Items))
	for i, li := range o.Items {
		li.SelectedOptionIDs = slices.Clone(li.SelectedOptionIDs)
		li.FreeTextValues = maps.Clone(li.FreeTextValues)
		c.Items[i] = li
	}

	c.History = slices.Clone(o.History)
	c.Attachments = slices.Clone(o.Attachments)

	if o.UpdatedAt != nil {
		c.UpdatedAt = new(*o.UpdatedAt)
	}

	return &c
}

// Overdue reports whether the order is past its due date and still in the lab.
func (o *Order) Overdue(now time.Time) bool {
	if o.DueDate.IsZero() {
		return false
	}

	switch o.Status {
	case StatusCompleted, StatusDelivered, StatusRejected:
		return false
	}

	return now.After(o.DueDate)
}
