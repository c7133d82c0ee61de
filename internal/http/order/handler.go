package order

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/labtrack/internal/http/respond"
	"github.com/MrJamesThe3rd/labtrack/internal/identity"
	"github.com/MrJamesThe3rd/labtrack/internal/order"
	"github.com/MrJamesThe3rd/labtrack/internal/pricing"
)

type Handler struct {
	svc *order.Service
	now func() time.Time
}

func NewHandler(svc *order.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}/logistics", h.updateLogistics)
	r.Post("/{id}/start", h.start)
	r.Post("/{id}/finalize", h.finalize)
	r.Post("/{id}/reopen", h.reopen)
	r.Post("/{id}/deliver", h.deliver)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
}

func actorFrom(r *http.Request) identity.Actor {
	a, _ := identity.FromContext(r.Context())
	return a
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

type lineRequest struct {
	CatalogEntryID   string            `json:"catalog_entry_id" validate:"required"`
	OptionIDs        []string          `json:"option_ids"`
	FreeText         map[string]string `json:"free_text"`
	Quantity         int               `json:"quantity"`
	CommissionExempt bool              `json:"commission_exempt"`
}

type attachmentRequest struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"omitempty,url"`
}

type createOrderRequest struct {
	Channel        order.Channel       `json:"channel" validate:"required,oneof=front_desk continuation intake"`
	Parent         string              `json:"parent"`
	PatientRef     string              `json:"patient_ref"`
	CustomerID     string              `json:"customer_id"`
	CustomerName   string              `json:"customer_name"`
	Urgency        order.Urgency       `json:"urgency" validate:"omitempty,oneof=normal urgent"`
	DueDate        time.Time           `json:"due_date"`
	ContainerRef   string              `json:"container_ref"`
	ContainerColor string              `json:"container_color"`
	Notes          string              `json:"notes"`
	InternalNotes  string              `json:"internal_notes"`
	Items          []lineRequest       `json:"items" validate:"dive"`
	Attachments    []attachmentRequest `json:"attachments" validate:"dive"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	draft := order.Draft{
		Channel:        req.Channel,
		Parent:         req.Parent,
		PatientRef:     req.PatientRef,
		CustomerID:     req.CustomerID,
		CustomerName:   req.CustomerName,
		Urgency:        req.Urgency,
		DueDate:        req.DueDate,
		ContainerRef:   req.ContainerRef,
		ContainerColor: req.ContainerColor,
		Notes:          req.Notes,
		InternalNotes:  req.InternalNotes,
	}

	for _, a := range req.Attachments {
		draft.Attachments = append(draft.Attachments, order.Attachment{Name: a.Name, URL: a.URL})
	}

	lines := make([]order.LineRequest, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, order.LineRequest{
			CatalogEntryID:   it.CatalogEntryID,
			Selection:        pricing.Selection{OptionIDs: it.OptionIDs, FreeText: it.FreeText},
			Quantity:         it.Quantity,
			CommissionExempt: it.CommissionExempt,
		})
	}

	o, err := h.svc.AddOrder(r.Context(), actorFrom(r), draft, lines)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(o, h.now()))
}

// list supports ?status=a,b&sector=&customer_id=&view=pending|overdue.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := order.Filter{
		Sector:     q.Get("sector"),
		CustomerID: q.Get("customer_id"),
	}

	if s := q.Get("status"); s != "" {
		for st := range strings.SplitSeq(s, ",") {
			status := order.Status(strings.TrimSpace(st))
			if !status.Valid() {
				http.Error(w, "invalid status "+st, http.StatusBadRequest)
				return
			}

			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if s := q.Get("due_before"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.DueBefore = new(t)
		}
	}

	orders, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	now := h.now()

	switch q.Get("view") {
	case "":
	case "pending":
		orders = order.Pending(orders)
	case "overdue":
		orders = order.Overdue(orders, now)
	case "in_sector":
		orders = order.InSector(orders, filter.Sector)
	default:
		http.Error(w, "unknown view", http.StatusBadRequest)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(orders, now))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	o, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(o, h.now()))
}

type logisticsRequest struct {
	DueDate        *time.Time     `json:"due_date,omitempty"`
	Urgency        *order.Urgency `json:"urgency,omitempty" validate:"omitempty,oneof=normal urgent"`
	ContainerRef   *string        `json:"container_ref,omitempty"`
	ContainerColor *string        `json:"container_color,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
	InternalNotes  *string        `json:"internal_notes,omitempty"`
}

func (h *Handler) updateLogistics(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req logisticsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	h.transition(w, func() (*order.Order, error) {
		return h.svc.UpdateLogistics(r.Context(), actorFrom(r), id, order.LogisticsPatch(req))
	})
}

type startRequest struct {
	Sector string `json:"sector"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req startRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	h.transition(w, func() (*order.Order, error) {
		return h.svc.Start(r.Context(), actorFrom(r), id, req.Sector)
	})
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.svc.Finalize)
}

func (h *Handler) reopen(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.svc.Reopen)
}

func (h *Handler) deliver(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.svc.Deliver)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, h.svc.Approve)
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req rejectRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	h.transition(w, func() (*order.Order, error) {
		return h.svc.Reject(r.Context(), actorFrom(r), id, req.Reason)
	})
}

type action func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*order.Order, error)

func (h *Handler) simple(w http.ResponseWriter, r *http.Request, fn action) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	h.transition(w, func() (*order.Order, error) {
		return fn(r.Context(), actorFrom(r), id)
	})
}

func (h *Handler) transition(w http.ResponseWriter, fn func() (*order.Order, error)) {
	o, err := fn()
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(o, h.now()))
}
