package scan

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/labtrack/internal/http/respond"
	"github.com/MrJamesThe3rd/labtrack/internal/identity"
	"github.com/MrJamesThe3rd/labtrack/internal/order"
	"github.com/MrJamesThe3rd/labtrack/internal/scan"
)

type Handler struct {
	svc    *order.Service
	gap    time.Duration
	minLen int
}

func NewHandler(svc *order.Service, gap time.Duration, minLen int) *Handler {
	return &Handler{svc: svc, gap: gap, minLen: minLen}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/keys", h.keys)
	r.Post("/prepare", h.prepare)
	r.Post("/confirm", h.confirm)
}

type keyEvent struct {
	Kind string    `json:"kind" validate:"required,oneof=char enter control"`
	Char string    `json:"char"`
	At   time.Time `json:"at" validate:"required"`
}

type keysRequest struct {
	Events []keyEvent `json:"events" validate:"required,dive"`
}

type tokenResponse struct {
	Code string    `json:"code"`
	At   time.Time `json:"at"`
	// Index of the terminator event whose default action the client must suppress.
	Index int `json:"index"`
}

// keys replays captured keystrokes through a fresh classifier and returns the scans
// it recognized.
func (h *Handler) keys(w http.ResponseWriter, r *http.Request) {
	var req keysRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	c := scan.New(h.gap, h.minLen)
	tokens := make([]tokenResponse, 0)

	for i, ke := range req.Events {
		ev := scan.Event{At: ke.At}

		switch ke.Kind {
		case "char":
			runes := []rune(ke.Char)
			if len(runes) != 1 {
				http.Error(w, "char events carry exactly one character", http.StatusBadRequest)
				return
			}

			ev.Kind, ev.Char = scan.KindChar, runes[0]
		case "enter":
			ev.Kind = scan.KindTerminator
		default:
			ev.Kind = scan.KindControl
		}

		if tok, ok := c.Feed(ev); ok {
			tokens = append(tokens, tokenResponse{Code: tok.Code, At: tok.At, Index: i})
		}
	}

	respond.JSON(w, http.StatusOK, tokens)
}

type prepareRequest struct {
	Code string `json:"code" validate:"required"`
}

type planResponse struct {
	OrderID       uuid.UUID      `json:"order_id"`
	ExternalRef   string         `json:"external_ref"`
	CustomerName  string         `json:"customer_name"`
	Status        order.Status   `json:"status"`
	CurrentSector string         `json:"current_sector,omitempty"`
	Kind          order.ScanKind `json:"kind"`
	Sector        string         `json:"sector,omitempty"`
}

// prepare classifies a scan without recording it.
func (h *Handler) prepare(w http.ResponseWriter, r *http.Request) {
	var req prepareRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	actor, _ := identity.FromContext(r.Context())

	plan, err := h.svc.PrepareScan(r.Context(), actor, req.Code)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, planResponse{
		OrderID:       plan.Order.ID,
		ExternalRef:   plan.Order.ExternalRef,
		CustomerName:  plan.Order.CustomerName,
		Status:        plan.Order.Status,
		CurrentSector: plan.Order.CurrentSector,
		Kind:          plan.Kind,
		Sector:        plan.Sector,
	})
}

type confirmRequest struct {
	OrderID uuid.UUID      `json:"order_id" validate:"required"`
	Kind    order.ScanKind `json:"kind" validate:"required,oneof=entry exit tracking"`
}

type confirmResponse struct {
	OrderID       uuid.UUID    `json:"order_id"`
	Status        order.Status `json:"status"`
	CurrentSector string       `json:"current_sector,omitempty"`
	Action        string       `json:"action"`
}

// confirm records a scan the operator accepted.
func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	actor, _ := identity.FromContext(r.Context())

	o, err := h.svc.ConfirmScan(r.Context(), actor, order.ScanPlan{
		Order:  &order.Order{ID: req.OrderID},
		Kind:   req.Kind,
		Sector: actor.Sector,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}

	last, _ := o.History.Last()

	respond.JSON(w, http.StatusOK, confirmResponse{
		OrderID:       o.ID,
		Status:        o.Status,
		CurrentSector: o.CurrentSector,
		Action:        last.Action,
	})
}
