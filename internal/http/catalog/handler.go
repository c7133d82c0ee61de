package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
	"github.com/MrJamesThe3rd/labtrack/internal/catalog/pricelist"
	"github.com/MrJamesThe3rd/labtrack/internal/http/respond"
	"github.com/MrJamesThe3rd/labtrack/internal/pricing"
)

const maxUploadSize = 10 << 20

type Handler struct {
	svc    *catalog.Service
	parser catalog.Parser
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc, parser: pricelist.NewParser()}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/import", h.importPriceList)
	r.Get("/{id}", h.get)
	r.Post("/{id}/quote", h.quote)
	r.Post("/{id}/toggle", h.toggle)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}

	if entries == nil {
		entries = []*catalog.Entry{}
	}

	respond.JSON(w, http.StatusOK, entries)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, entry)
}

type selectionRequest struct {
	OptionIDs []string          `json:"option_ids"`
	FreeText  map[string]string `json:"free_text,omitempty"`
}

func (s selectionRequest) selection() pricing.Selection {
	return pricing.Selection{OptionIDs: s.OptionIDs, FreeText: s.FreeText}
}

type quoteResponse struct {
	OptionIDs        []string          `json:"option_ids"`
	FreeText         map[string]string `json:"free_text,omitempty"`
	Valid            bool              `json:"valid"`
	Disabled         []string          `json:"disabled"`
	UnitPrice        int64             `json:"unit_price"`
	UnitPriceDisplay string            `json:"unit_price_display"`
}

func toQuoteResponse(requested []string, q pricing.Quote) quoteResponse {
	return quoteResponse{
		OptionIDs:        q.Selection.OptionIDs,
		FreeText:         q.Selection.FreeText,
		Valid:            len(q.Selection.OptionIDs) == len(requested),
		Disabled:         q.Disabled,
		UnitPrice:        q.UnitPrice,
		UnitPriceDisplay: catalog.FormatAmount(q.UnitPrice),
	}
}

// quote normalizes a selection and prices it. valid is false when any requested option
// had to be dropped.
func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	var req selectionRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	q := pricing.QuoteSelection(entry, req.selection())

	respond.JSON(w, http.StatusOK, toQuoteResponse(req.OptionIDs, q))
}

type toggleRequest struct {
	Selection selectionRequest `json:"selection"`
	OptionID  string           `json:"option_id" validate:"required"`
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	var req toggleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	if _, _, ok := entry.Option(req.OptionID); !ok {
		http.Error(w, "unknown option "+req.OptionID, http.StatusBadRequest)
		return
	}

	sel, _ := pricing.Toggle(entry, req.Selection.selection(), req.OptionID)
	q := pricing.QuoteSelection(entry, sel)

	respond.JSON(w, http.StatusOK, toQuoteResponse(sel.OptionIDs, q))
}

type importResponse struct {
	Imported int              `json:"imported"`
	Entries  []*catalog.Entry `json:"entries"`
}

func (h *Handler) importPriceList(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large or invalid form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	entries, err := h.svc.Import(r.Context(), h.parser, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	respond.JSON(w, http.StatusCreated, importResponse{Imported: len(entries), Entries: entries})
}
