package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xavierca1/beauty-leads/internal/entity"
	"github.com/xavierca1/beauty-leads/internal/infra/http/middleware"
	"github.com/xavierca1/beauty-leads/internal/usecase"
)

const maxBodyBytes = 1 << 20

type LeadHandler struct {
	Store    usecase.LeadStore
	Cache    *usecase.LeadCache
	Events   usecase.EventPublisher
	Validate *validator.Validate
	Now      usecase.Clock
	Log      *zap.Logger
}

func NewLeadHandler(store usecase.LeadStore, cache *usecase.LeadCache, events usecase.EventPublisher, v *validator.Validate, log *zap.Logger) *LeadHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LeadHandler{Store: store, Cache: cache, Events: events, Validate: v, Log: log}
}

// DescriptionRequest is one timeline entry sent with a new lead. The server
// stamps the date; entries go through the same rule as AppendDescription.
type DescriptionRequest struct {
	Text    string `json:"text" validate:"max=5000"`
	Skipped bool   `json:"skipped"`
}

// LeadRequest is the body of create. Later entries go through
// AppendDescription.
type LeadRequest struct {
	FullName          string               `json:"fullName" validate:"max=200"`
	Source            string               `json:"source" validate:"required,lead_source"`
	Status            string               `json:"status" validate:"required,lead_status"`
	InquiryType       string               `json:"inquiryType" validate:"required,lead_inquiry"`
	Closed            bool                 `json:"closed"`
	AdvancePayment    bool                 `json:"advancePayment"`
	AdditionalDetails string               `json:"additionalDetails" validate:"max=5000"`
	ImportantNotes    string               `json:"importantNotes" validate:"max=5000"`
	Descriptions      []DescriptionRequest `json:"descriptions" validate:"omitempty,dive"`
}

func (r LeadRequest) form(timeline entity.Timeline) entity.LeadFormData {
	return entity.LeadFormData{
		FullName:          r.FullName,
		Source:            entity.Source(r.Source),
		Status:            entity.Status(r.Status),
		InquiryType:       entity.InquiryType(r.InquiryType),
		Closed:            r.Closed,
		AdvancePayment:    r.AdvancePayment,
		AdditionalDetails: r.AdditionalDetails,
		ImportantNotes:    r.ImportantNotes,
		Descriptions:      timeline,
	}
}

// UpdateLeadRequest is the body of update. Descriptions may echo the stored
// timeline back, but it cannot change it.
type UpdateLeadRequest struct {
	LeadRequest
	Descriptions *entity.Timeline `json:"descriptions,omitempty"`
}

type AppendDescriptionRequest struct {
	Text    string `json:"text" validate:"max=5000"`
	Skipped bool   `json:"skipped"`
}

func (h *LeadHandler) editor(n usecase.Notifier) *usecase.LeadEditor {
	return usecase.NewLeadEditor(h.Store, n, h.Events, h.Now, h.Log)
}

func (h *LeadHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

// List (GET /api/leads) filters the latest snapshot.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, errs := usecase.ParseFilterState(r.URL.Query())
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "VALIDATION_ERROR",
			Fields: fieldErrors(errs),
		})
		return
	}

	leads, stale, ok := h.snapshot(r)
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "LOAD_FAILED",
			Message: usecase.MsgLoadFailed,
			Toasts:  []Toast{{Kind: ToastError, Message: usecase.MsgLoadFailed}},
		})
		return
	}

	resp := newListResponse(usecase.Evaluate(leads, filter))
	if stale {
		resp.Toasts = []Toast{{Kind: ToastError, Message: usecase.MsgLoadFailed}}
	}
	writeJSON(w, http.StatusOK, resp)
}

// snapshot serves the cache when it has loaded and reads the store otherwise.
// stale is true when the cache lost its subscription and the list is frozen.
func (h *LeadHandler) snapshot(r *http.Request) (leads []entity.Lead, stale, ok bool) {
	if h.Cache != nil {
		if leads, ok := h.Cache.Snapshot(); ok {
			return leads, h.Cache.Err() != nil, true
		}
	}
	leads, err := h.Store.List(r.Context())
	if err != nil {
		h.Log.Error("list leads failed", zap.Error(err))
		return nil, false, false
	}
	return leads, false, true
}

func fieldErrors(errs []usecase.ValidationError) []map[string]string {
	out := make([]map[string]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, map[string]string{e.Field: e.Message})
	}
	return out
}

// Get (GET /api/leads/{id}) reads the store directly so a fresh edit form
// never starts from a stale snapshot.
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Store.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, h.Log, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, LeadResponse{Lead: newLeadView(*lead)})
}

// Create (POST /api/leads)
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req LeadRequest
	if !h.decode(w, r, &req) {
		return
	}

	toasts := &toastCollector{}
	ed := h.editor(toasts)
	ed.OpenCreate()
	ed.SetForm(req.form(entity.Timeline{}))
	for _, d := range req.Descriptions {
		ed.SetDescriptionInput(d.Text)
		ed.SetSkipDay(d.Skipped)
		if _, err := ed.AppendDescription(); err != nil {
			writeUsecaseError(w, h.Log, err, nil)
			return
		}
	}

	lead, err := ed.Submit(r.Context())
	middleware.RecordLeadWrite("create", err)
	if err != nil {
		writeUsecaseError(w, h.Log, err, toasts.All())
		return
	}
	writeJSON(w, http.StatusCreated, LeadResponse{Lead: newLeadView(*lead), Toasts: toasts.All()})
}

// Update (PUT /api/leads/{id}) overwrites the editable fields and keeps
// the stored timeline. A body whose descriptions differ from it is rejected.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateLeadRequest
	if !h.decode(w, r, &req) {
		return
	}

	current, err := h.Store.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, h.Log, err, nil)
		return
	}
	if req.Descriptions != nil && !req.Descriptions.Equal(current.Descriptions) {
		writeUsecaseError(w, h.Log, usecase.ErrTimelineReadOnly, nil)
		return
	}

	toasts := &toastCollector{}
	ed := h.editor(toasts)
	ed.OpenEdit(*current)
	ed.SetForm(req.form(current.Descriptions))

	lead, err := ed.Submit(r.Context())
	middleware.RecordLeadWrite("update", err)
	if err != nil {
		writeUsecaseError(w, h.Log, err, toasts.All())
		return
	}
	writeJSON(w, http.StatusOK, LeadResponse{Lead: newLeadView(*lead), Toasts: toasts.All()})
}

// AppendDescription (POST /api/leads/{id}/descriptions) stamps one
// timeline entry with today's date and saves the lead.
func (h *LeadHandler) AppendDescription(w http.ResponseWriter, r *http.Request) {
	var req AppendDescriptionRequest
	if !h.decode(w, r, &req) {
		return
	}

	current, err := h.Store.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, h.Log, err, nil)
		return
	}

	toasts := &toastCollector{}
	ed := h.editor(toasts)
	ed.OpenEdit(*current)
	ed.SetDescriptionInput(req.Text)
	ed.SetSkipDay(req.Skipped)
	if _, err := ed.AppendDescription(); err != nil {
		writeUsecaseError(w, h.Log, err, nil)
		return
	}

	lead, err := ed.Submit(r.Context())
	middleware.RecordLeadWrite("update", err)
	if err != nil {
		writeUsecaseError(w, h.Log, err, toasts.All())
		return
	}
	writeJSON(w, http.StatusOK, LeadResponse{Lead: newLeadView(*lead), Toasts: toasts.All()})
}

// Delete (DELETE /api/leads/{id}) requires the confirm header or query flag.
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	toasts := &toastCollector{}
	ed := h.editor(toasts)

	err := ed.Delete(r.Context(), chi.URLParam(r, "id"), requestConfirmer{r: r})
	if !errors.Is(err, usecase.ErrDeleteNotConfirmed) {
		middleware.RecordLeadWrite("delete", err)
	}
	if err != nil {
		writeUsecaseError(w, h.Log, err, toasts.All())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "toasts": toasts.All()})
}
