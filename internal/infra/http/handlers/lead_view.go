package handlers

import (
	"time"

	"github.com/xavierca1/beauty-leads/internal/entity"
	"github.com/xavierca1/beauty-leads/internal/usecase"
)

// LeadView is a lead as the dashboard shows it: the stored fields plus
// display helpers and ASCII slugs for styling.
type LeadView struct {
	ID string `json:"id"`
	entity.LeadFormData
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	DisplayName  string `json:"displayName"`
	NotePreview  string `json:"notePreview,omitempty"`
	SourceSlug   string `json:"sourceSlug"`
	StatusSlug   string `json:"statusSlug"`
	InquirySlug  string `json:"inquirySlug"`
	EntriesCount int    `json:"entriesCount"`
}

func newLeadView(l entity.Lead) LeadView {
	return LeadView{
		ID:           l.ID,
		LeadFormData: l.Form(),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
		DisplayName:  l.DisplayName(),
		NotePreview:  l.NotePreview(),
		SourceSlug:   l.Source.Slug(),
		StatusSlug:   l.Status.Slug(),
		InquirySlug:  l.InquiryType.Slug(),
		EntriesCount: l.Descriptions.Len(),
	}
}

func newLeadViews(leads []entity.Lead) []LeadView {
	out := make([]LeadView, 0, len(leads))
	for _, l := range leads {
		out = append(out, newLeadView(l))
	}
	return out
}

// ListResponse is the filtered dashboard view.
type ListResponse struct {
	Leads            []LeadView    `json:"leads"`
	Shown            int           `json:"shown"`
	Total            int           `json:"total"`
	Stats            usecase.Stats `json:"stats"`
	HasActiveFilters bool          `json:"hasActiveFilters"`
	Toasts           []Toast       `json:"toasts,omitempty"`
}

func newListResponse(res usecase.FilterResult) ListResponse {
	return ListResponse{
		Leads:            newLeadViews(res.Visible),
		Shown:            res.Shown,
		Total:            res.Total,
		Stats:            res.Stats,
		HasActiveFilters: res.HasActiveFilters,
	}
}

type LeadResponse struct {
	Lead   LeadView `json:"lead"`
	Toasts []Toast  `json:"toasts,omitempty"`
}
