package usecase

import (
	"strings"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

// All is the neutral value of every facet.
const All = "הכל"

type ClosedFacet string

const (
	ClosedAny  ClosedFacet = All
	ClosedOpen ClosedFacet = "פתוח"
	ClosedOnly ClosedFacet = "סגור"
)

type PaidFacet string

const (
	PaidAny    PaidFacet = All
	PaidOnly   PaidFacet = "שולם"
	UnpaidOnly PaidFacet = "לא שולם"
)

// FilterState holds the six independent facets. An empty facet behaves like All.
type FilterState struct {
	Status  entity.Status      `json:"status"`
	Source  entity.Source      `json:"source"`
	Inquiry entity.InquiryType `json:"inquiry"`
	Closed  ClosedFacet        `json:"closed"`
	Paid    PaidFacet          `json:"paid"`
	Search  string             `json:"search"`
}

// ClearAll returns the neutral state.
func ClearAll() FilterState {
	return FilterState{
		Status:  All,
		Source:  All,
		Inquiry: All,
		Closed:  ClosedAny,
		Paid:    PaidAny,
	}
}

func isAll(v string) bool { return v == "" || v == All }

func (f FilterState) HasActive() bool {
	return !isAll(string(f.Status)) ||
		!isAll(string(f.Source)) ||
		!isAll(string(f.Inquiry)) ||
		!isAll(string(f.Closed)) ||
		!isAll(string(f.Paid)) ||
		f.Search != ""
}

// Matches reports whether lead satisfies every active facet.
func (f FilterState) Matches(lead entity.Lead) bool {
	if !isAll(string(f.Status)) && lead.Status != f.Status {
		return false
	}
	if !isAll(string(f.Source)) && lead.Source != f.Source {
		return false
	}
	if !isAll(string(f.Inquiry)) && lead.InquiryType != f.Inquiry {
		return false
	}
	switch f.Closed {
	case ClosedOpen:
		if lead.Closed {
			return false
		}
	case ClosedOnly:
		if !lead.Closed {
			return false
		}
	}
	switch f.Paid {
	case PaidOnly:
		if !lead.AdvancePayment {
			return false
		}
	case UnpaidOnly:
		if lead.AdvancePayment {
			return false
		}
	}
	if f.Search != "" {
		return strings.Contains(strings.ToLower(lead.FullName), strings.ToLower(f.Search))
	}
	return true
}

// Apply returns the visible subset in the input order. leads is not modified.
func Apply(leads []entity.Lead, f FilterState) []entity.Lead {
	visible := make([]entity.Lead, 0, len(leads))
	for _, l := range leads {
		if f.Matches(l) {
			visible = append(visible, l)
		}
	}
	return visible
}

// Stats are the dashboard counters, always over the full list.
type Stats struct {
	Total    int `json:"total"`
	Closed   int `json:"closed"`
	FollowUp int `json:"followUp"`
	Paid     int `json:"paid"`
}

func ComputeStats(leads []entity.Lead) Stats {
	s := Stats{Total: len(leads)}
	for _, l := range leads {
		if l.Closed {
			s.Closed++
		}
		if l.Status == entity.StatusFollowUp {
			s.FollowUp++
		}
		if l.AdvancePayment {
			s.Paid++
		}
	}
	return s
}

// FilterResult is one evaluation of the engine.
type FilterResult struct {
	Visible          []entity.Lead
	Shown            int
	Total            int
	Stats            Stats
	HasActiveFilters bool
}

func Evaluate(leads []entity.Lead, f FilterState) FilterResult {
	visible := Apply(leads, f)
	return FilterResult{
		Visible:          visible,
		Shown:            len(visible),
		Total:            len(leads),
		Stats:            ComputeStats(leads),
		HasActiveFilters: f.HasActive(),
	}
}
