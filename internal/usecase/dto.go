package usecase

import (
	"time"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

type LeadEventType string

const (
	LeadEventCreated LeadEventType = "created"
	LeadEventUpdated LeadEventType = "updated"
	LeadEventDeleted LeadEventType = "deleted"
)

// LeadEvent is published after every successful write.
type LeadEvent struct {
	Type        LeadEventType      `json:"type"`
	LeadID      string             `json:"lead_id"`
	FullName    string             `json:"full_name,omitempty"`
	Source      entity.Source      `json:"source,omitempty"`
	Status      entity.Status      `json:"status,omitempty"`
	InquiryType entity.InquiryType `json:"inquiry_type,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

func newLeadEvent(t LeadEventType, lead *entity.Lead, at time.Time) LeadEvent {
	ev := LeadEvent{Type: t, OccurredAt: at}
	if lead != nil {
		ev.LeadID = lead.ID
		ev.FullName = lead.FullName
		ev.Source = lead.Source
		ev.Status = lead.Status
		ev.InquiryType = lead.InquiryType
		ev.Notes = lead.ImportantNotes
	}
	return ev
}
