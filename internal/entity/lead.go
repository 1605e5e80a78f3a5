package entity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLeadNotFound = errors.New("lead not found")
	ErrUnknownValue = errors.New("unknown enumerated value")
)

// UnnamedLead is shown in place of an empty full name.
const UnnamedLead = "ללא שם"

const notePreviewRunes = 50

// LeadFormData holds every field the editor may change.
type LeadFormData struct {
	FullName          string      `json:"fullName"`
	Source            Source      `json:"source"`
	Status            Status      `json:"status"`
	InquiryType       InquiryType `json:"inquiryType"`
	Closed            bool        `json:"closed"`
	AdvancePayment    bool        `json:"advancePayment"`
	AdditionalDetails string      `json:"additionalDetails"`
	ImportantNotes    string      `json:"importantNotes"`
	Descriptions      Timeline    `json:"descriptions"`
}

// EmptyLeadForm is the template a new lead starts from.
func EmptyLeadForm() LeadFormData {
	return LeadFormData{
		Source:       SourceInstagram,
		Status:       StatusNew,
		InquiryType:  InquiryBridalFull,
		Descriptions: Timeline{},
	}
}

// Clone returns a copy that shares nothing mutable with f.
func (f LeadFormData) Clone() LeadFormData {
	f.Descriptions = f.Descriptions.Clone()
	return f
}

// Lead is a prospective client. ID is assigned by the store; the
// timestamps are written by the application.
type Lead struct {
	ID string `json:"id"`
	LeadFormData
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Form returns a detached copy of the editable fields.
func (l Lead) Form() LeadFormData {
	return l.LeadFormData.Clone()
}

func (l Lead) DisplayName() string {
	if l.FullName == "" {
		return UnnamedLead
	}
	return l.FullName
}

// NotePreview is the card excerpt of ImportantNotes.
func (l Lead) NotePreview() string {
	r := []rune(l.ImportantNotes)
	if len(r) <= notePreviewRunes {
		return l.ImportantNotes
	}
	return string(r[:notePreviewRunes]) + "..."
}

type ChangeOp string

const (
	ChangeCreated ChangeOp = "created"
	ChangeUpdated ChangeOp = "updated"
	ChangeDeleted ChangeOp = "deleted"
	// ChangeResync means notifications may have been missed.
	ChangeResync ChangeOp = "resync"
)

// LeadChange signals that the collection changed. Consumers re-read the whole list.
type LeadChange struct {
	Op     ChangeOp
	LeadID string
}

type LeadRepositoryInterface interface {
	// Create stores a new lead and writes the assigned id into lead.ID.
	Create(ctx context.Context, lead *Lead) error
	// Update overwrites the editable fields and UpdatedAt. CreatedAt is left alone.
	Update(ctx context.Context, lead *Lead) error
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	// List returns every lead, newest CreatedAt first.
	List(ctx context.Context) ([]Lead, error)
}

// LeadChangeStream is an open change feed. Changes is closed when the
// feed ends; Err then reports why (nil after Close).
type LeadChangeStream interface {
	Changes() <-chan LeadChange
	Err() error
	Close()
}

type LeadWatcher interface {
	// Watch opens the feed before returning, so no change committed after
	// Watch returns is missed.
	Watch(ctx context.Context) (LeadChangeStream, error)
}
