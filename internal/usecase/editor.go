package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

// storePrecision is the coarsest timestamp resolution among the stores
// (BSON dates keep milliseconds), so a written lead reads back unchanged.
const storePrecision = time.Millisecond

type EditorMode int

const (
	ModeClosed EditorMode = iota
	ModeCreate
	ModeEdit
)

func (m EditorMode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	}
	return "closed"
}

// LeadEditor is the draft state of the create-or-edit form. It is not
// safe for concurrent use; one editor serves one operator action.
type LeadEditor struct {
	Repo     LeadStore
	Notifier Notifier
	Events   EventPublisher
	Now      Clock
	Log      *zap.Logger

	mode      EditorMode
	original  *entity.Lead
	draft     entity.LeadFormData
	descInput string
	skipDay   bool
}

func NewLeadEditor(repo LeadStore, notifier Notifier, events EventPublisher, now Clock, log *zap.Logger) *LeadEditor {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LeadEditor{
		Repo:     repo,
		Notifier: notifier,
		Events:   events,
		Now:      now,
		Log:      log,
		draft:    entity.EmptyLeadForm(),
	}
}

func (e *LeadEditor) Mode() EditorMode { return e.mode }

func (e *LeadEditor) IsOpen() bool { return e.mode != ModeClosed }

// Draft returns a copy of the current draft.
func (e *LeadEditor) Draft() entity.LeadFormData { return e.draft.Clone() }

// Original is the record being edited, nil in create mode.
func (e *LeadEditor) Original() *entity.Lead {
	if e.original == nil {
		return nil
	}
	cp := *e.original
	cp.LeadFormData = cp.LeadFormData.Clone()
	return &cp
}

func (e *LeadEditor) DescriptionInput() string { return e.descInput }

func (e *LeadEditor) SkipDay() bool { return e.skipDay }

func (e *LeadEditor) OpenCreate() {
	e.reset()
	e.mode = ModeCreate
}

// OpenEdit seeds the draft from lead once. Later snapshots do not touch it.
func (e *LeadEditor) OpenEdit(lead entity.Lead) {
	e.reset()
	e.mode = ModeEdit
	e.original = &lead
	e.original.LeadFormData = lead.LeadFormData.Clone()
	e.draft = lead.Form()
	if e.draft.Descriptions == nil {
		e.draft.Descriptions = entity.Timeline{}
	}
}

// Cancel discards the draft without asking.
func (e *LeadEditor) Cancel() {
	e.reset()
}

func (e *LeadEditor) reset() {
	e.mode = ModeClosed
	e.original = nil
	e.draft = entity.EmptyLeadForm()
	e.descInput = ""
	e.skipDay = false
}

func (e *LeadEditor) SetFullName(v string) { e.draft.FullName = v }
func (e *LeadEditor) SetSource(v entity.Source) { e.draft.Source = v }
func (e *LeadEditor) SetStatus(v entity.Status) { e.draft.Status = v }
func (e *LeadEditor) SetInquiryType(v entity.InquiryType) { e.draft.InquiryType = v }
func (e *LeadEditor) SetClosed(v bool) { e.draft.Closed = v }
func (e *LeadEditor) SetAdvancePayment(v bool) { e.draft.AdvancePayment = v }
func (e *LeadEditor) SetAdditionalDetails(v string) { e.draft.AdditionalDetails = v }
func (e *LeadEditor) SetImportantNotes(v string) { e.draft.ImportantNotes = v }
func (e *LeadEditor) SetDescriptionInput(v string) { e.descInput = v }
func (e *LeadEditor) SetSkipDay(v bool) { e.skipDay = v }

// SetForm replaces every editable field at once.
func (e *LeadEditor) SetForm(f entity.LeadFormData) {
	e.draft = f.Clone()
}

// CanAppend mirrors the enabled state of the add-entry button.
func (e *LeadEditor) CanAppend() bool {
	return e.skipDay || strings.TrimSpace(e.descInput) != ""
}

// AppendDescription stamps the buffered text with today's date and adds
// it to the draft timeline. The buffer and skip flag are cleared.
func (e *LeadEditor) AppendDescription() (entity.DescriptionEntry, error) {
	if !e.IsOpen() {
		return entity.DescriptionEntry{}, ErrEditorClosed
	}
	if !e.CanAppend() {
		return entity.DescriptionEntry{}, ErrEmptyDescription
	}
	entry := entity.NewDescriptionEntry(e.Now(), e.descInput, e.skipDay)
	e.draft.Descriptions = e.draft.Descriptions.Append(entry)
	e.descInput = ""
	e.skipDay = false
	return entry, nil
}

// Submit writes the draft. On failure the editor stays open with the
// draft intact so the operator can retry.
func (e *LeadEditor) Submit(ctx context.Context) (*entity.Lead, error) {
	switch e.mode {
	case ModeCreate:
		return e.create(ctx)
	case ModeEdit:
		return e.update(ctx)
	}
	return nil, ErrEditorClosed
}

func (e *LeadEditor) create(ctx context.Context) (*entity.Lead, error) {
	now := e.Now().UTC().Truncate(storePrecision)
	lead := &entity.Lead{
		LeadFormData: e.draft.Clone(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := e.Repo.Create(ctx, lead); err != nil {
		e.Log.Error("create lead failed", zap.Error(err))
		e.Notifier.Error(MsgSaveFailed)
		return nil, &TechnicalError{Code: "SAVE_FAILED", Message: "failed to create lead", Err: err}
	}

	e.Log.Info("lead created", zap.String("lead_id", lead.ID))
	e.Notifier.Success(MsgLeadCreated)
	e.publish(ctx, newLeadEvent(LeadEventCreated, lead, now))
	e.reset()
	return lead, nil
}

func (e *LeadEditor) update(ctx context.Context) (*entity.Lead, error) {
	now := e.Now().UTC().Truncate(storePrecision)
	if now.Before(e.original.UpdatedAt) {
		now = e.original.UpdatedAt
	}
	lead := &entity.Lead{
		ID:           e.original.ID,
		LeadFormData: e.draft.Clone(),
		CreatedAt:    e.original.CreatedAt,
		UpdatedAt:    now,
	}

	if err := e.Repo.Update(ctx, lead); err != nil {
		e.Log.Error("update lead failed", zap.String("lead_id", lead.ID), zap.Error(err))
		e.Notifier.Error(MsgSaveFailed)
		return nil, &TechnicalError{Code: "SAVE_FAILED", Message: "failed to update lead", Err: err}
	}

	e.Log.Info("lead updated", zap.String("lead_id", lead.ID))
	e.Notifier.Success(MsgLeadUpdated)
	e.publish(ctx, newLeadEvent(LeadEventUpdated, lead, now))
	e.reset()
	return lead, nil
}

// Delete removes a lead after the operator confirms. Without confirmation
// nothing is sent to the store. Deleting the lead under edit closes the editor.
func (e *LeadEditor) Delete(ctx context.Context, id string, c Confirmer) error {
	if c == nil || !c.Confirm(MsgConfirmDelete) {
		return ErrDeleteNotConfirmed
	}

	if err := e.Repo.Delete(ctx, id); err != nil {
		e.Log.Error("delete lead failed", zap.String("lead_id", id), zap.Error(err))
		e.Notifier.Error(MsgDeleteFailed)
		return &TechnicalError{Code: "DELETE_FAILED", Message: "failed to delete lead", Err: err}
	}

	e.Log.Info("lead deleted", zap.String("lead_id", id))
	e.Notifier.Success(MsgLeadDeleted)

	deleted := &entity.Lead{ID: id}
	if e.original != nil && e.original.ID == id {
		deleted = e.original
		e.reset()
	}
	e.publish(ctx, newLeadEvent(LeadEventDeleted, deleted, e.Now().UTC()))
	return nil
}

// DeleteCurrent deletes the lead open in edit mode.
func (e *LeadEditor) DeleteCurrent(ctx context.Context, c Confirmer) error {
	if e.mode != ModeEdit {
		return ErrEditorClosed
	}
	return e.Delete(ctx, e.original.ID, c)
}

func (e *LeadEditor) publish(ctx context.Context, ev LeadEvent) {
	if e.Events == nil {
		return
	}
	if err := e.Events.PublishLeadEvent(ctx, ev); err != nil {
		e.Log.Warn("lead saved but event publish failed",
			zap.String("lead_id", ev.LeadID),
			zap.String("type", string(ev.Type)),
			zap.Error(err))
	}
}
