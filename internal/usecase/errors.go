package usecase

import "errors"

var (
	ErrEditorClosed       = errors.New("editor is not open")
	ErrEmptyDescription   = errors.New("description text is empty")
	ErrDeleteNotConfirmed = errors.New("delete was not confirmed")
)

// DomainError is a problem with the caller's input.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// ErrTimelineReadOnly rejects an update that tries to rewrite stored entries.
var ErrTimelineReadOnly = &DomainError{Code: "TIMELINE_READ_ONLY", Message: "timeline is append-only"}

// TechnicalError is a failure of the store or another collaborator.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}
