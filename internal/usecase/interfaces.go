package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

// Notifier is the fire-and-forget toast surface.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

type EventPublisher interface {
	PublishLeadEvent(ctx context.Context, event LeadEvent) error
}

// Clock returns the current time.
type Clock func() time.Time

type LeadStore = entity.LeadRepositoryInterface

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }
