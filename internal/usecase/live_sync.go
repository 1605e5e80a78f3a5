package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

var ErrFeedClosed = errors.New("change feed closed unexpectedly")

// LiveCollection turns a store plus its change feed into a stream of
// full-list snapshots ordered by CreatedAt descending.
type LiveCollection struct {
	Repo    LeadStore
	Watcher entity.LeadWatcher
	Log     *zap.Logger
}

func NewLiveCollection(repo LeadStore, watcher entity.LeadWatcher, log *zap.Logger) *LiveCollection {
	if log == nil {
		log = zap.NewNop()
	}
	return &LiveCollection{Repo: repo, Watcher: watcher, Log: log}
}

// Subscription is one standing subscription. Snapshots is closed when the
// subscription ends, either by Close or by a terminal error reported by Err.
// A failed subscription is not retried; subscribe again to restart.
type Subscription struct {
	out    chan []entity.Lead
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Subscribe starts delivering snapshots: one for the initial load, then one
// per change notification. A snapshot the consumer has not picked up yet is
// replaced by the newer one. notifier receives the load-failure toast.
func (c *LiveCollection) Subscribe(ctx context.Context, notifier Notifier) *Subscription {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		out:    make(chan []entity.Lead, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx, c, notifier)
	return s
}

func (s *Subscription) Snapshots() <-chan []entity.Lead { return s.out }

// Done is closed once the subscription has fully stopped.
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears the subscription down and waits for it. Safe to call twice.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

func (s *Subscription) run(ctx context.Context, c *LiveCollection, notifier Notifier) {
	defer close(s.done)
	defer close(s.out)
	defer s.cancel()

	stream, err := c.Watcher.Watch(ctx)
	if err != nil {
		s.fail(c.Log, notifier, fmt.Errorf("open change feed: %w", err))
		return
	}
	defer stream.Close()

	if !s.publish(ctx, c, notifier) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-stream.Changes():
			if !ok {
				if ctx.Err() != nil {
					return
				}
				err := stream.Err()
				if err == nil {
					err = ErrFeedClosed
				}
				s.fail(c.Log, notifier, err)
				return
			}
			drain(stream.Changes())
			if !s.publish(ctx, c, notifier) {
				return
			}
		}
	}
}

// drain swallows notifications that queued up while a list was running;
// the next List covers them.
func drain(ch <-chan entity.LeadChange) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (s *Subscription) publish(ctx context.Context, c *LiveCollection, notifier Notifier) bool {
	leads, err := c.Repo.List(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.fail(c.Log, notifier, fmt.Errorf("list leads: %w", err))
		return false
	}
	if leads == nil {
		leads = []entity.Lead{}
	}

	select {
	case s.out <- leads:
	default:
		// Replace the stale snapshot; this goroutine is the only sender.
		select {
		case <-s.out:
		default:
		}
		s.out <- leads
	}
	return true
}

func (s *Subscription) fail(log *zap.Logger, notifier Notifier, err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()

	log.Error("lead subscription failed", zap.Error(err))
	notifier.Error(MsgLoadFailed)
}
