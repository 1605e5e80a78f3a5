package database

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

const (
	minReconnect = 2 * time.Second
	maxReconnect = time.Minute
)

// LeadWatcher opens a LISTEN connection per feed on ChangeChannel.
type LeadWatcher struct {
	ConnString string
	Log        *zap.Logger
}

func NewLeadWatcher(connString string, log *zap.Logger) *LeadWatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &LeadWatcher{ConnString: connString, Log: log}
}

func (w *LeadWatcher) Watch(ctx context.Context) (entity.LeadChangeStream, error) {
	fatal := make(chan error, 1)
	listener := pq.NewListener(w.ConnString, minReconnect, maxReconnect, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed:
			select {
			case fatal <- fmt.Errorf("listener reconnect failed: %w", err):
			default:
			}
		case pq.ListenerEventDisconnected:
			w.Log.Warn("lead listener disconnected", zap.Error(err))
		case pq.ListenerEventReconnected:
			w.Log.Info("lead listener reconnected")
		}
	})

	if err := listener.Listen(ChangeChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", ChangeChannel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	st := &pgStream{
		ch:     make(chan entity.LeadChange, 64),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go st.run(ctx, listener, fatal, w.Log)
	return st, nil
}

type pgStream struct {
	ch     chan entity.LeadChange
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func (s *pgStream) Changes() <-chan entity.LeadChange { return s.ch }

func (s *pgStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *pgStream) Close() {
	s.cancel()
	<-s.done
}

func (s *pgStream) run(ctx context.Context, l *pq.Listener, fatal <-chan error, log *zap.Logger) {
	defer close(s.done)
	defer close(s.ch)
	defer l.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-fatal:
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		case n := <-l.Notify:
			change := parseNotification(n)
			if change.Op == entity.ChangeResync {
				log.Debug("lead listener resync")
			}
			select {
			case s.ch <- change:
			case <-ctx.Done():
				return
			}
		}
	}
}

// parseNotification reads an "op:id" payload. A nil notification means
// the connection was re-established and events may have been missed.
func parseNotification(n *pq.Notification) entity.LeadChange {
	if n == nil {
		return entity.LeadChange{Op: entity.ChangeResync}
	}
	op, id, ok := strings.Cut(n.Extra, ":")
	if !ok {
		return entity.LeadChange{Op: entity.ChangeResync}
	}
	switch entity.ChangeOp(op) {
	case entity.ChangeCreated, entity.ChangeUpdated, entity.ChangeDeleted:
		return entity.LeadChange{Op: entity.ChangeOp(op), LeadID: id}
	}
	return entity.LeadChange{Op: entity.ChangeResync}
}
