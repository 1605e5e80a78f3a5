// Package memstore is an in-process lead store with a live change feed,
// used for local runs and tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

const feedBuffer = 64

type Store struct {
	mu       sync.RWMutex
	leads    map[string]entity.Lead
	watchers map[*stream]struct{}
}

func New() *Store {
	return &Store{
		leads:    make(map[string]entity.Lead),
		watchers: make(map[*stream]struct{}),
	}
}

func (s *Store) Create(ctx context.Context, lead *entity.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	lead.ID = uuid.New().String()
	stored := *lead
	stored.LeadFormData = lead.LeadFormData.Clone()
	s.leads[lead.ID] = stored
	s.mu.Unlock()

	s.broadcast(entity.LeadChange{Op: entity.ChangeCreated, LeadID: lead.ID})
	return nil
}

func (s *Store) Update(ctx context.Context, lead *entity.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	current, ok := s.leads[lead.ID]
	if !ok {
		s.mu.Unlock()
		return entity.ErrLeadNotFound
	}
	current.LeadFormData = lead.LeadFormData.Clone()
	current.UpdatedAt = lead.UpdatedAt
	s.leads[lead.ID] = current
	s.mu.Unlock()

	s.broadcast(entity.LeadChange{Op: entity.ChangeUpdated, LeadID: lead.ID})
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	_, ok := s.leads[id]
	delete(s.leads, id)
	s.mu.Unlock()

	if ok {
		s.broadcast(entity.LeadChange{Op: entity.ChangeDeleted, LeadID: id})
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	l.LeadFormData = l.LeadFormData.Clone()
	return &l, nil
}

func (s *Store) List(ctx context.Context) ([]entity.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]entity.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		l.LeadFormData = l.LeadFormData.Clone()
		out = append(out, l)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Watch registers a feed that receives every later write.
func (s *Store) Watch(ctx context.Context) (entity.LeadChangeStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := &stream{store: s, ch: make(chan entity.LeadChange, feedBuffer)}

	s.mu.Lock()
	s.watchers[st] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		st.Close()
	}()
	return st, nil
}

// FailWatchers ends every open feed with err.
func (s *Store) FailWatchers(err error) {
	s.mu.Lock()
	open := make([]*stream, 0, len(s.watchers))
	for st := range s.watchers {
		open = append(open, st)
	}
	s.mu.Unlock()

	for _, st := range open {
		st.finish(err)
	}
}

func (s *Store) WatcherCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watchers)
}

func (s *Store) broadcast(c entity.LeadChange) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for st := range s.watchers {
		st.send(c)
	}
}

type stream struct {
	store *Store
	ch    chan entity.LeadChange

	mu     sync.Mutex
	closed bool
	err    error
}

func (st *stream) Changes() <-chan entity.LeadChange { return st.ch }

func (st *stream) Err() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err
}

func (st *stream) Close() { st.finish(nil) }

func (st *stream) finish(err error) {
	st.store.mu.Lock()
	delete(st.store.watchers, st)
	st.store.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return
	}
	st.closed = true
	st.err = err
	close(st.ch)
}

// send never blocks; a full buffer already guarantees a pending re-list.
func (st *stream) send(c entity.LeadChange) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return
	}
	select {
	case st.ch <- c:
	default:
	}
}
