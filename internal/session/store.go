package session

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/sitechat/internal/model"
)

const (
	// DefaultTTL is how long an unused session is kept.
	DefaultTTL = 30 * time.Minute

	// DefaultMaxSessions is the number of sessions kept before the least
	// recently used one is evicted.
	DefaultMaxSessions = 1000

	// DefaultMaxTurns is the number of most recent messages kept per session.
	DefaultMaxTurns = 20
)

// Observer is told the number of live sessions whenever it changes.
type Observer interface {
	SessionsChanged(n int)
}

type entry struct {
	id       string
	messages []model.Message
	lastUsed time.Time
}

// Store is a concurrency-safe in-memory session store.
type Store struct {
	mu sync.Mutex

	// items indexes the elements of order by session ID.
	items map[string]*list.Element

	// order holds *entry values, most recently used first.
	order *list.List

	ttl         time.Duration
	maxSessions int
	maxTurns    int
	now         func() time.Time
	observer    Observer
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the idle time after which a session expires.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithMaxSessions sets the number of sessions kept.
func WithMaxSessions(n int) Option {
	return func(s *Store) {
		s.maxSessions = n
	}
}

// WithMaxTurns sets the number of most recent messages kept per session.
func WithMaxTurns(n int) Option {
	return func(s *Store) {
		s.maxTurns = n
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithObserver registers an observer for the session count.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		items:       make(map[string]*list.Element),
		order:       list.New(),
		ttl:         DefaultTTL,
		maxSessions: DefaultMaxSessions,
		maxTurns:    DefaultMaxTurns,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create starts an empty session and returns its ID.
// If the store is full, the least recently used session is evicted.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.items[id] = s.order.PushFront(&entry{id: id, lastUsed: s.now()})

	for s.maxSessions > 0 && s.order.Len() > s.maxSessions {
		s.removeElement(s.order.Back())
	}

	s.notify()
	return id
}

// Get returns a copy of the messages of session id and marks it used.
func (s *Store) Get(id string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.touch(id)
	if err != nil {
		return nil, err
	}

	out := make([]model.Message, len(e.messages))
	copy(out, e.messages)
	return out, nil
}

// Append adds msgs to session id, dropping the oldest messages beyond the
// per-session limit.
func (s *Store) Append(id string, msgs ...model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.touch(id)
	if err != nil {
		return err
	}

	e.messages = append(e.messages, msgs...)
	if s.maxTurns > 0 && len(e.messages) > s.maxTurns {
		trimmed := make([]model.Message, s.maxTurns)
		copy(trimmed, e.messages[len(e.messages)-s.maxTurns:])
		e.messages = trimmed
	}

	return nil
}

// Resume returns the messages of session id, or creates a new session when
// id is empty, unknown, or expired. The returned ID is the session in use.
func (s *Store) Resume(id string) (string, []model.Message) {
	if id != "" {
		if msgs, err := s.Get(id); err == nil {
			return id, msgs
		}
	}
	return s.Create(), nil
}

// Delete removes session id. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[id]
	if !ok {
		return false
	}
	s.removeElement(elem)
	s.notify()
	return true
}

// Len returns the number of sessions, including expired ones not yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.order.Len()
}

// Sweep removes the sessions that expired at now and returns how many were
// removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	// order is sorted by last use, so expired sessions sit at the back.
	for elem := s.order.Back(); elem != nil; elem = s.order.Back() {
		if !s.expired(elem.Value.(*entry), now) {
			break
		}
		s.removeElement(elem)
		removed++
	}

	if removed > 0 {
		s.notify()
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.now())
		}
	}
}

// touch looks up id, drops it if expired, and marks it used.
// The caller must hold s.mu.
func (s *Store) touch(id string) (*entry, error) {
	elem, ok := s.items[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := s.now()
	e := elem.Value.(*entry)
	if s.expired(e, now) {
		s.removeElement(elem)
		s.notify()
		return nil, ErrSessionNotFound
	}

	e.lastUsed = now
	s.order.MoveToFront(elem)
	return e, nil
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastUsed) >= s.ttl
}

func (s *Store) removeElement(elem *list.Element) {
	s.order.Remove(elem)
	delete(s.items, elem.Value.(*entry).id)
}

func (s *Store) notify() {
	if s.observer != nil {
		s.observer.SessionsChanged(s.order.Len())
	}
}
