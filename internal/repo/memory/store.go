// Package memory is a map-backed domain.Store used by service and router
// tests. It applies the same filters and orderings as the gorm store.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"lostfound/internal/domain"
)

type state struct {
	users         map[string]domain.User
	pets          map[string]domain.Pet
	reports       map[string]domain.Report
	notifications map[string]domain.Notification
	outbox        map[string]domain.OutboxMessage
	seq           map[string]int64
	next          int64
}

func (st *state) clone() *state {
	c := &state{
		users:         make(map[string]domain.User, len(st.users)),
		pets:          make(map[string]domain.Pet, len(st.pets)),
		reports:       make(map[string]domain.Report, len(st.reports)),
		notifications: make(map[string]domain.Notification, len(st.notifications)),
		outbox:        make(map[string]domain.OutboxMessage, len(st.outbox)),
		seq:           make(map[string]int64, len(st.seq)),
		next:          st.next,
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.pets {
		c.pets[k] = v
	}
	for k, v := range st.reports {
		c.reports[k] = v
	}
	for k, v := range st.notifications {
		c.notifications[k] = v
	}
	for k, v := range st.outbox {
		c.outbox[k] = v
	}
	for k, v := range st.seq {
		c.seq[k] = v
	}
	return c
}

type Store struct {
	mu sync.Mutex
	st *state
	// Now stamps CreatedAt when the caller left it zero, and UpdatedAt.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		st: &state{
			users:         map[string]domain.User{},
			pets:          map[string]domain.Pet{},
			reports:       map[string]domain.Report{},
			notifications: map[string]domain.Notification{},
			outbox:        map[string]domain.OutboxMessage{},
			seq:           map[string]int64{},
		},
		Now: time.Now,
	}
}

func (s *Store) Users() domain.UserRepository                 { return users{s} }
func (s *Store) Pets() domain.PetRepository                   { return pets{s} }
func (s *Store) Reports() domain.ReportRepository             { return reports{s} }
func (s *Store) Notifications() domain.NotificationRepository { return notifications{s} }
func (s *Store) Outbox() domain.OutboxRepository              { return outbox{s} }

// WithinTx runs fn against the store and restores the previous state when
// fn fails. Transactions are not isolated from each other.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	s.mu.Lock()
	snap := s.st.clone()
	s.mu.Unlock()
	if err := fn(s); err != nil {
		s.mu.Lock()
		s.st = snap
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) stamp(id string, created *time.Time, updated *time.Time) {
	now := s.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
	if _, ok := s.st.seq[id]; !ok {
		s.st.next++
		s.st.seq[id] = s.st.next
	}
}

// newestFirst sorts by created time, then insertion order, descending.
func newestFirst(s *Store, ids []string, created func(string) time.Time) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := created(ids[i]), created(ids[j])
		if !a.Equal(b) {
			return a.After(b)
		}
		return s.st.seq[ids[i]] > s.st.seq[ids[j]]
	})
}

func page[T any](all []T, p domain.Page) []T {
	off := p.Offset()
	if off >= len(all) {
		return []T{}
	}
	end := min(off+p.Limit, len(all))
	return all[off:end]
}

func contains(field, sub string) bool {
	sub = strings.ToLower(strings.TrimSpace(sub))
	return sub == "" || strings.Contains(strings.ToLower(field), sub)
}

func clonePet(p domain.Pet) domain.Pet {
	p.Photos = slices.Clone(p.Photos)
	p.Tags = slices.Clone(p.Tags)
	p.Owner = nil
	return p
}

func strOr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
