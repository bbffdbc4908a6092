package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"lostfound/internal/domain"
)

type users struct{ s *Store }

func (r users) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.st.users {
		if strings.EqualFold(other.Email, u.Email) {
			return domain.ErrDuplicate
		}
	}
	if _, ok := r.s.st.users[u.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.stamp(u.ID, &u.CreatedAt, &u.UpdatedAt)
	r.s.st.users[u.ID] = *u
	return nil
}

func (r users) find(match func(domain.User) bool) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.st.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r users) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id })
}

func (r users) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r users) FindByVerificationToken(_ context.Context, token string, now time.Time) (*domain.User, error) {
	return r.find(func(u domain.User) bool {
		return token != "" && u.EmailVerificationToken == token &&
			u.EmailVerificationExpires != nil && u.EmailVerificationExpires.After(now)
	})
}

func (r users) FindByResetToken(_ context.Context, token string, now time.Time) (*domain.User, error) {
	return r.find(func(u domain.User) bool {
		return token != "" && u.PasswordResetToken == token &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now)
	})
}

func (r users) Update(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, other := range r.s.st.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return domain.ErrDuplicate
		}
	}
	r.s.stamp(u.ID, &u.CreatedAt, &u.UpdatedAt)
	r.s.st.users[u.ID] = *u
	return nil
}

func userMatches(f domain.UserFilter, u domain.User) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.IsActive != nil && u.IsActive != *f.IsActive {
		return false
	}
	if strings.TrimSpace(f.Search) != "" && !contains(u.Name, f.Search) && !contains(u.Email, f.Search) {
		return false
	}
	return true
}

func (r users) matching(f domain.UserFilter) []domain.User {
	var ids []string
	for id, u := range r.s.st.users {
		if userMatches(f, u) {
			ids = append(ids, id)
		}
	}
	newestFirst(r.s, ids, func(id string) time.Time { return r.s.st.users[id].CreatedAt })
	out := make([]domain.User, len(ids))
	for i, id := range ids {
		out[i] = r.s.st.users[id]
	}
	return out
}

func (r users) List(_ context.Context, f domain.UserFilter, p domain.Page) ([]domain.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.matching(f)
	return page(all, p), int64(len(all)), nil
}

func (r users) Count(_ context.Context, f domain.UserFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.matching(f))), nil
}

func (r users) Recent(_ context.Context, n int) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return page(r.matching(domain.UserFilter{}), domain.Page{Page: 1, Limit: n}), nil
}

type pets struct{ s *Store }

func (r pets) withOwner(p domain.Pet) domain.Pet {
	p = clonePet(p)
	if u, ok := r.s.st.users[p.OwnerID]; ok {
		p.Owner = &u
	}
	return p
}

func (r pets) Create(_ context.Context, p *domain.Pet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.pets[p.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.stamp(p.ID, &p.CreatedAt, &p.UpdatedAt)
	r.s.st.pets[p.ID] = clonePet(*p)
	return nil
}

func (r pets) FindByID(_ context.Context, id string) (*domain.Pet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.pets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = r.withOwner(p)
	return &p, nil
}

func (r pets) Update(_ context.Context, p *domain.Pet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.pets[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.stamp(p.ID, &p.CreatedAt, &p.UpdatedAt)
	r.s.st.pets[p.ID] = clonePet(*p)
	return nil
}

func (r pets) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.pets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.st.pets, id)
	for rid, rep := range r.s.st.reports {
		if strOr(rep.ReportedPetID) == id {
			rep.ReportedPetID = nil
			r.s.st.reports[rid] = rep
		}
	}
	return nil
}

func petMatches(f domain.PetFilter, p domain.Pet) bool {
	switch {
	case f.OwnerID != "" && p.OwnerID != f.OwnerID,
		f.Status != "" && p.Status != f.Status,
		f.Type != "" && p.Type != f.Type,
		f.Gender != "" && p.Gender != f.Gender,
		!contains(p.Breed, f.Breed),
		!contains(p.Color, f.Color),
		f.DateFrom != nil && p.LastSeenDate.Before(*f.DateFrom),
		f.DateTo != nil && p.LastSeenDate.After(*f.DateTo),
		f.IsActive != nil && p.IsActive != *f.IsActive,
		f.IsApproved != nil && p.IsApproved != *f.IsApproved:
		return false
	}
	if strings.TrimSpace(f.Search) != "" &&
		!contains(p.Name, f.Search) && !contains(p.Breed, f.Search) && !contains(p.Color, f.Search) {
		return false
	}
	if f.Near != nil {
		pt := p.LastSeenLocation.Point()
		if pt == nil || domain.DistanceKm(f.Near.Center, *pt) > f.Near.RadiusKm {
			return false
		}
	}
	return true
}

func (r pets) matching(f domain.PetFilter) []domain.Pet {
	var ids []string
	for id, p := range r.s.st.pets {
		if petMatches(f, p) {
			ids = append(ids, id)
		}
	}
	newestFirst(r.s, ids, func(id string) time.Time { return r.s.st.pets[id].CreatedAt })
	if f.Near != nil {
		dist := func(id string) float64 {
			return domain.DistanceKm(f.Near.Center, *r.s.st.pets[id].LastSeenLocation.Point())
		}
		sort.SliceStable(ids, func(i, j int) bool { return dist(ids[i]) < dist(ids[j]) })
	}
	out := make([]domain.Pet, len(ids))
	for i, id := range ids {
		out[i] = r.withOwner(r.s.st.pets[id])
	}
	return out
}

func (r pets) List(_ context.Context, f domain.PetFilter, p domain.Page) ([]domain.Pet, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.matching(f)
	return page(all, p), int64(len(all)), nil
}

func (r pets) Count(_ context.Context, f domain.PetFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.matching(f))), nil
}

func (r pets) IDsByOwner(_ context.Context, ownerID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []string{}
	for id, p := range r.s.st.pets {
		if p.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (r pets) bump(id string, fn func(*domain.Pet)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.pets[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&p)
	r.s.st.pets[id] = p
	return nil
}

func (r pets) IncrementViews(_ context.Context, id string) error {
	return r.bump(id, func(p *domain.Pet) { p.Views++ })
}

func (r pets) IncrementContacts(_ context.Context, id string) error {
	return r.bump(id, func(p *domain.Pet) { p.ContactCount++ })
}

func (r pets) DeactivateByOwner(_ context.Context, ownerID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, p := range r.s.st.pets {
		if p.OwnerID == ownerID && p.IsActive {
			p.IsActive = false
			p.UpdatedAt = r.s.Now()
			r.s.st.pets[id] = p
			n++
		}
	}
	return n, nil
}

func (r pets) Recent(_ context.Context, n int) ([]domain.Pet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return page(r.matching(domain.PetFilter{}), domain.Page{Page: 1, Limit: n}), nil
}

type reports struct{ s *Store }

func (r reports) withRefs(rep domain.Report) domain.Report {
	rep.Evidence = slices.Clone(rep.Evidence)
	rep.Reporter, rep.ReportedUser, rep.ReportedPet = nil, nil, nil
	if u, ok := r.s.st.users[rep.ReporterID]; ok {
		rep.Reporter = &u
	}
	if u, ok := r.s.st.users[strOr(rep.ReportedUserID)]; ok {
		rep.ReportedUser = &u
	}
	if p, ok := r.s.st.pets[strOr(rep.ReportedPetID)]; ok {
		p = clonePet(p)
		rep.ReportedPet = &p
	}
	return rep
}

func (r reports) put(rep *domain.Report) {
	r.s.stamp(rep.ID, &rep.CreatedAt, &rep.UpdatedAt)
	stored := *rep
	stored.Reporter, stored.ReportedUser, stored.ReportedPet = nil, nil, nil
	stored.Evidence = slices.Clone(rep.Evidence)
	r.s.st.reports[rep.ID] = stored
}

func (r reports) Create(_ context.Context, rep *domain.Report) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.reports[rep.ID]; ok {
		return domain.ErrDuplicate
	}
	r.put(rep)
	return nil
}

func (r reports) FindByID(_ context.Context, id string) (*domain.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.st.reports[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rep = r.withRefs(rep)
	return &rep, nil
}

func (r reports) Update(_ context.Context, rep *domain.Report) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.reports[rep.ID]; !ok {
		return domain.ErrNotFound
	}
	r.put(rep)
	return nil
}

func (r reports) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.reports[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.st.reports, id)
	return nil
}

func reportMatches(f domain.ReportFilter, rep domain.Report) bool {
	switch {
	case f.ReporterID != "" && rep.ReporterID != f.ReporterID,
		f.ReportedUserID != "" && strOr(rep.ReportedUserID) != f.ReportedUserID,
		f.ReportedPetIDs != nil && !slices.Contains(f.ReportedPetIDs, strOr(rep.ReportedPetID)),
		f.Involving != "" && rep.ReporterID != f.Involving && strOr(rep.ReportedUserID) != f.Involving,
		len(f.Statuses) > 0 && !slices.Contains(f.Statuses, rep.Status),
		f.Type != "" && rep.Type != f.Type,
		len(f.Priorities) > 0 && !slices.Contains(f.Priorities, rep.Priority):
		return false
	}
	return true
}

func (r reports) matching(f domain.ReportFilter) []domain.Report {
	var ids []string
	for id, rep := range r.s.st.reports {
		if reportMatches(f, rep) {
			ids = append(ids, id)
		}
	}
	newestFirst(r.s, ids, func(id string) time.Time { return r.s.st.reports[id].CreatedAt })
	if f.ByPriority {
		rank := func(id string) int { return r.s.st.reports[id].Priority.Rank() }
		sort.SliceStable(ids, func(i, j int) bool { return rank(ids[i]) > rank(ids[j]) })
	}
	out := make([]domain.Report, len(ids))
	for i, id := range ids {
		out[i] = r.withRefs(r.s.st.reports[id])
	}
	return out
}

func (r reports) List(_ context.Context, f domain.ReportFilter, p domain.Page) ([]domain.Report, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.matching(f)
	return page(all, p), int64(len(all)), nil
}

func (r reports) Count(_ context.Context, f domain.ReportFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.matching(f))), nil
}

func (r reports) ExistsSince(_ context.Context, reporterID string, target domain.ReportTarget, since time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rep := range r.s.st.reports {
		if rep.ReporterID != reporterID || !rep.CreatedAt.After(since) {
			continue
		}
		if target.UserID != "" && strOr(rep.ReportedUserID) == target.UserID {
			return true, nil
		}
		if target.UserID == "" && strOr(rep.ReportedPetID) == target.PetID {
			return true, nil
		}
	}
	return false, nil
}

func (r reports) Recent(_ context.Context, n int) ([]domain.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return page(r.matching(domain.ReportFilter{}), domain.Page{Page: 1, Limit: n}), nil
}

type notifications struct{ s *Store }

func (r notifications) Create(_ context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.notifications[n.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.stamp(n.ID, &n.CreatedAt, &n.UpdatedAt)
	n.Metadata = maps.Clone(n.Metadata)
	r.s.st.notifications[n.ID] = *n
	return nil
}

func (r notifications) FindByID(_ context.Context, id string) (*domain.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.st.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &n, nil
}

func (r notifications) Update(_ context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.notifications[n.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.stamp(n.ID, &n.CreatedAt, &n.UpdatedAt)
	r.s.st.notifications[n.ID] = *n
	return nil
}

func (r notifications) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.notifications[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.st.notifications, id)
	return nil
}

func (r notifications) List(_ context.Context, f domain.NotificationFilter, p domain.Page) ([]domain.Notification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for id, n := range r.s.st.notifications {
		switch {
		case f.RecipientID != "" && n.RecipientID != f.RecipientID,
			f.IsRead != nil && n.IsRead != *f.IsRead,
			f.ActiveAt != nil && n.Expired(*f.ActiveAt):
			continue
		}
		ids = append(ids, id)
	}
	newestFirst(r.s, ids, func(id string) time.Time { return r.s.st.notifications[id].CreatedAt })
	all := make([]domain.Notification, len(ids))
	for i, id := range ids {
		all[i] = r.s.st.notifications[id]
	}
	return page(all, p), int64(len(all)), nil
}

func (r notifications) CountUnread(_ context.Context, recipientID string, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var c int64
	for _, n := range r.s.st.notifications {
		if n.RecipientID == recipientID && !n.IsRead && !n.Expired(now) {
			c++
		}
	}
	return c, nil
}

func (r notifications) MarkAllRead(_ context.Context, recipientID string, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var c int64
	for id, n := range r.s.st.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.MarkRead(now)
			r.s.st.notifications[id] = n
			c++
		}
	}
	return c, nil
}

func (r notifications) MarkEmailSent(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.st.notifications[id]
	if !ok {
		return nil
	}
	n.IsEmailSent = true
	n.EmailSentAt = &at
	r.s.st.notifications[id] = n
	return nil
}

func (r notifications) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var c int64
	for id, n := range r.s.st.notifications {
		if n.Expired(now) {
			delete(r.s.st.notifications, id)
			c++
		}
	}
	return c, nil
}

type outbox struct{ s *Store }

func (r outbox) Enqueue(_ context.Context, m *domain.OutboxMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m.Status == "" {
		m.Status = domain.OutboxPending
	}
	r.s.stamp(m.ID, &m.CreatedAt, &m.UpdatedAt)
	m.Payload = maps.Clone(m.Payload)
	r.s.st.outbox[m.ID] = *m
	return nil
}

func (r outbox) ClaimDue(_ context.Context, now time.Time, limit int, lease time.Duration) ([]domain.OutboxMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var due []domain.OutboxMessage
	for _, m := range r.s.st.outbox {
		if m.Status != domain.OutboxPending || m.NextAttemptAt.After(now) {
			continue
		}
		if m.LockedUntil != nil && !m.LockedUntil.Before(now) {
			continue
		}
		due = append(due, m)
	}
	sort.SliceStable(due, func(i, j int) bool {
		if !due[i].NextAttemptAt.Equal(due[j].NextAttemptAt) {
			return due[i].NextAttemptAt.Before(due[j].NextAttemptAt)
		}
		return r.s.st.seq[due[i].ID] < r.s.st.seq[due[j].ID]
	})
	if len(due) > limit {
		due = due[:limit]
	}
	until := now.Add(lease)
	for i := range due {
		due[i].LockedUntil = &until
		r.s.st.outbox[due[i].ID] = due[i]
	}
	return due, nil
}

func (r outbox) MarkSent(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.st.outbox[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.Status, m.SentAt, m.LockedUntil, m.LastError = domain.OutboxSent, &at, nil, ""
	r.s.st.outbox[id] = m
	return nil
}

func (r outbox) MarkFailed(_ context.Context, id string, attempts int, next time.Time, lastErr string, dead bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.st.outbox[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.Status = domain.OutboxPending
	if dead {
		m.Status = domain.OutboxDead
	}
	m.Attempts, m.NextAttemptAt, m.LockedUntil, m.LastError = attempts, next, nil, lastErr
	r.s.st.outbox[id] = m
	return nil
}

// Messages returns every outbox row, oldest first. Tests use it to assert
// what a workflow enqueued.
func (s *Store) Messages() []domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Collect(maps.Values(s.st.outbox))
	sort.Slice(out, func(i, j int) bool { return s.st.seq[out[i].ID] < s.st.seq[out[j].ID] })
	return out
}
