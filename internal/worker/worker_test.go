package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"lostfound/internal/core/config"
	"lostfound/internal/core/mail"
	"lostfound/internal/domain"
	"lostfound/internal/repo/memory"
)

type stubMailer struct {
	fail  error
	calls int
}

func (m *stubMailer) Known(name mail.Template) bool { return name != "bogus" }

func (m *stubMailer) Send(context.Context, string, mail.Template, map[string]any) error {
	m.calls++
	return m.fail
}

func newDispatcher(store *memory.Store, m Mailer, now *time.Time) *OutboxDispatcher {
	d := NewOutboxDispatcher(store, m, config.Outbox{BatchSize: 10, MaxAttempts: 3, LeaseSec: 60, PollIntervalSec: 1}, zap.NewNop())
	d.now = func() time.Time { return *now }
	return d
}

func enqueue(t *testing.T, s *memory.Store, id, tpl string, at time.Time, notificationID *string) {
	t.Helper()
	err := s.Outbox().Enqueue(context.Background(), &domain.OutboxMessage{
		ID: id, Template: tpl, Recipient: "ann@example.com",
		Payload: map[string]any{"userName": "Ann"}, NotificationID: notificationID,
		NextAttemptAt: at, CreatedAt: at,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestBackoff(t *testing.T) {
	cases := map[int]time.Duration{1: 30 * time.Second, 2: time.Minute, 3: 2 * time.Minute, 20: time.Hour}
	for attempts, want := range cases {
		if got := Backoff(attempts); got != want {
			t.Errorf("Backoff(%d) = %v, want %v", attempts, got, want)
		}
	}
}

func TestDispatchMarksMessageAndNotificationSent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := memory.New()
	s.Now = func() time.Time { return now }
	nid := "n1"
	if err := s.Notifications().Create(ctx, &domain.Notification{ID: nid, RecipientID: "u1", Type: domain.NotifyPostApproved, Title: "t", Message: "m", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}
	enqueue(t, s, "m1", string(mail.PostApproved), now, &nid)
	enqueue(t, s, "m2", string(mail.Welcome), now.Add(time.Minute), nil)

	m := &stubMailer{}
	d := newDispatcher(s, m, &now)
	sent, err := d.RunOnce(ctx)
	if err != nil || sent != 1 {
		t.Fatalf("sent = %d, err = %v", sent, err)
	}
	msgs := s.Messages()
	if msgs[0].Status != domain.OutboxSent || msgs[0].SentAt == nil {
		t.Fatalf("m1 = %+v", msgs[0])
	}
	if msgs[1].Status != domain.OutboxPending {
		t.Fatal("future message delivered early")
	}
	n, _ := s.Notifications().FindByID(ctx, nid)
	if !n.IsEmailSent || n.EmailSentAt == nil {
		t.Fatalf("notification = %+v", n)
	}
}

func TestDispatchRetriesThenGivesUp(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := memory.New()
	enqueue(t, s, "m1", string(mail.Welcome), now, nil)
	m := &stubMailer{fail: errors.New("smtp timeout")}
	d := newDispatcher(s, m, &now)

	for i := 1; i <= 3; i++ {
		if _, err := d.RunOnce(ctx); err != nil {
			t.Fatal(err)
		}
		msg := s.Messages()[0]
		if msg.Attempts != i || msg.LastError != "smtp timeout" {
			t.Fatalf("attempt %d: %+v", i, msg)
		}
		if i < 3 {
			if msg.Status != domain.OutboxPending || !msg.NextAttemptAt.Equal(now.Add(Backoff(i))) {
				t.Fatalf("attempt %d: %+v", i, msg)
			}
			if _, err := d.RunOnce(ctx); err != nil {
				t.Fatal(err)
			}
			if m.calls != i {
				t.Fatalf("retried before backoff: calls = %d", m.calls)
			}
			now = msg.NextAttemptAt
		}
	}
	if got := s.Messages()[0].Status; got != domain.OutboxDead {
		t.Fatalf("status = %s", got)
	}
}

func TestUnknownTemplateIsDead(t *testing.T) {
	now := time.Now()
	s := memory.New()
	enqueue(t, s, "m1", "bogus", now, nil)
	m := &stubMailer{}
	if _, err := newDispatcher(s, m, &now).RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Messages()[0].Status != domain.OutboxDead || m.calls != 0 {
		t.Fatalf("message = %+v calls = %d", s.Messages()[0], m.calls)
	}
}

type countingPurger struct{ n int64 }

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) { return p.n, nil }

func TestSweeperStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sw := NewNotificationSweeper(&countingPurger{n: 2}, time.Hour, zap.NewNop())
	if n, err := sw.RunOnce(ctx); err != nil || n != 2 {
		t.Fatalf("n = %d err = %v", n, err)
	}
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
