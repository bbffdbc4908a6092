package mail

import (
	"context"
	"strings"
	"testing"
)

type captured struct {
	to, subject, html string
}

type fakeSender struct{ got []captured }

func (f *fakeSender) Send(_ context.Context, to, subject, html string) error {
	f.got = append(f.got, captured{to, subject, html})
	return nil
}

func TestRenderEveryTemplate(t *testing.T) {
	r, err := NewRenderer("Lost & Found Pet Network", "http://client.test/")
	if err != nil {
		t.Fatal(err)
	}
	for name := range subjects {
		subject, body, err := r.Render(name, map[string]any{"userName": "Ann", "petName": "Rex", "token": "abc"})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !strings.HasSuffix(subject, "Lost & Found Pet Network") {
			t.Errorf("%s subject = %q", name, subject)
		}
		if !strings.Contains(body, "Hello Ann") {
			t.Errorf("%s body missing greeting", name)
		}
	}
}

func TestVerificationLinkAndEscaping(t *testing.T) {
	r, _ := NewRenderer("Pets", "http://client.test/")
	_, body, err := r.Render(EmailVerification, map[string]any{"userName": "<b>x</b>", "token": "tok123"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "http://client.test/verify-email/tok123") {
		t.Fatalf("link missing: %s", body)
	}
	if strings.Contains(body, "<b>x</b>") {
		t.Fatal("user input not escaped")
	}
}

func TestMailerSendsRenderedMessage(t *testing.T) {
	r, _ := NewRenderer("Pets", "http://client.test")
	s := &fakeSender{}
	m := NewMailer(r, s)
	err := m.Send(context.Background(), "owner@example.com", ContactRequest, map[string]any{
		"userName": "Ann", "petName": "Rex", "contactName": "Bob", "contactEmail": "bob@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.got) != 1 || s.got[0].to != "owner@example.com" || !strings.Contains(s.got[0].html, "bob@example.com") {
		t.Fatalf("got %+v", s.got)
	}
	if strings.Contains(s.got[0].html, "Message:") {
		t.Fatal("empty message block rendered")
	}
	if err := m.Send(context.Background(), "x@example.com", Template("nope"), nil); err == nil {
		t.Fatal("unknown template accepted")
	}
}
