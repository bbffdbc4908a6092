package auth

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestIssueParseRoundTrip(t *testing.T) {
	j := NewJWTer("secret", "lostfound", time.Hour)
	tok, err := j.Issue("u-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, err := j.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.UID != "u-1" {
		t.Fatalf("uid = %q", c.UID)
	}
}

func TestParseRejects(t *testing.T) {
	j := NewJWTer("secret", "lostfound", time.Hour)
	tok, _ := j.Issue("u-1")

	other := NewJWTer("other", "lostfound", time.Hour)
	if _, err := other.Parse(tok); err == nil {
		t.Fatal("wrong secret accepted")
	}
	wrongIss := NewJWTer("secret", "someone-else", time.Hour)
	if _, err := wrongIss.Parse(tok); err == nil {
		t.Fatal("wrong issuer accepted")
	}

	expired := NewJWTer("secret", "lostfound", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _ := expired.Issue("u-1")
	if _, err := j.Parse(old); err == nil {
		t.Fatal("expired token accepted")
	}
	if _, err := j.Parse("garbage"); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestPassword(t *testing.T) {
	Cost = bcrypt.MinCost
	h, err := HashPassword("Secret123")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword("Secret123", h) {
		t.Fatal("correct password rejected")
	}
	if CheckPassword("secret123", h) {
		t.Fatal("wrong password accepted")
	}
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := RandomToken()
	if len(a) != 64 || a == b {
		t.Fatalf("tokens %q %q", a, b)
	}
}
