package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"lostfound/internal/core/config"
)

func TestPublicIDFromURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345678/pet-adoption/photos-1-2.jpg", "pet-adoption/photos-1-2", true},
		{"https://res.cloudinary.com/demo/image/upload/pet-adoption/a.png", "pet-adoption/a", true},
		{"https://res.cloudinary.com/demo/image/upload/v12/a", "a", true},
		{"https://example.com/images/a.jpg", "", false},
		{"https://res.cloudinary.com/demo/image/upload/", "", false},
	}
	for _, c := range cases {
		got, ok := PublicIDFromURL(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("PublicIDFromURL(%q) = %q,%v want %q,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

type flakyStore struct {
	deleted []string
}

func (f *flakyStore) Upload(context.Context, io.Reader, string) (string, error) { return "", nil }

func (f *flakyStore) Delete(_ context.Context, u string) error {
	if strings.Contains(u, "bad") {
		return errors.New("boom " + u)
	}
	f.deleted = append(f.deleted, u)
	return nil
}

func TestDeleteAllContinuesAfterFailure(t *testing.T) {
	s := &flakyStore{}
	err := DeleteAll(context.Background(), s, []string{"a", "bad1", "b", "bad2"})
	if err == nil || !strings.Contains(err.Error(), "bad1") || !strings.Contains(err.Error(), "bad2") {
		t.Fatalf("err = %v", err)
	}
	if len(s.deleted) != 2 {
		t.Fatalf("deleted = %v", s.deleted)
	}
}

func TestDisabled(t *testing.T) {
	s, err := New(config.Media{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upload(context.Background(), strings.NewReader("x"), "a.jpg"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}
