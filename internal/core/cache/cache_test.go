package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stats struct {
	Users int `json:"users"`
}

func TestGetOrLoadJSONWithoutRedis(t *testing.T) {
	c := New("", "", 0)
	calls := 0
	got, err := GetOrLoadJSON(c, context.Background(), "k", time.Minute, func(context.Context) (*stats, error) {
		calls++
		return &stats{Users: 3}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Users != 3 || calls != 1 {
		t.Fatalf("got %+v after %d calls", got, calls)
	}
}

func TestNilCachePassesThrough(t *testing.T) {
	var c *Cache
	want := errors.New("boom")
	_, err := GetOrLoadJSON(c, context.Background(), "k", time.Minute, func(context.Context) (*stats, error) {
		return nil, want
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
	if err := c.Invalidate(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
}

func TestKey(t *testing.T) {
	if got := Key("admin", "dashboard"); got != "lostfound:admin:dashboard" {
		t.Fatalf("Key = %q", got)
	}
}
