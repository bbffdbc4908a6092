package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsAndCode(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", NotFound("Pet not found"))
	if CodeOf(wrapped) != http.StatusNotFound {
		t.Fatalf("code = %d", CodeOf(wrapped))
	}
	plain := errors.New("boom")
	e := As(plain)
	if e.Code != http.StatusInternalServerError || !errors.Is(e, plain) {
		t.Fatalf("got %+v", e)
	}
	if CodeOf(nil) != http.StatusOK {
		t.Fatal("nil error code")
	}
}

func TestFields(t *testing.T) {
	f := Fields{}
	if f.Err() != nil {
		t.Fatal("empty fields should be nil")
	}
	f.Add("name", "first")
	f.Add("name", "second")
	e := As(f.Err())
	if e.Code != http.StatusBadRequest || e.Fields["name"] != "first" {
		t.Fatalf("got %+v", e)
	}
}
