// Package service holds the workflows behind the HTTP handlers: sessions,
// pet posts, reports, notifications and the admin views.
package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"lostfound/internal/core/errs"
	"lostfound/internal/core/mail"
	"lostfound/internal/domain"
)

// Mailer sends one templated email right away. The outbox dispatcher and
// the synchronous auth and contact flows share it.
type Mailer interface {
	Send(ctx context.Context, to string, name mail.Template, data map[string]any) error
}

// PhotoFile is one uploaded image, opened lazily so large parts are not
// held in memory.
type PhotoFile struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Clock returns the current time; tests replace it.
type Clock func() time.Time

func newID() string { return uuid.NewString() }

// missing maps a repository miss to a 404 with msg and passes other
// errors through.
func missing(err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return errs.NotFound(msg)
	}
	return err
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
