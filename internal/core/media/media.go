// Package media stores pet photos on the Cloudinary image CDN.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"lostfound/internal/core/config"
)

// Photos are bounded to 800x600 and re-encoded in the best format and
// quality for the requesting client.
const transformation = "c_limit,w_800,h_600/q_auto/f_auto"

var ErrNotConfigured = errors.New("media: storage is not configured")

type Store interface {
	Upload(ctx context.Context, r io.Reader, filename string) (string, error)
	Delete(ctx context.Context, url string) error
}

type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// New returns a Cloudinary store, or a Disabled store when no cloud name
// is configured.
func New(c config.Media) (Store, error) {
	if c.CloudName == "" {
		return Disabled{}, nil
	}
	cld, err := cloudinary.NewFromParams(c.CloudName, c.APIKey, c.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, folder: c.Folder}, nil
}

func (s *Cloudinary) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         s.folder,
		Transformation: transformation,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("upload %s: %s", filename, res.Error.Message)
	}
	return res.SecureURL, nil
}

func (s *Cloudinary) Delete(ctx context.Context, rawURL string) error {
	id, ok := PublicIDFromURL(rawURL)
	if !ok {
		return fmt.Errorf("media: not a cloudinary url: %s", rawURL)
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: id})
	if err != nil {
		return fmt.Errorf("destroy %s: %w", id, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("destroy %s: %s", id, res.Error.Message)
	}
	return nil
}

// PublicIDFromURL extracts "folder/name" from
// https://res.cloudinary.com/<cloud>/image/upload/v123/folder/name.jpg.
func PublicIDFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	idx := -1
	for i, p := range parts {
		if p == "upload" {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(parts) {
		return "", false
	}
	rest := parts[idx+1:]
	if isVersion(rest[0]) {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", false
	}
	id := strings.Join(rest, "/")
	return strings.TrimSuffix(id, path.Ext(id)), true
}

func isVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, c := range seg[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// DeleteAll removes every url and joins the failures.
func DeleteAll(ctx context.Context, s Store, urls []string) error {
	var errs []error
	for _, u := range urls {
		if err := s.Delete(ctx, u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Disabled rejects uploads and ignores deletes.
type Disabled struct{}

func (Disabled) Upload(context.Context, io.Reader, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Delete(context.Context, string) error { return nil }
