// Package repo implements the domain repositories on gorm.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"lostfound/internal/domain"
)

type Store struct{ db *gorm.DB }

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Users() domain.UserRepository                 { return &UserRepo{db: s.db} }
func (s *Store) Pets() domain.PetRepository                   { return &PetRepo{db: s.db} }
func (s *Store) Reports() domain.ReportRepository             { return &ReportRepo{db: s.db} }
func (s *Store) Notifications() domain.NotificationRepository { return &NotificationRepo{db: s.db} }
func (s *Store) Outbox() domain.OutboxRepository              { return &OutboxRepo{db: s.db} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrDuplicate
	}
	return err
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
