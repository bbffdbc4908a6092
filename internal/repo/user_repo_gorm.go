package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lostfound/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepo) first(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepo) FindByVerificationToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	return r.first(ctx, "email_verification_token = ? AND email_verification_expires > ?", token, now)
}

func (r *UserRepo) FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	return r.first(ctx, "password_reset_token = ? AND password_reset_expires > ?", token, now)
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(u).Error)
}

func userScope(f domain.UserFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Role != "" {
			db = db.Where("role = ?", f.Role)
		}
		if f.IsActive != nil {
			db = db.Where("is_active = ?", *f.IsActive)
		}
		if strings.TrimSpace(f.Search) != "" {
			like := likePattern(f.Search)
			db = db.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", like, like)
		}
		return db
	}
}

func (r *UserRepo) Count(ctx context.Context, f domain.UserFilter) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Scopes(userScope(f)).Count(&n).Error
	return n, translate(err)
}

func (r *UserRepo) List(ctx context.Context, f domain.UserFilter, p domain.Page) ([]domain.User, int64, error) {
	total, err := r.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	var users []domain.User
	err = r.db.WithContext(ctx).Scopes(userScope(f)).
		Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return users, total, nil
}

func (r *UserRepo) Recent(ctx context.Context, n int) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(n).Find(&users).Error
	return users, translate(err)
}
