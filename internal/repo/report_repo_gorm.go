package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lostfound/internal/domain"
)

const priorityOrder = "CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 " +
	"WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC"

type ReportRepo struct{ db *gorm.DB }

func (r *ReportRepo) withRefs(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Reporter").
		Preload("ReportedUser").
		Preload("ReportedPet")
}

func (r *ReportRepo) Create(ctx context.Context, rep *domain.Report) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(rep).Error)
}

func (r *ReportRepo) FindByID(ctx context.Context, id string) (*domain.Report, error) {
	var rep domain.Report
	if err := r.withRefs(ctx).Where("id = ?", id).First(&rep).Error; err != nil {
		return nil, translate(err)
	}
	return &rep, nil
}

func (r *ReportRepo) Update(ctx context.Context, rep *domain.Report) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(rep).Error)
}

func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Report{}))
}

func reportScope(f domain.ReportFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.ReporterID != "" {
			db = db.Where("reporter_id = ?", f.ReporterID)
		}
		if f.ReportedUserID != "" {
			db = db.Where("reported_user_id = ?", f.ReportedUserID)
		}
		if f.ReportedPetIDs != nil {
			if len(f.ReportedPetIDs) == 0 {
				return db.Where("1 = 0")
			}
			db = db.Where("reported_pet_id IN ?", f.ReportedPetIDs)
		}
		if f.Involving != "" {
			db = db.Where("(reporter_id = ? OR reported_user_id = ?)", f.Involving, f.Involving)
		}
		if len(f.Statuses) > 0 {
			db = db.Where("status IN ?", f.Statuses)
		}
		if f.Type != "" {
			db = db.Where("type = ?", f.Type)
		}
		if len(f.Priorities) > 0 {
			db = db.Where("priority IN ?", f.Priorities)
		}
		return db
	}
}

func (r *ReportRepo) Count(ctx context.Context, f domain.ReportFilter) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Report{}).Scopes(reportScope(f)).Count(&n).Error
	return n, translate(err)
}

func (r *ReportRepo) List(ctx context.Context, f domain.ReportFilter, p domain.Page) ([]domain.Report, int64, error) {
	total, err := r.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	q := r.withRefs(ctx).Scopes(reportScope(f))
	if f.ByPriority {
		q = q.Order(priorityOrder)
	}
	var reports []domain.Report
	if err := q.Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).Find(&reports).Error; err != nil {
		return nil, 0, translate(err)
	}
	return reports, total, nil
}

func (r *ReportRepo) ExistsSince(ctx context.Context, reporterID string, target domain.ReportTarget, since time.Time) (bool, error) {
	q := r.db.WithContext(ctx).Model(&domain.Report{}).
		Where("reporter_id = ? AND created_at > ?", reporterID, since)
	if target.UserID != "" {
		q = q.Where("reported_user_id = ?", target.UserID)
	} else {
		q = q.Where("reported_pet_id = ?", target.PetID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (r *ReportRepo) Recent(ctx context.Context, n int) ([]domain.Report, error) {
	var reports []domain.Report
	err := r.withRefs(ctx).Order("created_at DESC").Limit(n).Find(&reports).Error
	return reports, translate(err)
}
