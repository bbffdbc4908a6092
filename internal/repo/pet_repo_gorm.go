package repo

import (
	"context"
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lostfound/internal/domain"
)

// distanceSQL is the haversine distance in km from (?lat, ?lng) to the
// pet's last seen point. LEAST guards ACOS against rounding above 1.
const distanceSQL = "(6371 * ACOS(LEAST(1, " +
	"COS(RADIANS(?)) * COS(RADIANS(last_seen_latitude)) * COS(RADIANS(last_seen_longitude) - RADIANS(?)) + " +
	"SIN(RADIANS(?)) * SIN(RADIANS(last_seen_latitude)))))"

const kmPerDegreeLat = 111.045

type PetRepo struct{ db *gorm.DB }

func (r *PetRepo) Create(ctx context.Context, p *domain.Pet) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error)
}

func (r *PetRepo) FindByID(ctx context.Context, id string) (*domain.Pet, error) {
	var p domain.Pet
	if err := r.db.WithContext(ctx).Preload("Owner").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PetRepo) Update(ctx context.Context, p *domain.Pet) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error)
}

func (r *PetRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Pet{}))
}

func nearArgs(g *domain.GeoQuery) []any {
	return []any{g.Center.Lat, g.Center.Lng, g.Center.Lat}
}

func petScope(f domain.PetFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.OwnerID != "" {
			db = db.Where("owner_id = ?", f.OwnerID)
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.Type != "" {
			db = db.Where("type = ?", f.Type)
		}
		if f.Gender != "" {
			db = db.Where("gender = ?", f.Gender)
		}
		if strings.TrimSpace(f.Breed) != "" {
			db = db.Where("LOWER(breed) LIKE ?", likePattern(f.Breed))
		}
		if strings.TrimSpace(f.Color) != "" {
			db = db.Where("LOWER(color) LIKE ?", likePattern(f.Color))
		}
		if strings.TrimSpace(f.Search) != "" {
			like := likePattern(f.Search)
			db = db.Where("(LOWER(name) LIKE ? OR LOWER(breed) LIKE ? OR LOWER(color) LIKE ?)", like, like, like)
		}
		if f.DateFrom != nil {
			db = db.Where("last_seen_date >= ?", *f.DateFrom)
		}
		if f.DateTo != nil {
			db = db.Where("last_seen_date <= ?", *f.DateTo)
		}
		if f.IsActive != nil {
			db = db.Where("is_active = ?", *f.IsActive)
		}
		if f.IsApproved != nil {
			db = db.Where("is_approved = ?", *f.IsApproved)
		}
		if g := f.Near; g != nil {
			// The latitude band lets the index on last_seen_latitude prune
			// rows before the exact distance is computed.
			band := g.RadiusKm / kmPerDegreeLat
			db = db.Where("last_seen_latitude IS NOT NULL AND last_seen_longitude IS NOT NULL").
				Where("last_seen_latitude BETWEEN ? AND ?", math.Max(-90, g.Center.Lat-band), math.Min(90, g.Center.Lat+band)).
				Where(distanceSQL+" <= ?", append(nearArgs(g), g.RadiusKm)...)
		}
		return db
	}
}

func (r *PetRepo) Count(ctx context.Context, f domain.PetFilter) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Pet{}).Scopes(petScope(f)).Count(&n).Error
	return n, translate(err)
}

// List runs the page query and the count query separately over the same
// filter. Geo queries are ordered nearest first, all others newest first.
func (r *PetRepo) List(ctx context.Context, f domain.PetFilter, p domain.Page) ([]domain.Pet, int64, error) {
	total, err := r.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	q := r.db.WithContext(ctx).Preload("Owner").Scopes(petScope(f))
	if f.Near != nil {
		q = q.Order(clause.OrderBy{Expression: clause.Expr{
			SQL: distanceSQL + " ASC", Vars: nearArgs(f.Near), WithoutParentheses: true,
		}})
	} else {
		q = q.Order("created_at DESC")
	}
	var pets []domain.Pet
	if err := q.Offset(p.Offset()).Limit(p.Limit).Find(&pets).Error; err != nil {
		return nil, 0, translate(err)
	}
	return pets, total, nil
}

func (r *PetRepo) IDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.Pet{}).Where("owner_id = ?", ownerID).Pluck("id", &ids).Error
	return ids, translate(err)
}

func (r *PetRepo) increment(ctx context.Context, id, column string) error {
	return affected(r.db.WithContext(ctx).Model(&domain.Pet{}).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)))
}

func (r *PetRepo) IncrementViews(ctx context.Context, id string) error {
	return r.increment(ctx, id, "views")
}

func (r *PetRepo) IncrementContacts(ctx context.Context, id string) error {
	return r.increment(ctx, id, "contact_count")
}

func (r *PetRepo) DeactivateByOwner(ctx context.Context, ownerID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Pet{}).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Update("is_active", false)
	return res.RowsAffected, translate(res.Error)
}

func (r *PetRepo) Recent(ctx context.Context, n int) ([]domain.Pet, error) {
	var pets []domain.Pet
	err := r.db.WithContext(ctx).Preload("Owner").Order("created_at DESC").Limit(n).Find(&pets).Error
	return pets, translate(err)
}
