package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lostfound/internal/core/cache"
	"lostfound/internal/core/errs"
	"lostfound/internal/domain"
)

const recentCount = 5

var dashboardKey = cache.Key("admin", "dashboard")

type DashboardStats struct {
	TotalUsers          int64 `json:"totalUsers"`
	ActiveUsers         int64 `json:"activeUsers"`
	TotalPets           int64 `json:"totalPets"`
	ApprovedPets        int64 `json:"approvedPets"`
	PendingPets         int64 `json:"pendingPets"`
	TotalReports        int64 `json:"totalReports"`
	PendingReports      int64 `json:"pendingReports"`
	HighPriorityReports int64 `json:"highPriorityReports"`
}

type RecentActivity struct {
	Users   []domain.User   `json:"users"`
	Pets    []domain.Pet    `json:"pets"`
	Reports []domain.Report `json:"reports"`
}

type Dashboard struct {
	Stats  DashboardStats `json:"stats"`
	Recent RecentActivity `json:"recent"`
}

type UserQuery struct {
	Role     string `form:"role" binding:"omitempty,oneof=user admin shelter vet"`
	IsActive *bool  `form:"isActive"`
	Search   string `form:"search" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type UserPage struct {
	Users      []domain.User     `json:"users"`
	Pagination domain.Pagination `json:"pagination"`
}

type UserDetail struct {
	domain.User
	Pets []domain.Pet `json:"pets"`
}

type AdminUserInput struct {
	Name            *string      `json:"name" binding:"omitempty,min=2,max=50,personname"`
	Email           *string      `json:"email" binding:"omitempty,email"`
	Phone           *string      `json:"phone" binding:"omitempty,phone"`
	Role            *domain.Role `json:"role" binding:"omitempty,oneof=user admin shelter vet"`
	IsActive        *bool        `json:"isActive"`
	IsEmailVerified *bool        `json:"isEmailVerified"`
}

type AdminPetQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=missing found reunited"`
	IsApproved *bool  `form:"isApproved"`
	IsActive   *bool  `form:"isActive"`
	Owner      string `form:"owner"`
	Search     string `form:"search" binding:"max=100"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type AdminService struct {
	store        domain.Store
	pets         *PetService
	reports      *ReportService
	cache        *cache.Cache
	dashboardTTL time.Duration
	log          *zap.Logger
}

func NewAdminService(store domain.Store, pets *PetService, reports *ReportService, c *cache.Cache, dashboardTTL time.Duration, log *zap.Logger) *AdminService {
	return &AdminService{store: store, pets: pets, reports: reports, cache: c, dashboardTTL: dashboardTTL, log: log}
}

// Dashboard gathers the counts and recent lists concurrently. The result is
// cached for dashboardTTL when redis is configured.
func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	return cache.GetOrLoadJSON(s.cache, ctx, dashboardKey, s.dashboardTTL, s.loadDashboard)
}

func (s *AdminService) loadDashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	st := &d.Stats
	g, ctx := errgroup.WithContext(ctx)
	count := func(dst *int64, fn func() (int64, error)) {
		g.Go(func() error {
			n, err := fn()
			*dst = n
			return err
		})
	}
	users, pets, reports := s.store.Users(), s.store.Pets(), s.store.Reports()
	open := []domain.ReportStatus{domain.ReportPending, domain.ReportUnderReview}

	count(&st.TotalUsers, func() (int64, error) { return users.Count(ctx, domain.UserFilter{}) })
	count(&st.ActiveUsers, func() (int64, error) { return users.Count(ctx, domain.UserFilter{IsActive: domain.Bool(true)}) })
	count(&st.TotalPets, func() (int64, error) { return pets.Count(ctx, domain.PetFilter{}) })
	count(&st.ApprovedPets, func() (int64, error) { return pets.Count(ctx, domain.PetFilter{IsApproved: domain.Bool(true)}) })
	count(&st.PendingPets, func() (int64, error) { return pets.Count(ctx, domain.PetFilter{IsApproved: domain.Bool(false)}) })
	count(&st.TotalReports, func() (int64, error) { return reports.Count(ctx, domain.ReportFilter{}) })
	count(&st.PendingReports, func() (int64, error) {
		return reports.Count(ctx, domain.ReportFilter{Statuses: []domain.ReportStatus{domain.ReportPending}})
	})
	count(&st.HighPriorityReports, func() (int64, error) {
		return reports.Count(ctx, domain.ReportFilter{
			Statuses:   open,
			Priorities: []domain.ReportPriority{domain.PriorityHigh, domain.PriorityUrgent},
		})
	})

	g.Go(func() (err error) {
		d.Recent.Users, err = users.Recent(ctx, recentCount)
		return err
	})
	g.Go(func() (err error) {
		d.Recent.Pets, err = pets.Recent(ctx, recentCount)
		return err
	})
	g.Go(func() (err error) {
		d.Recent.Reports, err = reports.Recent(ctx, recentCount)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *AdminService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardKey); err != nil {
		s.log.Warn("dashboard cache invalidate failed", zap.Error(err))
	}
}

func (s *AdminService) ListUsers(ctx context.Context, q UserQuery) (*UserPage, error) {
	p := domain.NewPage(q.Page, q.Limit)
	us, total, err := s.store.Users().List(ctx, domain.UserFilter{
		Role:     domain.Role(q.Role),
		IsActive: q.IsActive,
		Search:   strings.TrimSpace(q.Search),
	}, p)
	if err != nil {
		return nil, err
	}
	if us == nil {
		us = []domain.User{}
	}
	return &UserPage{Users: us, Pagination: domain.NewPagination(p, total)}, nil
}

func (s *AdminService) user(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "User not found")
	}
	return u, nil
}

func (s *AdminService) GetUser(ctx context.Context, id string) (*UserDetail, error) {
	u, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}
	pets, _, err := s.store.Pets().List(ctx, domain.PetFilter{OwnerID: id}, domain.NewPage(1, domain.MaxLimit))
	if err != nil {
		return nil, err
	}
	if pets == nil {
		pets = []domain.Pet{}
	}
	return &UserDetail{User: *u, Pets: pets}, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, admin *domain.User, id string, in AdminUserInput) (*domain.User, error) {
	u, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Role != nil && *in.Role != u.Role && u.ID == admin.ID {
		return nil, errs.BadRequest("Cannot modify your own role")
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		u.Email = normalizeEmail(*in.Email)
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsEmailVerified != nil {
		u.IsEmailVerified = *in.IsEmailVerified
	}
	err = s.store.Users().Update(ctx, u)
	if errors.Is(err, domain.ErrDuplicate) {
		return nil, errs.Conflict("Email is already in use")
	}
	if err != nil {
		return nil, missing(err, "User not found")
	}
	s.invalidate(ctx)
	return u, nil
}

// DeleteUser deactivates the account and every post it owns.
func (s *AdminService) DeleteUser(ctx context.Context, admin *domain.User, id string) error {
	if id == admin.ID {
		return errs.BadRequest("Cannot delete your own account")
	}
	u, err := s.user(ctx, id)
	if err != nil {
		return err
	}
	u.IsActive = false
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		n, err := tx.Pets().DeactivateByOwner(ctx, u.ID)
		if err != nil {
			return err
		}
		s.log.Info("user deactivated", zap.String("user", u.ID), zap.Int64("pets", n))
		return nil
	})
	if err != nil {
		return missing(err, "User not found")
	}
	s.invalidate(ctx)
	return nil
}

func (s *AdminService) ListPets(ctx context.Context, q AdminPetQuery) (*PetPage, error) {
	return s.pets.page(ctx, domain.PetFilter{
		Status:     domain.PetStatus(q.Status),
		IsApproved: q.IsApproved,
		IsActive:   q.IsActive,
		OwnerID:    q.Owner,
		Search:     strings.TrimSpace(q.Search),
	}, domain.NewPage(q.Page, q.Limit))
}

// GetPet shows any post, removed ones included, without counting a view.
func (s *AdminService) GetPet(ctx context.Context, id string) (*domain.Pet, error) {
	return s.pets.load(ctx, id)
}

func (s *AdminService) UpdatePet(ctx context.Context, admin *domain.User, id string, in PetInput, files []PhotoFile) (*domain.Pet, error) {
	p, err := s.pets.Update(ctx, admin, id, in, files)
	if err == nil {
		s.invalidate(ctx)
	}
	return p, err
}

func (s *AdminService) ApprovePet(ctx context.Context, admin *domain.User, id string) (*domain.Pet, error) {
	p, err := s.pets.Approve(ctx, admin, id)
	if err == nil {
		s.invalidate(ctx)
	}
	return p, err
}

func (s *AdminService) DeletePet(ctx context.Context, admin *domain.User, id string) error {
	err := s.pets.Delete(ctx, admin, id)
	if err == nil {
		s.invalidate(ctx)
	}
	return err
}

func (s *AdminService) ListReports(ctx context.Context, q ReportQuery) (*ReportPage, error) {
	return s.reports.AdminList(ctx, q)
}

func (s *AdminService) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	return s.reports.AdminGet(ctx, id)
}

func (s *AdminService) UpdateReport(ctx context.Context, admin *domain.User, id string, in AdminReportInput) (*domain.Report, error) {
	r, err := s.reports.AdminUpdate(ctx, admin, id, in)
	if err == nil {
		s.invalidate(ctx)
	}
	return r, err
}
