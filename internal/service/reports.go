package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"lostfound/internal/core/errs"
	"lostfound/internal/core/mail"
	"lostfound/internal/domain"
)

const duplicateReportWindow = 24 * time.Hour

type CreateReportInput struct {
	Type           domain.ReportType `json:"type" binding:"required,oneof=user pet_post spam inappropriate fake duplicate other"`
	Reason         string            `json:"reason" binding:"required,max=500"`
	Description    string            `json:"description" binding:"max=1000"`
	ReportedUserID *string           `json:"reportedUserId"`
	ReportedPetID  *string           `json:"reportedPetId"`
	Evidence       []string          `json:"evidence" binding:"omitempty,max=10,dive,url"`
}

type UpdateReportInput struct {
	Reason      *string  `json:"reason" binding:"omitempty,min=1,max=500"`
	Description *string  `json:"description" binding:"omitempty,max=1000"`
	Evidence    []string `json:"evidence" binding:"omitempty,max=10,dive,url"`
}

type AdminReportInput struct {
	Status     *domain.ReportStatus   `json:"status" binding:"omitempty,oneof=pending under_review resolved dismissed"`
	Priority   *domain.ReportPriority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	AdminNotes *string                `json:"adminNotes" binding:"omitempty,max=1000"`
	Action     *domain.ReportAction   `json:"action" binding:"omitempty,oneof=none warn_user delete_post disable_user ban_user other"`
}

type ReportQuery struct {
	Status       string `form:"status" binding:"omitempty,oneof=pending under_review resolved dismissed"`
	Type         string `form:"type" binding:"omitempty,oneof=user pet_post spam inappropriate fake duplicate other"`
	Priority     string `form:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Reporter     string `form:"reporter"`
	ReportedUser string `form:"reportedUser"`
	ReportedPet  string `form:"reportedPet"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	Limit        int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q ReportQuery) filter() (domain.ReportFilter, domain.Page) {
	f := domain.ReportFilter{
		Type:           domain.ReportType(q.Type),
		ReporterID:     q.Reporter,
		ReportedUserID: q.ReportedUser,
	}
	if q.Status != "" {
		f.Statuses = []domain.ReportStatus{domain.ReportStatus(q.Status)}
	}
	if q.Priority != "" {
		f.Priorities = []domain.ReportPriority{domain.ReportPriority(q.Priority)}
	}
	if q.ReportedPet != "" {
		f.ReportedPetIDs = []string{q.ReportedPet}
	}
	return f, domain.NewPage(q.Page, q.Limit)
}

type ReportPage struct {
	Reports    []domain.Report   `json:"reports"`
	Pagination domain.Pagination `json:"pagination"`
}

type ReportService struct {
	store    domain.Store
	notifier *Notifier
	log      *zap.Logger
	now      Clock
}

func NewReportService(store domain.Store, notifier *Notifier, log *zap.Logger) *ReportService {
	return &ReportService{store: store, notifier: notifier, log: log, now: time.Now}
}

func (s *ReportService) load(ctx context.Context, id string) (*domain.Report, error) {
	r, err := s.store.Reports().FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "Report not found")
	}
	return r, nil
}

func (s *ReportService) page(ctx context.Context, f domain.ReportFilter, p domain.Page) (*ReportPage, error) {
	rs, total, err := s.store.Reports().List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		rs = []domain.Report{}
	}
	return &ReportPage{Reports: rs, Pagination: domain.NewPagination(p, total)}, nil
}

// Create files a report against exactly one user or pet post and
// acknowledges it to the reporter.
func (s *ReportService) Create(ctx context.Context, caller *domain.User, in CreateReportInput) (*domain.Report, error) {
	userID := strings.TrimSpace(deref(in.ReportedUserID))
	petID := strings.TrimSpace(deref(in.ReportedPetID))
	switch {
	case userID == "" && petID == "":
		return nil, errs.Validation(map[string]string{"target": "Must specify either a user or pet to report"})
	case userID != "" && petID != "":
		return nil, errs.BadRequest("Report either a user or a pet post, not both")
	}

	var subject string
	if userID != "" {
		if userID == caller.ID {
			return nil, errs.BadRequest("Cannot report yourself")
		}
		u, err := s.store.Users().FindByID(ctx, userID)
		if err != nil {
			return nil, missing(err, "Reported user not found")
		}
		subject = u.Name
	} else {
		p, err := s.store.Pets().FindByID(ctx, petID)
		if err != nil {
			return nil, missing(err, "Reported pet not found")
		}
		if p.OwnerID == caller.ID {
			return nil, errs.BadRequest("Cannot report your own pet post")
		}
		subject = p.Name
	}

	now := s.now()
	target := domain.ReportTarget{UserID: userID, PetID: petID}
	dup, err := s.store.Reports().ExistsSince(ctx, caller.ID, target, now.Add(-duplicateReportWindow))
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, errs.BadRequest("You have already reported this recently. Please wait 24 hours before reporting again.")
	}

	evidence := in.Evidence
	if evidence == nil {
		evidence = []string{}
	}
	r := &domain.Report{
		ID:             newID(),
		ReporterID:     caller.ID,
		ReportedUserID: strPtr(userID),
		ReportedPetID:  strPtr(petID),
		Type:           in.Type,
		Reason:         strings.TrimSpace(in.Reason),
		Description:    strings.TrimSpace(in.Description),
		Evidence:       evidence,
		Status:         domain.ReportPending,
		Priority:       domain.PriorityMedium,
		ActionTaken:    domain.ActionNone,
		CreatedAt:      now,
	}
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Reports().Create(ctx, r); err != nil {
			return err
		}
		_, err := s.notifier.Notify(ctx, tx, Notice{
			Recipient: caller,
			Type:      domain.NotifyReportReceived,
			Title:     "Report received",
			Message:   fmt.Sprintf("We have received your report about %s. Our moderation team will review it.", subject),
			ReportID:  r.ID,
			Email:     mail.ReportReceived,
			EmailData: map[string]any{"userName": caller.Name, "reportType": string(r.Type)},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListMine returns reports the caller filed or is the subject of.
func (s *ReportService) ListMine(ctx context.Context, caller *domain.User, q ReportQuery) (*ReportPage, error) {
	f, p := q.filter()
	f.ReporterID, f.ReportedUserID, f.ReportedPetIDs = "", "", nil
	f.Involving = caller.ID
	return s.page(ctx, f, p)
}

func (s *ReportService) AboutMe(ctx context.Context, caller *domain.User, q ReportQuery) (*ReportPage, error) {
	f, p := q.filter()
	f.ReporterID, f.ReportedPetIDs = "", nil
	f.ReportedUserID = caller.ID
	return s.page(ctx, f, p)
}

func (s *ReportService) AboutMyPets(ctx context.Context, caller *domain.User, q ReportQuery) (*ReportPage, error) {
	ids, err := s.store.Pets().IDsByOwner(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	f, p := q.filter()
	f.ReporterID, f.ReportedUserID = "", ""
	f.ReportedPetIDs = ids
	if f.ReportedPetIDs == nil {
		f.ReportedPetIDs = []string{}
	}
	return s.page(ctx, f, p)
}

func (s *ReportService) Get(ctx context.Context, caller *domain.User, id string) (*domain.Report, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.IsAdmin() || r.ReporterID == caller.ID || deref(r.ReportedUserID) == caller.ID {
		return r, nil
	}
	return nil, errs.Forbidden("Not authorized to view this report")
}

func (s *ReportService) own(ctx context.Context, caller *domain.User, id, verb string) (*domain.Report, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.ReporterID != caller.ID {
		return nil, errs.Forbidden("Not authorized to " + verb + " this report")
	}
	if r.Status != domain.ReportPending {
		return nil, errs.BadRequest("Cannot " + verb + " a report that has been reviewed")
	}
	return r, nil
}

func (s *ReportService) UpdateOwn(ctx context.Context, caller *domain.User, id string, in UpdateReportInput) (*domain.Report, error) {
	r, err := s.own(ctx, caller, id, "update")
	if err != nil {
		return nil, err
	}
	if in.Reason != nil {
		r.Reason = strings.TrimSpace(*in.Reason)
	}
	if in.Description != nil {
		r.Description = strings.TrimSpace(*in.Description)
	}
	if in.Evidence != nil {
		r.Evidence = in.Evidence
	}
	if err := s.store.Reports().Update(ctx, r); err != nil {
		return nil, missing(err, "Report not found")
	}
	return r, nil
}

func (s *ReportService) DeleteOwn(ctx context.Context, caller *domain.User, id string) error {
	if _, err := s.own(ctx, caller, id, "delete"); err != nil {
		return err
	}
	return missing(s.store.Reports().Delete(ctx, id), "Report not found")
}

func (s *ReportService) AdminList(ctx context.Context, q ReportQuery) (*ReportPage, error) {
	f, p := q.filter()
	f.ByPriority = true
	return s.page(ctx, f, p)
}

func (s *ReportService) AdminGet(ctx context.Context, id string) (*domain.Report, error) {
	return s.load(ctx, id)
}

// AdminUpdate moves a report through moderation. Entering resolved tells
// the reporter what was done; entering dismissed does not.
func (s *ReportService) AdminUpdate(ctx context.Context, admin *domain.User, id string, in AdminReportInput) (*domain.Report, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	prev := r.Status

	if in.Priority != nil {
		r.Priority = *in.Priority
	}
	if in.AdminNotes != nil {
		r.AdminNotes = strings.TrimSpace(*in.AdminNotes)
	}
	if in.Action != nil {
		r.ActionTaken = *in.Action
	}
	if in.Status != nil {
		r.Status = *in.Status
	}

	resolvedNow := r.Status == domain.ReportResolved && prev != domain.ReportResolved
	switch {
	case r.Status == prev:
	case r.Status == domain.ReportUnderReview:
		r.ReviewedBy, r.ReviewedAt = &admin.ID, &now
	case resolvedNow:
		r.ActionTakenBy, r.ActionTakenAt = &admin.ID, &now
		if r.ReviewedBy == nil {
			r.ReviewedBy, r.ReviewedAt = &admin.ID, &now
		}
		r.IsResolved, r.ResolvedAt = true, &now
	case r.Status == domain.ReportDismissed:
		r.ReviewedBy, r.ReviewedAt = &admin.ID, &now
		r.IsResolved, r.ResolvedAt = true, &now
	}
	if r.Status.Open() {
		r.IsResolved, r.ResolvedAt = false, nil
	}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Reports().Update(ctx, r); err != nil {
			return err
		}
		if !resolvedNow || r.Reporter == nil {
			return nil
		}
		_, err := s.notifier.Notify(ctx, tx, Notice{
			Recipient: r.Reporter,
			SenderID:  admin.ID,
			Type:      domain.NotifyReportResolved,
			Title:     "Your report has been resolved",
			Message:   fmt.Sprintf("Your report has been reviewed and resolved. Action taken: %s.", r.ActionTaken),
			ReportID:  r.ID,
			Metadata:  map[string]any{"action": string(r.ActionTaken)},
			Email:     mail.ReportResolved,
			EmailData: map[string]any{
				"userName":   r.Reporter.Name,
				"reportType": string(r.Type),
				"action":     string(r.ActionTaken),
			},
		})
		return err
	})
	if err != nil {
		return nil, missing(err, "Report not found")
	}
	return r, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
