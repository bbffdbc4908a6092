package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lostfound/internal/core/errs"
	"lostfound/internal/core/mail"
	"lostfound/internal/core/media"
	"lostfound/internal/domain"
)

const (
	MaxPhotos      = 10
	MaxPhotoMB     = 5
	uploadParallel = 4
	defaultRadius  = 10
)

// PetInput carries the writable fields of a pet post. Nil fields are left
// as they are on update and fail the required checks on create.
type PetInput struct {
	Name            *string
	Type            *domain.PetType
	Breed           *string
	Color           *string
	Gender          *domain.Gender
	Age             *float64
	AgeUnit         *domain.AgeUnit
	Weight          *float64
	WeightUnit      *domain.WeightUnit
	Status          *domain.PetStatus
	Location        *domain.Location
	LastSeenDate    *time.Time
	AdditionalNotes *string
	MicrochipNumber *string
	Collar          *domain.Collar
	Tags            *[]string
	// RetainedPhotos lists the current photos to keep; nil keeps them all.
	RetainedPhotos *[]string
	// IsApproved and IsActive are honoured for admins only.
	IsApproved *bool
	IsActive   *bool
}

type PetQuery struct {
	Status    string   `form:"status" binding:"omitempty,oneof=missing found reunited"`
	Type      string   `form:"type" binding:"omitempty,oneof=dog cat bird rabbit hamster fish other"`
	Breed     string   `form:"breed" binding:"max=100"`
	Color     string   `form:"color" binding:"max=100"`
	Gender    string   `form:"gender" binding:"omitempty,oneof=male female unknown"`
	DateFrom  string   `form:"dateFrom"`
	DateTo    string   `form:"dateTo"`
	Latitude  *float64 `form:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `form:"longitude" binding:"omitempty,min=-180,max=180"`
	Radius    float64  `form:"radius" binding:"omitempty,min=0.1,max=100"`
	Search    string   `form:"search" binding:"max=100"`
	Page      int      `form:"page" binding:"omitempty,min=1"`
	Limit     int      `form:"limit" binding:"omitempty,min=1,max=100"`
}

type ContactInput struct {
	Name    string `json:"name" binding:"required,min=2,max=50"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"required,phone"`
	Message string `json:"message" binding:"required,min=10,max=1000"`
}

type PetPage struct {
	Pets       []domain.Pet      `json:"pets"`
	Pagination domain.Pagination `json:"pagination"`
}

type PetService struct {
	store    domain.Store
	media    media.Store
	mailer   Mailer
	notifier *Notifier
	log      *zap.Logger
	now      Clock
	photoMB  int
}

func NewPetService(store domain.Store, m media.Store, mailer Mailer, notifier *Notifier, log *zap.Logger) *PetService {
	return &PetService{store: store, media: m, mailer: mailer, notifier: notifier, log: log, now: time.Now, photoMB: MaxPhotoMB}
}

// LimitPhotoSize sets the per-photo upload cap in megabytes. Non-positive
// values keep the default.
func (s *PetService) LimitPhotoSize(mb int) {
	if mb > 0 {
		s.photoMB = mb
	}
}

// ParseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func (q PetQuery) filter() (domain.PetFilter, domain.Page, error) {
	f := domain.PetFilter{
		Status: domain.PetStatus(q.Status),
		Type:   domain.PetType(q.Type),
		Gender: domain.Gender(q.Gender),
		Breed:  strings.TrimSpace(q.Breed),
		Color:  strings.TrimSpace(q.Color),
		Search: strings.TrimSpace(q.Search),
	}
	bad := errs.Fields{}
	if q.DateFrom != "" {
		t, err := ParseDate(q.DateFrom)
		if err != nil {
			bad.Add("dateFrom", "Invalid date format")
		} else {
			f.DateFrom = &t
		}
	}
	if q.DateTo != "" {
		t, err := ParseDate(q.DateTo)
		if err != nil {
			bad.Add("dateTo", "Invalid date format")
		} else {
			f.DateTo = &t
		}
	}
	if q.Latitude != nil && q.Longitude != nil {
		r := q.Radius
		if r == 0 {
			r = defaultRadius
		}
		f.Near = &domain.GeoQuery{Center: domain.GeoPoint{Lng: *q.Longitude, Lat: *q.Latitude}, RadiusKm: r}
	}
	return f, domain.NewPage(q.Page, q.Limit), bad.Err()
}

func (s *PetService) page(ctx context.Context, f domain.PetFilter, p domain.Page) (*PetPage, error) {
	pets, total, err := s.store.Pets().List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	if pets == nil {
		pets = []domain.Pet{}
	}
	return &PetPage{Pets: pets, Pagination: domain.NewPagination(p, total)}, nil
}

// List shows active posts. Callers other than admins only ever see
// approved ones.
func (s *PetService) List(ctx context.Context, caller *domain.User, q PetQuery) (*PetPage, error) {
	f, p, err := q.filter()
	if err != nil {
		return nil, err
	}
	f.IsActive = domain.Bool(true)
	if !caller.IsAdmin() {
		f.IsApproved = domain.Bool(true)
	}
	return s.page(ctx, f, p)
}

func (s *PetService) Nearby(ctx context.Context, q PetQuery) (*PetPage, error) {
	if q.Latitude == nil || q.Longitude == nil {
		return nil, errs.BadRequest("Latitude and longitude are required")
	}
	f, p, err := q.filter()
	if err != nil {
		return nil, err
	}
	f.IsActive = domain.Bool(true)
	f.IsApproved = domain.Bool(true)
	return s.page(ctx, f, p)
}

func (s *PetService) MyPets(ctx context.Context, caller *domain.User, q PetQuery) (*PetPage, error) {
	f, p, err := q.filter()
	if err != nil {
		return nil, err
	}
	f.OwnerID = caller.ID
	return s.page(ctx, f, p)
}

func (s *PetService) load(ctx context.Context, id string) (*domain.Pet, error) {
	p, err := s.store.Pets().FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "Pet not found")
	}
	return p, nil
}

// Get returns an active post and counts the view.
func (s *PetService) Get(ctx context.Context, id string) (*domain.Pet, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, errs.NotFound("Pet post not found or has been removed")
	}
	if err := s.store.Pets().IncrementViews(ctx, id); err != nil {
		return nil, missing(err, "Pet not found")
	}
	p.Views++
	return p, nil
}

func (s *PetService) checkPhotos(files []PhotoFile) error {
	if len(files) > MaxPhotos {
		return errs.BadRequest(fmt.Sprintf("Too many files. Maximum %d files allowed.", MaxPhotos))
	}
	for _, f := range files {
		if !strings.HasPrefix(f.ContentType, "image/") {
			return errs.BadRequest("Only image files are allowed!")
		}
		if f.Size > int64(s.photoMB)<<20 {
			return errs.BadRequest(fmt.Sprintf("File too large. Maximum size is %dMB.", s.photoMB))
		}
	}
	return nil
}

// upload pushes files to the media store and returns their URLs in input
// order. Anything already uploaded is removed again when one upload fails.
func (s *PetService) upload(ctx context.Context, files []PhotoFile) ([]string, error) {
	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadParallel)
	for i, f := range files {
		g.Go(func() error {
			rc, err := f.Open()
			if err != nil {
				return err
			}
			defer rc.Close()
			u, err := s.media.Upload(gctx, rc, f.Filename)
			if err != nil {
				return err
			}
			urls[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.purge(context.WithoutCancel(ctx), slices.DeleteFunc(urls, func(u string) bool { return u == "" }))
		if errors.Is(err, media.ErrNotConfigured) {
			return nil, errs.Upstream(http.StatusInternalServerError, "Photo storage is not configured", err)
		}
		return nil, errs.Upstream(http.StatusInternalServerError, "Error uploading photos", err)
	}
	return urls, nil
}

func (s *PetService) purge(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	if err := media.DeleteAll(ctx, s.media, urls); err != nil {
		s.log.Warn("photo purge failed", zap.Strings("urls", urls), zap.Error(err))
	}
}

func (in PetInput) apply(p *domain.Pet) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Name, in.Name)
	set(&p.Breed, in.Breed)
	set(&p.Color, in.Color)
	set(&p.AdditionalNotes, in.AdditionalNotes)
	set(&p.MicrochipNumber, in.MicrochipNumber)
	if in.Type != nil {
		p.Type = *in.Type
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Age != nil {
		p.Age = in.Age
	}
	if in.AgeUnit != nil {
		p.AgeUnit = *in.AgeUnit
	}
	if in.Weight != nil {
		p.Weight = in.Weight
	}
	if in.WeightUnit != nil {
		p.WeightUnit = *in.WeightUnit
	}
	if in.Location != nil {
		p.LastSeenLocation = *in.Location
	}
	if in.LastSeenDate != nil {
		p.LastSeenDate = *in.LastSeenDate
	}
	if in.Collar != nil {
		p.Collar = *in.Collar
	}
	if in.Tags != nil {
		tags := make([]string, 0, len(*in.Tags))
		for _, t := range *in.Tags {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		p.Tags = tags
	}
}

func validatePet(p *domain.Pet, now time.Time) error {
	f := errs.Fields{}
	switch {
	case p.Name == "":
		f.Add("name", "Pet name is required")
	case len(p.Name) > 50:
		f.Add("name", "Pet name cannot exceed 50 characters")
	}
	switch {
	case p.Type == "":
		f.Add("type", "Pet type is required")
	case !p.Type.Valid():
		f.Add("type", "Invalid pet type")
	}
	switch {
	case p.Breed == "":
		f.Add("breed", "Breed is required")
	case len(p.Breed) > 100:
		f.Add("breed", "Breed cannot exceed 100 characters")
	}
	switch {
	case p.Color == "":
		f.Add("color", "Color is required")
	case len(p.Color) > 100:
		f.Add("color", "Color cannot exceed 100 characters")
	}
	switch {
	case p.Gender == "":
		f.Add("gender", "Gender is required")
	case !p.Gender.Valid():
		f.Add("gender", "Invalid gender")
	}
	switch {
	case p.Status == "":
		f.Add("status", "Status is required")
	case !p.Status.Valid():
		f.Add("status", "Status must be missing, found, or reunited")
	}
	if p.Age != nil && (*p.Age < 0 || *p.Age > 30) {
		f.Add("age", "Age must be between 0 and 30")
	}
	if !p.AgeUnit.Valid() {
		f.Add("ageUnit", "Invalid age unit")
	}
	if p.Weight != nil && *p.Weight < 0 {
		f.Add("weight", "Weight must be a positive number")
	}
	if !p.WeightUnit.Valid() {
		f.Add("weightUnit", "Invalid weight unit")
	}

	loc := p.LastSeenLocation
	switch a := strings.TrimSpace(loc.Address); {
	case a == "":
		f.Add("lastSeenLocation.address", "Last seen address is required")
	case len(a) > 200:
		f.Add("lastSeenLocation.address", "Address cannot exceed 200 characters")
	}
	if len(loc.City) > 50 {
		f.Add("lastSeenLocation.city", "City cannot exceed 50 characters")
	}
	if len(loc.State) > 50 {
		f.Add("lastSeenLocation.state", "State cannot exceed 50 characters")
	}
	if len(loc.ZipCode) > 10 {
		f.Add("lastSeenLocation.zipCode", "Zip code cannot exceed 10 characters")
	}
	if pt := loc.Point(); pt != nil && !pt.Valid() {
		f.Add("lastSeenLocation.coordinates", "Invalid coordinates")
	}

	switch {
	case p.LastSeenDate.IsZero():
		f.Add("lastSeenDate", "Last seen date is required")
	case p.LastSeenDate.After(now):
		f.Add("lastSeenDate", "Last seen date cannot be in the future")
	}
	if len(p.AdditionalNotes) > 1000 {
		f.Add("additionalNotes", "Additional notes cannot exceed 1000 characters")
	}
	if len(p.MicrochipNumber) > 50 {
		f.Add("microchipNumber", "Microchip number cannot exceed 50 characters")
	}
	if len(p.Collar.Color) > 50 {
		f.Add("collar.color", "Collar color cannot exceed 50 characters")
	}
	if len(p.Collar.Description) > 200 {
		f.Add("collar.description", "Collar description cannot exceed 200 characters")
	}
	for _, t := range p.Tags {
		if len(t) > 50 {
			f.Add("tags", "Each tag cannot exceed 50 characters")
			break
		}
	}
	return f.Err()
}

func (s *PetService) Create(ctx context.Context, caller *domain.User, in PetInput, files []PhotoFile) (*domain.Pet, error) {
	if len(files) == 0 {
		return nil, errs.BadRequest("At least one photo is required")
	}
	if err := s.checkPhotos(files); err != nil {
		return nil, err
	}
	now := s.now()
	p := &domain.Pet{
		ID:         newID(),
		OwnerID:    caller.ID,
		AgeUnit:    domain.AgeYears,
		WeightUnit: domain.WeightKg,
		Tags:       []string{},
		IsActive:   true,
		CreatedAt:  now,
	}
	in.apply(p)
	if err := validatePet(p, now); err != nil {
		return nil, err
	}

	urls, err := s.upload(ctx, files)
	if err != nil {
		return nil, err
	}
	p.Photos = urls
	if caller.IsAdmin() {
		p.Approve(caller.ID, now)
	}
	if err := s.store.Pets().Create(ctx, p); err != nil {
		s.purge(context.WithoutCancel(ctx), urls)
		return nil, err
	}
	p.Owner = caller
	return p, nil
}

// Update merges in over the stored post. Edits by anyone but an admin send
// the post back to moderation; an admin editing someone else's post tells
// the owner.
func (s *PetService) Update(ctx context.Context, caller *domain.User, id string, in PetInput, files []PhotoFile) (*domain.Pet, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != caller.ID && !caller.IsAdmin() {
		return nil, errs.Forbidden("Not authorized to update this pet")
	}
	if err := s.checkPhotos(files); err != nil {
		return nil, err
	}
	now := s.now()
	wasApproved := p.IsApproved
	before := slices.Clone(p.Photos)

	in.apply(p)
	if err := validatePet(p, now); err != nil {
		return nil, err
	}
	kept := slices.Clone(before)
	if in.RetainedPhotos != nil {
		kept = slices.DeleteFunc(kept, func(u string) bool {
			return !slices.Contains(*in.RetainedPhotos, u)
		})
	}
	if len(kept)+len(files) == 0 {
		return nil, errs.BadRequest("At least one photo is required")
	}

	if caller.IsAdmin() {
		if in.IsActive != nil {
			p.IsActive = *in.IsActive
		}
		if in.IsApproved != nil {
			switch {
			case *in.IsApproved && !wasApproved:
				p.Approve(caller.ID, now)
			case !*in.IsApproved:
				p.ClearApproval()
			}
		}
	} else {
		p.ClearApproval()
	}

	uploaded, err := s.upload(ctx, files)
	if err != nil {
		return nil, err
	}
	p.Photos = append(kept, uploaded...)

	owner := p.Owner
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Pets().Update(ctx, p); err != nil {
			return err
		}
		if !caller.IsAdmin() || owner == nil || owner.ID == caller.ID {
			return nil
		}
		if p.IsApproved && !wasApproved {
			if _, err := s.notifier.Notify(ctx, tx, approvedNotice(p, owner, caller.ID)); err != nil {
				return err
			}
		}
		_, err := s.notifier.Notify(ctx, tx, Notice{
			Recipient: owner,
			SenderID:  caller.ID,
			Type:      domain.NotifyPostEdited,
			Title:     "Your pet post has been edited",
			Message:   fmt.Sprintf("An administrator has edited your post about %s.", p.Name),
			PetID:     p.ID,
			Email:     mail.PostEdited,
			EmailData: map[string]any{"userName": owner.Name, "petName": p.Name},
		})
		return err
	})
	if err != nil {
		s.purge(context.WithoutCancel(ctx), uploaded)
		return nil, missing(err, "Pet not found")
	}

	removed := slices.DeleteFunc(before, func(u string) bool { return slices.Contains(p.Photos, u) })
	s.purge(ctx, removed)
	return p, nil
}

func approvedNotice(p *domain.Pet, owner *domain.User, adminID string) Notice {
	return Notice{
		Recipient: owner,
		SenderID:  adminID,
		Type:      domain.NotifyPostApproved,
		Title:     "Your pet post has been approved",
		Message:   fmt.Sprintf("Your post about %s has been approved and is now live.", p.Name),
		PetID:     p.ID,
		Email:     mail.PostApproved,
		EmailData: map[string]any{"userName": owner.Name, "petName": p.Name},
	}
}

// Delete removes the post and its photos for good.
func (s *PetService) Delete(ctx context.Context, caller *domain.User, id string) error {
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if p.OwnerID != caller.ID && !caller.IsAdmin() {
		return errs.Forbidden("Not authorized to delete this pet")
	}
	s.purge(ctx, p.Photos)
	return missing(s.store.Pets().Delete(ctx, id), "Pet not found")
}

func (s *PetService) Reunite(ctx context.Context, caller *domain.User, id string) (*domain.Pet, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != caller.ID && !caller.IsAdmin() {
		return nil, errs.Forbidden("Not authorized to update this pet")
	}
	p.Status = domain.PetReunited
	if err := s.store.Pets().Update(ctx, p); err != nil {
		return nil, missing(err, "Pet not found")
	}
	return p, nil
}

func (s *PetService) Approve(ctx context.Context, admin *domain.User, id string) (*domain.Pet, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsApproved {
		return nil, errs.BadRequest("Pet is already approved")
	}
	p.Approve(admin.ID, s.now())
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Pets().Update(ctx, p); err != nil {
			return err
		}
		if p.Owner == nil {
			return nil
		}
		_, err := s.notifier.Notify(ctx, tx, approvedNotice(p, p.Owner, admin.ID))
		return err
	})
	if err != nil {
		return nil, missing(err, "Pet not found")
	}
	return p, nil
}

// Contact emails the owner right away and fails when that email cannot be
// sent. The in-app notification that follows is best effort.
func (s *PetService) Contact(ctx context.Context, caller *domain.User, id string, in ContactInput) error {
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return errs.NotFound("Pet post not found or has been removed")
	}
	if !p.IsApproved {
		return errs.Forbidden("Cannot contact owner of unapproved post")
	}
	if p.Owner == nil {
		return errs.NotFound("Pet owner not found")
	}
	if err := s.store.Pets().IncrementContacts(ctx, id); err != nil {
		return missing(err, "Pet not found")
	}

	err = s.mailer.Send(ctx, p.Owner.Email, mail.ContactRequest, map[string]any{
		"userName":       p.Owner.Name,
		"petName":        p.Name,
		"contactName":    in.Name,
		"contactEmail":   in.Email,
		"contactPhone":   in.Phone,
		"contactMessage": in.Message,
	})
	if err != nil {
		s.log.Error("contact email failed", zap.String("pet", id), zap.Error(err))
		return errs.Upstream(http.StatusInternalServerError, "Error sending contact email", err)
	}

	sender := ""
	if caller != nil {
		sender = caller.ID
	}
	_, err = s.notifier.Notify(ctx, s.store, Notice{
		Recipient: p.Owner,
		SenderID:  sender,
		Type:      domain.NotifyContactRequest,
		Title:     "New contact request",
		Message:   fmt.Sprintf("Someone is interested in your post about %s.", p.Name),
		PetID:     p.ID,
		Metadata: map[string]any{"contactInfo": map[string]any{
			"name":    in.Name,
			"email":   in.Email,
			"phone":   in.Phone,
			"message": in.Message,
		}},
	})
	if err != nil {
		s.log.Warn("contact notification failed", zap.String("pet", id), zap.Error(err))
	}
	return nil
}
