package service

import (
	"context"
	"errors"

	"lostfound/internal/core/errs"
	"lostfound/internal/domain"
)

// ResourceKind names a resource type whose owner can be resolved by id.
type ResourceKind int

const (
	ResourcePet ResourceKind = iota + 1
	ResourceReport
	ResourceNotification
)

func (k ResourceKind) String() string {
	switch k {
	case ResourcePet:
		return "Pet"
	case ResourceReport:
		return "Report"
	case ResourceNotification:
		return "Notification"
	}
	return "Resource"
}

type ownerResolver func(ctx context.Context, s domain.Store, id string) (string, error)

var ownerResolvers = map[ResourceKind]ownerResolver{
	ResourcePet: func(ctx context.Context, s domain.Store, id string) (string, error) {
		p, err := s.Pets().FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return p.OwnerID, nil
	},
	ResourceReport: func(ctx context.Context, s domain.Store, id string) (string, error) {
		r, err := s.Reports().FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return r.ReporterID, nil
	},
	ResourceNotification: func(ctx context.Context, s domain.Store, id string) (string, error) {
		n, err := s.Notifications().FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return n.RecipientID, nil
	},
}

var errUnknownKind = errors.New("ownership: unknown resource kind")

type Ownership struct {
	store domain.Store
}

func NewOwnership(store domain.Store) *Ownership { return &Ownership{store: store} }

// Check lets admins through and otherwise requires caller to own the
// resource. A missing resource is a 404 for everyone.
func (o *Ownership) Check(ctx context.Context, kind ResourceKind, id string, caller *domain.User) error {
	resolve, ok := ownerResolvers[kind]
	if !ok {
		return errs.Internal("ownership check misconfigured", errUnknownKind)
	}
	owner, err := resolve(ctx, o.store, id)
	if err != nil {
		return missing(err, kind.String()+" not found")
	}
	if caller.IsAdmin() {
		return nil
	}
	if caller == nil || owner != caller.ID {
		return errs.Forbidden("Not authorized to access this resource")
	}
	return nil
}
