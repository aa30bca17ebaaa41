package service

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/noah-isme/sma-report-cards/pkg/errors"
)

type identityRepository interface {
	AdminSchoolID(ctx context.Context, userID string) (string, error)
	TeacherSchoolID(ctx context.Context, userID string) (string, error)
}

// AccessService enforces that callers act only on their own school.
type AccessService struct {
	identities identityRepository
}

// NewAccessService constructs the service.
func NewAccessService(identities identityRepository) *AccessService {
	return &AccessService{identities: identities}
}

// ResolveCallerSchool finds the school of a staff user. Admins are checked
// before teachers and the first match wins.
func (s *AccessService) ResolveCallerSchool(ctx context.Context, callerID string) (string, error) {
	if callerID == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "caller not identified")
	}
	schoolID, err := s.identities.AdminSchoolID(ctx, callerID)
	if err == nil {
		return schoolID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve caller")
	}
	schoolID, err = s.identities.TeacherSchoolID(ctx, callerID)
	if err == nil {
		return schoolID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve caller")
	}
	return "", appErrors.Clone(appErrors.ErrUnauthorized, "caller is not staff of any school")
}

// AuthorizeSchool fails with ErrUnauthorized unless the caller belongs to schoolID.
func (s *AccessService) AuthorizeSchool(ctx context.Context, callerID, schoolID string) error {
	callerSchool, err := s.ResolveCallerSchool(ctx, callerID)
	if err != nil {
		return err
	}
	if schoolID == "" || callerSchool != schoolID {
		return appErrors.Clone(appErrors.ErrUnauthorized, "caller does not belong to this school")
	}
	return nil
}
