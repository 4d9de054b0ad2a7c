package profile

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/teacherconnect/backend/core"
	"github.com/teacherconnect/backend/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("profile not found")
)

type (
	Repository interface {
		GetEmployerProfile(ctx context.Context, userID string) (EmployerProfile, error)
		UpsertEmployerProfile(ctx context.Context, p EmployerProfile) (EmployerProfile, error)
		GetCollegeProfile(ctx context.Context, userID string) (CollegeProfile, error)
		UpsertCollegeProfile(ctx context.Context, p CollegeProfile) (CollegeProfile, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetEmployer returns an employer profile: the owner and admins always, a
// college only when the profile is visible.
func (svc *Service) GetEmployer(ctx context.Context, actor user.User, userID string) (EmployerProfile, error) {
	if err := user.Authorize(actor); err != nil {
		return EmployerProfile{}, err
	}
	p, err := svc.repo.GetEmployerProfile(ctx, userID)
	if err != nil {
		return EmployerProfile{}, err
	}
	if actor.ID != userID && !actor.IsAdmin() && !p.Settings.ProfileVisible {
		return EmployerProfile{}, ErrNotFound
	}
	p.Strength = p.ComputeStrength()
	return p, nil
}

// UpdateEmployer lazily creates or updates the employer profile. Only the
// owning employee or an admin may write it.
func (svc *Service) UpdateEmployer(ctx context.Context, actor user.User, userID string, up UpdateEmployerProfile) (EmployerProfile, error) {
	if err := user.Authorize(actor, user.RoleEmployee, user.RoleAdmin); err != nil {
		return EmployerProfile{}, err
	}
	if actor.ID != userID && !actor.IsAdmin() {
		return EmployerProfile{}, core.ErrForbidden
	}

	p, err := svc.repo.GetEmployerProfile(ctx, userID)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return EmployerProfile{}, err
		}
		p = EmployerProfile{
			UserID:    userID,
			Settings:  DefaultSettings,
			CreatedAt: time.Now().UTC(),
		}
	}

	p.DisplayName = up.DisplayName
	p.Phone = up.Phone
	p.Headline = up.Headline
	p.Bio = up.Bio
	p.Subjects = up.Subjects
	p.ExperienceYears = up.ExperienceYears
	p.ResumeURL = up.ResumeURL
	if up.Settings != nil {
		p.Settings = *up.Settings
	}
	p.UpdatedAt = time.Now().UTC()

	p, err = svc.repo.UpsertEmployerProfile(ctx, p)
	if err != nil {
		return EmployerProfile{}, err
	}
	p.Strength = p.ComputeStrength()
	return p, nil
}

// GetCollege returns a college profile; readable by any authenticated user.
func (svc *Service) GetCollege(ctx context.Context, actor user.User, userID string) (CollegeProfile, error) {
	if err := user.Authorize(actor); err != nil {
		return CollegeProfile{}, err
	}
	return svc.repo.GetCollegeProfile(ctx, userID)
}

// UpdateCollege lazily creates or updates the college profile. Only the
// owning college or an admin may write it; Verified only flips for admins.
func (svc *Service) UpdateCollege(ctx context.Context, actor user.User, userID string, up UpdateCollegeProfile) (CollegeProfile, error) {
	if err := user.Authorize(actor, user.RoleCollege, user.RoleAdmin); err != nil {
		return CollegeProfile{}, err
	}
	if actor.ID != userID && !actor.IsAdmin() {
		return CollegeProfile{}, core.ErrForbidden
	}
	if up.Verified != nil && !actor.IsAdmin() {
		return CollegeProfile{}, core.ErrForbidden
	}

	p, err := svc.repo.GetCollegeProfile(ctx, userID)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return CollegeProfile{}, err
		}
		p = CollegeProfile{
			UserID:    userID,
			Settings:  DefaultSettings,
			CreatedAt: time.Now().UTC(),
		}
	}

	p.CollegeName = up.CollegeName
	p.ContactPerson = up.ContactPerson
	p.Phone = up.Phone
	p.Website = up.Website
	p.City = up.City
	p.Description = up.Description
	if up.Verified != nil {
		p.Verified = *up.Verified
	}
	if up.Settings != nil {
		p.Settings = *up.Settings
	}
	p.UpdatedAt = time.Now().UTC()

	return svc.repo.UpsertCollegeProfile(ctx, p)
}

// EmailEnabled reports whether the user opted into email notifications.
// Users without a saved profile get the default (on).
func (svc *Service) EmailEnabled(ctx context.Context, userID string) bool {
	if p, err := svc.repo.GetEmployerProfile(ctx, userID); err == nil {
		return p.Settings.EmailNotifications
	}
	if p, err := svc.repo.GetCollegeProfile(ctx, userID); err == nil {
		return p.Settings.EmailNotifications
	}
	return DefaultSettings.EmailNotifications
}
