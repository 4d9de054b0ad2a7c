package application

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/teacherconnect/backend/core"
	"github.com/teacherconnect/backend/core/job"
	"github.com/teacherconnect/backend/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("application not found")
	ErrAlreadyApplied    = errors.New("an application for this job already exists")
	ErrInvalidTransition = errors.New("application status transition not allowed")
)

type (
	Repository interface {
		// CreateApplication fails with ErrAlreadyApplied when an application
		// for the same (user, job) pair exists.
		CreateApplication(ctx context.Context, app Application) (Application, error)
		GetApplicationByID(ctx context.Context, id string) (Application, error)
		GetApplicationByUserAndJob(ctx context.Context, userID, jobID string) (Application, error)
		// FilterApplications applies AND operation on available QueryFilter fields.
		FilterApplications(ctx context.Context, filter QueryFilter) ([]Application, error)
		// UpdateApplicationStatus writes status, category and any set detail
		// fields only if the stored status still equals prev; it returns
		// core.ErrConflict when the row changed since read. The write is atomic:
		// a lost race leaves the application untouched.
		UpdateApplicationStatus(ctx context.Context, app Application, prev Status) (Application, error)
	}

	// Notifier emits a best-effort notification record; failures are handled
	// (logged) by the implementation and never surface here.
	Notifier interface {
		Notify(ctx context.Context, userID, kind, title, message string, data map[string]interface{})
	}

	Service struct {
		repo     Repository
		jobs     job.Repository
		notifier Notifier
	}
)

func NewService(repo Repository, jobs job.Repository, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		jobs:     jobs,
		notifier: notifier,
	}
}

// Apply creates an application with status "applied" for an approved job, or
// promotes the employee's prior "saved" bookmark of it.
func (svc *Service) Apply(ctx context.Context, actor user.User, jobID string) (Application, error) {
	if err := user.Authorize(actor, user.RoleEmployee); err != nil {
		return Application{}, err
	}
	j, err := svc.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return Application{}, err
	}
	if j.Status != job.StatusApproved {
		return Application{}, job.ErrNotFound
	}

	var app Application
	prior, err := svc.repo.GetApplicationByUserAndJob(ctx, actor.ID, jobID)
	switch {
	case err == nil:
		if prior.Status != StatusSaved {
			return Application{}, ErrAlreadyApplied
		}
		// a prior bookmark becomes the application itself
		if app, err = svc.Transition(ctx, actor, prior.ID, StatusApplied); err != nil {
			return Application{}, err
		}
	case errors.Cause(err) == ErrNotFound:
		now := time.Now().UTC()
		app = Application{
			UserID:      actor.ID,
			JobID:       jobID,
			Status:      StatusApplied,
			Category:    CategoryOf(StatusApplied),
			AppliedDate: now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if app, err = svc.repo.CreateApplication(ctx, app); err != nil {
			return Application{}, err
		}
	default:
		return Application{}, err
	}

	svc.notifier.Notify(ctx, j.PostedBy, "new_application",
		"New application",
		fmt.Sprintf("%s applied to %q.", actor.Name, j.Title),
		map[string]interface{}{"application_id": app.ID, "job_id": j.ID},
	)
	return app, nil
}

// Save bookmarks an approved job for the employee without applying.
func (svc *Service) Save(ctx context.Context, actor user.User, jobID string) (Application, error) {
	if err := user.Authorize(actor, user.RoleEmployee); err != nil {
		return Application{}, err
	}
	j, err := svc.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return Application{}, err
	}
	if j.Status != job.StatusApproved {
		return Application{}, job.ErrNotFound
	}

	if app, err := svc.repo.GetApplicationByUserAndJob(ctx, actor.ID, jobID); err == nil {
		return app, nil // already saved or applied
	} else if errors.Cause(err) != ErrNotFound {
		return Application{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateApplication(ctx, Application{
		UserID:    actor.ID,
		JobID:     jobID,
		Status:    StatusSaved,
		Category:  CategoryOf(StatusSaved),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Get returns a single application: its employee, the college that posted the
// job, or an admin.
func (svc *Service) Get(ctx context.Context, actor user.User, id string) (Application, error) {
	if err := user.Authorize(actor); err != nil {
		return Application{}, err
	}
	app, err := svc.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err = svc.checkAccess(ctx, actor, app); err != nil {
		return Application{}, err
	}
	return app, nil
}

// Filter lists applications scoped to the actor's role: employees see their
// own, colleges see applications on their jobs, admins see everything.
func (svc *Service) Filter(ctx context.Context, actor user.User, filter QueryFilter) ([]Application, error) {
	if err := user.Authorize(actor); err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin():
	case actor.IsCollege():
		filter.JobPostedBy = actor.ID
	default:
		filter.UserID = actor.ID
	}
	return svc.repo.FilterApplications(ctx, filter)
}

// Transition moves an application along the lifecycle. Transitioning to the
// current status is a no-op success. The status write is conditional on the
// status read here; a concurrent update surfaces as core.ErrConflict and
// leaves the application unchanged.
func (svc *Service) Transition(ctx context.Context, actor user.User, id string, target Status) (Application, error) {
	if err := user.Authorize(actor); err != nil {
		return Application{}, err
	}
	if !target.Valid() {
		return Application{}, core.NewValidationError(
			nil, core.FieldError{Field: "status", Error: fmt.Sprintf("unknown status %q", target)})
	}

	app, err := svc.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	// ownership gates the no-op path too; a same-status request must not
	// hand the record to a foreign caller
	if err = svc.checkOwnership(ctx, actor, app); err != nil {
		return Application{}, err
	}

	if app.Status == target {
		return app, nil // idempotent
	}

	roles, ok := allowedEdge(app.Status, target)
	if !ok {
		return Application{}, ErrInvalidTransition
	}
	if err = user.Authorize(actor, roles...); err != nil {
		return Application{}, err
	}

	prev := app.Status
	app.Status = target
	app.Category = CategoryOf(target)
	if target == StatusApplied && app.AppliedDate.IsZero() {
		app.AppliedDate = time.Now().UTC()
	}
	app.UpdatedAt = time.Now().UTC()

	updated, err := svc.repo.UpdateApplicationStatus(ctx, app, prev)
	if err != nil {
		return Application{}, err
	}

	// status change is committed; notification is best-effort from here
	if actor.ID != updated.UserID {
		svc.notifier.Notify(ctx, updated.UserID, "application_status",
			"Application update",
			fmt.Sprintf("Your application moved to %q.", updated.Status),
			map[string]interface{}{"application_id": updated.ID, "status": string(updated.Status)},
		)
	}
	return updated, nil
}

// ForwardInterview copies admin-staged interview details into the
// application's employer-visible fields and schedules the interview. Unlike
// the step-by-step college flow, the admin pipeline may jump forward over
// intermediate statuses.
func (svc *Service) ForwardInterview(ctx context.Context, actor user.User, id string, details InterviewDetails) (Application, error) {
	if err := user.Authorize(actor, user.RoleAdmin); err != nil {
		return Application{}, err
	}
	app, err := svc.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err = checkForwardable(app, StatusInterviewScheduled); err != nil {
		return Application{}, err
	}

	details.ConfirmedByAdmin = true
	prev := app.Status
	app.Status = StatusInterviewScheduled
	app.Category = CategoryOf(StatusInterviewScheduled)
	app.Interview = &details
	app.UpdatedAt = time.Now().UTC()

	updated, err := svc.repo.UpdateApplicationStatus(ctx, app, prev)
	if err != nil {
		return Application{}, err
	}

	svc.notifier.Notify(ctx, updated.UserID, "interview_scheduled",
		"Interview scheduled",
		fmt.Sprintf("An interview has been scheduled on %s (%s).", details.ScheduledOn, details.InterviewType),
		map[string]interface{}{"application_id": updated.ID},
	)
	return updated, nil
}

// ForwardOffer copies admin-staged offer details (and optionally the offer
// letter) into the application and extends the offer.
func (svc *Service) ForwardOffer(ctx context.Context, actor user.User, id string, details OfferDetails, letterURL string) (Application, error) {
	if err := user.Authorize(actor, user.RoleAdmin); err != nil {
		return Application{}, err
	}
	app, err := svc.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err = checkForwardable(app, StatusOfferExtended); err != nil {
		return Application{}, err
	}

	prev := app.Status
	app.Status = StatusOfferExtended
	app.Category = CategoryOf(StatusOfferExtended)
	app.Offer = &details
	if letterURL != "" {
		app.OfferLetter = &OfferLetter{URL: letterURL, ForwardedByAdmin: true}
	}
	app.UpdatedAt = time.Now().UTC()

	updated, err := svc.repo.UpdateApplicationStatus(ctx, app, prev)
	if err != nil {
		return Application{}, err
	}

	svc.notifier.Notify(ctx, updated.UserID, "offer_extended",
		"Offer received",
		"An offer has been extended on one of your applications.",
		map[string]interface{}{"application_id": updated.ID},
	)
	return updated, nil
}

// checkForwardable allows the admin pipeline to jump an application forward
// to the target status; it may not revive a terminal application or pull a
// hired one backwards.
func checkForwardable(app Application, target Status) error {
	if app.Status == target {
		return nil // re-forward updates the details
	}
	if app.Status.Terminal() {
		return ErrInvalidTransition
	}
	if statusOrder[app.Status] > statusOrder[target] {
		return ErrInvalidTransition
	}
	return nil
}

// checkOwnership restricts employee edges to the application's owner and
// college edges to the college that posted the job.
func (svc *Service) checkOwnership(ctx context.Context, actor user.User, app Application) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsEmployee() {
		if app.UserID != actor.ID {
			return core.ErrForbidden
		}
		return nil
	}
	j, err := svc.jobs.GetJobByID(ctx, app.JobID)
	if err != nil {
		return errors.Wrap(err, "finding application's job")
	}
	if j.PostedBy != actor.ID {
		return core.ErrForbidden
	}
	return nil
}

// checkAccess applies the read-side visibility rules.
func (svc *Service) checkAccess(ctx context.Context, actor user.User, app Application) error {
	if err := svc.checkOwnership(ctx, actor, app); err != nil {
		if errors.Cause(err) == core.ErrForbidden {
			return ErrNotFound // do not leak existence
		}
		return err
	}
	return nil
}
