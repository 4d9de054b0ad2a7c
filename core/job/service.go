package job

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/teacherconnect/backend/core"
	"github.com/teacherconnect/backend/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("job not found")
	ErrInvalidTransition = errors.New("job status transition not allowed")
)

// ManageAction is an admin moderation decision on a pending Job.
type ManageAction string

const (
	ActionApprove ManageAction = "approve"
	ActionReject  ManageAction = "reject"
	ActionClose   ManageAction = "close"
)

type (
	Repository interface {
		CreateJob(ctx context.Context, j Job) (Job, error)
		GetJobByID(ctx context.Context, id string) (Job, error)
		// FilterJobs applies AND operation on available QueryFilter fields.
		FilterJobs(ctx context.Context, filter QueryFilter) ([]Job, error)
		UpdateJob(ctx context.Context, j Job) (Job, error)
		// UpdateJobStatus writes the new status only if the stored status still
		// equals prev; it returns core.ErrConflict when the row changed since read.
		UpdateJobStatus(ctx context.Context, id string, prev, next Status) (Job, error)
		DeleteJobsByID(ctx context.Context, ids ...string) error
	}

	// Notifier emits a best-effort notification record; failures are handled
	// (logged) by the implementation and never surface here.
	Notifier interface {
		Notify(ctx context.Context, userID, kind, title, message string, data map[string]interface{})
	}

	Service struct {
		repo     Repository
		notifier Notifier
		conf     *core.Config
	}
)

func NewService(repo Repository, notifier Notifier, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		conf:     conf,
	}
}

// Create posts a new Job. Colleges and admins only. The job starts in the
// moderation queue unless the platform's AutoApproveJobs toggle is on.
func (svc *Service) Create(ctx context.Context, actor user.User, nj NewJob) (Job, error) {
	if err := user.Authorize(actor, user.RoleCollege, user.RoleAdmin); err != nil {
		return Job{}, err
	}

	autoApprove := svc.conf.AutoApproveJobs

	now := time.Now().UTC()
	j := Job{
		Title:       nj.Title,
		SchoolName:  nj.SchoolName,
		Description: nj.Description,
		Location:    nj.Location,
		JobType:     nj.JobType,
		Salary:      nj.Salary,
		Status:      StatusPending,
		PostedBy:    actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if autoApprove {
		j.Status = StatusApproved
	}
	return svc.repo.CreateJob(ctx, j)
}

// Get returns a single Job, subject to the same visibility rules as Filter.
func (svc *Service) Get(ctx context.Context, actor user.User, id string) (Job, error) {
	if err := user.Authorize(actor); err != nil {
		return Job{}, err
	}
	j, err := svc.repo.GetJobByID(ctx, id)
	if err != nil {
		return Job{}, err
	}
	if actor.IsAdmin() || j.PostedBy == actor.ID {
		return j, nil
	}
	if j.Status != StatusApproved {
		return Job{}, ErrNotFound
	}
	return j, nil
}

// Filter lists jobs scoped to the actor's role: employees see approved jobs
// only, colleges see their own jobs across all statuses, admins see everything
// with the posting college's name joined in.
func (svc *Service) Filter(ctx context.Context, actor user.User, filter QueryFilter) ([]Job, error) {
	if err := user.Authorize(actor); err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin():
		filter.WithPostedByName = true
	case actor.IsCollege():
		filter.PostedBy = actor.ID
	default:
		filter.Status = StatusApproved
	}
	return svc.repo.FilterJobs(ctx, filter)
}

// Manage applies an admin moderation decision (approve/reject) or closes an
// approved job (owning college or admin).
func (svc *Service) Manage(ctx context.Context, actor user.User, id string, action ManageAction) (Job, error) {
	j, err := svc.repo.GetJobByID(ctx, id)
	if err != nil {
		return Job{}, err
	}

	var next Status
	switch action {
	case ActionApprove, ActionReject:
		if err = user.Authorize(actor, user.RoleAdmin); err != nil {
			return Job{}, err
		}
		if j.Status != StatusPending {
			return Job{}, ErrInvalidTransition
		}
		next = StatusApproved
		if action == ActionReject {
			next = StatusRejected
		}
	case ActionClose:
		if err = user.Authorize(actor, user.RoleCollege, user.RoleAdmin); err != nil {
			return Job{}, err
		}
		if !actor.IsAdmin() && j.PostedBy != actor.ID {
			return Job{}, core.ErrForbidden
		}
		if j.Status != StatusApproved {
			return Job{}, ErrInvalidTransition
		}
		next = StatusClosed
	default:
		return Job{}, core.NewValidationError(
			nil, core.FieldError{Field: "action", Error: fmt.Sprintf("unknown action %q", action)})
	}

	updated, err := svc.repo.UpdateJobStatus(ctx, j.ID, j.Status, next)
	if err != nil {
		return Job{}, err
	}

	svc.notifyModeration(ctx, updated, action)
	return updated, nil
}

func (svc *Service) notifyModeration(ctx context.Context, j Job, action ManageAction) {
	var title, message string
	switch action {
	case ActionApprove:
		title = "Job approved"
		message = fmt.Sprintf("Your job posting %q has been approved and is now visible to teachers.", j.Title)
	case ActionReject:
		title = "Job rejected"
		message = fmt.Sprintf("Your job posting %q has been rejected by the moderation team.", j.Title)
	default:
		return
	}
	svc.notifier.Notify(ctx, j.PostedBy, "job_moderation", title, message, map[string]interface{}{
		"job_id": j.ID, "status": string(j.Status),
	})
}

// Update edits a job: the owning college while it is still pending, or an
// admin at any time.
func (svc *Service) Update(ctx context.Context, actor user.User, id string, uj UpdateJob) (Job, error) {
	if err := user.Authorize(actor, user.RoleCollege, user.RoleAdmin); err != nil {
		return Job{}, err
	}
	j, err := svc.repo.GetJobByID(ctx, id)
	if err != nil {
		return Job{}, err
	}
	if !actor.IsAdmin() {
		if j.PostedBy != actor.ID {
			return Job{}, core.ErrForbidden
		}
		if j.Status != StatusPending {
			return Job{}, ErrInvalidTransition
		}
	}

	j.Title = uj.Title
	j.SchoolName = uj.SchoolName
	j.Description = uj.Description
	j.Location = uj.Location
	j.JobType = uj.JobType
	j.Salary = uj.Salary
	j.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateJob(ctx, j)
}

// Delete removes a job: admin, or the owning college.
func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	if err := user.Authorize(actor, user.RoleCollege, user.RoleAdmin); err != nil {
		return err
	}
	j, err := svc.repo.GetJobByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && j.PostedBy != actor.ID {
		return core.ErrForbidden
	}
	return svc.repo.DeleteJobsByID(ctx, j.ID)
}
