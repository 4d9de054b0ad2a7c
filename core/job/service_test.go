package job_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/teacherconnect/backend/core"
	"github.com/teacherconnect/backend/core/job"
	"github.com/teacherconnect/backend/core/user"
	inmemdb "github.com/teacherconnect/backend/storage/database/inmem"
)

type notifEntry struct {
	userID string
	kind   string
}

type notifierMock struct {
	notifs []notifEntry
}

func (n *notifierMock) Notify(ctx context.Context, userID, kind, title, message string, data map[string]interface{}) {
	n.notifs = append(n.notifs, notifEntry{userID: userID, kind: kind})
}

type testEnv struct {
	svc      *job.Service
	conf     *core.Config
	notifier *notifierMock

	employee user.User
	college  user.User
	admin    user.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening inmem db: %v", err)
	}
	conf := new(core.Config)
	notifier := new(notifierMock)
	return &testEnv{
		svc:      job.NewService(inmemdb.NewJobRepository(db), notifier, conf),
		conf:     conf,
		notifier: notifier,
		employee: user.User{ID: "emp-1", Roles: []string{user.RoleEmployee}},
		college:  user.User{ID: "col-1", Roles: []string{user.RoleCollege}},
		admin:    user.User{ID: "adm-1", Roles: []string{user.RoleAdmin}},
	}
}

func newJob() job.NewJob {
	return job.NewJob{
		Title:       "Math Teacher",
		SchoolName:  "Springfield High",
		Description: "Teach mathematics to grades 9-12",
		Location:    "Springfield",
		JobType:     "full_time",
		Salary:      "30000",
	}
}

func TestService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	j, err := env.svc.Create(ctx, env.college, newJob())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if j.Status != job.StatusPending {
		t.Errorf("status = %v, want %v", j.Status, job.StatusPending)
	}
	if j.PostedBy != env.college.ID {
		t.Errorf("PostedBy = %v, want %v", j.PostedBy, env.college.ID)
	}

	// employees cannot post jobs
	if _, err = env.svc.Create(ctx, env.employee, newJob()); errors.Cause(err) != core.ErrForbidden {
		t.Errorf("Create() by employee error = %v, want ErrForbidden", err)
	}
	if _, err = env.svc.Create(ctx, user.User{}, newJob()); errors.Cause(err) != core.ErrUnauthenticated {
		t.Errorf("Create() anonymous error = %v, want ErrUnauthenticated", err)
	}
}

func TestService_CreateAutoApprove(t *testing.T) {
	env := newTestEnv(t)
	env.conf.AutoApproveJobs = true

	j, err := env.svc.Create(context.Background(), env.college, newJob())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if j.Status != job.StatusApproved {
		t.Errorf("status = %v, want %v", j.Status, job.StatusApproved)
	}
}

func TestService_Manage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	j, err := env.svc.Create(ctx, env.college, newJob())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// moderation is admin-only
	if _, err = env.svc.Manage(ctx, env.college, j.ID, job.ActionApprove); errors.Cause(err) != core.ErrForbidden {
		t.Errorf("Manage(approve) by college error = %v, want ErrForbidden", err)
	}

	approved, err := env.svc.Manage(ctx, env.admin, j.ID, job.ActionApprove)
	if err != nil {
		t.Fatalf("Manage(approve) error = %v", err)
	}
	if approved.Status != job.StatusApproved {
		t.Errorf("status = %v, want %v", approved.Status, job.StatusApproved)
	}
	if len(env.notifier.notifs) != 1 || env.notifier.notifs[0].userID != env.college.ID || env.notifier.notifs[0].kind != "job_moderation" {
		t.Errorf("college not notified of moderation, got %+v", env.notifier.notifs)
	}

	// approving twice fails, the job left the moderation queue
	if _, err = env.svc.Manage(ctx, env.admin, j.ID, job.ActionApprove); errors.Cause(err) != job.ErrInvalidTransition {
		t.Errorf("second Manage(approve) error = %v, want ErrInvalidTransition", err)
	}

	// unknown action
	if _, err = env.svc.Manage(ctx, env.admin, j.ID, "archive"); err == nil {
		t.Error("Manage(archive) expected a validation error")
	} else if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
		t.Errorf("Manage(archive) error = %v, want ValidationError", err)
	}
}

func TestService_ManageReject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	j, _ := env.svc.Create(ctx, env.college, newJob())
	rejected, err := env.svc.Manage(ctx, env.admin, j.ID, job.ActionReject)
	if err != nil {
		t.Fatalf("Manage(reject) error = %v", err)
	}
	if rejected.Status != job.StatusRejected {
		t.Errorf("status = %v, want %v", rejected.Status, job.StatusRejected)
	}
}

func TestService_ManageClose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	j, _ := env.svc.Create(ctx, env.college, newJob())

	// only approved jobs can close
	if _, err := env.svc.Manage(ctx, env.college, j.ID, job.ActionClose); errors.Cause(err) != job.ErrInvalidTransition {
		t.Errorf("Manage(close) on pending error = %v, want ErrInvalidTransition", err)
	}

	if _, err := env.svc.Manage(ctx, env.admin, j.ID, job.ActionApprove); err != nil {
		t.Fatalf("Manage(approve) error = %v", err)
	}

	// another college cannot close it
	otherCollege := user.User{ID: "col-2", Roles: []string{user.RoleCollege}}
	if _, err := env.svc.Manage(ctx, otherCollege, j.ID, job.ActionClose); errors.Cause(err) != core.ErrForbidden {
		t.Errorf("Manage(close) by foreign college error = %v, want ErrForbidden", err)
	}

	closed, err := env.svc.Manage(ctx, env.college, j.ID, job.ActionClose)
	if err != nil {
		t.Fatalf("Manage(close) error = %v", err)
	}
	if closed.Status != job.StatusClosed {
		t.Errorf("status = %v, want %v", closed.Status, job.StatusClosed)
	}
}

func TestService_FilterScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pending, _ := env.svc.Create(ctx, env.college, newJob())
	approved, _ := env.svc.Create(ctx, env.college, newJob())
	if _, err := env.svc.Manage(ctx, env.admin, approved.ID, job.ActionApprove); err != nil {
		t.Fatalf("Manage(approve) error = %v", err)
	}
	otherCollege := user.User{ID: "col-2", Roles: []string{user.RoleCollege}}
	if _, err := env.svc.Create(ctx, otherCollege, newJob()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// employees see approved jobs only
	jobs, err := env.svc.Filter(ctx, env.employee, job.QueryFilter{})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != approved.ID {
		t.Errorf("employee sees %d jobs", len(jobs))
	}

	// colleges see their own jobs across statuses
	jobs, err = env.svc.Filter(ctx, env.college, job.QueryFilter{})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("college sees %d jobs, want 2", len(jobs))
	}

	// admins see everything
	jobs, err = env.svc.Filter(ctx, env.admin, job.QueryFilter{})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(jobs) != 3 {
		t.Errorf("admin sees %d jobs, want 3", len(jobs))
	}

	_ = pending
}

func TestService_GetVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pending, _ := env.svc.Create(ctx, env.college, newJob())

	// pending jobs are invisible to employees
	if _, err := env.svc.Get(ctx, env.employee, pending.ID); errors.Cause(err) != job.ErrNotFound {
		t.Errorf("Get(pending) by employee error = %v, want ErrNotFound", err)
	}
	if _, err := env.svc.Get(ctx, env.college, pending.ID); err != nil {
		t.Errorf("Get(pending) by owner error = %v", err)
	}
	if _, err := env.svc.Get(ctx, env.admin, pending.ID); err != nil {
		t.Errorf("Get(pending) by admin error = %v", err)
	}
}

func TestService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	j, _ := env.svc.Create(ctx, env.college, newJob())

	uj := job.UpdateJob{
		Title:       "Senior Math Teacher",
		SchoolName:  j.SchoolName,
		Description: j.Description,
		Location:    j.Location,
		JobType:     j.JobType,
		Salary:      "35000",
	}

	// another college cannot edit
	otherCollege := user.User{ID: "col-2", Roles: []string{user.RoleCollege}}
	if _, err := env.svc.Update(ctx, otherCollege, j.ID, uj); errors.Cause(err) != core.ErrForbidden {
		t.Errorf("Update() by foreign college error = %v, want ErrForbidden", err)
	}

	got, err := env.svc.Update(ctx, env.college, j.ID, uj)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Title != "Senior Math Teacher" || got.Salary != "35000" {
		t.Errorf("Update() = %+v", got)
	}

	// once approved, the college can no longer edit but an admin still can
	if _, err = env.svc.Manage(ctx, env.admin, j.ID, job.ActionApprove); err != nil {
		t.Fatalf("Manage(approve) error = %v", err)
	}
	if _, err = env.svc.Update(ctx, env.college, j.ID, uj); errors.Cause(err) != job.ErrInvalidTransition {
		t.Errorf("Update() on approved job error = %v, want ErrInvalidTransition", err)
	}
	if _, err = env.svc.Update(ctx, env.admin, j.ID, uj); err != nil {
		t.Errorf("Update() by admin error = %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	j, _ := env.svc.Create(ctx, env.college, newJob())

	if err := env.svc.Delete(ctx, env.employee, j.ID); errors.Cause(err) != core.ErrForbidden {
		t.Errorf("Delete() by employee error = %v, want ErrForbidden", err)
	}
	if err := env.svc.Delete(ctx, env.college, j.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := env.svc.Get(ctx, env.college, j.ID); errors.Cause(err) != job.ErrNotFound {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}
