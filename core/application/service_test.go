package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/teacherconnect/backend/core"
	"github.com/teacherconnect/backend/core/application"
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

func (n *notifierMock) last() notifEntry {
	if len(n.notifs) == 0 {
		return notifEntry{}
	}
	return n.notifs[len(n.notifs)-1]
}

type testEnv struct {
	svc      *application.Service
	appRepo  application.Repository
	jobRepo  job.Repository
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
	notifier := new(notifierMock)
	appRepo := inmemdb.NewApplicationRepository(db)
	jobRepo := inmemdb.NewJobRepository(db)
	return &testEnv{
		svc:      application.NewService(appRepo, jobRepo, notifier),
		appRepo:  appRepo,
		jobRepo:  jobRepo,
		notifier: notifier,
		employee: user.User{ID: "emp-1", Name: "Jane Doe", Roles: []string{user.RoleEmployee}},
		college:  user.User{ID: "col-1", Name: "Springfield College", Roles: []string{user.RoleCollege}},
		admin:    user.User{ID: "adm-1", Name: "Admin", Roles: []string{user.RoleAdmin}},
	}
}

func (env *testEnv) createJob(t *testing.T, status job.Status) job.Job {
	t.Helper()
	now := time.Now().UTC()
	j, err := env.jobRepo.CreateJob(context.Background(), job.Job{
		Title:       "Math Teacher",
		SchoolName:  "Springfield High",
		Description: "Teach math",
		Status:      status,
		PostedBy:    env.college.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("creating job: %v", err)
	}
	return j
}

func TestService_Apply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	j := env.createJob(t, job.StatusApproved)

	app, err := env.svc.Apply(ctx, env.employee, j.ID)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if app.Status != application.StatusApplied {
		t.Errorf("status = %v, want %v", app.Status, application.StatusApplied)
	}
	if app.Category != application.CategoryApplied {
		t.Errorf("category = %v, want %v", app.Category, application.CategoryApplied)
	}
	if app.AppliedDate.IsZero() {
		t.Error("AppliedDate not set")
	}
	if n := env.notifier.last(); n.userID != env.college.ID || n.kind != "new_application" {
		t.Errorf("college not notified, got %+v", n)
	}

	// applying twice fails
	if _, err = env.svc.Apply(ctx, env.employee, j.ID); errors.Cause(err) != application.ErrAlreadyApplied {
		t.Errorf("second Apply() error = %v, want ErrAlreadyApplied", err)
	}

	// non-approved jobs are invisible
	pending := env.createJob(t, job.StatusPending)
	if _, err = env.svc.Apply(ctx, env.employee, pending.ID); errors.Cause(err) != job.ErrNotFound {
		t.Errorf("Apply(pending job) error = %v, want job.ErrNotFound", err)
	}

	// colleges cannot apply
	if _, err = env.svc.Apply(ctx, env.college, j.ID); errors.Cause(err) != core.ErrForbidden {
		t.Errorf("Apply() by college error = %v, want ErrForbidden", err)
	}

	// unauthenticated
	if _, err = env.svc.Apply(ctx, user.User{}, j.ID); errors.Cause(err) != core.ErrUnauthenticated {
		t.Errorf("Apply() anonymous error = %v, want ErrUnauthenticated", err)
	}
}

func TestService_SaveThenApply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	j := env.createJob(t, job.StatusApproved)

	saved, err := env.svc.Save(ctx, env.employee, j.ID)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Status != application.StatusSaved || saved.Category != application.CategorySaved {
		t.Errorf("saved status/category = %v/%v", saved.Status, saved.Category)
	}

	// saving again is a no-op returning the existing bookmark
	again, err := env.svc.Save(ctx, env.employee, j.ID)
	if err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	if again.ID != saved.ID {
		t.Errorf("second Save() created a new application: %v != %v", again.ID, saved.ID)
	}

	// applying promotes the bookmark instead of creating a duplicate
	applied, err := env.svc.Apply(ctx, env.employee, j.ID)
	if err != nil {
		t.Fatalf("Apply() after Save() error = %v", err)
	}
	if applied.ID != saved.ID {
		t.Errorf("Apply() created a new application: %v != %v", applied.ID, saved.ID)
	}
	if applied.Status != application.StatusApplied {
		t.Errorf("status = %v, want %v", applied.Status, application.StatusApplied)
	}
	if applied.AppliedDate.IsZero() {
		t.Error("AppliedDate not set on promotion")
	}
	// the posting college hears about promoted bookmarks too
	if n := env.notifier.last(); n.userID != env.college.ID || n.kind != "new_application" {
		t.Errorf("college not notified on promotion, got %+v", n)
	}
}

func TestService_TransitionNoOpGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	j := env.createJob(t, job.StatusApproved)
	app, _ := env.svc.Apply(ctx, env.employee, j.ID)

	// a same-status request still requires ownership; a foreign caller who
	// guesses the current status must not receive the record
	outsider := user.User{ID: "emp-99", Roles: []string{user.RoleEmployee}}
	if _, err := env.svc.Transition(ctx, outsider, app.ID, application.StatusApplied); errors.Cause(err) != core.ErrForbidden {
		t.Errorf("no-op Transition() by outsider error = %v, want ErrForbidden", err)
	}
	foreignCollege := user.User{ID: "col-9", Roles: []string{user.RoleCollege}}
	if _, err := env.svc.Transition(ctx, foreignCollege, app.ID, application.StatusApplied); errors.Cause(err) != core.ErrForbidden {
		t.Errorf("no-op Transition() by foreign college error = %v, want ErrForbidden", err)
	}

	// the owner's no-op still succeeds
	got, err := env.svc.Transition(ctx, env.employee, app.ID, application.StatusApplied)
	if err != nil {
		t.Fatalf("no-op Transition() by owner error = %v", err)
	}
	if got.ID != app.ID || got.Status != application.StatusApplied {
		t.Errorf("no-op Transition() = %v/%v", got.ID, got.Status)
	}
}

func TestService_Transition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	j := env.createJob(t, job.StatusApproved)

	app, err := env.svc.Apply(ctx, env.employee, j.ID)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	otherEmployee := user.User{ID: "emp-2", Roles: []string{user.RoleEmployee}}
	otherCollege := user.User{ID: "col-2", Roles: []string{user.RoleCollege}}

	tests := []struct {
		name    string
		actor   user.User
		target  application.Status
		wantErr error
	}{
		{name: "employee cannot advance", actor: env.employee, target: application.StatusViewed, wantErr: core.ErrForbidden},
		{name: "foreign college cannot advance", actor: otherCollege, target: application.StatusViewed, wantErr: core.ErrForbidden},
		{name: "no skipping steps", actor: env.college, target: application.StatusShortlisted, wantErr: application.ErrInvalidTransition},
		{name: "college views", actor: env.college, target: application.StatusViewed},
		{name: "same-state is a no-op", actor: env.college, target: application.StatusViewed},
		{name: "college shortlists", actor: env.college, target: application.StatusShortlisted},
		{name: "foreign employee cannot withdraw", actor: otherEmployee, target: application.StatusWithdrawn, wantErr: core.ErrForbidden},
		{name: "admin schedules interview", actor: env.admin, target: application.StatusInterviewScheduled},
		{name: "college extends offer", actor: env.college, target: application.StatusOfferExtended},
		{name: "college hires", actor: env.college, target: application.StatusHired},
		{name: "hired is terminal", actor: env.college, target: application.StatusRejected, wantErr: application.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.svc.Transition(ctx, tt.actor, app.ID, tt.target)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("Transition(%v) error = %v, wantErr %v", tt.target, err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if got.Status != tt.target {
					t.Errorf("status = %v, want %v", got.Status, tt.target)
				}
				if got.Category != application.CategoryOf(tt.target) {
					t.Errorf("category = %v, want %v", got.Category, application.CategoryOf(tt.target))
				}
			}
		})
	}

	// a successful transition by the college notified the employee
	found := false
	for _, n := range env.notifier.notifs {
		if n.userID == env.employee.ID && n.kind == "application_status" {
			found = true
		}
	}
	if !found {
		t.Error("employee was not notified of status changes")
	}
}

func TestService_TransitionValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	j := env.createJob(t, job.StatusApproved)
	app, _ := env.svc.Apply(ctx, env.employee, j.ID)

	_, err := env.svc.Transition(ctx, env.college, app.ID, "bogus")
	if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
		t.Errorf("Transition(bogus) error = %v, want ValidationError", err)
	}

	if _, err = env.svc.Transition(ctx, env.college, "missing", application.StatusViewed); errors.Cause(err) != application.ErrNotFound {
		t.Errorf("Transition(missing) error = %v, want ErrNotFound", err)
	}
}

func TestService_Withdraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	j := env.createJob(t, job.StatusApproved)
	app, _ := env.svc.Apply(ctx, env.employee, j.ID)

	got, err := env.svc.Transition(ctx, env.employee, app.ID, application.StatusWithdrawn)
	if err != nil {
		t.Fatalf("Transition(withdrawn) error = %v", err)
	}
	if got.Category != application.CategoryArchived {
		t.Errorf("category = %v, want %v", got.Category, application.CategoryArchived)
	}
	// terminal from here on
	if _, err = env.svc.Transition(ctx, env.college, app.ID, application.StatusViewed); errors.Cause(err) != application.ErrInvalidTransition {
		t.Errorf("Transition after withdrawal error = %v, want ErrInvalidTransition", err)
	}
}

func TestService_ConditionalWriteConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	j := env.createJob(t, job.StatusApproved)
	app, _ := env.svc.Apply(ctx, env.employee, j.ID)

	// a concurrent writer moved the application since our read
	app.Status = application.StatusViewed
	app.Category = application.CategoryOf(app.Status)
	if _, err := env.svc.Transition(ctx, env.college, app.ID, application.StatusViewed); err != nil {
		t.Fatalf("Transition(viewed) error = %v", err)
	}

	stale := app
	stale.Status = application.StatusShortlisted
	if _, err := env.appRepo.UpdateApplicationStatus(ctx, stale, application.StatusApplied); errors.Cause(err) != core.ErrConflict {
		t.Errorf("stale UpdateApplicationStatus() error = %v, want ErrConflict", err)
	}
}

func TestService_ForwardInterview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	j := env.createJob(t, job.StatusApproved)
	app, _ := env.svc.Apply(ctx, env.employee, j.ID)

	details := application.InterviewDetails{
		ScheduledOn:   "2024-01-22",
		InterviewType: "Online",
		MeetingLink:   "https://meet.test/abc",
	}

	// admins only
	if _, err := env.svc.ForwardInterview(ctx, env.college, app.ID, details); errors.Cause(err) != core.ErrForbidden {
		t.Errorf("ForwardInterview() by college error = %v, want ErrForbidden", err)
	}

	// jumps forward over viewed/shortlisted
	got, err := env.svc.ForwardInterview(ctx, env.admin, app.ID, details)
	if err != nil {
		t.Fatalf("ForwardInterview() error = %v", err)
	}
	if got.Status != application.StatusInterviewScheduled {
		t.Errorf("status = %v, want %v", got.Status, application.StatusInterviewScheduled)
	}
	if got.Category != application.CategoryInterviews {
		t.Errorf("category = %v, want %v", got.Category, application.CategoryInterviews)
	}
	if got.Interview == nil || !got.Interview.ConfirmedByAdmin {
		t.Error("interview details not stamped as admin-confirmed")
	}
	if n := env.notifier.last(); n.userID != env.employee.ID || n.kind != "interview_scheduled" {
		t.Errorf("employee not notified, got %+v", n)
	}

	// re-forward with fresh details is allowed
	details.ScheduledOn = "2024-01-29"
	got, err = env.svc.ForwardInterview(ctx, env.admin, app.ID, details)
	if err != nil {
		t.Fatalf("re-ForwardInterview() error = %v", err)
	}
	if got.Interview.ScheduledOn != "2024-01-29" {
		t.Errorf("interview not rescheduled: %v", got.Interview.ScheduledOn)
	}

	// cannot pull a hired application backwards
	if _, err = env.svc.Transition(ctx, env.admin, app.ID, application.StatusOfferExtended); err != nil {
		t.Fatalf("Transition(offer_extended) error = %v", err)
	}
	if _, err = env.svc.Transition(ctx, env.admin, app.ID, application.StatusHired); err != nil {
		t.Fatalf("Transition(hired) error = %v", err)
	}
	if _, err = env.svc.ForwardInterview(ctx, env.admin, app.ID, details); errors.Cause(err) != application.ErrInvalidTransition {
		t.Errorf("ForwardInterview() on hired error = %v, want ErrInvalidTransition", err)
	}
}

func TestService_ForwardOffer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	j := env.createJob(t, job.StatusApproved)
	app, _ := env.svc.Apply(ctx, env.employee, j.ID)

	details := application.OfferDetails{OfferText: "We are pleased to offer...", Salary: "40000"}
	got, err := env.svc.ForwardOffer(ctx, env.admin, app.ID, details, "https://files.test/offer.pdf")
	if err != nil {
		t.Fatalf("ForwardOffer() error = %v", err)
	}
	if got.Status != application.StatusOfferExtended || got.Category != application.CategoryOffers {
		t.Errorf("status/category = %v/%v", got.Status, got.Category)
	}
	if got.Offer == nil || got.Offer.OfferText == "" {
		t.Error("offer details not recorded")
	}
	if got.OfferLetter == nil || !got.OfferLetter.ForwardedByAdmin {
		t.Error("offer letter not stamped as admin-forwarded")
	}
	if n := env.notifier.last(); n.userID != env.employee.ID || n.kind != "offer_extended" {
		t.Errorf("employee not notified, got %+v", n)
	}

	// rejected applications cannot receive offers
	if _, err = env.svc.Transition(ctx, env.college, app.ID, application.StatusRejected); err != nil {
		t.Fatalf("Transition(rejected) error = %v", err)
	}
	if _, err = env.svc.ForwardOffer(ctx, env.admin, app.ID, details, ""); errors.Cause(err) != application.ErrInvalidTransition {
		t.Errorf("ForwardOffer() on rejected error = %v, want ErrInvalidTransition", err)
	}
}

func TestService_FilterScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	j := env.createJob(t, job.StatusApproved)

	otherEmployee := user.User{ID: "emp-2", Name: "John", Roles: []string{user.RoleEmployee}}
	if _, err := env.svc.Apply(ctx, env.employee, j.ID); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if _, err := env.svc.Apply(ctx, otherEmployee, j.ID); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// employees only see their own
	apps, err := env.svc.Filter(ctx, env.employee, application.QueryFilter{})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(apps) != 1 || apps[0].UserID != env.employee.ID {
		t.Errorf("employee sees %d applications", len(apps))
	}

	// the posting college sees both
	apps, err = env.svc.Filter(ctx, env.college, application.QueryFilter{})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(apps) != 2 {
		t.Errorf("college sees %d applications, want 2", len(apps))
	}

	// another college sees none
	apps, err = env.svc.Filter(ctx, user.User{ID: "col-2", Roles: []string{user.RoleCollege}}, application.QueryFilter{})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(apps) != 0 {
		t.Errorf("foreign college sees %d applications, want 0", len(apps))
	}

	// admins see everything
	apps, err = env.svc.Filter(ctx, env.admin, application.QueryFilter{})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(apps) != 2 {
		t.Errorf("admin sees %d applications, want 2", len(apps))
	}

	// category filter
	apps, err = env.svc.Filter(ctx, env.admin, application.QueryFilter{Category: application.CategoryApplied})
	if err != nil {
		t.Fatalf("Filter(category) error = %v", err)
	}
	if len(apps) != 2 {
		t.Errorf("category filter sees %d applications, want 2", len(apps))
	}
}

func TestService_GetVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	j := env.createJob(t, job.StatusApproved)
	app, _ := env.svc.Apply(ctx, env.employee, j.ID)

	// reads by outsiders do not leak existence
	if _, err := env.svc.Get(ctx, user.User{ID: "emp-2", Roles: []string{user.RoleEmployee}}, app.ID); errors.Cause(err) != application.ErrNotFound {
		t.Errorf("Get() by outsider error = %v, want ErrNotFound", err)
	}
	if _, err := env.svc.Get(ctx, env.college, app.ID); err != nil {
		t.Errorf("Get() by posting college error = %v", err)
	}
	if _, err := env.svc.Get(ctx, env.admin, app.ID); err != nil {
		t.Errorf("Get() by admin error = %v", err)
	}
}
