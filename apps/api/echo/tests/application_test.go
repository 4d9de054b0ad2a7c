package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	. "github.com/teacherconnect/backend/apps/api/echo"
	"github.com/teacherconnect/backend/core/application"
	"github.com/teacherconnect/backend/core/job"
	"github.com/teacherconnect/backend/core/user"
	testutil "github.com/teacherconnect/backend/tests"
)

// createApprovedJob seeds an approved job directly in the repo.
func createApprovedJob(t *testing.T, postedBy string) job.Job {
	t.Helper()
	now := time.Now().UTC()
	j, err := jobRepo.CreateJob(context.Background(), job.Job{
		Title:       "Math Teacher",
		SchoolName:  "Springfield High",
		Description: "Teach mathematics",
		Status:      job.StatusApproved,
		PostedBy:    postedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("creating job: %v", err)
	}
	return j
}

func Test_applicationApi_apply(t *testing.T) {
	app := setup(t)

	employee := testutil.CreateUser(t, usrRepo, "Jane Doe", "janedoe", "jane@test.test", "", []string{user.RoleEmployee}, true)
	college := testutil.CreateUser(t, usrRepo, "Springfield College", "springfield", "hr@springfield.test", "", []string{user.RoleCollege}, true)
	j := createApprovedJob(t, college.ID)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/jobs/" + j.ID + "/apply", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "colleges cannot apply", path: "/v1/jobs/" + j.ID + "/apply", token: getToken(t, college),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{name: "apply", path: "/v1/jobs/" + j.ID + "/apply", token: getToken(t, employee), wantCode: http.StatusCreated},
		{
			name: "applying twice fails", path: "/v1/jobs/" + j.ID + "/apply", token: getToken(t, employee),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "an application for this job already exists"}),
		},
		{
			name: "unknown job", path: "/v1/jobs/nope/apply", token: getToken(t, employee),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "job not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; data = %v", rec.Code, tt.wantCode, rec.Body.String())
				}
				var a application.Application
				if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
					t.Fatalf("unmarshalling Application: %v", err)
				}
				if a.Status != application.StatusApplied || a.Category != application.CategoryApplied {
					t.Errorf("failed! status/category = %v/%v", a.Status, a.Category)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_applicationApi_saveThenApply(t *testing.T) {
	app := setup(t)

	employee := testutil.CreateUser(t, usrRepo, "Jane Doe", "janedoe", "jane@test.test", "", []string{user.RoleEmployee}, true)
	college := testutil.CreateUser(t, usrRepo, "Springfield College", "springfield", "hr@springfield.test", "", []string{user.RoleCollege}, true)
	j := createApprovedJob(t, college.ID)
	token := getToken(t, employee)

	do := func(t *testing.T, action string) application.Application {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/jobs/"+j.ID+"/"+action, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("%s failed: %v %v", action, rec.Code, rec.Body.String())
		}
		var a application.Application
		if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
			t.Fatalf("unmarshalling Application: %v", err)
		}
		return a
	}

	saved := do(t, "save")
	if saved.Status != application.StatusSaved || saved.Category != application.CategorySaved {
		t.Errorf("failed! status/category = %v/%v", saved.Status, saved.Category)
	}

	applied := do(t, "apply")
	if applied.ID != saved.ID {
		t.Errorf("apply created a new application: %v != %v", applied.ID, saved.ID)
	}
	if applied.Status != application.StatusApplied {
		t.Errorf("failed! status = %v; want %v", applied.Status, application.StatusApplied)
	}
}

func Test_applicationApi_transition(t *testing.T) {
	app := setup(t)

	employee := testutil.CreateUser(t, usrRepo, "Jane Doe", "janedoe", "jane@test.test", "", []string{user.RoleEmployee}, true)
	college := testutil.CreateUser(t, usrRepo, "Springfield College", "springfield", "hr@springfield.test", "", []string{user.RoleCollege}, true)
	j := createApprovedJob(t, college.ID)

	req, rec := newAuthRequest(http.MethodPost, "/v1/jobs/"+j.ID+"/apply", getToken(t, employee))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("apply failed: %v %v", rec.Code, rec.Body.String())
	}
	var a application.Application
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("unmarshalling Application: %v", err)
	}

	body := func(status string) []byte { return marchallObj(t, TransitionRequest{Status: status}) }
	path := "/v1/applications/" + a.ID + "/status"

	tests := []httpTest{
		{
			name: "status required", body: marchallObj(t, TransitionRequest{}), token: getToken(t, college),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"status": "status is a required field"}),
		},
		{
			name: "unknown status", body: body("lol"), token: getToken(t, college),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"status": `unknown status "lol"`}),
		},
		{
			name: "employees cannot advance", body: body("viewed"), token: getToken(t, employee),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "no skipping steps", body: body("shortlisted"), token: getToken(t, college),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "application status transition not allowed"}),
		},
		{name: "college views", body: body("viewed"), token: getToken(t, college), wantCode: http.StatusOK, extra: application.StatusViewed},
		{name: "same status is a no-op", body: body("viewed"), token: getToken(t, college), wantCode: http.StatusOK, extra: application.StatusViewed},
		{name: "college shortlists", body: body("shortlisted"), token: getToken(t, college), wantCode: http.StatusOK, extra: application.StatusShortlisted},
		{name: "employee withdraws", body: body("withdrawn"), token: getToken(t, employee), wantCode: http.StatusOK, extra: application.StatusWithdrawn},
		{
			name: "withdrawn is terminal", body: body("viewed"), token: getToken(t, college),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "application status transition not allowed"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; data = %v", rec.Code, tt.wantCode, rec.Body.String())
				}
				var got application.Application
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("unmarshalling Application: %v", err)
				}
				if got.Status != tt.extra.(application.Status) {
					t.Errorf("failed! status = %v; want %v", got.Status, tt.extra)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_applicationApi_forward(t *testing.T) {
	app := setup(t)

	employee := testutil.CreateUser(t, usrRepo, "Jane Doe", "janedoe", "jane@test.test", "", []string{user.RoleEmployee}, true)
	college := testutil.CreateUser(t, usrRepo, "Springfield College", "springfield", "hr@springfield.test", "", []string{user.RoleCollege}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "mainadmin", "admin@test.test", "", []string{user.RoleAdmin}, true)
	j := createApprovedJob(t, college.ID)

	req, rec := newAuthRequest(http.MethodPost, "/v1/jobs/"+j.ID+"/apply", getToken(t, employee))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("apply failed: %v %v", rec.Code, rec.Body.String())
	}
	var a application.Application
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("unmarshalling Application: %v", err)
	}

	interview := marchallObj(t, map[string]string{"scheduled_on": "2024-01-22", "interview_type": "Online"})

	// admin gate on the forward endpoints
	req, rec = newAuthRequest(http.MethodPut, "/v1/applications/"+a.ID+"/forward-interview", getToken(t, college), interview)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
	}, rec)

	req, rec = newAuthRequest(http.MethodPut, "/v1/applications/"+a.ID+"/forward-interview", getToken(t, admin), interview)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("forward-interview failed: %v %v", rec.Code, rec.Body.String())
	}
	var got application.Application
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling Application: %v", err)
	}
	if got.Status != application.StatusInterviewScheduled || got.Category != application.CategoryInterviews {
		t.Errorf("failed! status/category = %v/%v", got.Status, got.Category)
	}
	if got.Interview == nil || !got.Interview.ConfirmedByAdmin {
		t.Error("interview details not stamped as admin-confirmed")
	}

	offer := marchallObj(t, map[string]string{
		"offer_text": "We are pleased to offer you the position.",
		"salary":     "40000",
		"letter_url": "https://files.test/offer.pdf",
	})
	req, rec = newAuthRequest(http.MethodPut, "/v1/applications/"+a.ID+"/forward-offer", getToken(t, admin), offer)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("forward-offer failed: %v %v", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling Application: %v", err)
	}
	if got.Status != application.StatusOfferExtended || got.Category != application.CategoryOffers {
		t.Errorf("failed! status/category = %v/%v", got.Status, got.Category)
	}
	if got.OfferLetter == nil || !got.OfferLetter.ForwardedByAdmin {
		t.Error("offer letter not stamped as admin-forwarded")
	}
}

func Test_applicationApi_query(t *testing.T) {
	app := setup(t)

	employee := testutil.CreateUser(t, usrRepo, "Jane Doe", "janedoe", "jane@test.test", "", []string{user.RoleEmployee}, true)
	other := testutil.CreateUser(t, usrRepo, "John Roe", "johnroe", "john@test.test", "", []string{user.RoleEmployee}, true)
	college := testutil.CreateUser(t, usrRepo, "Springfield College", "springfield", "hr@springfield.test", "", []string{user.RoleCollege}, true)
	j := createApprovedJob(t, college.ID)

	for _, usr := range []user.User{employee, other} {
		req, rec := newAuthRequest(http.MethodPost, "/v1/jobs/"+j.ID+"/apply", getToken(t, usr))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("apply failed: %v %v", rec.Code, rec.Body.String())
		}
	}

	count := func(t *testing.T, token, path string) int {
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("listing applications failed: %v %v", rec.Code, rec.Body.String())
		}
		var apps []application.Application
		if err := json.Unmarshal(rec.Body.Bytes(), &apps); err != nil {
			t.Fatalf("unmarshalling applications: %v", err)
		}
		return len(apps)
	}

	if got := count(t, getToken(t, employee), "/v1/applications"); got != 1 {
		t.Errorf("employee sees %d applications; want 1 (own)", got)
	}
	if got := count(t, getToken(t, college), "/v1/applications"); got != 2 {
		t.Errorf("college sees %d applications; want 2 (on own jobs)", got)
	}
	if got := count(t, getToken(t, college), "/v1/applications?category=archived"); got != 0 {
		t.Errorf("archived filter sees %d applications; want 0", got)
	}
}
