package job

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/teacherconnect/backend/core"
)

// Status is the moderation status of a posted Job.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusClosed   Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusClosed:
		return true
	}
	return false
}

// Terminal statuses accept no further moderation decisions.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusClosed
}

type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	SchoolName  string    `json:"school_name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	JobType     string    `json:"job_type"`
	Salary      string    `json:"salary"`
	Status      Status    `json:"status"`
	PostedBy    string    `json:"posted_by"`
	// PostedByName is joined from the posting college's profile for the admin view.
	PostedByName string    `json:"posted_by_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewJob contains information needed to post a new Job.
type NewJob struct {
	Title       string `json:"title" validate:"required"`
	SchoolName  string `json:"school_name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Location    string `json:"location"`
	JobType     string `json:"job_type"`
	Salary      string `json:"salary"`
}

func (nj *NewJob) Validate(validate *validator.Validate) error {
	nj.Title = core.CleanString(nj.Title)
	nj.SchoolName = core.CleanString(nj.SchoolName)
	nj.Description = core.CleanString(nj.Description)
	nj.Location = core.CleanString(nj.Location)
	nj.JobType = core.CleanString(nj.JobType)
	nj.Salary = core.CleanString(nj.Salary)
	return validate.Struct(nj)
}

// UpdateJob defines what information may be provided to modify an existing Job.
type UpdateJob struct {
	Title       string `json:"title"`
	SchoolName  string `json:"school_name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	JobType     string `json:"job_type"`
	Salary      string `json:"salary"`
}

func (uj *UpdateJob) Validate(orig Job, validate *validator.Validate) error {
	if title := core.CleanString(uj.Title); title != "" {
		uj.Title = title
	} else {
		uj.Title = orig.Title
	}
	if name := core.CleanString(uj.SchoolName); name != "" {
		uj.SchoolName = name
	} else {
		uj.SchoolName = orig.SchoolName
	}
	if desc := core.CleanString(uj.Description); desc != "" {
		uj.Description = desc
	} else {
		uj.Description = orig.Description
	}
	uj.Location = core.CleanString(uj.Location)
	uj.JobType = core.CleanString(uj.JobType)
	uj.Salary = core.CleanString(uj.Salary)
	return validate.Struct(uj)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Status   Status `query:"status"`
	PostedBy string `query:"posted_by"`
	// WithPostedByName joins the posting college's display name (admin listing).
	WithPostedByName bool `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
