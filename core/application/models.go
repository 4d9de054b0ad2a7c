package application

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/teacherconnect/backend/core"
	"github.com/teacherconnect/backend/core/user"
)

// Status is an Application's position in the hiring lifecycle.
type Status string

const (
	StatusSaved                Status = "saved"
	StatusPendingAdminApproval Status = "pending_admin_approval"
	StatusApplied              Status = "applied"
	StatusViewed               Status = "viewed"
	StatusShortlisted          Status = "shortlisted"
	StatusInterviewScheduled   Status = "interview_scheduled"
	StatusOfferExtended        Status = "offer_extended"
	StatusHired                Status = "hired"
	StatusRejected             Status = "rejected"
	StatusWithdrawn            Status = "withdrawn"
)

// statusOrder positions the non-terminal statuses on the forward path.
var statusOrder = map[Status]int{
	StatusSaved:                0,
	StatusPendingAdminApproval: 1,
	StatusApplied:              2,
	StatusViewed:               3,
	StatusShortlisted:          4,
	StatusInterviewScheduled:   5,
	StatusOfferExtended:        6,
	StatusHired:                7,
}

func (s Status) Valid() bool {
	if _, ok := statusOrder[s]; ok {
		return true
	}
	return s == StatusRejected || s == StatusWithdrawn
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusHired || s == StatusRejected || s == StatusWithdrawn
}

// Category is the derived UI bucket summarizing a status for filtering.
type Category string

const (
	CategorySaved      Category = "saved"
	CategoryApplied    Category = "applied"
	CategoryInterviews Category = "interviews"
	CategoryOffers     Category = "offers"
	CategoryHired      Category = "hired"
	CategoryArchived   Category = "archived"
)

// CategoryOf derives the bucket an application with this status lands in.
func CategoryOf(s Status) Category {
	switch s {
	case StatusSaved:
		return CategorySaved
	case StatusPendingAdminApproval, StatusApplied, StatusViewed, StatusShortlisted:
		return CategoryApplied
	case StatusInterviewScheduled:
		return CategoryInterviews
	case StatusOfferExtended:
		return CategoryOffers
	case StatusHired:
		return CategoryHired
	default: // rejected, withdrawn
		return CategoryArchived
	}
}

var (
	collegeOrAdmin = []string{user.RoleCollege, user.RoleAdmin}
	adminOnly      = []string{user.RoleAdmin}
	employeeOnly   = []string{user.RoleEmployee}
)

type edge struct {
	to    Status
	roles []string
}

// transitions lists the forward edges and who may take them. Edges into
// rejected and withdrawn are handled in allowedEdge since they fan out from
// every non-terminal state.
var transitions = map[Status][]edge{
	StatusSaved: {
		{StatusPendingAdminApproval, adminOnly},
		{StatusApplied, employeeOnly},
	},
	StatusPendingAdminApproval: {
		{StatusApplied, adminOnly},
	},
	StatusApplied: {
		{StatusViewed, collegeOrAdmin},
	},
	StatusViewed: {
		{StatusShortlisted, collegeOrAdmin},
	},
	StatusShortlisted: {
		{StatusInterviewScheduled, collegeOrAdmin},
	},
	StatusInterviewScheduled: {
		{StatusOfferExtended, collegeOrAdmin},
	},
	StatusOfferExtended: {
		{StatusHired, collegeOrAdmin},
	},
}

// allowedEdge returns the roles that may move an application from one status
// to another, or ok=false when no such edge exists.
func allowedEdge(from, to Status) (roles []string, ok bool) {
	if from.Terminal() {
		return nil, false
	}
	switch to {
	case StatusRejected:
		return collegeOrAdmin, true
	case StatusWithdrawn:
		// an employee may step back any time before a hire is recorded
		return employeeOnly, true
	}
	for _, e := range transitions[from] {
		if e.to == to {
			return e.roles, true
		}
	}
	return nil, false
}

type InterviewDetails struct {
	ScheduledOn      string `json:"scheduled_on,omitempty" validate:"required,dateonly"`
	InterviewType    string `json:"interview_type,omitempty" validate:"required"`
	Notes            string `json:"notes,omitempty"`
	MeetingLink      string `json:"meeting_link,omitempty"`
	ConfirmedByAdmin bool   `json:"confirmed_by_admin"`
}

func (d *InterviewDetails) Validate(validate *validator.Validate) error {
	d.ScheduledOn = core.CleanString(d.ScheduledOn)
	d.InterviewType = core.CleanString(d.InterviewType)
	d.Notes = core.CleanString(d.Notes)
	d.MeetingLink = core.CleanString(d.MeetingLink)
	return validate.Struct(d)
}

type OfferDetails struct {
	OfferText   string `json:"offer_text,omitempty" validate:"required"`
	JoiningDate string `json:"joining_date,omitempty" validate:"omitempty,dateonly"`
	Salary      string `json:"salary,omitempty"`
}

func (d *OfferDetails) Validate(validate *validator.Validate) error {
	d.OfferText = core.CleanString(d.OfferText)
	d.JoiningDate = core.CleanString(d.JoiningDate)
	d.Salary = core.CleanString(d.Salary)
	return validate.Struct(d)
}

type OfferLetter struct {
	URL              string `json:"url,omitempty"`
	ForwardedByAdmin bool   `json:"forwarded_by_admin"`
}

// Application records an Employee's candidacy for a Job. It is never
// hard-deleted; terminal statuses park it in the archived category.
type Application struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	JobID       string            `json:"job_id"`
	Status      Status            `json:"status"`
	Category    Category          `json:"category"`
	AppliedDate time.Time         `json:"applied_date,omitempty"`
	Interview   *InterviewDetails `json:"interview_details,omitempty"`
	Offer       *OfferDetails     `json:"offer_details,omitempty"`
	OfferLetter *OfferLetter      `json:"offer_letter,omitempty"`
	CreatedAt   time.Time         `json:"created_at"` // UTC
	UpdatedAt   time.Time         `json:"updated_at"` // UTC
}

type QueryFilter struct {
	UserID   string   `query:"-"`
	JobID    string   `query:"job_id"`
	Status   Status   `query:"status"`
	Category Category `query:"category"`
	// JobPostedBy scopes to applications on jobs posted by this user (college view).
	JobPostedBy string `query:"-"`
}
