package profile

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/teacherconnect/backend/core"
)

// Settings holds a profile's notification/privacy toggles.
type Settings struct {
	EmailNotifications bool `json:"email_notifications"`
	ProfileVisible     bool `json:"profile_visible"`
}

// DefaultSettings apply until the user first saves their profile.
var DefaultSettings = Settings{
	EmailNotifications: true,
	ProfileVisible:     true,
}

// EmployerProfile is the teacher-side profile, 1:1 with an employee User.
// It is created lazily on the first profile write.
type EmployerProfile struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	DisplayName     string    `json:"display_name"`
	Phone           string    `json:"phone"`
	Headline        string    `json:"headline"`
	Bio             string    `json:"bio"`
	Subjects        []string  `json:"subjects"`
	ExperienceYears int       `json:"experience_years"`
	ResumeURL       string    `json:"resume_url"`
	Settings        Settings  `json:"settings"`
	Strength        int       `json:"profile_strength"` // derived, percent
	CreatedAt       time.Time `json:"created_at"`       // UTC
	UpdatedAt       time.Time `json:"updated_at"`       // UTC
}

// ComputeStrength scores profile completeness as a percentage of filled fields.
func (p EmployerProfile) ComputeStrength() int {
	fields := []bool{
		p.DisplayName != "",
		p.Phone != "",
		p.Headline != "",
		p.Bio != "",
		len(p.Subjects) > 0,
		p.ExperienceYears > 0,
		p.ResumeURL != "",
	}
	var filled int
	for _, ok := range fields {
		if ok {
			filled++
		}
	}
	return filled * 100 / len(fields)
}

// CollegeProfile is the institution-side profile, 1:1 with a college User.
type CollegeProfile struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	CollegeName   string    `json:"college_name"`
	ContactPerson string    `json:"contact_person"`
	Phone         string    `json:"phone"`
	Website       string    `json:"website"`
	City          string    `json:"city"`
	Description   string    `json:"description"`
	Verified      bool      `json:"verified"`
	Settings      Settings  `json:"settings"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// UpdateEmployerProfile defines the owner-writable employer profile fields.
type UpdateEmployerProfile struct {
	DisplayName     string    `json:"display_name" validate:"required"`
	Phone           string    `json:"phone"`
	Headline        string    `json:"headline"`
	Bio             string    `json:"bio"`
	Subjects        []string  `json:"subjects"`
	ExperienceYears int       `json:"experience_years" validate:"min=0"`
	ResumeURL       string    `json:"resume_url" validate:"omitempty,url"`
	Settings        *Settings `json:"settings"`
}

func (up *UpdateEmployerProfile) Validate(validate *validator.Validate) error {
	up.DisplayName = core.CleanString(up.DisplayName)
	up.Phone = core.CleanString(up.Phone)
	up.Headline = core.CleanString(up.Headline)
	up.Bio = core.CleanString(up.Bio)
	up.ResumeURL = core.CleanString(up.ResumeURL)
	return validate.Struct(up)
}

// UpdateCollegeProfile defines the owner-writable college profile fields.
// Verified can only be flipped by an admin.
type UpdateCollegeProfile struct {
	CollegeName   string    `json:"college_name" validate:"required"`
	ContactPerson string    `json:"contact_person"`
	Phone         string    `json:"phone"`
	Website       string    `json:"website" validate:"omitempty,url"`
	City          string    `json:"city"`
	Description   string    `json:"description"`
	Verified      *bool     `json:"verified"`
	Settings      *Settings `json:"settings"`
}

func (up *UpdateCollegeProfile) Validate(validate *validator.Validate) error {
	up.CollegeName = core.CleanString(up.CollegeName)
	up.ContactPerson = core.CleanString(up.ContactPerson)
	up.Phone = core.CleanString(up.Phone)
	up.Website = core.CleanString(up.Website)
	up.City = core.CleanString(up.City)
	up.Description = core.CleanString(up.Description)
	return validate.Struct(up)
}
