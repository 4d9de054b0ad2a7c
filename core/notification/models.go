package notification

import "time"

// Notification is a user-visible record created as a side effect of workflow
// transitions. Delivery is best-effort: a failed write never fails the
// transition that triggered it.
type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Kind      string                 `json:"kind"` // e.g. "application_status", "job_moderation"
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"` // UTC
}

type QueryFilter struct {
	UserID     string `query:"-"`
	Kind       string `query:"kind"`
	UnreadOnly bool   `query:"unread"`
}
