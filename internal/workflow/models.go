package workflow

import "time"

// Assignment grants a specialist time-boxed access to one assessment via an
// opaque access token shared out-of-band.
type Assignment struct {
	ID           string    `json:"id"`
	AssessmentID int64     `json:"assessment_id"`
	SpecialistID string    `json:"specialist_id"`
	AssignedBy   string    `json:"assigned_by"`
	AccessToken  string    `json:"access_token"`
	Status       string    `json:"status"` // active|revoked
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
)

// Expired reports whether the assignment's window has passed. Expiry is
// evaluated on read; rows are not rewritten when they lapse.
func (a Assignment) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

type AssignmentFilter struct {
	AssessmentID int64  // 0 = any
	SpecialistID string // "" = any
	Status       string // "" = any
}

// Stats is the workflow dashboard rollup over assignments and comments.
type Stats struct {
	Assignments AssignmentStats `json:"assignments"`
	Comments    CommentStats    `json:"comments"`
}

type AssignmentStats struct {
	Active           int `json:"active"`
	Expired          int `json:"expired"`
	Revoked          int `json:"revoked"`
	TotalSpecialists int `json:"total_specialists"`
	TotalAssessments int `json:"total_assessments"`
}

type CommentStats struct {
	Open                    int `json:"open"`
	Resolved                int `json:"resolved"`
	AssessmentsWithComments int `json:"assessments_with_comments"`
}

// ReviewComment is a specialist's remark on an assessment, optionally pinned
// to a single indicator.
type ReviewComment struct {
	ID           string    `json:"id"`
	AssessmentID int64     `json:"assessment_id"`
	IndicatorKey string    `json:"indicator_key,omitempty"` // canonical "c.i"
	AuthorID     string    `json:"author_id"`
	Body         string    `json:"body"`
	Resolved     bool      `json:"resolved"`
	CreatedAt    time.Time `json:"created_at"`
}
