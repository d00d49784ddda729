package auditing

import (
	"encoding/json"
	"time"

	"github.com/certicredia/certicredia-platform/internal/cpf"
)

// Assessment is one organization's stored CPF assessment row. Data is the
// raw indicator document the scoring engine consumes; Metadata carries the
// cached maturity summary plus any free-form keys the editor attaches.
type Assessment struct {
	ID                 int64                  `json:"id"`
	OrganizationID     int64                  `json:"organization_id"`
	Data               cpf.AssessmentDocument `json:"assessment_data"`
	Metadata           json.RawMessage        `json:"metadata"`
	LastAssessmentDate *time.Time             `json:"last_assessment_date,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
	DeletedAt          *time.Time             `json:"deleted_at,omitempty"`
}

type ListOpts struct {
	Limit          int
	Offset         int
	IncludeDeleted bool
}

// Statistics is the cross-assessment rollup for the admin dashboard,
// computed over live rows only.
type Statistics struct {
	TotalAssessments int               `json:"total_assessments"`
	AvgCompletion    float64           `json:"avg_completion"`
	AvgMaturity      float64           `json:"avg_maturity"`
	ByLevel          map[cpf.Level]int `json:"by_level"`
}
