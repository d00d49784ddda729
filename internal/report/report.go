// Package report builds and stores point-in-time snapshots of an
// organization's assessment view. Rendering (PDF etc.) happens elsewhere;
// the stored payload is the renderer's data contract.
package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/certicredia/certicredia-platform/internal/auditing"
	"github.com/certicredia/certicredia-platform/internal/cpf"
)

var ErrNotFound = errors.New("report not found")

type Report struct {
	ID             string          `json:"id"`
	OrganizationID int64           `json:"organization_id"`
	ReportType     string          `json:"report_type"`
	Payload        json.RawMessage `json:"payload"`
	GeneratedBy    string          `json:"generated_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Payload is the frozen snapshot a generated report carries.
type Payload struct {
	Organization struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Type   string `json:"organization_type"`
		Status string `json:"status"`
	} `json:"organization"`
	Summary     cpf.Summary                   `json:"summary"`
	Aggregates  cpf.Aggregates                `json:"aggregates"`
	Indicators  map[string]cpf.IndicatorScore `json:"indicators"`
	GeneratedAt time.Time                     `json:"generated_at"`
}

type Service struct {
	db          *sql.DB
	assessments *auditing.Service
}

func NewService(db *sql.DB, assessments *auditing.Service) *Service {
	return &Service{db: db, assessments: assessments}
}

// Generate snapshots the organization's current derived view into a stored
// report row.
func (s *Service) Generate(ctx context.Context, orgID int64, reportType, generatedBy string) (Report, error) {
	if reportType == "" {
		reportType = "assessment"
	}
	view, sum, err := s.assessments.ViewWithSummary(ctx, orgID)
	if err != nil {
		return Report{}, err
	}

	var p Payload
	p.Organization.ID = view.ID
	p.Organization.Name = view.Name
	p.Organization.Type = view.OrganizationType
	p.Organization.Status = view.Status
	p.Summary = sum
	p.Aggregates = view.Aggregates
	p.Indicators = view.Indicators
	p.GeneratedAt = time.Now().UTC()

	payload, err := json.Marshal(p)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		ReportType:     reportType,
		Payload:        payload,
		GeneratedBy:    generatedBy,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id,organization_id,report_type,payload,generated_by,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		r.ID, r.OrganizationID, r.ReportType, string(r.Payload), r.GeneratedBy, r.CreatedAt.Unix())
	if err != nil {
		return Report{}, err
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, id string) (Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,organization_id,report_type,payload,generated_by,created_at FROM reports WHERE id=$1`, id)
	return scanReport(row)
}

func (s *Service) ListByOrganization(ctx context.Context, orgID int64) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,organization_id,report_type,payload,generated_by,created_at
		 FROM reports WHERE organization_id=$1 ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Service) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (Report, error) {
	var r Report
	var payload string
	var created int64
	err := row.Scan(&r.ID, &r.OrganizationID, &r.ReportType, &payload, &r.GeneratedBy, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	r.Payload = json.RawMessage(payload)
	r.CreatedAt = time.Unix(created, 0).UTC()
	return r, nil
}
