package auditing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/certicredia/certicredia-platform/internal/cpf"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const assessmentCols = `id,organization_id,assessment_data,metadata,last_assessment_date,created_at,updated_at,deleted_at`

func (s *SQLStore) GetByOrganization(ctx context.Context, orgID int64) (Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+assessmentCols+` FROM cpf_auditing_assessments
		 WHERE organization_id=$1 AND deleted_at IS NULL`, orgID)
	return scanAssessment(row)
}

func (s *SQLStore) Create(ctx context.Context, orgID int64, data cpf.AssessmentDocument, metadata json.RawMessage) (Assessment, error) {
	if _, err := s.GetByOrganization(ctx, orgID); err == nil {
		return Assessment{}, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return Assessment{}, err
	}

	dataJSON, metaJSON, err := encodeRow(data, metadata)
	if err != nil {
		return Assessment{}, err
	}
	now := time.Now().Unix()
	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO cpf_auditing_assessments
		 (organization_id,assessment_data,metadata,last_assessment_date,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$4,$4) RETURNING id`,
		orgID, dataJSON, metaJSON, now).Scan(&id)
	if err != nil {
		return Assessment{}, err
	}
	return s.GetByOrganization(ctx, orgID)
}

func (s *SQLStore) Update(ctx context.Context, orgID int64, data cpf.AssessmentDocument, metadata json.RawMessage) (Assessment, error) {
	dataJSON, metaJSON, err := encodeRow(data, metadata)
	if err != nil {
		return Assessment{}, err
	}
	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx,
		`UPDATE cpf_auditing_assessments
		 SET assessment_data=$1, metadata=$2, last_assessment_date=$3, updated_at=$3
		 WHERE organization_id=$4 AND deleted_at IS NULL`,
		dataJSON, metaJSON, now, orgID)
	if err != nil {
		return Assessment{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Assessment{}, ErrNotFound
	}
	return s.GetByOrganization(ctx, orgID)
}

func (s *SQLStore) SoftDelete(ctx context.Context, orgID int64) (Assessment, error) {
	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx,
		`UPDATE cpf_auditing_assessments SET deleted_at=$1
		 WHERE organization_id=$2 AND deleted_at IS NULL`, now, orgID)
	if err != nil {
		return Assessment{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Assessment{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+assessmentCols+` FROM cpf_auditing_assessments
		 WHERE organization_id=$1 AND deleted_at IS NOT NULL`, orgID)
	return scanAssessment(row)
}

func (s *SQLStore) Restore(ctx context.Context, orgID int64) (Assessment, error) {
	// An organization may hold several trashed rows but only one live one
	// (enforced by the partial unique index). Bring back the most recently
	// deleted row and leave the rest in the trash.
	res, err := s.db.ExecContext(ctx,
		`UPDATE cpf_auditing_assessments SET deleted_at=NULL
		 WHERE id = (SELECT id FROM cpf_auditing_assessments
		             WHERE organization_id=$1 AND deleted_at IS NOT NULL
		             ORDER BY deleted_at DESC, id DESC LIMIT 1)`, orgID)
	if err != nil {
		return Assessment{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Assessment{}, ErrDeletedNotFound
	}
	return s.GetByOrganization(ctx, orgID)
}

func (s *SQLStore) PermanentDelete(ctx context.Context, orgID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cpf_auditing_assessments WHERE organization_id=$1`, orgID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Assessment, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT ` + assessmentCols + ` FROM cpf_auditing_assessments`
	if !opts.IncludeDeleted {
		q += ` WHERE deleted_at IS NULL`
	}
	q += ` ORDER BY organization_id LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, q, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssessments(rows)
}

func (s *SQLStore) Trash(ctx context.Context) ([]Assessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assessmentCols+` FROM cpf_auditing_assessments
		 WHERE deleted_at IS NOT NULL ORDER BY deleted_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssessments(rows)
}

func encodeRow(data cpf.AssessmentDocument, metadata json.RawMessage) (string, string, error) {
	if data == nil {
		data = cpf.AssessmentDocument{}
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return "", "", err
	}
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}
	return string(dataJSON), string(metadata), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (Assessment, error) {
	var a Assessment
	var dataJSON, metaJSON string
	var lastDate, deletedAt sql.NullInt64
	var created, updated int64
	err := row.Scan(&a.ID, &a.OrganizationID, &dataJSON, &metaJSON, &lastDate, &created, &updated, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assessment{}, ErrNotFound
		}
		return Assessment{}, err
	}
	if err := json.Unmarshal([]byte(dataJSON), &a.Data); err != nil {
		return Assessment{}, err
	}
	a.Metadata = json.RawMessage(metaJSON)
	a.CreatedAt = time.Unix(created, 0).UTC()
	a.UpdatedAt = time.Unix(updated, 0).UTC()
	if lastDate.Valid {
		t := time.Unix(lastDate.Int64, 0).UTC()
		a.LastAssessmentDate = &t
	}
	if deletedAt.Valid {
		t := time.Unix(deletedAt.Int64, 0).UTC()
		a.DeletedAt = &t
	}
	return a, nil
}

func collectAssessments(rows *sql.Rows) ([]Assessment, error) {
	var out []Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
