package template

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const templateCols = `id,name,template_type,version,template_data,description,is_active,created_by,created_at`

// Create stores a new template version. Versions count up per type and new
// templates start inactive; Activate promotes one explicitly.
func (s *SQLStore) Create(ctx context.Context, tpl Template) (Template, error) {
	if len(tpl.TemplateData) == 0 {
		tpl.TemplateData = json.RawMessage(`{}`)
	}
	tpl.ID = uuid.NewString()
	tpl.IsActive = false
	tpl.CreatedAt = time.Now().UTC().Truncate(time.Second)

	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version),0)+1 FROM assessment_templates WHERE template_type=$1`,
		tpl.Type).Scan(&tpl.Version)
	if err != nil {
		return Template{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessment_templates
		 (id,name,template_type,version,template_data,description,is_active,created_by,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		tpl.ID, tpl.Name, tpl.Type, tpl.Version, string(tpl.TemplateData),
		tpl.Description, tpl.IsActive, tpl.CreatedBy, tpl.CreatedAt.Unix())
	if err != nil {
		return Template{}, err
	}
	return tpl, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Template, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+templateCols+` FROM assessment_templates WHERE id=$1`, id)
	return scanTemplate(row)
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Template, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if opts.Type == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+templateCols+` FROM assessment_templates
			 ORDER BY template_type, version DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+templateCols+` FROM assessment_templates
			 WHERE template_type=$1 ORDER BY version DESC`, opts.Type)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

// Activate makes the template the live one for its type, demoting any
// sibling that currently holds that slot. Both updates run in one
// transaction so the single-active-per-type index is never violated.
func (s *SQLStore) Activate(ctx context.Context, id string) (Template, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Template{}, err
	}
	defer tx.Rollback()

	var typ string
	err = tx.QueryRowContext(ctx,
		`SELECT template_type FROM assessment_templates WHERE id=$1`, id).Scan(&typ)
	if errors.Is(err, sql.ErrNoRows) {
		return Template{}, ErrNotFound
	}
	if err != nil {
		return Template{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE assessment_templates SET is_active=$1 WHERE template_type=$2`, false, typ); err != nil {
		return Template{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE assessment_templates SET is_active=$1 WHERE id=$2`, true, id); err != nil {
		return Template{}, err
	}
	if err := tx.Commit(); err != nil {
		return Template{}, err
	}
	return s.Get(ctx, id)
}

// GetActive returns the template currently live for the given type.
func (s *SQLStore) GetActive(ctx context.Context, typ string) (Template, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+templateCols+` FROM assessment_templates
		 WHERE template_type=$1 AND is_active=$2`, typ, true)
	return scanTemplate(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (Template, error) {
	var tpl Template
	var dataJSON string
	var created int64
	err := row.Scan(&tpl.ID, &tpl.Name, &tpl.Type, &tpl.Version, &dataJSON,
		&tpl.Description, &tpl.IsActive, &tpl.CreatedBy, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, ErrNotFound
		}
		return Template{}, err
	}
	tpl.TemplateData = json.RawMessage(dataJSON)
	tpl.CreatedAt = time.Unix(created, 0).UTC()
	return tpl, nil
}
