package org

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrNotFound = errors.New("organization not found")

type Store interface {
	Get(ctx context.Context, id int64) (Organization, error)
	List(ctx context.Context, opts ListOpts) ([]Organization, error)
	Create(ctx context.Context, o Organization) (Organization, error)
	Update(ctx context.Context, o Organization) (Organization, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context, id int64) (Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,name,organization_type,status,created_at,updated_at FROM organizations WHERE id=$1`, id)
	return scanOrg(row)
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Organization, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var (
		rows *sql.Rows
		err  error
	)
	if opts.Status == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id,name,organization_type,status,created_at,updated_at FROM organizations
			 ORDER BY id LIMIT $1 OFFSET $2`, limit, opts.Offset)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id,name,organization_type,status,created_at,updated_at FROM organizations
			 WHERE status=$1 ORDER BY id LIMIT $2 OFFSET $3`, opts.Status, limit, opts.Offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLStore) Create(ctx context.Context, o Organization) (Organization, error) {
	now := time.Now().Unix()
	if o.Status == "" {
		o.Status = StatusActive
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO organizations (name,organization_type,status,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$4) RETURNING id`,
		o.Name, o.Type, o.Status, now).Scan(&o.ID)
	if err != nil {
		return Organization{}, err
	}
	o.CreatedAt = time.Unix(now, 0).UTC()
	o.UpdatedAt = o.CreatedAt
	return o, nil
}

func (s *SQLStore) Update(ctx context.Context, o Organization) (Organization, error) {
	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx,
		`UPDATE organizations SET name=$1, organization_type=$2, status=$3, updated_at=$4 WHERE id=$5`,
		o.Name, o.Type, o.Status, now, o.ID)
	if err != nil {
		return Organization{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Organization{}, ErrNotFound
	}
	return s.Get(ctx, o.ID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrg(row rowScanner) (Organization, error) {
	var o Organization
	var created, updated int64
	if err := row.Scan(&o.ID, &o.Name, &o.Type, &o.Status, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Organization{}, ErrNotFound
		}
		return Organization{}, err
	}
	o.CreatedAt = time.Unix(created, 0).UTC()
	o.UpdatedAt = time.Unix(updated, 0).UTC()
	return o, nil
}
