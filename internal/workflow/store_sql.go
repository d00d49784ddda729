package workflow

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/certicredia/certicredia-platform/internal/cpf"
)

var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrCommentNotFound    = errors.New("review comment not found")
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// newAccessToken returns a 32-hex-char opaque token.
func newAccessToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Assign creates an active assignment valid for expiresInDays from now
// (default 30).
func (s *SQLStore) Assign(ctx context.Context, assessmentID int64, specialistID, assignedBy string, expiresInDays int) (Assignment, error) {
	if expiresInDays <= 0 {
		expiresInDays = 30
	}
	token, err := newAccessToken()
	if err != nil {
		return Assignment{}, err
	}
	now := time.Now().UTC()
	a := Assignment{
		ID:           uuid.NewString(),
		AssessmentID: assessmentID,
		SpecialistID: specialistID,
		AssignedBy:   assignedBy,
		AccessToken:  token,
		Status:       StatusActive,
		ExpiresAt:    now.AddDate(0, 0, expiresInDays).Truncate(time.Second),
		CreatedAt:    now.Truncate(time.Second),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO specialist_assignments
		 (id,assessment_id,specialist_id,assigned_by,access_token,status,expires_at,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.AssessmentID, a.SpecialistID, a.AssignedBy, a.AccessToken, a.Status,
		a.ExpiresAt.Unix(), a.CreatedAt.Unix())
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// GetByToken resolves an access token to its assignment. Revoked or expired
// assignments behave as missing.
func (s *SQLStore) GetByToken(ctx context.Context, token string) (Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,assessment_id,specialist_id,assigned_by,access_token,status,expires_at,created_at
		 FROM specialist_assignments WHERE access_token=$1`, token)
	a, err := scanAssignment(row)
	if err != nil {
		return Assignment{}, err
	}
	if a.Status != StatusActive || a.Expired(time.Now().UTC()) {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, nil
}

func (s *SQLStore) Revoke(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE specialist_assignments SET status=$1 WHERE id=$2 AND status=$3`,
		StatusRevoked, id, StatusActive)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (s *SQLStore) ListAssignments(ctx context.Context, f AssignmentFilter) ([]Assignment, error) {
	q := `SELECT id,assessment_id,specialist_id,assigned_by,access_token,status,expires_at,created_at
	      FROM specialist_assignments WHERE 1=1`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}
	if f.AssessmentID != 0 {
		q += ` AND assessment_id=` + arg(f.AssessmentID)
	}
	if f.SpecialistID != "" {
		q += ` AND specialist_id=` + arg(f.SpecialistID)
	}
	if f.Status != "" {
		q += ` AND status=` + arg(f.Status)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AddComment pins a review remark to an assessment. A non-empty indicator
// key is normalized to canonical form before storage.
func (s *SQLStore) AddComment(ctx context.Context, c ReviewComment) (ReviewComment, error) {
	if c.IndicatorKey != "" {
		canonical, err := cpf.CanonicalKey(c.IndicatorKey)
		if err != nil {
			return ReviewComment{}, err
		}
		c.IndicatorKey = canonical
	}
	c.ID = uuid.NewString()
	c.Resolved = false
	c.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO review_comments (id,assessment_id,indicator_key,author_id,body,resolved,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.AssessmentID, c.IndicatorKey, c.AuthorID, c.Body, c.Resolved, c.CreatedAt.Unix())
	if err != nil {
		return ReviewComment{}, err
	}
	return c, nil
}

func (s *SQLStore) ListComments(ctx context.Context, assessmentID int64) ([]ReviewComment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,assessment_id,indicator_key,author_id,body,resolved,created_at
		 FROM review_comments WHERE assessment_id=$1 ORDER BY created_at`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReviewComment
	for rows.Next() {
		var c ReviewComment
		var created int64
		if err := rows.Scan(&c.ID, &c.AssessmentID, &c.IndicatorKey, &c.AuthorID, &c.Body, &c.Resolved, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) ResolveComment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE review_comments SET resolved=$1 WHERE id=$2`, true, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// Stats aggregates assignment and comment counts. Expiry is evaluated
// against the current time, the same way GetByToken treats lapsed rows.
func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	now := time.Now().UTC().Unix()
	err := s.db.QueryRowContext(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE status='active' AND expires_at > $1),
		   COUNT(*) FILTER (WHERE status='active' AND expires_at <= $1),
		   COUNT(*) FILTER (WHERE status='revoked'),
		   COUNT(DISTINCT specialist_id),
		   COUNT(DISTINCT assessment_id)
		 FROM specialist_assignments`, now).Scan(
		&st.Assignments.Active, &st.Assignments.Expired, &st.Assignments.Revoked,
		&st.Assignments.TotalSpecialists, &st.Assignments.TotalAssessments)
	if err != nil {
		return Stats{}, err
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE resolved = FALSE),
		   COUNT(*) FILTER (WHERE resolved = TRUE),
		   COUNT(DISTINCT assessment_id)
		 FROM review_comments`).Scan(
		&st.Comments.Open, &st.Comments.Resolved, &st.Comments.AssessmentsWithComments)
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (Assignment, error) {
	var a Assignment
	var expires, created int64
	err := row.Scan(&a.ID, &a.AssessmentID, &a.SpecialistID, &a.AssignedBy, &a.AccessToken, &a.Status, &expires, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assignment{}, ErrAssignmentNotFound
		}
		return Assignment{}, err
	}
	a.ExpiresAt = time.Unix(expires, 0).UTC()
	a.CreatedAt = time.Unix(created, 0).UTC()
	return a, nil
}
