package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certicredia/certicredia-platform/internal/auditing"
	"github.com/certicredia/certicredia-platform/internal/db"
	"github.com/certicredia/certicredia-platform/internal/org"
)

var dbSeq int

func openTestDB(t *testing.T) (*SQLStore, *sql.DB) {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:workflow_test_%d?mode=memory&cache=shared", dbSeq)
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return NewSQLStore(h), h
}

// seedAssessment creates an organization plus a live assessment so the
// foreign keys on specialist_assignments and review_comments are satisfied.
func seedAssessment(t *testing.T, h *sql.DB) int64 {
	t.Helper()
	ctx := context.Background()
	o, err := org.NewSQLStore(h).Create(ctx, org.Organization{Name: "Seeded Org", Type: "finance"})
	require.NoError(t, err)
	a, err := auditing.NewSQLStore(h).Create(ctx, o.ID, nil, nil)
	require.NoError(t, err)
	return a.ID
}

func TestAssignAndResolveToken(t *testing.T) {
	store, h := openTestDB(t)
	ctx := context.Background()
	assessmentID := seedAssessment(t, h)

	a, err := store.Assign(ctx, assessmentID, "spec-1", "admin", 0)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, a.Status)
	assert.Len(t, a.AccessToken, 32)
	// default window is 30 days
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 30), a.ExpiresAt, time.Minute)

	got, err := store.GetByToken(ctx, a.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, assessmentID, got.AssessmentID)
	assert.Equal(t, "spec-1", got.SpecialistID)
}

func TestGetByTokenUnknown(t *testing.T) {
	store, _ := openTestDB(t)

	_, err := store.GetByToken(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestRevokeHidesToken(t *testing.T) {
	store, h := openTestDB(t)
	ctx := context.Background()
	assessmentID := seedAssessment(t, h)

	a, err := store.Assign(ctx, assessmentID, "spec-1", "admin", 30)
	require.NoError(t, err)

	require.NoError(t, store.Revoke(ctx, a.ID))

	_, err = store.GetByToken(ctx, a.AccessToken)
	assert.ErrorIs(t, err, ErrAssignmentNotFound)

	// second revoke is a no-op on an already revoked row
	assert.ErrorIs(t, store.Revoke(ctx, a.ID), ErrAssignmentNotFound)
}

func TestListAssignmentsFilters(t *testing.T) {
	store, h := openTestDB(t)
	ctx := context.Background()
	first := seedAssessment(t, h)
	second := seedAssessment(t, h)

	a1, err := store.Assign(ctx, first, "spec-1", "admin", 30)
	require.NoError(t, err)
	_, err = store.Assign(ctx, second, "spec-2", "admin", 30)
	require.NoError(t, err)
	require.NoError(t, store.Revoke(ctx, a1.ID))

	all, err := store.ListAssignments(ctx, AssignmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bySpec, err := store.ListAssignments(ctx, AssignmentFilter{SpecialistID: "spec-2"})
	require.NoError(t, err)
	require.Len(t, bySpec, 1)
	assert.Equal(t, second, bySpec[0].AssessmentID)

	revoked, err := store.ListAssignments(ctx, AssignmentFilter{AssessmentID: first, Status: StatusRevoked})
	require.NoError(t, err)
	require.Len(t, revoked, 1)
	assert.Equal(t, a1.ID, revoked[0].ID)
}

func TestAddCommentNormalizesKey(t *testing.T) {
	store, h := openTestDB(t)
	ctx := context.Background()
	assessmentID := seedAssessment(t, h)

	c, err := store.AddComment(ctx, ReviewComment{
		AssessmentID: assessmentID,
		IndicatorKey: "3-7",
		AuthorID:     "spec-1",
		Body:         "needs vendor attestations",
	})
	require.NoError(t, err)
	assert.Equal(t, "3.7", c.IndicatorKey)
	assert.False(t, c.Resolved)

	_, err = store.AddComment(ctx, ReviewComment{
		AssessmentID: assessmentID,
		IndicatorKey: "not-a-key",
		AuthorID:     "spec-1",
		Body:         "x",
	})
	assert.Error(t, err)
}

func TestCommentLifecycle(t *testing.T) {
	store, h := openTestDB(t)
	ctx := context.Background()
	assessmentID := seedAssessment(t, h)

	c1, err := store.AddComment(ctx, ReviewComment{AssessmentID: assessmentID, AuthorID: "spec-1", Body: "first"})
	require.NoError(t, err)
	_, err = store.AddComment(ctx, ReviewComment{AssessmentID: assessmentID, AuthorID: "spec-1", Body: "second"})
	require.NoError(t, err)

	list, err := store.ListComments(ctx, assessmentID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, store.ResolveComment(ctx, c1.ID))
	list, err = store.ListComments(ctx, assessmentID)
	require.NoError(t, err)
	resolved := 0
	for _, c := range list {
		if c.Resolved {
			resolved++
		}
	}
	assert.Equal(t, 1, resolved)

	assert.ErrorIs(t, store.ResolveComment(ctx, "missing"), ErrCommentNotFound)
}

func TestStatsCountsAssignmentsAndComments(t *testing.T) {
	store, h := openTestDB(t)
	ctx := context.Background()
	first := seedAssessment(t, h)
	second := seedAssessment(t, h)

	_, err := store.Assign(ctx, first, "spec-1", "admin", 30)
	require.NoError(t, err)
	revoked, err := store.Assign(ctx, first, "spec-2", "admin", 30)
	require.NoError(t, err)
	require.NoError(t, store.Revoke(ctx, revoked.ID))
	lapsed, err := store.Assign(ctx, second, "spec-2", "admin", 30)
	require.NoError(t, err)
	// age the third assignment past its window
	_, err = h.ExecContext(ctx,
		`UPDATE specialist_assignments SET expires_at=$1 WHERE id=$2`,
		time.Now().UTC().Add(-time.Hour).Unix(), lapsed.ID)
	require.NoError(t, err)

	c, err := store.AddComment(ctx, ReviewComment{AssessmentID: first, AuthorID: "spec-1", Body: "one"})
	require.NoError(t, err)
	_, err = store.AddComment(ctx, ReviewComment{AssessmentID: first, AuthorID: "spec-2", Body: "two"})
	require.NoError(t, err)
	require.NoError(t, store.ResolveComment(ctx, c.ID))

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Assignments.Active)
	assert.Equal(t, 1, st.Assignments.Expired)
	assert.Equal(t, 1, st.Assignments.Revoked)
	assert.Equal(t, 2, st.Assignments.TotalSpecialists)
	assert.Equal(t, 2, st.Assignments.TotalAssessments)
	assert.Equal(t, 1, st.Comments.Open)
	assert.Equal(t, 1, st.Comments.Resolved)
	assert.Equal(t, 1, st.Comments.AssessmentsWithComments)
}
