package auditing_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certicredia/certicredia-platform/internal/auditing"
	"github.com/certicredia/certicredia-platform/internal/cpf"
	"github.com/certicredia/certicredia-platform/internal/org"
)

/* ---------------- In-memory fake satisfying org.Store ---------------- */

type fakeOrgStore struct {
	orgs map[int64]org.Organization
}

func newFakeOrgStore(orgs ...org.Organization) *fakeOrgStore {
	f := &fakeOrgStore{orgs: map[int64]org.Organization{}}
	for _, o := range orgs {
		f.orgs[o.ID] = o
	}
	return f
}

func (f *fakeOrgStore) Get(_ context.Context, id int64) (org.Organization, error) {
	o, ok := f.orgs[id]
	if !ok {
		return org.Organization{}, org.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrgStore) List(_ context.Context, _ org.ListOpts) ([]org.Organization, error) {
	var out []org.Organization
	for _, o := range f.orgs {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrgStore) Create(_ context.Context, o org.Organization) (org.Organization, error) {
	f.orgs[o.ID] = o
	return o, nil
}

func (f *fakeOrgStore) Update(_ context.Context, o org.Organization) (org.Organization, error) {
	f.orgs[o.ID] = o
	return o, nil
}

/* --------------------------------------------------------------------- */

func newTestService() (*auditing.Service, auditing.Store) {
	store := auditing.NewInMemoryStore()
	orgs := newFakeOrgStore(org.Organization{
		ID:        7,
		Name:      "Borgo Audit Srl",
		Type:      "consultancy",
		Status:    org.StatusActive,
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	return auditing.NewService(store, orgs), store
}

func TestOrganizationViewWithoutAssessment(t *testing.T) {
	svc, _ := newTestService()

	v, err := svc.OrganizationView(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.ID)
	assert.Equal(t, "Borgo Audit Srl", v.Name)
	assert.Empty(t, v.Indicators)
	assert.NotNil(t, v.Indicators)
	assert.Equal(t, 0, v.Aggregates.Completion.AssessedIndicators)
}

func TestOrganizationViewUnknownOrg(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.OrganizationView(context.Background(), 999)
	assert.ErrorIs(t, err, org.ErrNotFound)
}

func TestCreateComputesSummaryMetadata(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	doc := cpf.AssessmentDocument{
		"1-1": {Value: 3},
		"1-2": {Value: 0},
		"2-1": {Value: 1},
	}
	a, err := svc.Create(ctx, 7, doc, json.RawMessage(`{"language":"it-IT"}`))
	require.NoError(t, err)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(a.Metadata, &meta))
	assert.Equal(t, "it-IT", meta["language"])
	assert.Equal(t, float64(67), meta["maturity_score"])
	assert.Equal(t, "Managed", meta["maturity_level"])
	assert.Equal(t, float64(67), meta["completion_percentage"])
	assert.Equal(t, float64(3), meta["total_indicators"])
	assert.Equal(t, float64(2), meta["assessed_indicators"])
}

func TestCreateTwiceConflicts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 7, cpf.AssessmentDocument{"1-1": {Value: 1}}, nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, 7, cpf.AssessmentDocument{"1-1": {Value: 2}}, nil)
	assert.ErrorIs(t, err, auditing.ErrAlreadyExists)
}

func TestCreateRejectsBadDocumentWithoutPersisting(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 7, cpf.AssessmentDocument{"bogus": {Value: 1}}, nil)
	var malformed *cpf.MalformedKeyError
	require.ErrorAs(t, err, &malformed)

	_, err = store.GetByOrganization(ctx, 7)
	assert.ErrorIs(t, err, auditing.ErrNotFound)
}

func TestUpdateMissingAssessment(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Update(context.Background(), 7, cpf.AssessmentDocument{"1-1": {Value: 1}}, nil)
	assert.ErrorIs(t, err, auditing.ErrNotFound)
}

func TestSoftDeleteRestoreCycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 7, cpf.AssessmentDocument{"1-1": {Value: 2}}, nil)
	require.NoError(t, err)

	deleted, err := svc.SoftDelete(ctx, 7)
	require.NoError(t, err)
	assert.NotNil(t, deleted.DeletedAt)

	// Live view falls back to the empty shape while trashed.
	v, err := svc.OrganizationView(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, v.Indicators)

	trash, err := svc.Trash(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 1)

	restored, err := svc.Restore(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)

	v, err = svc.OrganizationView(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, v.Indicators, 1)
}

func TestRestoreWithoutTrash(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Restore(context.Background(), 7)
	assert.ErrorIs(t, err, auditing.ErrDeletedNotFound)
}

func TestPermanentDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	ok, err := svc.PermanentDelete(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Create(ctx, 7, cpf.AssessmentDocument{"1-1": {Value: 2}}, nil)
	require.NoError(t, err)

	ok, err = svc.PermanentDelete(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStatistics(t *testing.T) {
	store := auditing.NewInMemoryStore()
	orgs := newFakeOrgStore()
	svc := auditing.NewService(store, orgs)
	ctx := context.Background()

	// org 1: everything high -> maturity 100, Optimized
	docHigh := cpf.AssessmentDocument{}
	for _, key := range cpf.DefaultTaxonomy.Keys() {
		docHigh[key] = cpf.IndicatorRecord{Value: 3}
	}
	_, err := svc.Create(ctx, 1, docHigh, nil)
	require.NoError(t, err)

	// org 2: nothing assessed -> maturity 0, Initial
	docZero := cpf.AssessmentDocument{}
	for _, key := range cpf.DefaultTaxonomy.Keys() {
		docZero[key] = cpf.IndicatorRecord{Value: 0}
	}
	_, err = svc.Create(ctx, 2, docZero, nil)
	require.NoError(t, err)

	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalAssessments)
	assert.InDelta(t, 50, stats.AvgMaturity, 1e-9)
	assert.InDelta(t, 50, stats.AvgCompletion, 1e-9)
	assert.Equal(t, 1, stats.ByLevel[cpf.LevelOptimized])
	assert.Equal(t, 1, stats.ByLevel[cpf.LevelInitial])
}
