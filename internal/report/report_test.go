package report

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certicredia/certicredia-platform/internal/auditing"
	"github.com/certicredia/certicredia-platform/internal/cpf"
	"github.com/certicredia/certicredia-platform/internal/db"
	"github.com/certicredia/certicredia-platform/internal/org"
)

var dbSeq int

func newTestStack(t *testing.T) (*Service, *auditing.Service, org.Store) {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:report_test_%d?mode=memory&cache=shared", dbSeq)
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	orgs := org.NewSQLStore(h)
	assessments := auditing.NewService(auditing.NewSQLStore(h), orgs)
	return NewService(h, assessments), assessments, orgs
}

func fullDoc(value int) cpf.AssessmentDocument {
	doc := cpf.AssessmentDocument{}
	for _, key := range cpf.DefaultTaxonomy.Keys() {
		doc[key] = cpf.IndicatorRecord{Value: value}
	}
	return doc
}

func TestGenerateSnapshotsCurrentView(t *testing.T) {
	svc, assessments, orgs := newTestStack(t)
	ctx := context.Background()

	o, err := orgs.Create(ctx, org.Organization{Name: "Acme Hospital", Type: "healthcare"})
	require.NoError(t, err)
	_, err = assessments.Create(ctx, o.ID, fullDoc(3), nil)
	require.NoError(t, err)

	rep, err := svc.Generate(ctx, o.ID, "", "admin")
	require.NoError(t, err)
	assert.Equal(t, "assessment", rep.ReportType)
	assert.Equal(t, o.ID, rep.OrganizationID)

	var p Payload
	require.NoError(t, json.Unmarshal(rep.Payload, &p))
	assert.Equal(t, "Acme Hospital", p.Organization.Name)
	assert.Equal(t, 100, p.Summary.CompletionPercentage)
	assert.Equal(t, 100, p.Summary.MaturityScore)
	assert.Equal(t, cpf.LevelOptimized, p.Summary.MaturityLevel)
	assert.Len(t, p.Indicators, cpf.DefaultTaxonomy.TotalIndicators())
}

func TestGenerateWithoutAssessment(t *testing.T) {
	svc, _, orgs := newTestStack(t)
	ctx := context.Background()

	o, err := orgs.Create(ctx, org.Organization{Name: "Empty Org"})
	require.NoError(t, err)

	rep, err := svc.Generate(ctx, o.ID, "compliance", "admin")
	require.NoError(t, err)

	var p Payload
	require.NoError(t, json.Unmarshal(rep.Payload, &p))
	assert.Equal(t, 0, p.Summary.CompletionPercentage)
	assert.Equal(t, cpf.LevelInitial, p.Summary.MaturityLevel)
	assert.Empty(t, p.Indicators)
}

func TestGenerateUnknownOrganization(t *testing.T) {
	svc, _, _ := newTestStack(t)

	_, err := svc.Generate(context.Background(), 999, "", "admin")
	assert.ErrorIs(t, err, org.ErrNotFound)
}

func TestReportLifecycle(t *testing.T) {
	svc, assessments, orgs := newTestStack(t)
	ctx := context.Background()

	o, err := orgs.Create(ctx, org.Organization{Name: "Acme"})
	require.NoError(t, err)
	_, err = assessments.Create(ctx, o.ID, fullDoc(2), nil)
	require.NoError(t, err)

	r1, err := svc.Generate(ctx, o.ID, "assessment", "admin")
	require.NoError(t, err)
	_, err = svc.Generate(ctx, o.ID, "compliance", "admin")
	require.NoError(t, err)

	list, err := svc.ListByOrganization(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	got, err := svc.Get(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, "assessment", got.ReportType)

	require.NoError(t, svc.Delete(ctx, r1.ID))
	_, err = svc.Get(ctx, r1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, r1.ID), ErrNotFound)
}
