package evidence

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certicredia/certicredia-platform/internal/auditing"
	"github.com/certicredia/certicredia-platform/internal/db"
	"github.com/certicredia/certicredia-platform/internal/org"
	"github.com/certicredia/certicredia-platform/internal/storage"
)

var dbSeq int

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:evidence_test_%d?mode=memory&cache=shared", dbSeq)
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	bs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	return NewService(h, bs, 1<<20), h
}

// seedAssessment creates an organization plus a live assessment so the
// foreign key on evidence_files is satisfied.
func seedAssessment(t *testing.T, h *sql.DB) int64 {
	t.Helper()
	ctx := context.Background()
	o, err := org.NewSQLStore(h).Create(ctx, org.Organization{Name: "Seeded Org", Type: "finance"})
	require.NoError(t, err)
	a, err := auditing.NewSQLStore(h).Create(ctx, o.ID, nil, nil)
	require.NoError(t, err)
	return a.ID
}

func pdfUpload(assessmentID int64, name string) UploadInput {
	return UploadInput{
		AssessmentID: assessmentID,
		DocumentType: "policy",
		FileName:     name,
		MimeType:     "application/pdf",
		Size:         11,
		Description:  "security policy",
		UploadedBy:   "op-1",
	}
}

func TestUploadAndDownload(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()
	assessmentID := seedAssessment(t, h)

	f, err := svc.Upload(ctx, pdfUpload(assessmentID, "policy.pdf"), strings.NewReader("hello bytes"))
	require.NoError(t, err)
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, "policy.pdf", f.FileName)
	assert.True(t, strings.HasPrefix(f.StorageKey, "evidence/"))
	assert.True(t, strings.HasSuffix(f.StorageKey, ".pdf"))

	meta, rc, err := svc.Open(ctx, f.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello bytes", string(body))
	assert.Equal(t, "application/pdf", meta.MimeType)

	// access bookkeeping lands on the next read
	meta, err = svc.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), meta.AccessCount)
	assert.NotNil(t, meta.LastAccessedAt)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc, h := newTestService(t)
	assessmentID := seedAssessment(t, h)

	in := pdfUpload(assessmentID, "malware.exe")
	in.MimeType = "application/x-msdownload"
	_, err := svc.Upload(context.Background(), in, strings.NewReader("nope"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUploadRejectsOversize(t *testing.T) {
	svc, h := newTestService(t)
	assessmentID := seedAssessment(t, h)

	in := pdfUpload(assessmentID, "big.pdf")
	in.Size = 2 << 20 // limit is 1 MiB
	_, err := svc.Upload(context.Background(), in, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestListFilters(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()
	first := seedAssessment(t, h)
	second := seedAssessment(t, h)

	_, err := svc.Upload(ctx, pdfUpload(first, "a.pdf"), strings.NewReader("a"))
	require.NoError(t, err)

	other := pdfUpload(second, "b.txt")
	other.DocumentType = "audit"
	other.MimeType = "text/plain"
	_, err = svc.Upload(ctx, other, strings.NewReader("b"))
	require.NoError(t, err)

	all, err := svc.List(ctx, ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byAssessment, err := svc.List(ctx, ListOpts{AssessmentID: second})
	require.NoError(t, err)
	require.Len(t, byAssessment, 1)
	assert.Equal(t, "b.txt", byAssessment[0].FileName)

	byType, err := svc.List(ctx, ListOpts{DocumentType: "policy"})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "a.pdf", byType[0].FileName)
}

func TestDeleteRemovesBlobAndRow(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()
	assessmentID := seedAssessment(t, h)

	f, err := svc.Upload(ctx, pdfUpload(assessmentID, "gone.pdf"), strings.NewReader("bye"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, f.ID))

	_, err = svc.Get(ctx, f.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.blobs.Get(f.StorageKey)
	assert.Error(t, err)
}
