package auditing_test

import (
	"context"
	"database/sql"
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

func openTestDB(t *testing.T) (*auditing.SQLStore, *sql.DB) {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:auditing_test_%d?mode=memory&cache=shared", dbSeq)
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return auditing.NewSQLStore(h), h
}

func seedOrg(t *testing.T, h *sql.DB) int64 {
	t.Helper()
	o, err := org.NewSQLStore(h).Create(context.Background(),
		org.Organization{Name: "Seeded Org", Type: "finance"})
	require.NoError(t, err)
	return o.ID
}

func TestSQLStoreCreateGetRoundTrip(t *testing.T) {
	store, h := openTestDB(t)
	ctx := context.Background()
	orgID := seedOrg(t, h)

	doc := cpf.AssessmentDocument{"1-1": {Value: 2}}
	created, err := store.Create(ctx, orgID, doc, nil)
	require.NoError(t, err)
	assert.Equal(t, orgID, created.OrganizationID)

	got, err := store.GetByOrganization(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, doc, got.Data)

	_, err = store.Create(ctx, orgID, doc, nil)
	assert.ErrorIs(t, err, auditing.ErrAlreadyExists)
}

func TestSQLStoreRestoreBringsBackNewestTrashedRow(t *testing.T) {
	store, h := openTestDB(t)
	ctx := context.Background()
	orgID := seedOrg(t, h)

	// Two delete/recreate cycles leave two trashed rows for the same
	// organization. Restoring must revive only the newer one, or the
	// single-live-row index would reject the update.
	older, err := store.Create(ctx, orgID, cpf.AssessmentDocument{"1-1": {Value: 1}}, nil)
	require.NoError(t, err)
	_, err = store.SoftDelete(ctx, orgID)
	require.NoError(t, err)

	newer, err := store.Create(ctx, orgID, cpf.AssessmentDocument{"2-2": {Value: 3}}, nil)
	require.NoError(t, err)
	_, err = store.SoftDelete(ctx, orgID)
	require.NoError(t, err)

	restored, err := store.Restore(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, restored.ID)
	assert.Nil(t, restored.DeletedAt)

	trash, err := store.Trash(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, older.ID, trash[0].ID)
}

func TestSQLStoreRestoreWithoutTrash(t *testing.T) {
	store, h := openTestDB(t)
	orgID := seedOrg(t, h)

	_, err := store.Restore(context.Background(), orgID)
	assert.ErrorIs(t, err, auditing.ErrDeletedNotFound)
}
