package auditing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/certicredia/certicredia-platform/internal/cpf"
)

var (
	ErrNotFound        = errors.New("assessment not found")
	ErrAlreadyExists   = errors.New("assessment already exists for organization")
	ErrDeletedNotFound = errors.New("deleted assessment not found")
)

// Store persists assessment rows. Get/Update/SoftDelete operate on live rows
// only; Restore and Trash operate on soft-deleted rows.
type Store interface {
	GetByOrganization(ctx context.Context, orgID int64) (Assessment, error)
	Create(ctx context.Context, orgID int64, data cpf.AssessmentDocument, metadata json.RawMessage) (Assessment, error)
	Update(ctx context.Context, orgID int64, data cpf.AssessmentDocument, metadata json.RawMessage) (Assessment, error)
	SoftDelete(ctx context.Context, orgID int64) (Assessment, error)
	Restore(ctx context.Context, orgID int64) (Assessment, error)
	PermanentDelete(ctx context.Context, orgID int64) (bool, error)
	List(ctx context.Context, opts ListOpts) ([]Assessment, error)
	Trash(ctx context.Context) ([]Assessment, error)
}
