package auditing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/certicredia/certicredia-platform/internal/cpf"
	"github.com/certicredia/certicredia-platform/internal/org"
)

// Service glues the scoring engine to stored assessments and organizations.
// Every read runs the document through cpf.Transform; every write recomputes
// the cached maturity summary before persisting.
type Service struct {
	store Store
	orgs  org.Store
}

func NewService(store Store, orgs org.Store) *Service {
	return &Service{store: store, orgs: orgs}
}

func orgMeta(o org.Organization) cpf.OrganizationMeta {
	return cpf.OrganizationMeta{
		ID:        o.ID,
		Name:      o.Name,
		Type:      o.Type,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// OrganizationView returns the derived assessment view for one organization.
// An organization without an assessment gets the well-formed empty view, so
// dashboards never special-case "no data yet".
func (s *Service) OrganizationView(ctx context.Context, orgID int64) (cpf.View, error) {
	o, err := s.orgs.Get(ctx, orgID)
	if err != nil {
		return cpf.View{}, err
	}
	a, err := s.store.GetByOrganization(ctx, orgID)
	if errors.Is(err, ErrNotFound) {
		return cpf.EmptyView(orgMeta(o)), nil
	}
	if err != nil {
		return cpf.View{}, err
	}
	return cpf.Transform(orgMeta(o), a.Data, a.Metadata)
}

// Create stores a new assessment. The document is validated and its maturity
// summary computed before anything is persisted; a live row for the
// organization yields ErrAlreadyExists.
func (s *Service) Create(ctx context.Context, orgID int64, data cpf.AssessmentDocument, metadata json.RawMessage) (Assessment, error) {
	merged, err := withSummary(data, metadata)
	if err != nil {
		return Assessment{}, err
	}
	return s.store.Create(ctx, orgID, data, merged)
}

// Update replaces an existing assessment's document, refreshing the cached
// summary.
func (s *Service) Update(ctx context.Context, orgID int64, data cpf.AssessmentDocument, metadata json.RawMessage) (Assessment, error) {
	merged, err := withSummary(data, metadata)
	if err != nil {
		return Assessment{}, err
	}
	return s.store.Update(ctx, orgID, data, merged)
}

// ViewWithSummary returns both the derived view and the maturity summary for
// one organization, for report snapshots.
func (s *Service) ViewWithSummary(ctx context.Context, orgID int64) (cpf.View, cpf.Summary, error) {
	o, err := s.orgs.Get(ctx, orgID)
	if err != nil {
		return cpf.View{}, cpf.Summary{}, err
	}
	a, err := s.store.GetByOrganization(ctx, orgID)
	if errors.Is(err, ErrNotFound) {
		sum, _ := cpf.Summarize(nil)
		return cpf.EmptyView(orgMeta(o)), sum, nil
	}
	if err != nil {
		return cpf.View{}, cpf.Summary{}, err
	}
	view, err := cpf.Transform(orgMeta(o), a.Data, a.Metadata)
	if err != nil {
		return cpf.View{}, cpf.Summary{}, err
	}
	sum, err := cpf.Summarize(a.Data)
	if err != nil {
		return cpf.View{}, cpf.Summary{}, err
	}
	return view, sum, nil
}

// Get returns the stored row without running it through the transform.
func (s *Service) Get(ctx context.Context, orgID int64) (Assessment, error) {
	return s.store.GetByOrganization(ctx, orgID)
}

func (s *Service) SoftDelete(ctx context.Context, orgID int64) (Assessment, error) {
	return s.store.SoftDelete(ctx, orgID)
}

func (s *Service) Restore(ctx context.Context, orgID int64) (Assessment, error) {
	return s.store.Restore(ctx, orgID)
}

func (s *Service) PermanentDelete(ctx context.Context, orgID int64) (bool, error) {
	return s.store.PermanentDelete(ctx, orgID)
}

func (s *Service) List(ctx context.Context, opts ListOpts) ([]Assessment, error) {
	return s.store.List(ctx, opts)
}

func (s *Service) Trash(ctx context.Context) ([]Assessment, error) {
	return s.store.Trash(ctx)
}

// Statistics recomputes the rollup from stored documents rather than trusting
// cached metadata, so a stale cache can't skew the dashboard.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	stats := Statistics{ByLevel: map[cpf.Level]int{}}
	const page = 500
	for offset := 0; ; offset += page {
		batch, err := s.store.List(ctx, ListOpts{Limit: page, Offset: offset})
		if err != nil {
			return Statistics{}, err
		}
		for _, a := range batch {
			sum, err := cpf.Summarize(a.Data)
			if err != nil {
				return Statistics{}, err
			}
			stats.TotalAssessments++
			stats.AvgCompletion += float64(sum.CompletionPercentage)
			stats.AvgMaturity += float64(sum.MaturityScore)
			stats.ByLevel[sum.MaturityLevel]++
		}
		if len(batch) < page {
			break
		}
	}
	if stats.TotalAssessments > 0 {
		stats.AvgCompletion /= float64(stats.TotalAssessments)
		stats.AvgMaturity /= float64(stats.TotalAssessments)
	}
	return stats, nil
}

// withSummary validates the document and overlays its maturity summary onto
// the caller-provided metadata. Summary fields win over caller keys.
func withSummary(data cpf.AssessmentDocument, metadata json.RawMessage) (json.RawMessage, error) {
	sum, err := cpf.Summarize(data)
	if err != nil {
		return nil, err
	}

	merged := map[string]any{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &merged); err != nil {
			return nil, err
		}
	}

	sumJSON, err := json.Marshal(sum)
	if err != nil {
		return nil, err
	}
	var sumMap map[string]any
	if err := json.Unmarshal(sumJSON, &sumMap); err != nil {
		return nil, err
	}
	for k, v := range sumMap {
		merged[k] = v
	}
	return json.Marshal(merged)
}
