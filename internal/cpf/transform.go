package cpf

import (
	"encoding/json"
	"time"
)

// AssessmentDocument is the persisted form of one organization's assessment:
// indicator key (either wire form) to raw record.
type AssessmentDocument map[string]IndicatorRecord

// OrganizationMeta is the organization header the view is built around.
type OrganizationMeta struct {
	ID        int64
	Name      string
	Type      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// View is the derived assessment shape consumed by dashboards, PDF reports
// and the statistics endpoints. Indicators are keyed by canonical dotted id.
type View struct {
	ID               int64                     `json:"id"`
	Name             string                    `json:"name"`
	OrganizationType string                    `json:"organization_type"`
	Status           string                    `json:"status"`
	Indicators       map[string]IndicatorScore `json:"indicators"`
	Aggregates       Aggregates                `json:"aggregates"`
	Metadata         json.RawMessage           `json:"metadata"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// defaultMetadata is the passthrough metadata used when the stored record has
// none; the back-office renders Italian by default.
var defaultMetadata = json.RawMessage(`{"language":"it-IT"}`)

// Transform builds the complete derived view for one organization's
// assessment document. metadata is passed through unmodified when non-empty.
// It fails atomically: any malformed key or out-of-range value yields an
// error and no partial view.
func Transform(org OrganizationMeta, doc AssessmentDocument, metadata json.RawMessage) (View, error) {
	indicators := make(map[string]IndicatorScore, len(doc))
	catOf := make(map[string]int, len(doc))
	records := make(map[string]IndicatorRecord, len(doc))

	for key, rec := range doc {
		canonical, cat, err := NormalizeKey(key)
		if err != nil {
			return View{}, err
		}
		score, err := ScoreIndicator(canonical, rec)
		if err != nil {
			return View{}, err
		}
		indicators[canonical] = score
		catOf[canonical] = cat
		records[canonical] = rec
	}

	v := EmptyView(org)
	v.Indicators = indicators
	v.Aggregates = aggregate(indicators, catOf, records)
	if len(metadata) > 0 {
		v.Metadata = metadata
	}
	return v, nil
}

// EmptyView returns the well-formed zero view for an organization with no
// assessment yet. Dashboards render it as a blank assessment without
// special-casing "no data".
func EmptyView(org OrganizationMeta) View {
	return View{
		ID:               org.ID,
		Name:             org.Name,
		OrganizationType: org.Type,
		Status:           org.Status,
		Indicators:       map[string]IndicatorScore{},
		Aggregates: Aggregates{
			ByCategory: CategoryMap{},
		},
		Metadata:  defaultMetadata,
		CreatedAt: org.CreatedAt,
		UpdatedAt: org.UpdatedAt,
	}
}
