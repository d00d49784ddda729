package cpf

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOrg = OrganizationMeta{
	ID:        42,
	Name:      "Acme Certification Body",
	Type:      "certification_body",
	Status:    "active",
	CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	UpdatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
}

func TestTransformMixedDocument(t *testing.T) {
	doc := AssessmentDocument{
		"1-1": {Value: 3},
		"1-2": {Value: 0},
		"2-1": {Value: 1},
	}

	v, err := Transform(testOrg, doc, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(42), v.ID)
	assert.Equal(t, "Acme Certification Body", v.Name)
	assert.Equal(t, "certification_body", v.OrganizationType)
	assert.Equal(t, "active", v.Status)

	require.Len(t, v.Indicators, 3)
	assert.Equal(t, 1.0, v.Indicators["1.1"].BayesianScore)
	assert.Equal(t, 0.0, v.Indicators["1.2"].BayesianScore)
	assert.InDelta(t, 1.0/3.0, v.Indicators["2.1"].BayesianScore, 1e-9)

	cat1 := v.Aggregates.ByCategory[1]
	assert.Equal(t, CategoryAggregate{Risk: 1.0, Completion: 50, Assessed: 1, Total: 2}, cat1)

	cat2 := v.Aggregates.ByCategory[2]
	assert.Equal(t, 1, cat2.Assessed)
	assert.Equal(t, 1, cat2.Total)
	assert.InDelta(t, 1.0/3.0, cat2.Risk, 1e-9)
	assert.Equal(t, 100.0, cat2.Completion)

	assert.Equal(t, 2, v.Aggregates.Completion.AssessedIndicators)
	assert.InDelta(t, 100.0*2/3, v.Aggregates.Completion.Percentage, 1e-9)

	// maturity over the same document: 100*(3+1)/(3*2)
	s, err := Summarize(doc)
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalIndicators)
	assert.Equal(t, 2, s.AssessedIndicators)
	assert.Equal(t, 67, s.MaturityScore)
	assert.Equal(t, LevelManaged, s.MaturityLevel)
}

func TestTransformUnassessedCategory(t *testing.T) {
	doc := AssessmentDocument{
		"4-1": {Value: 0},
		"4-2": {Value: 0},
	}
	v, err := Transform(testOrg, doc, nil)
	require.NoError(t, err)

	agg := v.Aggregates.ByCategory[4]
	assert.Equal(t, CategoryAggregate{Risk: 0, Completion: 0, Assessed: 0, Total: 2}, agg)
	assert.Equal(t, 0.0, v.Aggregates.Completion.Percentage)
}

func TestTransformOmitsAbsentCategories(t *testing.T) {
	v, err := Transform(testOrg, AssessmentDocument{"7-3": {Value: 2}}, nil)
	require.NoError(t, err)
	require.Len(t, v.Aggregates.ByCategory, 1)
	_, ok := v.Aggregates.ByCategory[1]
	assert.False(t, ok, "category without data must be absent, not zeroed")
}

func TestTransformEmptyDocument(t *testing.T) {
	v, err := Transform(testOrg, AssessmentDocument{}, nil)
	require.NoError(t, err)
	assert.Empty(t, v.Indicators)
	assert.NotNil(t, v.Indicators)
	assert.Empty(t, v.Aggregates.ByCategory)
	assert.NotNil(t, v.Aggregates.ByCategory)
	assert.Equal(t, Completion{Percentage: 0, AssessedIndicators: 0}, v.Aggregates.Completion)
}

func TestTransformMalformedKeyFailsWhole(t *testing.T) {
	doc := AssessmentDocument{
		"1-1": {Value: 3},
		"abc": {Value: 2},
	}
	_, err := Transform(testOrg, doc, nil)
	var malformed *MalformedKeyError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "abc", malformed.Key)
}

func TestTransformInvalidValueFailsWhole(t *testing.T) {
	doc := AssessmentDocument{
		"1-1": {Value: 3},
		"1-2": {Value: 7},
	}
	_, err := Transform(testOrg, doc, nil)
	var invalid *InvalidIndicatorValueError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "1.2", invalid.Key)
	assert.Equal(t, 7, invalid.Value)
}

func TestTransformMetadataPassthrough(t *testing.T) {
	meta := json.RawMessage(`{"language":"en-US","reviewer":"g.rossi"}`)
	v, err := Transform(testOrg, AssessmentDocument{"1-1": {Value: 1}}, meta)
	require.NoError(t, err)
	assert.JSONEq(t, string(meta), string(v.Metadata))

	// No stored metadata falls back to the default language marker.
	v, err = Transform(testOrg, AssessmentDocument{}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"language":"it-IT"}`, string(v.Metadata))
}

func TestEmptyView(t *testing.T) {
	v := EmptyView(testOrg)
	assert.Equal(t, testOrg.ID, v.ID)
	assert.Equal(t, testOrg.CreatedAt, v.CreatedAt)
	assert.NotNil(t, v.Indicators)
	assert.NotNil(t, v.Aggregates.ByCategory)
	assert.Equal(t, 0, v.Aggregates.Completion.AssessedIndicators)
}

func TestViewSerializesCategoriesInNumericOrder(t *testing.T) {
	doc := AssessmentDocument{}
	for _, key := range []string{"10-1", "2-1", "1-1", "9-9"} {
		doc[key] = IndicatorRecord{Value: 2}
	}
	v, err := Transform(testOrg, doc, nil)
	require.NoError(t, err)

	buf, err := json.Marshal(v.Aggregates.ByCategory)
	require.NoError(t, err)
	// CategoryMap marshals keys in numeric order, so 10 follows 9.
	assert.Equal(t, `{"1":`, string(buf[:5]))
	assert.Contains(t, string(buf), `"9":`)
	assert.Less(t, indexOf(string(buf), `"9":`), indexOf(string(buf), `"10":`))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
