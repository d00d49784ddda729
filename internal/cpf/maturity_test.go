package cpf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyMaturity(t *testing.T) {
	tests := []struct {
		score float64
		level Level
	}{
		{0, LevelInitial},
		{19.999, LevelInitial},
		{20.0, LevelRepeatable},
		{39.999, LevelRepeatable},
		{40.0, LevelDefined},
		{59.999, LevelDefined},
		{60.0, LevelManaged},
		{79.999, LevelManaged},
		{80.0, LevelOptimized},
		{100, LevelOptimized},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, ClassifyMaturity(tt.score), "score %v", tt.score)
	}
}

func TestSummarizeAllUnassessed(t *testing.T) {
	doc := AssessmentDocument{}
	for _, key := range DefaultTaxonomy.Keys() {
		doc[key] = IndicatorRecord{Value: 0}
	}
	s, err := Summarize(doc)
	require.NoError(t, err)
	assert.Equal(t, 100, s.TotalIndicators)
	assert.Equal(t, 0, s.AssessedIndicators)
	assert.Equal(t, 0, s.CompletionPercentage)
	assert.Equal(t, 0, s.MaturityScore)
	assert.Equal(t, LevelInitial, s.MaturityLevel)
	assert.Equal(t, 100, s.RiskScore)
}

func TestSummarizeAllHigh(t *testing.T) {
	doc := AssessmentDocument{}
	for _, key := range DefaultTaxonomy.Keys() {
		doc[key] = IndicatorRecord{Value: 3}
	}
	s, err := Summarize(doc)
	require.NoError(t, err)
	assert.Equal(t, 100, s.CompletionPercentage)
	assert.Equal(t, 100, s.MaturityScore)
	assert.Equal(t, LevelOptimized, s.MaturityLevel)
	assert.Equal(t, 0, s.RiskScore)
}

func TestSummarizeEmptyDocument(t *testing.T) {
	s, err := Summarize(AssessmentDocument{})
	require.NoError(t, err)
	assert.Equal(t, 0, s.TotalIndicators)
	assert.Equal(t, 0, s.AssessedIndicators)
	assert.Equal(t, LevelInitial, s.MaturityLevel)
	assert.Equal(t, 100, s.RiskScore)
}

func TestSummarizeClassifiesBeforeRounding(t *testing.T) {
	// 33 indicators at value 2 and 21 at value 3: maturity =
	// 100*(66+63)/(3*54) = 79.63, which display-rounds to 80 but must still
	// classify as Managed because classification uses the unrounded score.
	doc := AssessmentDocument{}
	i := 0
	for _, key := range DefaultTaxonomy.Keys() {
		switch {
		case i < 33:
			doc[key] = IndicatorRecord{Value: 2}
		case i < 54:
			doc[key] = IndicatorRecord{Value: 3}
		default:
			i++
			continue
		}
		i++
	}
	s, err := Summarize(doc)
	require.NoError(t, err)
	assert.Equal(t, 80, s.MaturityScore)
	assert.Equal(t, LevelManaged, s.MaturityLevel)
	assert.Equal(t, 20, s.RiskScore)
}

func TestSummarizeRejectsBadInput(t *testing.T) {
	_, err := Summarize(AssessmentDocument{"nope": {Value: 1}})
	var malformed *MalformedKeyError
	require.ErrorAs(t, err, &malformed)

	_, err = Summarize(AssessmentDocument{"1-1": {Value: 5}})
	var invalid *InvalidIndicatorValueError
	require.ErrorAs(t, err, &invalid)
}

func TestCompletionMonotonicity(t *testing.T) {
	doc := AssessmentDocument{
		"5-1": {Value: 0},
		"5-2": {Value: 2},
		"6-1": {Value: 0},
	}
	before, err := Transform(testOrg, doc, nil)
	require.NoError(t, err)

	// Flip one unassessed indicator to each rated value; completion and the
	// global assessed count never decrease.
	for value := 1; value <= 3; value++ {
		bumped := AssessmentDocument{}
		for k, v := range doc {
			bumped[k] = v
		}
		bumped["5-1"] = IndicatorRecord{Value: value}

		after, err := Transform(testOrg, bumped, nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t,
			after.Aggregates.ByCategory[5].Completion,
			before.Aggregates.ByCategory[5].Completion)
		assert.GreaterOrEqual(t,
			after.Aggregates.Completion.AssessedIndicators,
			before.Aggregates.Completion.AssessedIndicators)
	}
}
